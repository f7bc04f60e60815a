package service

import (
	"context"
	"errors"
	"time"

	"github.com/AlibekovAA/social-stream/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/social-stream/backend/internal/common/errors"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
	feedrepo "github.com/AlibekovAA/social-stream/backend/internal/feed/repository"
	"github.com/AlibekovAA/social-stream/backend/internal/observability/metrics"
	postdomain "github.com/AlibekovAA/social-stream/backend/internal/post/domain"
	postrepo "github.com/AlibekovAA/social-stream/backend/internal/post/repository"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/social-stream/backend/internal/user/repository"
)

const (
	kindPersonal = "personal"
	kindUser     = "user"
	kindGlobal   = "global"
)

type FeedServiceDeps struct {
	Feed   feedrepo.Repository
	Posts  postrepo.Repository
	Users  userrepo.Repository
	Logger *logger.Logger
	// DefaultLimit applies when a caller passes no limit. Zero means
	// constants.StreamDisplayLimit.
	DefaultLimit int
}

type FeedService struct {
	feed         feedrepo.Repository
	posts        postrepo.Repository
	users        userrepo.Repository
	log          *logger.Logger
	defaultLimit int
}

func NewFeedService(deps FeedServiceDeps) *FeedService {
	limit := deps.DefaultLimit
	if limit <= 0 || limit > constants.StreamDisplayLimit {
		limit = constants.StreamDisplayLimit
	}
	return &FeedService{
		feed:         deps.Feed,
		posts:        deps.Posts,
		users:        deps.Users,
		log:          deps.Logger,
		defaultLimit: limit,
	}
}

// StreamFor is the personal stream: the user's own posts plus those of
// everyone they follow, newest first.
func (s *FeedService) StreamFor(ctx context.Context, user userdomain.ID, limit int) ([]postdomain.Post, error) {
	start := time.Now()
	posts, err := s.feed.StreamFor(ctx, user, s.window(limit))
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user),
			"action":  "stream_for_failed",
		}).Errorf("stream build failed: %v", err)
		return nil, commonerrors.ErrDatabaseError.WithCause(err)
	}
	observe(kindPersonal, start, posts)
	return posts, nil
}

// StreamOf lists the posts written by the named user.
func (s *FeedService) StreamOf(ctx context.Context, username string, limit int) ([]postdomain.Post, error) {
	start := time.Now()
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return nil, commonerrors.ErrUserNotFound
		}
		return nil, commonerrors.ErrDatabaseError.WithCause(err)
	}

	posts, err := s.posts.ListByAuthor(ctx, u.ID, s.window(limit))
	if err != nil {
		return nil, commonerrors.ErrDatabaseError.WithCause(err)
	}
	observe(kindUser, start, posts)
	return posts, nil
}

func (s *FeedService) GlobalStream(ctx context.Context, limit int) ([]postdomain.Post, error) {
	start := time.Now()
	posts, err := s.posts.ListAll(ctx, s.window(limit))
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "global_stream_failed",
		}).Errorf("global stream failed: %v", err)
		return nil, commonerrors.ErrDatabaseError.WithCause(err)
	}
	observe(kindGlobal, start, posts)
	return posts, nil
}

func (s *FeedService) window(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > constants.StreamDisplayLimit {
		return constants.StreamDisplayLimit
	}
	return limit
}

func observe(kind string, start time.Time, posts []postdomain.Post) {
	metrics.StreamBuildDurationSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.StreamSize.WithLabelValues(kind).Observe(float64(len(posts)))
}
