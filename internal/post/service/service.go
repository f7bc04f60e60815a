package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/AlibekovAA/social-stream/backend/internal/common/clock"
	"github.com/AlibekovAA/social-stream/backend/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/social-stream/backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/social-stream/backend/internal/common/errors"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
	"github.com/AlibekovAA/social-stream/backend/internal/observability/metrics"
	"github.com/AlibekovAA/social-stream/backend/internal/post/domain"
	postrepo "github.com/AlibekovAA/social-stream/backend/internal/post/repository"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

type PostServiceDeps struct {
	Posts       postrepo.Repository
	IDGenerator commoncrypto.IDGenerator
	Clock       clock.Clock
	Logger      *logger.Logger
}

type PostService struct {
	posts       postrepo.Repository
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	log         *logger.Logger
}

func NewPostService(deps PostServiceDeps) *PostService {
	c := deps.Clock
	if c == nil {
		c = clock.NewRealClock()
	}
	gen := deps.IDGenerator
	if gen == nil {
		gen = commoncrypto.NewUUIDGenerator()
	}
	return &PostService{
		posts:       deps.Posts,
		idGenerator: gen,
		clock:       c,
		log:         deps.Logger,
	}
}

func (s *PostService) CreatePost(ctx context.Context, author userdomain.ID, content string) (domain.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Post{}, commonerrors.ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > constants.MaxPostLength {
		return domain.Post{}, commonerrors.ErrContentTooLong
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return domain.Post{}, commonerrors.ErrInternalError.WithCause(err)
	}

	post, err := s.posts.Create(ctx, domain.Post{
		ID:        domain.ID(id),
		UserID:    author,
		Content:   content,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, postrepo.ErrUnknownAuthor) {
			return domain.Post{}, commonerrors.ErrUserNotFound
		}
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(author),
			"action":  "create_post_failed",
		}).Errorf("create post failed: %v", err)
		return domain.Post{}, commonerrors.ErrDatabaseError.WithCause(err)
	}

	metrics.PostsCreatedTotal.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(author),
		"post_id": string(post.ID),
		"action":  "create_post_success",
	}).Info("post created")
	return post, nil
}

func (s *PostService) PostsBy(ctx context.Context, author userdomain.ID, limit int) ([]domain.Post, error) {
	posts, err := s.posts.ListByAuthor(ctx, author, ClampLimit(limit))
	if err != nil {
		return nil, commonerrors.ErrDatabaseError.WithCause(err)
	}
	return posts, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (domain.Post, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return domain.Post{}, commonerrors.ErrPostNotFound
	}

	post, err := s.posts.FindByID(ctx, domain.ID(parsed.String()))
	if err != nil {
		if errors.Is(err, postrepo.ErrPostNotFound) {
			return domain.Post{}, commonerrors.ErrPostNotFound
		}
		return domain.Post{}, commonerrors.ErrDatabaseError.WithCause(err)
	}
	return post, nil
}

// ClampLimit maps a requested window size onto (0, StreamDisplayLimit].
func ClampLimit(limit int) int {
	if limit <= 0 || limit > constants.StreamDisplayLimit {
		return constants.StreamDisplayLimit
	}
	return limit
}
