package service

import (
	"context"
	"errors"

	"github.com/AlibekovAA/social-stream/backend/internal/common/clock"
	commonerrors "github.com/AlibekovAA/social-stream/backend/internal/common/errors"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
	"github.com/AlibekovAA/social-stream/backend/internal/graph/domain"
	graphrepo "github.com/AlibekovAA/social-stream/backend/internal/graph/repository"
	"github.com/AlibekovAA/social-stream/backend/internal/observability/metrics"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/social-stream/backend/internal/user/repository"
)

type GraphServiceDeps struct {
	Relationships graphrepo.Repository
	Users         userrepo.Repository
	Clock         clock.Clock
	Logger        *logger.Logger
}

type GraphService struct {
	relationships graphrepo.Repository
	users         userrepo.Repository
	clock         clock.Clock
	log           *logger.Logger
}

func NewGraphService(deps GraphServiceDeps) *GraphService {
	c := deps.Clock
	if c == nil {
		c = clock.NewRealClock()
	}
	return &GraphService{
		relationships: deps.Relationships,
		users:         deps.Users,
		clock:         c,
		log:           deps.Logger,
	}
}

// Follow makes actor follow the user named target. The edge is committed
// before Follow returns, so the next stream read sees it.
func (s *GraphService) Follow(ctx context.Context, actor userdomain.ID, target string) error {
	to, err := s.resolve(ctx, target)
	if err != nil {
		recordGraphOperation("follow", "not_found")
		return err
	}

	if to.ID == actor {
		recordGraphOperation("follow", "self")
		return commonerrors.ErrSelfFollow
	}

	err = s.relationships.Create(ctx, domain.Relationship{
		From:      actor,
		To:        to.ID,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, graphrepo.ErrAlreadyFollowing):
			recordGraphOperation("follow", "duplicate")
			return commonerrors.ErrAlreadyFollowing
		case errors.Is(err, graphrepo.ErrSelfFollow):
			recordGraphOperation("follow", "self")
			return commonerrors.ErrSelfFollow
		case errors.Is(err, graphrepo.ErrUnknownUser):
			recordGraphOperation("follow", "not_found")
			return commonerrors.ErrUserNotFound
		}
		recordGraphOperation("follow", "error")
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(actor),
			"target":  to.Username,
			"action":  "follow_failed",
		}).Errorf("follow failed: %v", err)
		return commonerrors.ErrDatabaseError.WithCause(err)
	}

	recordGraphOperation("follow", "success")
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(actor),
		"target":  to.Username,
		"action":  "follow_success",
	}).Info("user followed")
	return nil
}

// Unfollow removes the edge if present. A missing edge is not an error; a
// missing target user is.
func (s *GraphService) Unfollow(ctx context.Context, actor userdomain.ID, target string) error {
	to, err := s.resolve(ctx, target)
	if err != nil {
		recordGraphOperation("unfollow", "not_found")
		return err
	}

	removed, err := s.relationships.Delete(ctx, actor, to.ID)
	if err != nil {
		recordGraphOperation("unfollow", "error")
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(actor),
			"target":  to.Username,
			"action":  "unfollow_failed",
		}).Errorf("unfollow failed: %v", err)
		return commonerrors.ErrDatabaseError.WithCause(err)
	}

	if !removed {
		recordGraphOperation("unfollow", "noop")
		return nil
	}

	recordGraphOperation("unfollow", "success")
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(actor),
		"target":  to.Username,
		"action":  "unfollow_success",
	}).Info("user unfollowed")
	return nil
}

func (s *GraphService) Following(ctx context.Context, username string) ([]userdomain.Summary, error) {
	u, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	users, err := s.relationships.Following(ctx, u.ID)
	if err != nil {
		return nil, commonerrors.ErrDatabaseError.WithCause(err)
	}
	return users, nil
}

func (s *GraphService) Followers(ctx context.Context, username string) ([]userdomain.Summary, error) {
	u, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	users, err := s.relationships.Followers(ctx, u.ID)
	if err != nil {
		return nil, commonerrors.ErrDatabaseError.WithCause(err)
	}
	return users, nil
}

// Relation reports how actor and the named user are connected.
func (s *GraphService) Relation(ctx context.Context, actor userdomain.ID, username string) (domain.Relation, error) {
	u, err := s.resolve(ctx, username)
	if err != nil {
		return domain.Relation{}, err
	}
	if u.ID == actor {
		return domain.Relation{}, nil
	}
	rel, err := s.relationships.Status(ctx, actor, u.ID)
	if err != nil {
		return domain.Relation{}, commonerrors.ErrDatabaseError.WithCause(err)
	}
	return rel, nil
}

func (s *GraphService) resolve(ctx context.Context, username string) (userdomain.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return userdomain.User{}, commonerrors.ErrUserNotFound
		}
		return userdomain.User{}, commonerrors.ErrDatabaseError.WithCause(err)
	}
	return u, nil
}

func recordGraphOperation(operation, result string) {
	metrics.GraphOperationsTotal.WithLabelValues(operation, result).Inc()
}
