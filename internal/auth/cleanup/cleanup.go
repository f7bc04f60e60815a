package cleanup

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	authrepo "github.com/AlibekovAA/social-stream/backend/internal/auth/repository"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
	"github.com/AlibekovAA/social-stream/backend/internal/observability/metrics"
)

type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// RunOnce deletes expired rows and records how many went.
func RunOnce(ctx context.Context, repo ExpiredDeleter, counter prometheus.Counter, log *logger.Logger, repoName string) int64 {
	deleted, err := repo.DeleteExpired(ctx)
	if err != nil {
		log.Errorf("%s cleanup failed: %v", repoName, err)
		return 0
	}
	if deleted > 0 {
		counter.Add(float64(deleted))
		log.Infof("%s cleanup: deleted %d expired tokens", repoName, deleted)
	}
	return deleted
}

// StartCleanup blocks, running RunOnce every interval until ctx is done.
func StartCleanup(ctx context.Context, repo ExpiredDeleter, counter prometheus.Counter, interval time.Duration, log *logger.Logger, repoName string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			RunOnce(ctx, repo, counter, log, repoName)
		}
	}
}

func StartRefreshTokenCleanup(ctx context.Context, repo authrepo.RefreshTokenRepository, interval time.Duration, log *logger.Logger) {
	StartCleanup(ctx, repo, metrics.RefreshTokensCleanupDeleted, interval, log, "refresh token")
}

func StartRevokedTokenCleanup(ctx context.Context, repo authrepo.RevokedTokenRepository, interval time.Duration, log *logger.Logger) {
	StartCleanup(ctx, repo, metrics.RevokedTokensCleanupDeleted, interval, log, "revoked token")
}
