package cleanup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promdto "github.com/prometheus/client_model/go"

	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
)

type stubDeleter struct {
	deleted int64
	err     error
	calls   atomic.Int32
}

func (s *stubDeleter) DeleteExpired(ctx context.Context) (int64, error) {
	s.calls.Add(1)
	return s.deleted, s.err
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m promdto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRunOnce_CountsDeletedRows(t *testing.T) {
	log, _ := logger.New("", "test", "error")
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_cleanup_deleted_total"})

	got := RunOnce(context.Background(), &stubDeleter{deleted: 5}, counter, log, "refresh token")
	if got != 5 {
		t.Fatalf("expected 5 deleted, got %d", got)
	}
	if v := counterValue(t, counter); v != 5 {
		t.Errorf("expected counter at 5, got %v", v)
	}
}

func TestRunOnce_Error(t *testing.T) {
	log, _ := logger.New("", "test", "error")
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_cleanup_failed_total"})

	got := RunOnce(context.Background(), &stubDeleter{deleted: 3, err: errors.New("boom")}, counter, log, "revoked token")
	if got != 0 {
		t.Fatalf("expected 0 on error, got %d", got)
	}
	if v := counterValue(t, counter); v != 0 {
		t.Errorf("expected counter untouched, got %v", v)
	}
}

func TestStartCleanup_StopsOnCancel(t *testing.T) {
	log, _ := logger.New("", "test", "error")
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_cleanup_loop_total"})
	repo := &stubDeleter{deleted: 1}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartCleanup(ctx, repo, counter, 10*time.Millisecond, log, "refresh token")
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop after cancel")
	}
	if repo.calls.Load() == 0 {
		t.Error("expected at least one cleanup pass")
	}
}
