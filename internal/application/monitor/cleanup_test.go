package monitor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/domain/cache"
	"github.com/vigiajus/vigiajus/internal/domain/novelty"
	domproc "github.com/vigiajus/vigiajus/internal/domain/process"
	"github.com/vigiajus/vigiajus/pkg/clock"
	"github.com/vigiajus/vigiajus/pkg/types/common"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

type failingMaintainer struct{ err error }

func (m *failingMaintainer) RunMaintenance(context.Context) error { return m.err }

func cleanupFixture(t *testing.T, opts ...CleanupOption) (*CleanupJob, *memNoveltyRepo, *cache.Layer, *fakeLogRepo, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	noveltyRepo := &memNoveltyRepo{}
	detector := novelty.NewDetector(noveltyRepo, novelty.NewRuleSet(nil), 48*time.Hour, 50, nil,
		novelty.WithDetectorClock(mock))
	cacheLayer := cache.NewLayer(1<<20, 0.75, nil, cache.WithClock(mock))
	logs := &fakeLogRepo{}

	cfg := config.CleanupConfig{
		Interval:     time.Hour,
		LogRetention: 30 * 24 * time.Hour,
		HistorySize:  3,
	}
	opts = append(opts, WithCleanupClock(mock))
	job := NewCleanupJob(detector, cacheLayer, logs, cfg, nil, opts...)
	return job, noveltyRepo, cacheLayer, logs, mock
}

func TestCleanupRunNow(t *testing.T) {
	job, noveltyRepo, cacheLayer, logs, mock := cleanupFixture(t)
	ctx := context.Background()

	noveltyRepo.Create(ctx, &novelty.Novelty{
		ID:        common.NewID(),
		ExpiresAt: mock.Now().Add(-time.Hour),
	})
	noveltyRepo.Create(ctx, &novelty.Novelty{
		ID:        common.NewID(),
		ExpiresAt: mock.Now().Add(time.Hour),
	})
	cacheLayer.Set(ctx, "expired", &ptypes.ProcessQueryResult{Status: ptypes.QuerySuccess}, time.Minute)
	cacheLayer.Set(ctx, "fresh", &ptypes.ProcessQueryResult{Status: ptypes.QuerySuccess}, 2*time.Hour)
	logs.Log(ctx, &domproc.QueryLog{
		ID:        common.NewID(),
		QueriedAt: mock.Now().Add(-40 * 24 * time.Hour),
	})
	logs.Log(ctx, &domproc.QueryLog{
		ID:        common.NewID(),
		QueriedAt: mock.Now(),
	})

	mock.Advance(2 * time.Minute)
	result := job.RunNow(ctx)

	if result.NoveltiesExpired != 1 {
		t.Errorf("novelties expired = %d, want 1", result.NoveltiesExpired)
	}
	if result.CacheEvicted != 1 {
		t.Errorf("cache evicted = %d, want 1", result.CacheEvicted)
	}
	if result.LogsPurged != 1 {
		t.Errorf("logs purged = %d, want 1", result.LogsPurged)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors = %v", result.Errors)
	}
	if len(logs.entries) != 1 {
		t.Errorf("remaining logs = %d", len(logs.entries))
	}
}

func TestCleanupMaintainerFailureIsRecorded(t *testing.T) {
	job, _, _, _, _ := cleanupFixture(t, WithMaintainer(&failingMaintainer{err: fmt.Errorf("vacuum failed")}))

	result := job.RunNow(context.Background())
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v", result.Errors)
	}
}

func TestCleanupHistoryBounded(t *testing.T) {
	job, _, _, _, mock := cleanupFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		job.RunNow(ctx)
		mock.Advance(time.Hour)
	}

	hist := job.History()
	if len(hist) != 3 {
		t.Fatalf("history = %d runs, want 3", len(hist))
	}
	// Most recent first.
	for i := 1; i < len(hist); i++ {
		if hist[i].RanAt.After(hist[i-1].RanAt) {
			t.Error("history not most-recent-first")
		}
	}
}

func TestCleanupStartStop(t *testing.T) {
	noveltyRepo := &memNoveltyRepo{}
	detector := novelty.NewDetector(noveltyRepo, novelty.NewRuleSet(nil), 48*time.Hour, 50, nil)
	logs := &fakeLogRepo{}
	cfg := config.CleanupConfig{
		Interval:     10 * time.Millisecond,
		LogRetention: time.Hour,
		HistorySize:  10,
	}
	job := NewCleanupJob(detector, nil, logs, cfg, nil)

	job.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	job.Stop()

	if len(job.History()) == 0 {
		t.Error("loop never ran")
	}
	job.Stop() // idempotent
}
