package seeder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/edustream/pkg/logger"
)

// ErrNotSettled is returned when accepted records are still queued after SettleTimeout.
var ErrNotSettled = errors.New("seeder: records not persisted before settle timeout")

const (
	maxBackpressureRetries = 5
	backpressureBackoff    = 50 * time.Millisecond
	settlePollInterval     = 100 * time.Millisecond
)

type submitResult int

const (
	resultAccepted submitResult = iota
	resultDuplicate
	resultRejected
	resultFailed
)

type runtimeStats struct {
	Ingestion struct {
		Persisted int64 `json:"persisted"`
	} `json:"ingestion"`
}

// Run creates students, streams their records and reports the resulting watchlist.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	log := logger.Named("seeder")
	start := time.Now()
	var stats Stats

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.getJSON(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	var before runtimeStats
	if err := c.getJSON(ctx, "/stats", &before); err != nil {
		return stats, fmt.Errorf("read runtime stats: %w", err)
	}

	log.Info(ctx, "seeding",
		logger.String("url", cfg.BaseURL),
		logger.Int("students", cfg.Students),
		logger.Int("workers", cfg.Workers),
	)

	gen := newGenerator(cfg.Seed, cfg.StartDate)
	var batch []submission
	for i := range cfg.Students {
		var created struct {
			ID string `json:"id"`
		}
		status, err := c.postJSON(ctx, "/api/students", gen.student(i), &created)
		if err != nil {
			return stats, fmt.Errorf("create student %d: %w", i, err)
		}
		if status != http.StatusCreated {
			return stats, fmt.Errorf("create student %d: status %d", i, status)
		}
		stats.StudentsCreated++
		batch = append(batch, gen.records(created.ID, cfg.AttendanceDays, cfg.Assignments)...)
	}
	batch = withDuplicates(batch, cfg.DuplicateEvery)

	submitAll(ctx, c, cfg.Workers, batch, &stats)
	log.Info(ctx, "records submitted",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
	)

	persisted, err := settle(ctx, c, before.Ingestion.Persisted+int64(stats.Accepted), cfg.SettleTimeout)
	stats.Persisted = persisted - before.Ingestion.Persisted
	if err != nil {
		return stats, err
	}

	limit := strconv.Itoa(max(1, cfg.WatchlistSize))
	if err := c.getJSON(ctx, "/api/risk?limit="+limit, &stats.Watchlist); err != nil {
		return stats, fmt.Errorf("fetch watchlist: %w", err)
	}
	stats.Duration = time.Since(start)

	for _, e := range stats.Watchlist {
		log.Info(ctx, "watchlist",
			logger.String("student", e.Name),
			logger.Int("score", e.Score),
			logger.String("risk", e.Risk),
		)
	}
	log.Info(ctx, "seeding finished",
		logger.Int64("persisted", stats.Persisted),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// withDuplicates appends a copy of every nth submission.
func withDuplicates(batch []submission, every int) []submission {
	if every <= 0 {
		return batch
	}
	n := len(batch)
	for i := every - 1; i < n; i += every {
		batch = append(batch, batch[i])
	}
	return batch
}

// submitAll posts batch through a fixed pool of workers.
func submitAll(ctx context.Context, c *client, workers int, batch []submission, stats *Stats) {
	var accepted, duplicate, rejected, failed int64
	jobs := make(chan submission, max(1, workers)*2)

	var wg sync.WaitGroup
	for range max(1, workers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				switch submitOne(ctx, c, s) {
				case resultAccepted:
					atomic.AddInt64(&accepted, 1)
				case resultDuplicate:
					atomic.AddInt64(&duplicate, 1)
				case resultRejected:
					atomic.AddInt64(&rejected, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	sent := 0
	for _, s := range batch {
		if ctx.Err() != nil {
			break
		}
		jobs <- s
		sent++
	}
	close(jobs)
	wg.Wait()

	stats.Submitted = sent
	stats.Accepted = int(accepted)
	stats.Duplicates = int(duplicate)
	stats.Rejected = int(rejected)
	stats.Failed = int(failed)
}

// submitOne posts s, backing off on 429 as the API asks clients to do.
func submitOne(ctx context.Context, c *client, s submission) submitResult {
	for attempt := range maxBackpressureRetries {
		status, err := c.postJSON(ctx, s.path, s.body, nil)
		if err != nil {
			return resultFailed
		}
		switch status {
		case http.StatusAccepted:
			return resultAccepted
		case http.StatusOK:
			return resultDuplicate
		case http.StatusTooManyRequests:
			select {
			case <-ctx.Done():
				return resultFailed
			case <-time.After(backpressureBackoff * time.Duration(attempt+1)):
			}
		default:
			return resultFailed
		}
	}
	return resultRejected
}

// settle polls /stats until at least target records are persisted.
func settle(ctx context.Context, c *client, target int64, timeout time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()
	var last int64
	for {
		var st runtimeStats
		if err := c.getJSON(ctx, "/stats", &st); err == nil {
			last = st.Ingestion.Persisted
			if last >= target {
				return last, nil
			}
		}
		select {
		case <-ctx.Done():
			return last, fmt.Errorf("%w: %d of %d", ErrNotSettled, last, target)
		case <-ticker.C:
		}
	}
}
