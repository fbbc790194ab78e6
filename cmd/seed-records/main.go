package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/edustream/internal/seeder"
	"github.com/okian/edustream/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	def := seeder.DefaultConfig()
	var (
		baseURL    = flag.String("url", def.BaseURL, "Base URL of the service")
		students   = flag.Int("students", def.Students, "Number of students to create")
		days       = flag.Int("days", def.AttendanceDays, "Attendance records per student")
		assign     = flag.Int("assignments", def.Assignments, "Assignment records per student")
		dupEvery   = flag.Int("dup-every", def.DuplicateEvery, "Resubmit every Nth record (0 disables)")
		watchlist  = flag.Int("watchlist", def.WatchlistSize, "Watchlist entries to print")
		workers    = flag.Int("workers", def.Workers, "Concurrent submitters")
		timeout    = flag.Duration("timeout", def.Timeout, "HTTP request timeout")
		settle     = flag.Duration("settle", def.SettleTimeout, "How long to wait for records to persist")
		seed       = flag.Uint64("seed", def.Seed, "Generator seed")
		logFormat  = flag.String("log-format", logger.FormatText, "Log format: text or json")
		runTimeout = flag.Duration("run-timeout", defaultRunTimeout, "Overall deadline")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetFormat(*logFormat); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *runTimeout)
	defer cancel()

	cfg := def
	cfg.BaseURL = *baseURL
	cfg.Students = *students
	cfg.AttendanceDays = *days
	cfg.Assignments = *assign
	cfg.DuplicateEvery = *dupEvery
	cfg.WatchlistSize = *watchlist
	cfg.Workers = *workers
	cfg.Timeout = *timeout
	cfg.SettleTimeout = *settle
	cfg.Seed = *seed

	if _, err := seeder.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "seeding failed", logger.Error(err))
		os.Exit(1)
	}
}
