package worker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mxbot/MXBot_Go/internal/logger"
)

const (
	defaultSweepInterval = time.Hour
	defaultMaxAge        = 24 * time.Hour
)

// Janitor sweeps the download scratch root and removes leftovers from jobs
// that crashed before their deferred cleanup could run.
type Janitor struct {
	dir      string
	interval time.Duration
	maxAge   time.Duration
	shutdown chan struct{}
	done     chan struct{}
}

// NewJanitor creates a scratch-dir janitor for dir. Zero interval or maxAge
// fall back to hourly sweeps of entries older than a day.
func NewJanitor(dir string, interval, maxAge time.Duration) *Janitor {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return &Janitor{
		dir:      dir,
		interval: interval,
		maxAge:   maxAge,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called. An initial sweep happens
// immediately to clear debris from previous runs.
func (j *Janitor) Start(ctx context.Context) {
	go func() {
		defer close(j.done)

		j.sweep(ctx)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.sweep(ctx)
			case <-j.shutdown:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() {
	close(j.shutdown)
	<-j.done
}

func (j *Janitor) sweep(ctx context.Context) {
	log := logger.FromContext(ctx)

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("Janitor cannot read scratch root", "dir", j.dir, "error", err)
		}
		return
	}

	cutoff := time.Now().Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Warn("Janitor failed to remove stale entry", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info("Janitor removed stale scratch entries", "count", removed)
	}
}
