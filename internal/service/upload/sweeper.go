package upload

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultSweepInterval = 10 * time.Minute
	DefaultSweepMaxAge   = time.Hour
)

// StartSweeper launches a background janitor that deletes uploads older
// than maxAge. Per-request deletion is the primary cleanup; the sweeper
// exists so a crash between save and delete cannot leak disk forever.
func (s *Store) StartSweeper(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if maxAge <= 0 {
		maxAge = DefaultSweepMaxAge
	}
	go s.sweepLoop(ctx, interval, maxAge)
}

func (s *Store) sweepLoop(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweepOnce(maxAge); err != nil {
				log.Printf("sweep uploads error: %v", err)
			}
		}
	}
}

func (s *Store) sweepOnce(maxAge time.Duration) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove stale upload %s failed: %v", path, err)
		}
	}
	return nil
}
