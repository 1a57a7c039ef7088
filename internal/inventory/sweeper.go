package inventory

import (
	"context"
	"log"
	"time"
)

const defaultSweepInterval = time.Second

// Sweeper periodically releases expired reservations from a ledger.
type Sweeper struct {
	ledger   *Ledger
	interval time.Duration
	logger   *log.Logger
}

func NewSweeper(ledger *Ledger, interval time.Duration, logger *log.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		ledger:   ledger,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.ledger.ReleaseExpired(s.ledger.clock.Now()); n > 0 && s.logger != nil {
				s.logger.Printf("released %d expired reservations", n)
			}
		}
	}
}
