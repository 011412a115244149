package confirm

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically expires stale confirmations in the background.
type Sweeper struct {
	gate     *Gate
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper running at the given interval.
func NewSweeper(gate *Gate, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		gate:     gate,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				n, err := s.gate.SweepExpired(ctx)
				cancel()
				if err != nil {
					log.Printf("WARN: confirmation sweep failed: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("Expired %d stale confirmations", n)
				}
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
