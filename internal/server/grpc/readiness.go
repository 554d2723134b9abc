package grpc

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// WatchDatabase pings db every interval and mirrors the result in the health
// status until ctx is cancelled.
func (s *GRPCServer) WatchDatabase(ctx context.Context, db Pinger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			err := db.PingContext(pingCtx)
			cancel()

			if ok := err == nil; ok != healthy {
				healthy = ok
				if ok {
					s.logger.Info(ctx, "database reachable again")
				} else {
					s.logger.Warn(ctx, "database unreachable", "error", err)
				}
				s.SetServing(ok)
			}
		}
	}
}
