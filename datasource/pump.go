package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"
)

// Pump pushes processed blocks of s into blocks until the stream ends or ctx
// is done. For growing backends an exhausted stream is polled again every
// poll interval until it ended. Pump closes blocks on return.
func Pump(ctx context.Context, s *Stream, poll time.Duration, blocks chan<- Block) error {
	defer close(blocks)
	for {
		b, err := s.NextBlock(ctx)
		switch {
		case errors.Is(err, ErrEndOfStream):
			if s.Ended() {
				glog.Infof("stream ended after %d blocks", s.BlocksFetched())
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(poll):
			}
			continue
		case err != nil:
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case blocks <- b:
		}
	}
}
