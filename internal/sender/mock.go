package sender

import (
	"context"
	"math/rand"
	"time"

	"github.com/rehmanul/BOT-Friday-sub000/internal/outreach"
)

// Mock simulates portal sends for local development. FailRate is the
// probability of a transient failure per send.
type Mock struct {
	Delay    time.Duration
	FailRate float64
}

func (m *Mock) Send(ctx context.Context, creatorHandle, message string) error {
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if m.FailRate > 0 && rand.Float64() < m.FailRate {
		return outreach.NewSendError(outreach.KindTransient, "mock send failed", nil)
	}
	return nil
}
