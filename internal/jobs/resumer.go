package jobs

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/rehmanul/BOT-Friday-sub000/internal/outreach"
)

// Starter launches a campaign run if none is live.
type Starter interface {
	Start(campaignID uint64) bool
	Running(campaignID uint64) bool
}

// Resumer is the external trigger the runner relies on: a run that exits on
// quota exhaustion (or a process restart) leaves the campaign active with
// pending invitations, and this ticker picks it back up once quota allows.
type Resumer struct {
	DB       *gorm.DB
	Manager  Starter
	Limiter  *outreach.RateLimiter
	Interval time.Duration
	Log      *slog.Logger
}

type resumable struct {
	ID     uint64 `gorm:"column:id"`
	UserID uint64 `gorm:"column:user_id"`
}

func (r *Resumer) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx, log)
		}
	}
}

func (r *Resumer) tick(ctx context.Context, log *slog.Logger) {
	var rows []resumable
	err := r.DB.WithContext(ctx).Raw(`
select c.id, c.user_id
from campaigns c
where c.status = 'active'
  and exists (
    select 1 from invitations i
    where i.campaign_id = c.id and i.status = 'pending'
  )
order by c.id
`).Scan(&rows).Error
	if err != nil {
		log.Error("resume scan failed", "err", err)
		return
	}

	for _, row := range rows {
		if r.Manager.Running(row.ID) {
			continue
		}
		// No point starting a run that would block on its first send.
		if !r.Limiter.CanSend(row.UserID) {
			continue
		}
		if r.Manager.Start(row.ID) {
			log.Info("campaign resumed", "campaign_id", row.ID, "user_id", row.UserID)
		}
	}
}
