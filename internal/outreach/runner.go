package outreach

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
	"github.com/rehmanul/BOT-Friday-sub000/internal/events"
)

// Runner drives one campaign from active to completion: it consumes the
// pending queue in order, asks the limiter for permission before every send,
// paces sends with a cancellable delay, and transitions campaign status.
//
// One Run processes one campaign sequentially. Runners for different
// campaigns of the same user must share the limiter so the per-user quota
// holds globally.
type Runner struct {
	store    Store
	queue    *InvitationQueue
	limiter  *RateLimiter
	delivery *Delivery
	notifier events.Notifier
	log      *slog.Logger

	// sleep is the inter-send delay, selectable against ctx so a pause is
	// never stuck behind a full delay window. Replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(store Store, limiter *RateLimiter, delivery *Delivery, notifier events.Notifier, log *slog.Logger) *Runner {
	if notifier == nil {
		notifier = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		store:    store,
		queue:    NewInvitationQueue(store),
		limiter:  limiter,
		delivery: delivery,
		notifier: notifier,
		log:      log,
		sleep:    sleepCtx,
	}
}

// Run processes campaignID's queue until it empties, the target is reached,
// quota runs out, or the campaign is paused. A quota exit leaves the campaign
// active; a fresh Run must be triggered externally once the window resets.
// The returned error is non-nil only for run-fatal conditions (store
// inconsistency, collaborator unavailable).
func (r *Runner) Run(ctx context.Context, campaignID uint64) error {
	runID := uuid.NewString()
	log := r.log.With("run_id", runID, "campaign_id", campaignID)

	camp, err := r.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("loading campaign %d: %w", campaignID, err)
	}
	if camp.Status != campaign.StatusActive {
		log.Info("campaign not active, nothing to run", "status", camp.Status)
		return nil
	}
	log.Info("run starting", "sent", camp.SentCount, "target", camp.TargetInvitations)

	sentThisRun := 0
	for {
		pending, err := r.queue.Pending(ctx, campaignID)
		if err != nil {
			return fmt.Errorf("loading pending invitations: %w", err)
		}
		if len(pending) == 0 || targetReached(camp) {
			return r.complete(ctx, runID, camp)
		}

		for i := range pending {
			inv := pending[i]

			// Cooperative pause: re-read persisted status before each send.
			camp, err = r.store.GetCampaign(ctx, campaignID)
			if err != nil {
				return fmt.Errorf("reloading campaign %d: %w", campaignID, err)
			}
			if camp.Status != campaign.StatusActive {
				log.Info("campaign no longer active, stopping run", "status", camp.Status)
				return nil
			}
			if targetReached(camp) {
				return r.complete(ctx, runID, camp)
			}
			if camp.DailyLimit > 0 && sentThisRun >= camp.DailyLimit {
				return r.blocked(ctx, runID, camp,
					fmt.Sprintf("campaign daily limit of %d reached", camp.DailyLimit))
			}

			if !r.limiter.CanSend(camp.UserID) {
				resets := r.limiter.ResetTimes(camp.UserID)
				return r.blocked(ctx, runID, camp,
					fmt.Sprintf("send quota exhausted, next reset %s", resets.Hourly.Format(time.RFC3339)))
			}

			outcome, err := r.delivery.Attempt(ctx, runID, &inv, camp)
			if err != nil {
				log.Error("run halted", "invitation_id", inv.ID, "err", err)
				return err
			}
			if outcome == OutcomeSent {
				sentThisRun++
				if targetReached(camp) {
					return r.complete(ctx, runID, camp)
				}
				if camp.HumanLikeDelays {
					d := r.limiter.OptimalDelay(camp.UserID)
					log.Debug("pacing delay", "delay", d.String())
					if err := r.sleep(ctx, d); err != nil {
						log.Info("run cancelled during delay")
						return nil
					}
				}
			}
		}
	}
}

// blocked logs the quota exit and ends the run without touching campaign
// status, so an external trigger can resume it later.
func (r *Runner) blocked(ctx context.Context, runID string, camp *campaign.Campaign, msg string) error {
	if err := r.store.AppendActivityLog(ctx, &campaign.ActivityLog{
		UserID:     camp.UserID,
		CampaignID: camp.ID,
		Type:       campaign.LogRateLimitReached,
		Message:    msg,
		RunID:      runID,
	}); err != nil {
		return fmt.Errorf("logging rate limit: %w", err)
	}
	r.notifier.Notify(camp.UserID, events.Event{
		Type:       campaign.LogRateLimitReached,
		UserID:     camp.UserID,
		CampaignID: camp.ID,
		Message:    msg,
		At:         time.Now(),
	})
	r.log.Warn("run blocked by rate limit", "run_id", runID, "campaign_id", camp.ID, "reason", msg)
	return nil
}

func (r *Runner) complete(ctx context.Context, runID string, camp *campaign.Campaign) error {
	if err := r.store.UpdateCampaign(ctx, camp.ID, map[string]any{
		"status": campaign.StatusCompleted,
	}); err != nil {
		return fmt.Errorf("completing campaign %d: %w", camp.ID, err)
	}
	if err := r.store.AppendActivityLog(ctx, &campaign.ActivityLog{
		UserID:     camp.UserID,
		CampaignID: camp.ID,
		Type:       campaign.LogCampaignCompleted,
		Message:    fmt.Sprintf("campaign completed with %d invitations sent", camp.SentCount),
		RunID:      runID,
	}); err != nil {
		return fmt.Errorf("logging completion: %w", err)
	}
	r.notifier.Notify(camp.UserID, events.Event{
		Type:       campaign.LogCampaignCompleted,
		UserID:     camp.UserID,
		CampaignID: camp.ID,
		At:         time.Now(),
	})
	r.log.Info("campaign completed", "run_id", runID, "campaign_id", camp.ID, "sent", camp.SentCount)
	return nil
}

// targetReached is false for campaigns without a target; those complete only
// when the queue empties.
func targetReached(c *campaign.Campaign) bool {
	return c.TargetInvitations > 0 && c.SentCount >= c.TargetInvitations
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
