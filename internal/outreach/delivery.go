package outreach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
	"github.com/rehmanul/BOT-Friday-sub000/internal/events"
)

type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeFailed
)

func (o Outcome) String() string {
	if o == OutcomeSent {
		return "sent"
	}
	return "failed"
}

// ErrStoreInconsistent marks the state where the message went out (or the
// failure was observed) but the bookkeeping writes did not land. Runs must
// halt on it rather than proceed with counters that no longer match reality.
var ErrStoreInconsistent = errors.New("store inconsistent after send")

// Delivery executes exactly one send and leaves the invitation, campaign,
// activity log and quota counters consistent with what actually happened.
type Delivery struct {
	store    Store
	sender   MessageSender
	limiter  *RateLimiter
	notifier events.Notifier
	log      *slog.Logger

	now func() time.Time
}

func NewDelivery(store Store, sender MessageSender, limiter *RateLimiter, notifier events.Notifier, log *slog.Logger) *Delivery {
	if notifier == nil {
		notifier = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Delivery{
		store:    store,
		sender:   sender,
		limiter:  limiter,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Attempt sends one invitation. The caller must have confirmed quota via
// CanSend for this attempt; Attempt records the send against the quota at
// dispatch time, success or not. A nil error with OutcomeFailed means the
// failure was recorded cleanly; a non-nil error is fatal for the run.
func (d *Delivery) Attempt(ctx context.Context, runID string, inv *campaign.Invitation, camp *campaign.Campaign) (Outcome, error) {
	creator, err := d.store.GetCreator(ctx, inv.CreatorID)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			// Data-integrity failure: never reaches the sender, consumes no quota.
			ferr := NewSendError(KindPermanent, "creator not found", nil)
			if berr := d.recordFailure(ctx, runID, inv, camp, ferr); berr != nil {
				return OutcomeFailed, berr
			}
			return OutcomeFailed, nil
		}
		return OutcomeFailed, fmt.Errorf("resolving creator %d: %w", inv.CreatorID, err)
	}

	message := inv.Message
	if message == "" {
		message = campaign.RenderTemplate(camp.MessageTemplate, creator)
	}

	// The portal action is consumed whether or not the send succeeds.
	d.limiter.RecordSend(camp.UserID)

	if err := d.sender.Send(ctx, creator.Handle, message); err != nil {
		d.log.Warn("send failed",
			"run_id", runID, "invitation_id", inv.ID, "creator", creator.Handle,
			"kind", KindOf(err).String(), "err", err)
		if berr := d.recordFailure(ctx, runID, inv, camp, err); berr != nil {
			return OutcomeFailed, berr
		}
		return OutcomeFailed, nil
	}

	now := d.now()
	if err := d.store.UpdateInvitation(ctx, inv.ID, map[string]any{
		"status":  campaign.InviteStatusSent,
		"message": message,
		"sent_at": now,
	}); err != nil {
		return OutcomeSent, fmt.Errorf("%w: invitation %d sent but not persisted: %v", ErrStoreInconsistent, inv.ID, err)
	}
	if err := d.store.IncrementCampaignSent(ctx, camp.ID); err != nil {
		return OutcomeSent, fmt.Errorf("%w: campaign %d sent_count not persisted: %v", ErrStoreInconsistent, camp.ID, err)
	}
	camp.SentCount++

	if err := d.store.AppendActivityLog(ctx, &campaign.ActivityLog{
		UserID:       camp.UserID,
		CampaignID:   camp.ID,
		Type:         campaign.LogInvitationSent,
		Message:      fmt.Sprintf("invitation sent to @%s", creator.Handle),
		RunID:        runID,
		InvitationID: &inv.ID,
	}); err != nil {
		return OutcomeSent, fmt.Errorf("%w: invitation %d log append failed: %v", ErrStoreInconsistent, inv.ID, err)
	}

	d.notifier.Notify(camp.UserID, events.Event{
		Type:         campaign.LogInvitationSent,
		UserID:       camp.UserID,
		CampaignID:   camp.ID,
		InvitationID: inv.ID,
		Message:      fmt.Sprintf("invitation sent to @%s", creator.Handle),
		At:           now,
	})
	return OutcomeSent, nil
}

// recordFailure marks the invitation failed and bumps its retry count. The
// invitation stays failed; requeueing is an explicit external decision.
func (d *Delivery) recordFailure(ctx context.Context, runID string, inv *campaign.Invitation, camp *campaign.Campaign, sendErr error) error {
	msg := sendErr.Error()
	if err := d.store.UpdateInvitation(ctx, inv.ID, map[string]any{
		"status":        campaign.InviteStatusFailed,
		"error_message": msg,
		"retry_count":   inv.RetryCount + 1,
	}); err != nil {
		return fmt.Errorf("%w: invitation %d failure not persisted: %v", ErrStoreInconsistent, inv.ID, err)
	}
	if err := d.store.AppendActivityLog(ctx, &campaign.ActivityLog{
		UserID:       camp.UserID,
		CampaignID:   camp.ID,
		Type:         campaign.LogInvitationFailed,
		Message:      msg,
		RunID:        runID,
		InvitationID: &inv.ID,
	}); err != nil {
		return fmt.Errorf("%w: invitation %d failure log append failed: %v", ErrStoreInconsistent, inv.ID, err)
	}
	d.notifier.Notify(camp.UserID, events.Event{
		Type:         campaign.LogInvitationFailed,
		UserID:       camp.UserID,
		CampaignID:   camp.ID,
		InvitationID: inv.ID,
		Message:      msg,
		At:           d.now(),
	})
	return nil
}
