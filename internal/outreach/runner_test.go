package outreach

import (
	"context"
	"testing"
	"time"

	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
)

type runnerRig struct {
	store    *memStore
	sender   *mockSender
	limiter  *RateLimiter
	notifier *recNotifier
	runner   *Runner
	sleeps   []time.Duration
}

func newRunnerRig(t *testing.T, limits Limits) *runnerRig {
	t.Helper()
	rig := &runnerRig{
		store:    newMemStore(),
		sender:   newMockSender(),
		limiter:  NewRateLimiter(limits, time.Minute, 2*time.Minute),
		notifier: &recNotifier{},
	}
	delivery := NewDelivery(rig.store, rig.sender, rig.limiter, rig.notifier, nil)
	rig.runner = NewRunner(rig.store, rig.limiter, delivery, rig.notifier, nil)
	rig.runner.sleep = func(_ context.Context, d time.Duration) error {
		rig.sleeps = append(rig.sleeps, d)
		return nil
	}
	return rig
}

func (r *runnerRig) addCampaign(c campaign.Campaign) {
	if c.Status == "" {
		c.Status = campaign.StatusActive
	}
	if c.MessageTemplate == "" {
		c.MessageTemplate = "Hi {creator_name}"
	}
	r.store.campaigns[c.ID] = &c
}

func (r *runnerRig) addCreatorInvitation(campaignID, id uint64, handle string, createdAt time.Time) {
	r.store.creators[id] = &campaign.Creator{ID: id, UserID: 7, Handle: handle, Name: handle}
	r.store.invitations[id] = &campaign.Invitation{
		ID: id, CampaignID: campaignID, CreatorID: id,
		Status: campaign.InviteStatusPending, CreatedAt: createdAt,
	}
}

func TestRunSendsInQueueOrder(t *testing.T) {
	rig := newRunnerRig(t, Limits{Hourly: 100, Daily: 100})
	rig.addCampaign(campaign.Campaign{ID: 1, UserID: 7})
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rig.addCreatorInvitation(1, 3, "carol", base.Add(2*time.Second))
	rig.addCreatorInvitation(1, 1, "alice", base)
	rig.addCreatorInvitation(1, 2, "bob", base.Add(time.Second))

	if err := rig.runner.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"alice", "bob", "carol"}
	got := rig.sender.sentTo()
	if len(got) != len(want) {
		t.Fatalf("sent to %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("send order %v, want %v", got, want)
		}
	}
	if rig.store.campaigns[1].Status != campaign.StatusCompleted {
		t.Fatalf("status = %q, want completed", rig.store.campaigns[1].Status)
	}
}

func TestRunTwoCreatorScenario(t *testing.T) {
	rig := newRunnerRig(t, Limits{Hourly: 15, Daily: 200})
	rig.addCampaign(campaign.Campaign{ID: 1, UserID: 7, MessageTemplate: "Hi {creator_name}"})
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rig.addCreatorInvitation(1, 1, "alice", base)
	rig.addCreatorInvitation(1, 2, "bob", base.Add(time.Second))

	if err := rig.runner.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rig.sender.messages[0] != "Hi alice" || rig.sender.messages[1] != "Hi bob" {
		t.Fatalf("messages = %v", rig.sender.messages)
	}
	if rig.store.campaigns[1].SentCount != 2 {
		t.Fatalf("sent_count = %d, want 2", rig.store.campaigns[1].SentCount)
	}
	if logs := rig.store.logsOfType(campaign.LogInvitationSent); len(logs) != 2 {
		t.Fatalf("invitation_sent logs = %d, want 2", len(logs))
	}
	if logs := rig.store.logsOfType(campaign.LogCampaignCompleted); len(logs) != 1 {
		t.Fatalf("completion logs = %d, want 1", len(logs))
	}
}

func TestRunFailureDoesNotStopQueue(t *testing.T) {
	rig := newRunnerRig(t, Limits{Hourly: 100, Daily: 100})
	rig.addCampaign(campaign.Campaign{ID: 1, UserID: 7})
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rig.addCreatorInvitation(1, 1, "alice", base)
	rig.addCreatorInvitation(1, 2, "bob", base.Add(time.Second))
	rig.addCreatorInvitation(1, 3, "carol", base.Add(2*time.Second))
	rig.sender.failWith["bob"] = NewSendError(KindTransient, "portal timed out", nil)

	if err := rig.runner.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := rig.sender.sentTo(); len(got) != 3 {
		t.Fatalf("attempts = %v, want all three", got)
	}
	if rig.store.campaigns[1].SentCount != 2 {
		t.Fatalf("sent_count = %d, want 2", rig.store.campaigns[1].SentCount)
	}
	if rig.store.invitations[2].Status != campaign.InviteStatusFailed {
		t.Fatal("bob's invitation should be failed")
	}
	if rig.store.campaigns[1].Status != campaign.StatusCompleted {
		t.Fatal("campaign should still complete past the failure")
	}
}

func TestRunStopsAtTarget(t *testing.T) {
	rig := newRunnerRig(t, Limits{Hourly: 100, Daily: 100})
	rig.addCampaign(campaign.Campaign{ID: 1, UserID: 7, TargetInvitations: 1})
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rig.addCreatorInvitation(1, 1, "alice", base)
	rig.addCreatorInvitation(1, 2, "bob", base.Add(time.Second))

	if err := rig.runner.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := rig.sender.sentTo(); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("sent to %v, want alice only", got)
	}
	if rig.store.campaigns[1].Status != campaign.StatusCompleted {
		t.Fatal("campaign should complete at target")
	}
	if rig.store.invitations[2].Status != campaign.InviteStatusPending {
		t.Fatal("remaining invitation should stay pending")
	}
}

func TestRunBlocksOnQuota(t *testing.T) {
	rig := newRunnerRig(t, Limits{Hourly: 1, Daily: 100})
	rig.addCampaign(campaign.Campaign{ID: 1, UserID: 7})
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rig.addCreatorInvitation(1, 1, "alice", base)
	rig.addCreatorInvitation(1, 2, "bob", base.Add(time.Second))
	rig.addCreatorInvitation(1, 3, "carol", base.Add(2*time.Second))

	if err := rig.runner.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := rig.sender.sentTo(); len(got) != 1 {
		t.Fatalf("attempts = %v, want one before the quota exit", got)
	}
	if logs := rig.store.logsOfType(campaign.LogRateLimitReached); len(logs) != 1 {
		t.Fatalf("rate_limit_reached logs = %d, want exactly 1", len(logs))
	}
	// Blocked is not paused: the campaign stays active for a later resume.
	if rig.store.campaigns[1].Status != campaign.StatusActive {
		t.Fatalf("status = %q, want active", rig.store.campaigns[1].Status)
	}
	if rig.store.invitations[2].Status != campaign.InviteStatusPending {
		t.Fatal("unsent invitations should stay pending")
	}
}

func TestRunCampaignDailyLimit(t *testing.T) {
	rig := newRunnerRig(t, Limits{Hourly: 100, Daily: 100})
	rig.addCampaign(campaign.Campaign{ID: 1, UserID: 7, DailyLimit: 2})
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rig.addCreatorInvitation(1, 1, "alice", base)
	rig.addCreatorInvitation(1, 2, "bob", base.Add(time.Second))
	rig.addCreatorInvitation(1, 3, "carol", base.Add(2*time.Second))

	if err := rig.runner.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := rig.sender.sentTo(); len(got) != 2 {
		t.Fatalf("attempts = %v, want two", got)
	}
	if rig.store.campaigns[1].Status != campaign.StatusActive {
		t.Fatal("campaign should stay active when its own limit blocks the run")
	}
}

func TestRunStopsWhenPaused(t *testing.T) {
	rig := newRunnerRig(t, Limits{Hourly: 100, Daily: 100})
	rig.addCampaign(campaign.Campaign{ID: 1, UserID: 7})
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rig.addCreatorInvitation(1, 1, "alice", base)
	rig.addCreatorInvitation(1, 2, "bob", base.Add(time.Second))

	// Pause lands right after the first invitation is marked sent.
	rig.store.onUpdateInvitation = func(id uint64) {
		if id == 1 {
			rig.store.mu.Lock()
			rig.store.campaigns[1].Status = campaign.StatusPaused
			rig.store.mu.Unlock()
		}
	}

	if err := rig.runner.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := rig.sender.sentTo(); len(got) != 1 {
		t.Fatalf("attempts = %v, want one", got)
	}
	if rig.store.campaigns[1].Status != campaign.StatusPaused {
		t.Fatal("pause must stick")
	}
	if logs := rig.store.logsOfType(campaign.LogCampaignCompleted); len(logs) != 0 {
		t.Fatal("paused run must not complete the campaign")
	}
}

func TestRunNotActiveIsNoop(t *testing.T) {
	rig := newRunnerRig(t, Limits{Hourly: 100, Daily: 100})
	rig.addCampaign(campaign.Campaign{ID: 1, UserID: 7, Status: campaign.StatusDraft})
	rig.addCreatorInvitation(1, 1, "alice", time.Now())

	if err := rig.runner.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rig.sender.sentTo()) != 0 {
		t.Fatal("draft campaign must not send")
	}
}

func TestRunPacingDelayBetweenSends(t *testing.T) {
	rig := newRunnerRig(t, Limits{Hourly: 100, Daily: 100})
	rig.addCampaign(campaign.Campaign{ID: 1, UserID: 7, HumanLikeDelays: true})
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rig.addCreatorInvitation(1, 1, "alice", base)
	rig.addCreatorInvitation(1, 2, "bob", base.Add(time.Second))

	if err := rig.runner.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rig.sleeps) < 1 {
		t.Fatal("expected at least one pacing delay")
	}
	for _, d := range rig.sleeps {
		if d < time.Minute || d > 2*time.Minute {
			t.Fatalf("delay %v outside configured range", d)
		}
	}
}

func TestRunCancelledDuringDelay(t *testing.T) {
	rig := newRunnerRig(t, Limits{Hourly: 100, Daily: 100})
	rig.addCampaign(campaign.Campaign{ID: 1, UserID: 7, HumanLikeDelays: true})
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rig.addCreatorInvitation(1, 1, "alice", base)
	rig.addCreatorInvitation(1, 2, "bob", base.Add(time.Second))
	rig.runner.sleep = func(_ context.Context, _ time.Duration) error {
		return context.Canceled
	}

	if err := rig.runner.Run(context.Background(), 1); err != nil {
		t.Fatalf("cancellation is not a run error: %v", err)
	}
	if got := rig.sender.sentTo(); len(got) != 1 {
		t.Fatalf("attempts = %v, want one before the cancelled delay", got)
	}
	if rig.store.invitations[2].Status != campaign.InviteStatusPending {
		t.Fatal("second invitation should stay pending for the next run")
	}
}

func TestRunHaltsOnStoreInconsistency(t *testing.T) {
	rig := newRunnerRig(t, Limits{Hourly: 100, Daily: 100})
	rig.addCampaign(campaign.Campaign{ID: 1, UserID: 7})
	rig.addCreatorInvitation(1, 1, "alice", time.Now())
	rig.store.failInvitationUpdate = true

	err := rig.runner.Run(context.Background(), 1)
	if err == nil {
		t.Fatal("expected fatal error")
	}
}

func TestSleepCtxCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sleepCtx(ctx, time.Hour) }()
	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("want context error")
		}
	case <-time.After(time.Second):
		t.Fatal("sleepCtx did not return after cancel")
	}
}
