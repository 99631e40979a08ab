package outreach

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
	"github.com/rehmanul/BOT-Friday-sub000/internal/events"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu          sync.Mutex
	campaigns   map[uint64]*campaign.Campaign
	creators    map[uint64]*campaign.Creator
	invitations map[uint64]*campaign.Invitation
	logs        []campaign.ActivityLog

	failInvitationUpdate bool
	failCampaignUpdate   bool
	failLogAppend        bool

	// onUpdateInvitation runs after a successful invitation update, used to
	// simulate concurrent external actions like a pause.
	onUpdateInvitation func(id uint64)
}

func newMemStore() *memStore {
	return &memStore{
		campaigns:   map[uint64]*campaign.Campaign{},
		creators:    map[uint64]*campaign.Creator{},
		invitations: map[uint64]*campaign.Invitation{},
	}
}

func (s *memStore) GetCampaign(_ context.Context, id uint64) (*campaign.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) UpdateCampaign(_ context.Context, id uint64, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCampaignUpdate {
		return fmt.Errorf("campaign update refused")
	}
	c, ok := s.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			c.Status = v.(string)
		case "sent_count":
			c.SentCount = v.(int)
		}
	}
	return nil
}

func (s *memStore) IncrementCampaignSent(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCampaignUpdate {
		return fmt.Errorf("campaign update refused")
	}
	c, ok := s.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c.SentCount++
	return nil
}

func (s *memStore) PendingInvitations(_ context.Context, campaignID uint64) ([]campaign.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []campaign.Invitation
	for _, inv := range s.invitations {
		if inv.CampaignID == campaignID && inv.Status == campaign.InviteStatusPending {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memStore) UpdateInvitation(_ context.Context, id uint64, fields map[string]any) error {
	s.mu.Lock()
	if s.failInvitationUpdate {
		s.mu.Unlock()
		return fmt.Errorf("invitation update refused")
	}
	inv, ok := s.invitations[id]
	if !ok {
		s.mu.Unlock()
		return campaign.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			inv.Status = v.(string)
		case "message":
			inv.Message = v.(string)
		case "sent_at":
			t := v.(time.Time)
			inv.SentAt = &t
		case "error_message":
			m := v.(string)
			inv.ErrorMessage = &m
		case "retry_count":
			inv.RetryCount = v.(int)
		}
	}
	hook := s.onUpdateInvitation
	s.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return nil
}

func (s *memStore) GetCreator(_ context.Context, id uint64) (*campaign.Creator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creators[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) AppendActivityLog(_ context.Context, entry *campaign.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLogAppend {
		return fmt.Errorf("log append refused")
	}
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *memStore) logsOfType(typ string) []campaign.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []campaign.ActivityLog
	for _, l := range s.logs {
		if l.Type == typ {
			out = append(out, l)
		}
	}
	return out
}

// mockSender records sends and fails for handles listed in failWith.
type mockSender struct {
	mu       sync.Mutex
	calls    []string
	messages []string
	failWith map[string]error
}

func newMockSender() *mockSender {
	return &mockSender{failWith: map[string]error{}}
}

func (m *mockSender) Send(_ context.Context, handle, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, handle)
	m.messages = append(m.messages, message)
	if err, ok := m.failWith[handle]; ok {
		return err
	}
	return nil
}

func (m *mockSender) sentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// recNotifier records events in order.
type recNotifier struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recNotifier) Notify(_ uint64, ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
}

func (r *recNotifier) typesSeen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.evs))
	for _, ev := range r.evs {
		out = append(out, ev.Type)
	}
	return out
}
