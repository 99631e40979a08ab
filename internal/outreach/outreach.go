// Package outreach contains the campaign scheduling core: the per-user quota
// limiter, the pending-invitation queue, single-send delivery, and the campaign
// runner that drives a campaign to completion. Persistence, message transport
// and notifications are collaborators behind narrow interfaces.
package outreach

import (
	"context"

	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
)

// Store is the persistence collaborator. All calls are single-record and
// atomic; the core never assumes multi-record transactions.
type Store interface {
	GetCampaign(ctx context.Context, id uint64) (*campaign.Campaign, error)
	UpdateCampaign(ctx context.Context, id uint64, fields map[string]any) error
	IncrementCampaignSent(ctx context.Context, id uint64) error

	PendingInvitations(ctx context.Context, campaignID uint64) ([]campaign.Invitation, error)
	UpdateInvitation(ctx context.Context, id uint64, fields map[string]any) error

	GetCreator(ctx context.Context, id uint64) (*campaign.Creator, error)

	AppendActivityLog(ctx context.Context, entry *campaign.ActivityLog) error
}

// MessageSender dispatches one invitation message to a creator. It may take
// seconds and may fail; failures should be *SendError so the core can tell
// transient from permanent.
type MessageSender interface {
	Send(ctx context.Context, creatorHandle, message string) error
}
