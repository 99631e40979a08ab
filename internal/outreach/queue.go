package outreach

import (
	"context"

	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
)

// InvitationQueue is a live FIFO view over the store's pending invitations.
// Re-querying reflects current store state; an invitation disappears from the
// view as soon as delivery transitions it out of pending.
type InvitationQueue struct {
	store Store
}

func NewInvitationQueue(store Store) *InvitationQueue {
	return &InvitationQueue{store: store}
}

// Pending returns the campaign's pending invitations in creation order.
func (q *InvitationQueue) Pending(ctx context.Context, campaignID uint64) ([]campaign.Invitation, error) {
	return q.store.PendingInvitations(ctx, campaignID)
}
