package campaign

import (
	"time"

	"github.com/lib/pq"
)

// Campaign statuses. Transitions happen only through the outreach runner or the
// explicit start/pause API.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
	StatusStopped   = "stopped"
)

// Invitation statuses. Forward-only; failed goes back to pending only through an
// explicit requeue.
const (
	InviteStatusPending   = "pending"
	InviteStatusSent      = "sent"
	InviteStatusResponded = "responded"
	InviteStatusFailed    = "failed"
	InviteStatusSkipped   = "skipped"
)

// Activity log entry types.
const (
	LogInvitationSent    = "invitation_sent"
	LogInvitationFailed  = "invitation_failed"
	LogRateLimitReached  = "rate_limit_reached"
	LogCampaignStarted   = "campaign_started"
	LogCampaignPaused    = "campaign_paused"
	LogCampaignCompleted = "campaign_completed"
	LogSessionRefreshed  = "session_refreshed"
)

type Campaign struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	UserID uint64 `gorm:"index;not null" json:"user_id"`

	Name            string `gorm:"not null" json:"name"`
	Status          string `gorm:"index;not null;default:'draft'" json:"status"`
	MessageTemplate string `gorm:"type:text;not null" json:"message_template"`

	TargetInvitations int  `gorm:"not null;default:0" json:"target_invitations"`
	DailyLimit        int  `gorm:"not null;default:0" json:"daily_limit"`
	HumanLikeDelays   bool `gorm:"not null;default:true" json:"human_like_delays"`

	SentCount     int `gorm:"not null;default:0" json:"sent_count"`
	ResponseCount int `gorm:"not null;default:0" json:"response_count"`

	// Creators whose niches intersect this set get invitations at start time.
	// Empty means every known creator qualifies.
	NicheFilter pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"niche_filter"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

type Creator struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	UserID uint64 `gorm:"index;not null" json:"user_id"`

	Handle    string         `gorm:"index;not null" json:"handle"`
	Name      string         `gorm:"not null;default:''" json:"name"`
	Followers int64          `gorm:"not null;default:0" json:"followers"`
	Niches    pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"niches"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

type Invitation struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	CampaignID uint64 `gorm:"index;not null" json:"campaign_id"`
	CreatorID  uint64 `gorm:"index;not null" json:"creator_id"`

	Status  string `gorm:"index;not null;default:'pending'" json:"status"`
	Message string `gorm:"type:text;not null;default:''" json:"message"`

	SentAt       *time.Time `gorm:"type:timestamptz" json:"sent_at,omitempty"`
	RespondedAt  *time.Time `gorm:"type:timestamptz" json:"responded_at,omitempty"`
	ResponseText *string    `gorm:"type:text" json:"response_text,omitempty"`

	ErrorMessage *string `gorm:"type:text" json:"error_message,omitempty"`
	RetryCount   int     `gorm:"not null;default:0" json:"retry_count"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

// ActivityLog is append-only. RunID groups entries written by one runner
// invocation.
type ActivityLog struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	UserID     uint64 `gorm:"index;not null" json:"user_id"`
	CampaignID uint64 `gorm:"index;not null" json:"campaign_id"`

	Type    string `gorm:"index;not null" json:"type"`
	Message string `gorm:"type:text;not null;default:''" json:"message"`
	RunID   string `gorm:"index;not null;default:''" json:"run_id"`

	InvitationID *uint64 `gorm:"index" json:"invitation_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

// PortalSession holds the TikTok affiliate portal cookie jar for a user.
type PortalSession struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	UserID uint64 `gorm:"uniqueIndex;not null" json:"user_id"`

	Cookies     []byte     `gorm:"type:jsonb;not null;default:'[]'::jsonb" json:"-"`
	ValidatedAt *time.Time `gorm:"type:timestamptz" json:"validated_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}
