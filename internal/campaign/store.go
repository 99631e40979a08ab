package campaign

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

// Store is the gorm-backed persistence adapter consumed by the outreach core.
// Every method is a single-record operation.
type Store struct {
	DB *gorm.DB
}

func (s *Store) GetCampaign(ctx context.Context, id uint64) (*Campaign, error) {
	var c Campaign
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCampaign(ctx context.Context, id uint64, fields map[string]any) error {
	return s.DB.WithContext(ctx).Model(&Campaign{}).Where("id = ?", id).Updates(fields).Error
}

// IncrementCampaignSent bumps sent_count in the database, not from a
// read-modify-write of a possibly stale row.
func (s *Store) IncrementCampaignSent(ctx context.Context, id uint64) error {
	return s.DB.WithContext(ctx).Model(&Campaign{}).Where("id = ?", id).
		Update("sent_count", gorm.Expr("sent_count + 1")).Error
}

// PendingInvitations returns the campaign's pending invitations oldest first.
func (s *Store) PendingInvitations(ctx context.Context, campaignID uint64) ([]Invitation, error) {
	var out []Invitation
	err := s.DB.WithContext(ctx).
		Where("campaign_id = ? AND status = ?", campaignID, InviteStatusPending).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

func (s *Store) UpdateInvitation(ctx context.Context, id uint64, fields map[string]any) error {
	return s.DB.WithContext(ctx).Model(&Invitation{}).Where("id = ?", id).Updates(fields).Error
}

func (s *Store) GetCreator(ctx context.Context, id uint64) (*Creator, error) {
	var c Creator
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) AppendActivityLog(ctx context.Context, entry *ActivityLog) error {
	return s.DB.WithContext(ctx).Create(entry).Error
}

func (s *Store) GetPortalSession(ctx context.Context, userID uint64) (*PortalSession, error) {
	var sess PortalSession
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *Store) SavePortalSession(ctx context.Context, sess *PortalSession) error {
	return s.DB.WithContext(ctx).Save(sess).Error
}
