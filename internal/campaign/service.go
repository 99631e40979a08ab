package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rehmanul/BOT-Friday-sub000/internal/events"
)

var ErrInvalidStatus = errors.New("invalid status transition")
var ErrInvalidInput = errors.New("invalid input")

// Service owns campaign/creator/invitation CRUD and the explicit status
// flips. The scheduler-driven transitions live in the outreach package.
type Service struct {
	DB       *gorm.DB
	Notifier events.Notifier
}

type CreateCampaignInput struct {
	Name              string
	MessageTemplate   string
	TargetInvitations int
	DailyLimit        int
	HumanLikeDelays   bool
	NicheFilter       []string
}

func (s *Service) CreateCampaign(ctx context.Context, userID uint64, in CreateCampaignInput) (uint64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.MessageTemplate = strings.TrimSpace(in.MessageTemplate)
	if in.Name == "" || in.MessageTemplate == "" {
		return 0, ErrInvalidInput
	}
	if in.TargetInvitations < 0 || in.DailyLimit < 0 {
		return 0, ErrInvalidInput
	}

	c := Campaign{
		UserID:            userID,
		Name:              in.Name,
		Status:            StatusDraft,
		MessageTemplate:   in.MessageTemplate,
		TargetInvitations: in.TargetInvitations,
		DailyLimit:        in.DailyLimit,
		HumanLikeDelays:   in.HumanLikeDelays,
		NicheFilter:       NormalizeNiches(in.NicheFilter),
	}
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		return 0, err
	}
	return c.ID, nil
}

// StartCampaign flips draft|paused to active and batch-creates pending
// invitations for every qualifying creator that has none yet. The message is
// resolved from the template per creator at creation time.
func (s *Service) StartCampaign(ctx context.Context, userID, id uint64) error {
	var camp Campaign
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&camp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if camp.Status != StatusDraft && camp.Status != StatusPaused {
			return ErrInvalidStatus
		}

		var creators []Creator
		if err := tx.Where("user_id = ?", userID).Order("id asc").Find(&creators).Error; err != nil {
			return err
		}

		var invited []uint64
		if err := tx.Model(&Invitation{}).
			Where("campaign_id = ?", camp.ID).
			Pluck("creator_id", &invited).Error; err != nil {
			return err
		}

		for _, inv := range buildInvitations(&camp, creators, invited) {
			if err := tx.Create(&inv).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&Campaign{}).Where("id = ?", camp.ID).
			Update("status", StatusActive).Error; err != nil {
			return err
		}
		return tx.Create(&ActivityLog{
			UserID:     userID,
			CampaignID: camp.ID,
			Type:       LogCampaignStarted,
			Message:    fmt.Sprintf("campaign %q started", camp.Name),
		}).Error
	})
	if err != nil {
		return err
	}

	s.notify(userID, events.Event{
		Type:       LogCampaignStarted,
		UserID:     userID,
		CampaignID: camp.ID,
		At:         time.Now(),
	})
	return nil
}

// buildInvitations materializes pending invitations for every creator that
// matches the campaign's niche filter and is not in the invited set. The
// message is resolved from the template per creator.
func buildInvitations(camp *Campaign, creators []Creator, invited []uint64) []Invitation {
	already := make(map[uint64]struct{}, len(invited))
	for _, cid := range invited {
		already[cid] = struct{}{}
	}

	var out []Invitation
	for i := range creators {
		cr := &creators[i]
		if _, ok := already[cr.ID]; ok {
			continue
		}
		if !MatchesNiches(camp.NicheFilter, cr.Niches) {
			continue
		}
		out = append(out, Invitation{
			CampaignID: camp.ID,
			CreatorID:  cr.ID,
			Status:     InviteStatusPending,
			Message:    RenderTemplate(camp.MessageTemplate, cr),
		})
	}
	return out
}

// PauseCampaign persists the pause; the runner observes it before its next
// invitation and stops.
func (s *Service) PauseCampaign(ctx context.Context, userID, id uint64) error {
	return s.flipStatus(ctx, userID, id, []string{StatusActive}, StatusPaused, LogCampaignPaused)
}

// StopCampaign is terminal; a stopped campaign cannot be restarted.
func (s *Service) StopCampaign(ctx context.Context, userID, id uint64) error {
	return s.flipStatus(ctx, userID, id, []string{StatusActive, StatusPaused}, StatusStopped, "")
}

func (s *Service) flipStatus(ctx context.Context, userID, id uint64, from []string, to, logType string) error {
	var camp Campaign
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&camp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		ok := false
		for _, f := range from {
			if camp.Status == f {
				ok = true
			}
		}
		if !ok {
			return ErrInvalidStatus
		}
		if err := tx.Model(&Campaign{}).Where("id = ?", id).Update("status", to).Error; err != nil {
			return err
		}
		if logType == "" {
			return nil
		}
		return tx.Create(&ActivityLog{
			UserID:     userID,
			CampaignID: id,
			Type:       logType,
			Message:    fmt.Sprintf("campaign %q %s", camp.Name, to),
		}).Error
	})
	if err != nil {
		return err
	}
	if logType != "" {
		s.notify(userID, events.Event{
			Type:       logType,
			UserID:     userID,
			CampaignID: id,
			At:         time.Now(),
		})
	}
	return nil
}

// DeleteCampaign removes the campaign and its invitations. Activity log rows
// stay for audit.
func (s *Service) DeleteCampaign(ctx context.Context, userID, id uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Campaign{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("campaign_id = ?", id).Delete(&Invitation{}).Error
	})
}

// RequeueInvitation flips a failed invitation back to pending. Retries are
// never automatic; this is the operator's explicit decision. The retry count
// is kept as history.
func (s *Service) RequeueInvitation(ctx context.Context, userID, invitationID uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv Invitation
		err := tx.Joins("JOIN campaigns ON campaigns.id = invitations.campaign_id").
			Where("invitations.id = ? AND campaigns.user_id = ?", invitationID, userID).
			First(&inv).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		fields, err := requeueChanges(&inv)
		if err != nil {
			return err
		}
		return tx.Model(&Invitation{}).Where("id = ?", inv.ID).Updates(fields).Error
	})
}

// requeueChanges is the failed -> pending transition, the only legal backward
// move in the invitation lifecycle. The error message is cleared; the retry
// count stays as history.
func requeueChanges(inv *Invitation) (map[string]any, error) {
	if inv.Status != InviteStatusFailed {
		return nil, ErrInvalidStatus
	}
	return map[string]any{
		"status":        InviteStatusPending,
		"error_message": nil,
	}, nil
}

// RecordResponse marks a sent invitation as responded and bumps the campaign
// response counter.
func (s *Service) RecordResponse(ctx context.Context, userID, invitationID uint64, text string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv Invitation
		err := tx.Joins("JOIN campaigns ON campaigns.id = invitations.campaign_id").
			Where("invitations.id = ? AND campaigns.user_id = ?", invitationID, userID).
			First(&inv).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if inv.Status != InviteStatusSent {
			return ErrInvalidStatus
		}
		now := time.Now()
		if err := tx.Model(&Invitation{}).Where("id = ?", inv.ID).Updates(map[string]any{
			"status":        InviteStatusResponded,
			"responded_at":  now,
			"response_text": text,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&Campaign{}).Where("id = ?", inv.CampaignID).
			Update("response_count", gorm.Expr("response_count + 1")).Error
	})
}

type AddCreatorInput struct {
	Handle    string
	Name      string
	Followers int64
	Niches    []string
}

func (s *Service) AddCreator(ctx context.Context, userID uint64, in AddCreatorInput) (uint64, error) {
	in.Handle = strings.TrimSpace(strings.TrimPrefix(in.Handle, "@"))
	if in.Handle == "" {
		return 0, ErrInvalidInput
	}
	c := Creator{
		UserID:    userID,
		Handle:    in.Handle,
		Name:      strings.TrimSpace(in.Name),
		Followers: in.Followers,
		Niches:    NormalizeNiches(in.Niches),
	}
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		return 0, err
	}
	return c.ID, nil
}

func (s *Service) notify(userID uint64, ev events.Event) {
	if s.Notifier != nil {
		s.Notifier.Notify(userID, ev)
	}
}
