package handler

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/rehmanul/BOT-Friday-sub000/internal/auth"
	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
)

type InvitationHandler struct {
	Svc *campaign.Service
	DB  *gorm.DB
}

// ListForCampaign returns a campaign's invitations oldest first.
func (h *InvitationHandler) ListForCampaign(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var c campaign.Campaign
	if err := h.DB.Where("id = ? AND user_id = ?", id, uid).First(&c).Error; err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var out []campaign.Invitation
	if err := h.DB.Where("campaign_id = ?", id).
		Order("created_at asc, id asc").Find(&out).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *InvitationHandler) Requeue(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.Svc.RequeueInvitation(r.Context(), uid, id); err != nil {
		writeSvcError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type responseReq struct {
	Text string `json:"text"`
}

func (h *InvitationHandler) RecordResponse(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req responseReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if err := h.Svc.RecordResponse(r.Context(), uid, id, req.Text); err != nil {
		writeSvcError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
