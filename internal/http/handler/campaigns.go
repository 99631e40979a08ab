package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/rehmanul/BOT-Friday-sub000/internal/auth"
	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
	"github.com/rehmanul/BOT-Friday-sub000/internal/outreach"
)

type CampaignHandler struct {
	Svc     *campaign.Service
	DB      *gorm.DB
	Manager *outreach.Manager
	Limiter *outreach.RateLimiter
}

type createCampaignReq struct {
	Name              string   `json:"name"`
	MessageTemplate   string   `json:"message_template"`
	TargetInvitations int      `json:"target_invitations"`
	DailyLimit        int      `json:"daily_limit"`
	HumanLikeDelays   *bool    `json:"human_like_delays"`
	NicheFilter       []string `json:"niche_filter"`
}

func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createCampaignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	humanDelays := true
	if req.HumanLikeDelays != nil {
		humanDelays = *req.HumanLikeDelays
	}

	id, err := h.Svc.CreateCampaign(r.Context(), uid, campaign.CreateCampaignInput{
		Name:              req.Name,
		MessageTemplate:   req.MessageTemplate,
		TargetInvitations: req.TargetInvitations,
		DailyLimit:        req.DailyLimit,
		HumanLikeDelays:   humanDelays,
		NicheFilter:       req.NicheFilter,
	})
	if err != nil {
		if errors.Is(err, campaign.ErrInvalidInput) {
			http.Error(w, "invalid input", http.StatusBadRequest)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var out []campaign.Campaign
	if err := h.DB.Where("user_id = ?", uid).Order("id desc").Find(&out).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"campaign": c,
		"running":  h.Manager.Running(c.ID),
	})
}

// Start flips the persisted status and kicks off a runner invocation.
func (h *CampaignHandler) Start(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.Svc.StartCampaign(r.Context(), uid, id); err != nil {
		writeSvcError(w, err)
		return
	}
	h.Manager.Start(id)
	w.WriteHeader(http.StatusNoContent)
}

// Pause persists the pause and interrupts any in-flight delay. The runner
// also observes the persisted status before every invitation.
func (h *CampaignHandler) Pause(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.Svc.PauseCampaign(r.Context(), uid, id); err != nil {
		writeSvcError(w, err)
		return
	}
	h.Manager.Cancel(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *CampaignHandler) Stop(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.Svc.StopCampaign(r.Context(), uid, id); err != nil {
		writeSvcError(w, err)
		return
	}
	h.Manager.Cancel(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	h.Manager.Cancel(id)
	if err := h.Svc.DeleteCampaign(r.Context(), uid, id); err != nil {
		writeSvcError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Limits exposes the caller's remaining quota and reset times.
func (h *CampaignHandler) Limits(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	rem := h.Limiter.Remaining(uid)
	resets := h.Limiter.ResetTimes(uid)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"remaining_hourly": rem.Hourly,
		"remaining_daily":  rem.Daily,
		"hourly_reset":     resets.Hourly,
		"daily_reset":      resets.Daily,
	})
}

func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeSvcError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, campaign.ErrInvalidStatus):
		http.Error(w, "invalid status", http.StatusConflict)
	case errors.Is(err, campaign.ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
