package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/rehmanul/BOT-Friday-sub000/internal/auth"
	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
)

type CreatorHandler struct {
	Svc *campaign.Service
	DB  *gorm.DB
}

type addCreatorReq struct {
	Handle    string   `json:"handle"`
	Name      string   `json:"name"`
	Followers int64    `json:"followers"`
	Niches    []string `json:"niches"`
}

func (h *CreatorHandler) Add(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req addCreatorReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	id, err := h.Svc.AddCreator(r.Context(), uid, campaign.AddCreatorInput{
		Handle:    req.Handle,
		Name:      req.Name,
		Followers: req.Followers,
		Niches:    req.Niches,
	})
	if err != nil {
		if errors.Is(err, campaign.ErrInvalidInput) {
			http.Error(w, "invalid input", http.StatusBadRequest)
			return
		}
		http.Error(w, "handle already exists", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *CreatorHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var out []campaign.Creator
	if err := h.DB.Where("user_id = ?", uid).Order("id asc").Find(&out).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
