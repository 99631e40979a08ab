package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/rehmanul/BOT-Friday-sub000/internal/auth"
	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
)

type ActivityHandler struct {
	DB *gorm.DB
}

// List returns the caller's activity log newest first, paginated.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	q := h.DB.Where("user_id = ?", uid)
	if cid, err := strconv.ParseUint(r.URL.Query().Get("campaign_id"), 10, 64); err == nil && cid > 0 {
		q = q.Where("campaign_id = ?", cid)
	}

	var out []campaign.ActivityLog
	if err := q.Order("id desc").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
