package futurecash

import (
	"errors"
	"net/http"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
)

type ValidateReferralRequest struct {
	ReferralCode string `json:"referral_code"`
}

// Проверка реферального кода, авторизация необязательна
func (h *Handler) ValidateReferralHandler(w http.ResponseWriter, req *http.Request) {
	body := ValidateReferralRequest{}
	if !h.decode(w, req, "ValidateReferralHandler", &body) {
		return
	}
	var caller *uuid.UUID
	if id, ok := UserFromContext(req.Context()); ok {
		caller = &id
	}
	referrer, err := h.referrals.ValidateCode(req.Context(), body.ReferralCode, caller)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"valid":       true,
			"message":     "Valid referral code",
			"referrer_id": referrer.ID,
		})
	case errors.Is(err, model.ErrBadRequest):
		writeJSON(w, http.StatusBadRequest, message("Referral code is required"))
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"valid": false, "message": "Invalid referral code"})
	case errors.Is(err, model.ErrSelfReferral):
		writeJSON(w, http.StatusBadRequest, map[string]any{"valid": false, "message": "You cannot refer yourself"})
	default:
		h.writeError(w, "ValidateReferralHandler", err)
	}
}

// Мои рефералы
func (h *Handler) ReferralsHandler(w http.ResponseWriter, req *http.Request) {
	info, err := h.referrals.GetReferrals(req.Context(), currentUser(req))
	if err != nil {
		h.writeError(w, "ReferralsHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
