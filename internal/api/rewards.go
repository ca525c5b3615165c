package futurecash

import (
	"net/http"
)

type RedeemRequest struct {
	PaymentDetails string `json:"payment_details"`
}

func (h *Handler) RewardsHandler(w http.ResponseWriter, req *http.Request) {
	rewards, err := h.rewards.GetRewards(req.Context())
	if err != nil {
		h.writeError(w, "RewardsHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

// Вывод баллов
func (h *Handler) RedeemHandler(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	body := RedeemRequest{}
	if !h.decode(w, req, "RedeemHandler", &body) {
		return
	}
	redemption, balance, err := h.rewards.Redeem(req.Context(), id, currentUser(req), body.PaymentDetails, clientIP(req))
	if err != nil {
		h.writeError(w, "RedeemHandler", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Reward redemption requested",
		"redemption":  redemption,
		"new_balance": balance,
	})
}

func (h *Handler) RedemptionHistoryHandler(w http.ResponseWriter, req *http.Request) {
	list, err := h.rewards.GetHistory(req.Context(), currentUser(req), pageFrom(req))
	if err != nil {
		h.writeError(w, "RedemptionHistoryHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Статус заявки
func (h *Handler) RedemptionHandler(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	redemption, err := h.rewards.GetRedemption(req.Context(), id, currentUser(req))
	if err != nil {
		h.writeError(w, "RedemptionHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, redemption)
}
