package futurecash

import (
	"net/http"
)

type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Fullname     string `json:"fullname"`
	ReferralCode string `json:"referral_code"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, req *http.Request) {
	body := RegisterRequest{}
	if !h.decode(w, req, "RegisterHandler", &body) {
		return
	}
	session, err := h.users.Register(req.Context(), body.Email, body.Password, body.Fullname, body.ReferralCode)
	if err != nil {
		h.writeError(w, "RegisterHandler", err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) LoginHandler(w http.ResponseWriter, req *http.Request) {
	body := LoginRequest{}
	if !h.decode(w, req, "LoginHandler", &body) {
		return
	}
	session, err := h.users.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		h.writeError(w, "LoginHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) MeHandler(w http.ResponseWriter, req *http.Request) {
	user, err := h.users.Get(req.Context(), currentUser(req))
	if err != nil {
		h.writeError(w, "MeHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Баланс и движения баллов
func (h *Handler) PointsHandler(w http.ResponseWriter, req *http.Request) {
	summary, err := h.ledger.GetPoints(req.Context(), currentUser(req), pageFrom(req))
	if err != nil {
		h.writeError(w, "PointsHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) ActivityHandler(w http.ResponseWriter, req *http.Request) {
	list, err := h.ledger.GetActivities(req.Context(), currentUser(req), pageFrom(req))
	if err != nil {
		h.writeError(w, "ActivityHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
