package futurecash

import (
	"net/http"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
)

type ClickResponse struct {
	TrackingURL string `json:"trackingUrl"`
	Message     string `json:"message"`
}

// Провайдеры офферов
func (h *Handler) ProvidersHandler(w http.ResponseWriter, req *http.Request) {
	walls, err := h.offers.GetProviders(req.Context())
	if err != nil {
		h.writeError(w, "ProvidersHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, walls)
}

// Колбэк провайдера
func (h *Handler) CallbackHandler(w http.ResponseWriter, req *http.Request) {
	callback := model.Callback{}
	if !h.decode(w, req, "CallbackHandler", &callback) {
		return
	}
	if callback.IPAddress == "" {
		callback.IPAddress = clientIP(req)
	}
	result, err := h.offers.ProcessCallback(req.Context(), callback)
	if err != nil {
		h.writeError(w, "CallbackHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) OffersHandler(w http.ResponseWriter, req *http.Request) {
	offers, err := h.offers.GetOffers(req.Context(), pageFrom(req))
	if err != nil {
		h.writeError(w, "OffersHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, offers)
}

// История выполнений, фильтр ?status=
func (h *Handler) OfferHistoryHandler(w http.ResponseWriter, req *http.Request) {
	status := req.URL.Query().Get("status")
	list, err := h.offers.GetHistory(req.Context(), currentUser(req), status, pageFrom(req))
	if err != nil {
		h.writeError(w, "OfferHistoryHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Клик по офферу
func (h *Handler) ClickHandler(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	link, err := h.offers.TrackClick(req.Context(), id, currentUser(req), clientIP(req), req.UserAgent())
	if err != nil {
		h.writeError(w, "ClickHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, ClickResponse{TrackingURL: link, Message: "Offer click tracked"})
}
