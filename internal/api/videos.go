package futurecash

import (
	"net/http"
)

type CompleteWatchRequest struct {
	WatchTimeSeconds int `json:"watch_time_seconds"`
}

func (h *Handler) VideosHandler(w http.ResponseWriter, req *http.Request) {
	videos, err := h.videos.GetVideos(req.Context(), pageFrom(req))
	if err != nil {
		h.writeError(w, "VideosHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *Handler) VideoHistoryHandler(w http.ResponseWriter, req *http.Request) {
	views, err := h.videos.GetHistory(req.Context(), currentUser(req), pageFrom(req))
	if err != nil {
		h.writeError(w, "VideoHistoryHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// Начало просмотра
func (h *Handler) StartWatchHandler(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	info, err := h.videos.StartWatch(req.Context(), id, currentUser(req), clientIP(req), req.UserAgent())
	if err != nil {
		h.writeError(w, "StartWatchHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":             "Video watch started",
		"watch_time_required": info.WatchTimeRequired,
		"points":              info.Points,
	})
}

// Завершение просмотра
func (h *Handler) CompleteWatchHandler(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	body := CompleteWatchRequest{}
	if !h.decode(w, req, "CompleteWatchHandler", &body) {
		return
	}
	res, err := h.videos.CompleteWatch(req.Context(), id, currentUser(req), body.WatchTimeSeconds, clientIP(req))
	if err != nil {
		h.writeError(w, "CompleteWatchHandler", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Video watch completed",
		"points_earned": res.PointsEarned,
		"new_balance":   res.NewBalance,
	})
}
