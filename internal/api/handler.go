package futurecash

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	auth "github.com/glkeru/loyalty/futurecash/internal/auth"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	services "github.com/glkeru/loyalty/futurecash/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Services struct {
	Offers    *services.OfferService
	Videos    *services.VideoService
	Rewards   *services.RewardService
	Referrals *services.ReferralService
	Ledger    *services.LedgerService
	Users     *services.UserService
}

type Handler struct {
	router    *mux.Router
	logger    *zap.Logger
	offers    *services.OfferService
	videos    *services.VideoService
	rewards   *services.RewardService
	referrals *services.ReferralService
	ledger    *services.LedgerService
	users     *services.UserService
}

func NewHandler(s Services, jwt *auth.JWTService, logger *zap.Logger) *Handler {
	router := mux.NewRouter()
	h := &Handler{
		router:    router,
		logger:    logger,
		offers:    s.Offers,
		videos:    s.Videos,
		rewards:   s.Rewards,
		referrals: s.Referrals,
		ledger:    s.Ledger,
		users:     s.Users,
	}
	user := RequireUser(jwt, s.Users, logger)
	optional := OptionalUser(jwt)

	router.Use(MiddlewareLog())
	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// auth
	api.HandleFunc("/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.LoginHandler).Methods(http.MethodPost)

	// offers
	api.HandleFunc("/offers/providers", h.ProvidersHandler).Methods(http.MethodGet)
	api.HandleFunc("/offers/callback", h.CallbackHandler).Methods(http.MethodPost)
	api.HandleFunc("/offers", h.OffersHandler).Methods(http.MethodGet)
	api.HandleFunc("/offers/history", user(h.OfferHistoryHandler)).Methods(http.MethodGet)
	api.HandleFunc("/offers/{id}/click", user(h.ClickHandler)).Methods(http.MethodPost)

	// videos
	api.HandleFunc("/videos", h.VideosHandler).Methods(http.MethodGet)
	api.HandleFunc("/videos/history", user(h.VideoHistoryHandler)).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}/start", user(h.StartWatchHandler)).Methods(http.MethodPost)
	api.HandleFunc("/videos/{id}/complete", user(h.CompleteWatchHandler)).Methods(http.MethodPost)

	// rewards
	api.HandleFunc("/rewards", h.RewardsHandler).Methods(http.MethodGet)
	api.HandleFunc("/rewards/history", user(h.RedemptionHistoryHandler)).Methods(http.MethodGet)
	api.HandleFunc("/rewards/redemptions/{id}", user(h.RedemptionHandler)).Methods(http.MethodGet)
	api.HandleFunc("/rewards/{id}/redeem", user(h.RedeemHandler)).Methods(http.MethodPost)

	// referrals
	api.HandleFunc("/referrals/validate", optional(h.ValidateReferralHandler)).Methods(http.MethodPost)
	api.HandleFunc("/referrals", user(h.ReferralsHandler)).Methods(http.MethodGet)

	// user
	api.HandleFunc("/user/me", user(h.MeHandler)).Methods(http.MethodGet)
	api.HandleFunc("/user/points", user(h.PointsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/user/activity", user(h.ActivityHandler)).Methods(http.MethodGet)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.router.ServeHTTP(w, req)
}

func (h *Handler) Log(msg string, service string, err error) {
	h.logger.Error(msg,
		zap.String("service", service),
		zap.Error(err),
	)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ответы

func message(msg string) map[string]any {
	return map[string]any{"message": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	j, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(j)
}

// Ошибки сервисов -> HTTP. Неизвестные ошибки логируются, клиенту общий ответ.
func (h *Handler) writeError(w http.ResponseWriter, service string, err error) {
	var points *model.InsufficientPointsError
	var watch *model.WatchTimeError
	switch {
	case errors.As(err, &points):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":  "Insufficient points",
			"required": points.Required,
			"balance":  points.Balance,
		})
	case errors.As(err, &watch):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":             "Watch time is insufficient",
			"watch_time_required": watch.Required,
			"watch_time_provided": watch.Provided,
		})
	case errors.Is(err, model.ErrAlreadyWatched):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":         "You have already watched this video",
			"already_watched": true,
		})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, message(err.Error()))
	case errors.Is(err, model.ErrBadRequest), errors.Is(err, model.ErrInvalidState):
		writeJSON(w, http.StatusBadRequest, message(err.Error()))
	case errors.Is(err, model.ErrInvalidCallback):
		writeJSON(w, http.StatusForbidden, message("Invalid callback signature"))
	case errors.Is(err, model.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, message(err.Error()))
	case errors.Is(err, model.ErrDuplicate):
		writeJSON(w, http.StatusConflict, message(err.Error()))
	default:
		h.Log("Server error", service, err)
		writeJSON(w, http.StatusInternalServerError, message("Server error"))
	}
}

// тело запроса
func (h *Handler) decode(w http.ResponseWriter, req *http.Request, service string, v any) bool {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		h.Log("Get request body", service, err)
		writeJSON(w, http.StatusBadRequest, message("Body is empty"))
		return false
	}
	defer req.Body.Close()
	if len(body) == 0 {
		return true
	}
	err = json.Unmarshal(body, v)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, message("Body is not correct"))
		return false
	}
	return true
}

// id из пути
func pathID(w http.ResponseWriter, req *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, message("Not found"))
		return uuid.Nil, false
	}
	return id, true
}

// страница из query: page, limit
func pageFrom(req *http.Request) model.Page {
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return model.NewPage(page, limit)
}

// IP клиента: первый X-Forwarded-For, иначе RemoteAddr
func clientIP(req *http.Request) string {
	forwarded := req.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func currentUser(req *http.Request) uuid.UUID {
	id, _ := UserFromContext(req.Context())
	return id
}
