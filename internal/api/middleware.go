package futurecash

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	auth "github.com/glkeru/loyalty/futurecash/internal/auth"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	services "github.com/glkeru/loyalty/futurecash/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// метрики

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futurecash_http_requests_total",
			Help: "Кол-во HTTP запросов",
		},
		[]string{"path", "code"},
	)

	httpRequestsError = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futurecash_http_errors_total",
			Help: "Кол-во ошибочных HTTP запросов",
		},
		[]string{"path", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "futurecash_http_request_duration_seconds",
			Help:    "Продолжительность HTTP запросов",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "code"},
	)
)

type logResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *logResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// шаблон маршрута вместо пути, иначе id попадают в метки
func routeLabel(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route != nil {
		tpl, err := route.GetPathTemplate()
		if err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

func MiddlewareLog() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqtime := time.Now()
			logrw := &logResponseWriter{w, http.StatusOK}
			next.ServeHTTP(logrw, r)

			labels := prometheus.Labels{
				"path": routeLabel(r),
				"code": strconv.Itoa(logrw.status),
			}
			httpRequestsTotal.With(labels).Inc()
			httpRequestDuration.With(labels).Observe(time.Since(reqtime).Seconds())

			if logrw.status >= http.StatusBadRequest {
				httpRequestsError.With(labels).Inc()
			}
		})
	}
}

// авторизация

type ctxKey string

const authUserKey ctxKey = "auth_user_id"

func withUser(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, authUserKey, id)
}

// пользователь из контекста
func UserFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(authUserKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func bearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// обязательная авторизация: токен + активный аккаунт
func RequireUser(jwt *auth.JWTService, users *services.UserService, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, message("Authorization required"))
				return
			}
			claims, err := jwt.ValidateToken(token)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					writeJSON(w, http.StatusUnauthorized, message("Token has expired"))
					return
				}
				writeJSON(w, http.StatusUnauthorized, message("Invalid token"))
				return
			}
			// статус аккаунта проверяется на каждом запросе
			user, err := users.Get(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					writeJSON(w, http.StatusUnauthorized, message("User not found"))
					return
				}
				logger.Error("Auth user lookup", zap.String("user_id", claims.UserID.String()), zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, message("Server error"))
				return
			}
			if user.AccountStatus != model.AccountActive {
				writeJSON(w, http.StatusForbidden, message("Account is not active"))
				return
			}
			next(w, r.WithContext(withUser(r.Context(), user.ID)))
		}
	}
}

// необязательная авторизация: неверный токен игнорируется
func OptionalUser(jwt *auth.JWTService) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if ok {
				claims, err := jwt.ValidateToken(token)
				if err == nil {
					r = r.WithContext(withUser(r.Context(), claims.UserID))
				}
			}
			next(w, r)
		}
	}
}
