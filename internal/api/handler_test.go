package futurecash

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auth "github.com/glkeru/loyalty/futurecash/internal/auth"
	config "github.com/glkeru/loyalty/futurecash/internal/config"
	db "github.com/glkeru/loyalty/futurecash/internal/db"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	services "github.com/glkeru/loyalty/futurecash/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiEnv struct {
	db     *db.MemoryDB
	jwt    *auth.JWTService
	server *httptest.Server
	offer  model.Offer
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	logger := zap.NewNop()
	mem := db.NewMemoryDB()
	cfg := config.Default()
	jwt := auth.NewJWTService("test", time.Hour)

	ledger := services.NewLedgerService(logger, mem, nil, nil)
	referrals := services.NewReferralService(logger, mem, mem, mem, ledger, cfg)
	hold := services.NewHoldPolicy(logger, mem, cfg.Hold)
	verifiers := services.NewVerifierRegistry(logger, false)
	h := NewHandler(Services{
		Offers:    services.NewOfferService(logger, mem, mem, hold, verifiers, referrals, ledger, nil, cfg),
		Videos:    services.NewVideoService(logger, mem, mem, referrals, ledger),
		Rewards:   services.NewRewardService(logger, mem, ledger, nil),
		Referrals: referrals,
		Ledger:    ledger,
		Users:     services.NewUserService(logger, mem, referrals, jwt),
	}, jwt, logger)

	wall := mem.AddOfferWall(model.OfferWall{Name: "adgate", Status: true})
	offer := mem.AddOffer(model.Offer{
		OfferWallID:     wall.ID,
		ExternalOfferID: "ext-1",
		Title:           "Install app",
		OfferURL:        "https://provider.example/click",
		Points:          100,
		Status:          true,
	})

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return &apiEnv{db: mem, jwt: jwt, server: server, offer: offer}
}

// старый пользователь + токен
func (e *apiEnv) login(t *testing.T, email string) (model.User, string) {
	t.Helper()
	user, err := e.db.CreateUser(context.Background(), model.User{
		Email:        email,
		Fullname:     email,
		ReferralCode: email[:4],
		CreatedAt:    time.Now().Add(-72 * time.Hour),
	}, model.UserActivity{ActivityType: model.ActivityRegistration})
	require.NoError(t, err)
	token, err := e.jwt.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)
	return user, token
}

func (e *apiEnv) do(t *testing.T, method string, path string, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	e := newAPIEnv(t)
	code, body := e.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body["status"])
}

func TestAuthRequired(t *testing.T) {
	e := newAPIEnv(t)
	code, _ := e.do(t, http.MethodGet, "/api/user/points", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = e.do(t, http.MethodGet, "/api/user/points", "broken", nil)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestInactiveAccount(t *testing.T) {
	e := newAPIEnv(t)
	click := "/api/offers/" + e.offer.ID.String() + "/click"

	for _, status := range []string{model.AccountBanned, model.AccountSuspended} {
		user, err := e.db.CreateUser(context.Background(), model.User{
			Email:         status + "@example.com",
			Fullname:      status,
			ReferralCode:  status[:4],
			AccountStatus: status,
		}, model.UserActivity{ActivityType: model.ActivityRegistration})
		require.NoError(t, err)
		token, err := e.jwt.GenerateToken(user.ID, user.Email)
		require.NoError(t, err)

		code, body := e.do(t, http.MethodPost, click, token, nil)
		require.Equal(t, http.StatusForbidden, code, status)
		require.Equal(t, "Account is not active", body["message"])
	}

	// токен пользователя, которого нет в базе
	token, err := e.jwt.GenerateToken(uuid.New(), "ghost@example.com")
	require.NoError(t, err)
	code, _ := e.do(t, http.MethodPost, click, token, nil)
	require.Equal(t, http.StatusUnauthorized, code)

	_, token = e.login(t, "active@example.com")
	code, _ = e.do(t, http.MethodPost, click, token, nil)
	require.Equal(t, http.StatusOK, code)
}

func TestRegisterLogin(t *testing.T) {
	e := newAPIEnv(t)
	code, body := e.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email: "new@example.com", Password: "secret123", Fullname: "New",
	})
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, body["token"])

	code, _ = e.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email: "new@example.com", Password: "secret123", Fullname: "New",
	})
	require.Equal(t, http.StatusConflict, code)

	code, body = e.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "new@example.com", Password: "secret123"})
	require.Equal(t, http.StatusOK, code)
	token := body["token"].(string)

	code, body = e.do(t, http.MethodGet, "/api/user/points", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(0), body["points_balance"])

	code, _ = e.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "new@example.com", Password: "bad"})
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestCallbackAndClick(t *testing.T) {
	e := newAPIEnv(t)
	user, token := e.login(t, "user@example.com")

	code, body := e.do(t, http.MethodPost, "/api/offers/"+e.offer.ID.String()+"/click", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body["trackingUrl"], "sub_id="+user.ID.String())

	callback := model.Callback{
		TransactionID: "tx-api",
		UserID:        user.ID.String(),
		OfferID:       "ext-1",
		Points:        100,
		Provider:      "adgate",
	}
	code, body = e.do(t, http.MethodPost, "/api/offers/callback", "", callback)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, model.ResultApproved, body["result"])

	code, body = e.do(t, http.MethodPost, "/api/offers/callback", "", callback)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, model.ResultDuplicate, body["result"])

	callback.OfferID = "missing"
	callback.TransactionID = "tx-missing"
	code, _ = e.do(t, http.MethodPost, "/api/offers/callback", "", callback)
	require.Equal(t, http.StatusNotFound, code)

	code, body = e.do(t, http.MethodGet, "/api/user/points", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(100), body["points_balance"])

	code, body = e.do(t, http.MethodGet, "/api/offers/providers", "", nil)
	require.Equal(t, http.StatusOK, code)
}

func TestWatchVideoAPI(t *testing.T) {
	e := newAPIEnv(t)
	_, token := e.login(t, "viewer@example.com")
	video := e.db.AddVideo(model.Video{Title: "Clip", Points: 20, WatchTimeSeconds: 30, Status: true})
	path := "/api/videos/" + video.ID.String()

	code, body := e.do(t, http.MethodPost, path+"/start", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(30), body["watch_time_required"])

	code, body = e.do(t, http.MethodPost, path+"/complete", token, CompleteWatchRequest{WatchTimeSeconds: 5})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, float64(30), body["watch_time_required"])
	require.Equal(t, float64(5), body["watch_time_provided"])

	code, body = e.do(t, http.MethodPost, path+"/complete", token, CompleteWatchRequest{WatchTimeSeconds: 30})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(20), body["points_earned"])
	require.Equal(t, float64(20), body["new_balance"])

	code, body = e.do(t, http.MethodPost, path+"/complete", token, CompleteWatchRequest{WatchTimeSeconds: 30})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, true, body["already_watched"])

	code, _ = e.do(t, http.MethodPost, "/api/videos/not-an-id/start", token, nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestRedeemAPI(t *testing.T) {
	e := newAPIEnv(t)
	_, token := e.login(t, "buyer@example.com")
	reward := e.db.AddReward(model.RewardOption{Name: "Card", PointsRequired: 100, Status: true})
	path := "/api/rewards/" + reward.ID.String() + "/redeem"

	code, body := e.do(t, http.MethodPost, path, token, RedeemRequest{})
	require.Equal(t, http.StatusBadRequest, code)

	code, body = e.do(t, http.MethodPost, path, token, RedeemRequest{PaymentDetails: "card"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, float64(100), body["required"])
	require.Equal(t, float64(0), body["balance"])
}

func TestValidateReferralAPI(t *testing.T) {
	e := newAPIEnv(t)
	referrer, token := e.login(t, "referrer@example.com")

	code, body := e.do(t, http.MethodPost, "/api/referrals/validate", "", ValidateReferralRequest{ReferralCode: referrer.ReferralCode})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["valid"])
	require.Equal(t, referrer.ID.String(), body["referrer_id"])

	code, body = e.do(t, http.MethodPost, "/api/referrals/validate", token, ValidateReferralRequest{ReferralCode: referrer.ReferralCode})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, false, body["valid"])

	code, body = e.do(t, http.MethodPost, "/api/referrals/validate", "", ValidateReferralRequest{ReferralCode: "nope"})
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, false, body["valid"])

	code, _ = e.do(t, http.MethodPost, "/api/referrals/validate", "", ValidateReferralRequest{})
	require.Equal(t, http.StatusBadRequest, code)

	code, body = e.do(t, http.MethodGet, "/api/referrals", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(0), body["total_referrals"])
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	require.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", clientIP(req))
}
