package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/config"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func withUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set("user", user)
		}
		c.Next()
	}
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func TestI18nMiddleware(t *testing.T) {
	cases := map[string]string{
		"":                        "en",
		"zh-TW,zh;q=0.9,en;q=0.8": "zh_TW",
		"en-GB":                   "en",
		"fr-FR":                   "en",
	}
	for header, want := range cases {
		r := gin.New()
		r.Use(I18nMiddleware("en"))
		r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, utils.GetLangFromContext(c)) })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", header)
		assert.Equal(t, want, serve(r, req).Body.String(), header)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", ok)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Second), 1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.getVisitor("10.0.0.1")
	now = now.Add(5 * time.Minute)
	rl.getVisitor("10.0.0.2")

	rl.mtx.Lock()
	defer rl.mtx.Unlock()
	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestRouteGate(t *testing.T) {
	ledger := services.NewPaymentLedger(services.NewMemoryStore(), logrus.New(), nil)
	authz := services.NewAuthorizationService(ledger, config.GateConfig{DefaultAdminHome: "/admin"}, nil, nil)
	rule := services.RouteRule{AdminArea: true, Permission: services.PermVerifyPayments}

	cases := []struct {
		name     string
		user     *models.User
		status   int
		redirect string
	}{
		{"anonymous", nil, http.StatusUnauthorized, services.LoginPath},
		{"not admin", &models.User{ID: "a", Role: models.RoleArtist}, http.StatusNotFound, services.NotFoundPath},
		{"wrong admin", &models.User{ID: "c", Role: models.RoleAdmin, AdminType: models.AdminTypeContent}, http.StatusForbidden, "/admin/tracks"},
		{"allowed", &models.User{ID: "f", Role: models.RoleAdmin, AdminType: models.AdminTypeFinancial}, http.StatusOK, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", withUser(tc.user), RouteGate(authz, rule), ok)
			w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, tc.status, w.Code)
			if tc.redirect == "" {
				return
			}

			var resp utils.APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			details, _ := resp.Error.Details.(map[string]interface{})
			assert.Equal(t, tc.redirect, details["redirect"])
		})
	}
}

func TestRouteGatePending(t *testing.T) {
	ledger := services.NewPaymentLedger(services.NewMemoryStore(), logrus.New(), nil)
	authz := services.NewAuthorizationService(ledger, config.GateConfig{}, nil, nil)

	r := gin.New()
	r.GET("/", func(c *gin.Context) { c.Set("session_loading", true) }, RouteGate(authz, services.RouteRule{AdminArea: true}), ok)
	assert.Equal(t, http.StatusAccepted, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestRequirePermission(t *testing.T) {
	r := gin.New()
	r.GET("/anon", RequirePermission(services.PermPayLicenses), ok)
	r.GET("/licensee", withUser(&models.User{ID: "l", Role: models.RoleLicensee}), RequirePermission(services.PermPayLicenses), ok)
	r.GET("/content", withUser(&models.User{ID: "c", Role: models.RoleAdmin, AdminType: models.AdminTypeContent}), RequirePermission(services.PermPayLicenses), ok)

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/anon", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/licensee", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, httptest.NewRequest(http.MethodGet, "/content", nil)).Code)
}

func TestSessionMiddleware(t *testing.T) {
	secret := "mw-secret"
	log, _ := test.NewNullLogger()
	sessions := services.NewSessionService(services.NewMemoryStore(), services.JWTDecoder{Secret: secret}, log, nil)

	token, err := utils.GenerateCredential(utils.CredentialClaims{UserID: "u1", Role: "artist"}, secret, time.Hour)
	require.NoError(t, err)
	session, err := sessions.Login(context.Background(), token, nil)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Session(sessions, log))
	r.GET("/", RequireSession(), func(c *gin.Context) {
		user, _ := utils.GetUserFromContext(c)
		id, _ := utils.GetSessionIDFromContext(c)
		c.String(http.StatusOK, user.ID+"|"+id)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, session.ID)
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1|"+session.ID, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session.ID})
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestRequestLoggerRecordsMetrics(t *testing.T) {
	log, hook := test.NewNullLogger()
	metrics := services.NewMetrics()

	r := gin.New()
	r.Use(RequestLogger(log, metrics))
	r.GET("/items/:id", ok)

	serve(r, httptest.NewRequest(http.MethodGet, "/items/7", nil))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "/items/7", hook.LastEntry().Data["path"])

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), `path="/items/:id"`)
}

func TestExtractResourceType(t *testing.T) {
	assert.Equal(t, "payments", extractResourceType("/v1/payments/verifications"))
	assert.Equal(t, "health", extractResourceType("/health"))
	assert.Equal(t, "unknown", extractResourceType("/"))
}
