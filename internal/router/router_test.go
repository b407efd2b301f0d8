package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/config"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/i18n"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/middleware"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

const routerSecret = "router-test-secret"

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

type RouterTestSuite struct {
	suite.Suite
	svc    *Services
	router *gin.Engine
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize("en"))
}

func (suite *RouterTestSuite) SetupTest() {
	cfg := &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: routerSecret},
		Blockchain: config.BlockchainConfig{
			Network:         "simulated",
			ContractAddress: "0x00000000000000000000000000000000000c0de1",
			AccountAddress:  "0x00000000000000000000000000000000000a11ce",
			ConfirmTimeout:  time.Second,
		},
		API:      config.APIConfig{BaseURL: "http://127.0.0.1:1/api", Timeout: time.Second},
		Gate:     config.GateConfig{DefaultAdminHome: "/admin", ArtistVerificationPrefix: "artist-verification-", ExcludeArtistVerification: true},
		I18n:     config.I18nConfig{DefaultLocale: "en"},
		Frontend: config.FrontendConfig{BaseURL: "http://localhost:3000"},
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc, err := BuildServices(cfg, services.NewMemoryStore(), nil, logger, services.NewMetrics())
	suite.Require().NoError(err)
	suite.svc = svc
	suite.router = Initialize(svc)
}

func (suite *RouterTestSuite) do(method, path, session string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(middleware.SessionHeader, session)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var resp apiResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func (suite *RouterTestSuite) login(claims utils.CredentialClaims) string {
	return suite.loginWithProfile(claims, nil)
}

func (suite *RouterTestSuite) loginWithProfile(claims utils.CredentialClaims, profile gin.H) string {
	token, err := utils.GenerateCredential(claims, routerSecret, time.Hour)
	suite.Require().NoError(err)

	body := gin.H{"token": token}
	if profile != nil {
		body["user"] = profile
	}
	w, resp := suite.do(http.MethodPost, "/v1/session/login", "", body)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Session struct {
			SessionID string `json:"sessionId"`
		} `json:"session"`
	}
	suite.Require().NoError(json.Unmarshal(resp.Data, &data))
	suite.Require().NotEmpty(data.Session.SessionID)
	return data.Session.SessionID
}

func (suite *RouterTestSuite) TestHealthAndMetrics() {
	w, _ := suite.do(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)

	w, _ = suite.do(http.MethodGet, "/metrics", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "http_requests_total")
}

func (suite *RouterTestSuite) TestSessionLifecycle() {
	w, resp := suite.do(http.MethodPost, "/v1/session/login", "", gin.H{"token": "not-a-jwt"})
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.False(resp.Success)

	id := suite.login(utils.CredentialClaims{UserID: "u1", Role: "admin", AdminType: "financial"})

	w, resp = suite.do(http.MethodGet, "/v1/session", id, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var view struct {
		User        map[string]interface{} `json:"user"`
		Permissions []string               `json:"permissions"`
		AdminHome   string                 `json:"adminHome"`
	}
	suite.Require().NoError(json.Unmarshal(resp.Data, &view))
	suite.Equal("financial", view.User["adminType"])
	suite.Contains(view.Permissions, "verifyPayments")
	suite.NotEmpty(view.AdminHome)

	w, _ = suite.do(http.MethodPost, "/v1/session/logout", id, nil)
	suite.Equal(http.StatusOK, w.Code)

	w, _ = suite.do(http.MethodGet, "/v1/session", id, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *RouterTestSuite) TestRouteGateDecisions() {
	_, resp := suite.do(http.MethodPost, "/v1/gate/route", "", gin.H{"path": "/artist/upload"})
	suite.JSONEq(`{"outcome":"redirect_login","target":"/login"}`, string(resp.Data))

	licensee := suite.login(utils.CredentialClaims{UserID: "l1", Role: "licensee"})
	_, resp = suite.do(http.MethodPost, "/v1/gate/route", licensee, gin.H{"path": "/admin/payments"})
	suite.Contains(string(resp.Data), `"redirect_not_found"`)

	_, resp = suite.do(http.MethodPost, "/v1/gate/route", licensee, gin.H{"path": "/about"})
	suite.JSONEq(`{"outcome":"allow"}`, string(resp.Data))
}

func (suite *RouterTestSuite) TestPaymentVerificationFlow() {
	financial := suite.login(utils.CredentialClaims{UserID: "f1", Role: "admin", AdminType: "financial"})
	content := suite.login(utils.CredentialClaims{UserID: "c1", Role: "admin", AdminType: "content"})
	artist := suite.login(utils.CredentialClaims{UserID: "a1", Role: "artist"})

	// artists are not admins, so the admin area does not exist for them
	w, _ := suite.do(http.MethodGet, "/v1/payments/verifications", artist, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	// other admins are sent back to their own home
	w, resp := suite.do(http.MethodGet, "/v1/payments/verifications", content, nil)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Require().NotNil(resp.Error)
	suite.NotEmpty(resp.Error.Details["redirect"])

	_, resp = suite.do(http.MethodGet, "/v1/gate/payment/track/t1", artist, nil)
	suite.Contains(string(resp.Data), `"payment_required"`)

	w, _ = suite.do(http.MethodPut, "/v1/payments/verifications", financial, gin.H{
		"entityId": "t1", "entityType": "track", "paid": true, "amount": 25,
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	_, resp = suite.do(http.MethodGet, "/v1/gate/payment/track/t1", artist, nil)
	suite.Contains(string(resp.Data), `"pending"`)

	w, _ = suite.do(http.MethodPatch, "/v1/payments/verifications/track/t1/status", financial, gin.H{"status": "verified"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	_, resp = suite.do(http.MethodGet, "/v1/gate/payment/track/t1", artist, nil)
	suite.Contains(string(resp.Data), `"content"`)

	w, _ = suite.do(http.MethodPatch, "/v1/payments/verifications/track/t1/status", financial, gin.H{"status": "rejected"})
	suite.Equal(http.StatusConflict, w.Code)

	w, resp = suite.do(http.MethodGet, "/v1/payments/verifications?status=verified", financial, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("1", w.Header().Get("X-Total-Count"))
	suite.True(strings.Contains(string(resp.Data), `"t1"`))

	w, _ = suite.do(http.MethodGet, "/v1/gate/payment/song/t1", artist, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestProfileCannotRaiseCredentialRole() {
	licensee := suite.loginWithProfile(
		utils.CredentialClaims{UserID: "lic1", Role: "licensee"},
		gin.H{"role": "admin", "adminType": "financial"},
	)

	w, resp := suite.do(http.MethodGet, "/v1/session", licensee, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var view struct {
		User        map[string]interface{} `json:"user"`
		Permissions []string               `json:"permissions"`
	}
	suite.Require().NoError(json.Unmarshal(resp.Data, &view))
	suite.Equal("licensee", view.User["role"])
	suite.Nil(view.User["adminType"])
	suite.NotContains(view.Permissions, "verifyPayments")

	w, _ = suite.do(http.MethodGet, "/v1/payments/verifications", licensee, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w, _ = suite.do(http.MethodPut, "/v1/payments/verifications", licensee, gin.H{
		"entityId": "t9", "entityType": "track", "paid": false, "verificationStatus": "verified",
	})
	suite.Equal(http.StatusNotFound, w.Code)

	_, resp = suite.do(http.MethodGet, "/v1/gate/payment/track/t9", licensee, nil)
	suite.Contains(string(resp.Data), `"payment_required"`)
}

func (suite *RouterTestSuite) TestRecordPaymentCannotSetVerification() {
	financial := suite.login(utils.CredentialClaims{UserID: "f1", Role: "admin", AdminType: "financial"})
	artist := suite.login(utils.CredentialClaims{UserID: "a1", Role: "artist"})

	w, resp := suite.do(http.MethodPut, "/v1/payments/verifications", financial, gin.H{
		"entityId": "t9", "entityType": "track", "paid": false, "verificationStatus": "verified",
	})
	suite.Equal(http.StatusConflict, w.Code)
	suite.Require().NotNil(resp.Error)
	suite.Equal("INVALID_TRANSITION", resp.Error.Code)

	_, resp = suite.do(http.MethodGet, "/v1/gate/payment/track/t9", artist, nil)
	suite.Contains(string(resp.Data), `"payment_required"`)

	w, resp = suite.do(http.MethodPut, "/v1/payments/verifications", financial, gin.H{
		"entityId": "t9", "entityType": "track", "paid": false,
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(string(resp.Data), `"verificationStatus":"pending"`)

	w, resp = suite.do(http.MethodPatch, "/v1/payments/verifications/track/t9/status", financial, gin.H{"status": "verified"})
	suite.Equal(http.StatusConflict, w.Code)
	suite.Require().NotNil(resp.Error)
	suite.Equal("PAYMENT_UNPAID", resp.Error.Code)
}

func (suite *RouterTestSuite) TestArtistVerificationBypass() {
	artist := suite.login(utils.CredentialClaims{UserID: "a1", Role: "artist"})

	_, resp := suite.do(http.MethodGet, "/v1/gate/payment/track/artist-verification-a1", artist, nil)
	suite.Contains(string(resp.Data), `"bypass":true`)
}

func (suite *RouterTestSuite) TestPublishRequiresWallet() {
	technical := suite.login(utils.CredentialClaims{UserID: "t1", Role: "admin", AdminType: "technical"})
	licensee := suite.login(utils.CredentialClaims{UserID: "l1", Role: "licensee"})

	w, _ := suite.do(http.MethodPost, "/v1/publish/copyrights/track-1", licensee, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w, resp := suite.do(http.MethodPost, "/v1/publish/copyrights/track-1", technical, nil)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Require().NotNil(resp.Error)
	suite.Equal("WALLET_NOT_CONNECTED", resp.Error.Code)

	w, resp = suite.do(http.MethodPost, "/v1/wallet/connect", technical, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(string(resp.Data), suite.svc.Config.Blockchain.AccountAddress)

	_, resp = suite.do(http.MethodGet, "/v1/publish/status", technical, nil)
	suite.Contains(string(resp.Data), `"init"`)
}

func (suite *RouterTestSuite) TestAdminRoutes() {
	super := suite.login(utils.CredentialClaims{UserID: "s1", Role: "admin", AdminType: "super"})
	content := suite.login(utils.CredentialClaims{UserID: "c1", Role: "admin", AdminType: "content"})

	w, _ := suite.do(http.MethodGet, "/v1/admin/audit-logs", super, nil)
	suite.Equal(http.StatusOK, w.Code)

	w, _ = suite.do(http.MethodGet, "/v1/admin/audit-logs", content, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w, _ = suite.do(http.MethodPatch, "/v1/admin/users/s1/status", super, gin.H{"status": "banned"})
	suite.Equal(http.StatusConflict, w.Code)

	w, _ = suite.do(http.MethodPatch, "/v1/admin/users/u2/status", super, gin.H{"status": "frozen"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestVerifyUnknownHash() {
	w, resp := suite.do(http.MethodGet, "/v1/verify/0xdeadbeef", "", nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Require().NotNil(resp.Error)
	suite.Equal("Blockchain record not found", resp.Error.Message)
}
