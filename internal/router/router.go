// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/config"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/handlers"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/middleware"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
)

// Services is the wired service graph behind the HTTP API.
type Services struct {
	Config   *config.Config
	Logger   logrus.FieldLogger
	Metrics  *services.Metrics
	Sessions *services.SessionService
	Authz    *services.AuthorizationService
	Ledger   *services.PaymentLedger
	Payments *services.PaymentService
	Admin    *services.AdminService
	Licenses *services.LicenseService
	Publish  *services.PublishService
	Audit    *services.AuditService
	API      *services.APIClient
	Chain    *services.SimulatedChain
}

// BuildServices wires every service over store. db may be nil, in which
// case audit entries are only logged.
func BuildServices(cfg *config.Config, store services.KeyValueStore, db *gorm.DB, logger logrus.FieldLogger, metrics *services.Metrics) (*Services, error) {
	ledger := services.NewPaymentLedger(store, logger.WithField("component", "ledger"), metrics)
	audit := services.NewAuditService(db, logger.WithField("component", "audit"))

	certifier, err := services.NewCertificateService(cfg.AWS, logger.WithField("component", "certificates"))
	if err != nil {
		return nil, err
	}

	var (
		chain    *services.SimulatedChain
		provider services.WalletProvider
		contract services.ContractCaller
	)
	if cfg.Blockchain.Network == "simulated" {
		chain = services.NewSimulatedChain(cfg.Blockchain, logger.WithField("component", "chain"))
		provider, contract = chain, chain
	}

	sessions := services.NewSessionService(store, services.JWTDecoder{Secret: cfg.JWT.SecretKey}, logger.WithField("component", "session"), metrics)
	publish := services.NewPublishService(provider, contract, certifier, cfg.Blockchain.ConfirmTimeout, logger.WithField("component", "publish"), metrics)
	sessions.OnExpire(publish.Drop)

	return &Services{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		Sessions: sessions,
		Authz:    services.NewAuthorizationService(ledger, cfg.Gate, nil, metrics),
		Ledger:   ledger,
		Payments: services.NewPaymentService(cfg.Payment, ledger, audit, logger.WithField("component", "payments")),
		Admin:    services.NewAdminService(ledger, audit, logger.WithField("component", "admin")),
		Licenses: services.NewLicenseService(audit, logger.WithField("component", "licenses")),
		Publish:  publish,
		Audit:    audit,
		API:      services.NewAPIClient(cfg.API, nil, logger.WithField("component", "api")),
		Chain:    chain,
	}, nil
}

func adminArea(permission services.Permission) services.RouteRule {
	return services.RouteRule{AdminArea: true, Permission: permission}
}

func Initialize(svc *Services) *gin.Engine {
	cfg := svc.Config
	api := handlers.SessionAPI(svc.API, svc.Sessions)

	var verifier handlers.RecordVerifier
	if svc.Chain != nil {
		verifier = svc.Chain
	}

	sessionHandler := handlers.NewSessionHandler(svc.Sessions, svc.Authz, svc.Publish, cfg.IsProduction())
	gateHandler := handlers.NewGateHandler(svc.Authz, svc.Logger)
	paymentHandler := handlers.NewPaymentHandler(svc.Ledger, svc.Payments, svc.Admin, api)
	publishHandler := handlers.NewPublishHandler(svc.Publish, api)
	licenseHandler := handlers.NewLicenseHandler(svc.Licenses, api)
	verificationHandler := handlers.NewVerificationHandler(verifier)
	adminHandler := handlers.NewAdminHandler(svc.Admin, api)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(svc.Logger, svc.Metrics))
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.Session(svc.Sessions, svc.Logger))
	r.Use(middleware.AuditMutations(svc.Audit))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"version":  "1.0.0",
			"payments": svc.Ledger.Len(),
		})
	})
	r.GET("/metrics", gin.WrapH(svc.Metrics.Handler()))

	v1 := r.Group("/v1")
	{
		session := v1.Group("/session")
		{
			session.POST("/login", middleware.SessionRateLimit(), sessionHandler.Login)
			session.POST("/logout", sessionHandler.Logout)
			session.GET("", middleware.RequireSession(), sessionHandler.Me)
		}

		gate := v1.Group("/gate")
		{
			gate.POST("/route", gateHandler.CheckRoute)
			gate.GET("/payment/:type/:id", middleware.RequireSession(), gateHandler.CheckPayment)
		}

		v1.GET("/verify/:hash", verificationHandler.VerifyTransaction)

		authed := v1.Group("")
		authed.Use(middleware.RequireSession())
		{
			payments := authed.Group("/payments")
			{
				payments.POST("/registration", middleware.RequirePermission(services.PermUploadTracks), paymentHandler.CreateRegistrationPayment)
				payments.POST("/license", middleware.RequirePermission(services.PermPayLicenses), paymentHandler.CreateLicensePayment)
				payments.POST("/confirm", paymentHandler.ConfirmPayment)

				verifications := payments.Group("/verifications")
				verifications.GET("", middleware.RouteGate(svc.Authz, adminArea(services.PermViewPayments)), paymentHandler.ListVerifications)
				verifications.GET("/:type/:id", middleware.RouteGate(svc.Authz, adminArea(services.PermViewPayments)), paymentHandler.GetVerification)
				verifications.PUT("", middleware.RouteGate(svc.Authz, adminArea(services.PermVerifyPayments)), paymentHandler.RecordPayment)
				verifications.PATCH("/:type/:id/status", middleware.RouteGate(svc.Authz, adminArea(services.PermVerifyPayments)), paymentHandler.ReviewPayment)
			}

			tracks := authed.Group("/tracks")
			tracks.Use(middleware.RequirePermission(services.PermRequestLicenses))
			{
				tracks.GET("/:id/license-eligibility", licenseHandler.GetEligibility)
				tracks.POST("/:id/licenses", licenseHandler.SubmitRequest)
			}

			wallet := authed.Group("/wallet")
			wallet.Use(middleware.RouteGate(svc.Authz, adminArea("")))
			{
				wallet.GET("", publishHandler.GetWallet)
				wallet.POST("/connect", publishHandler.ConnectWallet)
				wallet.DELETE("", publishHandler.DisconnectWallet)
			}

			publish := authed.Group("/publish")
			publish.Use(middleware.RouteGate(svc.Authz, adminArea("")))
			{
				publish.GET("/status", publishHandler.Status)
				publish.DELETE("", publishHandler.Close)
				publish.POST("/copyrights/:id", middleware.PublishRateLimit(), publishHandler.PublishCopyright)
				publish.POST("/transfers/:id", middleware.PublishRateLimit(), publishHandler.PublishTransfer)
			}

			admin := authed.Group("/admin")
			admin.Use(middleware.RouteGate(svc.Authz, adminArea("")))
			{
				admin.PATCH("/users/:id/status", middleware.RouteGate(svc.Authz, adminArea(services.PermManageUsers)), adminHandler.UpdateUserStatus)
				admin.GET("/audit-logs", middleware.RouteGate(svc.Authz, adminArea(services.PermViewAuditLogs)), adminHandler.GetAuditLogs)
				admin.GET("/settings", adminHandler.GetSettings)
			}
		}
	}

	return r
}
