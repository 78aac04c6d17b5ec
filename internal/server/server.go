package server

import (
	"context"
	"net/http"
	"time"

	"github.com/closebytel/closeby/internal/analytics"
	"github.com/closebytel/closeby/internal/auth"
	authdomain "github.com/closebytel/closeby/internal/auth/domain"
	"github.com/closebytel/closeby/internal/auth/session"
	"github.com/closebytel/closeby/internal/billing"
	billingdomain "github.com/closebytel/closeby/internal/billing/domain"
	"github.com/closebytel/closeby/internal/config"
	"github.com/closebytel/closeby/internal/feedback"
	feedbackdomain "github.com/closebytel/closeby/internal/feedback/domain"
	"github.com/closebytel/closeby/internal/observability"
	"github.com/closebytel/closeby/internal/onboarding"
	onboardingdomain "github.com/closebytel/closeby/internal/onboarding/domain"
	"github.com/closebytel/closeby/internal/quota"
	quotadomain "github.com/closebytel/closeby/internal/quota/domain"
	"github.com/closebytel/closeby/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	auth.Module,
	billing.Module,
	quota.Module,
	onboarding.Module,
	feedback.Module,
	analytics.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *observability.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.TracingMiddleware())
	r.Use(httpMetrics.Middleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", httpMetrics.Handler())

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	sessions      *session.Manager
	authSvc       authdomain.Service
	billingSvc    billingdomain.Service
	quotaSvc      quotadomain.Service
	onboardingSvc onboardingdomain.Service
	feedbackSvc   feedbackdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Sessions      *session.Manager
	AuthSvc       authdomain.Service
	BillingSvc    billingdomain.Service
	QuotaSvc      quotadomain.Service
	OnboardingSvc onboardingdomain.Service
	FeedbackSvc   feedbackdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		sessions:      p.Sessions,
		authSvc:       p.AuthSvc,
		billingSvc:    p.BillingSvc,
		quotaSvc:      p.QuotaSvc,
		onboardingSvc: p.OnboardingSvc,
		feedbackSvc:   p.FeedbackSvc,
	}

	s.registerRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/code", s.RequestCode)
	authGroup.POST("/verify", s.VerifyCode)
	authGroup.POST("/logout", s.Logout)
	authGroup.GET("/self", s.AuthRequired(), s.Self)
	authGroup.PATCH("/self", s.AuthRequired(), s.UpdateSelf)
	authGroup.POST("/developer", s.AuthRequired(), s.SetDeveloperMode)

	v1.GET("/quotas/:billingPeriodID", s.AuthRequired(), s.GetQuotas)
	v1.POST("/quotas/consume", s.AuthRequired(), s.ConsumeQuota)

	v1.GET("/onboarding", s.AuthRequired(), s.GetOnboarding)
	v1.POST("/onboarding/steps/:step", s.AuthRequired(), s.CompleteOnboardingStep)
	v1.DELETE("/onboarding", s.AuthRequired(), s.ResetOnboarding)

	v1.POST("/feedbacks", s.AuthRequired(), s.SendFeedback)

	v1.GET("/billing/subscription", s.AuthRequired(), s.GetSubscription)

	s.engine.POST("/webhooks/stripe", s.HandleStripeWebhook)
}
