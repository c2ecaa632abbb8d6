package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/rfagundes/zapblast/internal/config"
	"github.com/rfagundes/zapblast/internal/correlator"
	"github.com/rfagundes/zapblast/internal/gateway"
	"github.com/rfagundes/zapblast/internal/http/middleware"
	"github.com/rfagundes/zapblast/internal/metrics"
	"github.com/rfagundes/zapblast/internal/repository"
	"github.com/rfagundes/zapblast/internal/service/campaign"
	"github.com/rfagundes/zapblast/internal/service/verify"
	"github.com/rfagundes/zapblast/internal/stats"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client, gw gateway.Client) *Server {
	// repos (MySQL)
	campaignsRepo := repository.NewCampaignsRepository(mysqlDB)
	contactsRepo := repository.NewContactsRepository(mysqlDB)
	rowsRepo := repository.NewCampaignContactsRepository(mysqlDB)
	audiencesRepo := repository.NewAudiencesRepository(mysqlDB)
	instancesRepo := repository.NewInstancesRepository(mysqlDB)
	outboxRepo := repository.NewOutboxRepository(mysqlDB)

	// repos (ClickHouse)
	eventsRepo := repository.NewEventsRepository(clickhouseDB)

	// services
	campaignSvc := campaign.New(campaignsRepo, contactsRepo, rowsRepo, outboxRepo)
	verifySvc := verify.New(
		contactsRepo,
		audiencesRepo,
		instancesRepo,
		gw,
		cfg.Gateway.CountryCode,
		time.Duration(cfg.Verify.ProbeDelayMs)*time.Millisecond,
	)
	countersSvc := stats.NewService(campaignsRepo, rowsRepo)
	corr := correlator.New(rowsRepo, countersSvc, cfg.Gateway.StatusCodes)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.APIKeyMiddleware(cfg.Admin.APIKey)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		DefaultRPS:     cfg.RateLimit.RPS,
		KeyPrefix:      "rl:hook:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// webhook ingress: no API key (the gateway cannot send one), rate limited
	e.POST("/webhook/evolution", webhookHandler(instancesRepo, eventsRepo, corr), rlMW)

	// operator routes
	v1 := e.Group("/v1", authMW)
	v1.GET("/campaigns/:id", getCampaignHandler(campaignsRepo))
	v1.POST("/campaigns/:id/start", startCampaignHandler(campaignSvc))
	v1.POST("/campaigns/:id/pause", pauseCampaignHandler(campaignSvc))
	v1.POST("/campaigns/:id/cancel", cancelCampaignHandler(campaignSvc))

	v1.POST("/audiences/:id/verify", verifyAudienceHandler(verifySvc))

	v1.POST("/instances", createInstanceHandler(instancesRepo, gw, cfg.Gateway.WebhookURL))
	v1.GET("/instances/:name/connect", connectInstanceHandler(instancesRepo, gw))
	v1.GET("/instances/:name/status", instanceStatusHandler(instancesRepo, gw))
	v1.POST("/instances/:name/restart", restartInstanceHandler(gw))
	v1.POST("/instances/:name/logout", logoutInstanceHandler(gw))
	v1.DELETE("/instances/:name", deleteInstanceHandler(instancesRepo, gw))

	v1.GET("/reports/events", listEventsHandler(eventsRepo))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
