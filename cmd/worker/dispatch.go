package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rfagundes/zapblast/internal/config"
	"github.com/rfagundes/zapblast/internal/db"
	"github.com/rfagundes/zapblast/internal/gateway"
	"github.com/rfagundes/zapblast/internal/kafka"
	"github.com/rfagundes/zapblast/internal/lock"
	"github.com/rfagundes/zapblast/internal/logger"
	"github.com/rfagundes/zapblast/internal/metrics"
	"github.com/rfagundes/zapblast/internal/repository"
	"github.com/rfagundes/zapblast/internal/service/campaign"
	"github.com/rfagundes/zapblast/internal/stats"
	"github.com/rfagundes/zapblast/internal/worker"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run the campaign dispatch worker",
	RunE:  runDispatch,
}

func runDispatch(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) DB connection (MySQL)
	dbx, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
		PingTimeout:     cfg.MySQL.PingTimeout,
	})
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}
	defer dbx.Close()

	// 3) repositories
	campaignsRepo := repository.NewCampaignsRepository(dbx)
	instancesRepo := repository.NewInstancesRepository(dbx)
	rowsRepo := repository.NewCampaignContactsRepository(dbx)
	countersSvc := stats.NewService(campaignsRepo, rowsRepo)

	// 4) run lock: redis when configured, in-process otherwise
	var locker lock.Locker
	if cfg.Redis.Addr != "" {
		redisClient, err := db.NewRedisClient(db.RedisOpts{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
		locker = lock.NewRedisLocker(redisClient)
	} else {
		log.Println(">> no redis configured, using in-process lock (single worker only)")
		locker = lock.NewMemoryLocker()
	}

	// 5) gateway client
	gw := gateway.NewEvolutionClient(
		cfg.Gateway.BaseURL,
		cfg.Gateway.APIKey,
		cfg.Gateway.TimeoutMs,
		cfg.Gateway.Breaker.FailThreshold,
		cfg.Gateway.Breaker.OpenForMs,
	)

	// 6) kafka consumer on the dispatch topic
	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "zapblast-dispatch"
	}
	consumer := kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          campaign.DispatchTopic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	runner := worker.NewRunner(
		campaignsRepo,
		instancesRepo,
		rowsRepo,
		countersSvc,
		gw,
		locker,
		cfg.Dispatch.LockTTL,
		cfg.Gateway.CountryCode,
	)
	d := worker.NewDispatcher(consumer, runner)

	// 7) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf(">> dispatch worker started topic=%s group=%s lockTTL=%s",
		campaign.DispatchTopic, groupID, cfg.Dispatch.LockTTL)

	return d.Run(ctx)
}
