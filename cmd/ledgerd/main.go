package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recurring_ledger/internal/app"
	"recurring_ledger/internal/domain/ledger"
	"recurring_ledger/internal/domain/recurrence"
	"recurring_ledger/internal/domain/runmarker"
	"recurring_ledger/internal/infra/config"
	idb "recurring_ledger/internal/infra/database"
	"recurring_ledger/internal/infra/lease"
	"recurring_ledger/internal/infra/logger"
	"recurring_ledger/internal/infra/memory"
	"recurring_ledger/internal/infra/scheduler"
	"recurring_ledger/internal/infra/telegram"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	baseLogger := logger.Component("ledgerd")

	mainLogger.WithFields(logrus.Fields{
		"storage":    cfg.StorageBackend,
		"run_marker": cfg.RunMarkerBackend,
		"bot":        cfg.BotEnabled(),
	}).Info("Configuration loaded")

	policy, err := app.ParseWatermarkPolicy(cfg.WatermarkPolicy)
	if err != nil {
		mainLogger.WithError(err).Fatal("Invalid WATERMARK_POLICY")
	}

	ctx := context.Background()

	// Ledger and schedules
	var (
		ledgerStore   ledger.Store
		scheduleStore recurrence.ScheduleStore
	)
	switch cfg.StorageBackend {
	case config.StorageBackendPostgres:
		db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to database")
		}
		defer db.Close()
		ledgerStore = idb.NewPostgresLedgerStore(db)
		scheduleStore = idb.NewPostgresScheduleStore(db)
		mainLogger.Info("Postgres stores initialized")
	default:
		ledgerStore = memory.NewLedgerStore()
		scheduleStore = memory.NewScheduleStore()
		mainLogger.Warn("Using in-memory stores, nothing will survive a restart")
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = idb.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to Redis")
		}
		defer redisClient.Close()
		mainLogger.WithField("addr", cfg.RedisAddr).Info("Redis connection established")
	}

	// Run marker
	var markers runmarker.Store
	switch cfg.RunMarkerBackend {
	case config.RunMarkerBackendRedis:
		markers = idb.NewRedisRunMarkerStore(redisClient)
	case config.RunMarkerBackendSQLite:
		var sqliteDB *sql.DB
		sqliteDB, err = idb.NewSQLiteConnection(cfg.RunMarkerSQLitePath)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not open run marker database")
		}
		defer sqliteDB.Close()
		markers, err = idb.NewSQLiteRunMarkerStore(sqliteDB)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not prepare run marker store")
		}
	default:
		markers = memory.NewRunMarkerStore()
	}

	// Batch lease
	var locker runmarker.Locker = lease.NewMemoryLocker()
	if redisClient != nil {
		locker = lease.NewRedisLocker(redisClient)
	}

	gate := app.NewGate(markers, scheduleStore, time.Now, baseLogger)
	ruleProcessor := app.NewRuleProcessor(ledgerStore, scheduleStore, policy, baseLogger)
	savingsProcessor := app.NewSavingsProcessor(ledgerStore, scheduleStore, policy, baseLogger)
	batchService := app.NewBatchService(
		scheduleStore,
		markers,
		locker,
		gate,
		ruleProcessor,
		savingsProcessor,
		cfg.LeaseTTL,
		time.Now,
		baseLogger,
	)
	mainLogger.WithField("policy", policy).Info("Batch service initialized")

	// Telegram bot (optional)
	var (
		bot      *telebot.Bot
		notifier scheduler.ResultNotifier
	)
	if cfg.BotEnabled() {
		pref := telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				errLogger := baseLogger.WithError(err).WithField("component", "telebot")
				if c != nil && c.Sender() != nil && c.Chat() != nil {
					errLogger = errLogger.WithFields(logrus.Fields{
						"message":   c.Text(),
						"sender_id": c.Sender().ID,
						"chat_id":   c.Chat().ID,
					})
				}
				errLogger.Error("Telegram handler failed")
			},
		}
		bot, err = telebot.NewBot(pref)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		telegram.RegisterBotCommands(bot, cfg, baseLogger)
		telegram.RegisterLedgerHandlers(ctx, bot, batchService, cfg.OwnerID, cfg.AdminTelegramID, cfg.UpcomingDaysDefault, baseLogger)
		notifier = telegram.NewSummaryNotifier(telegram.NewTelebotAdapter(bot), cfg.AdminTelegramID, baseLogger)
		mainLogger.Info("Telegram command handlers registered")
	}

	batchScheduler := scheduler.NewBatchScheduler(batchService, notifier, cfg.OwnerID, cfg.CronSpecBatch, baseLogger)
	batchScheduler.RunOnce()
	if err := batchScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start batch scheduler")
	}

	if bot != nil {
		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
	}
	mainLogger.Info("Application setup complete")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	batchScheduler.Stop()
	if bot != nil {
		bot.Stop()
	}
	mainLogger.Info("Application shut down gracefully")
}
