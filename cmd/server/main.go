package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"export_stats_bot/internal/app"
	"export_stats_bot/internal/domain/chat"
	"export_stats_bot/internal/domain/export"
	"export_stats_bot/internal/infra/cache"
	"export_stats_bot/internal/infra/config"
	idb "export_stats_bot/internal/infra/database"
	"export_stats_bot/internal/infra/events"
	"export_stats_bot/internal/infra/httpapi"
	"export_stats_bot/internal/infra/httpclient"
	"export_stats_bot/internal/infra/imgflip"
	"export_stats_bot/internal/infra/logger"
	"export_stats_bot/internal/infra/scheduler"
	"export_stats_bot/internal/infra/slack"
	"export_stats_bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("Export Stats Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Port: %s", cfg.LogLevel, cfg.Environment, cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Database Connection Pool
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL, idb.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	exportRepo := idb.NewPostgresExportRepository(db, cfg.TableName)
	if err := exportRepo.EnsureSchema(ctx); err != nil {
		mainLogger.WithError(err).Fatal("Could not ensure export schema")
	}
	mainLogger.WithField("table", cfg.TableName).Info("Export repository initialized.")

	outbound := httpclient.New(cfg.OutboundTimeout)

	// Optional event publishing
	var publisher export.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		mainLogger.WithField("topic", cfg.KafkaTopic).Info("Kafka event publisher initialized.")
	}

	recorder := app.NewRecorder(exportRepo, publisher, logger.Component("recorder"))
	statsService := app.NewStatsService(exportRepo)

	// Meme service: optional caption cache and captioning credentials
	var captionCache app.CaptionCache
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			mainLogger.WithError(err).Warn("Redis unavailable, meme captions will not be cached")
		} else {
			defer redisClient.Close()
			captionCache = cache.NewRedisCaptionCache(redisClient, cfg.MemeCacheTTL)
			mainLogger.Info("Redis caption cache initialized.")
		}
	}

	var captioner app.Captioner
	if cfg.ImgflipLogin != "" {
		captioner = imgflip.NewClient(outbound, cfg.ImgflipAPIURL, cfg.ImgflipLogin, cfg.ImgflipPassword)
	} else {
		mainLogger.Warn("IMGFLIP_LOGIN not set, streaks beyond the meme pool will fail")
	}

	memePool := app.DefaultMemePool
	if cfg.MemePoolFile != "" {
		memePool, err = config.LoadMemePool(cfg.MemePoolFile)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not load meme pool")
		}
	}
	memeService := app.NewMemeService(statsService, memePool, captioner, captionCache, logger.Component("meme"))

	windows := make([]app.Window, 0, len(cfg.StatsWindows))
	for _, w := range cfg.StatsWindows {
		windows = append(windows, app.Window{Name: w.Name, Size: w.Size})
	}

	// Optional Telegram bot: announcements plus read-only commands
	var announcer chat.Announcer
	var bot *telebot.Bot
	if cfg.TelegramToken != "" {
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				logger.Component("telegram").WithError(err).Error("telebot error")
			},
		})
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		announcer = telegram.NewTelebotAnnouncer(bot, cfg.TelegramChatID)
		telegram.RegisterBotCommands(ctx, bot, telegram.CommandDeps{
			Stats:     statsService,
			Windows:   windows,
			ReportURL: cfg.ReportURL,
			Now:       time.Now,
		}, logger.Component("telegram"))
		go bot.Start()
		mainLogger.Info("Telegram bot started.")
	}

	responder := slack.NewResponder(outbound)
	interactions := app.NewInteractionService(recorder, responder, announcer, cfg.ReportURL, logger.Component("interactions"))

	// Optional daily prompt
	var promptScheduler *scheduler.PromptScheduler
	if cfg.PromptWebhookURL != "" {
		prompts := app.NewPromptService(responder, cfg.PromptWebhookURL, time.Now, logger.Component("prompt"))
		promptScheduler = scheduler.NewPromptScheduler(prompts, logger.Component("scheduler"), cfg.CronSpecPrompt)
		if err := promptScheduler.Start(); err != nil {
			mainLogger.WithError(err).Fatal("Could not start prompt scheduler")
		}
	}

	handler := httpapi.NewHandler(statsService, memeService, interactions, httpapi.Options{
		Windows:         windows,
		MaxBodyBytes:    cfg.MaxRequestBodyBytes,
		FollowUpTimeout: 3 * cfg.OutboundTimeout,
		Now:             time.Now,
	}, logger.Component("http"))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		mainLogger.WithField("port", cfg.Port).Info("HTTP server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			mainLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	if promptScheduler != nil {
		promptScheduler.Stop()
	}
	if bot != nil {
		bot.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Error("Server forced to shutdown")
	}
	handler.Wait()  // Let pending follow-up messages finish
	recorder.Wait() // and the events they published
	cancel()

	mainLogger.Info("Application shut down gracefully.")
}
