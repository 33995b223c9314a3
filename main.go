package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/itsneelabh/gomind/ai"
	_ "github.com/itsneelabh/gomind/ai/providers/gemini"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"cookiq/account"
	"cookiq/analytics"
	"cookiq/cache"
	"cookiq/client"
	"cookiq/common"
	"cookiq/database"
	"cookiq/email"
	"cookiq/server"
	"cookiq/shell"
	"cookiq/storage"
	"cookiq/store"
)

func main() {
	cfg := common.LoadConfig()

	mode := "serve"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	switch mode {
	case "serve":
		flush := common.InitLogger(cfg)
		defer flush()
		serve(cfg)
	case "shop":
		if cfg.LogLevel == "" {
			cfg.LogLevel = "warn"
		}
		flush := common.InitLogger(cfg)
		defer flush()
		shop(cfg)
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [serve|shop]\n", os.Args[0])
		os.Exit(2)
	}
}

func serve(cfg *common.Config) {
	if cfg.JWTSecret == "" {
		zap.S().Fatal("JWT_SECRET environment variable not set")
	}

	db := common.ConnectDb(cfg.SqliteDB)
	if db == nil {
		zap.S().Fatal("Failed to connect to database")
	}
	if err := database.RunMigrations(db); err != nil {
		zap.S().Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		zap.S().Fatalf("Failed to seed admin account: %v", err)
	}

	responseCache := cache.New(cfg.CacheDir, cfg.CacheTTL)

	router := gin.Default()
	srv := server.New(router, server.Deps{
		DB:        db,
		Guard:     account.NewGuard(cfg.JWTSecret, cfg.JWTTTL),
		Cache:     responseCache,
		Analytics: analytics.NewAnalyticsModule(common.ConnectAnalyticsDb(cfg.AnalyticsDB)),
		Mailer:    email.NewEmailService(cfg),
		UploadDir: cfg.UploadDir,
		PublicURL: cfg.PublicURL,
	})

	sched := cron.New()
	if err := srv.Schedule(sched); err != nil {
		zap.S().Fatalf("Failed to schedule jobs: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	zap.S().Infof("Starting server on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		zap.S().Fatalf("Failed to start server: %v", err)
	}
}

func shop(cfg *common.Config) {
	durable, err := storage.Open(cfg.ClientDB)
	if err != nil {
		zap.S().Fatalf("Failed to open %s: %v", cfg.ClientDB, err)
	}
	defer durable.Close()

	api := client.New(cfg.APIURL,
		client.WithTimeout(cfg.APITimeout),
		client.WithTokenSource(func() string {
			token, _ := durable.Get(storage.KeyToken)
			return token
		}),
	)

	var opts []store.Option
	if cfg.GeminiAPIKey != "" {
		writer, err := ai.NewClient(
			ai.WithProvider("gemini"),
			ai.WithAPIKey(cfg.GeminiAPIKey),
			ai.WithModel(cfg.GeminiModel),
		)
		if err != nil {
			zap.S().Warnf("AI drafting disabled: %v", err)
		} else {
			opts = append(opts, store.WithWriter(writer))
		}
	}

	st := store.New(api, durable, opts...)
	api.OnUnauthorized(st.HandleUnauthorized)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st.Init(ctx)
	if id := st.Identity(); id != nil {
		fmt.Printf("signed in as %s\n", id.Name)
	}
	fmt.Printf("%d products loaded, type help for commands\n", len(st.Products()))

	if err := shell.New(st, os.Stdout).Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		zap.S().Errorf("shell stopped: %v", err)
	}
}
