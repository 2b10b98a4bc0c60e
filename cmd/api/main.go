package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/config"
	"github.com/ASHISH26940/video-studio-api/pkg/db"
	"github.com/ASHISH26940/video-studio-api/pkg/db/queries"
	"github.com/ASHISH26940/video-studio-api/pkg/export"
	"github.com/ASHISH26940/video-studio-api/pkg/genclient"
	"github.com/ASHISH26940/video-studio-api/pkg/handlers"
	"github.com/ASHISH26940/video-studio-api/pkg/llm"
	"github.com/ASHISH26940/video-studio-api/pkg/media"
	"github.com/ASHISH26940/video-studio-api/pkg/middleware"
	"github.com/ASHISH26940/video-studio-api/pkg/pipeline"
	"github.com/ASHISH26940/video-studio-api/pkg/progress"
	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus" // Structured logger
)

func main() {
	log.SetOutput(gin.DefaultWriter)
	log.SetLevel(log.InfoLevel)
	log.SetFormatter(&log.JSONFormatter{})
	log.Info("Starting Video Studio API...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if err := db.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		cancelMigrate()
		log.Fatalf("Failed to migrate database: %v", err)
	}
	cancelMigrate()

	// The chat backend is picked by LLM_PROVIDER. Missing keys only fail the
	// requests that need them.
	var chat genclient.ChatProvider
	if err := cfg.RequireLLM(); err != nil {
		log.Warnf("Chat completions disabled until configured: %v", err)
	}
	if cfg.LLM.Provider == "gemini" && cfg.LLM.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiService(context.Background(), cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
		if err != nil {
			log.Fatalf("Failed to initialize LLM client: %v", err)
		}
		defer gemini.Close()
		chat = gemini
	} else {
		chat = genclient.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, nil)
	}

	gen := genclient.NewClient(genclient.Config{
		ArkAPIKey:     cfg.Ark.APIKey,
		ArkBaseURL:    cfg.Ark.BaseURL,
		ImageModel:    cfg.Ark.ImageModel,
		VideoModel:    cfg.Ark.VideoModel,
		SpeechAppID:   cfg.Speech.AppID,
		SpeechToken:   cfg.Speech.Token,
		SpeechCluster: cfg.Speech.Cluster,
	},
		genclient.WithChatProvider(chat),
		genclient.WithImageRateLimit(cfg.Limits.ImageRPM, 2),
		genclient.WithSpeechRateLimit(cfg.Limits.SpeechRPM, 1),
	)

	runner := media.ExecRunner{}
	prober := media.NewProber(runner, cfg.Media.FFprobePath)
	fetcher := media.NewFetcher(nil)
	store := queries.NewStore()

	orchestrator := pipeline.NewOrchestrator(pipeline.Deps{
		Chat:    gen,
		Images:  gen,
		Videos:  gen,
		Speech:  gen,
		Prober:  prober,
		History: store,
		Assets:  store,
	}, cfg.Limits)
	progressService := progress.NewService()
	manager := pipeline.NewManager(orchestrator, progressService)
	compositor := export.NewCompositor(runner, cfg.Media.FFmpegPath, fetcher, prober, store, cfg.Media.ExportDir)

	apiHandlers := handlers.NewHandlers(gen, manager, store, store, compositor, fetcher)
	apiHandlers.ProxyHosts = media.NewHostAllowList(cfg.Media.ProxyHosts)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	// --- CORS CONFIGURATION ---
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	apiHandlers.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		log.Infof("Server listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Idle projects and finished trackers are dropped after an hour. Evicted
	// projects stay restorable from history.
	janitorDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := manager.EvictIdle(time.Hour); n > 0 {
					log.Infof("Evicted %d idle projects", n)
				}
				if n := progressService.CleanupFinished(time.Hour); n > 0 {
					log.Debugf("Removed %d finished progress trackers", n)
				}
			case <-janitorDone:
				return
			}
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	close(janitorDone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	if err := manager.Shutdown(ctx); err != nil {
		log.Warnf("Background generation did not stop in time: %v", err)
	}

	log.Info("Server exited gracefully.")
}
