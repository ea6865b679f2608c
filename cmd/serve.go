package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"animation_panel_server/api"
	"animation_panel_server/config"
	"animation_panel_server/internal/ai"
	handlers "animation_panel_server/internal/api"
	"animation_panel_server/internal/memo"
	"animation_panel_server/internal/plugin"
	"animation_panel_server/internal/session"
	"animation_panel_server/internal/utils"
	"animation_panel_server/internal/validation"
)

const janitorInterval = time.Minute

func newServeCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the plugin API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configDir)
		},
	}
}

func loadDotEnv() {
	// It's crucial to do this BEFORE viper loads config.
	err := godotenv.Load()
	if err != nil {
		// It's common for .env to not exist (e.g., in production)
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading .env file: %v", err)
		} else {
			log.Println("Info: .env file not found, relying on system environment variables.")
		}
	} else {
		log.Println("Info: Loaded environment variables from .env file.")
	}
}

// newPlugin wires the plugin and its caches from configuration.
func newPlugin(cfg config.Config) (*plugin.Plugin, *memo.Cache[validation.Result], *memo.Cache[plugin.Rendered]) {
	validations := memo.New[validation.Result](cfg.MemoTTL())
	rendered := memo.New[plugin.Rendered](cfg.MemoTTL())

	store := session.NewStore(session.StoreConfig{
		QuietPeriod: cfg.DebounceQuiet(),
		IdleTimeout: cfg.SessionIdleTimeout(),
		Validations: validations,
	})

	info := plugin.DefaultInfo()
	info.Name = cfg.PluginName
	info.DisplayName = cfg.PluginDisplayName

	faults := utils.NewFaultReporter(cfg.FaultWindow(), cfg.FaultCap)
	return plugin.New(info, store, rendered, faults), validations, rendered
}

func runServe(configDir string) error {
	loadDotEnv()

	// --- Configuration Loading ---
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	// --- Dependency Initialization ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, validations, rendered := newPlugin(cfg)
	validations.StartSweeper(ctx, cfg.MemoSweepInterval())
	rendered.StartSweeper(ctx, cfg.MemoSweepInterval())
	p.Sessions().StartJanitor(ctx, janitorInterval)

	// Code preview needs an API key; without one the endpoint answers 503
	var coder handlers.CodeGenerator
	if cfg.OpenAIKey != "" {
		coder = ai.NewGenerator(cfg.OpenAIKey, cfg.OpenAIModel)
	}
	apiHandler := handlers.NewAPIHandler(p, coder, cfg.PreviewThrottle())

	// --- Start API Server ---
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
		log.Println("Info: running in Gin Debug Mode")
	}

	router := gin.New()        // Use gin.New() for more control over middleware
	router.Use(gin.Logger())   // Add structured logger middleware
	router.Use(gin.Recovery()) // Add panic recovery middleware

	api.RegisterRoutes(router, apiHandler)

	server := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
		// Set timeouts to prevent slow client attacks
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Info: starting API server on %s\n", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		log.Println("Info: API server has stopped listening.")
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Printf("Info: received signal: %s. Shutting down server...", sig)
	case err := <-serverErr:
		return fmt.Errorf("API server listen error: %w", err)
	}

	shutdownCtx, serverCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer serverCancel()

	log.Println("Info: cancelling main application context...")
	cancel()

	log.Println("Info: shutting down API server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: API server forced shutdown error: %v", err)
	} else {
		log.Println("Info: API server gracefully stopped.")
	}

	p.Sessions().CloseAll()
	if n := p.Faults().Suppressed(); n > 0 {
		log.Printf("WARN: %d repeated faults were suppressed during this run", n)
	}
	log.Println("Info: application exiting.")
	return nil
}
