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

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/AnkitRajMaurya/weather-project/internal/config"
	"github.com/AnkitRajMaurya/weather-project/internal/dashboard"
	"github.com/AnkitRajMaurya/weather-project/internal/geo"
	apphandlers "github.com/AnkitRajMaurya/weather-project/internal/handlers"
	"github.com/AnkitRajMaurya/weather-project/internal/history"
	"github.com/AnkitRajMaurya/weather-project/internal/suggest"
	"github.com/AnkitRajMaurya/weather-project/internal/weather"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env if present; real environments set variables directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "config.yml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return errors.New("OPENWEATHER_API_KEY not set")
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		log.Printf("Warning: history database unavailable: %v", err)
		log.Println("Continuing without search history...")
		store = nil
	} else {
		defer store.Close()
		log.Println("History database opened successfully")
	}

	// One limiter shared by both upstream clients keeps the combined
	// request rate under the OpenWeatherMap quota.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)

	geoClient := geo.NewClient(cfg.APIKey, limiter)
	weatherClient := weather.NewClient(cfg.APIKey, limiter)
	service := weather.NewService(weatherClient, cfg.BundleCacheTTL.Std())

	notices := apphandlers.NewNoticeLog()

	controllerCfg := dashboard.Config{
		Fetcher:         service,
		Geocoder:        geoClient,
		Notifier:        notices,
		RefreshInterval: cfg.RefreshInterval.Std(),
		DefaultPlace: dashboard.Place{
			Name:    cfg.DefaultPlace.Name,
			Country: cfg.DefaultPlace.Country,
			Coord: weather.Coordinate{
				Lat: cfg.DefaultPlace.Latitude,
				Lon: cfg.DefaultPlace.Longitude,
			},
		},
	}
	if store != nil {
		controllerCfg.History = store
	}
	controller := dashboard.New(controllerCfg)

	engine := suggest.NewEngine(geoClient, cfg.DebounceInterval.Std())
	uv := weather.NewClockEstimator(nil)

	h := apphandlers.New(controller, engine, uv, notices)

	var handler http.Handler = h.Router()
	handler = handlers.RecoveryHandler()(handler)
	handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST"}),
	)(handler)
	handler = handlers.LoggingHandler(os.Stdout, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the default place before serving and keep it fresh after.
	if err := controller.Refresh(ctx); err != nil {
		log.Printf("Initial fetch failed: %v", err)
	}
	go controller.Run(ctx)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: handler,
	}

	return startServer(server)
}

func startServer(server *http.Server) error {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverError := make(chan error, 1)

	go func() {
		log.Printf("Server starting on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case err := <-serverError:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Printf("Shutdown signal received: %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			_ = server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		log.Println("Server stopped gracefully")
	}

	return nil
}
