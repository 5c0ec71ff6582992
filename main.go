// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/anugrahsy/monolog-food-orders-app/internal/cart"
	"github.com/anugrahsy/monolog-food-orders-app/internal/catalog"
	"github.com/anugrahsy/monolog-food-orders-app/internal/cleanup"
	"github.com/anugrahsy/monolog-food-orders-app/internal/config"
	"github.com/anugrahsy/monolog-food-orders-app/internal/data"
	"github.com/anugrahsy/monolog-food-orders-app/internal/distance"
	"github.com/anugrahsy/monolog-food-orders-app/internal/logger"
	"github.com/anugrahsy/monolog-food-orders-app/internal/middleware"
	"github.com/anugrahsy/monolog-food-orders-app/internal/pricing"
	"github.com/anugrahsy/monolog-food-orders-app/internal/session"
	"github.com/anugrahsy/monolog-food-orders-app/internal/storefront"
)

const (
	sessionSweepInterval = 5 * time.Minute
	limiterSweepInterval = 10 * time.Minute
	limiterIdle          = 30 * time.Minute
)

type App struct {
	addr          string
	mux           *http.ServeMux
	connections   sync.WaitGroup
	totalRequests int64
}

func main() {
	// Step 1: Setup configuration first
	config.LoadEnv()
	config.ConfigurePaths()

	// Step 2: Setup logging
	if err := logger.SetupLogger(config.LoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.LogInfo("Environment and paths loaded. Logger ready.")
	config.LogCurrentEnvironment()
	config.LoadCORSConfig()

	// Step 3: Storefront settings
	cfg, err := config.LoadStorefrontConfig()
	if err != nil {
		logger.LogFatal("Failed to load storefront config: %v", err)
	}

	// Step 4: Storage
	if err := os.MkdirAll(config.DataDirectory(), 0755); err != nil {
		logger.LogFatal("Failed to create data directory: %v", err)
	}
	if err := data.InitDB(config.DatabasePath()); err != nil {
		logger.LogFatal("Failed to open database: %v", err)
	}
	defer data.CloseDB()
	if err := data.CreateTables(); err != nil {
		logger.LogFatal("Failed to create tables: %v", err)
	}

	// Step 5: Menu
	cat := catalog.New()
	if err := cat.LoadFromFile(config.CatalogPath()); err != nil {
		logger.LogFatal("Failed to load catalog: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewManager(cfg.SessionTTL)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	blobs := data.NewBlobRepository()
	snapshots := data.NewSnapshotRepository()

	svc := storefront.NewService(cat, sessions, cart.NewStore(blobs), snapshots, storefront.Config{
		Shop:              distance.Coordinate{Lat: cfg.ShopLat, Lng: cfg.ShopLng},
		WhatsAppRecipient: cfg.WhatsAppRecipient,
		Promotion:         pricing.NewPromotion(cfg.PromoCode),
	})

	// Step 6: Setup app
	app := &App{
		addr: serverAddress(),
		mux:  routes(cat, storefront.NewHandler(svc, limiter)),
	}

	// Step 7: Start background tasks
	sessions.StartCleanup(ctx, sessionSweepInterval)
	limiter.StartCleanup(ctx, limiterSweepInterval, limiterIdle)
	cleanup.NewJob(blobs, snapshots, cleanup.DefaultConfig()).Start(ctx)

	// Step 8: Run server
	app.Run()
}

// serverAddress builds the server address from environment variables
func serverAddress() string {
	host := os.Getenv("SERVER_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "5051"
	}
	return host + ":" + port
}

// routes sets up the API and the static QRIS images
func routes(cat *catalog.Catalog, h *storefront.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := data.GetDB(); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("X-Catalog-Age", cat.CacheAge().Truncate(time.Second).String())
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	h.Register(mux)
	mux.Handle("/qris/", http.StripPrefix("/qris/", http.FileServer(http.Dir(config.QRISDirectory()))))

	return mux
}

// Run starts the HTTP server
func (a *App) Run() {
	server := &http.Server{
		Addr:         a.addr,
		Handler:      a.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.LogInfo("Starting server on %s", a.addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogFatal("Server failed: %v", err)
		}
	}()

	<-stop
	logger.LogInfo("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.LogError("Server shutdown error: %v", err)
	}

	logger.LogInfo("Waiting for active connections to finish...")
	a.connections.Wait()
	logger.LogInfo("All connections closed. Total requests handled: %d", atomic.LoadInt64(&a.totalRequests))
	logger.LogInfo("Server shut down gracefully")
}

// Handler assembles all middleware around the main mux
func (a *App) Handler() http.Handler {
	var handler http.Handler = withCustom404(a.mux)

	handler = middleware.CORS(config.AllowedOrigin, handler)
	handler = a.trackConnections(handler)
	handler = logRequests(handler)
	handler = withTimeout(handler, 15*time.Second)

	return handler
}

// Middleware: timeout handler
func withTimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.TimeoutHandler(h, timeout, "Request timed out")
}

// Middleware: log requests
func logRequests(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		h.ServeHTTP(w, r)

		logger.LogInfo("%s %s took %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// Middleware: track active connections and total requests
func (a *App) trackConnections(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.connections.Add(1)
		atomic.AddInt64(&a.totalRequests, 1)
		defer a.connections.Done()

		h.ServeHTTP(w, r)
	})
}

// Middleware: unrouted paths get the API error envelope instead of the mux's plain text
func withCustom404(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern == "" {
			logger.LogInfo("404 not found: %s %s", r.Method, r.URL.Path)
			middleware.WriteAPIError(w, r, http.StatusNotFound, "not_found", "The requested resource was not found", r.URL.Path)
			return
		}
		mux.ServeHTTP(w, r)
	})
}
