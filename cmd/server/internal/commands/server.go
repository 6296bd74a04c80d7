package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"filippo.io/csrf"
	"github.com/rs/cors"

	"github.com/choppr/choppr/internal/auth"
	"github.com/choppr/choppr/internal/httpmeta"
	"github.com/choppr/choppr/internal/logger"
	"github.com/choppr/choppr/internal/login"
	"github.com/choppr/choppr/internal/onboarding"
	"github.com/choppr/choppr/internal/server"
	"github.com/choppr/choppr/internal/store"
	memorystore "github.com/choppr/choppr/internal/store/memory"
	postgresstore "github.com/choppr/choppr/internal/store/postgres"
	"github.com/choppr/choppr/internal/telemetry"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"CHOPPR_LISTEN"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:3000" env:"CHOPPR_CORS_ORIGINS"`

	// Session configuration
	SessionTTL      time.Duration `help:"session TTL" default:"168h" env:"CHOPPR_SESSION_TTL"`
	MagicLinkSecret string        `help:"secret key for HMAC signing of magic link tokens" env:"CHOPPR_MAGIC_LINK_SECRET"`
	MagicLinkTTL    time.Duration `help:"magic link validity window" default:"15m" env:"CHOPPR_MAGIC_LINK_TTL"`

	// External URL the magic links point at
	BaseURL string `help:"public base URL of the service" default:"http://localhost:8080" env:"CHOPPR_BASE_URL"`

	// Operational modes
	Tracing bool `help:"enable tracing" default:"false" env:"CHOPPR_TRACING"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"CHOPPR_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"CHOPPR_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "choppr-server", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	if len(c.MagicLinkSecret) < 32 {
		return errors.New("magic link secret must be at least 32 bytes (--magic-link-secret or CHOPPR_MAGIC_LINK_SECRET)")
	}

	// Create stores based on store type
	var (
		userStore         store.UserStore
		sessionStore      store.SessionStore
		organizationStore store.OrganizationStore
		frameworkStore    store.FrameworkStore
		canvasStore       store.CanvasStore
	)

	switch c.StoreType {
	case "postgres":
		if err := c.PostgresStore.Validate(); err != nil {
			return fmt.Errorf("failed to validate postgres flags: %w", err)
		}

		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:      c.PostgresStore.ConnString,
			MaxConns:        c.PostgresStore.MaxConns,
			MinConns:        c.PostgresStore.MinConns,
			MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
		})
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		userStore = postgresstore.NewUserStore(pool)
		sessionStore = postgresstore.NewSessionStore(pool)
		organizationStore = postgresstore.NewOrganizationStore(pool)
		frameworkStore = postgresstore.NewFrameworkStore(pool)
		canvasStore = postgresstore.NewCanvasStore(pool)
		log.Info().Msg("Using PostgreSQL stores")

	default:
		userStore = memorystore.NewUserStore()
		sessionStore = memorystore.NewSessionStore()
		organizationStore = memorystore.NewOrganizationStore()
		frameworkStore = memorystore.NewFrameworkStore()
		canvasStore = memorystore.NewCanvasStore()
		log.Info().Msg("Using in-memory stores")
	}

	magic, err := auth.NewMagicLink([]byte(c.MagicLinkSecret), c.MagicLinkTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize magic link signer: %w", err)
	}

	manager, err := login.NewManager(login.Stores{
		Users:    userStore,
		Sessions: sessionStore,
	}, magic, c.SessionTTL, c.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize login manager: %w", err)
	}

	// Sweep expired sessions in the background
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n, err := sessionStore.DeleteExpired(sweepCtx); err != nil {
					log.Error().Err(err).Msg("Failed to delete expired sessions")
				} else if n > 0 {
					log.Info().Int("count", n).Msg("Deleted expired sessions")
				}
			}
		}
	}()

	svc := onboarding.NewService(organizationStore, frameworkStore, canvasStore)
	handlers := server.NewHandlers(svc, organizationStore, frameworkStore, canvasStore)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Auth routes (public)
	mux.HandleFunc("POST /auth/signup", manager.SignupHandler)
	mux.HandleFunc("POST /auth/login", manager.LoginHandler)
	mux.HandleFunc("POST /auth/magic-link", manager.MagicLinkHandler)
	mux.HandleFunc("GET /auth/magic-link/verify", manager.MagicLinkVerifyHandler)
	mux.HandleFunc("GET /auth/session", manager.SessionHandler)
	mux.HandleFunc("POST /auth/logout", manager.LogoutHandler)
	mux.HandleFunc("GET /login", manager.LoginPageHandler)

	// Onboarding API (session auth)
	mux.Handle("POST /api/v1/orgs", manager.RequireSession(http.HandlerFunc(handlers.CreateOrganizationHandler)))
	mux.Handle("PUT /api/v1/orgs/{org_id}/frameworks", manager.RequireSession(http.HandlerFunc(handlers.ReplaceFrameworksHandler)))
	mux.Handle("POST /api/v1/orgs/{org_id}/processes", manager.RequireSession(http.HandlerFunc(handlers.SeedProcessesHandler)))
	mux.Handle("GET /api/v1/frameworks", manager.RequireSession(http.HandlerFunc(handlers.ListFrameworksHandler)))
	mux.Handle("GET /api/v1/catalog/processes", manager.RequireSession(http.HandlerFunc(handlers.ListCatalogHandler)))

	// Canvas API (session auth)
	mux.Handle("GET /api/v1/canvas", manager.RequireSession(http.HandlerFunc(handlers.CanvasHandler)))
	mux.Handle("PATCH /api/v1/processes/{process_id}/position", manager.RequireSession(http.HandlerFunc(handlers.UpdatePositionHandler)))
	mux.Handle("PATCH /api/v1/processes/{process_id}", manager.RequireSession(http.HandlerFunc(handlers.UpdateProcessHandler)))
	mux.Handle("POST /api/v1/relationships", manager.RequireSession(http.HandlerFunc(handlers.CreateRelationshipHandler)))

	// CSRF protection for page routes (not applied to API routes)
	protection := csrf.New()

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// API and auth routes get CORS, page routes get CSRF
		if isAPIRoute(r.URL.Path) {
			withCORS(c.CORSOrigins, mux).ServeHTTP(w, r)
		} else {
			protection.Handler(mux).ServeHTTP(w, r)
		}
	})

	handler := logger.Requests(log)(httpmeta.ClientIPMiddleware()(root))

	log.Info().Str("addr", c.Listen).Str("store", c.StoreType).Msg("Starting HTTP server")
	return configureHTTPServer(c.Listen, handler).ListenAndServe()
}

// isAPIRoute returns true if the path is an API route that needs CORS instead of CSRF
func isAPIRoute(path string) bool {
	return strings.HasPrefix(path, "/api/") ||
		strings.HasPrefix(path, "/auth/")
}

// withCORS adds CORS support to the API routes.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true, // Required for cookie-based authentication
	})
	return middleware.Handler(h)
}
