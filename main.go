package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"energy-cloud/internal/audit"
	"energy-cloud/internal/auth"
	credentialsapp "energy-cloud/internal/credentials/application"
	credentialsrepo "energy-cloud/internal/credentials/infrastructure/postgres"
	credentialshttp "energy-cloud/internal/credentials/interfaces/http"
	devicesapp "energy-cloud/internal/devices/application"
	devicesrepo "energy-cloud/internal/devices/infrastructure/postgres"
	deviceshttp "energy-cloud/internal/devices/interfaces/http"
	"energy-cloud/internal/observability/metrics"
	"energy-cloud/internal/reports"
	usersapp "energy-cloud/internal/users/application"
	usersrepo "energy-cloud/internal/users/infrastructure/postgres"
	usershttp "energy-cloud/internal/users/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	deviceRepo := devicesrepo.NewDeviceRepository(db)
	deviceService, err := devicesapp.NewService(deviceRepo)
	if err != nil {
		logger.Fatalf("device service error: %v", err)
	}
	deviceHandler, err := deviceshttp.NewHandler(deviceService, auditRepo)
	if err != nil {
		logger.Fatalf("device handler error: %v", err)
	}

	profileRepo := usersrepo.NewProfileRepository(db)
	userService, err := usersapp.NewService(profileRepo)
	if err != nil {
		logger.Fatalf("user service error: %v", err)
	}
	userHandler, err := usershttp.NewHandler(userService, deviceService, auditRepo)
	if err != nil {
		logger.Fatalf("user handler error: %v", err)
	}

	credentialRepo := credentialsrepo.NewCredentialRepository(db)
	credentialService, err := credentialsapp.NewService(credentialRepo, userService, []byte(cfg.JWTSecret), cfg.TokenTTL, logger)
	if err != nil {
		logger.Fatalf("credential service error: %v", err)
	}
	authHandler, err := credentialshttp.NewHandler(credentialService)
	if err != nil {
		logger.Fatalf("auth handler error: %v", err)
	}

	reportHandler, err := reports.NewHandler(deviceService)
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics", "/auth/login", "/auth/register"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/auth/", authHandler)
	mux.Handle("/users", userHandler)
	mux.Handle("/users/", userHandler)
	mux.Handle("/devices", deviceHandler)
	mux.Handle("/devices/", deviceHandler)
	mux.Handle("/admin/reports/", reportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
	TokenTTL    time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		TokenTTL:    getenvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, resp.status, elapsed)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, elapsed)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
