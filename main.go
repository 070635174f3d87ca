package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	apihttp "schoolfin-cloud/internal/api/http"
	"schoolfin-cloud/internal/audit"
	"schoolfin-cloud/internal/auth"
	catalogrepo "schoolfin-cloud/internal/catalog/infrastructure/postgres"
	cataloginterfaces "schoolfin-cloud/internal/catalog/interfaces"
	feeapp "schoolfin-cloud/internal/fees/application"
	feesrepo "schoolfin-cloud/internal/fees/infrastructure/postgres"
	feesinterfaces "schoolfin-cloud/internal/fees/interfaces"
	"schoolfin-cloud/internal/observability/metrics"
	scholarshiprepo "schoolfin-cloud/internal/scholarship/infrastructure/postgres"
	scholarshipinterfaces "schoolfin-cloud/internal/scholarship/interfaces"
	studentsrepo "schoolfin-cloud/internal/students/infrastructure/postgres"

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
	classChecker := auth.NewClassChecker(db)
	auditRepo := audit.NewRepository(db)

	engineCfg, err := feeapp.LoadEngineConfig()
	if err != nil {
		logger.Fatalf("engine config error: %v", err)
	}

	assignmentRepo := feesrepo.NewAssignmentRepository(db)
	structureRepo := catalogrepo.NewStructureRepository(db)
	categoryRepo := catalogrepo.NewCategoryRepository(db)
	scholarshipRepo := scholarshiprepo.NewRepository(db)
	studentRepo := studentsrepo.NewStudentRepository(db)

	feeService, err := feeapp.NewService(
		assignmentRepo,
		structureRepo,
		scholarshipRepo,
		studentRepo,
		engineCfg,
		cfg.SchoolID,
		cfg.Currency,
		feeapp.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("fee service error: %v", err)
	}

	assignmentHandler, err := feesinterfaces.NewAssignmentHandler(feeService, classChecker, auditRepo)
	if err != nil {
		logger.Fatalf("assignment handler error: %v", err)
	}
	catalogHandler, err := cataloginterfaces.NewCatalogHandler(structureRepo, categoryRepo, auditRepo)
	if err != nil {
		logger.Fatalf("catalog handler error: %v", err)
	}
	scholarshipHandler, err := scholarshipinterfaces.NewScholarshipHandler(scholarshipRepo, auditRepo)
	if err != nil {
		logger.Fatalf("scholarship handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/fee-assignments", assignmentHandler)
	mux.Handle("/api/v1/fee-assignments/", assignmentHandler)
	mux.Handle("/api/v1/fee-structures", catalogHandler)
	mux.Handle("/api/v1/fee-structures/", catalogHandler)
	mux.Handle("/api/v1/fee-categories", catalogHandler)
	mux.Handle("/api/v1/scholarships", scholarshipHandler)
	mux.Handle("/api/v1/scholarships/", scholarshipHandler)
	mux.Handle("/api/v1/stats/fees", apihttp.NewStatsHandler(db, cfg.SchoolID))
	mux.Handle("/api/v1/exports/fee-assignments.csv", apihttp.NewExportAssignmentsCSVHandler(db, cfg.SchoolID))
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
	SchoolID    string
	Currency    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		SchoolID:    getenvDefault("SCHOOL_ID", "school-demo"),
		Currency:    getenvDefault("CURRENCY", "NGN"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
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

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
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
