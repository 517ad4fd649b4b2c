package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/grovelane/miniaudit-api/internal/contentstore"
	"github.com/grovelane/miniaudit-api/internal/infra/database"
	"github.com/grovelane/miniaudit-api/internal/infra/http/handlers"
	"github.com/grovelane/miniaudit-api/internal/infra/http/middleware"
	"github.com/grovelane/miniaudit-api/internal/infra/integration/gemini"
	"github.com/grovelane/miniaudit-api/internal/infra/integration/sanity"
	"github.com/grovelane/miniaudit-api/internal/infra/mail"
	"github.com/grovelane/miniaudit-api/internal/infra/queue"
	"github.com/grovelane/miniaudit-api/internal/infra/repository"
	"github.com/grovelane/miniaudit-api/internal/infra/worker"
	"github.com/grovelane/miniaudit-api/internal/status"
	"github.com/grovelane/miniaudit-api/internal/usecase"
)

func main() {
	godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// 1. Content store (hosted CMS or self-hosted Postgres)
	var store contentstore.Store
	var db *sql.DB

	switch os.Getenv("CONTENT_STORE") {
	case "sanity":
		store = sanity.NewClient(
			os.Getenv("SANITY_API_URL"),
			os.Getenv("SANITY_DATASET"),
			os.Getenv("SANITY_TOKEN"),
		)
		logger.Info("using sanity content store")

	default:
		db, err = database.NewDBConnection(os.Getenv("DATABASE_URL"))
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer db.Close()

		docStore := database.NewDocumentStore(db)
		if err := docStore.EnsureSchema(ctx); err != nil {
			logger.Fatal("schema setup failed", zap.Error(err))
		}
		store = docStore
		logger.Info("using postgres content store")

		// Crash recovery for generation claims only works when we own
		// the database.
		go worker.NewClaimReaper(db, logger).Start(ctx)
	}

	// 2. Repositories
	leadRepo := repository.NewLeadRepository(store)
	reportRepo := repository.NewReportRepository(store)
	serviceRepo := repository.NewServiceRepository(store)

	// 3. Analysis provider
	provider, err := gemini.NewClient(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"))
	if err != nil {
		logger.Fatal("analysis provider setup failed", zap.Error(err))
	}

	// 4. Notification pipeline (optional: without RabbitMQ the driver
	// logs events and drops them)
	var producer usecase.EventPublisher
	var rabbitConn *amqp.Connection

	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		rabbitMQ, err := queue.NewRabbitMQ(url)
		if err != nil {
			logger.Fatal("rabbitmq setup failed", zap.Error(err))
		}
		defer rabbitMQ.Conn.Close()
		defer rabbitMQ.Ch.Close()
		rabbitConn = rabbitMQ.Conn
		producer = queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

		mailPort, _ := strconv.Atoi(envOr("MAIL_PORT", "587"))
		mailSender := mail.NewEmailSender(
			os.Getenv("MAIL_HOST"), mailPort,
			os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
			envOr("MAIL_FROM", "no-reply@grovelane.io"),
			envOr("SALES_INBOX", "sales@grovelane.io"),
			os.Getenv("SITE_URL"),
		)

		notifyWorker := queue.NewWorker(rabbitMQ.Ch, mailSender, logger)
		go notifyWorker.Start(queue.QueueName)
	}

	// 5. Status store + use cases
	statusStore := status.NewStore(logger)
	reportBasePath := envOr("REPORT_BASE_PATH", "/report/")

	builder := usecase.NewBuildReportUseCase(
		leadRepo, serviceRepo, reportRepo, provider,
		os.Getenv("FALLBACK_SERVICE_ID"), reportBasePath, logger,
	)

	generator := usecase.NewGenerateReportUseCase(
		leadRepo, reportRepo, builder, statusStore, producer, logger,
	)
	generator.ReportBasePath = reportBasePath

	submitQuiz := usecase.NewSubmitQuizUseCase(leadRepo, generator, logger)

	// 6. Handlers
	quizHandler := handlers.NewQuizHandler(submitQuiz)
	reportHandler := handlers.NewReportHandler(reportRepo, generator, statusStore, reportBasePath, logger)
	healthHandler := handlers.NewHealthHandler(db, rabbitConn)

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{envOr("CORS_ORIGIN", "*")},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Post("/api/quiz", quizHandler.HandleSubmit)
	r.Post("/api/reports/generate", reportHandler.HandleGenerate)
	r.Get("/api/report-status", reportHandler.HandleStatus)
	r.Get("/api/reports/{slug}", reportHandler.HandleView)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := ":" + envOr("PORT", "8080")
	logger.Info("mini-audit API listening", zap.String("port", port))
	if err := http.ListenAndServe(port, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
