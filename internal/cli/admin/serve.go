package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/askhub-io/askhub/internal/agents"
	"github.com/askhub-io/askhub/internal/api/handlers"
	"github.com/askhub-io/askhub/internal/cache"
	"github.com/askhub-io/askhub/internal/config"
	"github.com/askhub-io/askhub/internal/jobs"
	"github.com/askhub-io/askhub/internal/repository"
	"github.com/askhub-io/askhub/internal/server"
	"github.com/askhub-io/askhub/internal/service"
	"github.com/askhub-io/askhub/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the askhub API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Println("connected to redis")

	agentCache := cache.NewAgentCache(redisClient)

	userRepo := repository.NewUserRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	voteRepo := repository.NewVoteRepository(pool)
	tagRepo := repository.NewTagRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)

	contributions := &contributionReader{questions: questionRepo, answers: answerRepo}

	agentPipeline := []agents.Agent{
		agents.NewRoutingAgent(userRepo, agentCache, agentCache, logger),
		agents.NewDuplicateAgent(questionRepo, agentCache, cfg.SimilarityThreshold, logger),
		agents.NewKnowledgeGapAgent(agentRepo, agentCache, logger),
		agents.NewExpertiseAgent(contributions, agentRepo, agentCache, logger),
	}
	orchestrator := agents.NewOrchestrator(agentPipeline, agentRepo, agentCache, cfg.AgentConfidenceThreshold, logger)

	questionSvc := service.NewQuestionService(questionRepo, orchestrator, logger)
	answerSvc := service.NewAnswerService(answerRepo, questionRepo, voteRepo, userRepo, logger)
	agentSvc := service.NewAgentService(agentRepo, agentCache, logger)
	authSvc := service.NewAuthService(userRepo, redisClient)
	userSvc := service.NewUserService(userRepo, agentRepo)

	routerCfg := server.RouterConfig{
		SessionValidator: authSvc,
		AuthHandler:      handlers.NewAuthHandler(authSvc),
		QuestionHandler:  handlers.NewQuestionHandler(questionSvc),
		AnswerHandler:    handlers.NewAnswerHandler(answerSvc),
		AgentHandler:     handlers.NewAgentHandler(agentSvc, questionSvc),
		UserHandler:      handlers.NewUserHandler(userSvc),
		TagHandler:       handlers.NewTagHandler(tagRepo),
	}

	router := server.NewRouter(routerCfg)

	var backfillWorker *jobs.Worker
	if cfg.WorkerPollSeconds > 0 {
		processor := jobs.NewAnalysisWorker(questionRepo, orchestrator, logger)
		backfillWorker = jobs.NewWorker(processor, time.Duration(cfg.WorkerPollSeconds)*time.Second, logger)
		go backfillWorker.Start(ctx)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if backfillWorker != nil {
		backfillWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// contributionReader joins the question and answer repositories into the
// single contribution history view the expertise agent reads from.
type contributionReader struct {
	questions *repository.QuestionRepository
	answers   *repository.AnswerRepository
}

func (r *contributionReader) AuthorHistory(ctx context.Context, userID int64, limit int) ([]*agents.Contribution, error) {
	return r.questions.AuthorHistory(ctx, userID, limit)
}

func (r *contributionReader) AcceptedAnswers(ctx context.Context, userID int64, limit int) ([]*agents.AcceptedAnswer, error) {
	return r.answers.AcceptedAnswers(ctx, userID, limit)
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
