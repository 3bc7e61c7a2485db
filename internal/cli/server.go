package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"pubquiz-service/internal/app"
	"pubquiz-service/internal/auth"
	"pubquiz-service/internal/config"
	"pubquiz-service/internal/domain"
	"pubquiz-service/internal/infra/memory"
	"pubquiz-service/internal/infra/postgres"
	rediscache "pubquiz-service/internal/infra/redis"
	"pubquiz-service/internal/logging"
	"pubquiz-service/internal/relay"
	transport "pubquiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the pub-quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, slog.LevelInfo)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// One backing store serves every repository interface; the memory
	// variant is the local-dev fallback and arrives pre-seeded.
	var (
		sessionRepo     app.SessionRepository
		participantRepo app.ParticipantRepository
		answerRepo      app.AnswerRepository
		scoreRepo       app.ScoreRepository
		quizRepo        app.QuizRepository
		userRepo        auth.UserRepository
		questionLoader  memory.QuestionLoader
	)
	if pool != nil {
		store := postgres.NewStore(pool)
		sessionRepo, participantRepo, answerRepo = store, store, store
		scoreRepo, quizRepo, userRepo, questionLoader = store, store, store, store
	} else {
		store := memory.NewStore()
		seedDevQuiz(ctx, store, log)
		sessionRepo, participantRepo, answerRepo = store, store, store
		scoreRepo, quizRepo, userRepo, questionLoader = store, store, store, store
	}

	var questionBank app.QuestionBank
	var invalidate func(ctx context.Context, quizID string)
	if redisClient != nil {
		cache := rediscache.NewQuestionCache(redisClient, questionLoader, questionTTL)
		questionBank = cache
		invalidate = cache.Invalidate
		sessionRepo = rediscache.NewSessionCache(redisClient, sessionRepo, redisTTL)
	} else {
		cache := memory.NewQuestionCache(questionLoader, questionTTL)
		questionBank = cache
		invalidate = func(_ context.Context, quizID string) { cache.Invalidate(quizID) }
	}

	sessions := app.NewSessionService(sessionRepo, participantRepo, answerRepo, scoreRepo, questionBank, quizRepo, log)
	quizzes := app.NewQuizService(quizRepo).WithInvalidator(invalidate)

	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)
	secret := cfg.Auth.Secret
	if secret == "" {
		secret = "dev-secret-change-me"
		log.Warn("auth secret not configured, using insecure default")
	}
	authSvc := auth.NewService(userRepo, secret, tokenTTL)

	registry := relay.NewRegistry(log)
	liveRelay := relay.New(registry, log)

	handler := transport.NewHandler(sessions, quizzes, questionBank, authSvc, authSvc, registry, log)
	wsHandler := transport.NewWSHandler(liveRelay, log)
	router := transport.NewRouter(handler, wsHandler, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr: ":" + finalPort,
		// No write timeout; websocket connections are long-lived.
		ReadHeaderTimeout: 10 * time.Second,
		Handler:           router,
	}

	go func() {
		log.Info("starting pub-quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down")
	case <-ctx.Done():
		log.Info("context canceled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedDevQuiz gives the in-memory store something to host without going
// through the editor endpoints first.
func seedDevQuiz(ctx context.Context, store *memory.Store, log *slog.Logger) {
	quiz := domain.Quiz{ID: "quiz-1", Name: "Pub Night Warmup", OwnerIDs: []string{"dev-host"}}
	if err := store.CreateQuiz(ctx, &quiz); err != nil {
		log.Warn("dev quiz seed failed", "err", err)
		return
	}
	questions := []domain.Question{
		{
			ID: "q1", QuizID: quiz.ID, Text: "Which planet is known as the Red Planet?",
			MediaKind: domain.MediaText, AnswerKind: domain.AnswerMultipleChoice,
			Options: []string{"Venus", "Mars", "Jupiter", "Mercury"}, CorrectAnswer: "B", Position: 0,
		},
		{
			ID: "q2", QuizID: quiz.ID, Text: "How many keys does a standard piano have?",
			MediaKind: domain.MediaText, AnswerKind: domain.AnswerEstimation,
			CorrectAnswer: "88", Position: 1,
		},
	}
	for i := range questions {
		if err := store.CreateQuestion(ctx, &questions[i]); err != nil {
			log.Warn("dev question seed failed", "err", err)
		}
	}
	log.Info("seeded dev quiz", "quiz", quiz.ID, "questions", len(questions))
}
