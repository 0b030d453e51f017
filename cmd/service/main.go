package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	configs "chat_practice_service/config"
	"chat_practice_service/internal/cache"
	"chat_practice_service/internal/genai"
	"chat_practice_service/internal/repository"
	"chat_practice_service/internal/server/httpapi"
	"chat_practice_service/internal/service"
	"chat_practice_service/pkg/db"
	"chat_practice_service/pkg/kafka"
	"chat_practice_service/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	log := logger.New(zapLogger)
	defer func() { _ = log.Sync() }()

	cfg, err := configs.Load()
	if err != nil {
		log.Fatal(ctx, "failed to load config", zap.Error(err))
	}

	pg, err := db.NewPostgres(db.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.DBName,
		SSLMode:  cfg.DB.SSLMode,
	})
	if err != nil {
		log.Fatal(ctx, "failed to connect to database", zap.Error(err))
	}
	defer pg.Close()

	submissionRepo := repository.NewSubmissionRepository(pg.DB())
	assignmentRepo := repository.NewAssignmentRepository(pg.DB())
	courseRepo := repository.NewCourseRepository(pg.DB())
	characterRepo := repository.NewCharacterRepository(pg.DB())

	kafkaProducer, err := kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers})
	if err != nil {
		log.Fatal(ctx, "failed to create kafka producer", zap.Error(err))
	}
	defer kafkaProducer.Close()

	redisConn := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisConn.Close()
	redisCache := cache.NewRedisCache(redisConn)

	aiClient, err := genai.NewClient(genai.Config{
		BaseURL:    cfg.GenAI.BaseURL,
		APIKey:     cfg.GenAI.APIKey,
		Model:      cfg.GenAI.Model,
		MaxRetries: cfg.GenAI.MaxRetries,
		BaseDelay:  cfg.GenAI.BaseDelay,
		Timeout:    cfg.GenAI.Timeout,
	})
	if err != nil {
		log.Fatal(ctx, "failed to create genai client", zap.Error(err))
	}

	sessionService := service.NewSessionService(
		submissionRepo, assignmentRepo, courseRepo, characterRepo,
		aiClient, kafkaProducer, log,
	)
	courseService := service.NewCourseService(courseRepo, log)
	assignmentService := service.NewAssignmentService(
		assignmentRepo, submissionRepo, courseRepo, redisCache, log,
	)
	overviewService := service.NewOverviewService(
		submissionRepo, assignmentRepo, courseRepo, aiClient, redisCache, log,
	)
	characterService := service.NewCharacterService(characterRepo)

	router := httpapi.NewRouter(log, cfg.Auth.JWTSecret, httpapi.Handlers{
		Courses:     httpapi.NewCourseHandler(courseService, assignmentService),
		Assignments: httpapi.NewAssignmentHandler(assignmentService, overviewService),
		Sessions:    httpapi.NewSessionHandler(sessionService),
		Students:    httpapi.NewStudentHandler(overviewService, characterService),
	})

	reminderWorker := NewReminderWorker(
		assignmentRepo, kafkaProducer, log,
		cfg.Worker.ReminderInterval, cfg.Worker.ReminderWindow,
	)
	go reminderWorker.Start(ctx)

	srv := &http.Server{
		Addr:        cfg.HTTP.Address,
		Handler:     router,
		ReadTimeout: cfg.HTTP.Timeout,
		// Completion requests can retry for a while; the write timeout
		// must outlast the client's whole retry envelope.
		WriteTimeout: aiClient.RetryBudget() + cfg.HTTP.Timeout,
	}

	go func() {
		log.Info(ctx, "starting http server", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(ctx, "cannot start http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal(ctx, "server forced to shutdown", zap.Error(err))
	}
	log.Info(ctx, "server stopped")
}
