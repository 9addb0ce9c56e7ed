package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/classhub/scoring-api/internal/config"
	"github.com/classhub/scoring-api/internal/database"
	"github.com/classhub/scoring-api/internal/handler"
	"github.com/classhub/scoring-api/internal/middleware"
	"github.com/classhub/scoring-api/internal/models"
	"github.com/classhub/scoring-api/internal/repository"
	"github.com/classhub/scoring-api/internal/router"
	"github.com/classhub/scoring-api/internal/service"
	cloud "github.com/classhub/scoring-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Class{},
		&models.Enrollment{},
		&models.Assessment{},
		&models.Question{},
		&models.Option{},
		&models.Attempt{},
		&models.Answer{},
		&models.Assignment{},
		&models.Submission{},
		&models.AttendanceSession{},
		&models.AttendanceRecord{},
		&models.Notification{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	classRepo := repository.NewClassRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.NotificationChannel, natsConn, logger)
	assessmentService := service.NewAssessmentService(assessmentRepo, classRepo, validate, logger)
	attemptService := service.NewAttemptService(attemptRepo, assessmentRepo, validate, notificationService, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, classRepo, validate, uploader, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, classRepo, validate, uploader, notificationService, activityService, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, classRepo, validate, activityService, logger)
	reportService := service.NewReportService(classRepo, assessmentRepo, attemptRepo, assignmentRepo, submissionRepo, attendanceRepo, redisClient, cfg.ReportCacheTTL, logger)

	assessmentHandler := handler.NewAssessmentHandler(assessmentService, attemptService, logger)
	attemptHandler := handler.NewAttemptHandler(attemptService, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssessmentHandler:   assessmentHandler,
		AttemptHandler:      attemptHandler,
		AssignmentHandler:   assignmentHandler,
		SubmissionHandler:   submissionHandler,
		AttendanceHandler:   attendanceHandler,
		ReportHandler:       reportHandler,
		NotificationHandler: notificationHandler,
		ActivityHandler:     activityHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
