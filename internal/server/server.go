package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/examcore/internal/config"
	"github.com/mansoorceksport/examcore/internal/domain"
	"github.com/mansoorceksport/examcore/internal/handler"
	"github.com/mansoorceksport/examcore/internal/middleware"
	"github.com/mansoorceksport/examcore/internal/repository"
	"github.com/mansoorceksport/examcore/internal/service"
	"github.com/mansoorceksport/examcore/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const idempotencyTTL = 10 * time.Minute

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	RedisClient *redis.Client
	AuthClient  service.FirebaseAuthClient
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	// Initialize repositories
	userRepo := repository.NewMongoUserRepository(deps.MongoDB)
	examRepo := repository.NewMongoExamRepository(deps.MongoDB)
	questionRepo := repository.NewMongoQuestionRepository(deps.MongoDB)
	cacheRepo := repository.NewRedisCacheRepository(deps.RedisClient)

	// Select the storage backend. A failed S3 init falls back to local so
	// a misconfigured object store does not take the API down.
	var fileRepo domain.FileRepository
	switch deps.Config.Upload.StorageType {
	case domain.StorageTypeS3:
		s3Repo, err := repository.NewS3FileRepository(context.Background(), deps.Config.S3)
		if err != nil {
			log.Printf("Warning: failed to initialize S3 storage, falling back to local: %v", err)
			fileRepo = repository.NewLocalFileRepository(deps.Config.Upload.Path)
		} else {
			fileRepo = s3Repo
		}
	default:
		fileRepo = repository.NewLocalFileRepository(deps.Config.Upload.Path)
	}

	policy := deps.Config.UploadPolicy()

	// Initialize services
	authService := service.NewAuthService(userRepo, deps.AuthClient, deps.Config.JWT)
	examService := service.NewExamService(examRepo, questionRepo, fileRepo, cacheRepo)
	uploadService := service.NewUploadService(examRepo, questionRepo, fileRepo, cacheRepo, policy)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	examHandler := handler.NewExamHandler(examService)
	uploadHandler := handler.NewUploadHandler(uploadService, policy)

	// Create Fiber app. BodyLimit sits well above the upload policy so the
	// policy check is the client-facing gate; requests past the transport
	// cap are mapped to the same message by the error handler.
	app := fiber.New(fiber.Config{
		AppName:      "ExamCore API",
		BodyLimit:    int(4 * policy.MaxBytes),
		ErrorHandler: newErrorHandler(policy),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	if deps.Config.OTEL.Enabled {
		app.Use(telemetry.FiberMiddleware())
	}

	// Uploaded images are served straight from disk under /uploads
	if deps.Config.Upload.StorageType == domain.StorageTypeLocal {
		app.Static("/uploads", deps.Config.Upload.Path)
	}

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "examcore",
		})
	})

	// API v1 routes
	v1 := app.Group("/v1")

	// Auth endpoints (public)
	auth := v1.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.VerifyExamCoreToken(deps.Config.JWT.Secret), authHandler.Me)

	// ===========================================
	// UPLOADS API - /v1/uploads/* (teachers and admins only)
	// ===========================================
	uploads := v1.Group("/uploads")
	uploads.Use(middleware.VerifyExamCoreToken(deps.Config.JWT.Secret))
	uploads.Use(middleware.AuthorizeRole(domain.TeacherRoles...))
	if deps.RedisClient != nil {
		uploads.Use(middleware.Idempotency(deps.RedisClient, idempotencyTTL))
	}

	uploads.Post("/exam-question-image/:examId/:questionId", uploadHandler.UploadExamQuestionImage)
	uploads.Post("/question-image/:questionId", uploadHandler.UploadQuestionImage)

	// ===========================================
	// EXAMS API - /v1/exams/*
	// ===========================================
	exams := v1.Group("/exams")
	exams.Use(middleware.VerifyExamCoreToken(deps.Config.JWT.Secret))

	exams.Post("/", middleware.AuthorizeRole(domain.TeacherRoles...), examHandler.CreateExam)
	exams.Get("/", middleware.AuthorizeRole(domain.TeacherRoles...), examHandler.ListExams)
	exams.Get("/:id", examHandler.GetExam)
	exams.Put("/:id", middleware.AuthorizeRole(domain.TeacherRoles...), examHandler.UpdateExam)
	exams.Post("/:id/questions", middleware.AuthorizeRole(domain.TeacherRoles...), examHandler.AddQuestion)

	// ===========================================
	// QUESTIONS API - /v1/questions/*
	// ===========================================
	questions := v1.Group("/questions")
	questions.Use(middleware.VerifyExamCoreToken(deps.Config.JWT.Secret))
	questions.Use(middleware.AuthorizeRole(domain.TeacherRoles...))
	if deps.RedisClient != nil {
		questions.Use(middleware.Idempotency(deps.RedisClient, idempotencyTTL))
	}

	questions.Patch("/:questionId/image", examHandler.UpdateQuestionImage)

	return app
}

func newErrorHandler(policy domain.UploadPolicy) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// A body past the transport cap never reaches the policy check;
		// answer with the policy message instead of a bare 413.
		if errors.Is(err, fiber.ErrRequestEntityTooLarge) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   fmt.Sprintf("File size exceeds maximum allowed size of %s", domain.FormatSize(policy.MaxBytes)),
			})
		}

		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		log.Printf("Error: %v", err)
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
