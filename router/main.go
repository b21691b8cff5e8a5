package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/feocourse/feocourse-api/database"
	"github.com/feocourse/feocourse-api/handlers"
	admin_handlers "github.com/feocourse/feocourse-api/handlers/admin"
	auth_handlers "github.com/feocourse/feocourse-api/handlers/auth"
	cart_handlers "github.com/feocourse/feocourse-api/handlers/cart"
	course_handlers "github.com/feocourse/feocourse-api/handlers/course"
	enrollment_handlers "github.com/feocourse/feocourse-api/handlers/enrollment"
	payment_handlers "github.com/feocourse/feocourse-api/handlers/payment"
	"github.com/feocourse/feocourse-api/utils"
	"github.com/feocourse/feocourse-api/utils/auth"
	"github.com/feocourse/feocourse-api/utils/cache"
	"github.com/feocourse/feocourse-api/utils/middleware"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "feocourse-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and invoice caching will be disabled.", err)
		redisCache = nil
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(db)
	paymentHandler := payment_handlers.NewPaymentHandler(db, redisCache)
	cartHandler := cart_handlers.NewCartHandler(db)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(db)
	adminUserHandler := admin_handlers.NewUserHandler(db)
	dashboardHandler := admin_handlers.NewDashboardHandler(db)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Course catalog and workflow routes. Listing is public but picks up the
	// caller's role when a token is sent, so admins can browse every status.
	courses := api.Group("/courses")
	courses.Get("/", authMiddleware.Optional(), courseHandler.ListCourses)
	courses.Get("/:id", authMiddleware.Optional(), courseHandler.GetCourse)
	courses.Post("/", authMiddleware.RequireLecturer(), courseHandler.CreateCourse)
	courses.Put("/:id", authMiddleware.RequireLecturer(), courseHandler.UpdateCourse)
	courses.Delete("/:id", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(db, "course_delete", "courses"), courseHandler.DeleteCourse)

	// Review workflow: lecturers submit, admins review and publish
	courses.Post("/:id/submit-review", authMiddleware.RequireLecturer(), courseHandler.SubmitReview)
	courses.Post("/:id/review", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(db, "course_review", "courses"), courseHandler.Review)
	courses.Post("/:id/publish", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(db, "course_publish", "courses"), courseHandler.Publish)

	// Payment routes (protected)
	payments := api.Group("/payments", authMiddleware.Required())
	payments.Post("/invoice", paymentHandler.CreateInvoice)
	payments.Post("/process", paymentHandler.ProcessPayment)
	payments.Get("/invoice/:invoiceId", paymentHandler.GetInvoice)

	// Cart routes (protected)
	cart := api.Group("/cart", authMiddleware.Required())
	cart.Get("/", cartHandler.ListCart)
	cart.Post("/", cartHandler.AddToCart)
	cart.Delete("/:course_id", cartHandler.RemoveFromCart)

	// Enrollment routes (protected)
	enrollments := api.Group("/enrollments", authMiddleware.Required())
	enrollments.Get("/", enrollmentHandler.ListMyEnrollments)
	enrollments.Post("/:course_id/complete", enrollmentHandler.CompleteCourse)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.RequireAdmin())
	admin.Get("/dashboard", dashboardHandler.GetDashboard)
	admin.Get("/audit", dashboardHandler.ListAuditLogs)
	admin.Get("/cron-logs", dashboardHandler.ListCronJobLogs)

	admin.Get("/users", adminUserHandler.ListUsers)
	admin.Get("/users/:id", adminUserHandler.GetUser)
	admin.Put("/users/:id", middleware.AdminAuditLog(db, "user_update", "users"), adminUserHandler.UpdateUser)
	admin.Delete("/users/:id", middleware.AdminAuditLog(db, "user_delete", "users"), adminUserHandler.DeleteUser)
	admin.Post("/users/:id/reset-password", middleware.AdminAuditLog(db, "password_reset", "users"), adminUserHandler.ResetUserPassword)

	admin.Post("/enrollments/:user_id/:course_id/delist", middleware.AdminAuditLog(db, "enrollment_delist", "enrollments"), enrollmentHandler.DelistEnrollment)
}
