package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/database"
	"github.com/sahilchouksey/intern-track/handlers"
	auth_handlers "github.com/sahilchouksey/intern-track/handlers/auth"
	certificate_handlers "github.com/sahilchouksey/intern-track/handlers/certificate"
	course_handlers "github.com/sahilchouksey/intern-track/handlers/course"
	dashboard_handlers "github.com/sahilchouksey/intern-track/handlers/dashboard"
	internship_handlers "github.com/sahilchouksey/intern-track/handlers/internship"
	live_handlers "github.com/sahilchouksey/intern-track/handlers/live"
	logbook_handlers "github.com/sahilchouksey/intern-track/handlers/logbook"
	plan_handlers "github.com/sahilchouksey/intern-track/handlers/plan"
	rating_handlers "github.com/sahilchouksey/intern-track/handlers/rating"
	student_handlers "github.com/sahilchouksey/intern-track/handlers/student"
	upload_handlers "github.com/sahilchouksey/intern-track/handlers/upload"
	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services"
	"github.com/sahilchouksey/intern-track/services/blobstore"
	"github.com/sahilchouksey/intern-track/services/realtime"
	"github.com/sahilchouksey/intern-track/services/session"
	"github.com/sahilchouksey/intern-track/utils"
	"github.com/sahilchouksey/intern-track/utils/cache"
	"github.com/sahilchouksey/intern-track/utils/middleware"
)

// Deps is everything the routes need, built once at startup
type Deps struct {
	Store  database.Storage
	Cache  cache.Store
	Hub    *realtime.Hub
	Logger *zap.Logger

	// MemoryBlobs is set when uploads go to the in-memory store; its
	// objects are then served under /blobs
	MemoryBlobs *blobstore.MemoryStore

	Sessions     *session.AuthService
	Profiles     *services.ProfileService
	Internships  *services.InternshipService
	Applications *services.ApplicationService
	Logbooks     *services.LogbookService
	Certificates *services.CertificateService
	Uploads      *services.UploadService
	Plans        *services.PlanService
	Courses      *services.CourseService
	Ratings      *services.RatingService
	Dashboards   *services.DashboardService

	AllowedOrigins    string
	RateLimitRequests int
}

func SetupRoutes(app *fiber.App, d *Deps) {
	var bruteForceProtection *middleware.BruteForceProtection
	if d.Cache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(d.Cache, d.Logger)
	}

	authMiddleware := middleware.NewAuthMiddleware(d.Sessions)

	authHandler := auth_handlers.NewAuthHandler(d.Sessions, d.Profiles, bruteForceProtection, d.Logger)
	internshipHandler := internship_handlers.NewInternshipHandler(d.Internships, d.Applications)
	logbookHandler := logbook_handlers.NewLogbookHandler(d.Logbooks)
	certificateHandler := certificate_handlers.NewCertificateHandler(d.Certificates, d.Uploads, d.Logger)
	uploadHandler := upload_handlers.NewHandler(d.Uploads.Tracker())
	planHandler := plan_handlers.NewPlanHandler(d.Plans, d.Logger)
	courseHandler := course_handlers.NewCourseHandler(d.Courses)
	ratingHandler := rating_handlers.NewRatingHandler(d.Ratings)
	studentHandler := student_handlers.NewStudentHandler(d.Profiles)
	dashboardHandler := dashboard_handlers.NewDashboardHandler(d.Dashboards)
	liveHandler := live_handlers.NewLiveHandler(d.Hub, live_handlers.Services{
		Internships:  d.Internships,
		Applications: d.Applications,
		Logbooks:     d.Logbooks,
		Certificates: d.Certificates,
		Plans:        d.Plans,
	}, d.Logger)

	// A zero rate limit disables the limiter
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    d.AllowedOrigins,
		RateLimitRequests: d.RateLimitRequests,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, d.Store))
	if d.MemoryBlobs != nil {
		app.Get("/blobs/*", handlers.ServeMemoryBlob(d.MemoryBlobs))
	}

	api := app.Group("/api/v1")

	student := authMiddleware.RequireRole(model.RoleStudent)
	faculty := authMiddleware.RequireRole(model.RoleFaculty)
	college := authMiddleware.RequireRole(model.RoleCollege)
	company := authMiddleware.RequireRole(model.RoleCompany)
	staff := authMiddleware.RequireRole(model.RoleFaculty, model.RoleCollege)
	reviewer := authMiddleware.RequireRole(model.RoleFaculty, model.RoleCollege, model.RoleCompany)

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

	// Everything below requires a signed-in user
	protected := api.Group("", authMiddleware.Required())

	profile := protected.Group("/profile")
	profile.Get("/", authHandler.GetProfile)
	profile.Post("/skills", student, authHandler.AddSkill)
	profile.Delete("/skills", student, authHandler.RemoveSkill)
	profile.Post("/photo", authHandler.UploadPhoto)

	internships := protected.Group("/internships")
	internships.Get("/", internshipHandler.ListInternships)
	internships.Get("/mine", company, internshipHandler.ListMyInternships)
	internships.Post("/", company, internshipHandler.CreateInternship)
	internships.Get("/:id", internshipHandler.GetInternship)
	internships.Delete("/:id", company, internshipHandler.DeleteInternship)
	internships.Post("/:id/apply", student, internshipHandler.Apply)

	applications := protected.Group("/applications")
	applications.Get("/mine", student, internshipHandler.ListMyApplications)
	applications.Get("/pending", staff, internshipHandler.ListPendingApplications)
	applications.Get("/received", company, internshipHandler.ListReceivedApplications)
	applications.Patch("/:id/status", reviewer, internshipHandler.UpdateApplicationStatus)

	logbooks := protected.Group("/logbooks")
	logbooks.Get("/", logbookHandler.ListEntries)
	logbooks.Post("/", student, logbookHandler.CreateEntry)
	logbooks.Put("/:id/feedback", faculty, logbookHandler.AddFeedback)

	certificates := protected.Group("/certificates")
	certificates.Get("/", certificateHandler.ListCertificates)
	certificates.Post("/", student, certificateHandler.UploadCertificate)
	certificates.Patch("/:id/status", staff, certificateHandler.ReviewCertificate)

	uploads := protected.Group("/uploads")
	uploads.Get("/active", uploadHandler.GetActive)
	uploads.Get("/:job_id", uploadHandler.GetJob)

	plans := protected.Group("/plans")
	plans.Get("/", planHandler.ListPlans)
	plans.Post("/", faculty, planHandler.SubmitPlan)

	courses := protected.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/recommended", courseHandler.RecommendedCourses)
	courses.Post("/", college, courseHandler.CreateCourse)

	protected.Post("/ratings", company, ratingHandler.SubmitRating)

	students := protected.Group("/students")
	students.Get("/", staff, studentHandler.ListStudents)
	students.Get("/:id", studentHandler.GetStudent)
	students.Put("/:id/faculty", college, studentHandler.AssignFaculty)
	students.Get("/:id/ratings", ratingHandler.ListRatings)

	protected.Get("/dashboard", staff, dashboardHandler.GetDashboard)

	live := protected.Group("/live")
	live.Get("/applications", student, liveHandler.Applications)
	live.Get("/logbooks", student, liveHandler.Logbooks)
	live.Get("/certificates", authMiddleware.RequireRole(model.RoleStudent, model.RoleFaculty, model.RoleCollege), liveHandler.Certificates)
	live.Get("/plans", student, liveHandler.Plans)
	live.Get("/internships", company, liveHandler.Internships)
}
