package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"pathlight-web/internal/container"
	"pathlight-web/internal/middleware"
)

// NewRouter configures the HTTP router. The returned limiter should be swept
// periodically by the caller.
func NewRouter(c *container.Container) (*chi.Mux, *middleware.RateLimiter, error) {
	cfg := c.GetConfig()
	log := c.GetLogger()

	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.TokenStore(c.CookieOptions()))

	healthHandler := NewHealthHandler(c)
	authHandler := NewAuthHandler(c)
	oauthHandler := NewOAuthHandler(c)
	userHandler := NewUserHandler(c)
	courseHandler := NewCourseHandler(c)
	pageHandler, err := NewPageHandler(c, authHandler)
	if err != nil {
		return nil, nil, err
	}

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	requirePage := middleware.RequireSession(c.Guard, log)
	requireAPI := middleware.RequireSessionAPI(c.Guard, log)

	r.Get("/health", healthHandler.Check)
	r.Handle("/static/*", http.StripPrefix("/static/", StaticFiles()))

	// Pages
	r.Get("/", pageHandler.Home)
	r.Route("/auth", func(r chi.Router) {
		r.Get("/signin", pageHandler.SignInPage)
		r.Get("/signup", pageHandler.SignUpPage)
		r.Get("/verify-email-sent", pageHandler.VerifyEmailSentPage)
		r.Get("/verify-email", pageHandler.VerifyEmailPage)
		r.Post("/signout", pageHandler.SignOutSubmit)

		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware(log))
			r.Post("/signin", pageHandler.SignInSubmit)
			r.Post("/signup", pageHandler.SignUpSubmit)
			r.Post("/verify-email-sent", pageHandler.ResendVerificationSubmit)
		})

		r.Get("/{provider}/login", oauthHandler.Login)
		r.Get("/{provider}/callback", oauthHandler.Callback)
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePage)
		r.Get("/dashboard", pageHandler.DashboardPage)
		r.Get("/profile", pageHandler.ProfilePage)
		r.Post("/profile", pageHandler.ProfileSubmit)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/session", authHandler.Session)
			r.Post("/signout", authHandler.SignOut)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(limiter.Middleware(log))
				r.Post("/signin", authHandler.SignIn)
				r.Post("/signup", authHandler.SignUp)
				r.Post("/verify-email", authHandler.VerifyEmail)
				r.Post("/resend-verification", authHandler.ResendVerification)
				r.Post("/forget-password", authHandler.ForgetPassword)
				r.Get("/validate-reset-token/{token}", authHandler.ValidateResetToken)
				r.Post("/reset-password/{token}", authHandler.ResetPassword)
			})
		})

		// Everything below needs a usable token
		r.Group(func(r chi.Router) {
			r.Use(requireAPI)

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile", userHandler.GetProfile)
				r.Put("/profile", userHandler.UpdateProfile)
				r.Get("/me", userHandler.Me)
				r.Get("/dashboard", userHandler.Dashboard)
				r.Post("/avatar", userHandler.UploadAvatar)
				r.Get("/avatar", userHandler.AvatarByID)
				r.Get("/notify-time", userHandler.GetNotifyTime)
				r.Put("/notify-time", userHandler.SetNotifyTime)
				r.Get("/activity", userHandler.Activity)
				r.Post("/users-by-ids", userHandler.UsersByIDs)
			})

			r.Route("/courses", func(r chi.Router) {
				r.Get("/", courseHandler.ListCourses)
				r.Post("/", courseHandler.CreateCourse)
				r.Get("/{id}", courseHandler.GetCourse)
				r.Put("/{id}", courseHandler.UpdateCourse)
				r.Delete("/{id}", courseHandler.DeleteCourse)
				r.Post("/{id}/enroll", courseHandler.Enroll)
			})

			r.Route("/quizzes", func(r chi.Router) {
				r.Get("/", courseHandler.ListQuizzes)
				r.Post("/", courseHandler.CreateQuiz)
				r.Get("/history", courseHandler.QuizHistory)
				r.Get("/{id}", courseHandler.GetQuiz)
				r.Put("/{id}", courseHandler.UpdateQuiz)
				r.Delete("/{id}", courseHandler.DeleteQuiz)
				r.Post("/{id}/submit", courseHandler.SubmitQuiz)
				r.Get("/{id}/result", courseHandler.QuizResult)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":{"type":"not_found","message":"Endpoint not found"}}`))
	})

	log.Info("Router configured successfully")
	return r, limiter, nil
}
