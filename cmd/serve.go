package cmd

import (
	"context"
	"net"
	"time"

	"github.com/projectcamp/ms-go-projects/app/controller"
	"github.com/projectcamp/ms-go-projects/app/entity"
	"github.com/projectcamp/ms-go-projects/app/mail"
	"github.com/projectcamp/ms-go-projects/app/middleware"
	"github.com/projectcamp/ms-go-projects/app/repository"
	"github.com/projectcamp/ms-go-projects/app/service"
	"github.com/projectcamp/ms-go-projects/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the project management backend.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	db := client.Database(cfg.MongoDB)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	memberRepo := repository.NewProjectMemberRepository(db)
	txRunner := repository.NewMongoTxRunner(client)

	tokenService := service.NewTokenService(cfg)
	userAuthService := service.NewUserAuthService(userRepo, tokenService, newMailer(cfg), cfg)
	projectService := service.NewProjectService(projectRepo, memberRepo, userRepo, txRunner)

	startHTTPServer(cfg, tokenService, userAuthService, projectService)
}

func newMailer(cfg *config.Config) mail.Mailer {
	if cfg.SMTP.Host == "" {
		logrus.Warn("SMTP_HOST not set, outbound mail goes to the log")
		return mail.NewLogMailer()
	}
	return mail.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
}

func startHTTPServer(
	cfg *config.Config,
	tokenService *service.TokenService,
	userAuthService service.UserAuthService,
	projectService service.ProjectService,
) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowCredentials: cfg.CORSOrigin != "*",
	}))

	cookies := controller.NewCookieHelper(cfg)
	authController := controller.NewAuthController(userAuthService, cookies)
	projectController := controller.NewProjectController(projectService)
	authMiddleware := middleware.NewAuthMiddleware(tokenService, projectService)

	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", authController.Register)
	auth.POST("/login", authController.Login)
	auth.GET("/verify-email/:token", authController.VerifyEmail)
	auth.POST("/refresh-token", authController.RefreshToken)
	auth.POST("/forgot-password", authController.ForgotPassword)
	auth.POST("/reset-password/:token", authController.ResetPassword)

	authProtected := auth.Group("")
	authProtected.Use(authMiddleware.RequireAuth)
	authProtected.POST("/logout", authController.Logout)
	authProtected.POST("/change-password", authController.ChangePassword)
	authProtected.GET("/current-user", authController.CurrentUser)
	authProtected.POST("/resend-email-verification", authController.ResendEmailVerification)

	// Per-route allow-lists: the role guard runs before every project
	// handler that needs it; creating a project needs no guard since the
	// creator self-assigns admin.
	anyRole := authMiddleware.RequireProjectRole(entity.AllRoles...)
	adminOnly := authMiddleware.RequireProjectRole(entity.RoleAdmin)

	projects := api.Group("/projects")
	projects.Use(authMiddleware.RequireAuth)
	projects.GET("", projectController.List)
	projects.POST("", projectController.Create)
	projects.GET("/:projectId", projectController.Get, anyRole)
	projects.PUT("/:projectId", projectController.Update, adminOnly)
	projects.DELETE("/:projectId", projectController.Delete, adminOnly)
	projects.GET("/:projectId/members", projectController.ListMembers, anyRole)
	projects.POST("/:projectId/members", projectController.AddMember, adminOnly)
	projects.PUT("/:projectId/members/:userId", projectController.UpdateMemberRole, adminOnly)
	projects.DELETE("/:projectId/members/:userId", projectController.RemoveMember, adminOnly)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}
