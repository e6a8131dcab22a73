package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lessonloop/internal/app"
	"lessonloop/internal/config"
	"lessonloop/internal/infra/genai"
	"lessonloop/internal/infra/identity"
	transport "lessonloop/internal/transport/http"
	"lessonloop/internal/validation"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP and websocket server",
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
	logger := newLogger("lessonloop", cfg.Log.Level)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	validator := validation.New()
	var generator app.QuestionGenerator
	if cfg.GenAI.APIKey != "" {
		generator = genai.NewClient(cfg.GenAI.APIKey, cfg.GenAI.Model, cfg.GenAI.BaseURL,
			config.TTLDuration(cfg.GenAI.Timeout, 30*time.Second), validator)
	} else {
		logger.Warnf("genai api key not configured, question generation disabled")
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Warnf("jwt secret not configured, every authenticated request will fail")
	}

	notifications := app.NewNotificationService(b.stores.Notifications)
	services := transport.Services{
		Users:         app.NewUserService(b.stores.Users, identity.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.Issuer), cfg.Auth.TeacherRegistrationCode),
		Classes:       app.NewClassService(b.stores),
		Quizzes:       app.NewQuizService(b.stores, notifications, generator).WithReporter(logReporter{logger}),
		Polls:         app.NewPollService(b.stores, b.events, notifications).WithReporter(logReporter{logger}),
		Attendance:    app.NewAttendanceService(b.stores),
		Notifications: notifications,
		Analytics:     app.NewAnalyticsService(b.stores),
	}
	router := transport.NewRouter(services, transport.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
		Validator:      validator,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		logger.Infof("starting lessonloop on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infof("shutting down server...")
	case <-ctx.Done():
		logger.Infof("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
