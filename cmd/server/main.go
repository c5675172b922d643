package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-errors"
	events "github.com/goliatone/go-events"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config   *events.Config
	bunDB    *bun.DB
	repo     events.RepositoryManager
	notifier events.Notifier
	tokens   events.TokenService
	auth     events.Authenticator
	srv      *fiber.App
	logger   *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

// loggerAdapter bridges glog's structured logger to the package's
// printf-shaped Logger interface.
type loggerAdapter struct {
	lgr glog.Logger
}

func (l loggerAdapter) Debug(format string, args ...any) { l.lgr.Debug(fmt.Sprintf(format, args...)) }
func (l loggerAdapter) Info(format string, args ...any)  { l.lgr.Info(fmt.Sprintf(format, args...)) }
func (l loggerAdapter) Error(format string, args ...any) { l.lgr.Error(fmt.Sprintf(format, args...)) }

func main() {
	cfg, err := events.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level := glog.Info
	if cfg.Debug {
		level = glog.Trace
	}

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(level),
		glog.WithName("go-events"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if cfg.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(cfg))
		fmt.Println("============")
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		lgr.GetLogger("boot").Error("persistence setup failed", "error", err)
		os.Exit(1)
	}

	WithNotifier(app)
	WithAuth(app)

	if err := WithHTTPServer(app); err != nil {
		lgr.GetLogger("boot").Error("http setup failed", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := app.srv.Listen(cfg.Addr()); err != nil {
			lgr.GetLogger("http").Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	WaitExitSignal()

	if err := app.srv.Shutdown(); err != nil {
		lgr.GetLogger("http").Error("shutdown failed", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, app.config.DSN)
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := events.BootstrapSchema(ctx, db); err != nil {
		return err
	}

	repo := events.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	app.bunDB = db
	app.repo = repo

	return nil
}

func WithNotifier(app *App) {
	if !app.config.SMTP.Enabled() {
		app.GetLogger("mail").Info("smtp not configured, codes will be logged")
		app.notifier = events.NewLogNotifier(loggerAdapter{lgr: app.GetLogger("mail")})
		return
	}

	notifier, err := events.NewSMTPNotifier(app.config.SMTP, loggerAdapter{lgr: app.GetLogger("mail")})
	if err != nil {
		app.GetLogger("mail").Error("smtp setup failed, falling back to log notifier", "error", err)
		app.notifier = events.NewLogNotifier(loggerAdapter{lgr: app.GetLogger("mail")})
		return
	}

	app.notifier = notifier
}

func WithAuth(app *App) {
	app.tokens = events.NewTokenService(
		[]byte(app.config.SigningKey),
		app.config.TokenExpiration,
		app.config.Issuer,
		nil,
		loggerAdapter{lgr: app.GetLogger("auth:tokens")},
	)

	app.auth = events.NewAuthenticator(app.repo, app.tokens).
		WithLogger(loggerAdapter{lgr: app.GetLogger("auth")})
}

func WithHTTPServer(app *App) error {
	srv := fiber.New(fiber.Config{
		AppName: "go-events",
	})

	srv.Use(recover.New())
	srv.Use(cors.New(cors.Config{
		AllowOrigins: app.config.AllowedOrigin,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + events.DefaultAuthHeader,
	}))

	users := events.NewUserController(app.repo, app.auth, app.notifier)
	users.Debug = app.config.Debug
	users.Logger = loggerAdapter{lgr: app.GetLogger("http:users")}

	evts := events.NewEventController(app.repo)
	evts.Debug = app.config.Debug
	evts.Logger = loggerAdapter{lgr: app.GetLogger("http:events")}

	admin := events.NewAdminController(app.repo)
	admin.Debug = app.config.Debug
	admin.Logger = loggerAdapter{lgr: app.GetLogger("http:admin")}

	guardLogger := loggerAdapter{lgr: app.GetLogger("http:guard")}
	guard := events.NewAuthGuard(events.GuardConfig{
		Validator: app.tokens,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			guardLogger.Debug("rejected request %s: %s", c.Path(), err)
			return events.RenderGuardError(c, err)
		},
	})
	requireAdmin := events.RequireAdmin(events.DefaultContextKey, nil)

	srv.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	events.RegisterRoutes(srv, users, evts, admin, guard, requireAdmin)

	app.srv = srv
	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
