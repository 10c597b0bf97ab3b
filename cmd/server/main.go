package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/jaypops/Thrillway-Global-Concept-Backend/auth"
	"github.com/jaypops/Thrillway-Global-Concept-Backend/config"
	"github.com/jaypops/Thrillway-Global-Concept-Backend/property"
	"github.com/jaypops/Thrillway-Global-Concept-Backend/storage"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("thrillway"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := config.Load()
	if err != nil {
		lgr.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if cfg.Debug {
		fmt.Println(print.MaybeHighlightJSON(cfg))
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		lgr.Error("database error", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	auth.RegisterMetrics()

	authLogger := printfLogger{log: lgr.GetLogger("auth")}

	tokens := auth.NewTokenService(cfg, authLogger)
	provider := auth.NewAuthenticator(repo).WithLogger(authLogger)
	sessions := auth.NewSessionIssuer(provider, tokens, repo, cfg).WithLogger(authLogger)
	invitations := auth.NewInvitationIssuer(tokens, cfg).WithLogger(authLogger)

	bootstrap := &auth.EnsureAdminHandler{Repo: repo, Logger: authLogger}
	if err := bootstrap.Execute(ctx, auth.EnsureAdminMessage{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}); err != nil {
		lgr.Error("admin bootstrap error", "error", err)
		os.Exit(1)
	}

	var signer storage.UploadURLSigner
	if s3, err := storage.NewS3Signer(ctx, storage.Config{
		Bucket:  cfg.S3Bucket,
		Region:  cfg.S3Region,
		Expires: cfg.S3SignExpires,
	}); err != nil {
		lgr.Warn("uploads disabled", "error", err)
	} else {
		signer = s3
	}

	app := fiber.New(fiber.Config{
		AppName: "thrillway",
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	protected := auth.Protected(tokens, cfg)
	adminOnly := auth.AdminOnly()

	api := app.Group("/api")

	controller := auth.NewHTTPController(sessions, invitations, repo, cfg).WithLogger(authLogger)
	controller.RegisterRoutes(api, protected, adminOnly)

	listings := property.NewController(
		property.NewRepository(db),
		signer,
		printfLogger{log: lgr.GetLogger("property")},
	)
	listings.RegisterRoutes(api, protected, adminOnly)

	app.Get("/metrics", adaptor.HTTPHandler(auth.MetricsHandler()))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			lgr.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	waitExitSignal()

	if err := app.Shutdown(); err != nil {
		lgr.Error("shutdown error", "error", err)
	}
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	models := []any{
		(*auth.Account)(nil),
		(*auth.SessionRecord)(nil),
		(*property.Property)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// printfLogger adapts the structured logger to the printf-style interface
// the components expect.
type printfLogger struct {
	log glog.Logger
}

func (p printfLogger) Debug(format string, args ...any) { p.log.Debug(fmt.Sprintf(format, args...)) }
func (p printfLogger) Info(format string, args ...any)  { p.log.Info(fmt.Sprintf(format, args...)) }
func (p printfLogger) Warn(format string, args ...any)  { p.log.Warn(fmt.Sprintf(format, args...)) }
func (p printfLogger) Error(format string, args ...any) { p.log.Error(fmt.Sprintf(format, args...)) }

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
