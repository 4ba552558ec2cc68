package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-password/password"
	"github.com/urfave/cli/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"watchtrack/config"
	"watchtrack/handlers"
	"watchtrack/internal/database"
	"watchtrack/internal/realtime"
	"watchtrack/services/identity"
	"watchtrack/services/watchlist"
	"watchtrack/utils"
)

func main() {
	app := &cli.Command{
		Name:    "watchtrack-server",
		Usage:   "Personal media tracking backend: auth, watchlist storage, change feed",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Listen address, overrides WATCHTRACK_LISTEN_ADDR",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite database path, overrides WATCHTRACK_DB_PATH",
			},
			&cli.StringFlag{
				Name:  "bootstrap-email",
				Usage: "Create this account with a generated password if it does not exist",
			},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("[server] %v", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Load()
	if v := cmd.String("listen"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := cmd.String("db"); v != "" {
		cfg.Server.DatabasePath = v
	}

	setupLogging(cfg.Server.LogFile)

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, err := range errs {
			log.Printf("[server] config: %v", err)
		}
		if cfg.IsProduction() {
			return errors.New("refusing to start with invalid configuration in production")
		}
		if cfg.Server.JWTSecret == "" {
			// Sessions will not survive a restart without a configured secret.
			secret, err := utils.GenerateSecret()
			if err != nil {
				return err
			}
			cfg.Server.JWTSecret = secret
			log.Printf("[server] using a generated JWT secret for this run")
		}
	}

	db, err := database.NewDB(database.Config{DatabasePath: cfg.Server.DatabasePath})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	hub := realtime.NewHub(nil)
	defer hub.Close()

	identitySvc := identity.NewService(db, cfg.Server.JWTSecret)
	watchlistSvc := watchlist.NewService(db.Watchlist, hub)

	if email := cmd.String("bootstrap-email"); email != "" {
		if err := bootstrapAccount(ctx, identitySvc, email); err != nil {
			return err
		}
	}

	router := utils.NewRouter()
	handlers.Register(router,
		handlers.NewAuthHandler(identitySvc),
		handlers.NewWatchlistHandler(watchlistSvc),
		handlers.NewEventsHandler(hub))

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", cfg.Server.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	stop, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	select {
	case err := <-errCh:
		return err
	case <-stop.Done():
	}

	log.Printf("[server] shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}

// bootstrapAccount creates the first account with a generated password and
// prints it once. Re-running against an existing email is a no-op.
func bootstrapAccount(ctx context.Context, svc *identity.Service, email string) error {
	pw, err := password.Generate(20, 4, 0, false, false)
	if err != nil {
		return fmt.Errorf("generate bootstrap password: %w", err)
	}
	_, err = svc.SignUp(ctx, email, pw, "")
	if errors.Is(err, identity.ErrEmailTaken) {
		log.Printf("[server] bootstrap account %s already exists", email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap account: %w", err)
	}
	fmt.Printf("bootstrap account created: %s / %s\n", email, pw)
	return nil
}

func setupLogging(logFile string) {
	if logFile == "" {
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
}
