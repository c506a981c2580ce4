package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpAdapter "github.com/khoahotran/internmatch-client/adapters/http"
	"github.com/khoahotran/internmatch-client/adapters/persistence"
	"github.com/khoahotran/internmatch-client/internal/domain/user"
	"github.com/khoahotran/internmatch-client/pkg/auth"
	"github.com/khoahotran/internmatch-client/pkg/tracing"
)

var (
	seedAccount  user.Account
	seedPassword string

	devserverCmd = &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory backend that speaks the same API, for local development",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadBase()
		},
		RunE: runDevServer,
	}
)

func runDevServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(cfg, log, cfg.App.Name+"-devserver")
	if err != nil {
		log.Warn("Tracing unavailable", zap.Error(err))
	} else if tp != nil {
		defer shutdownTracer(tp, log)
	}

	users := persistence.NewMemoryUserRepo()
	if seedAccount.Email != "" {
		hash, err := auth.HashPassword(seedPassword)
		if err != nil {
			return err
		}
		seedAccount.PasswordHash = hash
		if err := users.Create(ctx, &seedAccount); err != nil {
			return err
		}
		log.Info("Seeded account", zap.String("email", seedAccount.Email), zap.String("role", seedAccount.Role))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpAdapter.NewRouter(cfg.App.Name+"-devserver", httpAdapter.RouterDeps{
		Users:    users,
		Profiles: persistence.NewMemoryProfileRepo(log),
		Media:    persistence.NewMemoryMediaRepo(),
		JWT:      auth.NewJWTService(cfg.DevServer.JWTSecret, cfg.DevServer.TokenLifespan),
		MaxBytes: cfg.Assets.MaxBytes,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.DevServer.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Development backend listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("Shutting down development backend")
	return srv.Shutdown(shutdownCtx)
}

func init() {
	devserverCmd.Flags().StringVar(&seedAccount.Email, "seed-email", "", "create this account at startup")
	devserverCmd.Flags().StringVar(&seedPassword, "seed-password", "password", "password of the seeded account")
	devserverCmd.Flags().StringVar(&seedAccount.FirstName, "seed-first-name", "Dev", "first name of the seeded account")
	devserverCmd.Flags().StringVar(&seedAccount.LastName, "seed-last-name", "User", "last name of the seeded account")
	devserverCmd.Flags().StringVar(&seedAccount.Role, "seed-role", "USER", "role of the seeded account: USER, ADMIN or MANAGER")
}
