package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"agriconnect_back_end/internal/cache"
	"agriconnect_back_end/internal/config"
	"agriconnect_back_end/internal/handlers/payement"
	"agriconnect_back_end/internal/handlers/user"
	"agriconnect_back_end/internal/routes"
	"agriconnect_back_end/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Démarre l'API HTTP et le scheduler de livraison",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.App.Mode == config.AppModeProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	routes.RegisterRoutes(r, routes.Handlers{
		Payment: payement.NewHandler(a.verifier, a.reconciler, a.gateway, a.cfg.Stripe.WebhookSecret, a.log.Named("payment")),
		Orders:  user.NewOrderHandler(a.orders, a.log.Named("orders")),
	}, routes.Options{
		CORSOrigins: a.cfg.HTTP.CORSOrigins,
		Redis:       a.conns.Redis,
	}, a.log)

	sched, err := a.deliveryScheduler()
	if err != nil {
		return err
	}
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", a.cfg.HTTP.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("🚀 Serveur AgriConnect lancé", zap.String("port", a.cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		a.log.Info("🛑 Arrêt demandé")
	case err := <-serveErr:
		if err != nil {
			stop()
			<-schedDone
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("❌ Arrêt HTTP incomplet", zap.Error(err))
	}
	<-schedDone
	a.log.Info("👋 Serveur arrêté")
	return nil
}

// deliveryScheduler programme la promotion Shipped → Delivered chaque jour à
// ORDER_STATUS_RUN_AT. Avec Redis, un seul réplica l'exécute.
func (a *app) deliveryScheduler() (*scheduler.Scheduler, error) {
	hour, minute, err := a.cfg.Scheduler.Clock()
	if err != nil {
		return nil, err
	}
	loc, err := a.cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}

	opts := []scheduler.Option{
		scheduler.WithTimeout(a.cfg.Scheduler.LockTTL),
		scheduler.WithAlerter(a.alerter),
	}
	if a.conns.Redis != nil {
		opts = append(opts, scheduler.WithLocker(cache.NewRedisLocker(a.conns.Redis)))
	}

	ticker := scheduler.NewDailyTicker(hour, minute, loc)
	a.log.Info("⏰ Promotion des livraisons programmée",
		zap.String("run_at", a.cfg.Scheduler.RunAt),
		zap.String("timezone", loc.String()),
		zap.Time("next_run", scheduler.NextRun(time.Now(), hour, minute, loc)))

	return scheduler.New("promote-delivered", a.promoteJob, ticker, a.log.Named("scheduler"), opts...), nil
}

func (a *app) promoteJob(ctx context.Context) error {
	_, err := a.promoter.PromoteDelivered(ctx)
	return err
}
