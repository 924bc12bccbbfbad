package main

import (
	"context"
	"fmt"

	"agriconnect_back_end/internal/cache"
	"agriconnect_back_end/internal/config"
	"agriconnect_back_end/internal/database"
	"agriconnect_back_end/internal/logger"
	"agriconnect_back_end/internal/orders"
	"agriconnect_back_end/internal/services"
	"agriconnect_back_end/internal/store"
	"agriconnect_back_end/internal/utils"

	"go.uber.org/zap"
)

// app rassemble les dépendances construites au démarrage. Aucune n'est globale.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	conns *database.Connections

	alerter    utils.Alerter
	gateway    *services.StripeGateway
	verifier   *services.WebhookVerifier
	catalog    *cache.ProductCatalog
	reconciler *orders.Reconciler
	orders     *orders.Service
	promoter   *orders.StatusPromoter
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalide: %w", err)
	}

	log, err := logger.NewLogger(cfg.App)
	if err != nil {
		return nil, err
	}
	if !cfg.DotEnvLoaded {
		log.Info("ℹ️ Pas de fichier .env, lecture de l'environnement seul")
	}

	conns, err := database.Connect(ctx, cfg, log.Named("database"))
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	orderStore := store.NewMongoOrderStore(conns.MongoDB, log.Named("store"))
	if err := orderStore.EnsureIndexes(ctx); err != nil {
		conns.Close(context.Background())
		return nil, err
	}

	loc, _ := cfg.Scheduler.Location()
	alerter := utils.NewAlerter(cfg.SMTP, log.Named("alert"))
	gateway := services.NewStripeGateway(cfg.Stripe, log.Named("stripe"))

	catalogOpts := []cache.CatalogOption{
		cache.WithLegacySource(store.NewMongoProductReader(conns.MongoDB)),
	}
	if cfg.MinIO.Endpoint != "" {
		signer, err := services.NewImageSigner(cfg.MinIO, log.Named("minio"))
		if err != nil {
			conns.Close(context.Background())
			return nil, err
		}
		catalogOpts = append(catalogOpts, cache.WithImageSigner(signer))
	} else {
		log.Warn("⚠️ MINIO_ENDPOINT absent : images produit renvoyées sans signature")
	}
	catalog := cache.NewProductCatalog(conns.Scylla, conns.Redis, log.Named("catalog"), catalogOpts...)

	return &app{
		cfg:      cfg,
		log:      log,
		conns:    conns,
		alerter:  alerter,
		gateway:  gateway,
		verifier: services.NewWebhookVerifier(),
		catalog:  catalog,
		reconciler: orders.NewReconciler(orderStore, store.NewMongoCartCleaner(conns.MongoDB),
			gateway, alerter, log.Named("reconciler")),
		orders:   orders.NewService(orderStore, catalog, log.Named("orders")),
		promoter: orders.NewStatusPromoter(orderStore, cfg.Scheduler.DeliveryAfterDays, loc, log.Named("promoter")),
	}, nil
}

func (a *app) close() {
	a.conns.Close(context.Background())
	_ = a.log.Sync()
}
