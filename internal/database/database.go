package database

import (
	"context"
	"fmt"
	"time"

	"agriconnect_back_end/internal/config"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Connections regroupe les clients partagés du process. Construit une fois au
// démarrage, passé explicitement aux composants, fermé à l'arrêt.
// Redis et Scylla sont nil quand ils ne sont pas configurés.
type Connections struct {
	Mongo   *mongo.Client
	MongoDB *mongo.Database
	Redis   *redis.Client
	Scylla  *gocql.Session

	logger *zap.Logger
}

func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conns := &Connections{logger: log}

	client, err := connectMongo(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	conns.Mongo = client
	conns.MongoDB = client.Database(cfg.Mongo.Database)
	log.Info("✅ Connecté à MongoDB", zap.String("database", cfg.Mongo.Database))

	if cfg.Redis.Host != "" {
		rdb, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			conns.Close(context.Background())
			return nil, err
		}
		conns.Redis = rdb
		log.Info("✅ Connecté à Redis", zap.String("host", cfg.Redis.Host))
	} else {
		log.Warn("⚠️ REDIS_HOST absent : verrou du scheduler local et cache produit désactivé")
	}

	if len(cfg.Scylla.Hosts) > 0 && cfg.Scylla.Keyspace != "" {
		session, err := connectScylla(cfg.Scylla)
		if err != nil {
			conns.Close(context.Background())
			return nil, err
		}
		conns.Scylla = session
		log.Info("✅ Session ScyllaDB ouverte", zap.String("keyspace", cfg.Scylla.Keyspace))
	} else {
		log.Warn("⚠️ Catalogue ScyllaDB non configuré : les commandes sont listées sans détail produit")
	}

	return conns, nil
}

func connectMongo(ctx context.Context, cfg *config.Mongo) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetRegistry(NewRegistry())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connexion MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, nil
}

func connectRedis(ctx context.Context, cfg *config.Redis) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Host,
		Password:     cfg.Password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connexion Redis: %w", err)
	}
	return rdb, nil
}

func connectScylla(cfg *config.Scylla) (*gocql.Session, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = cfg.Timeout
	cluster.ReconnectInterval = 1 * time.Second
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("session ScyllaDB pour %s: %w", cfg.Keyspace, err)
	}
	return session, nil
}

// Close ferme chaque client ouvert ; les erreurs sont seulement loggées.
func (c *Connections) Close(ctx context.Context) {
	if c.Scylla != nil {
		c.Scylla.Close()
		c.logger.Info("🔌 Session ScyllaDB fermée")
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("fermeture Redis", zap.Error(err))
		}
	}
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			c.logger.Error("déconnexion MongoDB", zap.Error(err))
		}
	}
}
