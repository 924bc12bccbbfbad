package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

type Config struct {
	App       *App
	HTTP      *HTTP
	Mongo     *Mongo
	Redis     *Redis
	Scylla    *Scylla
	Stripe    *Stripe
	SMTP      *SMTP
	MinIO     *MinIO
	Scheduler *Scheduler

	// DotEnvLoaded vaut false quand aucun .env n'a été trouvé.
	DotEnvLoaded bool
}

type App struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Mode     string `env:"APP_MODE" envDefault:"DEV"`
}

type HTTP struct {
	Port        string   `env:"PORT" envDefault:"8000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
}

type Mongo struct {
	URI      string `env:"MONGODB_URL"`
	Database string `env:"MONGODB_DATABASE" envDefault:"agriconnect"`
}

// Redis est optionnel : sans REDIS_HOST, pas de verrou distribué ni de cache produit.
type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Password string `env:"REDIS_PASSWORD"`
}

// Scylla porte le catalogue produits (keyspace produits uniquement).
type Scylla struct {
	Hosts    []string      `env:"SCYLLA_HOSTS" envSeparator:","`
	Keyspace string        `env:"SCYLLA_KS_PRODUCTS_KEYSPACE"`
	Username string        `env:"SCYLLA_USERNAME"`
	Password string        `env:"SCYLLA_PASSWORD"`
	Timeout  time.Duration `env:"SCYLLA_TIMEOUT" envDefault:"5s"`
}

type Stripe struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	Currency      string `env:"STRIPE_CURRENCY" envDefault:"inr"`
	SuccessURL    string `env:"CHECKOUT_SUCCESS_URL" envDefault:"https://agriconnectecommerce.netlify.app/success?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL     string `env:"CHECKOUT_CANCEL_URL" envDefault:"https://agriconnectecommerce.netlify.app/cancel"`
}

// SMTP sert aux alertes opérationnelles ; sans SMTP_HOST elles sont seulement loggées.
type SMTP struct {
	Host     string   `env:"SMTP_HOST"`
	Port     int      `env:"SMTP_PORT" envDefault:"587"`
	Username string   `env:"SMTP_USERNAME"`
	Password string   `env:"SMTP_PASSWORD"`
	From     string   `env:"ALERT_FROM" envDefault:"noreply@agriconnect.app"`
	To       []string `env:"ALERT_TO" envSeparator:","`
}

// MinIO héberge les images produit ; sans MINIO_ENDPOINT les URLs du
// catalogue sont renvoyées telles quelles.
type MinIO struct {
	Endpoint  string        `env:"MINIO_ENDPOINT"`
	AccessKey string        `env:"MINIO_ACCESS_KEY"`
	SecretKey string        `env:"MINIO_SECRET_KEY"`
	Bucket    string        `env:"MINIO_BUCKET" envDefault:"agriconnect-images"`
	Region    string        `env:"MINIO_REGION" envDefault:"us-east-1"`
	UseSSL    bool          `env:"MINIO_USE_SSL" envDefault:"false"`
	URLExpiry time.Duration `env:"MINIO_URL_EXPIRY" envDefault:"1h"`
}

type Scheduler struct {
	DeliveryAfterDays int           `env:"ORDER_DELIVERY_AFTER_DAYS" envDefault:"3"`
	RunAt             string        `env:"ORDER_STATUS_RUN_AT" envDefault:"00:00"`
	Timezone          string        `env:"ORDER_STATUS_TIMEZONE" envDefault:"Local"`
	LockTTL           time.Duration `env:"SCHEDULER_LOCK_TTL" envDefault:"30m"`
}

// Load charge .env s'il existe puis lit les variables d'environnement.
func Load() (*Config, error) {
	dotEnvLoaded := godotenv.Load(".env") == nil

	var (
		app       App
		http      HTTP
		mongo     Mongo
		redis     Redis
		scylla    Scylla
		stripe    Stripe
		smtp      SMTP
		minio     MinIO
		scheduler Scheduler
	)

	for name, target := range map[string]any{
		"app":       &app,
		"http":      &http,
		"mongo":     &mongo,
		"redis":     &redis,
		"scylla":    &scylla,
		"stripe":    &stripe,
		"smtp":      &smtp,
		"minio":     &minio,
		"scheduler": &scheduler,
	} {
		if err := env.Parse(target); err != nil {
			return nil, fmt.Errorf("error parsing %s config: %w", name, err)
		}
	}

	return &Config{
		App:       &app,
		HTTP:      &http,
		Mongo:     &mongo,
		Redis:     &redis,
		Scylla:    &scylla,
		Stripe:    &stripe,
		SMTP:      &smtp,
		MinIO:     &minio,
		Scheduler: &scheduler,

		DotEnvLoaded: dotEnvLoaded,
	}, nil
}

var (
	ErrMissingMongoURI      = errors.New("MONGODB_URL manquant")
	ErrMissingStripeKey     = errors.New("STRIPE_SECRET_KEY manquant")
	ErrMissingWebhookSecret = errors.New("STRIPE_WEBHOOK_SECRET manquant")
	ErrInvalidLockTTL       = errors.New("SCHEDULER_LOCK_TTL doit être positif")
	ErrInvalidDeliveryDelay = errors.New("ORDER_DELIVERY_AFTER_DAYS ne peut pas être négatif")
)

// Validate vérifie ce dont le serveur a besoin pour démarrer.
func (c *Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, ErrMissingMongoURI)
	}
	if c.Stripe.SecretKey == "" {
		errs = append(errs, ErrMissingStripeKey)
	}
	if c.Stripe.WebhookSecret == "" {
		errs = append(errs, ErrMissingWebhookSecret)
	}
	if _, _, err := c.Scheduler.Clock(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Scheduler.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Scheduler.LockTTL <= 0 {
		errs = append(errs, ErrInvalidLockTTL)
	}
	if c.Scheduler.DeliveryAfterDays < 0 {
		errs = append(errs, ErrInvalidDeliveryDelay)
	}
	return errors.Join(errs...)
}

// Clock renvoie l'heure et la minute de ORDER_STATUS_RUN_AT ("HH:MM").
func (s *Scheduler) Clock() (int, int, error) {
	t, err := time.Parse("15:04", s.RunAt)
	if err != nil {
		return 0, 0, fmt.Errorf("ORDER_STATUS_RUN_AT invalide %q: %w", s.RunAt, err)
	}
	return t.Hour(), t.Minute(), nil
}

func (s *Scheduler) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ORDER_STATUS_TIMEZONE invalide %q: %w", s.Timezone, err)
	}
	return loc, nil
}
