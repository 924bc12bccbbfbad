package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"agriconnect_back_end/internal/cache"
	"agriconnect_back_end/internal/utils"

	"go.uber.org/zap"
)

// ErrAlreadyRunning signale un déclenchement ignoré : une exécution est en
// cours dans ce process, ou dans un autre quand un Locker est configuré.
var ErrAlreadyRunning = errors.New("exécution déjà en cours")

type Job func(ctx context.Context) error

// Locker exclut les exécutions concurrentes entre réplicas.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error)
}

// Scheduler exécute job à chaque tick, jamais en parallèle de lui-même.
// Un échec est loggé et alerté ; le tick suivant retente.
type Scheduler struct {
	name    string
	job     Job
	ticker  Ticker
	locker  Locker
	timeout time.Duration
	alerter utils.Alerter
	log     *zap.Logger

	running atomic.Bool
	wg      sync.WaitGroup
}

type Option func(*Scheduler)

// WithLocker ajoute un verrou distribué pris pour la durée d'une exécution.
func WithLocker(l Locker) Option {
	return func(s *Scheduler) { s.locker = l }
}

// WithTimeout borne une exécution ; c'est aussi la durée du verrou distribué.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

func WithAlerter(a utils.Alerter) Option {
	return func(s *Scheduler) { s.alerter = a }
}

func New(name string, job Job, ticker Ticker, log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		name:    name,
		job:     job,
		ticker:  ticker,
		timeout: 30 * time.Minute,
		log:     log.With(zap.String("job", name)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consomme les ticks jusqu'à l'annulation de ctx, puis attend la fin de
// l'exécution en cours.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("⏰ Scheduler démarré")
	defer func() {
		s.ticker.Stop()
		s.wg.Wait()
		s.log.Info("⏰ Scheduler arrêté")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ticker.C():
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if err := s.RunOnce(ctx); errors.Is(err, ErrAlreadyRunning) {
					s.log.Warn("⏭️ Déclenchement ignoré, exécution précédente en cours")
				}
			}()
		}
	}
}

// RunOnce exécute le job immédiatement, sauf si une exécution est déjà en cours.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, s.name, s.timeout)
		if errors.Is(err, cache.ErrLockHeld) {
			return ErrAlreadyRunning
		}
		if err != nil {
			s.fail(ctx, fmt.Errorf("verrou: %w", err))
			return err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("libération du verrou", zap.Error(err))
			}
		}()
	}

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.fail(ctx, err)
		return err
	}
	s.log.Info("✅ Exécution terminée", zap.Duration("duration", time.Since(start)))
	return nil
}

func (s *Scheduler) fail(ctx context.Context, err error) {
	s.log.Error("❌ Exécution échouée, nouvelle tentative au prochain déclenchement", zap.Error(err))
	if s.alerter != nil {
		s.alerter.Alert(ctx, fmt.Sprintf("Job %s en échec", s.name), err.Error())
	}
}
