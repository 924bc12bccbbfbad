package orders

import (
	"context"
	"fmt"
	"time"

	"agriconnect_back_end/internal/models"
	"agriconnect_back_end/internal/store"

	"go.uber.org/zap"
)

// StatusPromoter marque Delivered les commandes expédiées depuis assez longtemps.
type StatusPromoter struct {
	store     store.OrderStore
	afterDays int
	loc       *time.Location
	log       *zap.Logger
	now       func() time.Time
}

func NewStatusPromoter(st store.OrderStore, afterDays int, loc *time.Location, log *zap.Logger) *StatusPromoter {
	if loc == nil {
		loc = time.Local
	}
	return &StatusPromoter{
		store:     st,
		afterDays: afterDays,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}
}

// Cutoff renvoie le début de journée, dans le fuseau configuré, de now moins
// afterDays jours.
func (p *StatusPromoter) Cutoff(now time.Time) time.Time {
	d := now.In(p.loc).AddDate(0, 0, -p.afterDays)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, p.loc)
}

// PromoteDelivered lance une passe de mise à jour et renvoie le nombre de
// commandes modifiées. Cancelled et Delivered ne sont jamais touchées.
func (p *StatusPromoter) PromoteDelivered(ctx context.Context) (int64, error) {
	cutoff := p.Cutoff(p.now())

	n, err := p.store.BulkUpdateStatus(ctx, store.StatusFilter{
		OrderedBefore:   cutoff,
		ExcludeStatuses: []models.OrderStatus{models.OrderStatusCancelled, models.OrderStatusDelivered},
	}, models.OrderStatusDelivered)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	p.log.Info("📦 Statuts de livraison mis à jour", zap.Time("cutoff", cutoff), zap.Int64("updated", n))
	return n, nil
}
