package orders

import (
	"context"
	"fmt"
	"time"

	"agriconnect_back_end/internal/models"
	"agriconnect_back_end/internal/store"
	"agriconnect_back_end/internal/utils"

	"go.uber.org/zap"
)

const (
	defaultCustomerName = "Guest"
	defaultAddress      = "No address provided"
)

// Reconciler transforme un paiement confirmé en commande, une seule fois par
// session : une relivraison du même événement renvoie la commande existante.
type Reconciler struct {
	store     store.OrderStore
	carts     store.CartCleaner
	lineItems LineItemSource
	alerter   utils.Alerter
	log       *zap.Logger
	now       func() time.Time
}

// NewReconciler accepte carts et lineItems nil : pas de vidage de panier,
// et les articles absents de l'événement restent inconnus.
func NewReconciler(st store.OrderStore, carts store.CartCleaner, lineItems LineItemSource, alerter utils.Alerter, log *zap.Logger) *Reconciler {
	return &Reconciler{
		store:     st,
		carts:     carts,
		lineItems: lineItems,
		alerter:   alerter,
		log:       log,
		now:       time.Now,
	}
}

func (r *Reconciler) Reconcile(ctx context.Context, ev *models.PaymentEvent) (*models.Order, error) {
	if ev == nil || ev.Type != models.PaymentEventCheckoutCompleted {
		return nil, models.ErrUnsupportedEvent
	}

	log := r.log.With(zap.String("session_id", ev.SessionID), zap.String("event_id", ev.EventID))

	if ev.BuyerEmail == "" {
		log.Error("❌ Email acheteur absent, commande non créée")
		r.alerter.Alert(ctx, "Paiement sans acheteur identifié",
			fmt.Sprintf("Session %s (événement %s, total %s %s) payée sans email acheteur : aucune commande créée.",
				ev.SessionID, ev.EventID, ev.ReportedTotal, ev.Currency))
		return nil, models.ErrMissingIdentity
	}

	existing, err := r.store.FindByPaymentRef(ctx, ev.SessionID)
	if err != nil {
		return nil, r.persistenceFault(ctx, log, ev, err)
	}
	if existing != nil {
		log.Info("🔁 Session déjà réconciliée, on ignore", zap.String("order_id", existing.ID.Hex()))
		return existing, nil
	}

	order := &models.Order{
		UserEmail:     ev.BuyerEmail,
		Items:         r.orderItems(ctx, log, ev),
		TotalAmount:   ev.ReportedTotal,
		Address:       orDefault(ev.ShippingAddress, defaultAddress),
		CustomerName:  orDefault(ev.BuyerName, defaultCustomerName),
		PaymentMode:   models.PaymentModeCard,
		PaymentStatus: models.PaymentStatusPaid,
		Status:        models.OrderStatusShipped,
		OrderDate:     models.OrderTimestamp(r.now()),
	}

	saved, created, err := r.store.InsertIfAbsent(ctx, order, ev.SessionID)
	if err != nil {
		return nil, r.persistenceFault(ctx, log, ev, err)
	}
	if !created {
		log.Info("🔁 Commande créée par une livraison concurrente", zap.String("order_id", saved.ID.Hex()))
		return saved, nil
	}

	log.Info("✅ Commande enregistrée",
		zap.String("order_id", saved.ID.Hex()),
		zap.String("email", saved.UserEmail),
		zap.Int("items", len(saved.Items)),
		zap.Stringer("total", saved.TotalAmount))

	r.clearCart(ctx, log, saved.UserEmail)
	return saved, nil
}

// orderItems prend les articles de l'événement, ou les relit chez Stripe.
// Une anomalie est loggée mais n'empêche pas d'enregistrer la commande.
func (r *Reconciler) orderItems(ctx context.Context, log *zap.Logger, ev *models.PaymentEvent) []models.OrderItem {
	lineItems := ev.LineItems
	if lineItems == nil {
		if r.lineItems == nil {
			log.Warn("⚠️ Articles absents de l'événement et aucune source configurée")
			return []models.OrderItem{}
		}
		fetched, err := r.lineItems.ListLineItems(ctx, ev.SessionID)
		if err != nil {
			log.Warn("⚠️ Lecture des articles Stripe échouée, commande enregistrée partielle", zap.Error(err))
		}
		lineItems = fetched
	}

	items := make([]models.OrderItem, 0, len(lineItems))
	for i, li := range lineItems {
		if li.ProductRef == "" {
			log.Warn("⚠️ Article sans productId", zap.Int("index", i), zap.String("name", li.Name))
		}
		items = append(items, models.OrderItem{
			ProductID: li.ProductRef,
			Quantity:  li.Quantity,
			Price:     li.UnitPriceAtSale,
			Name:      li.Name,
		})
	}
	return items
}

func (r *Reconciler) clearCart(ctx context.Context, log *zap.Logger, email string) {
	if r.carts == nil {
		return
	}
	if err := r.carts.ClearCart(ctx, email); err != nil {
		log.Warn("⚠️ Vidage du panier échoué", zap.String("email", email), zap.Error(err))
		return
	}
	log.Info("🧹 Panier vidé", zap.String("email", email))
}

func (r *Reconciler) persistenceFault(ctx context.Context, log *zap.Logger, ev *models.PaymentEvent, err error) error {
	log.Error("❌ Commande non enregistrée", zap.Error(err))
	r.alerter.Alert(ctx, "Paiement reçu mais commande non enregistrée",
		fmt.Sprintf("Session %s (événement %s) pour %s, total %s %s : %v.\nRelancer avec `server reconcile-session %s`.",
			ev.SessionID, ev.EventID, ev.BuyerEmail, ev.ReportedTotal, ev.Currency, err, ev.SessionID))
	return fmt.Errorf("%w: %v", models.ErrPersistence, err)
}
