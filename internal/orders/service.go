package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agriconnect_back_end/internal/models"
	"agriconnect_back_end/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// LineItemSource relit chez le prestataire les articles d'une session payée.
type LineItemSource interface {
	ListLineItems(ctx context.Context, sessionID string) ([]models.LineItem, error)
}

// ProductCatalog fournit le détail produit joint au listing des commandes.
type ProductCatalog interface {
	Products(ctx context.Context, productIDs []string) map[string]models.ProductSummary
}

// Service porte les opérations directes sur les commandes : création hors
// Stripe, listing par acheteur et annulation.
type Service struct {
	store   store.OrderStore
	catalog ProductCatalog
	log     *zap.Logger
	now     func() time.Time
}

func NewService(st store.OrderStore, catalog ProductCatalog, log *zap.Logger) *Service {
	return &Service{
		store:   st,
		catalog: catalog,
		log:     log,
		now:     time.Now,
	}
}

// CreateOrder enregistre une commande non payée par carte. Le total, s'il est
// fourni, doit correspondre à la somme des articles.
func (s *Service) CreateOrder(ctx context.Context, in models.CreateOrderInput) (*models.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	total, err := models.ItemsTotal(in.Items)
	if err != nil {
		return nil, fmt.Errorf("%w: total incalculable: %v", models.ErrInvalidOrder, err)
	}
	if in.TotalAmount != nil && in.TotalAmount.Cmp(total) != 0 {
		return nil, fmt.Errorf("%w: totalAmount %s différent de la somme des articles %s",
			models.ErrInvalidOrder, in.TotalAmount, total)
	}

	mode := in.PaymentMode
	if mode == "" {
		mode = models.PaymentModeOther
	}

	order := &models.Order{
		UserEmail:     strings.TrimSpace(in.UserEmail),
		Items:         in.Items,
		TotalAmount:   total,
		Address:       orDefault(in.Address, defaultAddress),
		CustomerName:  orDefault(in.CustomerName, defaultCustomerName),
		PaymentMode:   mode,
		PaymentStatus: models.PaymentStatusPending,
		Status:        models.OrderStatusShipped,
		OrderDate:     models.OrderTimestamp(s.now()),
	}

	created, err := s.store.Insert(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	s.log.Info("🧾 Commande directe créée",
		zap.String("order_id", created.ID.Hex()),
		zap.String("email", created.UserEmail),
		zap.Stringer("total", created.TotalAmount))
	return created, nil
}

// ListByUser renvoie les commandes de l'acheteur, plus récentes d'abord,
// chaque article enrichi du détail produit quand le catalogue le connaît.
func (s *Service) ListByUser(ctx context.Context, email string) ([]models.OrderView, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email requis", models.ErrInvalidOrder)
	}

	orders, err := s.store.FindByUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	var products map[string]models.ProductSummary
	if s.catalog != nil && len(orders) > 0 {
		products = s.catalog.Products(ctx, productIDs(orders))
	}

	views := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		view := models.OrderView{Order: o, Items: make([]models.OrderItemView, 0, len(o.Items))}
		for _, item := range o.Items {
			iv := models.OrderItemView{OrderItem: item}
			if p, ok := products[item.ProductID]; ok {
				p := p
				iv.Product = &p
			}
			view.Items = append(view.Items, iv)
		}
		views = append(views, view)
	}
	return views, nil
}

// Cancel passe la commande en Cancelled, quel que soit son statut courant.
func (s *Service) Cancel(ctx context.Context, orderID string) (*models.Order, error) {
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: identifiant %q", models.ErrInvalidOrder, orderID)
	}

	order, err := s.store.UpdateStatus(ctx, id, models.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}

	s.log.Info("🚫 Commande annulée", zap.String("order_id", orderID), zap.String("email", order.UserEmail))
	return order, nil
}

func productIDs(orders []models.Order) []string {
	ids := make([]string, 0)
	for _, o := range orders {
		for _, item := range o.Items {
			if item.ProductID != "" {
				ids = append(ids, item.ProductID)
			}
		}
	}
	return ids
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
