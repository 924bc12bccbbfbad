package store

//go:generate mockgen -source=store.go -destination=mock/store.go -package=mock

import (
	"context"
	"time"

	"agriconnect_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStore persiste les commandes. Chaque opération est atomique au niveau
// du document ; l'unicité de la référence de paiement est garantie par index.
type OrderStore interface {
	// InsertIfAbsent insère order sauf si une commande porte déjà uniqueKey.
	// Le booléen vaut true quand la commande vient d'être créée, false quand
	// la commande existante (gagnante d'une course éventuelle) est renvoyée.
	InsertIfAbsent(ctx context.Context, order *models.Order, uniqueKey string) (*models.Order, bool, error)
	Insert(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// FindByPaymentRef renvoie nil, nil quand aucune commande ne correspond.
	FindByPaymentRef(ctx context.Context, ref string) (*models.Order, error)
	FindByUser(ctx context.Context, email string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	BulkUpdateStatus(ctx context.Context, filter StatusFilter, status models.OrderStatus) (int64, error)
}

// CartCleaner vide le panier d'un acheteur après paiement.
type CartCleaner interface {
	ClearCart(ctx context.Context, email string) error
}

// StatusFilter sélectionne les commandes passées au plus tard à OrderedBefore
// et dont le statut n'est dans aucun de ExcludeStatuses.
type StatusFilter struct {
	OrderedBefore   time.Time
	ExcludeStatuses []models.OrderStatus
}
