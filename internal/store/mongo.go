package store

import (
	"context"
	"errors"
	"fmt"

	"agriconnect_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	OrdersCollection = "orders"
	CartsCollection  = "carts"

	sessionIndexName = "uniq_stripe_session"
)

type MongoOrderStore struct {
	orders *mongo.Collection
	log    *zap.Logger
}

func NewMongoOrderStore(db *mongo.Database, log *zap.Logger) *MongoOrderStore {
	return &MongoOrderStore{
		orders: db.Collection(OrdersCollection),
		log:    log,
	}
}

// EnsureIndexes crée l'index unique partiel sur stripeSessionId et l'index
// de listing par acheteur. Idempotent.
func (s *MongoOrderStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "stripeSessionId", Value: 1}},
			Options: options.Index().
				SetName(sessionIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"stripeSessionId": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "userEmail", Value: 1}, {Key: "orderDate", Value: -1}},
			Options: options.Index().SetName("user_orders"),
		},
		{
			Keys:    bson.D{{Key: "orderDate", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("order_date_status"),
		},
	}
	if _, err := s.orders.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("création des index %s: %w", OrdersCollection, err)
	}
	return nil
}

func (s *MongoOrderStore) InsertIfAbsent(ctx context.Context, order *models.Order, uniqueKey string) (*models.Order, bool, error) {
	existing, err := s.FindByPaymentRef(ctx, uniqueKey)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	order.StripeSessionID = uniqueKey
	created, err := s.Insert(ctx, order)
	if err == nil {
		return created, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, err
	}

	// un autre livreur du même événement a gagné la course
	s.log.Debug("session déjà enregistrée par une livraison concurrente", zap.String("session_id", uniqueKey))
	winner, err := s.FindByPaymentRef(ctx, uniqueKey)
	if err != nil {
		return nil, false, err
	}
	if winner == nil {
		return nil, false, fmt.Errorf("session %s: doublon signalé mais commande introuvable", uniqueKey)
	}
	return winner, false, nil
}

func (s *MongoOrderStore) Insert(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.OrderDate = models.OrderTimestamp(order.OrderDate)

	if _, err := s.orders.InsertOne(ctx, order); err != nil {
		return nil, fmt.Errorf("insertion commande: %w", err)
	}
	return order, nil
}

func (s *MongoOrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture commande %s: %w", id.Hex(), err)
	}
	return &order, nil
}

func (s *MongoOrderStore) FindByPaymentRef(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"stripeSessionId": ref}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture commande pour la session %s: %w", ref, err)
	}
	return &order, nil
}

func (s *MongoOrderStore) FindByUser(ctx context.Context, email string) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "orderDate", Value: -1}})
	cursor, err := s.orders.Find(ctx, bson.M{"userEmail": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("liste des commandes de %s: %w", email, err)
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("décodage des commandes de %s: %w", email, err)
	}
	return orders, nil
}

func (s *MongoOrderStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := s.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		opts,
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mise à jour du statut de %s: %w", id.Hex(), err)
	}
	return &order, nil
}

func (s *MongoOrderStore) BulkUpdateStatus(ctx context.Context, filter StatusFilter, status models.OrderStatus) (int64, error) {
	res, err := s.orders.UpdateMany(ctx, filter.query(), bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return 0, fmt.Errorf("mise à jour groupée vers %s: %w", status, err)
	}
	return res.ModifiedCount, nil
}

// query construit un seul prédicat $nin : chaque statut exclu l'est réellement.
func (f StatusFilter) query() bson.M {
	query := bson.M{}
	if !f.OrderedBefore.IsZero() {
		query["orderDate"] = bson.M{"$lte": f.OrderedBefore}
	}
	if len(f.ExcludeStatuses) > 0 {
		query["status"] = bson.M{"$nin": f.ExcludeStatuses}
	}
	return query
}

// MongoCartCleaner vide la collection carts tenue par le service panier.
type MongoCartCleaner struct {
	carts *mongo.Collection
}

func NewMongoCartCleaner(db *mongo.Database) *MongoCartCleaner {
	return &MongoCartCleaner{carts: db.Collection(CartsCollection)}
}

func (c *MongoCartCleaner) ClearCart(ctx context.Context, email string) error {
	if _, err := c.carts.DeleteMany(ctx, bson.M{"userEmail": email}); err != nil {
		return fmt.Errorf("vidage du panier de %s: %w", email, err)
	}
	return nil
}
