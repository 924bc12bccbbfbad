//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"agriconnect_back_end/internal/database"
	"agriconnect_back_end/internal/models"
	"agriconnect_back_end/internal/store"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(database.NewRegistry()))
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Disconnect(ctx)
	})

	return client.Database("agriconnect_test")
}

func newStore(t *testing.T) (*store.MongoOrderStore, *mongo.Database) {
	t.Helper()
	db := setupTestDB(t)
	s := store.NewMongoOrderStore(db, zap.NewNop())
	require.NoError(t, s.EnsureIndexes(context.Background()))
	return s, db
}

func paidOrder(email string, orderDate time.Time) *models.Order {
	return &models.Order{
		UserEmail: email,
		Items: []models.OrderItem{
			{ProductID: "p1", Quantity: 2, Price: decimal.MustNew(10000, 2), Name: "Tomates"},
			{ProductID: "p2", Quantity: 1, Price: decimal.MustNew(25000, 2), Name: "Riz"},
		},
		TotalAmount:   decimal.MustNew(45000, 2),
		Address:       "12 rue des Champs",
		CustomerName:  "Asha",
		PaymentMode:   models.PaymentModeCard,
		PaymentStatus: models.PaymentStatusPaid,
		Status:        models.OrderStatusShipped,
		OrderDate:     orderDate,
	}
}

func TestInsertIfAbsent_Idempotent(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	first, created, err := s.InsertIfAbsent(ctx, paidOrder("a@x.io", time.Now()), "sess_1")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := s.InsertIfAbsent(ctx, paidOrder("a@x.io", time.Now()), "sess_1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)

	orders, err := s.FindByUser(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, "450", orders[0].TotalAmount.Trim(0).String())
}

func TestInsertIfAbsent_ConcurrentDeliveries(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()

	const deliveries = 8
	var wg sync.WaitGroup
	ids := make([]primitive.ObjectID, deliveries)
	errs := make([]error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order, _, err := s.InsertIfAbsent(ctx, paidOrder("race@x.io", time.Now()), "sess_race")
			errs[i] = err
			if order != nil {
				ids[i] = order.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	count, err := db.Collection(store.OrdersCollection).CountDocuments(ctx, bson.M{"stripeSessionId": "sess_race"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestInsert_DirectOrdersWithoutSessionDoNotCollide(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	o1 := paidOrder("b@x.io", time.Now())
	o1.PaymentMode = models.PaymentModeOther
	o2 := paidOrder("b@x.io", time.Now())
	o2.PaymentMode = models.PaymentModeOther

	_, err := s.Insert(ctx, o1)
	require.NoError(t, err)
	_, err = s.Insert(ctx, o2)
	require.NoError(t, err)

	orders, err := s.FindByUser(ctx, "b@x.io")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestFindByUser_NewestFirst(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.Insert(ctx, paidOrder("c@x.io", now.Add(-48*time.Hour)))
	require.NoError(t, err)
	_, err = s.Insert(ctx, paidOrder("c@x.io", now))
	require.NoError(t, err)
	_, err = s.Insert(ctx, paidOrder("c@x.io", now.Add(-24*time.Hour)))
	require.NoError(t, err)

	orders, err := s.FindByUser(ctx, "c@x.io")
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.True(t, orders[0].OrderDate.After(orders[1].OrderDate))
	assert.True(t, orders[1].OrderDate.After(orders[2].OrderDate))

	none, err := s.FindByUser(ctx, "nobody@x.io")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateStatus(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	order, err := s.Insert(ctx, paidOrder("d@x.io", time.Now()))
	require.NoError(t, err)

	updated, err := s.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.Equal(t, order.OrderDate, updated.OrderDate)

	_, err = s.UpdateStatus(ctx, primitive.NewObjectID(), models.OrderStatusCancelled)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)

	_, err = s.FindByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestBulkUpdateStatus_ExcludesTerminalStatuses(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	now := time.Now()
	old := now.AddDate(0, 0, -4)

	shipped, err := s.Insert(ctx, paidOrder("e@x.io", old))
	require.NoError(t, err)

	cancelled := paidOrder("e@x.io", old)
	cancelled.Status = models.OrderStatusCancelled
	cancelled, err = s.Insert(ctx, cancelled)
	require.NoError(t, err)

	recent, err := s.Insert(ctx, paidOrder("e@x.io", now))
	require.NoError(t, err)

	filter := store.StatusFilter{
		OrderedBefore:   now.AddDate(0, 0, -3),
		ExcludeStatuses: []models.OrderStatus{models.OrderStatusCancelled, models.OrderStatusDelivered},
	}
	n, err := s.BulkUpdateStatus(ctx, filter, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	for id, want := range map[primitive.ObjectID]models.OrderStatus{
		shipped.ID:   models.OrderStatusDelivered,
		cancelled.ID: models.OrderStatusCancelled,
		recent.ID:    models.OrderStatusShipped,
	} {
		got, err := s.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}

	n, err = s.BulkUpdateStatus(ctx, filter, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestClearCart(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	carts := db.Collection(store.CartsCollection)

	_, err := carts.InsertMany(ctx, []interface{}{
		bson.M{"userEmail": "f@x.io", "productId": "p1", "quantity": 1},
		bson.M{"userEmail": "f@x.io", "productId": "p2", "quantity": 3},
		bson.M{"userEmail": "g@x.io", "productId": "p1", "quantity": 1},
	})
	require.NoError(t, err)

	require.NoError(t, store.NewMongoCartCleaner(db).ClearCart(ctx, "f@x.io"))

	left, err := carts.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, left)
}

func TestProductsByIDs(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	reader := store.NewMongoProductReader(db)

	tomate := primitive.NewObjectID()
	_, err := db.Collection(store.ProductsCollection).InsertOne(ctx, bson.M{
		"_id": tomate, "name": "Tomates", "image": "products/tomate.jpg", "price": 40,
	})
	require.NoError(t, err)

	got, err := reader.ProductsByIDs(ctx, []string{tomate.Hex(), primitive.NewObjectID().Hex(), "6f1c5b7e-8a3d-4a51-9d3e-2c7b9b1f0a11"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, models.ProductSummary{ID: tomate.Hex(), Name: "Tomates", Image: "products/tomate.jpg"}, got[tomate.Hex()])

	got, err = reader.ProductsByIDs(ctx, []string{"pas-un-objectid"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
