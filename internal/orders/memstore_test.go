package orders_test

import (
	"context"
	"sort"
	"sync"

	"agriconnect_back_end/internal/models"
	"agriconnect_back_end/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore reproduit la sémantique du store Mongo (unicité de la session,
// tri par date, $nin sur les statuts) pour les tests de scénario.
type memStore struct {
	mu     sync.Mutex
	orders []models.Order
}

var _ store.OrderStore = (*memStore)(nil)

func (m *memStore) InsertIfAbsent(_ context.Context, order *models.Order, uniqueKey string) (*models.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].StripeSessionID == uniqueKey {
			o := m.orders[i]
			return &o, false, nil
		}
	}
	order.StripeSessionID = uniqueKey
	return m.insertLocked(order), true, nil
}

func (m *memStore) Insert(_ context.Context, order *models.Order) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(order), nil
}

func (m *memStore) insertLocked(order *models.Order) *models.Order {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	m.orders = append(m.orders, *order)
	o := *order
	return &o
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id {
			o := m.orders[i]
			return &o, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (m *memStore) FindByPaymentRef(_ context.Context, ref string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].StripeSessionID == ref {
			o := m.orders[i]
			return &o, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindByUser(_ context.Context, email string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Order, 0)
	for _, o := range m.orders {
		if o.UserEmail == email {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders[i].Status = status
			o := m.orders[i]
			return &o, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (m *memStore) BulkUpdateStatus(_ context.Context, filter store.StatusFilter, status models.OrderStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.orders {
		o := &m.orders[i]
		if o.OrderDate.After(filter.OrderedBefore) || excluded(o.Status, filter.ExcludeStatuses) || o.Status == status {
			continue
		}
		o.Status = status
		n++
	}
	return n, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func excluded(s models.OrderStatus, list []models.OrderStatus) bool {
	for _, x := range list {
		if s == x {
			return true
		}
	}
	return false
}
