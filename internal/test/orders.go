package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/channelpass/internal/domain/errors"
	"github.com/polkiloo/channelpass/internal/domain/model"
	"github.com/polkiloo/channelpass/internal/domain/repository"
)

// MemoryOrderRepository keeps orders in memory and mirrors the storage
// guarantees: one open order per user and atomic conditional transitions.
type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders []model.Order
	nextID int64

	// Err, when set, is returned by every operation.
	Err error
	// TransitionCalls counts Transition invocations.
	TransitionCalls int
}

// NewMemoryOrderRepository constructs an empty repository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{nextID: 1}
}

// Seed stores orders as is, bypassing the open order constraint.
func (r *MemoryOrderRepository) Seed(orders ...model.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range orders {
		if o.ID == 0 {
			o.ID = r.nextID
		}
		if o.ID >= r.nextID {
			r.nextID = o.ID + 1
		}
		r.orders = append(r.orders, cloneOrder(o))
	}
}

// All returns a snapshot of every stored order in insertion order.
func (r *MemoryOrderRepository) All() []model.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, cloneOrder(o))
	}
	return out
}

// Create stores a pending order unless the user already has an open one.
func (r *MemoryOrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, o := range r.orders {
		if o.UserID == order.UserID && o.Status.Open() {
			return nil, domainErrors.ErrOrderInProgress
		}
	}
	stored := cloneOrder(*order)
	stored.ID = r.nextID
	r.nextID++
	r.orders = append(r.orders, stored)
	created := cloneOrder(stored)
	return &created, nil
}

// GetByID returns the order with the given identifier.
func (r *MemoryOrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, o := range r.orders {
		if o.ID == id {
			found := cloneOrder(o)
			return &found, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// LatestByUser returns the most recently created order of the user.
func (r *MemoryOrderRepository) LatestByUser(ctx context.Context, userID int64) (*model.Order, error) {
	orders, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domainErrors.ErrNotFound
	}
	return &orders[0], nil
}

// ListByUser returns the user's orders, newest first.
func (r *MemoryOrderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []model.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// SelectExpired returns confirmed orders due for expiry, oldest expiry first.
func (r *MemoryOrderRepository) SelectExpired(ctx context.Context, now time.Time, limit int) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []model.Order
	for _, o := range r.orders {
		if o.Expired(now) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Transition applies fn to the selected order while holding the repository
// lock, so concurrent transitions are serialized like row locks would do.
func (r *MemoryOrderRepository) Transition(ctx context.Context, sel repository.OrderSelector, fn func(*model.Order) error) (*repository.TransitionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TransitionCalls++
	if r.Err != nil {
		return nil, r.Err
	}

	idx, shadowed := -1, 0
	for i, o := range r.orders {
		if o.Status != sel.Status {
			continue
		}
		if sel.ID != 0 && o.ID != sel.ID {
			continue
		}
		if sel.ID == 0 && o.UserID != sel.UserID {
			continue
		}
		if idx == -1 {
			idx = i
			continue
		}
		shadowed++
		if newer(o, r.orders[idx]) {
			idx = i
		}
	}
	if idx == -1 {
		return nil, domainErrors.ErrNotFound
	}

	working := cloneOrder(r.orders[idx])
	if err := fn(&working); err != nil {
		return nil, err
	}
	r.orders[idx] = cloneOrder(working)

	return &repository.TransitionResult{Order: &working, Shadowed: shadowed}, nil
}

func newer(a, b model.Order) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func sortNewestFirst(orders []model.Order) {
	sort.SliceStable(orders, func(i, j int) bool { return newer(orders[i], orders[j]) })
}

func cloneOrder(o model.Order) model.Order {
	if o.ExpiresAt != nil {
		t := *o.ExpiresAt
		o.ExpiresAt = &t
	}
	if o.ConfirmedAt != nil {
		t := *o.ConfirmedAt
		o.ConfirmedAt = &t
	}
	return o
}

var _ repository.OrderRepository = (*MemoryOrderRepository)(nil)
