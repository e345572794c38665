package billing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/chatbill/pkg/subscription"
)

// MemoryStore is an in-memory Store used in tests and local development.
// It honors the same idempotency contract as the Postgres implementation.
type MemoryStore struct {
	mu        sync.Mutex
	profiles  map[string]*subscription.Profile
	orders    map[string]*Order // keyed by razorpay order id
	payments  map[string]*Payment
	paymentID map[string]struct{} // applied razorpay payment ids
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:  make(map[string]*subscription.Profile),
		orders:    make(map[string]*Order),
		payments:  make(map[string]*Payment),
		paymentID: make(map[string]struct{}),
	}
}

func (s *MemoryStore) GetProfile(_ context.Context, userID string) (*subscription.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) EnsureProfile(_ context.Context, userID string) (*subscription.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		p = &subscription.Profile{
			ID:        userID,
			Status:    subscription.StatusNone,
			Tier:      subscription.TierFree,
			UpdatedAt: time.Now().UTC(),
		}
		s.profiles[userID] = p
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, p *subscription.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; !ok {
		return ErrProfileNotFound
	}
	cp := *p
	cp.UpdatedAt = time.Now().UTC()
	s.profiles[p.ID] = &cp
	return nil
}

func (s *MemoryStore) CreateOrder(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.orders[o.RazorpayOrderID] = &cp
	return nil
}

func (s *MemoryStore) GetOrderByRazorpayID(_ context.Context, razorpayOrderID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[razorpayOrderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *MemoryStore) UpdateOrderStatus(_ context.Context, orderID string, status OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == orderID {
			o.Status = status
			o.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrOrderNotFound
}

func (s *MemoryStore) CountRecentOrders(_ context.Context, userID string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, o := range s.orders {
		if o.UserID == userID && !o.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) InsertPayment(_ context.Context, p *Payment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.paymentID[p.RazorpayPaymentID]; dup {
		return false, nil
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	s.payments[p.ID] = &cp
	s.paymentID[p.RazorpayPaymentID] = struct{}{}
	return true, nil
}

func (s *MemoryStore) CountRecentFailures(_ context.Context, userID string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, p := range s.payments {
		if p.UserID == userID && p.Status == "failed" && !p.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
