package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/diagnosis/stayease/internal/availability"
	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/internal/payments"
	"github.com/diagnosis/stayease/internal/quota"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]*domain.User{}} }

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrConflict
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) MarkVerified(_ context.Context, userID, expected string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.Verified || u.VerificationToken == nil || *u.VerificationToken != expected {
		return false, nil
	}
	u.Verified = true
	u.VerificationToken = nil
	u.VerificationTokenExpiry = nil
	u.VerifiedAt = &at
	return true, nil
}

func (m *memUsers) SetVerificationToken(_ context.Context, userID, token string, expiry time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.Verified {
		return false, nil
	}
	u.VerificationToken = &token
	u.VerificationTokenExpiry = &expiry
	return true, nil
}

func (m *memUsers) BecomeHost(_ context.Context, userID string, requirements json.RawMessage, plan string, at time.Time) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	if u.Role != domain.RoleAdmin {
		u.Role = domain.RoleHost
	}
	u.HostRequirements = requirements
	u.SelectedPlan = plan
	u.PoliciesAcknowledgedAt = &at
	cp := *u
	return &cp, nil
}

func (m *memUsers) List(context.Context, int, int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.User{}
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) UpdateRole(_ context.Context, userID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *memUsers) Stats(context.Context) (*domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &domain.Stats{Users: int64(len(m.users))}, nil
}

type memListings struct {
	mu       sync.Mutex
	listings map[string]*domain.Listing
	subs     *memSubs
}

func (m *memListings) CreateWithQuota(_ context.Context, l *domain.Listing, now time.Time) (quota.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()

	sub := m.subs.subs[l.HostID]
	d := quota.Evaluate(sub, now)
	if !d.Allowed {
		return d, nil
	}
	l.CreatedAt = now
	l.UpdatedAt = now
	cp := *l
	m.listings[l.ID] = &cp
	sub.Used++
	return d, nil
}

func (m *memListings) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.listings[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (m *memListings) ListPublished(context.Context) ([]domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Listing{}
	for _, l := range m.listings {
		if l.Status == domain.ListingPublished {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memListings) ListByHost(_ context.Context, hostID string) ([]domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Listing{}
	for _, l := range m.listings {
		if l.HostID == hostID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memListings) Publish(_ context.Context, hostID, id string) (*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok || l.HostID != hostID {
		return nil, nil
	}
	l.Status = domain.ListingPublished
	cp := *l
	return &cp, nil
}

func (m *memListings) Delete(_ context.Context, hostID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok || l.HostID != hostID {
		return false, nil
	}
	delete(m.listings, id)
	return true, nil
}

type memSubs struct {
	mu       sync.Mutex
	subs     map[string]*domain.Subscription
	redeemed map[string]bool
}

func (m *memSubs) FindByHost(_ context.Context, hostID string) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subs[hostID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *memSubs) Activate(_ context.Context, s *domain.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redeemed == nil {
		m.redeemed = map[string]bool{}
	}
	if m.redeemed[s.LastOrderID] {
		return fmt.Errorf("%w: order %s was already redeemed", domain.ErrAlreadyDone, s.LastOrderID)
	}
	m.redeemed[s.LastOrderID] = true
	s.Used = 0
	cp := *s
	m.subs[s.HostID] = &cp
	return nil
}

type memBookings struct {
	mu       sync.Mutex
	bookings []domain.Booking
	err      error
}

func (m *memBookings) CreateIfAvailable(_ context.Context, b *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := availability.Window{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
	for _, existing := range m.bookings {
		if existing.OrderID == b.OrderID {
			return domain.ErrAlreadyDone
		}
		if existing.ListingID == b.ListingID && existing.Status != domain.BookingCancelled &&
			availability.Overlaps(existing.CheckIn, existing.CheckOut, w) {
			return domain.ErrConflict
		}
	}
	m.bookings = append(m.bookings, *b)
	return nil
}

func (m *memBookings) FindByOrderID(_ context.Context, orderID string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.OrderID == orderID {
			cp := b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memBookings) OverlappingListingIDs(_ context.Context, checkIn, checkOut time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	w := availability.Window{CheckIn: checkIn, CheckOut: checkOut}
	var ids []string
	for _, b := range m.bookings {
		if b.Status != domain.BookingCancelled && availability.Overlaps(b.CheckIn, b.CheckOut, w) {
			ids = append(ids, b.ListingID)
		}
	}
	return ids, nil
}

func (m *memBookings) ListByGuest(_ context.Context, guestID string) ([]domain.Booking, error) {
	return m.filter(func(b domain.Booking) bool { return b.GuestID == guestID }), nil
}

func (m *memBookings) ListByHost(_ context.Context, hostID string) ([]domain.Booking, error) {
	return m.filter(func(b domain.Booking) bool { return b.HostID == hostID }), nil
}

func (m *memBookings) filter(keep func(domain.Booking) bool) []domain.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Booking{}
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

type memBlocks struct {
	blocks []domain.AvailabilityBlock
}

func (m *memBlocks) Create(_ context.Context, b *domain.AvailabilityBlock) error {
	m.blocks = append(m.blocks, *b)
	return nil
}

func (m *memBlocks) ListByHost(_ context.Context, hostID string) ([]domain.AvailabilityBlock, error) {
	out := []domain.AvailabilityBlock{}
	for _, b := range m.blocks {
		if b.HostID == hostID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBlocks) Delete(_ context.Context, hostID, id string) (bool, error) {
	for i, b := range m.blocks {
		if b.ID == id && b.HostID == hostID {
			m.blocks = append(m.blocks[:i], m.blocks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingMailer) SendVerificationEmail(_ context.Context, _, _, verifyURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, verifyURL)
	return r.err
}

type fakePayments struct {
	orders   map[string]*payments.Order
	metadata map[string]map[string]string
	captured map[string]bool
	next     int
}

func newFakePayments() *fakePayments {
	return &fakePayments{
		orders:   map[string]*payments.Order{},
		metadata: map[string]map[string]string{},
		captured: map[string]bool{},
	}
}

func (f *fakePayments) CreateOrder(_ context.Context, amount float64, currency, description string, metadata map[string]string) (*payments.Order, error) {
	f.next++
	o := &payments.Order{ID: fmt.Sprintf("pi_%d", f.next), Amount: amount, Currency: currency, Description: description}
	f.orders[o.ID] = o
	f.metadata[o.ID] = metadata
	return o, nil
}

// pay marks an order as paid by the guest.
func (f *fakePayments) pay(id string) { f.captured[id] = true }

func (f *fakePayments) Capture(_ context.Context, orderID string) (*payments.Capture, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, errors.New("no such order")
	}
	if !f.captured[orderID] {
		return nil, domain.ErrUnauthorized
	}
	return &payments.Capture{
		OrderID:    o.ID,
		Amount:     o.Amount,
		Currency:   o.Currency,
		PayerName:  "Ana",
		PayerEmail: "ana@x.com",
		Metadata:   f.metadata[orderID],
	}, nil
}

type recordingBus struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recordingBus) Publish(_ context.Context, subject string, _ interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return nil
}

func (r *recordingBus) Close() error { return nil }

type fakeUploader struct {
	calls int
}

func (f *fakeUploader) Upload(context.Context, io.Reader) (string, error) {
	f.calls++
	return "https://res.cloudinary.com/demo/image/upload/listing.jpg", nil
}
