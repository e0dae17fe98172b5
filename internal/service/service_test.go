package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/internal/quota"
	"github.com/diagnosis/stayease/internal/token"
	"github.com/diagnosis/stayease/internal/verification"
	"github.com/diagnosis/stayease/pkg/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.BaseURL = "http://localhost:5173/"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTL = time.Hour
	cfg.Auth.EmailVerificationTTL = 24 * time.Hour
	cfg.Stripe.Currency = "php"
	return cfg
}

func registerRequest() *domain.RegisterRequest {
	return &domain.RegisterRequest{
		FullName: "Ana Cruz",
		Email:    " A@X.com ",
		Phone:    "09171234567",
		Address:  "Cebu City",
		Password: "correct horse battery",
	}
}

func TestRegisterThenVerifyTwice(t *testing.T) {
	users := newMemUsers()
	mail := &recordingMailer{}
	bus := &recordingBus{}
	svc := NewAuthService(users, token.NewCodec("s"), mail, bus, testConfig())

	user, verifyURL, err := svc.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "a@x.com" || user.Verified || user.VerificationToken == nil {
		t.Fatalf("unexpected user %+v", user)
	}
	if got := user.VerificationTokenExpiry.Sub(time.Now()); got < 23*time.Hour || got > 25*time.Hour {
		t.Fatalf("expiry %v not ~24h away", got)
	}
	if len(mail.sent) != 1 || mail.sent[0] != verifyURL {
		t.Fatalf("verification mail not sent: %v", mail.sent)
	}

	u, err := url.Parse(verifyURL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(verifyURL, "http://localhost:5173/verify-email?") {
		t.Fatalf("unexpected link %s", verifyURL)
	}
	tok := u.Query().Get("token")
	email := u.Query().Get("email")

	verifier := verification.NewService(users, bus)
	res, err := verifier.Verify(context.Background(), email, tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.AlreadyVerified {
		t.Fatal("first verify reported alreadyVerified")
	}

	res, err = verifier.Verify(context.Background(), email, "whatever")
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if !res.AlreadyVerified {
		t.Fatal("second verify should report alreadyVerified")
	}

	stored, _ := users.FindByEmail(context.Background(), "a@x.com")
	if !stored.Verified || !stored.Consistent() {
		t.Fatalf("stored user inconsistent: %+v", stored)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newMemUsers(), token.NewCodec("s"), &recordingMailer{}, &recordingBus{}, testConfig())
	if _, _, err := svc.Register(context.Background(), registerRequest()); err != nil {
		t.Fatal(err)
	}
	_, _, err := svc.Register(context.Background(), registerRequest())
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	users := newMemUsers()
	svc := NewAuthService(users, token.NewCodec("s"), &recordingMailer{err: errors.New("smtp down")}, &recordingBus{}, testConfig())

	if _, _, err := svc.Register(context.Background(), registerRequest()); err != nil {
		t.Fatalf("registration should not fail on mail error: %v", err)
	}
	if u, _ := users.FindByEmail(context.Background(), "a@x.com"); u == nil {
		t.Fatal("user was not stored")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newMemUsers(), token.NewCodec("s"), &recordingMailer{}, &recordingBus{}, testConfig())
	req := registerRequest()
	req.Password = "short"
	if _, _, err := svc.Register(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestLoginRequiresVerification(t *testing.T) {
	users := newMemUsers()
	svc := NewAuthService(users, token.NewCodec("s"), &recordingMailer{}, &recordingBus{}, testConfig())
	user, verifyURL, err := svc.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatal(err)
	}

	login := &domain.LoginRequest{Email: "a@x.com", Password: "correct horse battery"}
	if _, err := svc.Login(context.Background(), login); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("unverified login err = %v", err)
	}

	u, _ := url.Parse(verifyURL)
	if _, err := verification.NewService(users, nil).Verify(context.Background(), user.Email, u.Query().Get("token")); err != nil {
		t.Fatal(err)
	}

	resp, err := svc.Login(context.Background(), login)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.User.ID != user.ID {
		t.Fatalf("unexpected response %+v", resp)
	}

	login.Password = "wrong password"
	if _, err := svc.Login(context.Background(), login); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("wrong password err = %v", err)
	}
}

func TestResendVerificationReplacesToken(t *testing.T) {
	users := newMemUsers()
	mail := &recordingMailer{}
	svc := NewAuthService(users, token.NewCodec("s"), mail, &recordingBus{}, testConfig())
	if _, _, err := svc.Register(context.Background(), registerRequest()); err != nil {
		t.Fatal(err)
	}
	first, _ := url.Parse(mail.sent[0])

	if _, err := svc.ResendVerification(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	second, _ := url.Parse(mail.sent[1])
	if first.Query().Get("token") == second.Query().Get("token") {
		t.Fatal("resend should issue a new token")
	}

	verifier := verification.NewService(users, nil)
	if _, err := verifier.Verify(context.Background(), "a@x.com", first.Query().Get("token")); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("old token err = %v, want ErrInvalidToken", err)
	}

	if _, err := svc.ResendVerification(context.Background(), "ghost@x.com"); err != nil {
		t.Fatalf("unknown email should succeed silently: %v", err)
	}
}

func TestBecomeHost(t *testing.T) {
	users := newMemUsers()
	svc := NewAuthService(users, token.NewCodec("s"), &recordingMailer{}, &recordingBus{}, testConfig())
	user, _, err := svc.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatal(err)
	}

	req := &domain.BecomeHostRequest{
		Requirements:  domain.HostRequirements{ValidID: true, PropertyProof: true, SafetyStandards: true, HouseRules: true},
		SelectedPlan:  "pro_monthly",
		AcceptedTerms: true,
	}
	host, err := svc.BecomeHost(context.Background(), user.ID, req)
	if err != nil {
		t.Fatalf("become host: %v", err)
	}
	if host.Role != domain.RoleHost || host.SelectedPlan != "pro_monthly" || host.PoliciesAcknowledgedAt == nil {
		t.Fatalf("unexpected host %+v", host)
	}

	req.SelectedPlan = "platinum"
	if _, err := svc.BecomeHost(context.Background(), user.ID, req); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func listingFixture(subs *memSubs) (*memListings, ListingService, *fakeUploader) {
	listings := &memListings{listings: map[string]*domain.Listing{}, subs: subs}
	up := &fakeUploader{}
	return listings, NewListingService(listings, quota.NewGate(subs), up, &recordingBus{}), up
}

func TestListingCreateConsumesQuota(t *testing.T) {
	three := 3
	end := time.Now().Add(24 * time.Hour)
	subs := &memSubs{subs: map[string]*domain.Subscription{
		"h1": {HostID: "h1", Active: true, Quota: &three, Used: 2, PeriodEnd: &end},
	}}
	_, svc, up := listingFixture(subs)

	req := &domain.CreateListingRequest{Title: "Loft", Location: "Makati", Price: 1500}
	l, err := svc.Create(context.Background(), "h1", req, strings.NewReader("jpeg"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.Status != domain.ListingDraft || l.ImageURL == "" {
		t.Fatalf("unexpected listing %+v", l)
	}
	if subs.subs["h1"].Used != 3 {
		t.Fatalf("used = %d, want 3", subs.subs["h1"].Used)
	}

	_, err = svc.Create(context.Background(), "h1", req, strings.NewReader("jpeg"))
	var qe *QuotaError
	if !errors.As(err, &qe) || qe.Decision.Reason != quota.ReasonQuotaExceeded {
		t.Fatalf("err = %v, want quota exceeded", err)
	}
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatal("quota errors should match ErrUnauthorized")
	}
	if up.calls != 1 {
		t.Fatalf("uploader called %d times; denied requests must not upload", up.calls)
	}
}

func TestListingCreateWithoutSubscription(t *testing.T) {
	_, svc, _ := listingFixture(&memSubs{subs: map[string]*domain.Subscription{}})

	_, err := svc.Create(context.Background(), "h1", &domain.CreateListingRequest{Title: "Loft", Location: "Makati", Price: 1}, nil)
	var qe *QuotaError
	if !errors.As(err, &qe) || qe.Decision.Reason != quota.ReasonNoSubscription {
		t.Fatalf("err = %v, want no subscription", err)
	}
}

func TestListingPublishOnlyOwn(t *testing.T) {
	subs := &memSubs{subs: map[string]*domain.Subscription{"h1": {HostID: "h1", Active: true}}}
	_, svc, _ := listingFixture(subs)

	l, err := svc.Create(context.Background(), "h1", &domain.CreateListingRequest{Title: "Loft", Location: "Makati", Price: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Publish(context.Background(), "h2", l.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	published, err := svc.Publish(context.Background(), "h1", l.ID)
	if err != nil || published.Status != domain.ListingPublished {
		t.Fatalf("publish: %v %+v", err, published)
	}
}

func TestListingDeleteOnlyOwn(t *testing.T) {
	subs := &memSubs{subs: map[string]*domain.Subscription{"h1": {HostID: "h1", Active: true}}}
	listings, svc, _ := listingFixture(subs)
	ctx := context.Background()

	l, err := svc.Create(ctx, "h1", &domain.CreateListingRequest{Title: "Loft", Location: "Makati", Price: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, "h2", l.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "h1", l.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := listings.listings[l.ID]; ok {
		t.Fatal("listing still stored")
	}
	if err := svc.Delete(ctx, "h1", l.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func bookingFixture() (*memBookings, *fakePayments, BookingService) {
	listings := &memListings{listings: map[string]*domain.Listing{
		"l1": {ID: "l1", HostID: "h1", Title: "Loft", Price: 1000, Status: domain.ListingPublished},
		"l2": {ID: "l2", HostID: "h1", Title: "Draft", Price: 1000, Status: domain.ListingDraft},
		"l3": {ID: "l3", HostID: "h2", Title: "Villa", Price: 25000, Status: domain.ListingPublished},
		"l4": {ID: "l4", HostID: "h2", Title: "Hostel bed", Price: 1, Status: domain.ListingPublished},
	}}
	bookings := &memBookings{}
	pay := newFakePayments()
	return bookings, pay, NewBookingService(bookings, listings, pay, &recordingBus{}, testConfig())
}

func TestBookingCheckoutAndConfirm(t *testing.T) {
	bookings, pay, svc := bookingFixture()
	ctx := context.Background()

	order, err := svc.Checkout(ctx, "g1", &domain.BookingCheckoutRequest{ListingID: "l1", CheckIn: "2024-01-10", CheckOut: "2024-01-15"})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.Amount != 5000 {
		t.Fatalf("amount = %v, want 5000 for 5 nights", order.Amount)
	}

	req := &domain.CreateBookingRequest{ListingID: "l1", CheckIn: "2024-01-10", CheckOut: "2024-01-15", OrderID: order.ID}
	if _, err := svc.Confirm(ctx, "g1", req); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("unpaid order err = %v, want ErrUnauthorized", err)
	}

	pay.pay(order.ID)
	b, err := svc.Confirm(ctx, "g1", req)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if b.Status != domain.BookingPaid || b.PayerEmail != "ana@x.com" || b.HostID != "h1" {
		t.Fatalf("unexpected booking %+v", b)
	}

	again, err := svc.Confirm(ctx, "g1", req)
	if err != nil || again.ID != b.ID {
		t.Fatalf("replay should return the same booking: %v %+v", err, again)
	}
	if len(bookings.bookings) != 1 {
		t.Fatalf("stored %d bookings, want 1", len(bookings.bookings))
	}
}

func TestBookingOverlapConflict(t *testing.T) {
	_, pay, svc := bookingFixture()
	ctx := context.Background()

	book := func(in, out string) error {
		order, err := svc.Checkout(ctx, "g1", &domain.BookingCheckoutRequest{ListingID: "l1", CheckIn: in, CheckOut: out})
		if err != nil {
			return err
		}
		pay.pay(order.ID)
		_, err = svc.Confirm(ctx, "g1", &domain.CreateBookingRequest{ListingID: "l1", CheckIn: in, CheckOut: out, OrderID: order.ID})
		return err
	}

	if err := book("2024-01-10", "2024-01-15"); err != nil {
		t.Fatal(err)
	}
	if err := book("2024-01-12", "2024-01-20"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("overlap err = %v, want ErrConflict", err)
	}
	if err := book("2024-01-15", "2024-01-20"); err != nil {
		t.Fatalf("boundary touch should be allowed: %v", err)
	}
}

func TestBookingRejectsBadInput(t *testing.T) {
	_, _, svc := bookingFixture()
	ctx := context.Background()

	_, err := svc.Checkout(ctx, "g1", &domain.BookingCheckoutRequest{ListingID: "l1", CheckIn: "2024-01-15", CheckOut: "2024-01-10"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("reversed window err = %v", err)
	}
	_, err = svc.Checkout(ctx, "g1", &domain.BookingCheckoutRequest{ListingID: "l2", CheckIn: "2024-01-10", CheckOut: "2024-01-15"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("draft listing err = %v", err)
	}
	_, err = svc.Checkout(ctx, "g1", &domain.BookingCheckoutRequest{ListingID: "gone", CheckIn: "2024-01-10", CheckOut: "2024-01-15"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing listing err = %v", err)
	}
}

func TestSubscriptionActivate(t *testing.T) {
	subs := &memSubs{subs: map[string]*domain.Subscription{}}
	pay := newFakePayments()
	bus := &recordingBus{}
	svc := NewSubscriptionService(subs, pay, bus)
	ctx := context.Background()

	order, err := svc.Checkout(ctx, "h1", "basic_monthly")
	if err != nil {
		t.Fatal(err)
	}
	if order.Amount != 299 {
		t.Fatalf("amount = %v", order.Amount)
	}
	pay.pay(order.ID)

	sub, err := svc.Activate(ctx, "h1", &domain.ActivateSubscriptionRequest{PlanID: "basic_monthly", OrderID: order.ID})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !sub.Active || sub.Used != 0 || sub.Quota == nil || *sub.Quota != 3 || sub.LastOrderID != order.ID {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if sub.PeriodEnd == nil || !sub.PeriodEnd.Equal(sub.PeriodStart.AddDate(0, 1, 0)) {
		t.Fatalf("period end = %v", sub.PeriodEnd)
	}
	if len(bus.subjects) != 1 || bus.subjects[0] != "subscription.activated" {
		t.Fatalf("events = %v", bus.subjects)
	}

	if _, err := svc.Checkout(ctx, "h1", "free"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown plan err = %v", err)
	}
	if _, err := svc.Get(ctx, "h2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing subscription err = %v", err)
	}
}

func TestBookingOrderIsBoundToItsStay(t *testing.T) {
	ctx := context.Background()

	t.Run("cheap order for an expensive stay", func(t *testing.T) {
		bookings, pay, svc := bookingFixture()
		order, err := svc.Checkout(ctx, "g1", &domain.BookingCheckoutRequest{ListingID: "l4", CheckIn: "2024-03-01", CheckOut: "2024-03-02"})
		if err != nil {
			t.Fatal(err)
		}
		pay.pay(order.ID)

		_, err = svc.Confirm(ctx, "g1", &domain.CreateBookingRequest{ListingID: "l3", CheckIn: "2024-03-01", CheckOut: "2024-03-10", OrderID: order.ID})
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
		if len(bookings.bookings) != 0 {
			t.Fatalf("booking stored for mismatched order: %+v", bookings.bookings)
		}
	})

	t.Run("dates stretched after checkout", func(t *testing.T) {
		bookings, pay, svc := bookingFixture()
		order, err := svc.Checkout(ctx, "g1", &domain.BookingCheckoutRequest{ListingID: "l1", CheckIn: "2024-03-01", CheckOut: "2024-03-02"})
		if err != nil {
			t.Fatal(err)
		}
		pay.pay(order.ID)

		_, err = svc.Confirm(ctx, "g1", &domain.CreateBookingRequest{ListingID: "l1", CheckIn: "2024-03-01", CheckOut: "2024-03-09", OrderID: order.ID})
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
		if len(bookings.bookings) != 0 {
			t.Fatalf("booking stored for mismatched order: %+v", bookings.bookings)
		}
	})

	t.Run("another guest's order", func(t *testing.T) {
		_, pay, svc := bookingFixture()
		order, err := svc.Checkout(ctx, "g1", &domain.BookingCheckoutRequest{ListingID: "l1", CheckIn: "2024-03-01", CheckOut: "2024-03-02"})
		if err != nil {
			t.Fatal(err)
		}
		pay.pay(order.ID)

		_, err = svc.Confirm(ctx, "g2", &domain.CreateBookingRequest{ListingID: "l1", CheckIn: "2024-03-01", CheckOut: "2024-03-02", OrderID: order.ID})
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("amount differs from the quote", func(t *testing.T) {
		bookings, pay, svc := bookingFixture()
		order, err := svc.Checkout(ctx, "g1", &domain.BookingCheckoutRequest{ListingID: "l1", CheckIn: "2024-03-01", CheckOut: "2024-03-03"})
		if err != nil {
			t.Fatal(err)
		}
		pay.orders[order.ID].Amount = 1
		pay.pay(order.ID)

		_, err = svc.Confirm(ctx, "g1", &domain.CreateBookingRequest{ListingID: "l1", CheckIn: "2024-03-01", CheckOut: "2024-03-03", OrderID: order.ID})
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
		if len(bookings.bookings) != 0 {
			t.Fatalf("booking stored for underpaid order: %+v", bookings.bookings)
		}
	})
}

func TestSubscriptionOrderIsBoundToHostAndPlan(t *testing.T) {
	ctx := context.Background()
	newSvc := func() (*memSubs, *fakePayments, SubscriptionService) {
		subs := &memSubs{subs: map[string]*domain.Subscription{}}
		pay := newFakePayments()
		return subs, pay, NewSubscriptionService(subs, pay, &recordingBus{})
	}

	t.Run("replay does not reset usage", func(t *testing.T) {
		subs, pay, svc := newSvc()
		order, err := svc.Checkout(ctx, "h1", "basic_monthly")
		if err != nil {
			t.Fatal(err)
		}
		pay.pay(order.ID)
		req := &domain.ActivateSubscriptionRequest{PlanID: "basic_monthly", OrderID: order.ID}
		if _, err := svc.Activate(ctx, "h1", req); err != nil {
			t.Fatalf("activate: %v", err)
		}
		subs.subs["h1"].Used = 3

		if _, err := svc.Activate(ctx, "h1", req); !errors.Is(err, domain.ErrAlreadyDone) {
			t.Fatalf("replay err = %v, want ErrAlreadyDone", err)
		}
		if subs.subs["h1"].Used != 3 {
			t.Fatalf("used = %d after replay, want 3", subs.subs["h1"].Used)
		}
	})

	t.Run("cheap plan order for a dearer plan", func(t *testing.T) {
		subs, pay, svc := newSvc()
		order, err := svc.Checkout(ctx, "h1", "basic_monthly")
		if err != nil {
			t.Fatal(err)
		}
		pay.pay(order.ID)

		_, err = svc.Activate(ctx, "h1", &domain.ActivateSubscriptionRequest{PlanID: "annual", OrderID: order.ID})
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
		if len(subs.subs) != 0 {
			t.Fatalf("subscription stored: %+v", subs.subs)
		}
	})

	t.Run("another host's order", func(t *testing.T) {
		subs, pay, svc := newSvc()
		order, err := svc.Checkout(ctx, "h1", "pro_monthly")
		if err != nil {
			t.Fatal(err)
		}
		pay.pay(order.ID)

		_, err = svc.Activate(ctx, "h2", &domain.ActivateSubscriptionRequest{PlanID: "pro_monthly", OrderID: order.ID})
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
		if _, ok := subs.subs["h2"]; ok {
			t.Fatal("h2 activated with h1's order")
		}
	})
}

func TestCalendarMergesBlocksAndBookings(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	blocks := &memBlocks{}
	bookings := &memBookings{bookings: []domain.Booking{
		{ID: "b1", HostID: "h1", ListingID: "l1", CheckIn: day(10), CheckOut: day(12), Status: domain.BookingPaid, PayerName: "Ana"},
		{ID: "b2", HostID: "h1", ListingID: "l1", CheckIn: day(1), CheckOut: day(2), Status: domain.BookingCancelled},
		{ID: "b3", HostID: "h2", ListingID: "l9", CheckIn: day(3), CheckOut: day(4), Status: domain.BookingPaid},
	}}
	svc := NewCalendarService(blocks, bookings)
	ctx := context.Background()

	block, err := svc.AddBlock(ctx, "h1", &domain.CreateAvailabilityRequest{Title: "Repairs", Start: day(5), End: day(7)})
	if err != nil {
		t.Fatal(err)
	}

	events, err := svc.Calendar(ctx, "h1")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != block.ID || !events[0].Removable {
		t.Fatalf("first event should be the block: %+v", events[0])
	}
	if events[1].Kind != domain.CalendarBooking || events[1].Removable || events[1].Title != "Booking: Ana" {
		t.Fatalf("second event should be the booking: %+v", events[1])
	}

	if err := svc.RemoveBlock(ctx, "h2", block.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign delete err = %v", err)
	}
	if err := svc.RemoveBlock(ctx, "h1", "b1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("bookings must not be removable, err = %v", err)
	}
	if err := svc.RemoveBlock(ctx, "h1", block.ID); err != nil {
		t.Fatal(err)
	}
}
