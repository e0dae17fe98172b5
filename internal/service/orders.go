package service

import (
	"fmt"
	"time"

	"github.com/diagnosis/stayease/internal/availability"
	"github.com/diagnosis/stayease/internal/domain"
	"github.com/diagnosis/stayease/internal/payments"
)

// Metadata keys stamped on payment orders. A captured order is accepted
// only for the purchase it was opened for.
const (
	metaPurpose   = "purpose"
	metaHostID    = "host_id"
	metaPlanID    = "plan_id"
	metaGuestID   = "guest_id"
	metaListingID = "listing_id"
	metaCheckIn   = "check_in"
	metaCheckOut  = "check_out"

	purposeSubscription = "subscription"
	purposeBooking      = "booking"
)

func subscriptionOrderMeta(hostID string, plan domain.Plan) map[string]string {
	return map[string]string{
		metaPurpose: purposeSubscription,
		metaHostID:  hostID,
		metaPlanID:  plan.ID,
	}
}

func bookingOrderMeta(guestID, listingID string, w availability.Window) map[string]string {
	return map[string]string{
		metaPurpose:   purposeBooking,
		metaGuestID:   guestID,
		metaListingID: listingID,
		metaCheckIn:   w.CheckIn.UTC().Format(time.RFC3339),
		metaCheckOut:  w.CheckOut.UTC().Format(time.RFC3339),
	}
}

func checkOrder(c *payments.Capture, amount float64, currency string, want map[string]string) error {
	if !c.Matches(amount, currency, want) {
		return fmt.Errorf("%w: order %s was not issued for this purchase", domain.ErrConflict, c.OrderID)
	}
	return nil
}
