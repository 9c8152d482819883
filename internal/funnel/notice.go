package funnel

import (
	"fmt"
	"regexp"
	"strconv"

	"funnel_backend/internal/intent"
	leaddomain "funnel_backend/internal/leads/domain"
	"funnel_backend/internal/reservation"
	"funnel_backend/internal/session"
)

const (
	expiredNotice      = "Your order session expired. Please select the product again."
	conflictNotice     = "We could not confirm the order because the stock changed. Please select the product again."
	contactSavedNotice = "Thanks, your contact details have been saved. The team will be in touch."
	maxQuantity        = 999
)

var quantityPattern = regexp.MustCompile(`\b(\d+)\b`)

// extractQuantity returns the first whole number in text.
func extractQuantity(text string) (int, bool) {
	m := quantityPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > maxQuantity {
		return 0, false
	}
	return n, true
}

func takesQuantity(label intent.Label) bool {
	return label == intent.Buying || label == intent.Affirmation || label == intent.ProductInfo
}

func contactOf(sess *session.Session) leaddomain.Contact {
	return leaddomain.Contact{Email: sess.Email, Phone: sess.Phone}
}

func reservationNotice(r reservation.Reservation) string {
	return fmt.Sprintf("Stock confirmed.\nProduct: %s\nAvailable: %d\nReserved: %d\nPrice: £%.2f\nStatus: Ready for checkout.",
		r.ProductName, r.AvailableAtReserve, r.Quantity, r.UnitPrice)
}

func insufficientNotice(e *reservation.InsufficientStockError) string {
	return fmt.Sprintf("Sorry, only %d units of %s are available.", e.Available, e.ProductName)
}

func soldOutNotice(e *reservation.InsufficientStockError) string {
	return fmt.Sprintf("Sorry, %s sold out before the order could be completed (%d left). Please select the product again.",
		e.ProductName, e.Available)
}

func orderNotice(r reservation.Reservation) string {
	return fmt.Sprintf("Order confirmed.\nProduct: %s\nQuantity: %d\nTotal: £%.2f\n\nThank you for your purchase.",
		r.ProductName, r.Quantity, r.Total())
}
