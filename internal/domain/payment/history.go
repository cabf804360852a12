// Package payment exposes the payment history consulted by trial eligibility.
package payment

import "context"

// Payment statuses that count as settled.
const (
	StatusPaid = "paid"
)

// History answers questions about a user's past payments.
type History interface {
	HasSuccessfulPayment(ctx context.Context, userID uint) (bool, error)
}
