// Package quota defines the tier-limited resources and the ports used to
// count a user's existing resources.
package quota

import "context"

// Kind identifies a quota-limited operation.
type Kind string

const (
	KindWallet Kind = "wallet"
	KindDebt   Kind = "debt"
	KindReport Kind = "report"
)

func (k Kind) String() string {
	return string(k)
}

// Debt statuses. Terminal debts no longer count against the quota.
const (
	DebtStatusActive        = "active"
	DebtStatusPartiallyPaid = "partially_paid"
	DebtStatusOverdue       = "overdue"
	DebtStatusPaid          = "paid"
	DebtStatusCancelled     = "cancelled"
)

// NonTerminalDebtStatuses lists the debt statuses counted as active.
var NonTerminalDebtStatuses = []string{
	DebtStatusActive,
	DebtStatusPartiallyPaid,
	DebtStatusOverdue,
}

// WalletCounter counts the wallets a user currently owns.
type WalletCounter interface {
	CountWallets(ctx context.Context, userID uint) (int64, error)
}

// DebtCounter counts a user's debts in a non-terminal status.
type DebtCounter interface {
	CountActiveDebts(ctx context.Context, userID uint) (int64, error)
}
