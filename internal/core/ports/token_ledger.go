package ports

import "context"

// TokenLedger manages per-user prepaid roast credits.
type TokenLedger interface {
	// Balance returns the current balance, 0 when the account does not exist.
	Balance(ctx context.Context, owner string) (int, error)

	// TryDebitOne atomically decrements the balance by exactly 1. It fails
	// with domain.ErrInsufficientBalance, mutating nothing, when the account
	// is missing or the balance is below 1. Under concurrent calls for the
	// same owner the number of successful debits never exceeds the balance.
	TryDebitOne(ctx context.Context, owner string) error

	// Credit adds amount to the balance, creating the account when absent.
	Credit(ctx context.Context, owner string, amount int) error
}
