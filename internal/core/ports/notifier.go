package ports

import "context"

// Notifier delivers account notifications. Implementations are expected to
// be slow (outbound email); callers decide whether delivery failures are
// fatal for the surrounding operation.
type Notifier interface {
	// SendResetLink emails a password-reset link containing the token.
	SendResetLink(ctx context.Context, email, token string) error

	// SendPasswordChanged emails a confirmation after a password change.
	SendPasswordChanged(ctx context.Context, email string) error

	// SendWelcome emails a greeting to a freshly registered account.
	// Delivery is not critical; implementations may defer it.
	SendWelcome(ctx context.Context, email, name string) error
}
