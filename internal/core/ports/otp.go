package ports

import "context"

// OTPStore persists one-time codes with their expiry and attempt budget.
type OTPStore interface {
	// Save stores the code for a phone number. Returns domain.ErrOTPThrottled
	// when a code was issued inside the resend cooldown window.
	Save(ctx context.Context, phone, code string) error
	// Verify consumes the code. A wrong code burns one attempt; the code is
	// deleted after the attempt budget is spent or on success.
	Verify(ctx context.Context, phone, code string) error
}

// SMSSender delivers a text message out of band. The gateway is an external
// collaborator; implementations live in infrastructure.
type SMSSender interface {
	Send(ctx context.Context, phone, body string) error
}
