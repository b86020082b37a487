package ports

import "context"

// PaymentProvider issues hosted payment links against the external provider.
type PaymentProvider interface {
	CreatePaymentLink(ctx context.Context, orderCode, amount int64, description string) (string, error)
}
