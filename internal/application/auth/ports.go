package auth

import "context"

// SMSSender puerto de envío de códigos de verificación.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}
