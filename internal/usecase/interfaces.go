package usecase

import (
	"context"
	"io"

	"motomarket/internal/infrastructure/payment"
)

// External collaborators the usecases depend on. The concrete
// implementations live under internal/infrastructure.

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

type ChargeProvider interface {
	Charge(ctx context.Context, amount int64, currency, description string, card payment.Card) (string, error)
	VerifyWebhookSignature(body []byte, signature string) bool
}

type FileStorage interface {
	UploadFile(ctx context.Context, file io.Reader, contentType, folder, originalName string) (string, error)
}

type TokenSigner interface {
	Sign(userID string) (string, error)
}
