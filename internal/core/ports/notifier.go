package ports

import "context"

type EmailSender interface {
	Send(ctx context.Context, to, templateName string, data map[string]string) error
}

type SMSSender interface {
	Send(ctx context.Context, to, text string) error
}
