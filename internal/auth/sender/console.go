// Package sender delivers verification codes. The console sender is used
// outside production; SMS delivery is handled by the messaging gateway.
package sender

import (
	"context"

	authdomain "github.com/closebytel/closeby/internal/auth/domain"
	"go.uber.org/zap"
)

type Console struct {
	log *zap.Logger
}

func NewConsole(log *zap.Logger) authdomain.CodeSender {
	return &Console{log: log.Named("auth.sender")}
}

func (c *Console) Send(ctx context.Context, phone, code string) error {
	_ = ctx
	c.log.Info("verification code issued",
		zap.String("phone", phone),
		zap.String("code", code),
	)
	return nil
}
