package telegram

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"

	"github.com/abelikov/keywatch/internal/domain"
)

// Onboard runs the interactive login flow for a new account and returns it
// with a freshly minted credential, ready for the accounts file.
func Onboard(ctx context.Context, apiID int, apiHash string, authenticator auth.UserAuthenticator, logger *zap.Logger) (domain.Account, error) {
	storage := &memorySession{}

	client := telegram.NewClient(apiID, apiHash, telegram.Options{
		Logger:         logger,
		SessionStorage: storage,
	})

	var acc domain.Account
	err := client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(authenticator, auth.SendCodeOptions{})
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("auth: %w", err)
		}

		self, err := client.Self(ctx)
		if err != nil {
			return fmt.Errorf("get self: %w", err)
		}

		name := self.Username
		if name == "" {
			name = formatUserName(self)
		}

		raw := storage.Bytes()
		if len(raw) == 0 {
			return errors.New("no session data after auth")
		}

		acc = domain.Account{Name: name, Credential: encodeCredential(raw)}
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return acc, nil
}
