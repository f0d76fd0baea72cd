package cli

import (
	"context"

	"github.com/smartkraft/lebensspur/internal/common"
)

var getPassword = GetPassword

// Login prompts for the device password and starts a session. The outcome is
// reported by the session engine through notifications.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		printlnFn("Already logged in")
		return nil
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if len(password) == 0 {
		printlnFn("Password must not be empty")
		return nil
	}

	return a.session.Login(ctx, string(password))
}

func (a *App) Logout(ctx context.Context) error {
	return a.session.Logout(ctx)
}
