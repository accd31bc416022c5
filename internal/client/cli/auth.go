package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/kw-00/gossip/internal/client/api"
	"github.com/kw-00/gossip/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for a login and password and attempts to create
// a new account.
//
// On success it prints "Success!" and returns nil. The password byte slice
// is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter login", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Register(ctx, userName, password); err != nil {
		if errors.Is(err, api.ErrConflict) {
			log.Printf("Login already taken")
			return nil
		}
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Login prompts the user for credentials and tries to authenticate. On
// success the api client holds the session; a.userName is set for the
// prompt. The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter login", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, userName, password); err != nil {
		switch {
		case errors.Is(err, api.ErrUnauthorized):
			log.Printf("Login unsuccessfull: invalid login or password")
		case errors.Is(err, api.ErrUnavailable):
			log.Printf("Server unavailable")
		default:
			log.Printf("Login unsuccessfull: %s", err.Error())
		}
		return nil
	}

	log.Printf("Login successfull")
	a.userName = userName
	return nil
}

// Refresh exchanges the current refresh token for a new pair. A dead
// session clears the prompt name; the user has to log in again.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.api.Refresh(ctx); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			log.Printf("Session is no longer valid, please log in again")
			a.userName = ""
			return nil
		}
		return err
	}

	log.Printf("Tokens refreshed")
	return nil
}

// Logout revokes the session server-side and forgets the tokens.
func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		return err
	}
	a.userName = ""
	log.Printf("Logged out")
	return nil
}

// Whoami asks the server which user the access token belongs to.
func (a *App) Whoami(ctx context.Context) error {
	id, err := a.api.Whoami(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			log.Printf("Not logged in (or access token expired, try 'refresh')")
			return nil
		}
		return err
	}

	fmt.Printf("user id: %s\n", id)
	return nil
}
