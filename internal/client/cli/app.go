// Package cli is the interactive shell of the gossip client. It owns only
// prompts and command dispatch; all protocol work is in the api package.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/kw-00/gossip/internal/client/api"
	"github.com/kw-00/gossip/internal/client/config"
)

// sessionAPI is the slice of api.Client the shell uses. It exists so
// command handlers can be tested against a stub.
type sessionAPI interface {
	Register(ctx context.Context, login string, password []byte) error
	Login(ctx context.Context, login string, password []byte) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) (string, error)
	HasSession() bool
}

type App struct {
	config   *config.Config
	api      sessionAPI
	userName string
	reader   *bufio.Reader
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    api.NewClient(c.ServerBaseURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
	}
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}
