package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" && a.api.HasSession() {
		s = fmt.Sprintf("(%s)", a.userName)
	}
	return s
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to gossip CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("gossip %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		var err error
		switch cmd {
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "refresh":
			err = a.Refresh(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.Whoami(ctx)
		case "help":
			a.printHelp()
		case "exit", "quit":
			return
		default:
			fmt.Printf("unknown command: %s (type 'help')\n", cmd)
		}

		if err != nil {
			log.Printf("error: %s", err.Error())
		}
	}
}

func (a *App) printHelp() {
	fmt.Println(`Commands:
  register  create a new account
  login     authenticate and start a session
  refresh   exchange the refresh token for fresh credentials
  whoami    show the user the access token belongs to
  logout    end the current session
  exit      quit`)
}
