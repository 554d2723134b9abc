package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isSignedIn() bool
	Signup(ctx context.Context) error
	Signin(ctx context.Context) error
	Forgot(ctx context.Context) error
	Confirm(ctx context.Context) error
	Reset(ctx context.Context) error
	Refresh(ctx context.Context) error
	Signout(ctx context.Context) error
	Me(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// The loop exits on EOF or when the user types "exit" or "quit".
//
// Signed out: signup, signin, forgot, confirm, reset, help, exit.
// Signed in: me, refresh, signout, help, exit.
//
// Errors returned by command handlers are already reported to the user, so
// the loop ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		fmt.Printf("gophauth %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isSignedIn() {
				printlnFn("Available commands: me, refresh, signout, exit")
			} else {
				printlnFn("Available commands: signup, signin, forgot, confirm, reset, exit")
			}

		case "signup":
			_ = a.Signup(ctx)

		case "signin", "login":
			_ = a.Signin(ctx)

		case "forgot":
			_ = a.Forgot(ctx)

		case "confirm":
			_ = a.Confirm(ctx)

		case "reset":
			_ = a.Reset(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "signout", "logout":
			_ = a.Signout(ctx)

		case "me":
			_ = a.Me(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
