package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Dashboard(ctx context.Context) error
	Profile(ctx context.Context) error
	Home(ctx context.Context) error
	Show(ctx context.Context) error
	Back(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF, when ctx is cancelled (e.g. on SIGINT) or
// when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — sign in
//	  - home           — landing view
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - help           — show available commands
//	  - dashboard      — show the account
//	  - profile        — change email or username
//	  - show           — render the current view again
//	  - back           — go to the previous view
//	  - logout         — log out
//	  - exit | quit    — leave the program
//
// Errors returned by command handlers are printed; the loop keeps running.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "ac %s> ", statusFn())
		line, err := readLine(ctx, reader)
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: dashboard, profile, show, back, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, home, show, back, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "d", "dashboard":
			cmdErr = a.Dashboard(ctx)

		case "profile":
			cmdErr = a.Profile(ctx)

		case "home":
			cmdErr = a.Home(ctx)

		case "show":
			cmdErr = a.Show(ctx)

		case "back":
			cmdErr = a.Back(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", cmdErr)
		}
	}
}

type readResult struct {
	line string
	err  error
}

// readLine reads one line from reader, giving up when ctx is done. The
// abandoned read keeps blocking in the background until input arrives;
// it only happens on shutdown.
func readLine(ctx context.Context, reader *bufio.Reader) (string, error) {
	ch := make(chan readResult, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- readResult{line: line, err: err}
	}()

	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
