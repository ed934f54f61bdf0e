package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Whoami(ctx context.Context) error
	List(ctx context.Context) error
	Filter(ctx context.Context, args []string) error
	Categories(ctx context.Context) error
	Post(ctx context.Context) error
	Vote(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: login, signup, exit"
	helpLoggedIn  = "Available commands: (l)ist, filter <all|category>, categories, post, " +
		"vote <id> <interesting|mindblowing|false>, delete <id>, refresh, whoami, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the factfeed CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on a; the remaining tokens are passed as arguments
// where a command takes any. Commands that need a session are refused while
// logged out. The loop exits on EOF, on "exit"/"quit", or when ctx is done.
//
// Prompt & Commands
//
//	Not logged in:
//	  - help           — show available commands
//	  - login          — authenticate with email and password
//	  - signup         — create an account
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - help                 — show available commands
//	  - list | l             — list facts of the current category
//	  - filter <name>        — select "all" or a category
//	  - categories           — show categories and their colours
//	  - post                 — share a new fact
//	  - vote <id> <column>   — vote interesting, mindblowing or false
//	  - delete <id>          — delete a fact
//	  - refresh              — fetch the list again
//	  - whoami               — show the account
//	  - logout               — log out
//	  - exit | quit          — leave the program
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors to the user.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("factfeed %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if requiresLogin(cmd) && !a.isLoggedIn() {
			printlnFn("Please log in first.")
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "login":
			_ = a.Login(ctx)

		case "signup":
			_ = a.Signup(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "filter":
			_ = a.Filter(ctx, args)

		case "categories":
			_ = a.Categories(ctx)

		case "post":
			_ = a.Post(ctx)

		case "vote":
			_ = a.Vote(ctx, args)

		case "delete":
			_ = a.Delete(ctx, args)

		case "refresh":
			_ = a.Refresh(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func requiresLogin(cmd string) bool {
	switch cmd {
	case "whoami", "l", "list", "filter", "categories", "post", "vote", "delete", "refresh", "logout":
		return true
	}
	return false
}
