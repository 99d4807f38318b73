package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Train(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Logs(ctx context.Context, args []string) error
	Access(ctx context.Context, args []string) error
	Intruders(ctx context.Context) error
	Admin(ctx context.Context, args []string) error
}

// runREPL reads commands line by line and dispatches them to a until EOF,
// "exit" or "quit". Handlers report their own errors; a failing command
// never ends the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("faceguard%s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, logout, register, train, logs, access, intruders, admin, exit")
			} else {
				printlnFn("Available commands: login, register, train, logs, access, intruders, admin, exit")
			}
		case "register":
			err = a.Register(ctx)
		case "train":
			err = a.Train(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.WhoAmI(ctx)
		case "logs":
			err = a.Logs(ctx, args)
		case "access":
			err = a.Access(ctx, args)
		case "intruders":
			err = a.Intruders(ctx)
		case "admin":
			err = a.Admin(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
		if err != nil {
			printlnFn(err.Error())
		}
	}
}
