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
	SignUp(ctx context.Context) error
	Confirm(ctx context.Context) error
	Login(ctx context.Context) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context) error
	Logout(ctx context.Context) error
	Upload(ctx context.Context, paths []string) error
	List(ctx context.Context, args []string) error
	Sort(ctx context.Context) error
	URL(ctx context.Context, key string) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the Safe Locker CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a' with the remaining tokens as arguments. The
// loop exits on EOF or when the user types "exit" or "quit".
//
//	Signed out:
//	  - help                      show available commands
//	  - signup / confirm          create an account, enter the emailed code
//	  - login                     sign in
//	  - forgot / reset            request a reset code, set a new password
//	  - exit | quit               leave the program
//
//	Signed in:
//	  - upload <path>...          upload up to 30 files (1 GB in total)
//	  - (l)ist [folder] [asc|desc] list files by folder
//	  - sort                      toggle newest/oldest first
//	  - url <key>                 print a temporary download link
//	  - delete <id>               delete a file
//	  - watch                     follow uploads and deletions until Enter
//	  - logout                    sign out
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("locker %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: upload, (l)ist, sort, url, delete, watch, logout, exit")
			} else {
				printlnFn("Available commands: signup, confirm, login, forgot, reset, exit")
			}

		case "signup":
			cmdErr = a.SignUp(ctx)
		case "confirm":
			cmdErr = a.Confirm(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "forgot":
			cmdErr = a.Forgot(ctx)
		case "reset":
			cmdErr = a.Reset(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)

		case "upload":
			if len(args) == 0 {
				printlnFn("Usage: upload <path>...")
				continue
			}
			cmdErr = a.Upload(ctx, args)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "sort":
			cmdErr = a.Sort(ctx)
		case "url":
			if len(args) != 1 {
				printlnFn("Usage: url <key>")
				continue
			}
			cmdErr = a.URL(ctx, args[0])
		case "delete":
			if len(args) != 1 {
				printlnFn("Usage: delete <id>")
				continue
			}
			cmdErr = a.Delete(ctx, args[0])
		case "watch":
			cmdErr = a.Watch(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}
