package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/safelocker/internal/client/client"
	"github.com/dmitrijs2005/safelocker/internal/client/config"
	"github.com/dmitrijs2005/safelocker/internal/client/locker"
	"github.com/dmitrijs2005/safelocker/internal/client/memory"
	"github.com/dmitrijs2005/safelocker/internal/client/session"
	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/media"
)

// backend bundles the collaborators one implementation provides.
type backend interface {
	session.Identity
	locker.ObjectStore
	locker.Catalog
	locker.Watcher
}

type App struct {
	config   *config.Config
	session  *session.Service
	uploader *locker.Uploader
	library  *locker.Library
	watcher  locker.Watcher
	closer   io.Closer
	logger   logging.Logger

	reader *bufio.Reader
	out    io.Writer

	order   locker.Order
	listing locker.Folders

	// pending sign-up or reset, so the confirmation step can be retried
	pendingEmail    string
	pendingPassword string
}

// NewApp builds the client for the backend selected in c.
func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	var (
		be     backend
		closer io.Closer
	)

	switch c.Backend {
	case config.BackendMemory:
		m := memory.New()
		if c.Demo {
			m.Seed()
		}
		be = m
	default:
		gc, err := client.NewGRPCClient(c.ServerEndpointAddr, logger)
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", c.ServerEndpointAddr, err)
		}
		be, closer = gc, gc
	}

	a := newApp(be, logger, os.Stdin, os.Stdout)
	a.config = c
	a.closer = closer
	return a, nil
}

func newApp(be backend, logger logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		config:   &config.Config{},
		session:  session.New(be, logger),
		uploader: locker.NewUploader(be, be, logger),
		library:  locker.NewLibrary(be, be, logger),
		watcher:  be,
		logger:   logger.With("module", "cli"),
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Run restores a previous session when possible and serves the REPL until
// the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	if a.closer != nil {
		defer a.closer.Close()
	}

	a.println("Welcome to Safe Locker (type 'help' for commands)")
	if u := a.session.Bootstrap(ctx); u != nil {
		a.printf("Signed in as %s\n", u.Email)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.session.User() != nil
}

func (a *App) getStatus() string {
	if u := a.session.User(); u != nil {
		return fmt.Sprintf("(%s)", u.Email)
	}
	return "(signed out)"
}

// lookup finds an item of the last listing by id.
func (a *App) lookup(id string) (media.Item, bool) {
	for _, f := range media.Folders {
		for _, it := range a.listing.Get(f) {
			if it.ID == id {
				return it, true
			}
		}
	}
	return media.Item{}, false
}
