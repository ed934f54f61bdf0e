package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/client/client"
	"github.com/dmitrijs2005/factfeed/internal/client/config"
	"github.com/dmitrijs2005/factfeed/internal/client/models"
	"github.com/dmitrijs2005/factfeed/internal/client/repositories/preferences"
	"github.com/dmitrijs2005/factfeed/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/factfeed/internal/client/services"
	"github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/dmitrijs2005/factfeed/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// sessionAPI is the part of services.SessionManager the commands use.
type sessionAPI interface {
	CurrentIdentity() *models.Identity
	Login(ctx context.Context, email, password string) (*models.Identity, error)
	Signup(ctx context.Context, email, password string) (services.SignupResult, error)
	Logout(ctx context.Context) error
}

// storeAPI is the part of services.FactStore the commands use.
type storeAPI interface {
	Facts() []facts.Fact
	Loading() bool
	Filter() string
	SetFilter(ctx context.Context, filter string) error
	Refresh(ctx context.Context) error
	Wait()
}

type mutationAPI interface {
	Insert(ctx context.Context, form *models.FactForm) error
	Vote(ctx context.Context, id int64, column facts.VoteColumn) error
	Delete(ctx context.Context, id int64) error
	IsUpdating(id int64) bool
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config    *config.Config
	log       logging.Logger
	sessions  sessionAPI
	store     storeAPI
	mutations mutationAPI
	pinger    pinger
	prefs     preferences.Repository
	reader    *bufio.Reader
	out       io.Writer

	modeMu sync.Mutex
	Mode   Mode

	// owned resources, nil when the App is assembled by hand in tests
	manager *services.SessionManager
	factSvc *services.FactStore
	db      *sql.DB
}

// NewApp opens the local database and wires the data service client and
// the services around it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewTextLogger(os.Stderr, logging.ParseLevel(c.LogLevel))

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api := client.NewHTTPClient(c.ServiceURL, c.APIKey,
		sessions.NewSQLiteRepository(db),
		client.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}),
		client.WithLogger(logger),
	)

	a := &App{
		config: c,
		log:    logger.With("module", "cli"),
		pinger: api,
		prefs:  preferences.NewSQLiteRepository(db),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		db:     db,
	}
	alerter := services.AlertFunc(a.alert)

	a.manager = services.NewSessionManager(api, logger)
	a.factSvc = services.NewFactStore(api, alerter, logger,
		services.WithStaleFetchDiscard(c.DiscardStaleFetches))

	a.sessions = a.manager
	a.store = a.factSvc
	a.mutations = services.NewMutationCoordinator(api, a.factSvc, a.manager, alerter, logger)

	return a, nil
}

// Run restores the session, starts the background watcher and blocks in the
// REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.restoreFilter(ctx)

	if err := a.manager.Start(ctx); err != nil {
		a.log.Error(ctx, "session manager start failed", "error", err)
		return
	}
	<-a.manager.Ready()
	a.factSvc.Bind(ctx, a.manager)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	printlnFn("Today I learned! (type 'help' for commands)")
	if id := a.sessions.CurrentIdentity(); id != nil {
		printlnFn("Welcome back,", id.Email)
		a.store.Wait()
		_ = a.List(ctx)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

// Close releases the services and the local database.
func (a *App) Close() {
	if a.factSvc != nil {
		a.factSvc.Close()
	}
	if a.manager != nil {
		a.manager.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.sessions.CurrentIdentity() != nil
}

// alert prints a notice the user must see, outside the normal output flow.
func (a *App) alert(ctx context.Context, message string) {
	fmt.Fprintf(a.out, "\n!!! %s\n", message)
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.modeMu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.Mode
}

func (a *App) getStatus() string {
	s := ""
	if id := a.sessions.CurrentIdentity(); id != nil {
		s = id.Email + " "
	}
	if m := a.mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// StartOnlineStatusWatcher pings the service every interval and flips Mode
// between online and offline. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.pinger.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) restoreFilter(ctx context.Context) {
	if a.prefs == nil {
		return
	}
	saved, err := a.prefs.Get(ctx, preferences.KeyFilter)
	if err != nil || saved == "" {
		return
	}
	if err := a.store.SetFilter(ctx, saved); err != nil {
		a.log.Warn(ctx, "saved filter ignored", "filter", saved, "error", err)
	}
}
