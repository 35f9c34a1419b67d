package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/miarbol/internal/client/client"
	"github.com/dmitrijs2005/miarbol/internal/client/config"
	"github.com/dmitrijs2005/miarbol/internal/client/metrics"
	"github.com/dmitrijs2005/miarbol/internal/client/models"
	"github.com/dmitrijs2005/miarbol/internal/client/notify"
	"github.com/dmitrijs2005/miarbol/internal/client/output"
	"github.com/dmitrijs2005/miarbol/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/miarbol/internal/client/services"
	"github.com/dmitrijs2005/miarbol/internal/common"
	"github.com/dmitrijs2005/miarbol/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	config   *config.Config
	auth     services.AuthService
	trees    services.TreeService
	features client.FeatureAPI
	notifier notify.Notifier
	printer  *output.Printer
	reader   *bufio.Reader
	out      io.Writer
	log      logging.Logger
	registry *prometheus.Registry

	commands map[string]*command
	order    []*command
	closers  []func() error
}

// deps are the collaborators of an App; tests build them by hand.
type deps struct {
	api      client.API
	repo     metadata.Repository
	notifier notify.Notifier
	printer  *output.Printer
	reader   *bufio.Reader
	out      io.Writer
	log      logging.Logger
	metrics  *metrics.Metrics
}

// NewApp wires configuration, the local store, the API client and the
// services into a ready-to-run App.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	log := logging.New(os.Stderr, c.LogLevel)

	format, err := output.ParseFormat(c.OutputFormat)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	repo, closeStore, err := openStore(ctx, c, log)
	if err != nil {
		log.Error(ctx, "error initializing local store", "error", err)
		return nil, err
	}

	api, err := client.NewHTTPClient(c.BaseURL(),
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(log.With("component", "api")),
		client.WithMetrics(m),
	)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	a := newApp(c, deps{
		api:      api,
		repo:     repo,
		notifier: notify.NewWriterNotifier(os.Stdout),
		printer:  output.NewPrinter(os.Stdout, format),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		log:      log,
		metrics:  m,
	})
	a.registry = reg
	a.closers = append(a.closers, closeStore)
	return a, nil
}

func newApp(c *config.Config, d deps) *App {
	a := &App{
		config:   c,
		auth:     services.NewAuthService(d.api, d.repo, d.notifier, d.log.With("component", "auth")),
		trees:    services.NewTreeService(d.api, d.notifier, d.log.With("component", "trees"), d.metrics),
		features: d.api,
		notifier: d.notifier,
		printer:  d.printer,
		reader:   d.reader,
		out:      d.out,
		log:      d.log,
	}
	a.auth.OnSessionChange(a.trees.Reset)
	a.registerCommands()
	return a
}

// Run restores the previous session, starts the optional metrics endpoint
// and blocks in the REPL until the user leaves or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	if a.config.MetricsAddr != "" && a.registry != nil {
		go func() {
			if err := metrics.Serve(ctx, a.config.MetricsAddr, a.registry, a.log); err != nil {
				a.log.Error(ctx, "metrics endpoint stopped", "error", err)
			}
		}()
	}

	if ok, err := a.auth.Restore(ctx); err != nil {
		a.log.Warn(ctx, "session restore failed", "error", err)
	} else if ok {
		printlnFn("Sesión restaurada:", a.getStatus())
	}

	printlnFn("Mi Árbol en el Mundo CLI (escribe 'help' para ver los comandos)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.auth.Authenticated()
}

func (a *App) activeRole() models.Role {
	s, ok := a.auth.Current()
	if !ok {
		return ""
	}
	return s.User.Role
}

func (a *App) lookup(name string) (*command, bool) {
	c, ok := a.commands[name]
	return c, ok
}

func (a *App) commandList() []*command {
	return a.order
}

func (a *App) getStatus() string {
	s, ok := a.auth.Current()
	if !ok {
		return ""
	}
	name := s.User.Username
	if name == "" {
		name = s.User.Email
	}
	return fmt.Sprintf("(%s %s)", name, s.User.Role)
}

// fail reports a failed call that no service has reported already.
func (a *App) fail(ctx context.Context, title string, err error) error {
	a.log.Debug(ctx, title, "error", err)
	a.notifier.Notify(ctx, notify.Notification{
		Level:       notify.LevelError,
		Title:       title,
		Description: client.Describe(err, common.DefaultErrorMessage),
	})
	return err
}

// usageError prints the usage line of a command.
func (a *App) usageError(name string) error {
	c, ok := a.commands[name]
	if ok {
		printlnFn("Uso:", c.usage)
	}
	return errUsage
}

var errUsage = errors.New("usage")

func (a *App) registerCommands() {
	staff := []models.Role{models.RolePlantador, models.RoleVivero, models.RoleAdmin}
	admin := []models.Role{models.RoleAdmin}

	for _, c := range []*command{
		{name: "register", usage: "register", run: a.Register},
		{name: "login", usage: "login [rol]", run: a.Login},
		{name: "logout", usage: "logout", auth: true, run: a.Logout},
		{name: "whoami", usage: "whoami", auth: true, run: a.WhoAmI},
		{name: "profile", usage: "profile", auth: true, run: a.Profile},
		{name: "switchrole", usage: "switchrole <rol>", auth: true, run: a.SwitchRole},
		{name: "addrole", usage: "addrole <rol>", auth: true, run: a.AddRole},
		{name: "home", usage: "home", auth: true, run: a.Home},

		{name: "trees", usage: "trees [filtro=valor ...] [--force]", auth: true, run: a.Trees},
		{name: "markers", usage: "markers [--force]", auth: true, run: a.Markers},
		{name: "stats", usage: "stats", auth: true, run: a.Stats},
		{name: "show", usage: "show <id>", auth: true, run: a.Show},
		{name: "plant", usage: "plant", auth: true, run: a.Plant},
		{name: "status", usage: "status <id> <estado>", auth: true, run: a.Status},
		{name: "delete", usage: "delete <id>", auth: true, run: a.Delete},

		{name: "orders", usage: "orders [id]", auth: true, roles: staff, run: a.Orders},
		{name: "catalog", usage: "catalog", auth: true, run: a.Catalog},
		{name: "projects", usage: "projects", auth: true, run: a.Projects},
		{name: "join", usage: "join <id> [monto]", auth: true, run: a.Join},
		{name: "ratings", usage: "ratings <plantadorId>", auth: true, run: a.Ratings},
		{name: "rate", usage: "rate", auth: true, run: a.Rate},
		{name: "coupons", usage: "coupons <proyectoId>", auth: true, run: a.Coupons},
		{name: "audit", usage: "audit", auth: true, roles: admin, run: a.Audit},
		{name: "moderation", usage: "moderation", auth: true, roles: admin, run: a.Moderation},
		{name: "approve", usage: "approve <id>", auth: true, roles: admin, run: a.Approve},
		{name: "reject", usage: "reject <id> [motivo]", auth: true, roles: admin, run: a.Reject},
	} {
		a.add(c)
	}
}

func (a *App) add(c *command) {
	if a.commands == nil {
		a.commands = map[string]*command{}
	}
	a.commands[c.name] = c
	a.order = append(a.order, c)
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
