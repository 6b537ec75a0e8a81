package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-tender-client/api"
	"github.com/jrsteele09/go-tender-client/internal/config"
	"github.com/jrsteele09/go-tender-client/internal/logging"
	"github.com/jrsteele09/go-tender-client/navstate"
	"github.com/jrsteele09/go-tender-client/session"
	"github.com/jrsteele09/go-tender-client/session/filestore"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is everything a command needs: the persisted session, the REST
// client riding on it and the page-state cache.
type app struct {
	cfg     config.Config
	logger  zerolog.Logger
	in      *bufio.Reader
	out     io.Writer
	errOut  io.Writer
	session *session.Manager
	api     *api.Client
	nav     *navstate.Cache
	navPath string
}

func newApp(cfg config.Config, in io.Reader, out, errOut io.Writer) *app {
	logger := logging.New(cfg.GetEnv(), cfg.GetLogLevel(), errOut)
	a := &app{
		cfg:     cfg,
		logger:  logger,
		in:      bufio.NewReader(in),
		out:     out,
		errOut:  errOut,
		navPath: filepath.Join(filepath.Dir(cfg.GetTokenFile()), "pages.json"),
	}

	store := filestore.New(cfg.GetTokenFile())
	logger.Debug().Str("path", store.Path()).Msg("credential store")

	httpClient := &http.Client{Timeout: cfg.GetHTTPTimeout()}
	a.session = session.New(cfg.GetAPIBaseURL(), store,
		session.WithHTTPClient(httpClient),
		session.WithEndpoints(session.Endpoints{
			Login:    cfg.GetLoginPath(),
			Refresh:  cfg.GetRefreshPath(),
			Logout:   cfg.GetLogoutPath(),
			UserInfo: cfg.GetUserInfoPath(),
			Register: cfg.GetRegisterPath(),
			SMSCode:  cfg.GetSMSCodePath(),
		}),
		session.WithNavigator(session.NavigatorFunc(a.redirectToLogin)),
		session.WithLogger(logging.Component(logger, "session")),
	)
	a.api = api.New(cfg.GetAPIBaseURL(), a.session.Client(),
		api.WithLogger(logging.Component(logger, "api")),
		api.WithUpdateCountTTL(cfg.GetUpdateCountCacheTTL()),
	)
	a.nav = navstate.New(navstate.WithLogger(logging.Component(logger, "navstate")))
	return a
}

// redirectToLogin is the CLI's login entry point: the session is gone, so
// tell the user how to start a new one.
func (a *app) redirectToLogin(reason string) {
	if reason == "logout" {
		return
	}
	fmt.Fprintf(a.errOut, "session ended (%s); run `%s` to sign in again\n", reason, a.cfg.GetLoginEntryPoint())
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands map[string]command

// filled in init since the run funcs read commands for their usage text
func init() {
	commands = map[string]command{
		"login":       {"login [-username u] [-password p]", runLogin},
		"logout":      {"logout", runLogout},
		"whoami":      {"whoami", runWhoami},
		"sms":         {"sms -phone 1xxxxxxxxxx", runSendSMS},
		"register":    {"register -username u -password p -phone 1xxxxxxxxxx -company c -code 123456", runRegister},
		"updates":     {"updates", runUpdates},
		"projects":    {"projects [-page n] [-size n] [-search text]", runProjects},
		"project":     {"project <project-id>", runProject},
		"sections":    {"sections [-page n] [-size n] [-search text]", runSections},
		"bids":        {"bids <section-id>", runBids},
		"results":     {"results [-page n] [-size n] [-search text]", runResults},
		"result":      {"result <section-id>", runResult},
		"companies":   {"companies -query text", runCompanies},
		"company":     {"company -corp code [-page n]", runCompanyBids},
		"achievement": {"achievement <company-id>", runAchievement},
		"simulate":    {"simulate list|total -input file.yaml [flags]", runSimulate},
	}
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	if len(args) == 0 {
		printHelp(out)
		return nil
	}
	switch args[0] {
	case "help", "--help", "-h":
		printHelp(out)
		return nil
	case "--version", "version", "-v":
		fmt.Fprintln(out, "tender "+version)
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		printHelp(errOut)
		return fmt.Errorf("unknown command %q", args[0])
	}

	a := newApp(config.New(), in, out, errOut)
	if err := a.nav.Load(a.navPath); err != nil {
		a.logger.Warn().Err(err).Msg("page state not loaded")
	}
	a.nav.Sweep(a.cfg.GetPageStateMaxAge())

	// keeps sweeping while an interactive prompt or long simulation runs
	sweepCtx, cancel := context.WithCancel(ctx)
	go a.nav.Run(sweepCtx, a.cfg.GetPageStateSweepInterval(), a.cfg.GetPageStateMaxAge())
	err := cmd.run(ctx, a, args[1:])
	cancel()
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if werr := a.nav.WriteFile(a.navPath); werr != nil {
		a.logger.Warn().Err(werr).Msg("page state not saved")
	}
	return err
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, figure.NewFigure("tender", "cybermedium", true).String())
	fmt.Fprintln(w, "usage: tender <command> [flags]")
	fmt.Fprintln(w)
	for _, name := range []string{
		"login", "logout", "whoami", "sms", "register", "updates",
		"projects", "project", "sections", "bids", "results", "result",
		"companies", "company", "achievement", "simulate",
	} {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	fs.Usage = func() {
		fmt.Fprintf(a.errOut, "usage: tender %s\n", commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

// oneArg parses a command that takes flags and exactly one positional id.
func oneArg(a *app, name string, args []string) (string, error) {
	fs := newFlagSet(a, name)
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		fs.Usage()
		return "", fmt.Errorf("%s: expected one id", name)
	}
	return fs.Arg(0), nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
