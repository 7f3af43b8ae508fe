package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/config"
	"github.com/noah-isme/courseforge-portal/internal/portal"
	"github.com/noah-isme/courseforge-portal/internal/view"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

type readPasswordFunc func(prompt string) (string, error)

type cli struct {
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
	loadConfig   func() (config.Config, error)
	readPassword readPasswordFunc
	options      portal.Options
}

type environment struct {
	portal  *portal.Portal
	catalog view.Catalog
	logger  zerolog.Logger
	stdout  io.Writer
	prompt  readPasswordFunc
}

type command struct {
	usage string
	run   func(ctx context.Context, env *environment, args []string) error
}

var commands = map[string]command{
	"login":        {usage: "login -email EMAIL [-password PASSWORD]", run: login},
	"register":     {usage: "register -email EMAIL -first NAME -last NAME [-role student|teacher|admin]", run: register},
	"logout":       {usage: "logout", run: logout},
	"whoami":       {usage: "whoami", run: whoami},
	"dashboard":    {usage: "dashboard", run: dashboard},
	"claim":        {usage: "claim -id COURSEWORK", run: claim},
	"create":       {usage: "create -subject ID -title TITLE -description TEXT [-max N] [-difficulty easy|medium|hard]", run: create},
	"update":       {usage: "update -id COURSEWORK [-title TITLE] [-description TEXT] [-max N] [-difficulty LEVEL]", run: update},
	"delete":       {usage: "delete -id COURSEWORK", run: remove},
	"availability": {usage: "availability -id COURSEWORK -available=true|false", run: availability},
	"subjects":     {usage: "subjects", run: subjects},
	"serve":        {usage: "serve [-port PORT]", run: serve},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli{
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		loadConfig: config.Load,
	}
	app.readPassword = terminalPassword(app.stdin, app.stderr)

	os.Exit(app.run(ctx, os.Args[1:]))
}

func (c *cli) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		c.usage()
		return exitUsage
	}

	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(c.stderr, "unknown command %q\n", name)
		c.usage()
		return exitUsage
	}

	cfg, err := c.loadConfig()
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to load configuration: %v\n", err)
		return exitError
	}

	logger := newLogger(c.stderr, cfg.LogLevel, name == "serve")

	p, err := portal.New(ctx, cfg, logger, c.options)
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to start: %v\n", err)
		return exitError
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("failed to close portal")
		}
	}()

	env := &environment{
		portal:  p,
		catalog: view.NewCatalog(cfg.Locale),
		logger:  logger,
		stdout:  c.stdout,
		prompt:  c.readPassword,
	}

	if err := cmd.run(ctx, env, args[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(c.stderr, "usage: courseforge %s\n", cmd.usage)
			return exitUsage
		}
		c.printError(err, env.catalog)
		return exitError
	}
	return exitOK
}

func (c *cli) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(c.stderr, "usage: courseforge <command> [flags]")
	fmt.Fprintln(c.stderr)
	for _, name := range names {
		fmt.Fprintf(c.stderr, "  %s\n", commands[name].usage)
	}
}

func (c *cli) printError(err error, catalog view.Catalog) {
	fmt.Fprintf(c.stderr, "error: %s\n", view.ErrorMessage(err, catalog))

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		for _, field := range appErr.Fields {
			fmt.Fprintf(c.stderr, "  %s: %s\n", field.Field, field.Message)
		}
	}
}

// newLogger writes structured logs to w. One-shot commands only report warnings
// so command output stays readable.
func newLogger(w io.Writer, level string, server bool) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	if !server && parsed < zerolog.WarnLevel {
		parsed = zerolog.WarnLevel
	}
	return zerolog.New(w).Level(parsed).With().Timestamp().Logger()
}

func (e *environment) printJSON(value interface{}) error {
	encoder := json.NewEncoder(e.stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func (e *environment) printf(format string, args ...interface{}) {
	fmt.Fprintf(e.stdout, format, args...)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func terminalPassword(stdin io.Reader, stderr io.Writer) readPasswordFunc {
	return func(prompt string) (string, error) {
		fmt.Fprint(stderr, prompt)
		if file, ok := stdin.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			raw, err := term.ReadPassword(int(file.Fd()))
			fmt.Fprintln(stderr)
			if err != nil {
				return "", fmt.Errorf("read password: %w", err)
			}
			return string(raw), nil
		}

		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

func serve(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("serve")
	port := fs.String("port", env.portal.Config.PortalPort, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := env.portal.Config
	cfg.PortalPort = *port
	addr := cfg.HTTPAddress()

	app := env.portal.App()
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(addr)
	}()
	env.logger.Info().Str("addr", addr).Str("backend", cfg.APIBaseURL).Msg("portal listening")

	select {
	case err := <-listenErr:
		return fmt.Errorf("start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		env.logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	env.logger.Info().Msg("server stopped")
	return nil
}
