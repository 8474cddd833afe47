package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/sadopc/techflow/internal/api"
	"github.com/sadopc/techflow/internal/config"
	"github.com/sadopc/techflow/internal/form"
	"github.com/sadopc/techflow/internal/logging"
	"github.com/sadopc/techflow/internal/model"
	"github.com/sadopc/techflow/internal/session"
	"github.com/sadopc/techflow/internal/store"
	"github.com/sadopc/techflow/internal/tui"
)

// env is what every command shares once the persistent pre-run has wired it.
type env struct {
	cfg     config.Config
	store   *store.Store
	session *session.Session
	client  *api.Client
}

type flags struct {
	envFile  string
	apiURL   string
	dbPath   string
	logFile  string
	logLevel string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	var f flags
	e := &env{}

	root := &cobra.Command{
		Use:          "techflow",
		Short:        "Terminal client for the TechFlow project and task service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd, f)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			e.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.runTUI(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.envFile, "env", ".env", "dotenv file to load before the environment")
	pf.StringVar(&f.apiURL, "api-url", "", "backend base URL (overrides TECHFLOW_API_URL)")
	pf.StringVar(&f.dbPath, "db", "", "local database path (overrides TECHFLOW_DB_PATH)")
	pf.StringVar(&f.logFile, "log-file", "", "log file path (overrides TECHFLOW_LOG_FILE)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "mirror logs to stderr (ignored by the TUI)")

	root.AddCommand(
		newLoginCmd(e),
		newRegisterCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newStatsCmd(e),
		newConfigCmd(e),
	)
	return root
}

func (e *env) setup(cmd *cobra.Command, f flags) error {
	cfg, _ := config.Load(f.envFile)
	if f.apiURL != "" {
		cfg.APIURL = strings.TrimRight(f.apiURL, "/")
	}
	if f.dbPath != "" {
		cfg.DBPath = f.dbPath
	}
	if f.logFile != "" {
		cfg.LogFile = f.logFile
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if cfg.DBPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		cfg.DBPath = p
	}
	e.cfg = cfg

	// The TUI owns the terminal; only subcommands may log to stderr.
	stderr := f.verbose && cmd.Parent() != nil
	if err := logging.Init(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel, Stderr: stderr}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logging.WithComponent("main").WithField("command", cmd.Name()).Debugf("config loaded\n%s", cfg)

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	e.store = s
	e.session = session.New(s)
	e.client = api.New(cfg.APIURL, cfg.HTTPTimeout, e.session)
	return nil
}

func (e *env) close() {
	if e.store != nil {
		e.store.Close()
	}
}

func (e *env) defaults() tui.Prefs {
	return tui.Prefs{
		TaskPageSize:    e.cfg.TaskPageSize,
		ProjectPageSize: e.cfg.ProjectPageSize,
		ToastDuration:   e.cfg.ToastDuration,
	}
}

func (e *env) runTUI(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	app := tui.NewApp(tui.Options{
		Ctx:      ctx,
		Service:  e.client,
		Session:  e.session,
		Store:    e.store,
		Defaults: e.defaults(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// signalContext cancels on Ctrl+C for the headless commands.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}

func newLoginCmd(e *env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || password == "" {
				err := huh.NewForm(huh.NewGroup(
					huh.NewInput().Title("Email").Value(&email),
					huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
				)).Run()
				if err != nil {
					return err
				}
			}
			draft := form.LoginDraft{Email: strings.TrimSpace(email), Password: password}
			if err := draft.Validate(); err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			resp, err := e.client.Login(ctx, draft.Email, draft.Password)
			if err != nil {
				return errors.New(api.ErrorMessage(err, "login failed"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayUser(resp.User))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	return cmd
}

func newRegisterCmd(e *env) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" || email == "" || password == "" {
				err := huh.NewForm(huh.NewGroup(
					huh.NewInput().Title("Name").Value(&name),
					huh.NewInput().Title("Email").Value(&email),
					huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
				)).Run()
				if err != nil {
					return err
				}
			}
			draft := form.RegisterDraft{
				Name:     strings.TrimSpace(name),
				Email:    strings.TrimSpace(email),
				Password: password,
			}
			if err := draft.Validate(); err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			user, err := e.client.Register(ctx, draft.Email, draft.Password, draft.Name)
			if err != nil {
				return errors.New(api.ErrorMessage(err, "registration failed"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account for %s; run 'techflow login' to sign in\n", displayUser(user))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.client.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !e.session.Authenticated() {
				return errors.New("not logged in")
			}
			user, _ := e.session.User()
			if refresh {
				ctx, cancel := signalContext(cmd)
				defer cancel()
				u, err := e.client.Profile(ctx)
				if err != nil {
					return errors.New(api.ErrorMessage(err, "could not load profile"))
				}
				if err := e.session.SetUser(u); err != nil {
					return err
				}
				user = u
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", user.Name, user.Email)
			if exp, ok := e.session.ExpiresAt(); ok {
				fmt.Fprintf(out, "session expires %s\n", exp.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the profile from the server")
	return cmd
}

func newStatsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print task statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			page, err := e.client.ListTasks(ctx, api.TaskQuery{Limit: model.DashboardTaskLimit})
			if err != nil {
				return errors.New(api.ErrorMessage(err, "could not load tasks"))
			}
			s := model.ComputeStats(page.Items, time.Now())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total:     %d\n", s.Total)
			fmt.Fprintf(out, "Completed: %d (%.0f%%)\n", s.Completed, s.CompletionRate()*100)
			fmt.Fprintf(out, "Pending:   %d\n", s.Pending)
			fmt.Fprintf(out, "Overdue:   %d\n", s.Overdue)
			if page.TotalPages > 1 {
				fmt.Fprintf(out, "(first %d tasks only)\n", model.DashboardTaskLimit)
			}
			return nil
		},
	}
}

func newConfigCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), e.cfg.String())
		},
	}
}

func displayUser(u model.User) string {
	if u.Name != "" && u.Email != "" {
		return fmt.Sprintf("%s <%s>", u.Name, u.Email)
	}
	if u.Email != "" {
		return u.Email
	}
	return u.Name
}
