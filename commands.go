package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/billie-coop/sift/internal/analyzer"
	"github.com/billie-coop/sift/internal/app"
	"github.com/billie-coop/sift/internal/config"
	"github.com/billie-coop/sift/internal/events"
	"github.com/billie-coop/sift/internal/files"
	"github.com/billie-coop/sift/internal/logging"
	"github.com/billie-coop/sift/internal/selection"
	"github.com/billie-coop/sift/internal/session"
	"github.com/billie-coop/sift/internal/tui"
	"github.com/billie-coop/sift/internal/watcher"
)

var errNotLoggedIn = errors.New("not logged in")

// runtime is what every command needs: loaded config, logging and the app.
type runtime struct {
	cfg *config.Manager
	app *app.App
}

func setup(console bool) (*runtime, error) {
	dir, err := config.DefaultDir()
	if err != nil {
		return nil, err
	}
	cfg := config.NewManager(dir)
	if err := cfg.Load(); err != nil {
		return nil, err
	}

	c := cfg.Get()
	level := c.LogLevel
	if c.Debug {
		level = "debug"
	}
	if err := logging.Setup(logging.Options{Dir: dir, Level: level, Console: console}); err != nil {
		return nil, err
	}

	a, err := app.New(cfg, events.NewBroker())
	if err != nil {
		logging.Close()
		return nil, err
	}
	return &runtime{cfg: cfg, app: a}, nil
}

func (r *runtime) close() {
	r.app.Close()
	logging.Close()
}

// withRuntime runs fn with a console-logging runtime.
func withRuntime(fn func(cmd *cobra.Command, r *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		r, err := setup(true)
		if err != nil {
			return err
		}
		defer r.close()
		return fn(cmd, r)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sift [location]",
		Short:         "Analyze code as you type",
		Long:          "sift sends code to an analyzer service while you edit it and shows only the freshest result.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "tui [location]",
			Short: "Start the terminal UI at a location such as /sandbox or /projects/5/main.py",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runTUI,
		},
		newAnalyzeCmd(),
		newProjectCmd(),
		newProjectsCmd(),
		newAuthCmd("login", "Log in and store the token"),
		newAuthCmd("register", "Create an account and store the token"),
		newLogoutCmd(),
		newConfigCmd(),
	)
	return root
}

func runTUI(cmd *cobra.Command, args []string) error {
	start := selection.Home
	if len(args) == 1 {
		loc, err := selection.ParseLocation(args[0])
		if err != nil {
			return err
		}
		start = loc
	}

	r, err := setup(false)
	if err != nil {
		return err
	}
	defer r.close()

	model, err := tui.New(r.app, start)
	if err != nil {
		return err
	}
	logx.Infof("starting tui at %s", start)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}

func newAnalyzeCmd() *cobra.Command {
	var (
		kindFlag string
		watch    bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a local file and print the result",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&kindFlag, "analyzer", "a", "", "analyzer kind (default: inferred from the file extension)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep watching the file and print every fresh result")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		path := args[0]
		r, err := setup(true)
		if err != nil {
			return err
		}
		defer r.close()

		kind, err := resolveKind(kindFlag, path, r.cfg.Get().Kind())
		if err != nil {
			return err
		}

		s, err := r.app.Sessions.OpenSandbox()
		if err != nil {
			return err
		}
		defer r.app.Sessions.Close(s.ID())

		if err := s.OnAnalyzerKindChange(kind); err != nil {
			return err
		}
		if watch {
			return watchFile(cmd.Context(), r, s, path, cmd.OutOrStdout())
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := s.OnEdit(string(content)); err != nil {
			return err
		}
		if err := s.Analyze(); err != nil {
			return err
		}
		snap, err := s.Wait(cmd.Context())
		if err != nil {
			return err
		}
		return printSnapshot(cmd.OutOrStdout(), snap)
	}
	return cmd
}

// watchFile feeds every saved version of path into the session as an edit and
// prints each settled result until the context ends or login is required.
func watchFile(ctx context.Context, r *runtime, s *session.Controller, path string, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := r.app.EventBroker.Subscribe(events.SessionStateEvent)
	defer r.app.EventBroker.Unsubscribe(sub, events.SessionStateEvent)

	w := watcher.NewWatcher(path, func(content string) {
		if err := s.OnEdit(content); err != nil {
			logx.Errorf("watch %s: %v", path, err)
		}
	})

	errs := make(chan error, 1)
	go func() { errs <- w.Run(ctx) }()

	fmt.Fprintf(out, "Watching %s (%s). Press Ctrl+C to stop.\n", path, s.Snapshot().Kind.Label())
	var printed uint64
	for {
		select {
		case err := <-errs:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			payload, ok := ev.Payload.(session.StatePayload)
			if !ok || payload.Snapshot.ID != s.ID() {
				continue
			}
			snap := payload.Snapshot
			switch snap.State {
			case session.ResultShown, session.Failed:
				if snap.Seq == printed {
					continue
				}
				printed = snap.Seq
				if err := printSnapshot(out, snap); err != nil {
					fmt.Fprintf(out, "%s\n", snap.Message)
				}
			case session.AuthRequired:
				return errNotLoggedIn
			}
		}
	}
}

// resolveKind prefers the flag, then the file extension, then the default.
func resolveKind(flag, path string, fallback analyzer.Kind) (analyzer.Kind, error) {
	if flag != "" {
		return analyzer.ParseKind(flag)
	}
	if kind, ok := analyzer.KindForPath(path); ok {
		return kind, nil
	}
	return fallback, nil
}

func newProjectCmd() *cobra.Command {
	var kindFlag string
	cmd := &cobra.Command{
		Use:   "project <id> [file]",
		Short: "Open a stored project, select a file and print its analysis",
		Args:  cobra.RangeArgs(1, 2),
	}
	cmd.Flags().StringVarP(&kindFlag, "analyzer", "a", "", "analyzer kind")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		path := ""
		if len(args) == 2 {
			path = args[1]
		}

		r, err := setup(true)
		if err != nil {
			return err
		}
		defer r.close()

		s, err := r.app.Sessions.OpenProject(id, path)
		if err != nil {
			return err
		}
		defer r.app.Sessions.Close(s.ID())

		if kindFlag != "" {
			kind, err := analyzer.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			if err := s.OnAnalyzerKindChange(kind); err != nil {
				return err
			}
		}
		if err := s.Load(cmd.Context()); err != nil {
			return err
		}
		snap, err := s.Wait(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Project %d: %s\n", snap.Project.ID, snap.Project.Name)
		if snap.Selected == nil {
			if path != "" {
				fmt.Fprintf(out, "No file %q in this project.\n", path)
			}
			for _, p := range snap.Project.Paths() {
				fmt.Fprintln(out, "  "+p)
			}
			return nil
		}
		fmt.Fprintf(out, "File: %s\n", snap.Selected.Path)
		return printSnapshot(out, snap)
	}
	return cmd
}

func printSnapshot(out io.Writer, snap session.Snapshot) error {
	switch snap.State {
	case session.ResultShown:
		fmt.Fprintln(out, snap.Result.Pretty())
		return nil
	case session.AuthRequired:
		return errNotLoggedIn
	case session.Failed:
		if snap.Err != nil {
			return fmt.Errorf("%s: %w", strings.TrimSuffix(snap.Message, "."), snap.Err)
		}
		return errors.New(snap.Message)
	default:
		return fmt.Errorf("analysis ended in state %s", snap.State)
	}
}

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List, create, delete or fill projects",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your projects",
			Args:  cobra.NoArgs,
			RunE: withRuntime(func(cmd *cobra.Command, r *runtime) error {
				projects, err := r.app.ProjectService.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, p := range projects {
					fmt.Fprintf(cmd.OutOrStdout(), "%-6d %s\n", p.ID, p.Name)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a project",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRuntime(func(cmd *cobra.Command, r *runtime) error {
					p, err := r.app.ProjectService.Create(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Created project %d: %s\n", p.ID, p.Name)
					return nil
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a project",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseProjectID(args[0])
				if err != nil {
					return err
				}
				return withRuntime(func(cmd *cobra.Command, r *runtime) error {
					if err := r.app.ProjectService.Delete(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %d\n", id)
					return nil
				})(cmd, args)
			},
		},
		newAddFileCmd(),
		&cobra.Command{
			Use:   "upload <id> <dir|archive.zip>",
			Short: "Upload a directory of sources or a zip archive into a project",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseProjectID(args[0])
				if err != nil {
					return err
				}
				return withRuntime(func(cmd *cobra.Command, r *runtime) error {
					archive, err := files.Archive(args[1])
					if err != nil {
						return err
					}
					defer archive.Close()
					if err := r.app.ProjectService.UploadZip(cmd.Context(), id, archive); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s into project %d\n", args[1], id)
					return nil
				})(cmd, args)
			},
		},
	)
	return cmd
}

func newAddFileCmd() *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "add-file <id> <local-path>",
		Short: "Add one local file to a project",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().StringVar(&as, "as", "", "path inside the project (default: the file name)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		content, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		path := as
		if path == "" {
			path = filepath.Base(args[1])
		}
		return withRuntime(func(cmd *cobra.Command, r *runtime) error {
			file, err := r.app.ProjectService.AddFile(cmd.Context(), id, filepath.ToSlash(path), string(content))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to project %d (file %d)\n", file.Path, id, file.ID)
			return nil
		})(cmd, args)
	}
	return cmd
}

func parseProjectID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}

func newAuthCmd(use, short string) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (default: $SIFT_PASSWORD)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if password == "" {
			password = os.Getenv("SIFT_PASSWORD")
		}
		if password == "" {
			return errors.New("a password is required: use --password or SIFT_PASSWORD")
		}
		return withRuntime(func(cmd *cobra.Command, r *runtime) error {
			var err error
			if use == "register" {
				err = r.app.AuthService.Register(cmd.Context(), args[0], password)
			} else {
				err = r.app.AuthService.Login(cmd.Context(), args[0], password)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", args[0])
			return nil
		})(cmd, args)
	}
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: withRuntime(func(cmd *cobra.Command, r *runtime) error {
			r.app.AuthService.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}

	load := func() (*config.Manager, error) {
		dir, err := config.DefaultDir()
		if err != nil {
			return nil, err
		}
		cfg := config.NewManager(dir)
		return cfg, cfg.Load()
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [key]",
			Short: "Print one setting, or all of them",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				keys := config.Keys()
				if len(args) == 1 {
					keys = args
				}
				for _, key := range keys {
					value, err := cfg.Value(key)
					if err != nil {
						return err
					}
					if len(args) == 1 {
						fmt.Fprintln(cmd.OutOrStdout(), value)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change a setting",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				return cfg.Set(args[0], args[1])
			},
		},
	)
	return cmd
}
