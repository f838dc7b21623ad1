package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/snipdeck/snipdeck/internal/bridge"
	"github.com/snipdeck/snipdeck/internal/config"
	"github.com/snipdeck/snipdeck/internal/editorhost"
	"github.com/snipdeck/snipdeck/internal/engine"
	"github.com/snipdeck/snipdeck/internal/language"
	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/snipdeck/snipdeck/internal/state"
	"github.com/snipdeck/snipdeck/internal/store"
	"github.com/snipdeck/snipdeck/internal/tui"
	"github.com/spf13/cobra"
)

// Replaced in tests.
var (
	newPrompter    = func() tui.Prompter { return tui.NewTerminal() }
	newDocuments   = func(cfg *config.Config) bridge.Documents { return editorhost.New(cfg.Editor, cfg.ScratchDir(), bridge.Suffix) }
	readClipboard  = clipboard.ReadAll
	writeClipboard = clipboard.WriteAll
)

// app is the wiring of one command invocation.
type app struct {
	cfg      *config.Config
	store    *store.Store
	engine   *engine.Engine
	sessions *state.Manager
	bridge   *bridge.Bridge
	docs     bridge.Documents
	prompter tui.Prompter
	out      io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	workspaces, err := stringSliceFlag(cmd, "workspace")
	if err != nil {
		return nil, err
	}
	layout, err := cfg.Layout(workspaces)
	if err != nil {
		return nil, err
	}

	sessions, err := state.Open(cfg.Home)
	if err != nil {
		if !IsCorruptStateError(err) {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		slog.Warn("session file is corrupt; starting a new session", slog.String("error", err.Error()))
		sessions = state.NewManager(nil)
	}

	st := store.New(store.OSFileSystem{}, layout)
	if _, err := st.RescanAll(ctx); err != nil {
		return nil, err
	}

	eng := engine.New(st,
		engine.WithUsageRecorder(sessions),
		engine.WithNotifier(engine.NotifierFunc(func(paths []string) {
			if paths == nil {
				slog.Debug("snippet tree changed")
				return
			}
			slog.Debug("snippet groups changed", slog.String("paths", strings.Join(paths, ", ")))
		})),
	)

	docs := newDocuments(cfg)
	br := bridge.New(bridge.Config{
		Dir:      cfg.ScratchDir(),
		Store:    st,
		Updater:  eng,
		Docs:     docs,
		Sessions: sessions,
		Now:      time.Now,
	})
	eng.AddCloser(br)

	return &app{
		cfg:      cfg,
		store:    st,
		engine:   eng,
		sessions: sessions,
		bridge:   br,
		docs:     docs,
		prompter: newPrompter(),
		out:      cmd.OutOrStdout(),
	}, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{EnvFiles: []string{".env"}})
	if err != nil {
		return nil, err
	}
	userDir, err := OptionalStringFlag(cmd, "user-dir")
	if err != nil {
		return nil, err
	}
	if userDir != "" {
		cfg.UserDir = userDir
	}
	return cfg, nil
}

// languageSources collects the inputs of the language picker.
func (a *app) languageSources() language.Sources {
	return language.Sources{
		Current: a.cfg.Language,
		Fixed:   a.cfg.FixedLanguages,
		Used:    a.sessions.UsedLanguages(),
		Scope:   a.cfg.ScopeLanguages,
	}
}

// run builds the app and runs fn. A dismissed prompt ends the command
// without an error.
func run(fn func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := fn(ctx, a, cmd, args); err != nil {
			if errors.Is(err, snippet.ErrCancelled) {
				return nil
			}
			return err
		}
		return nil
	}
}

func setupLogging(cmd *cobra.Command) error {
	verbose, err := OptionalBoolFlag(cmd, "verbose", false)
	if err != nil {
		return err
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	if cmd != nil {
		w = cmd.ErrOrStderr()
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}
