package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"cliconfig-go/internal/catalog"
	"cliconfig-go/internal/config"
	"cliconfig-go/internal/events"
	"cliconfig-go/internal/logs"
	"cliconfig-go/internal/prefs"
	"cliconfig-go/internal/shutdown"
	"cliconfig-go/internal/storage"
	"cliconfig-go/internal/visibility"
)

const (
	kindBuiltin = "builtin"
	kindCustom  = "custom"
)

// app holds the stores of one command invocation.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	bus        *events.Bus
	storage    *storage.Manager
	visibility *visibility.Store
	prefs      *prefs.Store
	recent     *prefs.RecentFiles
	catalog    []catalog.Tool
	shutdown   *shutdown.Coordinator

	// changes is set when --events asks for the state changes.
	changes <-chan events.Event
}

// toolEntry is a row of the tool list: a catalog tool or a custom tool.
type toolEntry struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Kind        string               `json:"kind"`
	Description string               `json:"description,omitempty"`
	Paths       []string             `json:"paths"`
	Format      catalog.ConfigFormat `json:"format,omitempty"`
}

func (t toolEntry) ToolID() string      { return t.ID }
func (t toolEntry) DisplayName() string { return t.Name }

// openApp opens the database and restores every store from it. The caller
// must call close.
func (c *cli) openApp() (*app, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logs.SetupLogger(cfg.Logging, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	tools := catalog.BuiltinTools()
	if cfg.CatalogFile != "" {
		extra, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		tools = catalog.Merge(tools, extra)
	}

	db, err := storage.NewManager(cfg.DataDir, logger.Sugar())
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		bus:      events.NewBus(),
		storage:  db,
		catalog:  tools,
		shutdown: shutdown.NewCoordinator(logger),
	}

	if c.v.GetBool("events") {
		a.changes = a.bus.SubscribeAll()
	}

	a.visibility = visibility.NewStore(db, logger)
	a.visibility.SetPublisher(a.bus)
	a.prefs = prefs.NewStore(db, logger)
	a.prefs.SetPublisher(a.bus)
	a.recent = prefs.NewRecentFiles(db, cfg.RecentFilesLimit, logger)
	a.recent.SetPublisher(a.bus)

	a.shutdown.RegisterFunc("event-bus", shutdown.PhaseEvents, func(context.Context) error {
		a.bus.Close()
		return nil
	})
	a.shutdown.RegisterCloser("storage", shutdown.PhaseStorage, db.Close)
	a.shutdown.RegisterFunc("logger", shutdown.PhaseCleanup, func(context.Context) error {
		// Sync fails on terminals; there is nothing left to report it to.
		_ = logger.Sync()
		return nil
	})

	return a, nil
}

func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	return a.shutdown.Shutdown(ctx)
}

// tools returns the catalog tools followed by the custom tools.
func (a *app) tools() []toolEntry {
	custom := a.prefs.CustomTools()
	out := make([]toolEntry, 0, len(a.catalog)+len(custom))

	for _, t := range a.catalog {
		paths := make([]string, 0, len(t.SuggestedConfigs))
		var format catalog.ConfigFormat
		for i, sc := range t.SuggestedConfigs {
			paths = append(paths, sc.Path)
			if i == 0 {
				format = sc.Format
			}
		}
		out = append(out, toolEntry{
			ID:          t.ID,
			Name:        t.Name,
			Kind:        kindBuiltin,
			Description: t.Description,
			Paths:       paths,
			Format:      format,
		})
	}
	for _, t := range custom {
		out = append(out, toolEntry{
			ID:          t.ID,
			Name:        t.Name,
			Kind:        kindCustom,
			Description: t.Description,
			Paths:       []string{t.ConfigPath},
			Format:      t.ConfigFormat,
		})
	}
	return out
}

func (a *app) findTool(id string) (toolEntry, bool) {
	for _, t := range a.tools() {
		if t.ID == id {
			return t, true
		}
	}
	return toolEntry{}, false
}

// printChanges writes the events published so far as JSON lines. Stores
// publish synchronously, so every change of the command is already queued.
func (a *app) printChanges(w io.Writer) {
	if a.changes == nil || w == nil {
		return
	}
	enc := json.NewEncoder(w)
	for {
		select {
		case ev, ok := <-a.changes:
			if !ok {
				return
			}
			if err := enc.Encode(ev); err != nil {
				a.logger.Warn("Failed to print event", zap.Error(err))
				return
			}
		default:
			return
		}
	}
}

// withApp opens the app, runs fn and closes it, returning the first error.
func (c *cli) withApp(fn func(a *app) error) error {
	a, err := c.openApp()
	if err != nil {
		return err
	}
	runErr := fn(a)
	a.printChanges(c.errOut)
	if closeErr := a.close(); closeErr != nil && runErr == nil {
		return closeErr
	}
	return runErr
}
