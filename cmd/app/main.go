package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/jotter/internal"
	"github.com/starford/jotter/internal/models"
	pkgconfig "github.com/starford/jotter/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if _, err := pkgconfig.LoadIfExists(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if v := cmd.String("api-base"); v != "" {
		cfg.Client.APIBase = v
	}
	if v := cmd.String("backend-origin"); v != "" {
		cfg.Client.BackendOrigin = v
	}
	if err := cfg.Client.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client settings: %w", err)
	}
	return cfg, nil
}

func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

// withOptions adapts an entry point to a cli action.
func withOptions(run func(context.Context, ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func noteID(cmd *cli.Command) (models.ID, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("%s: expected exactly one note id", cmd.Name)
	}
	return models.ID(cmd.Args().First()), nil
}

// byID adapts a single-id notes command.
func byID(run func(context.Context, models.ID, ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id, err := noteID(cmd)
		if err != nil {
			return err
		}
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		return run(ctx, id, opts...)
	}
}

func createNote(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.CreateNote(ctx, cmd.String("title"), cmd.String("content"), opts...)
}

func updateNote(ctx context.Context, cmd *cli.Command) error {
	id, err := noteID(cmd)
	if err != nil {
		return err
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}

	var changes internal.NoteChanges
	if cmd.IsSet("title") {
		v := cmd.String("title")
		changes.Title = &v
	}
	if cmd.IsSet("content") {
		v := cmd.String("content")
		changes.Content = &v
	}
	if changes.Title == nil && changes.Content == nil {
		return fmt.Errorf("update: nothing to change, pass --title and/or --content")
	}
	return internal.UpdateNote(ctx, id, changes, opts...)
}

func contentFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "content",
		Usage: `Note body ("-" reads from stdin)`,
	}
}

func main() {
	notesCmd := &cli.Command{
		Name:  "notes",
		Usage: "Work with notes from scripts",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List notes, newest first",
				Action: withOptions(internal.ListNotes),
			},
			{
				Name:      "show",
				Usage:     "Print a note as JSON",
				ArgsUsage: "ID",
				Action:    byID(internal.ShowNote),
			},
			{
				Name:  "create",
				Usage: "Create a note",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Note title", Required: true},
					contentFlag(),
				},
				Action: createNote,
			},
			{
				Name:      "update",
				Usage:     "Update a note's title and/or content",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					contentFlag(),
				},
				Action: updateNote,
			},
			{
				Name:      "delete",
				Usage:     "Delete a note",
				ArgsUsage: "ID",
				Action:    byID(internal.DeleteNote),
			},
		},
	}

	cmd := &cli.Command{
		Name:    "jotter",
		Usage:   "Minimal notes client with a terminal UI, scripting commands and a reference backend",
		Version: version,
		Action:  withOptions(internal.Run),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "api-base",
				Usage:   "Full notes endpoint, e.g. http://host:8000/api/notes",
				Sources: cli.EnvVars("NOTES_API_BASE"),
			},
			&cli.StringFlag{
				Name:    "backend-origin",
				Usage:   "Backend origin; /api/notes is appended",
				Sources: cli.EnvVars("NOTES_BACKEND_ORIGIN"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "tui",
				Usage:  "Open the terminal client (default)",
				Action: withOptions(internal.Run),
			},
			notesCmd,
			{
				Name:   "serve",
				Usage:  "Run the reference notes backend",
				Action: withOptions(internal.Serve),
			},
			{
				Name:   "mcp",
				Usage:  "Expose the notes backend as MCP tools over stdio",
				Action: withOptions(internal.ServeMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
