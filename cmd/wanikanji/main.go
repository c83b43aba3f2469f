package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/wanikanji/internal"
	"github.com/starford/wanikanji/internal/models"
	pkgconfig "github.com/starford/wanikanji/pkg/config"
)

var version = "dev"

// loadConfig reads the config file, when present, and applies flag overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("cache-dir") {
		cfg.Cache.Dir = cmd.String("cache-dir")
	}
	if cmd.IsSet("api-token") {
		cfg.WaniKani.APIToken = cmd.String("api-token")
	}
	if cmd.IsSet("anki-endpoint") {
		cfg.AnkiConnect.Endpoint = cmd.String("anki-endpoint")
	}
	return cfg, nil
}

func newApp(cfg *internal.Config) (*internal.App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return internal.New(
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	)
}

// withApp adapts an application method to a command action.
func withApp(fn func(*internal.App, context.Context) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		app, err := newApp(cfg)
		if err != nil {
			return err
		}
		return fn(app, ctx)
	}
}

// selectedVariants returns the --variant value, or every variant when unset.
func selectedVariants(cmd *cli.Command) ([]models.Variant, error) {
	if !cmd.IsSet("variant") {
		return models.Variants, nil
	}
	v, err := models.ParseVariant(cmd.String("variant"))
	if err != nil {
		return nil, err
	}
	return []models.Variant{v}, nil
}

func modelCommand(name, usage string, update func(*internal.App, context.Context, models.Variant) error) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "variant",
				Usage: "kanji or vocabulary (default: both)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			variants, err := selectedVariants(cmd)
			if err != nil {
				return err
			}
			return withApp(func(app *internal.App, ctx context.Context) error {
				for _, v := range variants {
					if err := update(app, ctx, v); err != nil {
						return err
					}
				}
				return nil
			})(ctx, cmd)
		},
	}
}

func variantCommands() []*cli.Command {
	var query, create, installs []*cli.Command
	for _, v := range models.Variants {
		query = append(query, &cli.Command{
			Name:  "query-" + string(v),
			Usage: fmt.Sprintf("Fetch every %s subject from WaniKani into the cache", v),
			Action: withApp(func(app *internal.App, ctx context.Context) error {
				return app.Query(ctx, v)
			}),
		})

		create = append(create, &cli.Command{
			Name:  fmt.Sprintf("create-%s-deck", v),
			Usage: fmt.Sprintf("Create the %s note type and deck in Anki", v),
			Action: withApp(func(app *internal.App, ctx context.Context) error {
				return app.CreateDeck(ctx, v)
			}),
		})

		installs = append(installs, &cli.Command{
			Name:  "install-" + string(v),
			Usage: fmt.Sprintf("Add a note for every cached %s subject", v),
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "deck",
					Usage: "Target deck (overrides config)",
				},
				&cli.StringFlag{
					Name:  "model",
					Usage: "Target note type (overrides config)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				notes := cfg.Notes(v)
				if cmd.IsSet("deck") {
					notes.DeckName = cmd.String("deck")
				}
				if cmd.IsSet("model") {
					notes.ModelName = cmd.String("model")
				}
				app, err := newApp(cfg)
				if err != nil {
					return err
				}
				return app.Install(ctx, v)
			},
		})
	}

	cmds := append(query, create...)
	cmds = append(cmds,
		modelCommand("update-model-styling", "Push the bundled stylesheet to the note types",
			(*internal.App).UpdateModelStyling),
		modelCommand("update-model-templates", "Push the bundled card templates to the note types",
			(*internal.App).UpdateModelTemplates),
	)
	return append(cmds, installs...)
}

func main() {
	commands := variantCommands()
	commands = append(commands,
		&cli.Command{
			Name:   "status",
			Usage:  "Show cached snapshots, install totals and AnkiConnect reachability",
			Action: withApp((*internal.App).Status),
		},
		&cli.Command{
			Name:   "serve",
			Usage:  "Serve the status API and re-install rewritten snapshots",
			Action: withApp((*internal.App).Serve),
		},
		&cli.Command{
			Name:   "mcp",
			Usage:  "Serve read-only MCP tools on stdio",
			Action: withApp((*internal.App).MCP),
		},
	)

	cmd := &cli.Command{
		Name:     "wanikanji",
		Usage:    "Sync WaniKani kanji and vocabulary into Anki through AnkiConnect",
		Version:  version,
		Commands: commands,
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
				Name:    "cache-dir",
				Usage:   "Snapshot cache directory (must exist)",
				Sources: cli.EnvVars("WANIKANJI_CACHE_DIR"),
			},
			&cli.StringFlag{
				Name:    "api-token",
				Usage:   "WaniKani API token",
				Sources: cli.EnvVars("WANIKANI_API_TOKEN", "API_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "anki-endpoint",
				Usage:   "AnkiConnect endpoint URL",
				Sources: cli.EnvVars("ANKI_CONNECT_ENDPOINT"),
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
