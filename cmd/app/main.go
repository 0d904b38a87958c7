package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/mdnotion/internal"
	pkgconfig "github.com/starford/mdnotion/pkg/config"
)

// loadConfig reads the optional config file and applies flag and environment
// overrides on top of it.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	overrides := []struct {
		flag   string
		target *string
	}{
		{"markdown-root", &cfg.Markdown.Root},
		{"notion-token", &cfg.Notion.AuthToken},
		{"notion-root", &cfg.Notion.SyncRootContainer},
		{"base-url", &cfg.Notion.BaseURL},
		{"ledger", &cfg.Ledger.Path},
	}
	for _, o := range overrides {
		if cmd.IsSet(o.flag) {
			*o.target = cmd.String(o.flag)
		}
	}
	return cfg, nil
}

func withConfig(fn func(ctx context.Context, cmd *cli.Command, opts ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return fn(ctx, cmd, internal.WithConfig(cfg))
	}
}

var syncAction = withConfig(func(ctx context.Context, _ *cli.Command, opts ...internal.Option) error {
	return internal.Sync(ctx, opts...)
})

func main() {
	cmd := &cli.Command{
		Name:   "mdnotion",
		Usage:  "Mirror a tree of Markdown files into a Notion database",
		Action: syncAction,
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
				Name:    "markdown-root",
				Usage:   "Directory scanned for .md files",
				Sources: cli.EnvVars("MD_ROOT"),
			},
			&cli.StringFlag{
				Name:    "notion-token",
				Usage:   "Notion integration token",
				Sources: cli.EnvVars("NOTION_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "notion-root",
				Usage:   "Id of the database pages are synced into",
				Sources: cli.EnvVars("NOTION_ROOT"),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "URL prefix of the files, e.g. https://github.com/org/repo/blob/main",
				Sources: cli.EnvVars("GITHUB_URL"),
			},
			&cli.StringFlag{
				Name:    "ledger",
				Usage:   "Path of the SQLite run ledger; empty disables it",
				Sources: cli.EnvVars("MDNOTION_LEDGER"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Run one reconciliation and exit",
				Action: syncAction,
			},
			{
				Name:  "plan",
				Usage: "Print the pages a sync would create, update and archive",
				Action: withConfig(func(ctx context.Context, _ *cli.Command, opts ...internal.Option) error {
					return internal.Plan(ctx, opts...)
				}),
			},
			{
				Name:  "watch",
				Usage: "Sync on every change and serve the status API",
				Action: withConfig(func(ctx context.Context, _ *cli.Command, opts ...internal.Option) error {
					return internal.Watch(ctx, opts...)
				}),
			},
			{
				Name:  "mcp",
				Usage: "Serve the sync tools over MCP stdio",
				Action: withConfig(func(ctx context.Context, _ *cli.Command, opts ...internal.Option) error {
					return internal.ServeMCP(ctx, opts...)
				}),
			},
			{
				Name:  "history",
				Usage: "Print recorded runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of runs to show",
						Value: 20,
					},
				},
				Action: withConfig(func(ctx context.Context, cmd *cli.Command, opts ...internal.Option) error {
					return internal.History(ctx, int(cmd.Int("limit")), opts...)
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
