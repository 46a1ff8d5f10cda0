package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/almanac/internal"
	"github.com/starford/almanac/internal/export"
	pkgconfig "github.com/starford/almanac/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Export(ctx, internal.ExportParams{
		Year:   int(cmd.Int("year")),
		Format: cmd.String("format"),
		Out:    cmd.String("out"),
	}, internal.WithConfig(cfg))
}

func runAdd(ctx context.Context, cmd *cli.Command) error {
	text := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return errors.New(`usage: almanac add "Dentist tomorrow 15:30"`)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	e, err := internal.QuickAdd(ctx, text, internal.WithConfig(cfg))
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s %s  %s\n", e.ID, e.Date, e.Time, e.Title)
	return nil
}

func runCacheClear(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	n, err := internal.ClearHolidayCache(ctx, internal.WithConfig(cfg))
	if err != nil {
		return err
	}
	fmt.Printf("removed %d cached year(s)\n", n)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "almanac",
		Usage:  "Personal calendar with national holidays, worldwide observances and a month grid",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: run,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdin/stdout",
				Action: runMCP,
			},
			{
				Name:   "export",
				Usage:  "Write the events of a year as ICS or JSON",
				Action: runExport,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "year",
						Aliases:     []string{"y"},
						Usage:       "Calendar year",
						DefaultText: "current year",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "ics or json",
						Value:   export.FormatICS,
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file; stdout when empty",
					},
				},
			},
			{
				Name:      "add",
				Usage:     "Create an event from a phrase",
				ArgsUsage: `"Dentist tomorrow 15:30"`,
				Action:    runAdd,
			},
			{
				Name:  "cache",
				Usage: "Manage the holiday cache",
				Commands: []*cli.Command{
					{
						Name:   "clear",
						Usage:  "Drop every cached holiday year",
						Action: runCacheClear,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
