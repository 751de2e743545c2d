package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/onepage/internal"
	"github.com/starford/onepage/internal/export"
	pkgconfig "github.com/starford/onepage/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), "", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func render(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	path, err := internal.Render(ctx, cfg, internal.RenderOptions{
		In:       cmd.String("in"),
		OutDir:   cmd.String("out"),
		Viewport: int(cmd.Int("viewport")),
		Format:   format,
		Dark:     cmd.Bool("dark"),
		FontSize: int(cmd.Int("font-size")),
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, path)
	return err
}

func main() {
	cmd := &cli.Command{
		Name:   "onepage",
		Usage:  "Strategy-on-a-page canvas: edit an analysed strategy document and export it as PDF or image",
		Action: serve,
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
				Usage:  "Run the HTTP API and SSE server",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdin/stdout",
				Action: mcp,
			},
			{
				Name:   "render",
				Usage:  "Export an analysis file to PDF or JPEG without a server",
				Action: render,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "Analysis file (.json, .yaml)", Required: true},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output directory", Value: "."},
					&cli.IntFlag{Name: "viewport", Usage: "Viewport width; below the mobile breakpoint a JPEG is produced", Value: 1280},
					&cli.StringFlag{Name: "format", Usage: "Force pdf, jpg or png"},
					&cli.BoolFlag{Name: "dark", Usage: "Render in dark mode"},
					&cli.IntFlag{Name: "font-size", Usage: "Font size step 0-5", Value: 3},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
