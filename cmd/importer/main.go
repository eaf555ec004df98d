package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"job-portal/internal/app"
	"job-portal/internal/config"
	"job-portal/internal/database/seeder"
	"job-portal/internal/platform/logger"
	"job-portal/internal/scraper"
	"job-portal/internal/usecase/importer"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "importer",
		Usage: "fill portal session boards from outside sources",
		Commands: []*cli.Command{
			{
				Name:  "scrape",
				Usage: "scrape a company careers site into a portal session",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:     "list-url",
						Usage:    "careers listing url, may contain %d for the page number",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "company",
						Usage: "company name used when a posting does not state one",
					},
					&cli.StringFlag{
						Name:  "selectors",
						Usage: `CSS selectors as JSON, e.g. {"link":"a.job","salary":".pay"}`,
					},
					&cli.IntFlag{
						Name:  "pages",
						Usage: "listing pages to visit",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "concurrent detail page fetches",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "rps",
						Usage: "max detail requests per second, 0 for no limit",
						Value: 2,
					},
					&cli.BoolFlag{
						Name:  "headless",
						Usage: "render listing pages in headless Chrome",
					},
					&cli.DurationFlag{
						Name:  "headless-timeout",
						Usage: "per page timeout for headless rendering",
						Value: 25 * time.Second,
					},
					&cli.StringFlag{
						Name:  "session-id",
						Usage: "session whose saved board is extended; a new id is generated when empty",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "save the resulting board as the session snapshot",
					},
				},
				Action: scrapeAction,
			},
			{
				Name:  "seed",
				Usage: "write the demo board as a session snapshot",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:  "session-id",
						Usage: "target session; a new id is generated when empty",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "replace a board that already has records",
					},
				},
				Action: seedAction,
			},
			{
				Name:  "clear",
				Usage: "delete a session's saved board and its cached copy",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:     "session-id",
						Usage:    "session to clear",
						Required: true,
					},
				},
				Action: clearAction,
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatalf("importer: %v", err)
	}
}

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "env file path",
		Value: ".env",
	}
}

// setup loads config and builds the container shared by every subcommand.
func setup(ctx context.Context, cmd *cli.Command) (*app.Container, func(), error) {
	cfg, err := config.LoadFile(cmd.String("env"))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	lg, err := logger.New(cfg.App.Environment)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	c, err := app.NewContainer(ctx, cfg, lg)
	if err != nil {
		_ = lg.Sync()
		return nil, nil, fmt.Errorf("init container: %w", err)
	}
	return c, func() {
		if err := c.Close(); err != nil {
			lg.Error("close container", zap.Error(err))
		}
		_ = lg.Sync()
	}, nil
}

func sessionIDFlag(cmd *cli.Command) (uuid.UUID, error) {
	raw := strings.TrimSpace(cmd.String("session-id"))
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --session-id: %w", err)
	}
	return id, nil
}

func scrapeAction(ctx context.Context, cmd *cli.Command) error {
	sel, err := parseSelectors(cmd.String("selectors"))
	if err != nil {
		return err
	}
	sessionID, err := sessionIDFlag(cmd)
	if err != nil {
		return err
	}

	c, done, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer done()
	lg := c.Logger

	opts := scraper.CareersOptions{
		Workers: cmd.Int("workers"),
		RPS:     cmd.Int("rps"),
		Logger:  lg.Named("scraper"),
	}
	if cmd.Bool("headless") {
		opts.Discoverer = scraper.HeadlessDiscoverer{Timeout: cmd.Duration("headless-timeout")}
	}

	sess := c.Registry.Open(sessionID)
	rep, err := importer.New(scraper.NewCareersScraper(opts), c.Snapshots, lg).Import(ctx, sess.Controller, importer.Request{
		Target: scraper.CareersTarget{
			Company:   cmd.String("company"),
			ListURL:   cmd.String("list-url"),
			Pages:     cmd.Int("pages"),
			Selectors: sel,
		},
		SessionID: sessionID,
		Save:      cmd.Bool("save"),
	})
	if err != nil {
		return err
	}

	return printJSON(rep)
}

func seedAction(ctx context.Context, cmd *cli.Command) error {
	sessionID, err := sessionIDFlag(cmd)
	if err != nil {
		return err
	}

	c, done, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer done()
	if c.DB == nil || c.SnapshotService == nil {
		return fmt.Errorf("seed needs a database, set DB_HOST")
	}

	r := seeder.Runner{Seeders: seeder.Defaults(sessionID, time.Now(), cmd.Bool("force")), Logger: c.Logger.Named("seeder")}
	if err := r.Run(ctx, c.DB); err != nil {
		return err
	}
	// The seeder writes rows directly, so a cached board would hide them.
	if err := c.SnapshotService.Invalidate(ctx, sessionID); err != nil {
		c.Logger.Warn("drop cached snapshot after seed", zap.Stringer("session_id", sessionID), zap.Error(err))
	}
	c.Logger.Info("demo board seeded", zap.Stringer("session_id", sessionID))
	return printJSON(map[string]any{"session_id": sessionID, "seeded": true})
}

func clearAction(ctx context.Context, cmd *cli.Command) error {
	sessionID, err := uuid.Parse(strings.TrimSpace(cmd.String("session-id")))
	if err != nil {
		return fmt.Errorf("invalid --session-id: %w", err)
	}

	c, done, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer done()
	if c.SnapshotService == nil {
		return fmt.Errorf("clear needs a database, set DB_HOST")
	}

	n, err := c.SnapshotService.Clear(ctx, sessionID)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"session_id": sessionID, "deleted": n})
}

func printJSON(v any) error {
	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	return out.Encode(v)
}

func parseSelectors(raw string) (scraper.Selectors, error) {
	var sel scraper.Selectors
	if strings.TrimSpace(raw) == "" {
		return sel, nil
	}
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return sel, fmt.Errorf("invalid --selectors: %w", err)
	}
	return sel, nil
}
