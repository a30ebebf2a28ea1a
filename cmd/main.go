package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"kadence-booker/internal/booker"
	"kadence-booker/internal/calendar"
	"kadence-booker/internal/kadence"
	"kadence-booker/internal/models"
	"kadence-booker/internal/proxy"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "kadence-booker",
		Usage: "Bulk-create workplace bookings from a CSV file.",
		Commands: []*cli.Command{
			bookCommand(),
			checkCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func bookCommand() *cli.Command {
	return &cli.Command{
		Name:  "book",
		Usage: "Create one booking per CSV row.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Required: true, Usage: "Input CSV path."},
			&cli.StringFlag{Name: "date", Usage: "Override every row's date (YYYY-MM-DD)."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Resolve everything but create no bookings."},
			&cli.IntFlag{Name: "concurrency", Value: 1, Usage: "Number of rows processed in parallel."},
			&cli.StringFlag{Name: "base-url", Usage: "Remote API origin override."},
			&cli.StringFlag{Name: "log", Value: booker.DefaultFailureLogPath, Usage: "Failure log CSV path."},
			&cli.StringFlag{Name: "ics", Usage: "Write created bookings to this .ics file."},
			&cli.StringFlag{Name: "publish-calendar", Usage: "Publish created bookings to this CalDAV calendar."},
		},
		Action: runBook,
	}
}

func runBook(c *cli.Context) error {
	logger := setupLogger(os.Getenv("LOG_LEVEL"))
	fs := afero.NewOsFs()

	client, err := kadence.NewClient(c.Context, logger, kadence.Config{
		BaseURL:     baseURL(c),
		Credentials: credentialsFromEnv(),
	})
	if err != nil {
		return err
	}
	resolver := kadence.NewResolver(logger, client)
	submitter := booker.NewSubmitter(logger, client)

	rows, err := booker.ReadRows(fs, c.String("file"), booker.ReadOptions{DateOverride: c.String("date")})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		logger.Info("Input file has no rows, nothing to do.")
		return nil
	}

	dryRun := c.Bool("dry-run")
	var failureLog *booker.FailureLog
	if !dryRun {
		failureLog = booker.NewFailureLog(fs, c.String("log"))
		defer failureLog.Close()
	}

	pipeline := booker.NewPipeline(logger, resolver, submitter, booker.Config{
		DryRun:      dryRun,
		Concurrency: c.Int("concurrency"),
		FailureLog:  failureLog,
	})
	outcomes := pipeline.Run(c.Context, rows)

	exportOutcomes(c, logger, fs, outcomes)

	succeeded, failed := booker.Summarize(outcomes)
	fmt.Printf("Success: %d, Failed: %d\n", succeeded, failed)
	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// exportOutcomes handles the optional calendar sinks. Both are best-effort:
// the bookings already exist remotely, so a sink failure is logged, not
// fatal.
func exportOutcomes(c *cli.Context, logger *slog.Logger, fs afero.Fs, outcomes []models.Outcome) {
	if path := c.String("ics"); path != "" {
		if err := calendar.WriteICS(fs, path, outcomes); err != nil {
			logger.Error("Could not write .ics export", "path", path, "error", err)
		} else {
			logger.Info("Wrote .ics export", "path", path)
		}
	}

	name := c.String("publish-calendar")
	if name == "" {
		return
	}
	publisher, err := calendar.NewPublisher(c.Context, logger, calendar.PublishConfig{
		Endpoint: os.Getenv("CALDAV_URL"),
		Username: os.Getenv("CALDAV_USERNAME"),
		Password: os.Getenv("CALDAV_PASSWORD"),
		Calendar: name,
	})
	if err != nil {
		logger.Error("Could not connect to CalDAV calendar", "calendar", name, "error", err)
		return
	}
	for _, outcome := range outcomes {
		if outcome.Status != models.StatusCreated {
			continue
		}
		if err := publisher.Publish(c.Context, outcome); err != nil {
			logger.Error("Could not publish booking to calendar", "row", outcome.Row, "error", err)
		}
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Verify the configured credentials against the remote API.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base-url", Usage: "Remote API origin override."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(os.Getenv("LOG_LEVEL"))
			client, err := kadence.NewClient(c.Context, logger, kadence.Config{
				BaseURL:     baseURL(c),
				Credentials: credentialsFromEnv(),
			})
			if err != nil {
				return err
			}
			if err := client.Preflight(c.Context); err != nil {
				return err
			}
			fmt.Println("Credentials OK.")
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the credential-attaching reverse proxy for the demo pages.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Value: ":8787", Usage: "Listen address."},
			&cli.StringFlag{Name: "base-url", Usage: "Remote API origin override."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(os.Getenv("LOG_LEVEL"))
			source, err := credentialsFromEnv().TokenSource(c.Context)
			if err != nil {
				return err
			}
			server, err := proxy.New(logger, baseURL(c), source)
			if err != nil {
				return err
			}
			return server.ListenAndServe(c.Context, c.String("listen"))
		},
	}
}

func credentialsFromEnv() kadence.Credentials {
	return kadence.Credentials{
		Token:        os.Getenv("KADENCE_API_TOKEN"),
		ClientID:     os.Getenv("KADENCE_CLIENT_ID"),
		ClientSecret: os.Getenv("KADENCE_CLIENT_SECRET"),
		AuthURL:      os.Getenv("KADENCE_AUTH_URL"),
	}
}

func baseURL(c *cli.Context) string {
	if v := c.String("base-url"); v != "" {
		return v
	}
	if v := os.Getenv("KADENCE_BASE_URL"); v != "" {
		return v
	}
	return kadence.DefaultBaseURL
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
