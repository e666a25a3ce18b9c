package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Dosada05/beach-tennis-system/brackets"
	"github.com/Dosada05/beach-tennis-system/config"
	"github.com/Dosada05/beach-tennis-system/db"
	"github.com/Dosada05/beach-tennis-system/locks"
	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/rating"
	"github.com/Dosada05/beach-tennis-system/services"
	"github.com/Dosada05/beach-tennis-system/storage"
)

const dateLayout = "2006-01-02"

func main() {
	cliApp := &cli.App{
		Name:  "ratings",
		Usage: "rating recompute and schedule previews",
		Commands: []*cli.Command{
			recomputeCommand(),
			tournamentCommand(),
			kingPreviewCommand(),
			roundRobinPreviewCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withRatingService подключается к базе и отдает сервис рейтингов команде.
func withRatingService(c *cli.Context, fn func(svc services.RatingService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		return err
	}
	defer dbConn.Close()
	if err := db.ApplySchema(c.Context, dbConn); err != nil {
		return err
	}

	locker, closeLocker, err := locks.Open(c.Context, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	archive, err := storage.OpenReportArchive(c.Context, cfg.R2, "ratings", logger)
	if err != nil {
		return err
	}
	modifier, err := rating.ModifierByName(cfg.Rating.FormatModifier)
	if err != nil {
		return err
	}

	deps := services.Deps{
		Repos:  services.NewPostgresRepositories(dbConn),
		Tx:     db.NewTransactor(dbConn, logger),
		Locker: locker,
		Logger: logger,
	}
	return fn(services.NewRatingService(deps, rating.Options{
		KFactor:  cfg.Rating.KFactor,
		Modifier: modifier,
		Start:    rating.StartPolicy{Default: cfg.Rating.DefaultStart},
	}, archive))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDate(c *cli.Context, name string) (*time.Time, error) {
	raw := c.String(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q, want YYYY-MM-DD", name, raw)
	}
	return &t, nil
}

func recomputeCommand() *cli.Command {
	return &cli.Command{
		Name:  "recompute",
		Usage: "replay rating history over all or selected tournaments",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "first tournament date, YYYY-MM-DD"},
			&cli.StringFlag{Name: "to", Usage: "last tournament date, YYYY-MM-DD"},
			&cli.IntSliceFlag{Name: "tournament", Usage: "tournament id, repeatable"},
			&cli.IntFlag{Name: "start-rating", Usage: "start rating for players without one"},
			&cli.BoolFlag{Name: "wipe", Usage: "delete all history and reset ratings first"},
		},
		Action: func(c *cli.Context) error {
			from, err := parseDate(c, "from")
			if err != nil {
				return err
			}
			to, err := parseDate(c, "to")
			if err != nil {
				return err
			}
			opts := services.RecomputeOptions{
				FromDate:      from,
				ToDate:        to,
				TournamentIDs: c.IntSlice("tournament"),
				StartRating:   c.Int("start-rating"),
				WipeHistory:   c.Bool("wipe"),
			}
			return withRatingService(c, func(svc services.RatingService) error {
				report, err := svc.RecomputeRatings(c.Context, opts)
				if err != nil {
					return err
				}
				return printJSON(report)
			})
		},
	}
}

func tournamentCommand() *cli.Command {
	return &cli.Command{
		Name:  "tournament",
		Usage: "recompute ratings of one tournament, optionally by stages",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "id", Usage: "tournament (master) id", Required: true},
			&cli.IntSliceFlag{Name: "stage", Usage: "stage tournament id, repeatable"},
		},
		Action: func(c *cli.Context) error {
			return withRatingService(c, func(svc services.RatingService) error {
				var (
					report *services.RecomputeReport
					err    error
				)
				if stages := c.IntSlice("stage"); len(stages) > 0 {
					report, err = svc.ComputeRatingsForMultiStageTournament(c.Context, c.Int("id"), stages)
				} else {
					report, err = svc.ComputeRatingsForTournament(c.Context, c.Int("id"))
				}
				if err != nil {
					return err
				}
				return printJSON(report)
			})
		},
	}
}

func kingPreviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "king-preview",
		Usage: "print the King schedule for N players",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "participants", Aliases: []string{"n"}, Required: true},
		},
		Action: func(c *cli.Context) error {
			rounds, err := brackets.GenerateKingRounds(c.Int("participants"))
			if err != nil {
				return err
			}
			return printJSON(rounds)
		},
	}
}

func roundRobinPreviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "round-robin-preview",
		Usage: "print a round robin schedule for N participants",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "participants", Aliases: []string{"n"}, Required: true},
			&cli.StringFlag{Name: "pattern", Value: string(models.PatternBerger), Usage: "berger, snake or custom"},
			&cli.PathFlag{Name: "custom", Usage: "JSON file with a custom pattern"},
		},
		Action: func(c *cli.Context) error {
			var custom *brackets.CustomPattern
			if path := c.Path("custom"); path != "" {
				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				if custom, err = brackets.ParseCustomPattern(string(raw)); err != nil {
					return err
				}
			}
			rounds, err := brackets.RoundRobinSchedule(c.Int("participants"), models.RoundRobinPattern(c.String("pattern")), custom)
			if err != nil {
				return err
			}
			return printJSON(rounds)
		},
	}
}
