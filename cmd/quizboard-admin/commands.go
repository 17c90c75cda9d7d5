package main

import (
	"errors"
	"fmt"
	"os"

	scoreservice "github.com/Black-And-White-Club/quizboard/app/modules/score/application"
	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	scoreexport "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/export"
	"github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/legacy"
	"github.com/urfave/cli/v2"
)

func newReplayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "wipe the aggregate tables and rebuild them from the legacy score log now",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Usage: "legacy data directory, overriding the config file"},
			&cli.BoolFlag{Name: "yes", Usage: "confirm the destructive rebuild"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return errors.New("replay truncates every aggregate table; pass --yes to confirm")
			}

			d, err := loadDeps(c)
			if err != nil {
				return err
			}
			defer d.Close()

			dir := c.String("data-dir")
			if dir == "" {
				dir = d.cfg.Scores.LegacyMigration.DataDir
			}
			if dir == "" {
				return errors.New("no legacy data directory configured")
			}

			migrator := scoreservice.NewMigrator(legacy.NewFileStore(dir), d.db.ScoreDB, d.service,
				d.obs.Logger, d.obs.Metrics, d.cfg.Scores.LegacyMigration.ProgressEvery)
			if err := migrator.Run(c.Context); err != nil {
				return err
			}
			fmt.Println("legacy score replay completed")
			return nil
		},
	}
}

func newExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write a ranked leaderboard page to an XLSX workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "group", Usage: "group id; empty for the global board"},
			&cli.StringSliceFlag{Name: "deck", Usage: "deck name filter (repeatable)"},
			&cli.IntFlag{Name: "start", Value: 0, Usage: "first rank, zero-based"},
			&cli.IntFlag{Name: "limit", Value: 100, Usage: "number of ranks to export"},
			&cli.StringFlag{Name: "out", Value: "leaderboard.xlsx", Usage: "output file"},
		},
		Action: func(c *cli.Context) error {
			if c.Int("limit") <= 0 || c.Int("start") < 0 {
				return errors.New("start must be >= 0 and limit > 0")
			}

			d, err := loadDeps(c)
			if err != nil {
				return err
			}
			defer d.Close()

			decks := deckNames(c.StringSlice("deck"))
			board, err := d.service.GetLeaderboard(c.Context, scoreservice.LeaderboardRequest{
				GroupID:   scoredomain.GroupID(c.String("group")),
				DeckNames: decks,
				Start:     c.Int("start"),
				End:       c.Int("start") + c.Int("limit"),
			})
			if err != nil {
				return err
			}

			f, err := os.Create(c.String("out"))
			if err != nil {
				return err
			}
			if err := scoreexport.WriteXLSX(f, scopeLabel(c.String("group"), decks), board); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Printf("exported %d of %d users to %s\n", len(board.Entries), board.Users, c.String("out"))
			return nil
		},
	}
}

func newCustomDeckCommand() *cli.Command {
	return &cli.Command{
		Name:  "custom-deck",
		Usage: "manage user-authored decks",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "register a custom deck under a short name",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "short-name", Required: true},
					&cli.StringFlag{Name: "unique-id", Required: true},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "owner"},
				},
				Action: func(c *cli.Context) error {
					d, err := loadDeps(c)
					if err != nil {
						return err
					}
					defer d.Close()

					err = d.service.RegisterCustomDeck(c.Context, scoreservice.CustomDeckRegistration{
						ShortName: c.String("short-name"),
						UniqueID:  scoredomain.DeckUniqueID(c.String("unique-id")),
						Name:      c.String("name"),
						OwnerID:   scoredomain.UserID(c.String("owner")),
					})
					if err != nil {
						return err
					}
					fmt.Printf("registered custom deck %q as %s\n", c.String("short-name"), c.String("unique-id"))
					return nil
				},
			},
		},
	}
}
