package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "quizboard-admin",
		Usage: "operate the quiz score store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"QUIZBOARD_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			newMigrateCommand(),
			newReplayCommand(),
			newExportCommand(),
			newCustomDeckCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// deckNames flattens repeated and comma separated --deck values.
func deckNames(values []string) []string {
	var names []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func scopeLabel(group string, decks []string) string {
	scope := "global"
	if group != "" {
		scope = "group " + group
	}
	if len(decks) > 0 {
		scope = fmt.Sprintf("%s / %s", scope, strings.Join(decks, ", "))
	}
	return scope
}
