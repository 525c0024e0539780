package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/merge-puzzle-game/game/config"
	"github.com/wricardo/merge-puzzle-game/game/engine"
	"github.com/wricardo/merge-puzzle-game/game/level"
)

// replayCommand applies a saved command log to a level without a server
func replayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Apply a command file to a level and print the final state",
		ArgsUsage: "<level.in> <commands>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "rules",
				Usage: "Rules file overriding the default scoring table",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write the applied commands to this .out file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("replay needs a level file and a command file")
			}

			rules := engine.DefaultRules()
			if path := cmd.String("rules"); path != "" {
				var err error
				if rules, err = config.LoadRules(path); err != nil {
					return err
				}
			}

			eng, err := replay(cmd.Args().Get(0), cmd.Args().Get(1), rules)
			if err != nil {
				return err
			}

			printSummary(cmd.Root().Writer, eng)

			if out := cmd.String("out"); out != "" {
				if err := os.WriteFile(out, []byte(eng.Output()), 0644); err != nil {
					return fmt.Errorf("failed to write output file: %w", err)
				}
				log.Printf("[SAVE] Wrote %d commands to %s", eng.Step(), out)
			}
			return nil
		},
	}
}

// replay loads the level at levelPath and runs the commands at commandsPath
// as one batch. Any failing line rejects the whole file.
func replay(levelPath, commandsPath string, rules *engine.Rules) (*engine.GameEngine, error) {
	f, err := os.Open(levelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open level file: %w", err)
	}
	defer f.Close()

	lvl, err := level.Parse(f)
	if err != nil {
		return nil, err
	}

	commands, err := os.ReadFile(commandsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read command file: %w", err)
	}

	eng, err := engine.NewEngine(lvl, rules)
	if err != nil {
		return nil, err
	}

	if _, err := eng.Exec(string(commands)); err != nil && !errors.Is(err, engine.ErrNoCommands) {
		return nil, fmt.Errorf("replay failed: %s", engine.ErrorMessage(err))
	}
	return eng, nil
}

func printSummary(w io.Writer, eng *engine.GameEngine) {
	gs := eng.Current()

	fmt.Fprintf(w, "Commands: %d\n", eng.Step())
	fmt.Fprintf(w, "Score: %d\n", gs.Score)
	fmt.Fprintf(w, "Built: %d | Stars: %d | Bombers: %d\n", gs.NumBuilt, gs.NumStars, gs.NumBombs)
	fmt.Fprintf(w, "Queue left: %d\n", len(eng.RemainingQueue()))

	for x := 0; x < gs.Grid.Height(); x++ {
		var row strings.Builder
		for y := 0; y < gs.Grid.Width(x); y++ {
			if t := gs.Grid.At(x, y); t == engine.Empty {
				row.WriteByte('.')
			} else {
				fmt.Fprintf(&row, "%d", t)
			}
		}
		fmt.Fprintln(w, row.String())
	}
}
