package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"modelfolio/internal/app"
	"modelfolio/internal/util"

	"github.com/google/subcommands"
	_ "github.com/lib/pq"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "")
	}
	flag.Parse()

	cfg, err := util.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitFailure))
	}
	log := util.NewLogger(cfg.LogConfig())

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, log, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build engine")
	}
	status := commander.Execute(ctx, a)
	a.Close()
	os.Exit(int(status))
}
