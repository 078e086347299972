package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "brokerd",
		Usage: "enrichment cache broker for sports content",
		Commands: []*cli.Command{
			serveCommand(),
			getCommand(),
			refreshCommand(),
			seedCommand(),
			engageCommand(),
		},
	}

	app.ExitErrHandler = func(ctx *cli.Context, err error) {
		if err == nil {
			return
		}
		fmt.Fprintf(os.Stderr, "brokerd: %+v\n", err)
	}

	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
