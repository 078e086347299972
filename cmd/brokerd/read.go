package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"goflare.io/broker"
	"goflare.io/broker/internal/models"
)

var flagLimit = &cli.IntFlag{
	Name:    "limit",
	Aliases: []string{"n"},
	Usage:   "number of records to read",
	Value:   10,
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read a kind through the broker",
		ArgsUsage: "<kind> [id]",
		Flags:     []cli.Flag{flagLimit},
		Action: func(cliCtx *cli.Context) error {
			return withKind(cliCtx, func(ctx context.Context, b *broker.Broker, kind broker.Kind) (broker.Result, error) {
				if id := cliCtx.Args().Get(1); id != "" {
					return b.Lookup(ctx, kind, id)
				}
				return b.Get(ctx, kind, cliCtx.Int("limit"))
			})
		},
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:      "refresh",
		Usage:     "Recompute a kind from the content store",
		ArgsUsage: "<kind>",
		Flags:     []cli.Flag{flagLimit},
		Action: func(cliCtx *cli.Context) error {
			return withKind(cliCtx, func(ctx context.Context, b *broker.Broker, kind broker.Kind) (broker.Result, error) {
				return b.Refresh(ctx, kind, cliCtx.Int("limit"))
			})
		},
	}
}

type readFunc func(ctx context.Context, b *broker.Broker, kind broker.Kind) (broker.Result, error)

func withKind(cliCtx *cli.Context, read readFunc) error {
	kind, err := models.ParseKind(cliCtx.Args().First())
	if err != nil {
		return errors.WithStack(err)
	}

	ctx := cliCtx.Context
	rt, err := setup(ctx, true)
	if err != nil {
		return err
	}
	// drain the write-back queue before exiting
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rt.close(closeCtx)
	}()

	res, err := read(ctx, rt.broker, kind)
	if err != nil {
		return errors.WithStack(err)
	}

	printResult(res)
	return nil
}

func printResult(res broker.Result) {
	status := string(res.Source)
	if res.Stale {
		status += " (stale)"
	}
	fmt.Printf("source: %s, %d records\n\n", status, len(res.Data))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TEAM\tTITLE\tRELIABILITY\tENGAGEMENT\tPUBLISHED")
	for _, r := range res.Data {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n",
			r.Team,
			r.Title,
			r.Reliability,
			humanize.Comma(r.Engagement),
			humanize.Time(r.PublishedAt),
		)
	}
	_ = w.Flush()
}
