package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"goflare.io/broker/internal/content"
)

var errNoEngagement = errors.New("at least one of --views, --comments or --shares must be positive")

type engagement struct {
	views    int64
	comments int64
	shares   int64
}

func engageCommand() *cli.Command {
	return &cli.Command{
		Name:      "engage",
		Usage:     "Add views, comments or shares to a post",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "views", Value: 1, Usage: "views to add"},
			&cli.Int64Flag{Name: "comments", Usage: "comments to add"},
			&cli.Int64Flag{Name: "shares", Usage: "shares to add"},
		},
		Action: func(cliCtx *cli.Context) error {
			id := cliCtx.Args().First()
			if id == "" {
				return errors.New("post id is required")
			}

			ctx := cliCtx.Context
			rt, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			e := engagement{
				views:    cliCtx.Int64("views"),
				comments: cliCtx.Int64("comments"),
				shares:   cliCtx.Int64("shares"),
			}
			if err := recordEngagement(ctx, rt.content, id, e); err != nil {
				return err
			}
			fmt.Printf("%s  +%d views  +%d comments  +%d shares\n", id, e.views, e.comments, e.shares)
			return nil
		},
	}
}

func recordEngagement(ctx context.Context, store *content.Store, id string, e engagement) error {
	if e.views < 0 || e.comments < 0 || e.shares < 0 || e.views+e.comments+e.shares == 0 {
		return errNoEngagement
	}
	if err := store.RecordEngagement(ctx, id, e.views, e.comments, e.shares); err != nil {
		return errors.Wrapf(err, "could not record engagement for %q", id)
	}
	return nil
}
