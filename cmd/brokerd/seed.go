package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"goflare.io/broker/internal/content"
)

type demoPost struct {
	title    string
	excerpt  string
	body     string
	team     string
	age      time.Duration
	views    int64
	comments int64
	shares   int64
}

var demoPosts = []demoPost{
	{
		title:   "Bears hold off Packers 24-17 at Soldier Field",
		excerpt: "Caleb Williams threw 3 touchdowns and the defense forced 2 turnovers.",
		body:    "Caleb Williams threw 3 touchdowns in a 24-17 win. The defense forced 2 turnovers in the fourth quarter.",
		age:     2 * time.Hour, views: 12500, comments: 340, shares: 210,
	},
	{
		title:   "Cubs lock up wild card spot",
		excerpt: "Wrigley rocked as the Cubs won 6-2 behind 8 strong innings.",
		body:    "The Cubs won 6-2 on Sunday. The starter went 8 strong innings and struck out 9.",
		age:     5 * time.Hour, views: 8200, comments: 95, shares: 60,
	},
	{
		title:   "Bulls open camp with questions at point guard",
		excerpt: "Josh Giddey and Coby White headline a young backcourt.",
		body:    "Josh Giddey averaged 14.6 points last season. Coby White led the team with 19.1 points per game.",
		team:    "bulls",
		age:     9 * time.Hour, views: 4300, comments: 41, shares: 12,
	},
	{
		title:   "Bedard sharp in preseason finale",
		excerpt: "Connor Bedard scored 2 goals as the Blackhawks beat St. Louis.",
		body:    "Connor Bedard scored 2 goals. The Blackhawks outshot St. Louis 34-22.",
		age:     20 * time.Hour, views: 6100, comments: 77, shares: 35,
	},
	{
		title:   "White Sox weekly: rebuilding on the South Side",
		excerpt: "The Sox finished 41-121. The front office is starting over.",
		body:    "The White Sox finished 41-121, the most losses in modern history. The front office is starting over with young arms.",
		age:     30 * time.Hour, views: 2900, comments: 120, shares: 18,
	},
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert demo posts into the content store",
		Action: func(cliCtx *cli.Context) error {
			ctx := cliCtx.Context
			rt, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			now := time.Now().UTC()
			for _, d := range demoPosts {
				publishedAt := now.Add(-d.age)
				post := &content.Post{
					Title:       d.title,
					Excerpt:     d.excerpt,
					Body:        d.body,
					Author:      "Desk",
					Team:        d.team,
					Status:      content.StatusPublished,
					PublishedAt: &publishedAt,
					Views:       d.views,
					Comments:    d.comments,
					Shares:      d.shares,
				}
				if err := rt.content.SavePost(ctx, post); err != nil {
					return errors.Wrapf(err, "could not save %q", d.title)
				}
				fmt.Printf("%s  %s\n", post.ID, post.Slug)
			}
			return nil
		},
	}
}
