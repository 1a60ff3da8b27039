package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/docshot/pkg/adapters/sqlitehistory"
	"github.com/user/docshot/pkg/ports"
)

const defaultHistoryPath = "docshot-history.db"

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: l10n.T("Show recorded runs, or the digests of one target across runs"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "history", Value: defaultHistoryPath, Usage: l10n.T("Path to the sqlite history database")},
			&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: l10n.T("Show the history of this target")},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 10, Usage: l10n.T("Maximum number of entries")},
		},
		Action: func(c *cli.Context) error {
			store, err := sqlitehistory.Open(c.String("history"))
			if err != nil {
				return cli.Exit(err.Error(), exitFailed)
			}
			defer store.Close()

			if target := c.String("target"); target != "" {
				results, err := store.TargetHistory(c.Context, target, c.Int("limit"))
				if err != nil {
					return cli.Exit(err.Error(), exitFailed)
				}
				printTargetHistory(c.App.Writer, target, results)
				return nil
			}
			return printRecentRuns(c.Context, c.App.Writer, store, c.Int("limit"))
		},
	}
}

func printRecentRuns(ctx context.Context, w io.Writer, store ports.HistoryStore, limit int) error {
	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, l10n.T("No runs recorded"))
		return nil
	}
	for _, r := range runs {
		state := ""
		if r.Cancelled {
			state = " " + l10n.T("(cancelled)")
		}
		fmt.Fprintf(w, "%s  %s  %s  %s%s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.BaseURL,
			l10n.F("%d succeeded, %d failed, %d skipped", r.Succeeded, r.Failed, r.Skipped),
			state,
		)
	}
	return nil
}

// printTargetHistory prints one line per run. A digest that differs from
// the next older one is marked, which shows unstable targets at a glance.
func printTargetHistory(w io.Writer, target string, results []ports.ResultRecord) {
	if len(results) == 0 {
		fmt.Fprintln(w, l10n.F("No history for target %s", target))
		return
	}
	distinct := map[string]bool{}
	for i, r := range results {
		mark := " "
		if r.Digest != "" {
			distinct[r.Digest] = true
			if i+1 < len(results) && results[i+1].Digest != "" && results[i+1].Digest != r.Digest {
				mark = "*"
			}
		}
		digest := r.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		if digest == "" {
			digest = "-"
		}
		fmt.Fprintf(w, "%s %s  %s  %-9s %-12s %s\n",
			mark, r.RecordedAt.Local().Format(time.DateTime), r.RunID, r.Status, digest, r.Reason)
	}
	fmt.Fprintln(w, l10n.F("%d distinct digests in %d runs", len(distinct), len(results)))
}
