package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newActionsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "actions <game-id>",
		Short: "Print the action log of a live game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := g.context(cmd)
			defer cancel()
			log, err := g.client().Actions(ctx, args[0])
			if err != nil {
				return err
			}
			if g.jsonOut {
				return writeJSON(cmd.OutOrStdout(), log)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s v%d: %s\n", log.GameID, log.Version, strings.Join(log.Actions, " "))
			return err
		},
	}
}

func newGamesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "games [player]",
		Short: "List live games of a player (default --player)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who := g.player
			if len(args) == 1 {
				who = args[0]
			}
			if strings.TrimSpace(who) == "" {
				return fmt.Errorf("player required")
			}
			ctx, cancel := g.context(cmd)
			defer cancel()
			games, err := g.client().Games(ctx, who)
			if err != nil {
				return err
			}
			if g.jsonOut {
				return writeJSON(cmd.OutOrStdout(), games)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tP1\tP2\tSTATUS\tTURN\tTO MOVE")
			for _, s := range games {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n", s.ID, s.Player1, s.Player2, s.Status, s.TurnCount, s.MaxTurns, s.CurrentPlayer)
			}
			return tw.Flush()
		},
	}
}

func newResultsCmd(g *globalFlags) *cobra.Command {
	var (
		limit      int
		transcript bool
	)
	c := &cobra.Command{
		Use:   "results [player]",
		Short: "List archived results of a player (default --player)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who := g.player
			if len(args) == 1 {
				who = args[0]
			}
			if strings.TrimSpace(who) == "" {
				return fmt.Errorf("player required")
			}
			ctx, cancel := g.context(cmd)
			defer cancel()
			results, err := g.client().Results(ctx, who, limit)
			if err != nil {
				return err
			}
			if g.jsonOut {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			out := cmd.OutOrStdout()
			if transcript {
				for _, r := range results {
					fmt.Fprintln(out, r.Transcript)
				}
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tP1\tP2\tWINNER\tREASON\tTURNS\tENDED")
			for _, r := range results {
				winner := r.Winner
				if winner == "" {
					winner = "(draw)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n", r.GameID, r.Player1, r.Player2, winner, r.Reason, r.TurnCount, r.EndedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	c.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results (1..200)")
	c.Flags().BoolVar(&transcript, "transcript", false, "print full transcripts")
	return c
}
