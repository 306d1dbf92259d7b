package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/park285/squad-tactics/internal/tacticsclient"
	"github.com/park285/squad-tactics/pkg/tacticsdto"
)

type globalFlags struct {
	server    string
	spectator string
	player    string
	timeout   time.Duration
	jsonOut   bool
}

// NewRootCmd builds the tacticsctl command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "tacticsctl",
		Short: "Play and inspect squad tactics games",
		Long: `tacticsctl talks to a squad tactics server.

Every mutating command acts as --player (or $TACTICS_PLAYER). Units are
addressed by index: 0-3 belong to player 1 (hero, soldier, soldier,
archer) and 4-7 to player 2 in the same order.

Examples:
  tacticsctl --player alice create bob
  tacticsctl --player bob join tac-...
  tacticsctl --player alice move tac-... 0 1 1
  tacticsctl --player alice play tac-... "A3>7" "D0" "E"
  tacticsctl watch tac-...`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	pf := root.PersistentFlags()
	pf.StringVar(&g.server, "server", envDefault("TACTICS_SERVER", "http://localhost:8080"), "API base URL")
	pf.StringVar(&g.spectator, "spectator", envDefault("TACTICS_SPECTATOR", "ws://localhost:8081"), "spectator feed base URL")
	pf.StringVarP(&g.player, "player", "p", os.Getenv("TACTICS_PLAYER"), "acting player id")
	pf.DurationVar(&g.timeout, "timeout", 10*time.Second, "request timeout")
	pf.BoolVar(&g.jsonOut, "json", false, "print raw JSON")

	root.AddCommand(
		newCreateCmd(g),
		newSessionCmd(g, "join", "Accept a challenge", (*tacticsclient.Client).Join),
		newSessionCmd(g, "cancel", "Withdraw a game that has not started", (*tacticsclient.Client).Cancel),
		newSessionCmd(g, "end-turn", "Pass the turn to the opponent", (*tacticsclient.Client).EndTurn),
		newSessionCmd(g, "forfeit", "Concede the game", (*tacticsclient.Client).Forfeit),
		newSessionCmd(g, "state", "Show a game", (*tacticsclient.Client).State),
		newMoveCmd(g),
		newAttackCmd(g),
		newDefendCmd(g),
		newPlayCmd(g),
		newActionsCmd(g),
		newGamesCmd(g),
		newResultsCmd(g),
		newWatchCmd(g),
	)
	return root
}

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func (g *globalFlags) client() *tacticsclient.Client {
	return tacticsclient.NewClient(g.server, g.player, tacticsclient.WithTimeout(g.timeout))
}

func (g *globalFlags) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), g.timeout)
}

func (g *globalFlags) requirePlayer() error {
	if strings.TrimSpace(g.player) == "" {
		return fmt.Errorf("--player is required")
	}
	return nil
}

func (g *globalFlags) printState(cmd *cobra.Command, st *tacticsdto.SessionState) error {
	if g.jsonOut {
		return writeJSON(cmd.OutOrStdout(), st)
	}
	_, err := io.WriteString(cmd.OutOrStdout(), RenderState(st))
	return err
}
