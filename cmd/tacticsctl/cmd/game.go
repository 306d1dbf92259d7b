package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/park285/squad-tactics/internal/tactics"
	"github.com/park285/squad-tactics/internal/tacticsclient"
	"github.com/park285/squad-tactics/pkg/tacticsdto"
)

type sessionCall func(*tacticsclient.Client, context.Context, string) (*tacticsdto.SessionState, error)

func newSessionCmd(g *globalFlags, use, short string, call sessionCall) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <game-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if use != "state" {
				if err := g.requirePlayer(); err != nil {
					return err
				}
			}
			ctx, cancel := g.context(cmd)
			defer cancel()
			st, err := call(g.client(), ctx, args[0])
			if err != nil {
				return err
			}
			return g.printState(cmd, st)
		},
	}
}

func newCreateCmd(g *globalFlags) *cobra.Command {
	var opts tactics.Options
	c := &cobra.Command{
		Use:   "create <opponent>",
		Short: "Challenge another player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.requirePlayer(); err != nil {
				return err
			}
			ctx, cancel := g.context(cmd)
			defer cancel()
			st, err := g.client().CreateGame(ctx, args[0], opts)
			if err != nil {
				return err
			}
			return g.printState(cmd, st)
		},
	}
	c.Flags().IntVar(&opts.MaxTurns, "max-turns", 0, "turn limit in half-turns (0 uses the server default)")
	c.Flags().BoolVar(&opts.Ranked, "ranked", false, "mark the game as ranked")
	c.Flags().Uint64Var(&opts.Stake, "stake", 0, "stake carried into the result")
	return c
}

func newMoveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "move <game-id> <unit> <x> <y>",
		Short: "Move a unit up to two cells",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := atois(args[1:]...)
			if err != nil {
				return err
			}
			return g.apply(cmd, args[0], tactics.Action{Kind: tactics.ActionMove, Unit: n[0], To: tactics.Position{X: n[1], Y: n[2]}})
		},
	}
}

func newAttackCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "attack <game-id> <attacker> <target>",
		Short: "Attack an enemy unit in range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := atois(args[1:]...)
			if err != nil {
				return err
			}
			return g.apply(cmd, args[0], tactics.Action{Kind: tactics.ActionAttack, Unit: n[0], Target: n[1]})
		},
	}
}

func newDefendCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "defend <game-id> <unit>",
		Short: "Brace a unit against the next hit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := atois(args[1])
			if err != nil {
				return err
			}
			return g.apply(cmd, args[0], tactics.Action{Kind: tactics.ActionDefend, Unit: n[0]})
		},
	}
}

func newPlayCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "play <game-id> <action>...",
		Short: "Submit actions in compact notation",
		Long: `Submit one or more actions in order. Notation:
  M<unit>@x,y     move
  A<unit>><target> attack
  D<unit>         defend
  E               end turn
  F               forfeit

Stops at the first rejected action.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actions := make([]tactics.Action, 0, len(args)-1)
			for _, text := range args[1:] {
				a, err := tactics.ParseNotation(g.player, text)
				if err != nil {
					return err
				}
				actions = append(actions, a)
			}
			for i, a := range actions {
				if i == len(actions)-1 {
					return g.apply(cmd, args[0], a)
				}
				if err := g.submit(cmd, args[0], a); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (g *globalFlags) submit(cmd *cobra.Command, id string, a tactics.Action) error {
	if err := g.requirePlayer(); err != nil {
		return err
	}
	ctx, cancel := g.context(cmd)
	defer cancel()
	if _, err := g.client().Apply(ctx, id, a); err != nil {
		return fmt.Errorf("%s: %w", a.Notation(), err)
	}
	return nil
}

func (g *globalFlags) apply(cmd *cobra.Command, id string, a tactics.Action) error {
	if err := g.requirePlayer(); err != nil {
		return err
	}
	ctx, cancel := g.context(cmd)
	defer cancel()
	st, err := g.client().Apply(ctx, id, a)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Notation(), err)
	}
	return g.printState(cmd, st)
}

func atois(args ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, s := range args {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		out[i] = n
	}
	return out, nil
}
