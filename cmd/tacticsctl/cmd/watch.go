package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/park285/squad-tactics/internal/msgcat"
	"github.com/park285/squad-tactics/internal/tactics"
	"github.com/park285/squad-tactics/internal/tacticsclient"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	var (
		messagesDir string
		reconnects  int
	)
	c := &cobra.Command{
		Use:   "watch <game-id>",
		Short: "Follow a game's event feed until it ends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := msgcat.New(messagesDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			w := tacticsclient.NewWatcher(g.spectator, args[0], reconnects)
			done := make(chan struct{}, 1)
			w.OnEvent(func(ev tactics.Event) {
				if g.jsonOut {
					_ = writeJSON(out, ev)
				} else {
					fmt.Fprintf(out, "[turn %d] %s\n", ev.TurnCount, cat.Text("event."+string(ev.Type), ev, string(ev.Type)))
				}
			})
			w.OnStateChange(func(s tacticsclient.WatchState) {
				if s == tacticsclient.WatchDisconnected || s == tacticsclient.WatchFailed {
					select {
					case done <- struct{}{}:
					default:
					}
				}
			})

			cctx, cancel := g.context(cmd)
			err = w.Connect(cctx)
			cancel()
			if err != nil {
				return fmt.Errorf("connect %s: %w", g.spectator, err)
			}
			select {
			case <-done:
			case <-cmd.Context().Done():
			}
			closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelClose()
			if err := w.Close(closeCtx); err != nil {
				return err
			}
			if w.State() == tacticsclient.WatchFailed {
				return fmt.Errorf("feed lost after %d reconnect attempts", reconnects)
			}
			return nil
		},
	}
	c.Flags().StringVar(&messagesDir, "messages", "", "directory of message overrides")
	c.Flags().IntVar(&reconnects, "reconnects", 5, "reconnect attempts after a dropped feed")
	return c
}
