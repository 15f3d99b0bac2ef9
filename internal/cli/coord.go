package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/frudas24/pdb/internal/failure"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const coordInterval = 50 * time.Millisecond

func (st *rootState) coordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coord <window>",
		Short: "Stream the cursor position in client coordinates",
		Long:  "Print the cursor position relative to the window's client area whenever it changes, until interrupted. Runs on this machine only.\n\n" + windowArgHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("server") {
				return failure.New(failure.BadArguments, "coord reads the local cursor and cannot target a daemon")
			}
			l, err := st.deps.OpenLocal()
			if err != nil {
				return err
			}
			defer closeQuietly(l.Close)

			ctx := commandContext(cmd)
			h, err := resolve(ctx, l.Controller, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			inPlace := isTerminal(out)
			for s := range l.Controller.Coords(ctx, h, coordInterval) {
				if s.Err != nil {
					if inPlace {
						fmt.Fprintln(out)
					}
					return s.Err
				}
				line := fmt.Sprintf("%d %d", s.Point.X, s.Point.Y)
				if !s.Inside {
					line += " (outside)"
				}
				if inPlace {
					fmt.Fprintf(out, "\r%s\x1b[K", line)
				} else {
					fmt.Fprintln(out, line)
				}
			}
			if inPlace {
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
