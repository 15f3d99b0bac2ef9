package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/input"
	"github.com/frudas24/pdb/internal/output"
	"github.com/frudas24/pdb/internal/protocol"
	"github.com/frudas24/pdb/internal/window"
	"github.com/spf13/cobra"
)

const windowArgHelp = "A window is a handle (0x-prefixed hex or decimal) or a case-insensitive title substring; the first match wins."

func (st *rootState) devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "devices",
		Aliases: []string{"list"},
		Short:   "List controllable windows",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return st.withBackend(cmd, func(ctx context.Context, b Backend) error {
				list, err := b.Devices(ctx)
				if err != nil {
					return err
				}
				return st.printer.PrintDevices(list)
			})
		},
	}
}

func (st *rootState) clickCmd() *cobra.Command {
	return positional(&cobra.Command{
		Use:   "click <window> <x> <y>",
		Short: "Click at a client-area point",
		Long:  "Click at a point relative to the window's client area. A minimized window is restored for the click and minimized again.\n\n" + windowArgHelp,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pts, err := intArgs(args[1:], "x", "y")
			if err != nil {
				return err
			}
			return st.withBackend(cmd, func(ctx context.Context, b Backend) error {
				h, err := resolve(ctx, b, args[0])
				if err != nil {
					return err
				}
				if err := b.Click(ctx, h, pts[0], pts[1]); err != nil {
					return err
				}
				return st.printer.PrintResult(output.Result{OK: true, Action: "click", Handle: h.String()})
			})
		},
	})
}

func (st *rootState) swipeCmd() *cobra.Command {
	return positional(&cobra.Command{
		Use:   "swipe <window> <x1> <y1> <x2> <y2> [duration_ms]",
		Short: "Drag between two client-area points",
		Long:  fmt.Sprintf("Press at (x1,y1), move to (x2,y2) and release. The duration defaults to %d ms; 0 moves immediately.\n\n%s", protocol.DefaultSwipeMs, windowArgHelp),
		Args:  cobra.RangeArgs(5, 6),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := []string{"x1", "y1", "x2", "y2", "duration_ms"}
			vals, err := intArgs(args[1:], names[:len(args)-1]...)
			if err != nil {
				return err
			}
			duration := protocol.DefaultSwipeMs
			if len(vals) == 5 {
				duration = vals[4]
			}
			if duration < 0 {
				return failure.New(failure.BadArguments, "duration_ms must be >= 0")
			}
			return st.withBackend(cmd, func(ctx context.Context, b Backend) error {
				h, err := resolve(ctx, b, args[0])
				if err != nil {
					return err
				}
				if err := b.Swipe(ctx, h, vals[0], vals[1], vals[2], vals[3], duration); err != nil {
					return err
				}
				return st.printer.PrintResult(output.Result{OK: true, Action: "swipe", Handle: h.String()})
			})
		},
	})
}

func (st *rootState) textCmd() *cobra.Command {
	return positional(&cobra.Command{
		Use:   "text <window> <text>...",
		Short: "Type text into a window",
		Long:  "Type text into a window. Remaining arguments are joined with single spaces.\n\n" + windowArgHelp,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return st.withBackend(cmd, func(ctx context.Context, b Backend) error {
				h, err := resolve(ctx, b, args[0])
				if err != nil {
					return err
				}
				if err := b.Text(ctx, h, text); err != nil {
					return err
				}
				return st.printer.PrintResult(output.Result{OK: true, Action: "text", Handle: h.String()})
			})
		},
	})
}

func (st *rootState) keyCmd() *cobra.Command {
	return positional(&cobra.Command{
		Use:   "key <window> <key>",
		Short: "Press a named key",
		Long:  "Press and release one key. Keys: " + keyList() + ".\n\n" + windowArgHelp,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := input.ParseKey(args[1])
			if err != nil {
				return err
			}
			return st.withBackend(cmd, func(ctx context.Context, b Backend) error {
				h, err := resolve(ctx, b, args[0])
				if err != nil {
					return err
				}
				if err := b.Key(ctx, h, k); err != nil {
					return err
				}
				return st.printer.PrintResult(output.Result{OK: true, Action: "key", Handle: h.String()})
			})
		},
	})
}

func (st *rootState) screenshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "screenshot <window> <path>",
		Short: "Capture a window's client area to a file",
		Long:  "Capture the client area without changing window state. The file extension picks the encoding: .png (default), .jpg/.jpeg or .bmp.\n\n" + windowArgHelp,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[1]
			return st.withBackend(cmd, func(ctx context.Context, b Backend) error {
				h, err := resolve(ctx, b, args[0])
				if err != nil {
					return err
				}
				bmp, err := b.Screenshot(ctx, h)
				if err != nil {
					return err
				}
				if err := capture.Save(path, bmp); err != nil {
					return fmt.Errorf("save %s: %w", path, err)
				}
				return st.printer.PrintResult(output.Result{
					OK:      true,
					Action:  "screenshot",
					Handle:  h.String(),
					Path:    path,
					Width:   bmp.Width,
					Height:  bmp.Height,
					Message: fmt.Sprintf("saved %dx%d to %s", bmp.Width, bmp.Height, path),
				})
			})
		},
	}
}

func (st *rootState) sizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size <window>",
		Short: "Print the client-area width and height",
		Long:  windowArgHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withBackend(cmd, func(ctx context.Context, b Backend) error {
				h, err := resolve(ctx, b, args[0])
				if err != nil {
					return err
				}
				w, hgt, err := b.Size(ctx, h)
				if err != nil {
					return err
				}
				return st.printer.PrintResult(output.Result{
					OK:      true,
					Action:  "size",
					Handle:  h.String(),
					Width:   w,
					Height:  hgt,
					Message: fmt.Sprintf("%d %d", w, hgt),
				})
			})
		},
	}
}

func (st *rootState) focusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "focus <window>",
		Short: "Bring a window to the foreground",
		Long:  "Bring a window to the foreground. A minimized window is restored and stays restored.\n\n" + windowArgHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withBackend(cmd, func(ctx context.Context, b Backend) error {
				h, err := resolve(ctx, b, args[0])
				if err != nil {
					return err
				}
				if err := b.Focus(ctx, h); err != nil {
					return err
				}
				return st.printer.PrintResult(output.Result{OK: true, Action: "focus", Handle: h.String()})
			})
		},
	}
}

func (st *rootState) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if st.local {
				return failure.New(failure.BadArguments, "ping is only available against a daemon")
			}
			ctx := commandContext(cmd)
			c, err := st.deps.Dial(ctx, st.server, st.cfg.Timeout())
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.Ping(ctx); err != nil {
				return err
			}
			return st.printer.PrintResult(output.Result{OK: true, Action: "ping", Message: "pong"})
		},
	}
}

// resolve turns a window argument into a handle. Handle tokens are passed
// through untouched; anything else is matched against window titles.
func resolve(ctx context.Context, b Backend, query string) (window.Handle, error) {
	if h, err := window.ParseHandle(query); err == nil {
		return h, nil
	}
	list, err := b.Devices(ctx)
	if err != nil {
		return 0, err
	}
	info, err := window.Match(list, query)
	if err != nil {
		return 0, err
	}
	return info.Handle, nil
}

// positional stops flag parsing at the first argument so negative numbers
// such as -5 reach the command as coordinates.
func positional(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func intArgs(args []string, names ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, failure.New(failure.BadArguments, "%s must be an integer, got %q", names[i], a)
		}
		out[i] = v
	}
	return out, nil
}

func keyList() string {
	keys := input.AllKeys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
