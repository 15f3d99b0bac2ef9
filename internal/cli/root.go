// Package cli implements the pdb command tree. Every command runs either
// against the local desktop (--local) or through a pdbd daemon.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/client"
	"github.com/frudas24/pdb/internal/config"
	"github.com/frudas24/pdb/internal/control"
	"github.com/frudas24/pdb/internal/input"
	"github.com/frudas24/pdb/internal/output"
	"github.com/frudas24/pdb/internal/platform"
	"github.com/frudas24/pdb/internal/window"
	"github.com/spf13/cobra"
)

// Version is reported by --version and the MCP server.
var Version = "dev"

// Backend is the device surface shared by the local controller and the
// remote client.
type Backend interface {
	Devices(ctx context.Context) ([]window.Info, error)
	Click(ctx context.Context, h window.Handle, x, y int) error
	Swipe(ctx context.Context, h window.Handle, x1, y1, x2, y2, durationMs int) error
	Text(ctx context.Context, h window.Handle, text string) error
	Key(ctx context.Context, h window.Handle, k input.Key) error
	Screenshot(ctx context.Context, h window.Handle) (*capture.Bitmap, error)
	Size(ctx context.Context, h window.Handle) (int, int, error)
	Focus(ctx context.Context, h window.Handle) error
}

// Local is a controller on this machine and the hook that releases it.
type Local struct {
	Controller *control.Controller
	Close      func() error
}

// Deps are the side-effecting constructors the commands use.
type Deps struct {
	OpenLocal  func() (Local, error)
	Dial       func(ctx context.Context, addr string, timeout time.Duration) (*client.Client, error)
	LoadConfig func() (config.Client, error)
}

// DefaultDeps wires the real desktop, network and environment.
func DefaultDeps() Deps {
	return Deps{
		OpenLocal:  openLocal,
		Dial:       client.Dial,
		LoadConfig: config.LoadClient,
	}
}

func openLocal() (Local, error) {
	cfg, err := config.LoadServer()
	if err != nil {
		return Local{}, err
	}
	ctrl, desk, err := platform.Open(cfg)
	if err != nil {
		return Local{}, err
	}
	return Local{Controller: ctrl, Close: desk.Close}, nil
}

type rootState struct {
	deps       Deps
	cfg        config.Client
	server     string
	local      bool
	formatName string
	printer    output.Printer
}

// NewRootCmd builds the pdb command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	st := &rootState{deps: deps}
	root := &cobra.Command{
		Use:          "pdb",
		Short:        "Drive desktop windows locally or through a pdb daemon",
		Long:         "pdb lists, clicks, swipes, types into and captures desktop windows, either on this machine (--local) or on a host running pdbd.",
		Version:      Version,
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&st.server, "server", "", "daemon address host:port (default $PDB_SERVER or "+client.DefaultAddr+")")
	flags.BoolVar(&st.local, "local", false, "drive windows on this machine instead of a daemon")
	flags.StringVar(&st.formatName, "format", "", "output format: table, json, yaml (default $PDB_FORMAT or table)")
	root.PersistentPreRunE = st.prepare

	root.AddCommand(
		st.devicesCmd(),
		st.clickCmd(),
		st.swipeCmd(),
		st.textCmd(),
		st.keyCmd(),
		st.screenshotCmd(),
		st.sizeCmd(),
		st.focusCmd(),
		st.coordCmd(),
		st.pingCmd(),
		st.mcpCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := NewRootCmd(DefaultDeps()).ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func (st *rootState) prepare(cmd *cobra.Command, _ []string) error {
	cfg, err := st.deps.LoadConfig()
	if err != nil {
		return err
	}
	st.cfg = cfg
	if st.server == "" {
		st.server = cfg.ServerAddr
	}
	name := st.formatName
	if name == "" {
		name = cfg.Format
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	st.printer = output.Printer{W: cmd.OutOrStdout(), Format: format}
	return nil
}

// withBackend opens the local controller or dials the daemon for one command.
func (st *rootState) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error {
	ctx := commandContext(cmd)
	if st.local {
		l, err := st.deps.OpenLocal()
		if err != nil {
			return err
		}
		defer closeQuietly(l.Close)
		return fn(ctx, l.Controller)
	}
	c, err := st.deps.Dial(ctx, st.server, st.cfg.Timeout())
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func closeQuietly(closeFn func() error) {
	if closeFn == nil {
		return
	}
	if err := closeFn(); err != nil {
		fmt.Fprintf(os.Stderr, "pdb: close: %v\n", err)
	}
}
