package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/input"
	"github.com/frudas24/pdb/internal/output"
	"github.com/frudas24/pdb/internal/protocol"
	"github.com/frudas24/pdb/internal/window"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func (st *rootState) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the device commands as MCP tools over stdio",
		Long:  "Run a Model Context Protocol server on stdin/stdout. Tools act on the local desktop with --local, otherwise on the daemon.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return st.withBackend(cmd, func(_ context.Context, b Backend) error {
				return mcpserver.ServeStdio(newToolServer(b).mcp)
			})
		},
	}
}

// toolServer exposes a backend as MCP tools.
type toolServer struct {
	b   Backend
	mcp *mcpserver.MCPServer
}

func newToolServer(b Backend) *toolServer {
	s := &toolServer{b: b}
	s.mcp = mcpserver.NewMCPServer("pdb", Version)
	s.registerTools()
	return s
}

func windowParam() mcp.ToolOption {
	return mcp.WithString("window", mcp.Required(), mcp.Description("Window handle (0x-hex or decimal) or title substring"))
}

func (s *toolServer) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("devices",
			mcp.WithDescription("List controllable windows with handle, title, class, minimized state and client rectangle"),
		),
		s.handleDevices,
	)
	s.mcp.AddTool(
		mcp.NewTool("click",
			mcp.WithDescription("Click at a point relative to the window's client area"),
			windowParam(),
			mcp.WithNumber("x", mcp.Required(), mcp.Description("Client X coordinate")),
			mcp.WithNumber("y", mcp.Required(), mcp.Description("Client Y coordinate")),
		),
		s.handleClick,
	)
	s.mcp.AddTool(
		mcp.NewTool("swipe",
			mcp.WithDescription("Drag from one client point to another"),
			windowParam(),
			mcp.WithNumber("x1", mcp.Required(), mcp.Description("Start X")),
			mcp.WithNumber("y1", mcp.Required(), mcp.Description("Start Y")),
			mcp.WithNumber("x2", mcp.Required(), mcp.Description("End X")),
			mcp.WithNumber("y2", mcp.Required(), mcp.Description("End Y")),
			mcp.WithNumber("duration_ms", mcp.Description(fmt.Sprintf("Drag duration in milliseconds (default %d, 0 = immediate)", protocol.DefaultSwipeMs))),
		),
		s.handleSwipe,
	)
	s.mcp.AddTool(
		mcp.NewTool("text",
			mcp.WithDescription("Type text into the window"),
			windowParam(),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to type")),
		),
		s.handleText,
	)
	s.mcp.AddTool(
		mcp.NewTool("key",
			mcp.WithDescription("Press one named key"),
			windowParam(),
			mcp.WithString("key", mcp.Required(), mcp.Description("Key name: "+keyList())),
		),
		s.handleKey,
	)
	s.mcp.AddTool(
		mcp.NewTool("screenshot",
			mcp.WithDescription("Capture the window's client area as a PNG image without changing window state"),
			windowParam(),
		),
		s.handleScreenshot,
	)
	s.mcp.AddTool(
		mcp.NewTool("size",
			mcp.WithDescription("Return the client-area width and height"),
			windowParam(),
		),
		s.handleSize,
	)
	s.mcp.AddTool(
		mcp.NewTool("focus",
			mcp.WithDescription("Bring the window to the foreground, restoring it if minimized"),
			windowParam(),
		),
		s.handleFocus,
	)
}

func (s *toolServer) handleDevices(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.b.Devices(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := json.Marshal(output.Devices(list))
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *toolServer) handleClick(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nums, err := requireInts(req, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.act(ctx, req, func(h window.Handle) error {
		return s.b.Click(ctx, h, nums[0], nums[1])
	})
}

func (s *toolServer) handleSwipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nums, err := requireInts(req, "x1", "y1", "x2", "y2")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	duration := req.GetInt("duration_ms", protocol.DefaultSwipeMs)
	if duration < 0 {
		return mcp.NewToolResultError("duration_ms must be >= 0"), nil
	}
	return s.act(ctx, req, func(h window.Handle) error {
		return s.b.Swipe(ctx, h, nums[0], nums[1], nums[2], nums[3], duration)
	})
}

func (s *toolServer) handleText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.act(ctx, req, func(h window.Handle) error {
		return s.b.Text(ctx, h, text)
	})
}

func (s *toolServer) handleKey(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	k, err := input.ParseKey(token)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.act(ctx, req, func(h window.Handle) error {
		return s.b.Key(ctx, h, k)
	})
}

func (s *toolServer) handleFocus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.act(ctx, req, func(h window.Handle) error {
		return s.b.Focus(ctx, h)
	})
}

func (s *toolServer) handleSize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h, errResult := s.target(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	w, hgt, err := s.b.Size(ctx, h)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d %d", w, hgt)), nil
}

func (s *toolServer) handleScreenshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h, errResult := s.target(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	bmp, err := s.b.Screenshot(ctx, h)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf bytes.Buffer
	if err := capture.Encode(&buf, bmp, capture.FormatPNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	data := base64.StdEncoding.EncodeToString(buf.Bytes())
	return mcp.NewToolResultImage(fmt.Sprintf("%dx%d", bmp.Width, bmp.Height), data, "image/png"), nil
}

// act resolves the window argument and reports fn's outcome as OK or an error result.
func (s *toolServer) act(ctx context.Context, req mcp.CallToolRequest, fn func(h window.Handle) error) (*mcp.CallToolResult, error) {
	h, errResult := s.target(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	if err := fn(h); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("OK"), nil
}

func (s *toolServer) target(ctx context.Context, req mcp.CallToolRequest) (window.Handle, *mcp.CallToolResult) {
	query, err := req.RequireString("window")
	if err != nil {
		return 0, mcp.NewToolResultError(err.Error())
	}
	h, err := resolve(ctx, s.b, query)
	if err != nil {
		return 0, mcp.NewToolResultError(err.Error())
	}
	return h, nil
}

func requireInts(req mcp.CallToolRequest, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		v, err := req.RequireInt(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
