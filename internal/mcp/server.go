// Package mcp exposes the compositor's administrative operations as MCP
// tools over stdio. The server talks to the running compositor through the
// control socket, so it can run in any session process.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Dirli-V/scape/internal/ipc"
)

const (
	ServerName    = "scape"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for compositor control.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates an MCP server backed by the compositor control socket.
func NewServer() *Server {
	s := &Server{
		client: ipc.NewClient(),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Get compositor status: number of spaces, outputs and mapped windows plus uptime.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_spaces",
		Description: "List all spaces with their outputs, zones and window counts.",
	}, s.handleListSpaces)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_outputs",
		Description: "List all outputs with their geometry and scale.",
	}, s.handleListOutputs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List all mapped windows with geometry, owning space and state.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window",
		Description: "Move a window (by title or application id) to a named zone and/or another space.",
	}, s.handleMoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Ask a window (by title or application id) to close.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "spawn",
		Description: "Start a program inside the compositor session.",
	}, s.handleSpawn)
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	return nil, GetStatusOutput{
		Spaces:        status.Spaces,
		Outputs:       status.Outputs,
		Windows:       status.Windows,
		UptimeSeconds: status.UptimeSeconds,
	}, nil
}

func (s *Server) handleListSpaces(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListSpacesInput) (*mcpsdk.CallToolResult, ListSpacesOutput, error) {
	data, err := s.client.ListSpaces()
	if err != nil {
		return nil, ListSpacesOutput{}, err
	}
	out := ListSpacesOutput{}
	for _, sp := range data.Spaces {
		out.Spaces = append(out.Spaces, SpaceInfo{
			Name:    sp.Name,
			Outputs: sp.Outputs,
			Zones:   sp.Zones,
			Windows: sp.Windows,
		})
	}
	return nil, out, nil
}

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListOutputsInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	data, err := s.client.ListOutputs()
	if err != nil {
		return nil, ListOutputsOutput{}, err
	}
	out := ListOutputsOutput{}
	for _, o := range data.Outputs {
		out.Outputs = append(out.Outputs, OutputInfo{
			Name:   o.Name,
			X:      o.X,
			Y:      o.Y,
			Width:  o.Width,
			Height: o.Height,
			Scale:  o.Scale,
		})
	}
	return nil, out, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.client.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	out := ListWindowsOutput{}
	for _, w := range data.Windows {
		out.Windows = append(out.Windows, WindowInfo{
			ID:         w.ID,
			Name:       w.Name,
			AppID:      w.AppID,
			Space:      w.Space,
			X:          w.X,
			Y:          w.Y,
			Width:      w.Width,
			Height:     w.Height,
			Legacy:     w.Legacy,
			Maximized:  w.Maximized,
			Fullscreen: w.Fullscreen,
		})
	}
	return nil, out, nil
}

func (s *Server) handleMoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, MoveWindowOutput, error) {
	if args.Window == "" {
		return nil, MoveWindowOutput{}, fmt.Errorf("window is required")
	}
	if args.Zone == "" && args.Space == "" {
		return nil, MoveWindowOutput{}, fmt.Errorf("zone or space is required")
	}
	if err := s.client.MoveWindow(args.Window, args.Zone, args.Space); err != nil {
		return nil, MoveWindowOutput{}, err
	}
	return nil, MoveWindowOutput{Moved: true}, nil
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args CloseWindowInput) (*mcpsdk.CallToolResult, CloseWindowOutput, error) {
	if args.Window == "" {
		return nil, CloseWindowOutput{}, fmt.Errorf("window is required")
	}
	if err := s.client.CloseWindow(args.Window); err != nil {
		return nil, CloseWindowOutput{}, err
	}
	return nil, CloseWindowOutput{Closed: true}, nil
}

func (s *Server) handleSpawn(_ context.Context, _ *mcpsdk.CallToolRequest, args SpawnInput) (*mcpsdk.CallToolResult, SpawnOutput, error) {
	if args.Command == "" {
		return nil, SpawnOutput{}, fmt.Errorf("command is required")
	}
	if err := s.client.Spawn(args.Command); err != nil {
		return nil, SpawnOutput{}, err
	}
	return nil, SpawnOutput{Spawned: true}, nil
}
