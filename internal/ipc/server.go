package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/Dirli-V/scape/internal/comp"
	"github.com/Dirli-V/scape/internal/runtimepath"
)

// engineTimeout bounds how long a request may wait for the compositor loop.
const engineTimeout = 5 * time.Second

// Server handles control-socket requests. Connections are served on their
// own goroutines, but every touch of compositor state is posted onto the
// loop and awaited, so the engine itself stays single-threaded.
type Server struct {
	socketPath string
	listener   net.Listener
	engine     *comp.Engine
	loop       comp.LoopHandle
	logger     *slog.Logger
	startTime  time.Time

	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a control server bound to the engine.
func NewServer(engine *comp.Engine, loop comp.LoopHandle, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve control socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		socketPath: socketPath,
		engine:     engine,
		loop:       loop,
		logger:     logger.With("component", "ipc"),
		startTime:  time.Now(),
	}, nil
}

// Start begins listening for control connections.
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create control socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("control socket listening", "path", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("accept failed", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("read failed", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("marshal response failed", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.onEngine(s.handleGetStatus)
	case CommandListSpaces:
		return s.onEngine(s.handleListSpaces)
	case CommandListOutputs:
		return s.onEngine(s.handleListOutputs)
	case CommandListWindows:
		return s.onEngine(s.handleListWindows)
	case CommandMoveWindow:
		return s.handleMoveWindow(req.Payload)
	case CommandCloseWindow:
		return s.handleCloseWindow(req.Payload)
	case CommandSpawn:
		return s.handleSpawn(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// onEngine runs fn on the compositor loop and waits for its response.
func (s *Server) onEngine(fn func() *Response) *Response {
	if s.loop == nil {
		return fn()
	}
	ch := make(chan *Response, 1)
	s.loop.Post(func() { ch <- fn() })
	select {
	case resp := <-ch:
		return resp
	case <-time.After(engineTimeout):
		return NewErrorResponse("compositor loop unresponsive")
	}
}

func (s *Server) handleGetStatus() *Response {
	windows := 0
	outputs := 0
	for _, name := range s.engine.SpaceNames() {
		sp, _ := s.engine.Space(name)
		windows += len(sp.Windows())
		outputs += len(sp.Outputs())
	}

	status := StatusData{
		Spaces:        len(s.engine.SpaceNames()),
		Outputs:       outputs,
		Windows:       windows,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Running:       true,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleListSpaces() *Response {
	var infos []SpaceInfo
	for _, name := range s.engine.SpaceNames() {
		sp, _ := s.engine.Space(name)
		info := SpaceInfo{
			Name:    name,
			Outputs: sp.Outputs(),
			Windows: len(sp.Windows()),
		}
		for _, z := range sp.Zones() {
			info.Zones = append(info.Zones, z.Name)
		}
		infos = append(infos, info)
	}

	resp, _ := NewOKResponse(SpacesData{Spaces: infos})
	return resp
}

func (s *Server) handleListOutputs() *Response {
	var infos []OutputInfo
	for _, name := range s.engine.SpaceNames() {
		sp, _ := s.engine.Space(name)
		for _, outName := range sp.Outputs() {
			out, ok := s.engine.Output(outName)
			if !ok {
				continue
			}
			geo := out.Geometry()
			infos = append(infos, OutputInfo{
				Name:   out.Name,
				X:      geo.X,
				Y:      geo.Y,
				Width:  geo.Width,
				Height: geo.Height,
				Scale:  out.Scale,
			})
		}
	}

	resp, _ := NewOKResponse(OutputsData{Outputs: infos})
	return resp
}

func (s *Server) handleListWindows() *Response {
	var infos []WindowInfo
	for _, spaceName := range s.engine.SpaceNames() {
		sp, _ := s.engine.Space(spaceName)
		for _, id := range sp.Windows() {
			w, ok := s.engine.Window(id)
			if !ok {
				continue
			}
			loc, _ := sp.Location(id)
			size := w.Size()
			infos = append(infos, WindowInfo{
				ID:         uint64(id),
				Name:       w.Name(),
				AppID:      w.AppID(),
				Space:      spaceName,
				X:          loc.X,
				Y:          loc.Y,
				Width:      size.Width,
				Height:     size.Height,
				Legacy:     w.IsLegacy(),
				Maximized:  w.Maximized,
				Fullscreen: w.Fullscreen,
			})
		}
	}

	resp, _ := NewOKResponse(WindowsData{Windows: infos})
	return resp
}

func (s *Server) handleMoveWindow(payload json.RawMessage) *Response {
	var req MoveWindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	if req.Window == "" {
		return NewErrorResponse("window is required")
	}
	if req.Zone == "" && req.Space == "" {
		return NewErrorResponse("zone or space is required")
	}

	return s.onEngine(func() *Response {
		if s.engine.LookupWindowByName(req.Window) == nil {
			return NewErrorResponse(fmt.Sprintf("Unknown window: %s", req.Window))
		}
		s.engine.Execute(comp.Action{
			Kind:   comp.ActionMoveWindow,
			Window: req.Window,
			Zone:   req.Zone,
			Space:  req.Space,
		})
		resp, _ := NewOKResponse(nil)
		return resp
	})
}

func (s *Server) handleCloseWindow(payload json.RawMessage) *Response {
	var req CloseWindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid close payload: %v", err))
	}
	if req.Window == "" {
		return NewErrorResponse("window is required")
	}

	return s.onEngine(func() *Response {
		if s.engine.LookupWindowByName(req.Window) == nil {
			return NewErrorResponse(fmt.Sprintf("Unknown window: %s", req.Window))
		}
		s.engine.Execute(comp.Action{Kind: comp.ActionCloseWindow, Window: req.Window})
		resp, _ := NewOKResponse(nil)
		return resp
	})
}

func (s *Server) handleSpawn(payload json.RawMessage) *Response {
	var req SpawnPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid spawn payload: %v", err))
	}
	if req.Command == "" {
		return NewErrorResponse("command is required")
	}

	return s.onEngine(func() *Response {
		s.engine.Execute(comp.Action{Kind: comp.ActionSpawn, Command: req.Command})
		resp, _ := NewOKResponse(nil)
		return resp
	})
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the control server.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
