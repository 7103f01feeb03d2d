package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListSpaces  CommandType = "LIST_SPACES"
	CommandListOutputs CommandType = "LIST_OUTPUTS"
	CommandListWindows CommandType = "LIST_WINDOWS"
	CommandMoveWindow  CommandType = "MOVE_WINDOW"
	CommandCloseWindow CommandType = "CLOSE_WINDOW"
	CommandSpawn       CommandType = "SPAWN"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Spaces        int   `json:"spaces"`
	Outputs       int   `json:"outputs"`
	Windows       int   `json:"windows"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	Running       bool  `json:"running"`
}

// SpaceInfo describes a single space
type SpaceInfo struct {
	Name    string   `json:"name"`
	Outputs []string `json:"outputs"`
	Zones   []string `json:"zones"`
	Windows int      `json:"windows"`
}

// SpacesData represents the data returned by LIST_SPACES
type SpacesData struct {
	Spaces []SpaceInfo `json:"spaces"`
}

// OutputInfo describes a single output
type OutputInfo struct {
	Name   string  `json:"name"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
}

// OutputsData represents the data returned by LIST_OUTPUTS
type OutputsData struct {
	Outputs []OutputInfo `json:"outputs"`
}

// WindowInfo describes a single mapped window
type WindowInfo struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	AppID      string `json:"app_id"`
	Space      string `json:"space"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Legacy     bool   `json:"legacy"`
	Maximized  bool   `json:"maximized"`
	Fullscreen bool   `json:"fullscreen"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// MoveWindowPayload represents the payload for MOVE_WINDOW
type MoveWindowPayload struct {
	Window string `json:"window"`
	Zone   string `json:"zone,omitempty"`
	Space  string `json:"space,omitempty"`
}

// CloseWindowPayload represents the payload for CLOSE_WINDOW
type CloseWindowPayload struct {
	Window string `json:"window"`
}

// SpawnPayload represents the payload for SPAWN
type SpawnPayload struct {
	Command string `json:"command"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
