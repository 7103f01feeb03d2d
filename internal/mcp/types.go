package mcp

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Spaces        int   `json:"spaces"`
	Outputs       int   `json:"outputs"`
	Windows       int   `json:"windows"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// ListSpacesInput is the input for the list_spaces tool.
type ListSpacesInput struct{}

// SpaceInfo describes one space.
type SpaceInfo struct {
	Name    string   `json:"name"`
	Outputs []string `json:"outputs"`
	Zones   []string `json:"zones"`
	Windows int      `json:"windows"`
}

// ListSpacesOutput is the output for the list_spaces tool.
type ListSpacesOutput struct {
	Spaces []SpaceInfo `json:"spaces"`
}

// ListOutputsInput is the input for the list_outputs tool.
type ListOutputsInput struct{}

// OutputInfo describes one output.
type OutputInfo struct {
	Name   string  `json:"name"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	Outputs []OutputInfo `json:"outputs"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// WindowInfo describes one mapped window.
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

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// MoveWindowInput is the input for the move_window tool.
type MoveWindowInput struct {
	Window string `json:"window" jsonschema:"required,Window title or application id"`
	Zone   string `json:"zone,omitempty" jsonschema:"Target zone name within the window's space"`
	Space  string `json:"space,omitempty" jsonschema:"Target space name"`
}

// MoveWindowOutput is the output for the move_window tool.
type MoveWindowOutput struct {
	Moved bool `json:"moved"`
}

// CloseWindowInput is the input for the close_window tool.
type CloseWindowInput struct {
	Window string `json:"window" jsonschema:"required,Window title or application id"`
}

// CloseWindowOutput is the output for the close_window tool.
type CloseWindowOutput struct {
	Closed bool `json:"closed"`
}

// SpawnInput is the input for the spawn tool.
type SpawnInput struct {
	Command string `json:"command" jsonschema:"required,Command line to start inside the session"`
}

// SpawnOutput is the output for the spawn tool.
type SpawnOutput struct {
	Spawned bool `json:"spawned"`
}
