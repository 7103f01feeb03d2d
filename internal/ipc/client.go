package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/Dirli-V/scape/internal/runtimepath"
)

// Client handles control-socket communication with a running compositor.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new control client.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to compositor: %w (is scape running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("compositor error: %s", resp.Error)
	}

	return &resp, nil
}

// GetStatus retrieves compositor status.
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// ListSpaces retrieves all spaces.
func (c *Client) ListSpaces() (*SpacesData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListSpaces})
	if err != nil {
		return nil, err
	}

	var data SpacesData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse spaces data: %w", err)
	}

	return &data, nil
}

// ListOutputs retrieves all outputs.
func (c *Client) ListOutputs() (*OutputsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListOutputs})
	if err != nil {
		return nil, err
	}

	var data OutputsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse outputs data: %w", err)
	}

	return &data, nil
}

// ListWindows retrieves all mapped windows.
func (c *Client) ListWindows() (*WindowsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListWindows})
	if err != nil {
		return nil, err
	}

	var data WindowsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse windows data: %w", err)
	}

	return &data, nil
}

// MoveWindow moves a window by name to a zone and/or space.
func (c *Client) MoveWindow(window, zone, space string) error {
	payload, err := json.Marshal(MoveWindowPayload{Window: window, Zone: zone, Space: space})
	if err != nil {
		return fmt.Errorf("failed to marshal move payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandMoveWindow, Payload: payload})
	return err
}

// CloseWindow asks the named window to close.
func (c *Client) CloseWindow(window string) error {
	payload, err := json.Marshal(CloseWindowPayload{Window: window})
	if err != nil {
		return fmt.Errorf("failed to marshal close payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandCloseWindow, Payload: payload})
	return err
}

// Spawn starts a program inside the compositor session.
func (c *Client) Spawn(command string) error {
	payload, err := json.Marshal(SpawnPayload{Command: command})
	if err != nil {
		return fmt.Errorf("failed to marshal spawn payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandSpawn, Payload: payload})
	return err
}

// Ping checks if the compositor is responding.
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
