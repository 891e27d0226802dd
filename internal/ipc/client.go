package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Loom.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Loom.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves combined daemon and pipeline status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Loom.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProjectCreate submits a new prompt to the pipeline.
func (c *Client) ProjectCreate(req ProjectCreateRequest) (*ProjectCreateResponse, error) {
	var resp ProjectCreateResponse
	if err := c.client.Call("Loom.ProjectCreate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProjectList returns projects optionally filtered by status names.
func (c *Client) ProjectList(statuses []string) (*ProjectListResponse, error) {
	var resp ProjectListResponse
	if err := c.client.Call("Loom.ProjectList", ProjectListRequest{Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProjectDescribe returns details for a single project.
func (c *Client) ProjectDescribe(id int64) (*ProjectDescribeResponse, error) {
	var resp ProjectDescribeResponse
	if err := c.client.Call("Loom.ProjectDescribe", ProjectDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProjectDelete removes a project.
func (c *Client) ProjectDelete(id int64) (*ProjectDeleteResponse, error) {
	var resp ProjectDeleteResponse
	if err := c.client.Call("Loom.ProjectDelete", ProjectDeleteRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EnqueueVoice queues projects for voice synthesis.
func (c *Client) EnqueueVoice(ids []int64, all bool) (*EnqueueResponse, error) {
	var resp EnqueueResponse
	if err := c.client.Call("Loom.EnqueueVoice", EnqueueVoiceRequest{IDs: ids, All: all}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EnqueueVideo queues projects for rendering with an optional config.
func (c *Client) EnqueueVideo(ids []int64, all bool, videoConfig string) (*EnqueueResponse, error) {
	var resp EnqueueResponse
	req := EnqueueVideoRequest{IDs: ids, All: all, VideoConfig: videoConfig}
	if err := c.client.Call("Loom.EnqueueVideo", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobList returns queue jobs, optionally restricted to one stage.
func (c *Client) JobList(stage string) (*JobListResponse, error) {
	var resp JobListResponse
	if err := c.client.Call("Loom.JobList", JobListRequest{Stage: stage}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueStart resumes dispatch for a stage queue.
func (c *Client) QueueStart(stage string) (*QueueControlResponse, error) {
	var resp QueueControlResponse
	if err := c.client.Call("Loom.QueueStart", QueueControlRequest{Stage: stage}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueuePause suspends dispatch for a stage queue.
func (c *Client) QueuePause(stage string) (*QueueControlResponse, error) {
	var resp QueueControlResponse
	if err := c.client.Call("Loom.QueuePause", QueueControlRequest{Stage: stage}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueStop halts dispatch for a stage queue.
func (c *Client) QueueStop(stage string) (*QueueControlResponse, error) {
	var resp QueueControlResponse
	if err := c.client.Call("Loom.QueueStop", QueueControlRequest{Stage: stage}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClear removes all jobs from a stage queue and stops it.
func (c *Client) QueueClear(stage string) (*QueueClearResponse, error) {
	var resp QueueClearResponse
	if err := c.client.Call("Loom.QueueClear", QueueControlRequest{Stage: stage}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobRetry requeues an errored job at the front of its stage queue.
func (c *Client) JobRetry(id int64) (*JobRetryResponse, error) {
	var resp JobRetryResponse
	if err := c.client.Call("Loom.JobRetry", JobRetryRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobRemove deletes one queued job.
func (c *Client) JobRemove(id int64) (*JobRemoveResponse, error) {
	var resp JobRemoveResponse
	if err := c.client.Call("Loom.JobRemove", JobRemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Loom.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
