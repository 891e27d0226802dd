package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"loom/internal/daemon"
	"loom/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Loom", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun loom stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Pipeline = status.Pipeline
	resp.LockPath = status.LockFilePath
	resp.LogPath = status.LogPath
	return nil
}

func (s *service) ProjectCreate(req ProjectCreateRequest, resp *ProjectCreateResponse) error {
	result, err := s.daemon.Service().CreateProject(s.ctx, req)
	if err != nil {
		return err
	}
	*resp = result
	return nil
}

func (s *service) ProjectList(req ProjectListRequest, resp *ProjectListResponse) error {
	projects, err := s.daemon.Service().ListProjects(s.ctx, req.Statuses...)
	if err != nil {
		return err
	}
	resp.Projects = projects
	return nil
}

func (s *service) ProjectDescribe(req ProjectDescribeRequest, resp *ProjectDescribeResponse) error {
	project, err := s.daemon.Service().DescribeProject(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Project = *project
	return nil
}

func (s *service) ProjectDelete(req ProjectDeleteRequest, resp *ProjectDeleteResponse) error {
	if err := s.daemon.Service().DeleteProject(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Deleted = true
	return nil
}

func (s *service) EnqueueVoice(req EnqueueVoiceRequest, resp *EnqueueResponse) error {
	jobs, err := s.daemon.Service().EnqueueVoice(s.ctx, req.IDs, req.All)
	if err != nil {
		return err
	}
	resp.Jobs = jobs
	return nil
}

func (s *service) EnqueueVideo(req EnqueueVideoRequest, resp *EnqueueResponse) error {
	jobs, err := s.daemon.Service().EnqueueVideo(s.ctx, req.IDs, req.All, req.VideoConfig)
	if err != nil {
		return err
	}
	resp.Jobs = jobs
	return nil
}

func (s *service) JobList(req JobListRequest, resp *JobListResponse) error {
	jobs, err := s.daemon.Service().ListJobs(s.ctx, req.Stage)
	if err != nil {
		return err
	}
	resp.Jobs = jobs
	return nil
}

func (s *service) QueueStart(req QueueControlRequest, resp *QueueControlResponse) error {
	if err := s.daemon.Service().StartQueue(s.ctx, req.Stage); err != nil {
		return err
	}
	resp.OK = true
	return nil
}

func (s *service) QueuePause(req QueueControlRequest, resp *QueueControlResponse) error {
	if err := s.daemon.Service().PauseQueue(s.ctx, req.Stage); err != nil {
		return err
	}
	resp.OK = true
	return nil
}

func (s *service) QueueStop(req QueueControlRequest, resp *QueueControlResponse) error {
	if err := s.daemon.Service().StopQueue(s.ctx, req.Stage); err != nil {
		return err
	}
	resp.OK = true
	return nil
}

func (s *service) QueueClear(req QueueControlRequest, resp *QueueClearResponse) error {
	removed, err := s.daemon.Service().ClearQueue(s.ctx, req.Stage)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) JobRetry(req JobRetryRequest, resp *JobRetryResponse) error {
	job, err := s.daemon.Service().RetryJob(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Job = job
	return nil
}

func (s *service) JobRemove(req JobRemoveRequest, resp *JobRemoveResponse) error {
	if err := s.daemon.Service().RemoveJob(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Removed = true
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.Service().TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
