package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"spellsync/internal/daemon"
	"spellsync/internal/logging"
	"spellsync/internal/queue"
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
	if err := rpcServer.RegisterName("Spellsync", srv); err != nil {
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
			logging.String(logging.FieldErrorHint, "remove the socket file manually before the next start"))
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
	return logging.NewComponentLogger(s.logger, "ipc")
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.Online = status.Online
	resp.Syncing = status.Report.Metrics.Syncing
	resp.PID = status.PID
	resp.QueueDBPath = status.QueueDBPath
	resp.LockPath = status.LockFilePath
	resp.QueueStats = map[string]int{
		"pending_attempts": status.Report.Queue.PendingAttempts,
		"pending_audio":    status.Report.Queue.PendingAudio,
		"failed_attempts":  status.Report.Queue.FailedAttempts,
		"failed_audio":     status.Report.Queue.FailedAudio,
		"syncing_attempts": status.Report.Queue.SyncingAttempts,
		"syncing_audio":    status.Report.Queue.SyncingAudio,
	}
	resp.Counters = make(map[string]uint64, len(status.Report.Metrics.Counters))
	for counter, value := range status.Report.Metrics.Counters {
		resp.Counters[string(counter)] = value
	}
	if !status.Report.Metrics.LastPassAt.IsZero() {
		resp.LastPassAt = status.Report.Metrics.LastPassAt.Format(time.RFC3339)
		resp.LastPassSecs = status.Report.Metrics.LastPassDuration.Seconds()
	}
	return nil
}

func (s *service) SyncNow(_ SyncNowRequest, resp *SyncNowResponse) error {
	s.log().Debug("manual sync requested")
	result, ran, err := s.daemon.Service().SyncNow(s.ctx)
	if err != nil {
		resp.Ran = ran
		resp.Message = err.Error()
		return nil
	}
	resp.Ran = ran
	resp.AttemptsSynced = result.AttemptsSynced
	resp.AudioSynced = result.AudioSynced
	resp.AttemptsFailed = result.AttemptsFailed
	resp.AudioFailed = result.AudioFailed
	resp.AttemptsSkipped = result.AttemptsSkipped
	if !ran {
		resp.Message = "sync pass already in progress"
	}
	return nil
}

func (s *service) QueueList(_ QueueListRequest, resp *QueueListResponse) error {
	listing, err := s.daemon.Service().List(s.ctx)
	if err != nil {
		return err
	}
	for _, attempt := range listing.PendingAttempts {
		resp.Attempts = append(resp.Attempts, convertAttempt(attempt))
	}
	for _, attempt := range listing.FailedAttempts {
		resp.Attempts = append(resp.Attempts, convertAttempt(attempt))
	}
	for _, clip := range listing.PendingAudio {
		resp.Audio = append(resp.Audio, convertAudio(clip))
	}
	for _, clip := range listing.FailedAudio {
		resp.Audio = append(resp.Audio, convertAudio(clip))
	}
	return nil
}

func (s *service) QueueRetry(req QueueRetryRequest, resp *QueueRetryResponse) error {
	kind, ok := queue.ParseKind(req.Kind)
	if !ok {
		return fmt.Errorf("unknown queue kind %q", req.Kind)
	}
	ids := req.IDs
	if len(ids) == 0 {
		var err error
		ids, err = s.failedIDs(kind)
		if err != nil {
			return err
		}
	}
	svc := s.daemon.Service()
	for _, id := range ids {
		restored, err := svc.Retry(s.ctx, kind, id)
		if err != nil {
			return err
		}
		if restored {
			resp.Updated++
		}
	}
	if resp.Updated > 0 {
		s.log().Info("restored failed items for retry",
			logging.String(logging.FieldItemKind, string(kind)),
			logging.Int64("count", resp.Updated))
	}
	return nil
}

func (s *service) failedIDs(kind queue.Kind) ([]int64, error) {
	listing, err := s.daemon.Service().List(s.ctx)
	if err != nil {
		return nil, err
	}
	var ids []int64
	switch kind {
	case queue.KindAttempt:
		for _, attempt := range listing.FailedAttempts {
			ids = append(ids, attempt.ID)
		}
	case queue.KindAudio:
		for _, clip := range listing.FailedAudio {
			ids = append(ids, clip.ID)
		}
	}
	return ids, nil
}

func (s *service) QueueClearFailed(_ QueueClearFailedRequest, resp *QueueClearFailedResponse) error {
	removed, err := s.daemon.Service().ClearFailed(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func convertAttempt(attempt *queue.Attempt) AttemptItem {
	return AttemptItem{
		ID:         attempt.ID,
		ChildID:    attempt.ChildID,
		ListID:     attempt.ListID,
		WordID:     attempt.WordID,
		Mode:       string(attempt.Mode),
		Correct:    attempt.Correct,
		State:      string(attempt.State),
		RetryCount: attempt.RetryCount,
		LastError:  attempt.LastError,
		Failed:     attempt.Terminal,
		CreatedAt:  attempt.CreatedAt.Format(time.RFC3339),
	}
}

func convertAudio(clip *queue.Audio) AudioItem {
	return AudioItem{
		ID:         clip.ID,
		DestPath:   clip.DestPath,
		State:      string(clip.State),
		RetryCount: clip.RetryCount,
		LastError:  clip.LastError,
		Failed:     clip.Terminal,
		CreatedAt:  clip.CreatedAt.Format(time.RFC3339),
	}
}
