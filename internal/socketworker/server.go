package socketworker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vk/bayesgrid/internal/ctxlog"
	"github.com/vk/bayesgrid/internal/wire"
	"github.com/vk/bayesgrid/internal/worker"
	"github.com/zishang520/socket.io/v2/socket"
)

// Server exposes a worker.Worker to socket.io clients.
type Server struct {
	io      *socket.Server
	backend worker.Worker
	ctx     context.Context
	logger  *slog.Logger
}

// NewServer returns a server that runs every request on backend. Requests
// are served with ctx, which also carries the logger.
func NewServer(ctx context.Context, backend worker.Worker) *Server {
	s := &Server{
		io:      socket.NewServer(nil, nil),
		backend: backend,
		ctx:     ctx,
		logger:  ctxlog.FromContext(ctx).With("component", "socketworker"),
	}
	s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		logger := s.logger.With("sid", client.Id())
		logger.Info("Client connected.")
		client.On(EventSample, func(args ...any) {
			go s.handle(client, logger, args)
		})
		client.On("disconnect", func(reason ...any) {
			logger.Info("Client disconnected.", "reason", reason)
		})
	})
	return s
}

func (s *Server) handle(client *socket.Socket, logger *slog.Logger, args []any) {
	env, err := decodeEnvelope(args)
	if err != nil {
		logger.Warn("Dropping malformed request.", "error", err)
		return
	}
	logger = logger.With("requestID", env.ID)
	logger.Debug("Request received.", "bytes", len(env.Payload))

	resp, err := s.backend.Sample(ctxlog.WithLogger(s.ctx, logger), env.Payload)
	if err != nil {
		logger.Error("Worker failed.", "error", err)
		resp, _ = json.Marshal(wire.Response{Error: err.Error()})
	}
	out, err := encodeEnvelope(env.ID, resp)
	if err != nil {
		logger.Error("Encoding response failed.", "error", err)
		return
	}
	if err := client.Emit(EventSampled, out); err != nil {
		logger.Error("Emitting response failed.", "error", err)
	}
}

// Handler returns the http.Handler serving the socket.io endpoint.
func (s *Server) Handler() http.Handler {
	return s.io.ServeHandler(nil)
}

// Close disconnects every client.
func (s *Server) Close() {
	s.io.Close(nil)
}
