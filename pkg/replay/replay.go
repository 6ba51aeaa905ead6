// Package replay serves a recorded chat stream ("tape") at POST /chat so the
// chat client can be exercised without the advisor backend.
package replay

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/folio/pkg/llm"
)

const chatPath = "/chat"

// validationDetail mirrors the advisor API's 422 body.
type validationDetail struct {
	Detail []validationItem `json:"detail"`
}

type validationItem struct {
	Msg string `json:"msg"`
}

// Server replays one tape for every accepted request.
type Server struct {
	config Config
	tape   []byte
	server *fiber.App
	logger *slog.Logger
}

// New creates a Server that replays tape.
func New(config Config, tape []byte, logger *slog.Logger) *Server {
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaultChunkSize
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		tape:   tape,
		server: app,
		logger: logger.With(slog.String("module", "replay")),
	}

	app.Post(chatPath, s.handleChat)

	return s
}

// Run starts the server on the configured listen address.
func (s *Server) Run() error {
	s.logger.Info("starting replay server",
		slog.String("listen", s.config.ListenAddr),
		slog.Int("tape_bytes", len(s.tape)),
	)

	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting replay server",
		slog.String("listen", listener.Addr().String()),
		slog.Int("tape_bytes", len(s.tape)),
	)

	return s.server.Listener(listener)
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	return s.server.Shutdown()
}

// Handler exposes the server as a net/http handler.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.server)
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req llm.ChatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(validationDetail{
			Detail: []validationItem{{Msg: "request body is not valid JSON"}},
		})
	}
	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(validationDetail{
			Detail: []validationItem{{Msg: "messages must not be empty"}},
		})
	}

	s.logger.Debug("replaying tape",
		slog.Int("message_count", len(req.Messages)),
		slog.String("request_id", c.Get("X-Request-ID")),
	)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	// io.Pipe gives per-chunk flushing; SetBodyStreamWriter buffers.
	pr, pw := io.Pipe()
	go s.writeTape(pw)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) writeTape(pw *io.PipeWriter) {
	defer pw.Close()

	for start := 0; start < len(s.tape); start += s.config.ChunkSize {
		if start > 0 && s.config.ChunkDelay > 0 {
			time.Sleep(s.config.ChunkDelay)
		}

		end := min(start+s.config.ChunkSize, len(s.tape))
		if _, err := pw.Write(s.tape[start:end]); err != nil {
			s.logger.Debug("client went away", slog.Any("error", err))
			return
		}
	}
}
