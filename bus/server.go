package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"marketpilot/internal/types"
)

// Handler processes one request's payload and returns the response data.
// A nil result marshals to an empty data field.
type Handler func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Server is the background side of the bus: a websocket endpoint dispatching
// frames to registered handlers. Handler failures become {ok:false, error}
// envelopes; nothing here may kill a connection over a bad payload.
type Server struct {
	handlers map[MessageType]Handler
	upgrader websocket.Upgrader
	logger   types.Logger
}

// NewServer creates a bus server with no handlers registered.
func NewServer(logger types.Logger) *Server {
	return &Server{
		handlers: make(map[MessageType]Handler),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // origin filtering happens in the CORS middleware
			},
		},
		logger: logger,
	}
}

// Handle registers the handler for a message type, replacing any previous one.
func (s *Server) Handle(typ MessageType, h Handler) {
	s.handlers[typ] = h
}

// HandleConnection upgrades the request and serves one client until it
// disconnects. Notifications (empty id) are dispatched but never answered.
func (s *Server) HandleConnection(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			s.logger.Debugf("bus connection closed: %v", err)
			return
		}

		resp := s.dispatch(ctx, req)
		if req.ID == "" {
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Warnf("failed to write bus response: %v", err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) (resp Response) {
	resp.ID = req.ID

	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("handler for %s panicked: %v", req.Type, r)
			resp = Response{ID: req.ID, OK: false, Error: fmt.Sprintf("internal error handling %s", req.Type)}
		}
	}()

	h, ok := s.handlers[req.Type]
	if !ok {
		resp.Error = fmt.Sprintf("unknown message type: %s", req.Type)
		return resp
	}

	data, err := h(ctx, req.Payload)
	if err != nil {
		s.logger.Warnf("%s failed: %v", req.Type, err)
		resp.Error = err.Error()
		return resp
	}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			resp.Error = fmt.Sprintf("failed to encode %s response: %v", req.Type, err)
			return resp
		}
		resp.Data = raw
	}
	resp.OK = true
	return resp
}
