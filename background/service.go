// Package background is the coordination process: it owns the bus endpoint,
// the storage file, the external optimization client and the price poller.
// The host may stop and restart it between any two messages, so handlers
// never rely on anything but storage-backed state.
package background

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"marketpilot/bus"
	"marketpilot/internal/types"
	"marketpilot/storage"
)

// Service wires the message handlers to their dependencies.
type Service struct {
	store     *storage.Bridge
	optimizer *Optimizer
	bus       *bus.Server
	logger    types.Logger
}

// NewService creates the background service and registers every message type.
func NewService(store *storage.Bridge, optimizer *Optimizer, logger types.Logger) *Service {
	s := &Service{
		store:     store,
		optimizer: optimizer,
		bus:       bus.NewServer(logger),
		logger:    logger,
	}
	s.bus.Handle(bus.ProductDetected, s.handleProductDetected)
	s.bus.Handle(bus.OpenPopup, s.handleOpenPopup)
	s.bus.Handle(bus.Optimize, s.handleOptimize)
	s.bus.Handle(bus.GetAlerts, s.handleGetAlerts)
	s.bus.Handle(bus.GetTracked, s.handleGetTracked)
	s.bus.Handle(bus.TrackProduct, s.handleTrackProduct)
	return s
}

// Router builds the gin engine: health check plus the bus websocket endpoint.
func (s *Service) Router(environment string, allowedOrigins []string) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(allowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "marketpilot-background",
		})
	})
	router.GET("/ws", s.bus.HandleConnection)
	return router
}

// handleProductDetected persists the announced product as the new current
// one. It arrives as a notification, so the return value is never seen.
func (s *Service) handleProductDetected(_ context.Context, payload json.RawMessage) (interface{}, error) {
	var product types.ProductData
	if err := json.Unmarshal(payload, &product); err != nil {
		return nil, fmt.Errorf("bad product payload: %w", err)
	}
	if product.ProductID == "" {
		return nil, fmt.Errorf("product payload missing product_id")
	}
	return nil, s.store.SetCurrentProduct(&product)
}

// handleOpenPopup records the product the overlay was clicked on so the
// popup, which opens later and re-reads storage, shows the right one.
func (s *Service) handleOpenPopup(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	return s.handleProductDetected(ctx, payload)
}

func (s *Service) handleOptimize(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var req types.OptimizeRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("bad optimize payload: %w", err)
	}
	return s.optimizer.Optimize(ctx, &req)
}

func (s *Service) handleGetAlerts(_ context.Context, _ json.RawMessage) (interface{}, error) {
	alerts, err := s.store.Alerts()
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []types.Alert{}
	}
	return alerts, nil
}

func (s *Service) handleGetTracked(_ context.Context, _ json.RawMessage) (interface{}, error) {
	tracked, err := s.store.Tracked()
	if err != nil {
		return nil, err
	}
	if tracked == nil {
		tracked = []types.TrackedProduct{}
	}
	return tracked, nil
}

func (s *Service) handleTrackProduct(_ context.Context, payload json.RawMessage) (interface{}, error) {
	var req types.TrackRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("bad track payload: %w", err)
	}
	if req.ProductID == "" {
		return nil, fmt.Errorf("track request missing product_id")
	}

	tracked := types.TrackedProduct{
		ID:          ulid.Make().String(),
		Marketplace: req.Marketplace,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		URL:         req.URL,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.AddTracked(tracked); err != nil {
		return nil, err
	}
	s.logger.Infof("tracking %s product %s", tracked.Marketplace, tracked.ProductID)
	return tracked, nil
}

// corsMiddleware allows the extension-style origins the popup and content
// processes present.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if isAllowedOrigin(origin, allowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}
