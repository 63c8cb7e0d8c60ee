package background

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
	"marketpilot/internal/types"
)

// Optimizer forwards OPTIMIZE requests to the external listing-optimization
// API. Its failures are ordinary envelope errors rendered inline by the
// popup, never fatal.
type Optimizer struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  types.Logger
}

// NewOptimizer creates a rate-limited client for the optimization API.
// perMinute caps outbound calls; the API meters by request.
func NewOptimizer(baseURL, apiKey string, perMinute int, logger types.Logger) *Optimizer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2)
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	if perMinute <= 0 {
		perMinute = 10
	}
	return &Optimizer{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		logger:  logger,
	}
}

// Optimize runs one optimization round trip.
func (o *Optimizer) Optimize(ctx context.Context, req *types.OptimizeRequest) (*types.OptimizeResult, error) {
	if req.ProductTitle == "" {
		return nil, fmt.Errorf("optimize request missing product_title")
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var result types.OptimizeResult
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/v1/optimize")
	if err != nil {
		return nil, fmt.Errorf("optimization request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("optimization service returned %s", resp.Status())
	}

	o.logger.Debugf("optimized %q, score %.2f", req.ProductTitle, result.RankingJuice.Score)
	return &result, nil
}
