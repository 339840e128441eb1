package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/angelmondragon/healthpulse-backend/pkg/config"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
	"github.com/angelmondragon/healthpulse-backend/pkg/metrics"
)

const (
	baseBackoff = 500 * time.Millisecond
	maxBackoff  = 5 * time.Second
)

type chatCompleter interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client calls an OpenAI-compatible chat completion endpoint with a per
// request timeout, a token bucket limiter, retries and a circuit breaker.
type Client struct {
	api         chatCompleter
	cfg         config.OracleConfig
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	metrics     *metrics.OracleMetrics
	logg        *logger.Logger
	sleep       func(context.Context, time.Duration) error
	maxAttempts int
}

type ClientParams struct {
	Config  config.OracleConfig
	Logger  *logger.Logger
	Metrics *metrics.OracleMetrics
}

// New returns a Generator for the configured provider, or Noop when the
// provider is disabled.
func New(params ClientParams) Generator {
	if !params.Config.Enabled() {
		return Noop{}
	}
	apiCfg := openai.DefaultConfig(params.Config.APIKey)
	if base := strings.TrimSpace(params.Config.BaseURL); base != "" {
		apiCfg.BaseURL = strings.TrimRight(base, "/")
	}
	return newClient(openai.NewClientWithConfig(apiCfg), params)
}

func newClient(api chatCompleter, params ClientParams) *Client {
	cfg := params.Config
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &Client{
		api:         api,
		cfg:         cfg,
		limiter:     rate.NewLimiter(limit, burst),
		metrics:     params.Metrics,
		logg:        logg,
		sleep:       sleepContext,
		maxAttempts: attempts,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "oracle",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.metrics.SetBreakerOpen(to != gobreaker.StateClosed)
			ctx := c.logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			c.logg.Warn(ctx, "oracle.breaker.state_changed")
		},
	})
	return c
}

// Generate sends one prompt. Every attempt counts against the breaker; an
// open breaker fails fast with ErrUnavailable.
func (c *Client) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generateWithRetry(ctx, prompt, systemPrompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.ObserveCall("rejected", time.Since(start))
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		c.metrics.ObserveCall("error", time.Since(start))
		return "", err
	}
	c.metrics.ObserveCall("ok", time.Since(start))
	return out.(string), nil
}

func (c *Client) generateWithRetry(ctx context.Context, prompt, systemPrompt string) (string, error) {
	var lastErr error
	backoff := baseBackoff
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("oracle rate limit wait: %w", err)
		}
		text, err := c.call(ctx, prompt, systemPrompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) || attempt == c.maxAttempts {
			break
		}
		if err := c.sleep(ctx, backoff); err != nil {
			return "", err
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return "", fmt.Errorf("oracle generate: %w", lastErr)
}

func (c *Client) call(ctx context.Context, prompt, systemPrompt string) (string, error) {
	callCtx := ctx
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("oracle returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}
	return !errors.Is(err, context.Canceled)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
