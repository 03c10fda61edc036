package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nnoitra/terminal/internal/infrastructure/resilience"
)

// ErrUnauthenticated is returned when no token is available for the
// remote API.
var ErrUnauthenticated = errors.New("authentication required")

// TokenSource returns the bearer token for the current user, or "".
type TokenSource func(ctx context.Context) (string, error)

// RemoteConfig configures the remote backend.
type RemoteConfig struct {
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	RateLimit float64 // requests per second, 0 for unlimited
	Token     TokenSource
	// OnBreakerChange observes circuit breaker transitions.
	OnBreakerChange func(name string, to resilience.State)
}

type remoteRequest struct {
	Key    string `json:"key,omitempty"`
	Node   string `json:"node,omitempty"`
	Prefix string `json:"prefix,omitempty"`
}

type remoteResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Node    *string  `json:"node"`
	Keys    []string `json:"keys"`
}

// Remote stores nodes through the storage HTTP API. The server scopes
// nodes by the token's user, so the instance id is not sent.
type Remote struct {
	client  *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	token   TokenSource
}

// NewRemote creates the remote backend.
func NewRemote(cfg RemoteConfig, log *zap.Logger) *Remote {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	retry := retryablehttp.NewClient()
	retry.RetryMax = cfg.Retries
	retry.RetryWaitMin = 200 * time.Millisecond
	retry.RetryWaitMax = 2 * time.Second
	retry.Logger = nil

	client := resty.NewWithClient(retry.StandardClient()).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "nnoitra-terminal/1.0").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	limit := rate.Inf
	burst := 0
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	breaker := resilience.New("remote-storage", resilience.Settings{
		Probes:   2,
		Cooldown: 15 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5 ||
				(c.Requests >= 20 && float64(c.Failures)/float64(c.Requests) > 0.5)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
			if cfg.OnBreakerChange != nil {
				cfg.OnBreakerChange(name, to)
			}
		},
	})

	token := cfg.Token
	if token == nil {
		token = func(context.Context) (string, error) { return "", nil }
	}

	return &Remote{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
		token:   token,
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (r *Remote) Breaker() *resilience.Breaker { return r.breaker }

func (r *Remote) Get(ctx context.Context, _, key string) ([]byte, bool, error) {
	resp, err := r.post(ctx, "get_node", remoteRequest{Key: key})
	if err != nil {
		return nil, false, err
	}
	if resp.Node == nil {
		return nil, false, nil
	}
	return []byte(*resp.Node), true, nil
}

func (r *Remote) Set(ctx context.Context, _, key string, node []byte) error {
	_, err := r.post(ctx, "set_node", remoteRequest{Key: key, Node: string(node)})
	return err
}

func (r *Remote) Delete(ctx context.Context, _, key string) error {
	_, err := r.post(ctx, "delete_node", remoteRequest{Key: key})
	return err
}

func (r *Remote) ListKeys(ctx context.Context, _, prefix string) ([]string, error) {
	resp, err := r.post(ctx, "list_keys", remoteRequest{Prefix: prefix})
	if err != nil {
		return nil, err
	}
	if resp.Keys == nil {
		return []string{}, nil
	}
	return resp.Keys, nil
}

func (r *Remote) Close() error { return nil }

func (r *Remote) post(ctx context.Context, endpoint string, body remoteRequest) (remoteResponse, error) {
	token, err := r.token(ctx)
	if err != nil {
		return remoteResponse{}, fmt.Errorf("reading token: %w", err)
	}
	if token == "" {
		return remoteResponse{}, ErrUnauthenticated
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return remoteResponse{}, fmt.Errorf("rate limit: %w", err)
	}

	return resilience.Run(r.breaker, func() (remoteResponse, error) {
		var out remoteResponse
		resp, err := r.client.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetBody(body).
			SetResult(&out).
			SetError(&out).
			// The storage API always answers JSON, whatever it labels it.
			ForceContentType("application/json").
			Post("/" + endpoint)
		if err != nil {
			return out, fmt.Errorf("%s: %w", endpoint, err)
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			return out, ErrUnauthenticated
		}
		if resp.IsError() || (out.Status != "" && out.Status != "success") {
			msg := out.Message
			if msg == "" {
				msg = resp.Status()
			}
			return out, fmt.Errorf("%s: %s", endpoint, msg)
		}
		return out, nil
	})
}
