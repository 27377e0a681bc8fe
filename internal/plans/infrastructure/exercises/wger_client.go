// Package exercises resolves exercise names against the public wger catalogue.
package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/studio/internal/plans/application"
	"github.com/sony/gobreaker/v2"
)

const (
	// DefaultBaseURL is the wger REST API root.
	DefaultBaseURL = "https://wger.de/api/v2"
	// DefaultTimeout bounds a single catalogue request.
	DefaultTimeout = 5 * time.Second

	maxResponseBytes = 1 << 20
)

var errExerciseNotFound = errors.New("exercise not found")

// Config configures the wger client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		Timeout:          DefaultTimeout,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// WgerClient implements application.ExerciseLookup over the wger HTTP API.
type WgerClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

var _ application.ExerciseLookup = (*WgerClient)(nil)

// NewWgerClient creates a catalogue client. Zero config fields take their defaults.
func NewWgerClient(cfg Config, logger *slog.Logger) *WgerClient {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}

	settings := gobreaker.Settings{
		Name:        "wger",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A missing exercise is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errExerciseNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &WgerClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
		logger:     logger,
	}
}

type searchResponse struct {
	Suggestions []struct {
		Value string `json:"value"`
		Data  struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	} `json:"suggestions"`
}

type exerciseResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SearchExercises returns catalogue matches for name, best match first.
// Any failure yields an empty slice.
func (c *WgerClient) SearchExercises(ctx context.Context, name string) []application.ExerciseInfo {
	query := url.Values{}
	query.Set("term", name)
	query.Set("language", "english")
	query.Set("format", "json")

	body, err := c.get(ctx, "/exercise/search/?"+query.Encode())
	if err != nil {
		c.logger.WarnContext(ctx, "wger search failed", "term", name, "error", err)
		return []application.ExerciseInfo{}
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.WarnContext(ctx, "wger search failed", "term", name, "error", err)
		return []application.ExerciseInfo{}
	}

	results := make([]application.ExerciseInfo, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		value := s.Value
		if value == "" {
			value = name
		}
		results = append(results, application.ExerciseInfo{
			ExerciseID: strconv.FormatInt(s.Data.ID, 10),
			Name:       value,
		})
	}
	return results
}

// GetExercise fetches a single exercise by its catalogue id.
func (c *WgerClient) GetExercise(ctx context.Context, exerciseID string) (*application.ExerciseInfo, bool) {
	body, err := c.get(ctx, "/exercise/"+url.PathEscape(exerciseID)+"/")
	if errors.Is(err, errExerciseNotFound) {
		return nil, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "wger get exercise failed", "exercise_id", exerciseID, "error", err)
		return nil, false
	}

	var resp exerciseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.WarnContext(ctx, "wger get exercise failed", "exercise_id", exerciseID, "error", err)
		return nil, false
	}
	return &application.ExerciseInfo{
		ExerciseID: strconv.FormatInt(resp.ID, 10),
		Name:       resp.Name,
	}, true
}

func (c *WgerClient) get(ctx context.Context, path string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, errExerciseNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	})
}

// State reports the breaker state, for health checks.
func (c *WgerClient) State() gobreaker.State {
	return c.breaker.State()
}
