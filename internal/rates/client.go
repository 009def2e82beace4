// Package rates fetches the CLP exchange rate table and keeps a stored
// fallback for when the indicator service is unavailable.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/Simplici0/cotizador/internal/pricing"
)

// DefaultBaseURL is the public Chilean economic indicator API.
const DefaultBaseURL = "https://mindicador.cl/api"

// Source is recorded alongside tables fetched by Client.
const Source = "mindicador"

var ErrBadPayload = errors.New("respuesta de indicadores no válida")

// Client reads daily indicators over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for baseURL with a request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type indicator struct {
	Value float64 `json:"valor"`
}

type indicatorsResponse struct {
	Dollar indicator `json:"dolar"`
	Euro   indicator `json:"euro"`
}

// Fetch returns a rate table anchored to CLP.
func (c *Client) Fetch(ctx context.Context) (pricing.Rates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build indicators request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch indicators: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch indicators: unexpected status %d", resp.StatusCode)
	}

	var body indicatorsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode indicators: %w", err)
	}
	if !valid(body.Dollar.Value) || !valid(body.Euro.Value) {
		return nil, ErrBadPayload
	}

	return pricing.Rates{
		pricing.CLP: 1,
		pricing.USD: body.Dollar.Value,
		pricing.EUR: body.Euro.Value,
	}, nil
}

func valid(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
