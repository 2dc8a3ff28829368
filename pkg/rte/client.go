package rte

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/tempowatch/tempowatch/pkg/common"
	"github.com/tempowatch/tempowatch/pkg/log"
	"github.com/tempowatch/tempowatch/pkg/types"
)

const (
	// tokenPath keeps its trailing slash, the RTE gateway 404s without it.
	tokenPath    = "token/oauth/"
	calendarPath = "open_api/tempo_like_supply_contract/v1/tempo_like_calendars"
)

// Client implements the Source interface for the RTE "Tempo Like Supply
// Contract" API. Token state is cached so repeated calendar calls reuse the
// same bearer token until it expires.
type Client struct {
	client      *http.Client
	baseURL     string
	basicAuth   string
	mu          sync.Mutex
	tokenStr    string
	tokenExpiry time.Time
}

// Configured sets up a Client from flags.
func Configured() *Client {
	c := new(Client)
	apiURL := lflag.String("rte-api-url", "https://digital.iservices.rte-france.com", "Base URL for the RTE API")
	basicAuth := lflag.RequiredString("rte-basic-auth", "base64(id_client:id_secret) pair from the RTE data portal")
	timeout := lflag.Duration("rte-timeout", 10*time.Second, "Timeout for RTE API requests")

	lflag.Do(func() {
		c.client = common.HTTPClient(*timeout)
		c.baseURL = *apiURL
		c.basicAuth = *basicAuth
	})
	return c
}

// New creates a Client against the given base URL. This is primarily used for
// testing; production wiring goes through Configured.
func New(client *http.Client, baseURL, basicAuth string) *Client {
	return &Client{
		client:    client,
		baseURL:   baseURL,
		basicAuth: basicAuth,
	}
}

// Authenticate exchanges the configured Basic credentials for a bearer token.
// The token is cached with its expiry so later calls can skip the round-trip.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getToken(ctx)
}

// ensureToken fetches a fresh token if we have none or ours has expired.
// Must be called with c.mu held.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.tokenStr != "" && time.Now().Before(c.tokenExpiry) {
		return nil
	}
	return c.getToken(ctx)
}

func (c *Client) getToken(ctx context.Context) error {
	if c.basicAuth == "" {
		return errors.New("missing rte credentials")
	}

	req, err := c.newGetRequest(ctx, tokenPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Basic "+c.basicAuth)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed: status %d", resp.StatusCode)
	}

	var res tokenResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if res.AccessToken == "" {
		return errors.New("token response missing access_token")
	}

	c.tokenStr = res.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(res.ExpiresIn) * time.Second)
	log.Ctx(ctx).DebugContext(ctx, "rte token obtained",
		slog.String("type", res.TokenType),
		slog.Int("expiresIn", res.ExpiresIn))
	return nil
}

// TempoCalendar returns the Tempo color for the window [start, end). A
// response without a usable color (error status, empty values, unexpected
// body) is reported as ColorUndefined with no error so a single unpublished
// day doesn't abort a whole run. Transport failures still return an error.
func (c *Client) TempoCalendar(ctx context.Context, start, end string) (types.Color, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureToken(ctx); err != nil {
		return types.ColorUndefined, err
	}

	params := url.Values{}
	params.Set("start_date", start)
	params.Set("end_date", end)

	req, err := c.newGetRequest(ctx, calendarPath, params)
	if err != nil {
		return types.ColorUndefined, err
	}
	req.Header.Set("Accept", "application/json")

	// we try up to 2 times because the token might have expired server-side
	for i := 0; i < 2; i++ {
		req.Header.Set("Authorization", "Bearer "+c.tokenStr)

		resp, err := c.client.Do(req)
		if err != nil {
			return types.ColorUndefined, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized && i == 0 {
			log.Ctx(ctx).DebugContext(ctx, "rte token expired")
			c.tokenStr = ""
			if err := c.ensureToken(ctx); err != nil {
				return types.ColorUndefined, err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			log.Ctx(ctx).WarnContext(ctx, "tempo calendar request failed",
				slog.Int("status", resp.StatusCode),
				slog.String("start", start),
				slog.String("end", end))
			return types.ColorUndefined, nil
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return types.ColorUndefined, err
		}

		var res tempoCalendarsResult
		if err := json.Unmarshal(body, &res); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to decode tempo calendar response",
				slog.Any("error", err),
				slog.String("body", string(body)))
			return types.ColorUndefined, nil
		}

		values := res.TempoLikeCalendars.Values
		if len(values) == 0 {
			log.Ctx(ctx).WarnContext(ctx, "tempo calendar response has no values",
				slog.String("start", start),
				slog.String("end", end))
			return types.ColorUndefined, nil
		}
		return types.ParseColor(values[0].Value), nil
	}
	return types.ColorUndefined, nil
}

func (c *Client) newGetRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path, err = url.JoinPath(u.Path, endpoint)
	if err != nil {
		return nil, err
	}

	u.RawQuery = params.Encode()
	return http.NewRequestWithContext(ctx, "GET", u.String(), nil)
}

type tokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type tempoCalendarsResult struct {
	TempoLikeCalendars struct {
		StartDate string          `json:"start_date"`
		EndDate   string          `json:"end_date"`
		Values    []calendarValue `json:"values"`
	} `json:"tempo_like_calendars"`
}

type calendarValue struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Value       string `json:"value"`
	UpdatedDate string `json:"updated_date"`
}
