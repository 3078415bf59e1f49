package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/yegors/weekend-fares/pkg/logger"
)

const (
	tokenPath  = "/v1/security/oauth2/token"
	offersPath = "/v2/shopping/flight-offers"
)

// Options configures a Client
type Options struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	CarrierCode    string
	MaxResults     int
	AuthTimeout    time.Duration
	RateLimitPause time.Duration
}

// Client talks to the flight-offer provider. It owns no global state: the
// HTTP client is passed in by the caller and reused for every request.
type Client struct {
	httpClient *http.Client
	opts       Options
	logger     *logger.Logger
}

// NewClient creates a new provider client
func NewClient(httpClient *http.Client, opts Options, logger *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		opts:       opts,
		logger:     logger.Named("amadeus-client"),
	}
}

// TokenURL is the client-credentials endpoint for the configured base
func (c *Client) TokenURL() string {
	return c.opts.BaseURL + tokenPath
}

// Authenticate exchanges the client credentials for a bearer token. The
// token is not refreshed; callers fetch one per run.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	cfg := clientcredentials.Config{
		ClientID:     c.opts.ClientID,
		ClientSecret: c.opts.ClientSecret,
		TokenURL:     c.TokenURL(),
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	if c.opts.AuthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.AuthTimeout)
		defer cancel()
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	c.logger.Debug("Requesting access token", logger.String("url", cfg.TokenURL))

	token, err := cfg.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", &AuthError{
				StatusCode: retrieveErr.Response.StatusCode,
				URL:        cfg.TokenURL,
				Details:    describeBody(retrieveErr.Body),
			}
		}
		return "", fmt.Errorf("failed to fetch access token from %s: %w", cfg.TokenURL, err)
	}

	c.logger.Debug("Access token acquired", logger.Time("expiry", token.Expiry))
	return token.AccessToken, nil
}

// SearchOffers runs one round-trip search. A 429 response is retried exactly
// once after the configured pause; any other non-success status is returned
// as an *HTTPError.
func (c *Client) SearchOffers(ctx context.Context, token string, req SearchRequest) (*SearchResponse, error) {
	endpoint := c.opts.BaseURL + offersPath + "?" + c.searchParams(req).Encode()

	resp, err := c.get(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		drain(resp)
		c.logger.Warn("Rate limited, retrying once",
			logger.String("depart_date", req.DepartDate),
			logger.String("return_date", req.ReturnDate),
			logger.Duration("pause", c.opts.RateLimitPause),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.opts.RateLimitPause):
		}

		resp, err = c.get(ctx, endpoint, token)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        endpoint,
			Body:       describeBody(body),
		}
	}

	var payload SearchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	c.logger.Debug("Fetched flight offers",
		logger.String("depart_date", req.DepartDate),
		logger.String("return_date", req.ReturnDate),
		logger.Int("offer_count", len(payload.Data)),
	)

	return &payload, nil
}

func (c *Client) searchParams(req SearchRequest) url.Values {
	params := url.Values{}
	params.Set("originLocationCode", req.Origin)
	params.Set("destinationLocationCode", req.Destination)
	params.Set("departureDate", req.DepartDate)
	params.Set("returnDate", req.ReturnDate)
	params.Set("adults", strconv.Itoa(req.Adults))
	params.Set("currencyCode", req.Currency)
	params.Set("max", strconv.Itoa(c.opts.MaxResults))
	params.Set("includedAirlineCodes", c.opts.CarrierCode)
	params.Set("nonStop", strconv.FormatBool(req.NonStop))
	if req.TravelClass != "" {
		params.Set("travelClass", req.TravelClass)
	}
	return params
}

func (c *Client) get(ctx context.Context, endpoint, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	return resp, nil
}

// drain lets the transport reuse the connection before the retry
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
