package amadeus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/weekend-fares/pkg/logger"
)

const offersPayload = `{"data":[{"id":"1","itineraries":[{"segments":[{"departure":{"iataCode":"SFO","at":"2025-03-07T08:00:00"},"arrival":{"iataCode":"BIH","at":"2025-03-07T09:10:00"},"carrierCode":"UA","number":"5731"}]}],"price":{"currency":"USD","grandTotal":"189.40"},"validatingAirlineCodes":["UA"]}]}`

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	return NewClient(server.Client(), Options{
		BaseURL:        server.URL,
		ClientID:       "id-123",
		ClientSecret:   "secret-456",
		CarrierCode:    "UA",
		MaxResults:     250,
		AuthTimeout:    5 * time.Second,
		RateLimitPause: time.Millisecond,
	}, logger.NewNop())
}

func testRequest() SearchRequest {
	return SearchRequest{
		Origin:      "SFO",
		Destination: "BIH",
		DepartDate:  "2025-03-07",
		ReturnDate:  "2025-03-09",
		Adults:      1,
		Currency:    "USD",
		NonStop:     true,
	}
}

func TestAuthenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tokenPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id-123", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret-456", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"amadeusOAuth2Token","access_token":"tok-789","token_type":"Bearer","expires_in":1799}`))
	}))
	defer server.Close()

	token, err := newTestClient(t, server).Authenticate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-789", token)
}

func TestAuthenticateFailureJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "invalid_client", "error_description": "Client credentials are invalid"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Authenticate(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	require.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	require.Equal(t, client.TokenURL(), authErr.URL)
	require.Contains(t, authErr.Details, `"error":"invalid_client"`)
	require.Contains(t, err.Error(), "(401)")
	require.Contains(t, err.Error(), client.TokenURL())
}

func TestAuthenticateFailureText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 800)))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).Authenticate(context.Background())

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	require.Equal(t, http.StatusBadGateway, authErr.StatusCode)
	require.Len(t, authErr.Details, maxDetailChars)
}

func TestSearchOffersParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, offersPath, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "SFO", q.Get("originLocationCode"))
		assert.Equal(t, "BIH", q.Get("destinationLocationCode"))
		assert.Equal(t, "2025-03-07", q.Get("departureDate"))
		assert.Equal(t, "2025-03-09", q.Get("returnDate"))
		assert.Equal(t, "1", q.Get("adults"))
		assert.Equal(t, "USD", q.Get("currencyCode"))
		assert.Equal(t, "250", q.Get("max"))
		assert.Equal(t, "UA", q.Get("includedAirlineCodes"))
		assert.Equal(t, "true", q.Get("nonStop"))
		assert.Equal(t, "BUSINESS", q.Get("travelClass"))

		_, _ = w.Write([]byte(offersPayload))
	}))
	defer server.Close()

	req := testRequest()
	req.TravelClass = "BUSINESS"

	payload, err := newTestClient(t, server).SearchOffers(context.Background(), "tok", req)
	require.NoError(t, err)
	require.Len(t, payload.Data, 1)
	require.Equal(t, "189.40", payload.Data[0].Price.GrandTotal)
	require.NotEmpty(t, payload.Data[0].Raw)
}

func TestSearchOffersOmitsEmptyTravelClass(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["travelClass"]
		assert.False(t, present)
		assert.Equal(t, "false", r.URL.Query().Get("nonStop"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	req := testRequest()
	req.NonStop = false

	payload, err := newTestClient(t, server).SearchOffers(context.Background(), "tok", req)
	require.NoError(t, err)
	require.Empty(t, payload.Data)
}

func TestSearchOffersRetriesOnceOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(offersPayload))
	}))
	defer server.Close()

	payload, err := newTestClient(t, server).SearchOffers(context.Background(), "tok", testRequest())
	require.NoError(t, err)
	require.Len(t, payload.Data, 1)
	require.Equal(t, int32(2), calls.Load())
}

func TestSearchOffersRateLimitedTwice(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errors":[{"status":429,"title":"Too many requests"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).SearchOffers(context.Background(), "tok", testRequest())

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	require.Equal(t, int32(2), calls.Load())
}

func TestSearchOffersNoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).SearchOffers(context.Background(), "tok", testRequest())

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	require.Equal(t, int32(1), calls.Load())
}

func TestSearchOffersMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).SearchOffers(context.Background(), "tok", testRequest())
	require.Error(t, err)

	var httpErr *HTTPError
	require.False(t, errors.As(err, &httpErr))
}
