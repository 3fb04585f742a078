package prices

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	folio_errors "modelfolio/internal"

	"github.com/stretchr/testify/require"
)

const globalQuoteBody = `{
    "Global Quote": {
        "01. symbol": "INFY.BSE",
        "02. open": "1490.0000",
        "03. high": "1512.5000",
        "04. low": "1480.1000",
        "05. price": "1505.2500",
        "06. volume": "120345",
        "07. latest trading day": "2024-03-08",
        "08. previous close": "1488.9000",
        "09. change": "16.3500",
        "10. change percent": "1.0981%"
    }
}`

func newTestClient(t *testing.T, body string, status int, now time.Time) (*AlphaVantageClient, *string) {
	t.Helper()
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := NewAlphaVantageClient(
		"test-key",
		WithBaseURL(srv.URL),
		WithRateLimit(0),
		WithClock(func() time.Time { return now }),
	)
	return client, &query
}

func TestAlphaVantageClient_GetPrice(t *testing.T) {
	t.Run("previous trading day is a close", func(t *testing.T) {
		client, query := newTestClient(t, globalQuoteBody, http.StatusOK, time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC))

		quote, err := client.GetPrice(context.Background(), "INFY.BSE")
		require.NoError(t, err)
		require.Contains(t, *query, "function=GLOBAL_QUOTE")
		require.Contains(t, *query, "symbol=INFY.BSE")
		require.Contains(t, *query, "apikey=test-key")

		require.Equal(t, "INFY.BSE", quote.Symbol)
		require.Equal(t, "1505.25", quote.CurrentPrice.String())
		require.NotNil(t, quote.ClosingPrice)
		require.True(t, quote.ClosingPrice.Equal(quote.CurrentPrice))
		require.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), quote.AsOf)
	})

	t.Run("trading day still open", func(t *testing.T) {
		client, _ := newTestClient(t, globalQuoteBody, http.StatusOK, time.Date(2024, 3, 8, 11, 0, 0, 0, time.UTC))
		quote, err := client.GetPrice(context.Background(), "INFY.BSE")
		require.NoError(t, err)
		require.Nil(t, quote.ClosingPrice)
	})

	t.Run("after the close today counts", func(t *testing.T) {
		client, _ := newTestClient(t, globalQuoteBody, http.StatusOK, time.Date(2024, 3, 8, 16, 0, 0, 0, time.UTC))
		quote, err := client.GetPrice(context.Background(), "INFY.BSE")
		require.NoError(t, err)
		require.NotNil(t, quote.ClosingPrice)
	})

	t.Run("empty quote is not found", func(t *testing.T) {
		client, _ := newTestClient(t, `{"Global Quote": {}}`, http.StatusOK, time.Now())
		_, err := client.GetPrice(context.Background(), "NOPE")
		require.True(t, folio_errors.IsNotFound(err), err)
	})

	t.Run("rate limit note", func(t *testing.T) {
		client, _ := newTestClient(t, `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`, http.StatusOK, time.Now())
		_, err := client.GetPrice(context.Background(), "INFY.BSE")
		var unavailable folio_errors.PriceUnavailableError
		require.True(t, errors.As(err, &unavailable))
		require.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("server error", func(t *testing.T) {
		client, _ := newTestClient(t, "boom", http.StatusBadGateway, time.Now())
		_, err := client.GetPrice(context.Background(), "INFY.BSE")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	})
}

func Test_cleanResponseBody(t *testing.T) {
	require.Equal(
		t,
		`{"symbol": "A", "latest trading day": "x"}`,
		string(cleanResponseBody([]byte(`{"01. symbol": "A", "07. latest trading day": "x"}`))),
	)
}
