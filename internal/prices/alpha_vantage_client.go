package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	folio_errors "modelfolio/internal"
	"modelfolio/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	DefaultAlphaVantageURL   = "https://www.alphavantage.co"
	DefaultAlphaVantageLimit = 5 // requests per minute on the free tier
	defaultTimeout           = 15 * time.Second
	defaultMarketClose       = 15*time.Hour + 30*time.Minute
)

// ErrRateLimited is returned when Alpha Vantage answers with its call
// frequency note instead of a quote.
var ErrRateLimited = errors.New("alpha vantage rate limit hit")

type AlphaVantageClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	location   *time.Location
	closeAt    time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

type AlphaVantageOption func(*AlphaVantageClient)

func WithBaseURL(baseURL string) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithRateLimit caps requests per minute.
func WithRateLimit(perMinute int) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
}

func WithTimeout(timeout time.Duration) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithMarketLocation sets the exchange timezone used to decide whether the
// latest trading day is already closed.
func WithMarketLocation(loc *time.Location) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.location = loc
	}
}

// WithMarketClose sets the time of day, in the market location, after
// which today's price counts as the close.
func WithMarketClose(sinceMidnight time.Duration) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.closeAt = sinceMidnight
	}
}

func WithClock(now func() time.Time) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.now = now
	}
}

func WithLogger(log zerolog.Logger) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.log = log
	}
}

func NewAlphaVantageClient(apiKey string, opts ...AlphaVantageOption) *AlphaVantageClient {
	c := &AlphaVantageClient{
		baseURL: DefaultAlphaVantageURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		location: time.UTC,
		closeAt:  defaultMarketClose,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	WithRateLimit(DefaultAlphaVantageLimit)(c)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

type APIError struct {
	StatusCode int
	Message    string
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alpha vantage error for %s: %s (status: %d)", e.Symbol, e.Message, e.StatusCode)
}

type alphaVantageQuoteResult struct {
	GlobalQuote struct {
		Symbol           string `json:"symbol"`
		Open             string `json:"open"`
		High             string `json:"high"`
		Low              string `json:"low"`
		Price            string `json:"price"`
		Volume           string `json:"volume"`
		LatestTradingDay string `json:"latest trading day"`
		PreviousClose    string `json:"previous close"`
		Change           string `json:"change"`
		ChangePercent    string `json:"change percent"`
	} `json:"Global Quote"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

// GetPrice fetches the GLOBAL_QUOTE for symbol. The quote's price doubles
// as the closing price once its trading day is over.
func (c *AlphaVantageClient) GetPrice(ctx context.Context, symbol string) (*domain.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, folio_errors.PriceUnavailableError{Symbol: symbol, Err: err}
	}
	defer response.Body.Close()

	responseBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, folio_errors.PriceUnavailableError{Symbol: symbol, Err: err}
	}
	if response.StatusCode != http.StatusOK {
		return nil, folio_errors.PriceUnavailableError{
			Symbol: symbol,
			Err: &APIError{
				StatusCode: response.StatusCode,
				Message:    string(responseBytes),
				Symbol:     symbol,
			},
		}
	}

	// API uses odd format which includes numbers in JSON keys
	var responseJson alphaVantageQuoteResult
	if err := json.Unmarshal(cleanResponseBody(responseBytes), &responseJson); err != nil {
		return nil, folio_errors.PriceUnavailableError{Symbol: symbol, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if responseJson.Note != "" || strings.Contains(responseJson.Information, "rate limit") {
		c.log.Warn().Str("symbol", symbol).Msg("alpha vantage rate limit hit")
		return nil, folio_errors.PriceUnavailableError{Symbol: symbol, Err: ErrRateLimited}
	}
	if responseJson.GlobalQuote.Price == "" {
		return nil, folio_errors.NotFoundError{Entity: "quote", ID: symbol}
	}

	price, err := decimal.NewFromString(responseJson.GlobalQuote.Price)
	if err != nil {
		return nil, folio_errors.PriceUnavailableError{Symbol: symbol, Err: fmt.Errorf("could not parse price %q: %w", responseJson.GlobalQuote.Price, err)}
	}
	latestTradingDay, err := time.ParseInLocation("2006-01-02", responseJson.GlobalQuote.LatestTradingDay, c.location)
	if err != nil {
		return nil, folio_errors.PriceUnavailableError{Symbol: symbol, Err: fmt.Errorf("could not parse latest trading day from Alpha Vantage response: %w", err)}
	}

	quote := &domain.Quote{
		Symbol:       responseJson.GlobalQuote.Symbol,
		CurrentPrice: price,
		AsOf:         latestTradingDay,
	}
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}
	if c.isClosed(latestTradingDay) {
		closing := price
		quote.ClosingPrice = &closing
	}

	return quote, nil
}

func (c *AlphaVantageClient) isClosed(tradingDay time.Time) bool {
	now := c.now().In(c.location)
	today := domain.DateOnly(now, c.location)
	day := domain.DateOnly(tradingDay, c.location)
	if day.Before(today) {
		return true
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.location)
	return day.Equal(today) && !now.Before(midnight.Add(c.closeAt))
}

var responseKeyPrefix = regexp.MustCompile("\"[0-9]+\\. ")

func cleanResponseBody(bytes []byte) []byte {
	return responseKeyPrefix.ReplaceAll(bytes, []byte("\""))
}
