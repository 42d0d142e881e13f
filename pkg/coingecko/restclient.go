package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const simplePricePath = "/api/v3/simple/price"

// ErrQuoteUnavailable wraps every failure to obtain a usable quote.
var ErrQuoteUnavailable = errors.New("quote unavailable")

type RESTClient struct {
	baseURL    string
	vsCurrency string
	httpClient *http.Client
}

// Option configures a RESTClient.
type Option func(*RESTClient)

// WithVsCurrency sets the quote currency (default "usd").
func WithVsCurrency(currency string) Option {
	return func(c *RESTClient) {
		c.vsCurrency = currency
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *RESTClient) {
		c.httpClient = hc
	}
}

func NewRESTClient(baseURL string, timeout time.Duration, opts ...Option) *RESTClient {
	c := &RESTClient{
		baseURL:    baseURL,
		vsCurrency: "usd",
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote returns the price of coinID in the client's quote currency.
func (c *RESTClient) Quote(ctx context.Context, coinID string) (decimal.Decimal, error) {
	return c.GetSimplePrice(ctx, coinID, c.vsCurrency)
}

// GetSimplePrice fetches a single coin price. Any non-200 status, transport
// or decode error, missing field or non-positive price is reported as
// ErrQuoteUnavailable.
func (c *RESTClient) GetSimplePrice(ctx context.Context, coinID, vsCurrency string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", coinID)
	q.Set("vs_currencies", vsCurrency)
	endpoint := c.baseURL + simplePricePath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: creating request: %v", ErrQuoteUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: making request: %v", ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return decimal.Zero, fmt.Errorf("%w: coingecko status %d: %s", ErrQuoteUnavailable, resp.StatusCode, errorMessage(body))
	}

	var prices SimplePriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode response: %v", ErrQuoteUnavailable, err)
	}

	price, ok := prices[coinID][vsCurrency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no %s price for %s", ErrQuoteUnavailable, vsCurrency, coinID)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive price %s for %s", ErrQuoteUnavailable, price, coinID)
	}
	return price, nil
}

func errorMessage(body []byte) string {
	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Status.ErrorMessage != "" {
			return e.Status.ErrorMessage
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return string(body)
}
