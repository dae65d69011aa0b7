package dataprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Reusable HTTP client for better performance
var quoteHTTPClient = &http.Client{
	Timeout: 10 * time.Second,
}

// YahooService resolves symbols against the Yahoo Finance quote API
type YahooService struct {
	baseURL string
}

func NewYahooService(baseURL string) *YahooService {
	return &YahooService{baseURL: strings.TrimRight(baseURL, "/")}
}

// Ensure YahooService implements the Service interface
var _ Service = (*YahooService)(nil)

type quoteResult struct {
	Symbol    string `json:"symbol"`
	Currency  string `json:"currency"`
	LongName  string `json:"longName"`
	ShortName string `json:"shortName"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
	} `json:"quoteResponse"`
}

// Lookup queries the quote endpoint for all items in a single request and
// returns profiles keyed by symbol. Symbols the API does not know are left
// out of the result.
func (y *YahooService) Lookup(ctx context.Context, items []Item) (map[string]Profile, error) {
	profiles := make(map[string]Profile, len(items))
	if len(items) == 0 {
		return profiles, nil
	}

	symbols := make([]string, 0, len(items))
	sources := make(map[string]string, len(items))
	for _, item := range items {
		symbols = append(symbols, item.Symbol)
		sources[item.Symbol] = item.DataSource
	}

	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s",
		y.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}

	resp, err := quoteHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach quote endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}

	var parsed quoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}

	for _, result := range parsed.QuoteResponse.Result {
		source, requested := sources[result.Symbol]
		if !requested {
			continue
		}

		name := result.LongName
		if name == "" {
			name = result.ShortName
		}

		profiles[result.Symbol] = Profile{
			Symbol:     result.Symbol,
			DataSource: source,
			Currency:   result.Currency,
			Name:       name,
		}
	}

	return profiles, nil
}
