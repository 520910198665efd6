package fxrates

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

const ratesRequestTimeout = 5 * time.Second

type httpProvider struct {
	baseURL string
	client  *http.Client
}

type rateResponse struct {
	Base  string  `json:"base"`
	Quote string  `json:"quote"`
	Rate  float64 `json:"rate"`
}

type historyResponse struct {
	Points []Point `json:"points"`
}

func NewHTTPProvider(baseURL string, client *http.Client) Provider {
	if client == nil {
		client = &http.Client{Timeout: ratesRequestTimeout}
	}
	return &httpProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (p *httpProvider) Rate(ctx context.Context, base, quote string) (float64, error) {
	base, quote, err := normalizePair(base, quote)
	if err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/rates/%s/%s", p.baseURL, url.PathEscape(base), url.PathEscape(quote))
	var payload rateResponse
	if err := p.getJSON(ctx, endpoint, &payload); err != nil {
		return 0, err
	}
	if payload.Rate <= 0 {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnknownPair, base, quote)
	}
	return payload.Rate, nil
}

func (p *httpProvider) History(ctx context.Context, query HistoryQuery) ([]Point, error) {
	query, err := query.normalize()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("base", query.Base)
	params.Set("quote", query.Quote)
	params.Set("from", query.From.Format(dateLayout))
	params.Set("to", query.To.Format(dateLayout))

	var payload historyResponse
	if err := p.getJSON(ctx, p.baseURL+"/history?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	return payload.Points, nil
}

func (p *httpProvider) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrUnknownPair
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("rates api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
