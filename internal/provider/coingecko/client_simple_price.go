package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"coinpulse/internal/provider"
)

const (
	vsCurrency = "usd"
	// maxErrorBody caps how much of a failed response ends up in a StatusError.
	maxErrorBody = 2 << 10
)

// simplePriceRecord mirrors provider.PriceRecord with a nullable price so
// a record without "usd" can be told apart from a zero price.
type simplePriceRecord struct {
	USD           *float64 `json:"usd"`
	Change24h     *float64 `json:"usd_24h_change"`
	LastUpdatedAt *uint64  `json:"last_updated_at"`
}

// SimplePrice retrieves USD prices, 24h change and last update time for ids
// with a single call to /api/v3/simple/price.
func (c *Client) SimplePrice(ctx context.Context, ids []provider.AssetID) (provider.Snapshot, error) {
	if len(ids) == 0 {
		return nil, provider.ErrNoAssets
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.simplePriceURL(ids), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &provider.NetworkError{Err: fmt.Errorf("performing request: %w", err)}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &provider.NetworkError{Err: fmt.Errorf("reading response: %w", err)}
	}
	if c.logBody {
		c.log.Debug("coingecko response",
			zap.Int("status", res.StatusCode),
			zap.ByteString("body", body),
		)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &provider.StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	snapshot, err := decodeSimplePrice(body)
	if err != nil {
		return nil, &provider.DecodeError{Err: err, Body: body}
	}
	return snapshot, nil
}

// Fetch implements provider.Provider.
func (c *Client) Fetch(ctx context.Context, ids []provider.AssetID) (provider.Snapshot, error) {
	return c.SimplePrice(ctx, ids)
}

// simplePriceURL keeps the ids comma-joined and in request order; only the
// individual ids are escaped.
func (c *Client) simplePriceURL(ids []provider.AssetID) string {
	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = url.QueryEscape(id)
	}

	query := maps.Clone(c.query)
	query.Set("vs_currencies", vsCurrency)
	query.Set("include_24hr_change", "true")
	query.Set("include_last_updated_at", "true")

	return fmt.Sprintf("%s/api/v3/simple/price?ids=%s&%s", c.baseURL, strings.Join(escaped, ","), query.Encode())
}

func decodeSimplePrice(body []byte) (provider.Snapshot, error) {
	var raw map[string]simplePriceRecord
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("response is not an object")
	}

	snapshot := make(provider.Snapshot, len(raw))
	for id, rec := range raw {
		if rec.USD == nil {
			return nil, fmt.Errorf("%s: missing usd price", id)
		}
		snapshot[id] = provider.PriceRecord{
			USD:           *rec.USD,
			Change24h:     rec.Change24h,
			LastUpdatedAt: rec.LastUpdatedAt,
		}
	}
	return snapshot, nil
}
