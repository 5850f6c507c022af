// Package quote turns upstream price records into the public API shape.
package quote

import (
	"time"

	"coinpulse/internal/provider"
)

const (
	// Unknown is rendered when a record carries no usable update time.
	Unknown = "Unknown"
	// maxUnix is 9999-12-31 23:59:59 UTC, the last second with a four digit year.
	maxUnix = 253402300799
)

// FormattedQuote is the per-asset value served by /api/crypto.
type FormattedQuote struct {
	USD           float64  `json:"usd"`
	Change24h     *float64 `json:"usd_24h_change"`
	LastUpdatedAt string   `json:"last_updated_at"`
}

// FormatTimestamp renders a Unix second count as "YYYY-MM-DD HH:MM:SS" in UTC.
// Absent values and values whose year falls outside 0..9999 yield Unknown.
func FormatTimestamp(ts *uint64) string {
	if ts == nil || *ts > maxUnix {
		return Unknown
	}
	return time.Unix(int64(*ts), 0).UTC().Format(time.DateTime)
}

// Format converts every record of s. The result has exactly the keys of s.
func Format(s provider.Snapshot) map[provider.AssetID]FormattedQuote {
	out := make(map[provider.AssetID]FormattedQuote, len(s))
	for id, rec := range s {
		var change *float64
		if rec.Change24h != nil {
			v := *rec.Change24h
			change = &v
		}
		out[id] = FormattedQuote{
			USD:           rec.USD,
			Change24h:     change,
			LastUpdatedAt: FormatTimestamp(rec.LastUpdatedAt),
		}
	}
	return out
}
