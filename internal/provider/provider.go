package provider

import (
	"context"
	"errors"
	"fmt"
)

// AssetID identifies a coin as the upstream knows it, e.g. "bitcoin".
type AssetID = string

// PriceRecord is one coin entry of an upstream price response.
// Change24h and LastUpdatedAt are optional upstream and stay nil when absent.
type PriceRecord struct {
	USD           float64  `json:"usd"`
	Change24h     *float64 `json:"usd_24h_change"`
	LastUpdatedAt *uint64  `json:"last_updated_at"`
}

// Snapshot maps asset id to its price record for a single fetch.
// Requested ids the upstream does not know are simply missing.
type Snapshot map[AssetID]PriceRecord

type Provider interface {
	Name() string
	Fetch(ctx context.Context, ids []AssetID) (Snapshot, error)
}

var (
	// ErrUpstream is wrapped by every fetch failure caused by the upstream.
	ErrUpstream = errors.New("upstream price fetch failed")
	// ErrNoAssets is returned when a fetch is attempted without ids.
	ErrNoAssets = errors.New("no asset ids requested")
)

// NetworkError is a transport level failure: dial, DNS, TLS, timeout.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network: %v", e.Err) }
func (e *NetworkError) Unwrap() []error { return []error{ErrUpstream, e.Err} }

// StatusError is a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Body)
}
func (e *StatusError) Unwrap() error { return ErrUpstream }

// DecodeError means the upstream body was not the expected JSON document.
// Body keeps the raw payload for server-side diagnosis only.
type DecodeError struct {
	Err  error
	Body []byte
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decoding price response: %v", e.Err) }
func (e *DecodeError) Unwrap() []error { return []error{ErrUpstream, e.Err} }

// Outcome classifies a fetch error for logs and metrics.
func Outcome(err error) string {
	var (
		netErr    *NetworkError
		statusErr *StatusError
		decodeErr *DecodeError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &statusErr):
		return "status"
	case errors.As(err, &decodeErr):
		return "decode"
	default:
		return "error"
	}
}
