// Package snapshot fetches and decodes the dashboard metrics payload served by
// the backend API. A Snapshot lives for exactly one refresh cycle.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/zeebo/xxh3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot is one decoded metrics payload.
//
// Scalars are pointers so an absent or null field stays distinguishable from an
// explicit zero. Label arrays are pointers for the same reason: a nil pointer
// means the bucket group is missing, while an empty slice is a group with no
// buckets. Bucket arrays arrive newest-first.
type Snapshot struct {
	TotalAlerts      *int64 `json:"total_alerts"`
	TotalRules       *int64 `json:"total_rules"`
	TotalIPWhitelist *int64 `json:"total_ip_whitelist"`
	TotalIPBlocklist *int64 `json:"total_ip_blocklist"`

	HourLabels *[]string `json:"alert_hour_labels"`
	HourAlert  []int64   `json:"alert_hour_alert"`
	HourDrop   []int64   `json:"alert_hour_drop"`

	WeekLabels *[]string `json:"alert_week_labels"`
	WeekAlert  []int64   `json:"alert_week_alert"`
	WeekDrop   []int64   `json:"alert_week_drop"`

	// Digest is the xxh3 hash of the trimmed response body.
	Digest    uint64    `json:"-"`
	Bytes     int       `json:"-"`
	FetchedAt time.Time `json:"-"`
}

// Value returns the scalar behind p, or 0 when the field was absent or null.
func Value(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// Labels dereferences a label array pointer and reports whether it was present.
func Labels(p *[]string) ([]string, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}

// Decode parses a response body into a Snapshot. The top-level value must be a
// JSON object; anything else is rejected before field decoding.
func Decode(body []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("expected a JSON object, body starts with %q", trimmed[0])
	}
	var snap Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	snap.Digest = xxh3.Hash(trimmed)
	snap.Bytes = len(body)
	return &snap, nil
}
