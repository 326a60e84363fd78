package visit

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// KeyPrefix is the prefix shared by every stored visit record key.
const KeyPrefix = "chronicle_last_seen_info_"

// Record is what a visitor last saw of one table. Both fields are optional
// when read back: older or hand-edited values may lack either one.
type Record struct {
	Version   *int64 `json:"version,omitempty"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

// UnmarshalJSON accepts any JSON number for either field. Fractional values
// are truncated toward zero.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		Version   *json.Number `json:"version"`
		Timestamp *json.Number `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	version, err := numberToInt(raw.Version)
	if err != nil {
		return fmt.Errorf("version: %w", err)
	}
	timestamp, err := numberToInt(raw.Timestamp)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	r.Version, r.Timestamp = version, timestamp
	return nil
}

func numberToInt(n *json.Number) (*int64, error) {
	if n == nil {
		return nil, nil
	}
	if v, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return &v, nil
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("%s out of range", n)
	}
	v := int64(f)
	return &v, nil
}

// NewRecord builds a complete record.
func NewRecord(version, timestampMs int64) Record {
	return Record{Version: &version, Timestamp: &timestampMs}
}

// Inputs holds the values injected into a table page. A nil field was not
// injected.
type Inputs struct {
	MaxVersion   *int64
	DatabaseName *string
	TableName    *string
}

// Merge returns in with every nil field filled from fallback.
func (in Inputs) Merge(fallback Inputs) Inputs {
	if in.MaxVersion == nil {
		in.MaxVersion = fallback.MaxVersion
	}
	if in.DatabaseName == nil {
		in.DatabaseName = fallback.DatabaseName
	}
	if in.TableName == nil {
		in.TableName = fallback.TableName
	}
	return in
}

// PageContext is the validated, read-only view of Inputs for one run.
type PageContext struct {
	MaxVersion   int64
	DatabaseName string
	TableName    string
}

// Key returns the storage key for this page's table.
func (c PageContext) Key() string {
	return ScopeKey(c.DatabaseName, c.TableName)
}

// ScopeKey derives the storage key for a database/table pair.
func ScopeKey(database, table string) string {
	return fmt.Sprintf("%s%s_%s", KeyPrefix, database, table)
}
