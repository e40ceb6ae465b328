package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// User is an account record as the service reports it. Immutable from this
// client's perspective once created.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Appointment is a time-bounded booking owned by a user. The identifier and
// the owning username are assigned service-side and never sent by the client.
type Appointment struct {
	ID       int       `json:"id"`
	Start    Timestamp `json:"startime"`
	End      Timestamp `json:"endtime"`
	Purpose  string    `json:"purpose"`
	Username string    `json:"username"`
}

// Draft carries the client-editable appointment fields. It has no identifier;
// an edit targets an existing id, a create lets the service assign one.
// The start instant must be strictly earlier than the end instant and the
// purpose must be non-empty; both are checked before any call goes out.
type Draft struct {
	Start   time.Time `validate:"required"`
	End     time.Time `validate:"required,gtfield=Start"`
	Purpose string    `validate:"required"`
}

// Timestamp exchanges instants with the service as ISO-8601 strings. The
// service emits second precision without an offset for naive datetimes, and
// browser-originated records may carry minute precision, so decoding is
// tolerant; encoding always uses RFC 3339.
type Timestamp struct {
	time.Time
}

// timestampLayouts, most specific first.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// NewTimestamp wraps t for the wire.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// MarshalJSON renders the instant as RFC 3339.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.Format(time.RFC3339))
}

// UnmarshalJSON accepts the ISO-8601 shapes the service and its other
// clients produce. Instants without an offset are taken as UTC.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			ts.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("api: timestamp %q is not ISO-8601", raw)
}
