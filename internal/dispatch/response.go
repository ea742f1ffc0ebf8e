package dispatch

import (
	"encoding/json"
	"time"
)

// Response is the record emitted per host. Result holds the
// concatenated stdout on success, or a human-readable error message
// on failure — failure messages embed a bracketed numeric code (see
// errcode.go) so downstream consumers can classify failures without
// parsing free text.
type Response struct {
	Hostname    string
	Result      string
	ProcessTime time.Duration
	Status      bool
}

// responseJSON mirrors Response for wire encoding. ProcessTime is
// rendered in whole milliseconds: sub-millisecond precision carries
// no operational meaning for an SSH round trip, and millisecond ints
// are what every downstream NDJSON consumer in this ecosystem expects
// rather than a duration string or a float of seconds.
type responseJSON struct {
	Hostname    string `json:"hostname"`
	Result      string `json:"result"`
	ProcessTime int64  `json:"process_time"`
	Status      bool   `json:"status"`
}

// MarshalJSON implements json.Marshaler.
func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(responseJSON{
		Hostname:    r.Hostname,
		Result:      r.Result,
		ProcessTime: r.ProcessTime.Milliseconds(),
		Status:      r.Status,
	})
}

// UnmarshalJSON implements json.Unmarshaler, for collaborators that
// round-trip previously-saved Responses (e.g. resuming an incremental
// save file).
func (r *Response) UnmarshalJSON(data []byte) error {
	var aux responseJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Hostname = aux.Hostname
	r.Result = aux.Result
	r.ProcessTime = time.Duration(aux.ProcessTime) * time.Millisecond
	r.Status = aux.Status
	return nil
}
