package dispatch

import (
	"encoding/json"
	"testing"
	"time"
)

func TestResponseMarshalJSON(t *testing.T) {
	r := Response{
		Hostname:    "10.0.0.1:22",
		Result:      "hello\n",
		ProcessTime: 1500 * time.Millisecond,
		Status:      true,
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}
	if decoded["hostname"] != "10.0.0.1:22" {
		t.Fatalf("hostname = %v", decoded["hostname"])
	}
	if decoded["process_time"].(float64) != 1500 {
		t.Fatalf("process_time = %v, want 1500", decoded["process_time"])
	}
	if decoded["status"] != true {
		t.Fatalf("status = %v, want true", decoded["status"])
	}
}

func TestResponseRoundTrip(t *testing.T) {
	orig := Response{
		Hostname:    "example.com:22",
		Result:      "unreachable: timeout [-1]",
		ProcessTime: 200 * time.Millisecond,
		Status:      false,
	}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Response
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != orig {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, orig)
	}
}
