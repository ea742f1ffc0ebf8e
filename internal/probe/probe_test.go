package probe

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestProbeReachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	res := Probe(context.Background(), l.Addr().String(), 500*time.Millisecond)
	if !res.Reachable {
		t.Fatalf("expected reachable, got Err=%v", res.Err)
	}
	if res.Err != nil {
		t.Fatalf("Err = %v, want nil", res.Err)
	}
}

func TestProbeUnreachable(t *testing.T) {
	res := Probe(context.Background(), "198.51.100.1:22", 50*time.Millisecond)
	if res.Reachable {
		t.Fatal("expected unreachable")
	}
	if res.Err == nil {
		t.Fatal("expected Err to be set")
	}
}

func TestRunDeliversAllResults(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	addrs := []string{l.Addr().String(), "198.51.100.2:22", l.Addr().String()}
	results := Run(context.Background(), addrs, 100*time.Millisecond)

	seen := 0
	reachableCount := 0
	for r := range results {
		seen++
		if r.Reachable {
			reachableCount++
		}
	}
	if seen != len(addrs) {
		t.Fatalf("got %d results, want %d", seen, len(addrs))
	}
	if reachableCount != 2 {
		t.Fatalf("got %d reachable, want 2", reachableCount)
	}
}

func TestNormalizeAddr(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"example.com", "example.com:22"},
		{"example.com:2222", "example.com:2222"},
		{"10.0.0.1", "10.0.0.1:22"},
	}
	for _, c := range cases {
		got, err := NormalizeAddr(c.in, 22)
		if err != nil {
			t.Fatalf("NormalizeAddr(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("NormalizeAddr(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeAddrEmpty(t *testing.T) {
	if _, err := NormalizeAddr("", 22); err == nil {
		t.Fatal("expected error for empty host")
	}
}
