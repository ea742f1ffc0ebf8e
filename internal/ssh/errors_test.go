package ssh

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestIsConnectionRefused(t *testing.T) {
	// Dialing a closed local port yields a real "connection refused".
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	var d net.Dialer
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, dialErr := d.DialContext(ctx, "tcp", addr)
	if dialErr == nil {
		t.Fatal("expected dial to a closed port to fail")
	}
	if !IsConnectionRefused(dialErr) {
		t.Fatalf("IsConnectionRefused(%v) = false, want true", dialErr)
	}
	if IsDNSError(dialErr) {
		t.Fatalf("IsDNSError(%v) = true, want false", dialErr)
	}
}

func TestIsDNSError(t *testing.T) {
	var d net.Dialer
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := d.DialContext(ctx, "tcp", "this-host-does-not-exist.invalid:22")
	if err == nil {
		t.Fatal("expected dial to an invalid hostname to fail")
	}
	if !IsDNSError(err) {
		t.Fatalf("IsDNSError(%v) = false, want true", err)
	}
}

func TestIsTimeout(t *testing.T) {
	// 198.51.100.0/24 is TEST-NET-2, reserved for documentation; it's
	// reliably unrouted in CI so the dial blocks until our own timeout.
	var d net.Dialer
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := d.DialContext(ctx, "tcp", "198.51.100.1:22")
	if err == nil {
		t.Fatal("expected dial to a black-holed address to fail")
	}
	if !IsTimeout(err) {
		t.Fatalf("IsTimeout(%v) = false, want true", err)
	}
}

func TestIsConnectionRefusedNil(t *testing.T) {
	if IsConnectionRefused(nil) {
		t.Fatal("IsConnectionRefused(nil) = true, want false")
	}
	if IsDNSError(nil) {
		t.Fatal("IsDNSError(nil) = true, want false")
	}
	if IsTimeout(nil) {
		t.Fatal("IsTimeout(nil) = true, want false")
	}
}
