package ssh

import (
	"errors"
	"net"
	"strings"
)

// IsConnectionRefused reports whether err indicates the remote port
// rejected the TCP connection outright (nobody listening, or a
// firewall actively refusing). The dispatcher's dial-error
// classification uses it, together with IsDNSError and IsTimeout, to
// report such a failure as unreachable rather than as a handshake
// failure.
func IsConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return strings.Contains(opErr.Err.Error(), "connection refused")
	}
	return strings.Contains(err.Error(), "connection refused")
}

// IsDNSError reports whether err is a hostname resolution failure.
func IsDNSError(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return strings.Contains(err.Error(), "no such host") || strings.Contains(err.Error(), "lookup")
}

// IsTimeout reports whether err is a network timeout, as opposed to a
// definitive refusal or resolution failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
