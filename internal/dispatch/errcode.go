package dispatch

import "fmt"

// Bracket-coded failure categories. The numeric codes reuse libssh2's
// own error constants where this pipeline's failure has a direct
// libssh2 analogue (agent and auth failures), since existing
// downstream tooling greps Response.Result for these exact bracketed
// substrings. Categories libssh2 has no corresponding constant for
// (handshake, channel, IO, module) get codes invented for this
// pipeline but kept in the same bracketed-integer shape for
// consistency.
const (
	codeUnreachable  = -1
	codeHandshake    = -6
	codeAgent        = -42 // libssh2 LIBSSH2_ERROR_AGENT_PROTOCOL
	codeAuthRejected = -19 // libssh2 LIBSSH2_ERROR_AUTHENTICATION_FAILED
	codeChannel      = -23
	codeIO           = -25
	codeModule       = -30
)

// wrapf formats an error string embedding a bracketed numeric code,
// matching the form downstream consumers already parse: "<message>
// [<code>]".
func wrapf(code int, format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...) + fmt.Sprintf(" [%d]", code)
}

func unreachableError(err error) string {
	return wrapf(codeUnreachable, "unreachable: %v", err)
}

func handshakeError(err error) string {
	return wrapf(codeHandshake, "handshake failed: %v", err)
}

func agentError(err error) string {
	return wrapf(codeAgent, "agent connection failed: %v", err)
}

func authRejectedError(err error) string {
	return wrapf(codeAuthRejected, "authentication rejected: %v", err)
}

func channelError(err error) string {
	return wrapf(codeChannel, "channel failed: %v", err)
}

func ioError(err error) string {
	return wrapf(codeIO, "io failed: %v", err)
}

func moduleError(err error) string {
	return wrapf(codeModule, "module failed: %v", err)
}
