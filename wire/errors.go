package wire

import "fmt"

// ProtocolError reports a malformed-wire-bytes failure together with the
// byte offset (relative to the start of the field being decoded) at which
// it was detected, per spec.md §4.1's decode-failure rule and §7's
// "stable textual representation including the offending ... offset"
// requirement.
type ProtocolError struct {
	Offset int64
	Msg    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("wire: protocol error at offset %d: %s", e.Offset, e.Msg)
}

func newProtocolError(offset int64, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
