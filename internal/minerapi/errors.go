package minerapi

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// ConnectionError reports a failed connect, write, or read against the daemon.
type ConnectionError struct {
	Host string
	Port int
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to miner at %s: %v", net.JoinHostPort(e.Host, strconv.Itoa(e.Port)), e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError reports that no reply arrived within the configured window.
type TimeoutError struct {
	Host string
	Port int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for miner at %s", net.JoinHostPort(e.Host, strconv.Itoa(e.Port)))
}

// Timeout lets callers treat the error like any net.Error timeout.
func (e *TimeoutError) Timeout() bool { return true }

// CodecErrorKind classifies reply decoding failures.
type CodecErrorKind int

const (
	InvalidJSON CodecErrorKind = iota + 1
	MissingStatus
	MissingSection
	InvalidSection
)

func (k CodecErrorKind) String() string {
	switch k {
	case InvalidJSON:
		return "invalid json"
	case MissingStatus:
		return "missing STATUS"
	case MissingSection:
		return "missing section"
	case InvalidSection:
		return "invalid section"
	default:
		return "unknown codec error"
	}
}

var (
	ErrInvalidJSON    = errors.New("invalid json")
	ErrMissingStatus  = errors.New("missing STATUS")
	ErrMissingSection = errors.New("missing section")
	ErrInvalidSection = errors.New("invalid section")
)

// CodecError reports a reply that is malformed or structurally unexpected.
type CodecError struct {
	Kind    CodecErrorKind
	Section string
	Err     error
}

func (e *CodecError) Error() string {
	msg := "decode reply: " + e.Kind.String()
	if e.Section != "" {
		msg += " " + strconv.Quote(e.Section)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CodecError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *CodecError) Is(target error) bool {
	switch target {
	case ErrInvalidJSON:
		return e.Kind == InvalidJSON
	case ErrMissingStatus:
		return e.Kind == MissingStatus
	case ErrMissingSection:
		return e.Kind == MissingSection
	case ErrInvalidSection:
		return e.Kind == InvalidSection
	default:
		return false
	}
}
