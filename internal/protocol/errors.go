// internal/protocol/errors.go
package protocol

import (
	"errors"
	"fmt"
)

// Error codes published by the bridge status block (see status.SlotLastErrorCode).
// Device status values are folded into their family range.
const (
	CodeGeneric      uint16 = 0x0001
	CodeValidation   uint16 = 0x0100
	CodeFrame        uint16 = 0x0200 // + FrameErrorKind
	CodeTransport    uint16 = 0x0300
	CodeTimeout      uint16 = 0x0301
	CodeCapability   uint16 = 0x0400
	CodeStatusA      uint16 = 0x1000 // + status byte
	CodeStatusB      uint16 = 0x2000 // + status byte
	CodeTagOperation uint16 = 0x3000 // + tag status byte
)

// ---- validation ----

// ValidationError reports an out-of-range field, raised before any I/O.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Code() uint16 { return CodeValidation }

// Invalid builds a ValidationError.
func Invalid(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ---- frame ----

type FrameErrorKind uint8

const (
	ShortRead FrameErrorKind = iota + 1
	UnexpectedHeader
	UnknownOpcode
	ChecksumMismatch
)

func (k FrameErrorKind) String() string {
	switch k {
	case ShortRead:
		return "short read"
	case UnexpectedHeader:
		return "unexpected header"
	case UnknownOpcode:
		return "unknown opcode"
	case ChecksumMismatch:
		return "checksum mismatch"
	default:
		return fmt.Sprintf("frame error %d", uint8(k))
	}
}

// FrameError is raised while decoding an on-wire frame.
type FrameError struct {
	Kind   FrameErrorKind
	Family Family
	Detail string
}

func (e *FrameError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("frame %s: %s", e.Family, e.Kind)
	}
	return fmt.Sprintf("frame %s: %s: %s", e.Family, e.Kind, e.Detail)
}

func (e *FrameError) Code() uint16 { return CodeFrame + uint16(e.Kind) }

// Is matches another *FrameError of the same kind, so callers can write
// errors.Is(err, &FrameError{Kind: ChecksumMismatch}).
func (e *FrameError) Is(target error) bool {
	t, ok := target.(*FrameError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func frameErr(f Family, kind FrameErrorKind, format string, args ...any) *FrameError {
	return &FrameError{Kind: kind, Family: f, Detail: fmt.Sprintf(format, args...)}
}

// IsFrameError reports whether err wraps a FrameError of the given kind.
func IsFrameError(err error, kind FrameErrorKind) bool {
	var fe *FrameError
	return errors.As(err, &fe) && fe.Kind == kind
}

// ---- device status ----

// StatusError is a decoded frame carrying a non-success status.
type StatusError struct {
	Family Family
	Opcode Opcode
	Status uint8
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %s %s: %s (0x%02X)", e.Family, e.Family.OpcodeName(e.Opcode), e.Family.StatusName(e.Status), e.Status)
}

func (e *StatusError) Code() uint16 {
	if e.Family == FamilyA {
		return CodeStatusA + uint16(e.Status)
	}
	return CodeStatusB + uint16(e.Status)
}

// TagOperationError is a per-tag status inside a batch tag-operation reply.
type TagOperationError struct {
	Op        string
	EPC       []byte
	TagStatus TagStatus
}

func (e *TagOperationError) Error() string {
	return fmt.Sprintf("tag %s %X: %s", e.Op, e.EPC, e.TagStatus)
}

func (e *TagOperationError) Code() uint16 { return CodeTagOperation + uint16(e.TagStatus) }

// ---- transport ----

// TransportError is an I/O failure or timeout. N is the number of bytes
// delivered before the failure on reads.
type TransportError struct {
	Op       string
	N        int
	TimedOut bool
	Err      error
}

func (e *TransportError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("transport %s: timeout after %d bytes: %v", e.Op, e.N, e.Err)
	}
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Timeout() bool { return e.TimedOut }

func (e *TransportError) Code() uint16 {
	if e.TimedOut {
		return CodeTimeout
	}
	return CodeTransport
}

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.TimedOut
}

// ---- capability ----

// CapabilityError is returned by operations the connected reader does not support.
type CapabilityError struct {
	Feature string
	Series  string
}

func (e *CapabilityError) Error() string {
	if e.Series == "" {
		return fmt.Sprintf("capability: %s: reader capability unknown", e.Feature)
	}
	return fmt.Sprintf("capability: %s not supported by %s", e.Feature, e.Series)
}

func (e *CapabilityError) Code() uint16 { return CodeCapability }

// ---- codes ----

type coder interface{ Code() uint16 }

// ErrorCode maps err to its status-block code: 0 for nil, CodeGeneric for
// errors outside this taxonomy.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return CodeGeneric
}
