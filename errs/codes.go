package errs

import "errors"

// Code names the domain-level failure taxonomy used throughout the
// simulator, distinct from ErrLevel (which only says how severe a
// failure is, not what kind it is).
type Code string

const (
	// CodeConfigInvalid marks a configuration record that failed
	// validation (out-of-range field, missing required strategy preset).
	CodeConfigInvalid Code = "CONFIG_INVALID"
	// CodeBetInvalid marks a bet decision that violates the game's
	// constraints (multiplier out of [1.01,99.0], bet below minimum,
	// bet exceeding current balance).
	CodeBetInvalid Code = "BET_INVALID"
	// CodeOracleExhausted marks an HMAC digest from which no roll can be
	// extracted: a 5-hex-char window fails to parse, or no window falls
	// under the valid-number ceiling.
	CodeOracleExhausted Code = "ORACLE_EXHAUSTED"
	// CodeStateCorrupt marks an internal invariant violation detected
	// at runtime: negative balance, inconsistent streak counters, a
	// checkpoint that fails to round-trip.
	CodeStateCorrupt Code = "STATE_CORRUPT"
	// CodeSinkIO marks a failure writing to a JSONL/summary sink or a
	// checkpoint file.
	CodeSinkIO Code = "SINK_IO"
	// CodeCancelled marks a run stopped by context cancellation rather
	// than by a natural stop condition.
	CodeCancelled Code = "CANCELLED"
)

// C is an *E carrying a Code, layered on top of the leveled error type
// so callers can branch on Code with errors.As while still getting the
// Fatal/Warn/Log severity plumbing for free.
type C struct {
	*E
	Code Code
}

func (c *C) Unwrap() error { return c.E }

func newCode(code Code, lv ErrLevel, msg string) *C {
	return &C{E: New(lv, msg), Code: code}
}

func ConfigInvalid(msg string) *C  { return newCode(CodeConfigInvalid, Fatal, msg) }
func BetInvalid(msg string) *C     { return newCode(CodeBetInvalid, Warn, msg) }
func OracleExhausted(msg string) *C { return newCode(CodeOracleExhausted, Fatal, msg) }
func StateCorrupt(msg string) *C   { return newCode(CodeStateCorrupt, Fatal, msg) }
func SinkIO(msg string) *C         { return newCode(CodeSinkIO, Warn, msg) }
func Cancelled(msg string) *C      { return newCode(CodeCancelled, Log, msg) }

// WrapCode tags an existing cause with a Code while keeping its
// underlying ErrLevel via Wrap's existing promotion rules.
func WrapCode(code Code, cause error, msg string) *C {
	e := Wrap(cause, msg)
	return &C{E: e, Code: code}
}

// CodeOf extracts the Code from err, if any *C is present in its chain.
func CodeOf(err error) (Code, bool) {
	var c *C
	if errors.As(err, &c) {
		return c.Code, true
	}
	return "", false
}
