package domain

// VerdictKind records how a verdict was reached
type VerdictKind int

const (
	// VerdictSafe means the content passed classification
	VerdictSafe VerdictKind = iota
	// VerdictUnsafe means an explicit unsafe marker or keyword matched
	VerdictUnsafe
	// VerdictFormatFallback means the backend reply was ambiguous and treated as unsafe
	VerdictFormatFallback
)

// String returns the kind name used in logs and metrics labels
func (k VerdictKind) String() string {
	switch k {
	case VerdictSafe:
		return "safe"
	case VerdictUnsafe:
		return "unsafe"
	case VerdictFormatFallback:
		return "format_fallback"
	default:
		return "unknown"
	}
}

// Verdict is the result of a single classification call.
// Reason is always empty for safe verdicts.
type Verdict struct {
	Safe   bool
	Reason string
	Kind   VerdictKind
}

// SafeVerdict returns a safe verdict
func SafeVerdict() Verdict {
	return Verdict{Safe: true, Kind: VerdictSafe}
}

// UnsafeVerdict returns an affirmative unsafe verdict
func UnsafeVerdict(reason string) Verdict {
	return Verdict{Safe: false, Reason: reason, Kind: VerdictUnsafe}
}

// FallbackVerdict returns an unsafe verdict caused by an unrecognized reply format
func FallbackVerdict(reason string) Verdict {
	return Verdict{Safe: false, Reason: reason, Kind: VerdictFormatFallback}
}

// WithReason returns a copy with a different reason. Safe verdicts are returned unchanged.
func (v Verdict) WithReason(reason string) Verdict {
	if v.Safe {
		return v
	}
	v.Reason = reason
	return v
}
