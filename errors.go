package phonofix

import "errors"

// Error sentinels for the four failure kinds surfaced by engines and
// correctors. Wrapped errors carry call-site context; match with errors.Is.
var (
	// ErrInvalidInput reports a malformed term dictionary: an empty
	// canonical, an empty alias, a weight outside [0, 1], or a negative
	// variant cap. Returned by corrector construction, never by Correct.
	ErrInvalidInput = errors.New("phonofix: invalid input")

	// ErrBackendUnavailable reports that a language's external phonetic
	// engine is missing or mis-configured. The wrapped message carries an
	// install hint. Under FailDegrade the corrector is built as a
	// pass-through instead and every call emits a degraded event.
	ErrBackendUnavailable = errors.New("phonofix: phonetic backend unavailable")

	// ErrFuzzy reports a transient phonetic conversion failure on a
	// sub-span. It is always recovered inside Correct: the affected window
	// is treated as non-matching and a fuzzy_error event is emitted.
	ErrFuzzy = errors.New("phonofix: fuzzy conversion failed")

	// ErrResourceLimit reports that a configured bound was exceeded: the
	// protected-term set, the variant set, or the input length cap.
	ErrResourceLimit = errors.New("phonofix: resource limit exceeded")
)
