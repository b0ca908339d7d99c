package phonofix

import "log/slog"

// Build-time resource bounds. Exceeding one returns ErrResourceLimit from
// corrector construction (protected terms) or Correct (input length).
const (
	// DefaultMaxInputRunes caps the length of a single Correct input.
	DefaultMaxInputRunes = 10_000

	// DefaultMaxProtectedTerms caps the protected-term set per corrector.
	DefaultMaxProtectedTerms = 1_000
)

// CorrectorConfig is the resolved build-time configuration shared by every
// language corrector. Engines construct one with NewCorrectorConfig; callers
// interact through CorrectorOption values only.
type CorrectorConfig struct {
	// ProtectedTerms are surface substrings that must never be rewritten.
	// Overlapping occurrences merge into one protected interval.
	ProtectedTerms []string

	// FailPolicy controls whether backend and build failures propagate or
	// degrade. Mode, when set, overrides it.
	FailPolicy FailPolicy

	// Mode selects the diagnostic level. ModeEvaluation additionally emits
	// warning events for rejected near-miss candidates.
	Mode Mode

	// Observers receive every event emitted during Correct calls.
	Observers []Observer

	// Silent suppresses the corrector's own logging for all calls. Events
	// still reach observers.
	Silent bool

	// SurfaceVariants enables generated fuzzy variants as search targets
	// in addition to user-supplied aliases. On by default.
	SurfaceVariants bool

	// MaxInputRunes bounds Correct input length. Zero means
	// DefaultMaxInputRunes.
	MaxInputRunes int

	// MaxProtectedTerms bounds the protected-term set. Zero means
	// DefaultMaxProtectedTerms.
	MaxProtectedTerms int

	// Logger receives build and correction logs. Nil means slog.Default.
	Logger *slog.Logger
}

// CorrectorOption adjusts corrector construction.
type CorrectorOption func(*CorrectorConfig)

// WithProtectedTerms declares surface substrings that no rewrite may touch.
func WithProtectedTerms(terms ...string) CorrectorOption {
	return func(c *CorrectorConfig) {
		c.ProtectedTerms = append(c.ProtectedTerms, terms...)
	}
}

// WithFailPolicy sets how backend and build failures propagate. A mode set
// with WithMode takes precedence.
func WithFailPolicy(p FailPolicy) CorrectorOption {
	return func(c *CorrectorConfig) {
		c.FailPolicy = p
	}
}

// WithMode sets the diagnostic mode. ModeEvaluation forces FailRaise and
// emits warning events for rejected near-misses; ModeProduction forces
// FailDegrade and emits corrections and errors only.
func WithMode(m Mode) CorrectorOption {
	return func(c *CorrectorConfig) {
		c.Mode = m
	}
}

// WithObserver registers an event callback. Observers run on the calling
// goroutine and must not block.
func WithObserver(obs Observer) CorrectorOption {
	return func(c *CorrectorConfig) {
		if obs != nil {
			c.Observers = append(c.Observers, obs)
		}
	}
}

// WithCorrectorSilent suppresses the corrector's logging for every call.
func WithCorrectorSilent() CorrectorOption {
	return func(c *CorrectorConfig) {
		c.Silent = true
	}
}

// WithoutSurfaceVariants restricts search targets to canonicals and
// user-supplied aliases, skipping fuzzy variant generation. Useful when a
// dictionary is large and aliases already cover the confusion space.
func WithoutSurfaceVariants() CorrectorOption {
	return func(c *CorrectorConfig) {
		c.SurfaceVariants = false
	}
}

// WithMaxInputRunes overrides the per-call input length bound.
func WithMaxInputRunes(n int) CorrectorOption {
	return func(c *CorrectorConfig) {
		c.MaxInputRunes = n
	}
}

// WithLogger directs the corrector's build and correction logs to logger.
func WithLogger(logger *slog.Logger) CorrectorOption {
	return func(c *CorrectorConfig) {
		c.Logger = logger
	}
}

// NewCorrectorConfig resolves opts against defaults and applies the mode's
// fail-policy override.
func NewCorrectorConfig(opts ...CorrectorOption) CorrectorConfig {
	cfg := CorrectorConfig{
		FailPolicy:        FailDegrade,
		SurfaceVariants:   true,
		MaxInputRunes:     DefaultMaxInputRunes,
		MaxProtectedTerms: DefaultMaxProtectedTerms,
	}
	for _, o := range opts {
		o(&cfg)
	}
	cfg.FailPolicy = cfg.Mode.Apply(cfg.FailPolicy)
	if cfg.MaxInputRunes <= 0 {
		cfg.MaxInputRunes = DefaultMaxInputRunes
	}
	if cfg.MaxProtectedTerms <= 0 {
		cfg.MaxProtectedTerms = DefaultMaxProtectedTerms
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}
