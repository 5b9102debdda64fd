package domain

import "fmt"

// ConfigErrorKind classifies a rejected simulation configuration.
type ConfigErrorKind int

const (
	// ProbabilitySumInvalid: outcome probabilities do not add up to 100%.
	ProbabilitySumInvalid ConfigErrorKind = iota + 1
	// EmptyDistribution: no outcomes were supplied.
	EmptyDistribution
	// NonPositiveParameter: equity, risk fraction, draw count or a Monte Carlo
	// count is zero or negative (or a risk fraction exceeds 1).
	NonPositiveParameter
	// InvalidProbability: a single probability lies outside [0,100] or is not finite.
	InvalidProbability
	// InvalidMultiplier: a multiplier is NaN or infinite.
	InvalidMultiplier
	// InvalidPlayer: a comparison player is missing a name.
	InvalidPlayer
)

func (k ConfigErrorKind) String() string {
	switch k {
	case ProbabilitySumInvalid:
		return "probability_sum_invalid"
	case EmptyDistribution:
		return "empty_distribution"
	case NonPositiveParameter:
		return "non_positive_parameter"
	case InvalidProbability:
		return "invalid_probability"
	case InvalidMultiplier:
		return "invalid_multiplier"
	case InvalidPlayer:
		return "invalid_player"
	default:
		return "unknown"
	}
}

// ConfigError reports a configuration rejected before any simulation work starts.
// It is always recoverable by fixing the input and retrying.
type ConfigError struct {
	Kind  ConfigErrorKind
	Field string
	Value float64
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s=%g", e.Kind, e.Field, e.Value)
	}
	return e.Kind.String()
}

// Is matches any ConfigError of the same kind, so callers can test against the sentinels below.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrProbabilitySumInvalid = &ConfigError{Kind: ProbabilitySumInvalid}
	ErrEmptyDistribution     = &ConfigError{Kind: EmptyDistribution}
	ErrNonPositiveParameter  = &ConfigError{Kind: NonPositiveParameter}
	ErrInvalidProbability    = &ConfigError{Kind: InvalidProbability}
	ErrInvalidMultiplier     = &ConfigError{Kind: InvalidMultiplier}
	ErrInvalidPlayer         = &ConfigError{Kind: InvalidPlayer}
)

// NewConfigError builds a ConfigError with a formatted message.
func NewConfigError(kind ConfigErrorKind, field string, value float64, format string, args ...any) *ConfigError {
	return &ConfigError{Kind: kind, Field: field, Value: value, Msg: fmt.Sprintf(format, args...)}
}
