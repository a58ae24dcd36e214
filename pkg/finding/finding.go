package finding

import "fmt"

// Level classifies the severity of a single validation finding.
type Level string

const (
	// LevelError indicates a violation that blocks the configuration.
	LevelError Level = "error"

	// LevelWarning indicates a suspicious but non-blocking condition.
	LevelWarning Level = "warning"

	// LevelInfo indicates advisory output with no effect on the exit code.
	LevelInfo Level = "info"
)

// String returns the string representation of the Level.
func (l Level) String() string {
	return string(l)
}

// Finding is one structured validation result. It is immutable once created.
type Finding struct {
	// Level is the severity of the finding.
	Level Level `json:"level" yaml:"level"`

	// Message is the human-facing description, possibly including
	// remediation guidance.
	Message string `json:"message" yaml:"message"`

	// Rule is the stable machine-checkable rule identifier
	// (e.g. "schema_unknown_key").
	Rule string `json:"rule,omitempty" yaml:"rule,omitempty"`

	// Context is a dotted path locating the finding in the document,
	// e.g. "security_group.web-sg.ingress[0]".
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// Summary accumulates findings in insertion order, bucketed by level.
// It is mutated only via Add and never concurrently.
type Summary struct {
	Errors   []Finding `json:"errors" yaml:"errors"`
	Warnings []Finding `json:"warnings" yaml:"warnings"`
	Info     []Finding `json:"info" yaml:"info"`
}

// NewSummary creates an empty Summary.
func NewSummary() *Summary {
	return &Summary{}
}

// Add appends f to the bucket matching its level. Unrecognized levels are
// treated as info so a miscategorized finding is never dropped.
func (s *Summary) Add(f Finding) {
	switch f.Level {
	case LevelError:
		s.Errors = append(s.Errors, f)
	case LevelWarning:
		s.Warnings = append(s.Warnings, f)
	default:
		s.Info = append(s.Info, f)
	}
}

// HasErrors reports whether any error-level findings were recorded.
func (s *Summary) HasErrors() bool {
	return len(s.Errors) > 0
}

// HasWarnings reports whether any warning-level findings were recorded.
func (s *Summary) HasWarnings() bool {
	return len(s.Warnings) > 0
}

// ExitCode derives the process exit code from bucket occupancy: 1 if any
// error is present, 2 if only warnings, 0 when clean. A single error always
// outranks any number of warnings.
func (s *Summary) ExitCode() int {
	if s.HasErrors() {
		return 1
	}
	if s.HasWarnings() {
		return 2
	}
	return 0
}

// Errorf builds an error-level finding with a formatted message.
func Errorf(rule, context, format string, args ...any) Finding {
	return Finding{Level: LevelError, Message: fmt.Sprintf(format, args...), Rule: rule, Context: context}
}

// Warnf builds a warning-level finding with a formatted message.
func Warnf(rule, context, format string, args ...any) Finding {
	return Finding{Level: LevelWarning, Message: fmt.Sprintf(format, args...), Rule: rule, Context: context}
}

// Infof builds an info-level finding with a formatted message.
func Infof(rule, context, format string, args ...any) Finding {
	return Finding{Level: LevelInfo, Message: fmt.Sprintf(format, args...), Rule: rule, Context: context}
}
