// Package rules implements the code smell detectors and the severity
// and principle classification of their findings.
package rules

import "fmt"

// Detector identifiers, in declared evaluation order.
const (
	LongMethod         = "long_method"
	LongParameterList  = "long_parameter_list"
	ComplexConditional = "complex_conditional"
	LargeClass         = "large_class"
	DuplicatedCode     = "duplicated_code"
)

// DetectorOrder is the fixed evaluation order. Finding sequences are
// deterministic partly because this order never changes at runtime.
var DetectorOrder = []string{
	LongMethod,
	LongParameterList,
	ComplexConditional,
	LargeClass,
	DuplicatedCode,
}

// Severity grades how far past its threshold a finding's metric lies.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Principle is a design principle a finding violates.
type Principle string

const (
	SingleResponsibility Principle = "SRP"
	OpenClosed           Principle = "OCP"
	InterfaceSegregation Principle = "ISP"
	DontRepeatYourself   Principle = "DRY"
)

// Span references a range of lines within one element.
type Span struct {
	Path      string
	Element   string
	StartLine int
	EndLine   int
}

// Finding is one detected smell, fully classified.
type Finding struct {
	Detector   string
	Path       string
	Element    string
	StartLine  int
	EndLine    int
	Metric     string
	Value      float64
	Threshold  float64
	Severity   Severity
	Principles []Principle
	Message    string
	// Related holds the other member spans of a duplication cluster.
	// Empty for per-element findings.
	Related []Span
}

// Classify assigns severity by proportional distance past the
// threshold. Callers only invoke it for values already past the
// threshold; values at or below it grade Low.
func Classify(value, threshold float64) Severity {
	if threshold <= 0 {
		return SeverityCritical
	}
	ratio := value / threshold
	switch {
	case ratio <= 1.5:
		return SeverityLow
	case ratio <= 2:
		return SeverityMedium
	case ratio <= 3:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// PrinciplesFor returns the static principle tags for a detector.
func PrinciplesFor(detector string) []Principle {
	switch detector {
	case LongMethod:
		return []Principle{SingleResponsibility}
	case LongParameterList:
		return []Principle{InterfaceSegregation, SingleResponsibility}
	case ComplexConditional:
		return []Principle{SingleResponsibility}
	case LargeClass:
		return []Principle{SingleResponsibility, OpenClosed}
	case DuplicatedCode:
		return []Principle{DontRepeatYourself}
	default:
		return nil
	}
}

func newFinding(detector, path, element string, start, end int, metric string, value, threshold float64, msg string) Finding {
	return Finding{
		Detector:   detector,
		Path:       path,
		Element:    element,
		StartLine:  start,
		EndLine:    end,
		Metric:     metric,
		Value:      value,
		Threshold:  threshold,
		Severity:   Classify(value, threshold),
		Principles: PrinciplesFor(detector),
		Message:    msg,
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
