// Package model builds a structural model of a code unit: the functions,
// methods, and classes it declares, held in a flat arena with parent and
// child links by index.
package model

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/whiffhq/whiff/pkg/parser"
)

// Kind identifies what a model element represents.
type Kind int

const (
	KindFunction Kind = iota
	KindMethod
	KindClass
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindClass:
		return "class"
	default:
		return "unknown"
	}
}

// Element is one declared entity in a code unit. Parent and Children
// are indices into the owning Model's arena; Parent is -1 for
// top-level elements.
type Element struct {
	Kind          Kind
	Name          string
	QualifiedName string
	StartLine     int
	EndLine       int
	Parent        int
	Children      []int
	Params        []string
	Receiver      string
	Depth         int
	Node          *sitter.Node
}

// LineCount returns the number of source lines the element spans.
func (e *Element) LineCount() int {
	return e.EndLine - e.StartLine + 1
}

// Model is the structural model for a single code unit.
type Model struct {
	Path     string
	Language parser.Language
	Source   []byte
	Elements []Element
}

// Classes returns the indices of all class elements in document order.
func (m *Model) Classes() []int {
	var out []int
	for i := range m.Elements {
		if m.Elements[i].Kind == KindClass {
			out = append(out, i)
		}
	}
	return out
}

// Callables returns the indices of all function and method elements in
// document order.
func (m *Model) Callables() []int {
	var out []int
	for i := range m.Elements {
		if m.Elements[i].Kind != KindClass {
			out = append(out, i)
		}
	}
	return out
}

// MethodsOf returns the indices of methods belonging to the class at
// idx. This covers lexical children and, for Go, top-level methods
// whose receiver names the class.
func (m *Model) MethodsOf(idx int) []int {
	var out []int
	class := &m.Elements[idx]
	for _, c := range class.Children {
		if m.Elements[c].Kind == KindMethod {
			out = append(out, c)
		}
	}
	if m.Language == parser.LangGo {
		for i := range m.Elements {
			if m.Elements[i].Kind == KindMethod && m.Elements[i].Receiver == class.Name {
				out = append(out, i)
			}
		}
	}
	return out
}

// ParseError indicates a unit whose source could not be parsed. The
// unit is skipped and the run continues with the remaining units.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

// InvariantError indicates the builder produced a structurally
// impossible model. It signals a bug in whiff, not in the analyzed
// code.
type InvariantError struct {
	Path   string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated in %s: %s", e.Path, e.Reason)
}

func (m *Model) checkInvariants() error {
	for i := range m.Elements {
		el := &m.Elements[i]
		if el.StartLine > el.EndLine {
			return &InvariantError{
				Path:   m.Path,
				Reason: fmt.Sprintf("%s spans lines %d-%d", el.QualifiedName, el.StartLine, el.EndLine),
			}
		}
		if el.Parent < 0 {
			continue
		}
		p := &m.Elements[el.Parent]
		if el.StartLine < p.StartLine || el.EndLine > p.EndLine {
			return &InvariantError{
				Path: m.Path,
				Reason: fmt.Sprintf("%s (lines %d-%d) extends outside parent %s (lines %d-%d)",
					el.QualifiedName, el.StartLine, el.EndLine, p.QualifiedName, p.StartLine, p.EndLine),
			}
		}
	}
	return nil
}
