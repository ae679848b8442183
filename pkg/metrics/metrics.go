// Package metrics computes structural measurements for model elements:
// line counts, parameter counts, cyclomatic complexity, nesting depth,
// and class member counts.
package metrics

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/whiffhq/whiff/pkg/model"
	"github.com/whiffhq/whiff/pkg/parser"
)

// Callable holds the measurements for one function or method.
type Callable struct {
	LineCount  int
	ParamCount int
	Cyclomatic int
	MaxNesting int
}

// Class holds the measurements for one class element.
type Class struct {
	LineCount   int
	MemberCount int
}

// ForCallable measures the function or method at idx. Declarations
// nested inside it are measured separately and excluded here.
func ForCallable(m *model.Model, idx int) Callable {
	el := &m.Elements[idx]
	c := counter{lang: m.Language, source: m.Source, root: el.Node}
	c.walk(el.Node, false, 0)

	return Callable{
		LineCount:  el.LineCount(),
		ParamCount: len(el.Params),
		Cyclomatic: 1 + c.decisions,
		MaxNesting: c.maxNesting,
	}
}

// ForClass measures the class at idx. MemberCount covers direct
// methods and attribute declarations.
func ForClass(m *model.Model, idx int) Class {
	el := &m.Elements[idx]
	return Class{
		LineCount:   el.LineCount(),
		MemberCount: countMembers(m, idx),
	}
}

// Summary aggregates structure metrics across a run.
type Summary struct {
	Functions        int     `json:"functions"`
	Classes          int     `json:"classes"`
	AvgComplexity    float64 `json:"avg_complexity"`
	MaxComplexity    int     `json:"max_complexity"`
	AvgFunctionLines float64 `json:"avg_function_lines"`
	AvgClassLines    float64 `json:"avg_class_lines"`
}

// Summarize measures every element of the given models and folds the
// results into per-run aggregates.
func Summarize(models []*model.Model) Summary {
	var s Summary
	var ccTotal, fnLines, clsLines int
	for _, m := range models {
		for _, idx := range m.Callables() {
			c := ForCallable(m, idx)
			s.Functions++
			ccTotal += c.Cyclomatic
			fnLines += c.LineCount
			if c.Cyclomatic > s.MaxComplexity {
				s.MaxComplexity = c.Cyclomatic
			}
		}
		for _, idx := range m.Classes() {
			s.Classes++
			clsLines += ForClass(m, idx).LineCount
		}
	}
	if s.Functions > 0 {
		s.AvgComplexity = float64(ccTotal) / float64(s.Functions)
		s.AvgFunctionLines = float64(fnLines) / float64(s.Functions)
	}
	if s.Classes > 0 {
		s.AvgClassLines = float64(clsLines) / float64(s.Classes)
	}
	return s
}

type counter struct {
	lang       parser.Language
	source     []byte
	root       *sitter.Node
	decisions  int
	maxNesting int
}

// walk counts decision points and tracks nesting depth. Boolean
// combinators only contribute when they appear inside the condition
// of a decision node. Nested declared elements are skipped.
func (c *counter) walk(node *sitter.Node, inCondition bool, nesting int) {
	if node == nil {
		return
	}
	nodeType := node.Type()

	if node != c.root && isBoundary(c.lang, nodeType) {
		return
	}

	childNesting := nesting
	decision := isDecisionNode(c.lang, nodeType)
	if decision {
		c.decisions++
	}
	if isNestingNode(c.lang, nodeType) && !isElseIf(node, nodeType) {
		childNesting = nesting + 1
		if childNesting > c.maxNesting {
			c.maxNesting = childNesting
		}
	}

	if inCondition && isBooleanCombinator(c.lang, node, nodeType, c.source) {
		c.decisions++
	}

	condition := node.ChildByFieldName("condition")
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		childInCondition := inCondition
		if decision && condition != nil {
			childInCondition = child.Equal(condition)
		}
		c.walk(child, childInCondition, childNesting)
	}
}

// isBoundary reports whether nodeType starts a nested declaration
// that owns its own metrics.
func isBoundary(lang parser.Language, nodeType string) bool {
	switch lang {
	case parser.LangGo:
		return nodeType == "function_declaration" || nodeType == "method_declaration"
	case parser.LangPython:
		return nodeType == "function_definition" || nodeType == "class_definition"
	case parser.LangTypeScript, parser.LangJavaScript:
		return nodeType == "function_declaration" || nodeType == "method_definition" ||
			nodeType == "generator_function_declaration" || nodeType == "class_declaration"
	case parser.LangJava:
		return nodeType == "method_declaration" || nodeType == "constructor_declaration" ||
			nodeType == "class_declaration"
	case parser.LangRuby:
		return nodeType == "method" || nodeType == "singleton_method" ||
			nodeType == "class" || nodeType == "module"
	}
	return false
}

func isDecisionNode(lang parser.Language, nodeType string) bool {
	types := decisionNodeTypes(lang)
	return types[nodeType]
}

func decisionNodeTypes(lang parser.Language) map[string]bool {
	switch lang {
	case parser.LangGo:
		return map[string]bool{
			"if_statement":       true,
			"for_statement":      true,
			"expression_case":    true,
			"type_case":          true,
			"communication_case": true,
		}
	case parser.LangPython:
		return map[string]bool{
			"if_statement":           true,
			"elif_clause":            true,
			"for_statement":          true,
			"while_statement":        true,
			"except_clause":          true,
			"conditional_expression": true,
			"for_in_clause":          true,
			"case_clause":            true,
		}
	case parser.LangTypeScript, parser.LangJavaScript:
		return map[string]bool{
			"if_statement":       true,
			"for_statement":      true,
			"for_in_statement":   true,
			"while_statement":    true,
			"do_statement":       true,
			"switch_case":        true,
			"catch_clause":       true,
			"ternary_expression": true,
		}
	case parser.LangJava:
		return map[string]bool{
			"if_statement":           true,
			"for_statement":          true,
			"enhanced_for_statement": true,
			"while_statement":        true,
			"do_statement":           true,
			"switch_label":           true,
			"catch_clause":           true,
			"ternary_expression":     true,
		}
	case parser.LangRuby:
		return map[string]bool{
			"if":              true,
			"unless":          true,
			"elsif":           true,
			"while":           true,
			"until":           true,
			"for":             true,
			"when":            true,
			"rescue":          true,
			"conditional":     true,
			"if_modifier":     true,
			"unless_modifier": true,
			"while_modifier":  true,
			"until_modifier":  true,
		}
	}
	return nil
}

// isNestingNode reports whether a node opens a new nesting level.
// Case clauses deepen complexity but not nesting.
func isNestingNode(lang parser.Language, nodeType string) bool {
	switch lang {
	case parser.LangGo:
		switch nodeType {
		case "if_statement", "for_statement", "expression_switch_statement",
			"type_switch_statement", "select_statement":
			return true
		}
	case parser.LangPython:
		switch nodeType {
		case "if_statement", "for_statement", "while_statement",
			"try_statement", "with_statement", "match_statement":
			return true
		}
	case parser.LangTypeScript, parser.LangJavaScript:
		switch nodeType {
		case "if_statement", "for_statement", "for_in_statement",
			"while_statement", "do_statement", "switch_statement",
			"try_statement":
			return true
		}
	case parser.LangJava:
		switch nodeType {
		case "if_statement", "for_statement", "enhanced_for_statement",
			"while_statement", "do_statement", "switch_expression",
			"try_statement":
			return true
		}
	case parser.LangRuby:
		switch nodeType {
		case "if", "unless", "while", "until", "for", "case", "begin":
			return true
		}
	}
	return false
}

// isElseIf reports whether an if hangs off the else arm of another
// if. A chained if adds branches but no depth, like an elif clause.
func isElseIf(node *sitter.Node, nodeType string) bool {
	if nodeType != "if_statement" {
		return false
	}
	parent := node.Parent()
	if parent == nil {
		return false
	}
	// JavaScript and TypeScript wrap the chained if in an else_clause.
	if parent.Type() == "else_clause" {
		return true
	}
	if parent.Type() != "if_statement" {
		return false
	}
	alt := parent.ChildByFieldName("alternative")
	return alt != nil && alt.Equal(node)
}

// isBooleanCombinator reports whether a node is an && / || (or
// and / or) joining two conditions.
func isBooleanCombinator(lang parser.Language, node *sitter.Node, nodeType string, source []byte) bool {
	switch lang {
	case parser.LangPython:
		return nodeType == "boolean_operator"
	case parser.LangRuby:
		if nodeType != "binary" {
			return false
		}
	default:
		if nodeType != "binary_expression" {
			return false
		}
	}
	op := node.ChildByFieldName("operator")
	if op == nil {
		return false
	}
	switch parser.GetNodeText(op, source) {
	case "&&", "||", "and", "or":
		return true
	}
	return false
}

func countMembers(m *model.Model, idx int) int {
	el := &m.Elements[idx]
	count := len(m.MethodsOf(idx))

	switch m.Language {
	case parser.LangGo:
		count += countGoFields(el.Node)
	case parser.LangPython:
		count += countDirectChildren(bodyOf(el.Node), func(n *sitter.Node) int {
			if n.Type() != "expression_statement" || n.NamedChildCount() == 0 {
				return 0
			}
			assign := n.NamedChild(0)
			if assign.Type() != "assignment" {
				return 0
			}
			// x = field(...) is a descriptor, not a plain attribute.
			if right := assign.ChildByFieldName("right"); right != nil && right.Type() == "call" {
				return 0
			}
			return 1
		})
	case parser.LangTypeScript, parser.LangJavaScript:
		count += countDirectChildren(bodyOf(el.Node), func(n *sitter.Node) int {
			switch n.Type() {
			case "field_definition", "public_field_definition":
				return 1
			}
			return 0
		})
	case parser.LangJava:
		count += countDirectChildren(bodyOf(el.Node), func(n *sitter.Node) int {
			if n.Type() != "field_declaration" {
				return 0
			}
			// int a, b; declares two members.
			declared := 0
			for i := range int(n.NamedChildCount()) {
				if n.NamedChild(i).Type() == "variable_declarator" {
					declared++
				}
			}
			if declared == 0 {
				declared = 1
			}
			return declared
		})
	case parser.LangRuby:
		count += countRubyAttrs(el.Node, m.Source)
	}
	return count
}

func bodyOf(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if body := node.ChildByFieldName("body"); body != nil {
		return body
	}
	// Ruby class/module bodies are an unnamed body_statement child.
	for i := range int(node.NamedChildCount()) {
		if c := node.NamedChild(i); c.Type() == "body_statement" {
			return c
		}
	}
	return node
}

func countDirectChildren(body *sitter.Node, f func(*sitter.Node) int) int {
	if body == nil {
		return 0
	}
	total := 0
	for i := range int(body.NamedChildCount()) {
		total += f(body.NamedChild(i))
	}
	return total
}

func countGoFields(typeSpec *sitter.Node) int {
	structType := typeSpec.ChildByFieldName("type")
	if structType == nil || structType.Type() != "struct_type" {
		return 0
	}
	count := 0
	parser.WalkTyped(structType, nil, func(n *sitter.Node, nodeType string, _ []byte) bool {
		if nodeType == "field_declaration" {
			names := 0
			for i := range int(n.NamedChildCount()) {
				if n.NamedChild(i).Type() == "field_identifier" {
					names++
				}
			}
			if names == 0 {
				names = 1 // embedded field
			}
			count += names
			return false
		}
		return true
	})
	return count
}

func countRubyAttrs(classNode *sitter.Node, source []byte) int {
	count := 0
	body := bodyOf(classNode)
	if body == nil {
		return 0
	}
	for i := range int(body.NamedChildCount()) {
		call := body.NamedChild(i)
		if call.Type() != "call" {
			continue
		}
		method := call.ChildByFieldName("method")
		switch parser.GetNodeText(method, source) {
		case "attr_accessor", "attr_reader", "attr_writer":
			if args := call.ChildByFieldName("arguments"); args != nil {
				count += int(args.NamedChildCount())
			}
		}
	}
	return count
}
