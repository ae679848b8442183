package model

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/whiffhq/whiff/pkg/parser"
)

// Build constructs the structural model for a parsed unit. It returns
// a ParseError when the source contains syntax errors and an
// InvariantError when the resulting arena is inconsistent.
func Build(res *parser.ParseResult) (*Model, error) {
	root := res.Tree.RootNode()
	if root == nil {
		return nil, &ParseError{Path: res.Path, Reason: "empty parse tree"}
	}
	if root.HasError() {
		return nil, &ParseError{Path: res.Path, Reason: "syntax error"}
	}

	m := &Model{
		Path:     res.Path,
		Language: res.Language,
		Source:   res.Source,
	}
	b := &builder{model: m, lang: res.Language, source: res.Source}
	b.visit(root, -1, 0)

	if err := m.checkInvariants(); err != nil {
		return nil, err
	}
	return m, nil
}

type builder struct {
	model  *Model
	lang   parser.Language
	source []byte
}

func (b *builder) visit(node *sitter.Node, parent, depth int) {
	nodeType := node.Type()
	current := parent
	childDepth := depth

	switch {
	case b.isClassNode(node, nodeType):
		if idx := b.addElement(node, KindClass, parent, depth); idx >= 0 {
			current = idx
			childDepth = depth + 1
		}
	case b.isFunctionNode(nodeType):
		kind := KindFunction
		if parent >= 0 && b.model.Elements[parent].Kind == KindClass {
			kind = KindMethod
		}
		if b.lang == parser.LangGo && nodeType == "method_declaration" {
			kind = KindMethod
		}
		idx := b.addElement(node, kind, parent, depth)
		if idx >= 0 {
			current = idx
			childDepth = depth + 1
		}
	}

	for i := range int(node.ChildCount()) {
		b.visit(node.Child(i), current, childDepth)
	}
}

// addElement appends an element to the arena and links it to its
// parent. Anonymous functions produce no element; the surrounding
// element absorbs their content. Returns -1 when nothing was added.
func (b *builder) addElement(node *sitter.Node, kind Kind, parent, depth int) int {
	name := b.elementName(node)
	if name == "" {
		return -1
	}

	el := Element{
		Kind:      kind,
		Name:      name,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Parent:    parent,
		Depth:     depth,
		Node:      node,
	}

	if kind != KindClass {
		el.Params = b.extractParams(node, kind)
	}
	if b.lang == parser.LangGo && node.Type() == "method_declaration" {
		el.Receiver = b.receiverType(node)
	}

	el.QualifiedName = b.qualify(&el, parent)

	idx := len(b.model.Elements)
	b.model.Elements = append(b.model.Elements, el)
	if parent >= 0 {
		b.model.Elements[parent].Children = append(b.model.Elements[parent].Children, idx)
	}
	return idx
}

func (b *builder) qualify(el *Element, parent int) string {
	if el.Receiver != "" {
		return el.Receiver + "." + el.Name
	}
	if parent < 0 {
		return el.Name
	}
	return b.model.Elements[parent].QualifiedName + "." + el.Name
}

func (b *builder) isFunctionNode(nodeType string) bool {
	switch b.lang {
	case parser.LangGo:
		return nodeType == "function_declaration" || nodeType == "method_declaration"
	case parser.LangPython:
		return nodeType == "function_definition"
	case parser.LangTypeScript, parser.LangJavaScript:
		return nodeType == "function_declaration" || nodeType == "method_definition" ||
			nodeType == "generator_function_declaration"
	case parser.LangJava:
		return nodeType == "method_declaration" || nodeType == "constructor_declaration"
	case parser.LangRuby:
		return nodeType == "method" || nodeType == "singleton_method"
	}
	return false
}

func (b *builder) isClassNode(node *sitter.Node, nodeType string) bool {
	switch b.lang {
	case parser.LangGo:
		if nodeType != "type_spec" {
			return false
		}
		typeNode := node.ChildByFieldName("type")
		return typeNode != nil && typeNode.Type() == "struct_type"
	case parser.LangPython:
		return nodeType == "class_definition"
	case parser.LangTypeScript, parser.LangJavaScript:
		return nodeType == "class_declaration"
	case parser.LangJava:
		return nodeType == "class_declaration" || nodeType == "interface_declaration"
	case parser.LangRuby:
		return nodeType == "class" || nodeType == "module"
	}
	return false
}

func (b *builder) elementName(node *sitter.Node) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return parser.GetNodeText(name, b.source)
	}
	return ""
}

// receiverType extracts the receiver's base type name from a Go
// method declaration, stripping any pointer.
func (b *builder) receiverType(node *sitter.Node) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	for i := range int(recv.NamedChildCount()) {
		decl := recv.NamedChild(i)
		if decl.Type() != "parameter_declaration" {
			continue
		}
		typeNode := decl.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		if typeNode.Type() == "pointer_type" && typeNode.NamedChildCount() > 0 {
			typeNode = typeNode.NamedChild(0)
		}
		if typeNode.Type() == "generic_type" && typeNode.NamedChildCount() > 0 {
			typeNode = typeNode.NamedChild(0)
		}
		return parser.GetNodeText(typeNode, b.source)
	}
	return ""
}

// extractParams collects the declared parameter names of a callable.
// Implicit parameters (Go receivers, Python self/cls) are excluded.
func (b *builder) extractParams(node *sitter.Node, kind Kind) []string {
	list := b.paramList(node)
	if list == nil {
		return nil
	}

	var params []string
	for i := range int(list.NamedChildCount()) {
		child := list.NamedChild(i)
		params = append(params, b.paramNames(child)...)
	}

	if b.lang == parser.LangPython && kind == KindMethod && len(params) > 0 {
		if params[0] == "self" || params[0] == "cls" {
			params = params[1:]
		}
	}
	return params
}

func (b *builder) paramList(node *sitter.Node) *sitter.Node {
	if list := node.ChildByFieldName("parameters"); list != nil {
		return list
	}
	if b.lang == parser.LangRuby {
		for i := range int(node.NamedChildCount()) {
			if c := node.NamedChild(i); c.Type() == "method_parameters" {
				return c
			}
		}
	}
	return nil
}

// paramNames resolves one entry of a parameter list to the names it
// declares. A Go parameter_declaration may declare several.
func (b *builder) paramNames(node *sitter.Node) []string {
	switch node.Type() {
	case "parameter_declaration", "variadic_parameter_declaration":
		var names []string
		for i := range int(node.NamedChildCount()) {
			if c := node.NamedChild(i); c.Type() == "identifier" {
				names = append(names, parser.GetNodeText(c, b.source))
			}
		}
		if len(names) == 0 {
			// Unnamed parameter, still counts toward the signature.
			names = append(names, "_")
		}
		return names
	case "identifier":
		return []string{parser.GetNodeText(node, b.source)}
	case "typed_parameter", "default_parameter", "typed_default_parameter",
		"optional_parameter", "required_parameter", "rest_pattern",
		"assignment_pattern", "formal_parameter", "spread_parameter",
		"splat_parameter", "keyword_parameter", "block_parameter",
		"hash_splat_parameter", "list_splat_pattern", "dictionary_splat_pattern":
		if name := node.ChildByFieldName("name"); name != nil {
			return []string{parser.GetNodeText(name, b.source)}
		}
		for i := range int(node.NamedChildCount()) {
			if c := node.NamedChild(i); c.Type() == "identifier" {
				return []string{parser.GetNodeText(c, b.source)}
			}
		}
		return []string{parser.GetNodeText(node, b.source)}
	case "object_pattern", "array_pattern":
		// Destructured parameter counts as one.
		return []string{parser.GetNodeText(node, b.source)}
	}
	return nil
}
