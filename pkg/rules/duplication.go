package rules

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/whiffhq/whiff/pkg/config"
	"github.com/whiffhq/whiff/pkg/model"
	"github.com/whiffhq/whiff/pkg/parser"
)

// FindDuplicates detects duplicated code across all given models.
// Candidate blocks are sliding windows of min_duplicate_lines
// normalized statement lines within each callable. Windows with equal
// fingerprints seed a cluster, which is then extended line by line
// while every member keeps matching, so nested duplicates collapse
// into the largest shared span.
func FindDuplicates(models []*model.Model, cfg *config.Config) []Finding {
	if !cfg.DetectorEnabled(DuplicatedCode) {
		return nil
	}
	w := cfg.Thresholds.MinDuplicateLines

	blocks := collectBlocks(models)

	type occurrence struct {
		block int
		pos   int
	}
	groups := make(map[uint64][]occurrence)
	for bi := range blocks {
		lines := blocks[bi].lines
		for pos := 0; pos+w <= len(lines); pos++ {
			h := xxhash.New()
			for _, ln := range lines[pos : pos+w] {
				h.Write(ln.hash[:])
			}
			fp := h.Sum64()
			groups[fp] = append(groups[fp], occurrence{block: bi, pos: pos})
		}
	}

	fps := make([]uint64, 0, len(groups))
	for fp, occs := range groups {
		if len(occs) < 2 {
			continue
		}
		fps = append(fps, fp)
	}
	// Process groups in source order so containment suppression sees
	// the outermost spans first and output is deterministic.
	sort.Slice(fps, func(i, j int) bool {
		a, b := groups[fps[i]][0], groups[fps[j]][0]
		ab, bb := &blocks[a.block], &blocks[b.block]
		if ab.path != bb.path {
			return ab.path < bb.path
		}
		if as, bs := ab.lines[a.pos].lineNo, bb.lines[b.pos].lineNo; as != bs {
			return as < bs
		}
		return fps[i] < fps[j]
	})

	reported := make(map[string][]Span)
	var findings []Finding

	for _, fp := range fps {
		occs := groups[fp]
		sort.Slice(occs, func(i, j int) bool {
			a, b := occs[i], occs[j]
			if blocks[a.block].path != blocks[b.block].path {
				return blocks[a.block].path < blocks[b.block].path
			}
			return blocks[a.block].lines[a.pos].lineNo < blocks[b.block].lines[b.pos].lineNo
		})

		// Extend the window forward while every member still matches.
		extra := 0
		for {
			next := occs[0]
			np := next.pos + w + extra
			if np >= len(blocks[next.block].lines) {
				break
			}
			want := blocks[next.block].lines[np].hash
			ok := true
			for _, occ := range occs[1:] {
				op := occ.pos + w + extra
				if op >= len(blocks[occ.block].lines) || blocks[occ.block].lines[op].hash != want {
					ok = false
					break
				}
			}
			if !ok {
				break
			}
			extra++
		}

		// Dedupe by physical location: a nested callable's lines also
		// belong to its parent's block, and the same span must not be
		// reported as a duplicate of itself.
		spans := make([]Span, 0, len(occs))
		seen := make(map[string]bool)
		for _, occ := range occs {
			b := &blocks[occ.block]
			span := Span{
				Path:      b.path,
				Element:   b.element,
				StartLine: b.lines[occ.pos].lineNo,
				EndLine:   b.lines[occ.pos+w+extra-1].lineNo,
			}
			loc := fmt.Sprintf("%s:%d-%d", span.Path, span.StartLine, span.EndLine)
			if seen[loc] {
				continue
			}
			seen[loc] = true
			spans = append(spans, span)
		}
		if len(spans) < 2 {
			continue
		}
		if allContained(spans, reported) {
			continue
		}
		for _, span := range spans {
			key := span.Path + "\x00" + span.Element
			reported[key] = append(reported[key], span)
		}

		dupLines := w + extra
		primary := spans[0]
		f := newFinding(DuplicatedCode, primary.Path, primary.Element,
			primary.StartLine, primary.EndLine, "duplicate_lines",
			float64(dupLines), float64(w),
			fmt.Sprintf("%s duplicated across %d locations", plural(dupLines, "line"), len(spans)))
		f.Related = spans[1:]
		findings = append(findings, f)
	}
	return findings
}

// allContained reports whether every span lies inside an already
// reported span of the same element.
func allContained(spans []Span, reported map[string][]Span) bool {
	for _, span := range spans {
		contained := false
		for _, r := range reported[span.Path+"\x00"+span.Element] {
			if span.StartLine >= r.StartLine && span.EndLine <= r.EndLine {
				contained = true
				break
			}
		}
		if !contained {
			return false
		}
	}
	return true
}

type dupLine struct {
	lineNo int
	hash   [32]byte
}

type dupBlock struct {
	path    string
	element string
	lines   []dupLine
}

// collectBlocks gathers the normalized statement lines of every
// callable's body, in model order. Signature lines are excluded so
// they cannot seed a match; blank and comment-only lines drop out so
// a duplicate survives differences in spacing.
func collectBlocks(models []*model.Model) []dupBlock {
	var blocks []dupBlock
	for _, m := range models {
		srcLines := splitLines(m.Source)
		for _, idx := range m.Callables() {
			el := &m.Elements[idx]
			block := dupBlock{path: m.Path, element: el.QualifiedName}
			for ln := bodyStartLine(el); ln <= el.EndLine && ln <= len(srcLines); ln++ {
				norm := normalizeLine(srcLines[ln-1], m.Language)
				if norm == "" {
					continue
				}
				block.lines = append(block.lines, dupLine{
					lineNo: ln,
					hash:   blake3.Sum256([]byte(norm)),
				})
			}
			if len(block.lines) > 0 {
				blocks = append(blocks, block)
			}
		}
	}
	return blocks
}

// bodyStartLine returns the first line of a callable that can hold
// statements. Brace languages open the body on the signature line, so
// the scan starts on the line after it.
func bodyStartLine(el *model.Element) int {
	if el.Node == nil {
		return el.StartLine + 1
	}
	body := el.Node.ChildByFieldName("body")
	if body == nil {
		for i := range int(el.Node.NamedChildCount()) {
			if c := el.Node.NamedChild(i); c.Type() == "body_statement" {
				body = c
				break
			}
		}
	}
	if body == nil {
		return el.StartLine + 1
	}
	if line := int(body.StartPoint().Row) + 1; line > el.StartLine {
		return line
	}
	return el.StartLine + 1
}

func splitLines(source []byte) []string {
	var lines []string
	start := 0
	for i, b := range source {
		if b == '\n' {
			lines = append(lines, string(source[start:i]))
			start = i + 1
		}
	}
	if start < len(source) {
		lines = append(lines, string(source[start:]))
	}
	return lines
}

// normalizeLine tokenizes one source line and rewrites identifiers and
// literals to positional placeholders, keeping keywords, operators,
// and punctuation verbatim. Returns "" for blank or comment-only
// lines.
func normalizeLine(line string, lang parser.Language) string {
	keywords := keywordsFor(lang)
	var tokens []string
	ids := make(map[string]int)

	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case isCommentStart(line, i, lang):
			i = len(line)
		case c == '"' || c == '\'' || c == '`':
			i = skipString(line, i)
			tokens = append(tokens, "LIT")
		case c >= '0' && c <= '9':
			for i < len(line) && (isAlnum(line[i]) || line[i] == '.') {
				i++
			}
			tokens = append(tokens, "LIT")
		case isIdentStart(c):
			start := i
			for i < len(line) && isAlnum(line[i]) {
				i++
			}
			word := line[start:i]
			if keywords[word] {
				tokens = append(tokens, word)
			} else {
				n, ok := ids[word]
				if !ok {
					n = len(ids) + 1
					ids[word] = n
				}
				tokens = append(tokens, fmt.Sprintf("ID_%d", n))
			}
		default:
			tokens = append(tokens, string(c))
			i++
		}
	}
	if len(tokens) == 0 {
		return ""
	}
	out := tokens[0]
	for _, t := range tokens[1:] {
		out += " " + t
	}
	return out
}

func isCommentStart(line string, i int, lang parser.Language) bool {
	switch lang {
	case parser.LangPython, parser.LangRuby:
		return line[i] == '#'
	default:
		return line[i] == '/' && i+1 < len(line) && (line[i+1] == '/' || line[i+1] == '*')
	}
}

// skipString advances past a quoted literal, honoring backslash
// escapes. An unterminated literal consumes the rest of the line.
func skipString(line string, i int) int {
	quote := line[i]
	i++
	for i < len(line) {
		if line[i] == '\\' && i+1 < len(line) {
			i += 2
			continue
		}
		if line[i] == quote {
			return i + 1
		}
		i++
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func keywordsFor(lang parser.Language) map[string]bool {
	switch lang {
	case parser.LangGo:
		return goKeywords
	case parser.LangPython:
		return pythonKeywords
	case parser.LangTypeScript, parser.LangJavaScript:
		return jsKeywords
	case parser.LangJava:
		return javaKeywords
	case parser.LangRuby:
		return rubyKeywords
	default:
		return nil
	}
}

var goKeywords = toSet("break case chan const continue default defer else fallthrough for func go goto if import interface map package range return select struct switch type var nil true false")

var pythonKeywords = toSet("False None True and as assert async await break class continue def del elif else except finally for from global if import in is lambda nonlocal not or pass raise return try while with yield self cls")

var jsKeywords = toSet("break case catch class const continue debugger default delete do else export extends finally for function if import in instanceof let new of return static super switch this throw try typeof var void while with yield async await null true false undefined")

var javaKeywords = toSet("abstract assert boolean break byte case catch char class const continue default do double else enum extends final finally float for if implements import instanceof int interface long native new package private protected public return short static strictfp super switch synchronized this throw throws transient try void volatile while true false null var record")

var rubyKeywords = toSet("BEGIN END alias and begin break case class def defined do else elsif end ensure false for if in module next nil not or redo rescue retry return self super then true undef unless until when while yield")

func toSet(words string) map[string]bool {
	set := make(map[string]bool)
	start := 0
	for i := 0; i <= len(words); i++ {
		if i == len(words) || words[i] == ' ' {
			if i > start {
				set[words[start:i]] = true
			}
			start = i + 1
		}
	}
	return set
}
