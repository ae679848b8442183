package metrics

import (
	"testing"

	"github.com/whiffhq/whiff/pkg/model"
	"github.com/whiffhq/whiff/pkg/parser"
)

func buildModel(t *testing.T, source string, lang parser.Language) *model.Model {
	t.Helper()
	p := parser.New()
	defer p.Close()

	res, err := p.Parse([]byte(source), lang, "test")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	m, err := model.Build(res)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return m
}

func callableMetrics(t *testing.T, m *model.Model, qualified string) Callable {
	t.Helper()
	for i := range m.Elements {
		if m.Elements[i].QualifiedName == qualified {
			return ForCallable(m, i)
		}
	}
	t.Fatalf("no element %q", qualified)
	return Callable{}
}

func classMetrics(t *testing.T, m *model.Model, qualified string) Class {
	t.Helper()
	for i := range m.Elements {
		if m.Elements[i].QualifiedName == qualified {
			return ForClass(m, i)
		}
	}
	t.Fatalf("no class %q", qualified)
	return Class{}
}

func TestCyclomaticStraightLine(t *testing.T) {
	source := `def simple(a):
    x = a + 1
    return x
`
	m := buildModel(t, source, parser.LangPython)
	got := callableMetrics(t, m, "simple")
	if got.Cyclomatic != 1 {
		t.Errorf("cyclomatic = %d, want 1", got.Cyclomatic)
	}
	if got.MaxNesting != 0 {
		t.Errorf("nesting = %d, want 0", got.MaxNesting)
	}
	if got.LineCount != 3 {
		t.Errorf("lines = %d, want 3", got.LineCount)
	}
	if got.ParamCount != 1 {
		t.Errorf("params = %d, want 1", got.ParamCount)
	}
}

func TestCyclomaticBranchesAndCombinators(t *testing.T) {
	// 1 base + if + elif + for + (and inside the if condition) = 5.
	source := `def branchy(a, b):
    if a > 0 and b > 0:
        return a
    elif a < 0:
        return -a
    for i in range(b):
        a += i
    return a
`
	m := buildModel(t, source, parser.LangPython)
	got := callableMetrics(t, m, "branchy")
	if got.Cyclomatic != 5 {
		t.Errorf("cyclomatic = %d, want 5", got.Cyclomatic)
	}
}

func TestCombinatorOutsideConditionNotCounted(t *testing.T) {
	source := `def assigns(a, b):
    ok = a and b
    return ok
`
	m := buildModel(t, source, parser.LangPython)
	got := callableMetrics(t, m, "assigns")
	if got.Cyclomatic != 1 {
		t.Errorf("cyclomatic = %d, want 1 (combinator outside a condition)", got.Cyclomatic)
	}
}

func TestGoCyclomaticAndNesting(t *testing.T) {
	source := `package demo

func classify(values []int, limit int) int {
	total := 0
	for _, v := range values {
		if v > limit {
			if v > limit*2 {
				total += 2
			}
			total++
		}
	}
	switch {
	case total > 10:
		return 2
	case total > 0:
		return 1
	}
	return 0
}
`
	m := buildModel(t, source, parser.LangGo)
	got := callableMetrics(t, m, "classify")
	// 1 base + for + 2 ifs + 2 cases.
	if got.Cyclomatic != 6 {
		t.Errorf("cyclomatic = %d, want 6", got.Cyclomatic)
	}
	// for > if > if.
	if got.MaxNesting != 3 {
		t.Errorf("nesting = %d, want 3", got.MaxNesting)
	}
}

func TestNestedFunctionExcluded(t *testing.T) {
	source := `def outer(a):
    def inner(b):
        if b > 0:
            if b > 1:
                return b
        return 0
    return inner(a)
`
	m := buildModel(t, source, parser.LangPython)

	outer := callableMetrics(t, m, "outer")
	if outer.Cyclomatic != 1 {
		t.Errorf("outer cyclomatic = %d, want 1 (inner measured separately)", outer.Cyclomatic)
	}
	if outer.MaxNesting != 0 {
		t.Errorf("outer nesting = %d, want 0", outer.MaxNesting)
	}

	inner := callableMetrics(t, m, "outer.inner")
	if inner.Cyclomatic != 3 {
		t.Errorf("inner cyclomatic = %d, want 3", inner.Cyclomatic)
	}
	if inner.MaxNesting != 2 {
		t.Errorf("inner nesting = %d, want 2", inner.MaxNesting)
	}
}

func TestElseIfChainStaysFlat(t *testing.T) {
	goSource := `package demo

func grade(score int) string {
	if score > 90 {
		return "A"
	} else if score > 80 {
		return "B"
	} else if score > 70 {
		return "C"
	} else if score > 60 {
		return "D"
	}
	return "F"
}
`
	gm := buildModel(t, goSource, parser.LangGo)
	goGot := callableMetrics(t, gm, "grade")
	if goGot.Cyclomatic != 5 {
		t.Errorf("go cyclomatic = %d, want 5", goGot.Cyclomatic)
	}
	if goGot.MaxNesting != 1 {
		t.Errorf("go nesting = %d, want 1 (chain is flat)", goGot.MaxNesting)
	}

	pySource := `def grade(score):
    if score > 90:
        return "A"
    elif score > 80:
        return "B"
    elif score > 70:
        return "C"
    elif score > 60:
        return "D"
    return "F"
`
	pm := buildModel(t, pySource, parser.LangPython)
	pyGot := callableMetrics(t, pm, "grade")
	if pyGot.Cyclomatic != goGot.Cyclomatic {
		t.Errorf("python cyclomatic = %d, go = %d, want equal", pyGot.Cyclomatic, goGot.Cyclomatic)
	}
	if pyGot.MaxNesting != goGot.MaxNesting {
		t.Errorf("python nesting = %d, go = %d, want equal", pyGot.MaxNesting, goGot.MaxNesting)
	}

	jsSource := `function grade(score) {
  if (score > 90) {
    return "A";
  } else if (score > 80) {
    return "B";
  } else if (score > 70) {
    return "C";
  } else if (score > 60) {
    return "D";
  }
  return "F";
}
`
	jm := buildModel(t, jsSource, parser.LangJavaScript)
	jsGot := callableMetrics(t, jm, "grade")
	if jsGot.MaxNesting != 1 {
		t.Errorf("js nesting = %d, want 1 (chain is flat)", jsGot.MaxNesting)
	}
}

func TestIfInsideElseBlockNests(t *testing.T) {
	// An if wrapped in an else block is a real extra level, unlike a
	// chained else-if.
	source := `package demo

func pick(a, b int) int {
	if a > 0 {
		return a
	} else {
		if b > 0 {
			return b
		}
	}
	return 0
}
`
	m := buildModel(t, source, parser.LangGo)
	got := callableMetrics(t, m, "pick")
	if got.MaxNesting != 2 {
		t.Errorf("nesting = %d, want 2", got.MaxNesting)
	}
}

func TestClassMemberCountPython(t *testing.T) {
	source := `class Config:
    retries = 3
    timeout = 30

    def load(self):
        pass

    def save(self):
        pass
`
	m := buildModel(t, source, parser.LangPython)
	got := classMetrics(t, m, "Config")
	if got.MemberCount != 4 {
		t.Errorf("members = %d, want 4 (2 attributes + 2 methods)", got.MemberCount)
	}
	if got.LineCount != 9 {
		t.Errorf("lines = %d, want 9", got.LineCount)
	}
}

func TestPythonCallAssignmentsNotMembers(t *testing.T) {
	source := `class Record:
    name = ""
    retries = 3
    created = field(default=None)

    def touch(self):
        pass
`
	m := buildModel(t, source, parser.LangPython)
	got := classMetrics(t, m, "Record")
	if got.MemberCount != 3 {
		t.Errorf("members = %d, want 3 (call-valued assignment excluded)", got.MemberCount)
	}
}

func TestClassMemberCountGo(t *testing.T) {
	source := `package demo

type Server struct {
	addr    string
	port    int
	timeout int
}

func (s *Server) Start() error { return nil }

func (s *Server) Stop() error { return nil }
`
	m := buildModel(t, source, parser.LangGo)
	got := classMetrics(t, m, "Server")
	if got.MemberCount != 5 {
		t.Errorf("members = %d, want 5 (3 fields + 2 methods)", got.MemberCount)
	}
}

func TestSummarize(t *testing.T) {
	source := `class Config:
    retries = 3

    def load(self):
        if self.retries > 0:
            return True
        return False

def plain(a):
    return a
`
	m := buildModel(t, source, parser.LangPython)
	s := Summarize([]*model.Model{m})

	if s.Functions != 2 {
		t.Errorf("functions = %d, want 2", s.Functions)
	}
	if s.Classes != 1 {
		t.Errorf("classes = %d, want 1", s.Classes)
	}
	// load has one branch, plain none.
	if s.MaxComplexity != 2 {
		t.Errorf("max complexity = %d, want 2", s.MaxComplexity)
	}
	if s.AvgComplexity != 1.5 {
		t.Errorf("avg complexity = %v, want 1.5", s.AvgComplexity)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s != (Summary{}) {
		t.Errorf("summary = %+v, want zero", s)
	}
}

func TestJavaScriptTernaryAndCatch(t *testing.T) {
	source := `function risky(a) {
  try {
    return a > 0 ? a : -a;
  } catch (e) {
    return 0;
  }
}
`
	m := buildModel(t, source, parser.LangJavaScript)
	got := callableMetrics(t, m, "risky")
	// 1 base + ternary + catch.
	if got.Cyclomatic != 3 {
		t.Errorf("cyclomatic = %d, want 3", got.Cyclomatic)
	}
}
