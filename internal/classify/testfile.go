package classify

import (
	"path/filepath"
	"regexp"
	"strings"
)

var reTestName = regexp.MustCompile(`^test_|_test\.|\.test\.|_spec\.|\.spec\.`)

var testDirSegments = []string{
	"/test/", "/tests/", "/__tests__/", "/spec/", "/specs/",
	"/test_cases/", "/unit_test/", "/integration_test/",
}

var testParentDirs = map[string]struct{}{
	"test": {}, "tests": {}, "__tests__": {}, "spec": {}, "specs": {},
}

var vendoredMarkers = []string{"node_modules", "vendor", "bower_components"}

// minTestContentBytes is the threshold below which a name-matched file
// is treated as a stub rather than a real test.
const minTestContentBytes = 50

// IsTest decides whether a file is a real test file and which framework
// it most likely uses. The name or directory must match a test
// convention first; the content must then score at least two indicator
// points, so empty stubs and look-alike names are rejected.
func IsTest(path string, content []byte) (bool, string) {
	lower := strings.ToLower(filepath.ToSlash(path))
	for _, dep := range vendoredMarkers {
		if strings.Contains(lower, dep) {
			return false, ""
		}
	}

	name := strings.ToLower(filepath.Base(lower))
	named := reTestName.MatchString(name)
	if !named {
		for _, seg := range testDirSegments {
			if strings.Contains("/"+lower, seg) {
				named = true
				break
			}
		}
	}
	if !named {
		parent := strings.ToLower(filepath.Base(filepath.Dir(lower)))
		_, named = testParentDirs[parent]
	}
	if !named {
		return false, ""
	}

	text := string(content)
	if len(strings.TrimSpace(text)) < minTestContentBytes {
		return false, ""
	}
	if scoreTestContent(text, filepath.Ext(name)) < 2 {
		return false, ""
	}
	return true, TestFramework(text)
}

type weightedPattern struct {
	re     *regexp.Regexp
	weight int
}

var pythonTestIndicators = []weightedPattern{
	{regexp.MustCompile(`(?i)import pytest|from pytest import`), 2},
	{regexp.MustCompile(`(?i)@pytest\.fixture`), 2},
	{regexp.MustCompile(`(?i)@pytest\.mark\.\w+`), 2},
	{regexp.MustCompile(`(?i)def test_\w+`), 3},
	{regexp.MustCompile(`(?i)class Test\w+`), 2},
	{regexp.MustCompile(`(?i)import unittest|from unittest import`), 2},
	{regexp.MustCompile(`(?i)class \w+\(.*TestCase\):`), 3},
	{regexp.MustCompile(`(?i)self\.assert\w+\(`), 2},
	{regexp.MustCompile(`(?i)assert\s+\w+\s*==\s*\w+`), 1},
	{regexp.MustCompile(`(?i)assert\s+isinstance\(`), 1},
	{regexp.MustCompile(`(?i)assert\s+len\(`), 1},
	{regexp.MustCompile(`(?i)@patch|@mock\.patch`), 2},
	{regexp.MustCompile(`(?i)from unittest\.mock import`), 2},
	{regexp.MustCompile(`(?i)def setUp\(|def tearDown\(`), 2},
}

var javascriptTestIndicators = []weightedPattern{
	{regexp.MustCompile(`describe\(`), 3},
	{regexp.MustCompile(`\bit\(|\btest\(`), 3},
	{regexp.MustCompile(`expect\(`), 3},
	{regexp.MustCompile(`jest\.`), 2},
	{regexp.MustCompile(`beforeEach\(|afterEach\(|beforeAll\(|afterAll\(`), 2},
	{regexp.MustCompile(`chai\.expect|should\.|assert\.`), 2},
	{regexp.MustCompile(`@testing-library|fireEvent\(|screen\.`), 2},
	{regexp.MustCompile(`\.toBe\(|\.toEqual\(|\.toBeTruthy\(|\.toBeFalsy\(`), 2},
	{regexp.MustCompile(`\.toThrow\(|\.toMatch\(|\.toContain\(`), 2},
	{regexp.MustCompile(`jest\.mock\(|jest\.spyOn\(`), 3},
	{regexp.MustCompile(`sinon\.`), 2},
}

var javaTestIndicators = []weightedPattern{
	{regexp.MustCompile(`@Test`), 3},
	{regexp.MustCompile(`import org\.junit`), 2},
	{regexp.MustCompile(`Assert\.`), 2},
	{regexp.MustCompile(`assertEquals|assertTrue|assertFalse|assertNull`), 2},
	{regexp.MustCompile(`import org\.testng`), 2},
	{regexp.MustCompile(`@Mock|@InjectMocks`), 2},
	{regexp.MustCompile(`Mockito\.`), 2},
	{regexp.MustCompile(`@SpringBootTest|@WebMvcTest`), 2},
}

var genericTestIndicators = []weightedPattern{
	{regexp.MustCompile(`(?i)test.*function|test.*def|test.*method`), 1},
	{regexp.MustCompile(`(?i)assert\w*\(`), 1},
	{regexp.MustCompile(`(?i)verify\w*\(`), 1},
	{regexp.MustCompile(`(?i)should.*equal|expect.*equal`), 1},
	{regexp.MustCompile(`(?i)fixture|setup|teardown`), 1},
	{regexp.MustCompile(`(?i)mock|stub|spy`), 1},
}

func scoreTestContent(content, ext string) int {
	var set []weightedPattern
	switch ext {
	case ".py":
		set = pythonTestIndicators
	case ".js", ".jsx", ".ts", ".tsx":
		set = javascriptTestIndicators
	case ".java":
		set = javaTestIndicators
	default:
		set = genericTestIndicators
	}
	score := 0
	for _, p := range set {
		if p.re.MatchString(content) {
			score += p.weight
		}
	}
	return score
}

// testFrameworkSignatures are checked in declaration order; the first
// framework with any matching signature wins.
var testFrameworkSignatures = []struct {
	framework string
	patterns  []*regexp.Regexp
}{
	{"pytest", []*regexp.Regexp{
		regexp.MustCompile(`import pytest`),
		regexp.MustCompile(`@pytest\.fixture`),
		regexp.MustCompile(`@pytest\.mark`),
		regexp.MustCompile(`pytest\.`),
	}},
	{"unittest", []*regexp.Regexp{
		regexp.MustCompile(`import unittest`),
		regexp.MustCompile(`class.*TestCase`),
		regexp.MustCompile(`self\.assert`),
		regexp.MustCompile(`unittest\.main`),
	}},
	{"jest", []*regexp.Regexp{
		regexp.MustCompile(`jest\.`),
		regexp.MustCompile(`expect\(`),
		regexp.MustCompile(`describe\(`),
		regexp.MustCompile(`beforeEach\(|afterEach\(`),
	}},
	{"mocha", []*regexp.Regexp{
		regexp.MustCompile(`chai\.expect`),
		regexp.MustCompile(`\bbefore\(|\bafter\(`),
	}},
	{"junit", []*regexp.Regexp{
		regexp.MustCompile(`import org\.junit`),
		regexp.MustCompile(`@Test`),
		regexp.MustCompile(`Assert\.`),
		regexp.MustCompile(`assertEquals`),
	}},
	{"testng", []*regexp.Regexp{
		regexp.MustCompile(`import org\.testng`),
	}},
}

// TestFramework infers the test framework from file content, returning
// "unknown" when no signature matches.
func TestFramework(content string) string {
	for _, fw := range testFrameworkSignatures {
		for _, re := range fw.patterns {
			if re.MatchString(content) {
				return fw.framework
			}
		}
	}
	return "unknown"
}
