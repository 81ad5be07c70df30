package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// SourceStructure is a shallow structural summary of one source file,
// extracted with line-level heuristics. It feeds the data document so
// the provider can orient itself without re-deriving the outline.
type SourceStructure struct {
	Imports       []string
	Classes       []string
	Functions     []string
	HasRoutes     bool
	HasDBAccess   bool
	HasErrorPaths bool
	ConfigKeys    []string
}

var (
	rePyImport  = regexp.MustCompile(`^\s*(?:from\s+(\S+)\s+import|import\s+(\S+))`)
	reJSImport  = regexp.MustCompile(`^\s*import\s+.*?from\s+['"]([^'"]+)['"]|require\(\s*['"]([^'"]+)['"]\s*\)`)
	rePyClass   = regexp.MustCompile(`^\s*class\s+(\w+)`)
	reJSClass   = regexp.MustCompile(`^\s*(?:export\s+)?class\s+(\w+)`)
	rePyFunc    = regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)`)
	reJSFunc    = regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)|^\s*(?:const|let)\s+(\w+)\s*=\s*(?:async\s*)?\(`)
	reRouteHint = regexp.MustCompile(`@(?:app|router|bp|blueprint)\.\w+\(|\.(?:get|post|put|delete|patch)\(\s*['"]/`)
	reDBHint    = regexp.MustCompile(`(?i)\b(?:session|cursor|query|execute|SELECT |INSERT |UPDATE |DELETE FROM|\.save\(|\.find\(|\.findOne\()`)
	reErrHint   = regexp.MustCompile(`^\s*(?:try\b|except\b|raise\b|throw\b|catch\b|}\s*catch\b)`)
	reConfigKey = regexp.MustCompile(`os\.getenv\(\s*['"](\w+)['"]|os\.environ\[\s*['"](\w+)['"]|process\.env\.(\w+)`)
)

const maxStructureItems = 20

// AnalyzeSource extracts the structural summary from raw source bytes.
// Unknown technologies still get the generic route, DB, error and
// config passes.
func AnalyzeSource(content []byte, technology string) *SourceStructure {
	s := &SourceStructure{}
	for _, line := range strings.Split(string(content), "\n") {
		switch technology {
		case "python":
			if m := rePyImport.FindStringSubmatch(line); m != nil {
				s.Imports = appendCapped(s.Imports, firstGroup(m))
			}
			if m := rePyClass.FindStringSubmatch(line); m != nil {
				s.Classes = appendCapped(s.Classes, m[1])
			}
			if m := rePyFunc.FindStringSubmatch(line); m != nil {
				s.Functions = appendCapped(s.Functions, m[1])
			}
		case "javascript":
			if m := reJSImport.FindStringSubmatch(line); m != nil {
				s.Imports = appendCapped(s.Imports, firstGroup(m))
			}
			if m := reJSClass.FindStringSubmatch(line); m != nil {
				s.Classes = appendCapped(s.Classes, m[1])
			}
			if m := reJSFunc.FindStringSubmatch(line); m != nil {
				s.Functions = appendCapped(s.Functions, firstGroup(m))
			}
		}
		if reRouteHint.MatchString(line) {
			s.HasRoutes = true
		}
		if reDBHint.MatchString(line) {
			s.HasDBAccess = true
		}
		if reErrHint.MatchString(line) {
			s.HasErrorPaths = true
		}
		if m := reConfigKey.FindStringSubmatch(line); m != nil {
			s.ConfigKeys = appendCapped(s.ConfigKeys, firstGroup(m))
		}
	}
	return s
}

// Render formats the summary as the STRUCTURE section body. Returns an
// empty string when nothing was extracted, so the section is skipped.
func (s *SourceStructure) Render() string {
	var buf strings.Builder
	writeList(&buf, "Imports", s.Imports)
	writeList(&buf, "Classes", s.Classes)
	writeList(&buf, "Functions", s.Functions)
	if s.HasRoutes {
		buf.WriteString("Declares HTTP routes\n")
	}
	if s.HasDBAccess {
		buf.WriteString("Performs database access\n")
	}
	if s.HasErrorPaths {
		buf.WriteString("Contains explicit error handling\n")
	}
	writeList(&buf, "Config keys", s.ConfigKeys)
	return strings.TrimRight(buf.String(), "\n")
}

func writeList(buf *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(buf, "%s: %s\n", label, strings.Join(items, ", "))
}

func appendCapped(list []string, item string) []string {
	if item == "" || len(list) >= maxStructureItems {
		return list
	}
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

// firstGroup returns the first non-empty capture group.
func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
