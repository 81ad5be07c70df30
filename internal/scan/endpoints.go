package scan

import (
	"regexp"
	"strings"

	"qaforge/internal/schema"
)

// Route decorator patterns, matched line by line. FastAPI first since
// its decorators would also satisfy the generic method pattern.
var (
	reFastAPI = regexp.MustCompile(`@(app|router)\.(get|post|put|delete|patch|options|head)\s*\(\s*["']([^"']+)["']`)
	reFlaskM  = regexp.MustCompile(`@(app|bp|blueprint)\.route\s*\(\s*["']([^"']+)["']\s*,\s*methods\s*=\s*\[([^\]]+)\]`)
	reFlask   = regexp.MustCompile(`@(app|bp|blueprint)\.route\s*\(\s*["']([^"']+)["']`)
	reGeneric = regexp.MustCompile(`\.(get|post|put|delete|patch)\s*\(\s*["']([^"']+)["']`)
	reAddRt   = regexp.MustCompile(`\.add_route\s*\(\s*["']([^"']+)["']`)
	reDef     = regexp.MustCompile(`(?:async\s+)?def\s+(\w+)\s*\(`)
)

// DetectEndpoints scans source text for HTTP route declarations. Each
// line yields at most one endpoint; the handler name is taken from the
// first function definition within the next few lines.
func DetectEndpoints(relPath string, content []byte) []schema.Endpoint {
	if len(content) == 0 {
		return nil
	}
	lines := strings.Split(string(content), "\n")
	var out []schema.Endpoint

	for i, line := range lines {
		if m := reFastAPI.FindStringSubmatch(line); m != nil {
			out = append(out, schema.Endpoint{
				Method:       strings.ToUpper(m[2]),
				Path:         m[3],
				File:         relPath,
				FunctionName: handlerName(lines, i),
				Framework:    "FastAPI",
				Line:         i + 1,
			})
			continue
		}
		if m := reFlaskM.FindStringSubmatch(line); m != nil {
			for _, method := range splitMethods(m[3]) {
				out = append(out, schema.Endpoint{
					Method:       method,
					Path:         m[2],
					File:         relPath,
					FunctionName: handlerName(lines, i),
					Framework:    "Flask",
					Line:         i + 1,
				})
			}
			continue
		}
		if m := reFlask.FindStringSubmatch(line); m != nil {
			out = append(out, schema.Endpoint{
				Method:       "GET",
				Path:         m[2],
				File:         relPath,
				FunctionName: handlerName(lines, i),
				Framework:    "Flask",
				Line:         i + 1,
			})
			continue
		}
		if m := reGeneric.FindStringSubmatch(line); m != nil {
			out = append(out, schema.Endpoint{
				Method:       strings.ToUpper(m[1]),
				Path:         m[2],
				File:         relPath,
				FunctionName: handlerName(lines, i),
				Framework:    "Generic",
				Line:         i + 1,
			})
			continue
		}
		if m := reAddRt.FindStringSubmatch(line); m != nil {
			out = append(out, schema.Endpoint{
				Method:       "GET",
				Path:         m[1],
				File:         relPath,
				FunctionName: handlerName(lines, i),
				Framework:    "Generic",
				Line:         i + 1,
			})
		}
	}
	return out
}

// handlerName looks a few lines past a decorator for the function it wraps.
func handlerName(lines []string, decoratorIdx int) string {
	limit := decoratorIdx + 5
	if limit > len(lines) {
		limit = len(lines)
	}
	for i := decoratorIdx + 1; i < limit; i++ {
		if m := reDef.FindStringSubmatch(lines[i]); m != nil {
			return m[1]
		}
	}
	return "unknown_function"
}

func splitMethods(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	if len(out) == 0 {
		out = append(out, "GET")
	}
	return out
}
