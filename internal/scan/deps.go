package scan

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxDepsPerTech bounds each dependency list to keep prompts small.
const maxDepsPerTech = 15

// ParseDependencies reads the Python and Node manifests at the repo
// root, if present. Each list is capped at maxDepsPerTech entries.
func ParseDependencies(root string) map[string][]string {
	out := map[string][]string{}

	for _, name := range []string{"requirements.txt", "setup.py", "pyproject.toml"} {
		deps := parsePythonRequirements(filepath.Join(root, name))
		if len(deps) > 0 {
			out["python"] = capList(deps)
			break
		}
	}

	if deps := parsePackageJSON(filepath.Join(root, "package.json")); len(deps) > 0 {
		out["javascript"] = capList(deps)
	}
	return out
}

// parsePythonRequirements handles requirements.txt-style lines: one
// package per line, version specifiers and trailing comments stripped.
func parsePythonRequirements(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var deps []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		for _, sep := range []string{"==", ">=", "<=", "~=", "#"} {
			if idx := strings.Index(line, sep); idx >= 0 {
				line = line[:idx]
			}
		}
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "[") {
			deps = append(deps, line)
		}
	}
	return deps
}

func parsePackageJSON(path string) []string {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(b, &manifest); err != nil {
		return nil
	}
	deps := sortedKeys(manifest.Dependencies)
	deps = append(deps, sortedKeys(manifest.DevDependencies)...)
	return deps
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func capList(deps []string) []string {
	if len(deps) > maxDepsPerTech {
		return deps[:maxDepsPerTech]
	}
	return deps
}
