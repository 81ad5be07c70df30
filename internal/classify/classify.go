// Package classify maps file paths and contents to technology tags,
// test-file judgments, and framework tags. All detection here is
// best-effort keyword matching over paths and source text.
package classify

import (
	"path/filepath"
	"strings"
)

// techByExtension is the closed extension table. Lookups that miss fall
// through to the manifest table, then to no technology.
var techByExtension = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "javascript",
	".tsx":   "javascript",
	".vue":   "javascript",
	".java":  "java",
	".go":    "go",
	".rs":    "rust",
	".cpp":   "cpp",
	".c":     "cpp",
	".h":     "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".rb":    "ruby",
	".swift": "swift",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".html":  "html",
	".htm":   "html",
	".css":   "css",
	".scss":  "css",
	".sass":  "css",
	".less":  "css",
}

// manifestTech maps well-known manifest filenames (substring match on
// the lowercased base name) to a technology and pseudo-extension.
var manifestTech = []struct {
	name string
	tech string
	ext  string
}{
	{"requirements.txt", "python", ".txt"},
	{"package.json", "javascript", ".json"},
	{"pom.xml", "java", ".xml"},
	{"build.gradle", "java", ".gradle"},
	{"go.mod", "go", ".mod"},
	{"cargo.toml", "rust", ".toml"},
	{"composer.json", "php", ".json"},
	{"gemfile", "ruby", ""},
	{"docker-compose.yml", "docker", ".yml"},
	{"dockerfile", "docker", ""},
}

// Classify resolves the technology tag and extension for a path.
// Technology is empty when neither the extension nor the manifest
// tables match.
func Classify(path string) (tech, ext string) {
	base := strings.ToLower(filepath.Base(path))
	ext = strings.ToLower(filepath.Ext(base))
	if t, ok := techByExtension[ext]; ok {
		return t, ext
	}
	for _, m := range manifestTech {
		if strings.Contains(base, m.name) {
			return m.tech, m.ext
		}
	}
	return "", ext
}

// importantHiddenFiles are dotfiles that are still worth scanning.
var importantHiddenFiles = map[string]struct{}{
	".gitignore":      {},
	".gitattributes":  {},
	".env.example":    {},
	".eslintrc.js":    {},
	".eslintrc.json":  {},
	".prettierrc":     {},
	".babelrc":        {},
	".npmrc":          {},
	".nvmrc":          {},
	".dockerignore":   {},
	".eslintignore":   {},
	".prettierignore": {},
	".python-version": {},
	".ruby-version":   {},
	".node-version":   {},
}

// Hidden reports whether any path segment starts with a dot. The
// ".github" directory and a fixed set of config dotfiles are exempt.
func Hidden(path string) bool {
	segs := strings.Split(filepath.ToSlash(path), "/")
	for i, seg := range segs {
		if seg == "." || seg == ".." || seg == ".github" {
			continue
		}
		if strings.HasPrefix(seg, ".") {
			if i == len(segs)-1 {
				if _, ok := importantHiddenFiles[strings.ToLower(seg)]; ok {
					continue
				}
			}
			return true
		}
	}
	return false
}
