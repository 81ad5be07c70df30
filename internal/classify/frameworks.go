package classify

import (
	"regexp"
	"sort"
	"strings"
)

// frameworkRule lists the evidence kinds for one framework. Each kind
// (import, pattern, filename, config token) contributes at most one
// point per file; a framework is reported only when the points summed
// across the whole project reach minMatches.
type frameworkRule struct {
	tech       string
	imports    []string
	patterns   []*regexp.Regexp
	files      []string
	configs    []string
	minMatches int
}

var frameworkRules = map[string]frameworkRule{
	"django": {
		tech:       "python",
		imports:    []string{"from django", "import django"},
		patterns:   []*regexp.Regexp{regexp.MustCompile(`from django\.`), regexp.MustCompile(`import django\.`)},
		files:      []string{"manage.py", "wsgi.py", "asgi.py"},
		configs:    []string{"DJANGO", "django.contrib"},
		minMatches: 3,
	},
	"flask": {
		tech:       "python",
		imports:    []string{"from flask", "import flask"},
		patterns:   []*regexp.Regexp{regexp.MustCompile(`from flask\.`), regexp.MustCompile(`import flask\.`), regexp.MustCompile(`@app\.route`)},
		files:      []string{"app.py", "application.py"},
		configs:    []string{"FLASK", "Flask"},
		minMatches: 2,
	},
	"fastapi": {
		tech:       "python",
		imports:    []string{"from fastapi", "import fastapi"},
		patterns:   []*regexp.Regexp{regexp.MustCompile(`from fastapi\.`), regexp.MustCompile(`import fastapi\.`), regexp.MustCompile(`@app\.`)},
		files:      []string{"main.py"},
		configs:    []string{"FastAPI"},
		minMatches: 2,
	},
	"pandas": {
		tech:       "python",
		imports:    []string{"import pandas", "from pandas"},
		patterns:   []*regexp.Regexp{regexp.MustCompile(`pd\.`), regexp.MustCompile(`pandas\.`)},
		minMatches: 2,
	},
	"numpy": {
		tech:       "python",
		imports:    []string{"import numpy", "from numpy"},
		patterns:   []*regexp.Regexp{regexp.MustCompile(`np\.`), regexp.MustCompile(`numpy\.`)},
		minMatches: 2,
	},
	"react": {
		tech:       "javascript",
		imports:    []string{"import React", "from react"},
		patterns:   []*regexp.Regexp{regexp.MustCompile(`import.*from.*react`), regexp.MustCompile(`React\.`)},
		files:      []string{"package.json"},
		minMatches: 2,
	},
	"vue": {
		tech:       "javascript",
		imports:    []string{"import Vue", "from vue"},
		patterns:   []*regexp.Regexp{regexp.MustCompile(`import.*from.*vue`), regexp.MustCompile(`Vue\.`)},
		files:      []string{"package.json"},
		minMatches: 2,
	},
	"angular": {
		tech:       "javascript",
		imports:    []string{"@angular"},
		patterns:   []*regexp.Regexp{regexp.MustCompile(`@angular/`)},
		files:      []string{"package.json"},
		minMatches: 2,
	},
	"express": {
		tech:       "javascript",
		imports:    []string{"require('express')", "import express"},
		patterns:   []*regexp.Regexp{regexp.MustCompile(`app\.get`), regexp.MustCompile(`app\.post`), regexp.MustCompile(`app\.use`)},
		files:      []string{"package.json", "app.js", "server.js"},
		minMatches: 2,
	},
	"node.js": {
		tech:       "javascript",
		patterns:   []*regexp.Regexp{regexp.MustCompile(`module\.exports`), regexp.MustCompile(`require\(`), regexp.MustCompile(`__dirname`), regexp.MustCompile(`__filename`)},
		files:      []string{"package.json"},
		minMatches: 3,
	},
}

// FrameworkDetector accumulates per-framework evidence across files.
// One detector serves one scan pass.
type FrameworkDetector struct {
	evidence map[string]int
}

func NewFrameworkDetector() *FrameworkDetector {
	return &FrameworkDetector{evidence: map[string]int{}}
}

// AddFile scores a single non-test source file. Only rules registered
// for the file's technology are evaluated.
func (d *FrameworkDetector) AddFile(tech, filename string, content []byte) {
	text := string(content)
	base := strings.ToLower(filename)
	for name, rule := range frameworkRules {
		if rule.tech != tech {
			continue
		}
		points := 0
		for _, imp := range rule.imports {
			if strings.Contains(text, imp) {
				points++
				break
			}
		}
		for _, re := range rule.patterns {
			if re.MatchString(text) {
				points++
				break
			}
		}
		for _, f := range rule.files {
			if strings.Contains(base, f) {
				points++
				break
			}
		}
		for _, cfg := range rule.configs {
			if strings.Contains(text, cfg) {
				points++
				break
			}
		}
		if points > 0 {
			d.evidence[name] += points
		}
	}
}

// Frameworks returns the frameworks whose accumulated evidence reached
// their threshold, sorted for deterministic output.
func (d *FrameworkDetector) Frameworks() []string {
	out := []string{}
	for name, points := range d.evidence {
		if points >= frameworkRules[name].minMatches {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// DetectFrameworks scores a single file's content against the rules for
// the given technology. Best-effort: keyword hits inside comments or
// strings count too.
func DetectFrameworks(content []byte, tech string) []string {
	d := NewFrameworkDetector()
	d.AddFile(tech, "", content)
	out := []string{}
	for name, points := range d.evidence {
		if points >= frameworkRules[name].minMatches {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
