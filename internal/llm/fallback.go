package llm

import (
	"fmt"
	"strings"

	"qaforge/internal/prompt"
)

// Fallback returns a deterministic, syntactically valid test skeleton
// for when every provider is exhausted. The output is keyed by test
// type, framework and target, so repeated runs produce identical
// content.
func Fallback(testType, framework, target string) string {
	label := target
	if label == "" {
		label = "application"
	}
	switch prompt.LanguageForFramework(framework) {
	case "python":
		return pythonFallback(testType, framework, label)
	case "javascript":
		return javascriptFallback(testType, label)
	case "java":
		return javaFallback(testType, label)
	default:
		return genericFallback(testType, framework, label)
	}
}

func pythonFallback(testType, framework, target string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\"\"\"Generated %s test skeleton for %s.\"\"\"\n", testType, target)
	if framework == "unittest" {
		b.WriteString("import unittest\n\n\n")
		fmt.Fprintf(&b, "class Test%s(unittest.TestCase):\n", identifier(testType))
		b.WriteString("    def test_basic_functionality(self):\n")
		fmt.Fprintf(&b, "        \"\"\"Replace with real assertions for %s.\"\"\"\n", target)
		b.WriteString("        self.assertTrue(True)\n\n\n")
		b.WriteString("if __name__ == \"__main__\":\n    unittest.main()\n")
		return b.String()
	}
	b.WriteString("import pytest\n\n\n")
	b.WriteString("def test_basic_functionality():\n")
	fmt.Fprintf(&b, "    \"\"\"Replace with real assertions for %s.\"\"\"\n", target)
	b.WriteString("    assert True\n")
	if testType == "api" {
		b.WriteString("\n\ndef test_endpoint_responds():\n")
		fmt.Fprintf(&b, "    \"\"\"Call the %s endpoint and assert the status code.\"\"\"\n", target)
		b.WriteString("    assert True\n")
	}
	return b.String()
}

func javascriptFallback(testType, target string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// Generated %s test skeleton for %s.\n", testType, target)
	fmt.Fprintf(&b, "describe(%q, () => {\n", target)
	b.WriteString("  it(\"has basic functionality\", () => {\n")
	b.WriteString("    expect(true).toBe(true);\n")
	b.WriteString("  });\n")
	b.WriteString("});\n")
	return b.String()
}

func javaFallback(testType, target string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// Generated %s test skeleton for %s.\n", testType, target)
	b.WriteString("import org.junit.jupiter.api.Test;\n")
	b.WriteString("import static org.junit.jupiter.api.Assertions.assertTrue;\n\n")
	fmt.Fprintf(&b, "class %sTest {\n", identifier(target))
	b.WriteString("    @Test\n")
	b.WriteString("    void basicFunctionality() {\n")
	b.WriteString("        assertTrue(true);\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String()
}

func genericFallback(testType, framework, target string) string {
	return fmt.Sprintf("# Generated %s test skeleton for %s (%s).\n# Replace with real test cases.\nassert True\n", testType, target, framework)
}

// identifier turns an arbitrary label into a bare CamelCase token.
func identifier(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			if upper {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
			upper = false
		case r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			upper = false
		default:
			upper = true
		}
	}
	if b.Len() == 0 {
		return "Generated"
	}
	return b.String()
}
