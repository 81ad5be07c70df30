package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidResponse reports a provider response that cannot be used
// as test code.
var ErrInvalidResponse = errors.New("llm: invalid response")

// minResponseLength rejects responses too short to be real test code.
const minResponseLength = 30

// refusalPhrases mark responses where the model declined instead of
// generating code. The Russian entries cover providers replying in the
// request language.
var refusalPhrases = []string{
	"i cannot",
	"i can't",
	"i am unable",
	"i'm sorry",
	"as an ai",
	"извините, я не могу",
	"я не могу",
}

// codeIndicators are per-language substrings at least one of which a
// valid test must contain.
var codeIndicators = map[string][]string{
	"python":     {"def ", "import ", "class ", "assert"},
	"javascript": {"function", "describe(", "it(", "test(", "const ", "=>", "require("},
	"java":       {"class ", "@Test", "void "},
}

// genericIndicators apply when the language is unknown.
var genericIndicators = []string{"def ", "function", "class ", "{", "assert"}

// Validate rejects responses that are too short, are refusals, or
// contain no recognizable code for the language.
func Validate(response, language string) error {
	trimmed := strings.TrimSpace(response)
	if len(trimmed) < minResponseLength {
		return fmt.Errorf("%w: too short (%d chars)", ErrInvalidResponse, len(trimmed))
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return fmt.Errorf("%w: refusal phrase %q", ErrInvalidResponse, phrase)
		}
	}
	indicators, ok := codeIndicators[language]
	if !ok {
		indicators = genericIndicators
	}
	for _, ind := range indicators {
		if strings.Contains(trimmed, ind) {
			return nil
		}
	}
	return fmt.Errorf("%w: no code indicators for %s", ErrInvalidResponse, language)
}

// Clean strips surrounding markdown code fences and a leading language
// tag, returning the bare source.
func Clean(response string) string {
	out := strings.TrimSpace(response)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	lines := strings.Split(out, "\n")
	// Drop the opening fence line (possibly "```python").
	lines = lines[1:]
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
