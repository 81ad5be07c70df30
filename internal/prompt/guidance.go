package prompt

import "strings"

// frameworkLanguages maps a test framework tag to the language its
// tests are written in.
var frameworkLanguages = map[string]string{
	"pytest":     "python",
	"unittest":   "python",
	"selenium":   "python",
	"jest":       "javascript",
	"mocha":      "javascript",
	"jasmine":    "javascript",
	"cypress":    "javascript",
	"playwright": "javascript",
	"junit":      "java",
	"testng":     "java",
}

// LanguageForFramework returns the implementation language for a test
// framework tag, or "unknown" for unrecognized tags.
func LanguageForFramework(framework string) string {
	if lang, ok := frameworkLanguages[strings.ToLower(framework)]; ok {
		return lang
	}
	return "unknown"
}

var typeGuidance = map[string]string{
	"unit": `Write isolated unit tests. Each test exercises one function or method.
Mock all external collaborators. Cover the happy path, boundary values,
and error paths. Use descriptive test names that state the behavior.`,
	"integration": `Write integration tests that exercise real interactions between
modules. Use test doubles only at the process boundary. Verify data
flows end to end through the layers involved.`,
	"api": `Write API tests against the HTTP surface. Exercise each endpoint
with valid and invalid payloads, assert status codes, response schemas
and error bodies. Include at least one authentication or authorization
check when the endpoint mutates state.`,
	"e2e": `Write end-to-end tests that drive the application through its user
interface. Model complete user journeys, wait on observable state
rather than fixed delays, and keep selectors resilient.`,
}

var frameworkGuidance = map[string]string{
	"pytest":   "Use plain pytest functions with fixtures. Prefer parametrize for input grids. Use pytest.raises for error paths.",
	"unittest": "Use unittest.TestCase subclasses with setUp/tearDown. Assert with the self.assert* family.",
	"jest":     "Use describe/it blocks. Mock modules with jest.mock. Use expect matchers and async/await for asynchronous code.",
	"mocha":    "Use describe/it blocks with chai assertions. Handle async code with async/await or done callbacks.",
	"junit":    "Use JUnit 5 annotations (@Test, @BeforeEach). Assert with org.junit.jupiter.api.Assertions. Mock with Mockito.",
	"testng":   "Use TestNG annotations with data providers for parameterized cases.",
	"cypress":  "Use cy commands with data-* selectors. Intercept network calls with cy.intercept. Avoid fixed waits.",
	"selenium": "Use explicit WebDriverWait conditions. Keep locators in one place. Close the driver in teardown.",
}

// guidance joins the test-type and framework guidance blocks.
func guidance(testType, framework string) string {
	parts := []string{}
	if g, ok := typeGuidance[strings.ToLower(testType)]; ok {
		parts = append(parts, g)
	}
	if g, ok := frameworkGuidance[strings.ToLower(framework)]; ok {
		parts = append(parts, g)
	}
	return strings.Join(parts, "\n\n")
}
