package llm

import (
	"testing"

	"qaforge/internal/tester"
)

func TestFallbackPytestShape(t *testing.T) {
	content := Fallback("unit", "pytest", "orders.py")

	tester.Contains(t, content, "import pytest")
	tester.Contains(t, content, "def test_basic_functionality")
	tester.Contains(t, content, "assert True")
}

func TestFallbackUnittestShape(t *testing.T) {
	content := Fallback("unit", "unittest", "orders.py")

	tester.Contains(t, content, "import unittest")
	tester.Contains(t, content, "self.assertTrue(True)")
}

func TestFallbackJestShape(t *testing.T) {
	content := Fallback("unit", "jest", "cart.js")

	tester.Contains(t, content, "describe(")
	tester.Contains(t, content, "expect(true).toBe(true)")
}

func TestFallbackJUnitShape(t *testing.T) {
	content := Fallback("unit", "junit", "OrderService")

	tester.Contains(t, content, "@Test")
	tester.Contains(t, content, "class OrderServiceTest")
	tester.Contains(t, content, "assertTrue(true)")
}

func TestFallbackUnknownFramework(t *testing.T) {
	content := Fallback("unit", "qunit", "thing")
	tester.True(t, content != "")
}

func TestFallbackDeterministic(t *testing.T) {
	a := Fallback("api", "pytest", "orders")
	b := Fallback("api", "pytest", "orders")
	tester.Eq(t, a, b)
}

func TestIdentifier(t *testing.T) {
	tester.Eq(t, identifier("order_service"), "OrderService")
	tester.Eq(t, identifier("orders.py"), "OrdersPy")
	tester.Eq(t, identifier(""), "Generated")
}
