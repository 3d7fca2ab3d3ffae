package jack_test

import (
	"strings"
	"testing"

	"its-hmny.dev/nand2tetris/pkg/jack"
)

func parseOrFail(t *testing.T, source string) jack.Class {
	t.Helper()
	parser := jack.NewParser(strings.NewReader(source))
	class, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected error parsing class: %v", err)
	}
	return class
}

func TestTypeCheckerUndefinedIdentifier(t *testing.T) {
	t.Run("Valid program, every identifier is declared", func(t *testing.T) {
		class := parseOrFail(t, `
			class Main {
				field int total;

				method void add(int amount) {
					let total = total + amount;
					return;
				}
			}
		`)

		checker := jack.NewTypeChecker(jack.Program{"Main": class})
		if ok, err := checker.Check(); !ok || err != nil {
			t.Fatalf("expected program to type-check cleanly, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("Undefined variable in an expression", func(t *testing.T) {
		class := parseOrFail(t, `
			class Main {
				function void run() {
					let total = total + 1;
					return;
				}
			}
		`)

		checker := jack.NewTypeChecker(jack.Program{"Main": class})
		if ok, err := checker.Check(); ok || err == nil {
			t.Fatalf("expected type-checking to fail on undefined identifier 'total', got ok=%v err=%v", ok, err)
		}
	})
}

func TestTypeCheckerArrayIndexing(t *testing.T) {
	t.Run("Indexing a declared Array variable", func(t *testing.T) {
		class := parseOrFail(t, `
			class Main {
				function void run() {
					var Array nums;
					let nums[0] = 1;
					return;
				}
			}
		`)

		checker := jack.NewTypeChecker(jack.Program{"Main": class})
		if ok, err := checker.Check(); !ok || err != nil {
			t.Fatalf("expected program to type-check cleanly, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("Indexing a non-Array variable", func(t *testing.T) {
		class := parseOrFail(t, `
			class Main {
				function void run() {
					var int nums;
					let nums[0] = 1;
					return;
				}
			}
		`)

		checker := jack.NewTypeChecker(jack.Program{"Main": class})
		if ok, err := checker.Check(); ok || err == nil {
			t.Fatalf("expected type-checking to fail indexing a non-Array variable, got ok=%v err=%v", ok, err)
		}
	})
}
