package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHackAssembler(t *testing.T) {
	test := func(source string, expected string) {
		dir := t.TempDir()
		input := filepath.Join(dir, "program.asm")
		if err := os.WriteFile(input, []byte(source), 0644); err != nil {
			t.Fatalf("error writing fixture file: %v", err)
		}

		status := Handler([]string{input}, nil)
		if status != 0 {
			t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
		}

		output := filepath.Join(dir, "program.hack")
		compiled, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("error reading output file %s: %v", output, err)
		}

		// The inline 'expected' fixture is indented to match the source, the output never is
		wantLines := []string{}
		for _, line := range strings.Split(expected, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				wantLines = append(wantLines, line)
			}
		}
		got := strings.TrimRight(string(compiled), "\n")
		want := strings.Join(wantLines, "\n")
		if got != want {
			t.Fatalf("output mismatch:\ngot:\n%s\nwant:\n%s", got, want)
		}
	}

	t.Run("Add", func(t *testing.T) {
		// Computes R0 = 2 + 3, the canonical smoke test for the assembler.
		test(`
			@2
			D=A
			@3
			D=D+A
			@0
			M=D
		`, `
			0000000000000010
			1110110000010000
			0000000000000011
			1110000010010000
			0000000000000000
			1110001100001000
		`)
	})

	t.Run("MaxL", func(t *testing.T) {
		// Computes max(R0, R1) into R2, exercising built-in registers, user labels and jumps.
		test(`
			@R0
			D=M
			@R1
			D=D-M
			@OUTPUT_FIRST
			D;JGT
			@R1
			D=M
			@OUTPUT_D
			0;JMP
			(OUTPUT_FIRST)
			@R0
			D=M
			(OUTPUT_D)
			@R2
			M=D
		`, `
			0000000000000000
			1111110000010000
			0000000000000001
			1111010011010000
			0000000000001010
			1110001100000001
			0000000000000001
			1111110000010000
			0000000000001100
			1110101010000111
			0000000000000000
			1111110000010000
			0000000000000010
			1110001100001000
		`)
	})

	t.Run("Variables", func(t *testing.T) {
		// 'i' and 'sum' are undeclared symbols: they must be allocated starting at RAM address 16.
		test(`
			@i
			M=0
			@sum
			M=0
			@i
			D=M
			@sum
			M=D+M
		`, `
			0000000000010000
			1110101010001000
			0000000000010001
			1110101010001000
			0000000000010000
			1111110000010000
			0000000000010001
			1111000010001000
		`)
	})
}
