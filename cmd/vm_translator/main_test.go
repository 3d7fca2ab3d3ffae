package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVMTranslator(t *testing.T) {
	test := func(source string, expected string) {
		dir := t.TempDir()
		input := filepath.Join(dir, "program.vm")
		if err := os.WriteFile(input, []byte(source), 0644); err != nil {
			t.Fatalf("error writing fixture file: %v", err)
		}

		status := Handler([]string{input}, nil)
		if status != 0 {
			t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
		}

		compiled, err := os.ReadFile(filepath.Join(dir, "program.asm"))
		if err != nil {
			t.Fatalf("error reading output file: %v", err)
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

	t.Run("SimpleAdd", func(t *testing.T) {
		test(`
			push constant 7
			push constant 8
			add
		`, `
			@7
			D=A
			@SP
			A=M
			M=D
			@SP
			M=M+1
			@8
			D=A
			@SP
			A=M
			M=D
			@SP
			M=M+1
			@SP
			AM=M-1
			D=M
			A=A-1
			M=D+M
		`)
	})

	t.Run("PointerTest", func(t *testing.T) {
		test(`
			push constant 3030
			pop pointer 0
			push constant 3040
			pop pointer 1
			push this 2
			push that 6
			add
		`, `
			@3030
			D=A
			@SP
			A=M
			M=D
			@SP
			M=M+1
			@SP
			AM=M-1
			D=M
			@THIS
			M=D
			@3040
			D=A
			@SP
			A=M
			M=D
			@SP
			M=M+1
			@SP
			AM=M-1
			D=M
			@THAT
			M=D
			@THIS
			D=M
			@2
			A=D+A
			D=M
			@SP
			A=M
			M=D
			@SP
			M=M+1
			@THAT
			D=M
			@6
			A=D+A
			D=M
			@SP
			A=M
			M=D
			@SP
			M=M+1
			@SP
			AM=M-1
			D=M
			A=A-1
			M=D+M
		`)
	})

	t.Run("StaticTest", func(t *testing.T) {
		// 'static' is per-file: resolved to '<module>.<offset>', never a raw RAM address.
		test(`
			push constant 31
			pop static 0
		`, `
			@31
			D=A
			@SP
			A=M
			M=D
			@SP
			M=M+1
			@SP
			AM=M-1
			D=M
			@program.0
			M=D
		`)
	})

	t.Run("Comparison", func(t *testing.T) {
		// Asserts that a single comparison in isolation gets 'IF_TRUE.0'/'IF_END.0'.
		test(`
			push constant 5
			push constant 3
			gt
		`, `
			@5
			D=A
			@SP
			A=M
			M=D
			@SP
			M=M+1
			@3
			D=A
			@SP
			A=M
			M=D
			@SP
			M=M+1
			@SP
			AM=M-1
			D=M
			A=A-1
			D=M-D
			@IF_TRUE.0
			D;JGT
			@SP
			A=M-1
			M=0
			@IF_END.0
			0;JMP
			(IF_TRUE.0)
			@SP
			A=M-1
			M=-1
			(IF_END.0)
		`)
	})
}

func TestVMTranslatorBootstrap(t *testing.T) {
	// With '--bootstrap' the program must start with 'SP=256' followed by the *exact same*
	// call-frame protocol used for any regular 'call' (never a raw unconditional jump), since
	// Sys.init may itself be called back into and relies on a properly saved caller frame.
	dir := t.TempDir()
	source := `
		function Sys.init 0
		call Main.main 0
		return
	`
	if err := os.WriteFile(filepath.Join(dir, "Sys.vm"), []byte(source), 0644); err != nil {
		t.Fatalf("error writing fixture file: %v", err)
	}

	status := Handler([]string{dir}, map[string]string{"bootstrap": ""})
	if status != 0 {
		t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
	}

	base := filepath.Base(filepath.Clean(dir))
	compiled, err := os.ReadFile(filepath.Join(dir, base+".asm"))
	if err != nil {
		t.Fatalf("error reading output file: %v", err)
	}
	out := string(compiled)

	wantPrefix := []string{"@256", "D=A", "@SP", "M=D"}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	for i, want := range wantPrefix {
		if lines[i] != want {
			t.Fatalf("bootstrap prefix mismatch at line %d: got %q want %q", i, lines[i], want)
		}
	}

	// The bootstrap call must push a return address and all four segment pointers, exactly
	// like any other 'call', and must never degrade to a bare '@Sys.init' + unconditional jump.
	if !strings.Contains(out, "@Sys.init$ret.0") {
		t.Fatalf("bootstrap call is missing its return-address label:\n%s", out)
	}
	if !strings.Contains(out, "@LCL\nD=M") || !strings.Contains(out, "@ARG\nD=M") {
		t.Fatalf("bootstrap call is missing segment-pointer saves:\n%s", out)
	}

	// The bootstrap block ends at the call's return-address label, the body of 'Sys.init'
	// that follows has its own jumps ('call Main.main 0' and 'return')
	bootstrapEnd := strings.Index(out, "(Sys.init$ret.0)")
	if bootstrapEnd < 0 {
		t.Fatalf("bootstrap call is missing its return-address label declaration:\n%s", out)
	}
	bootstrapBlock := out[:bootstrapEnd]
	if strings.Count(bootstrapBlock, "0;JMP") != 1 {
		t.Fatalf("bootstrap must jump to 'Sys.init' exactly once via the call protocol, not a raw extra jump:\n%s", out)
	}
}
