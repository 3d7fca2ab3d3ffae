package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/teris-io/cli"
	"its-hmny.dev/nand2tetris/pkg/asm"
	"its-hmny.dev/nand2tetris/pkg/hack"
)

var Description = strings.ReplaceAll(`
The Hack Assembler takes assembly language code written in the Hack assembly language
and translates it into machine code that can be executed by the Hack computer. The process
involves parsing the assembly code, resolving symbols, and generating machine code.
`, "\n", " ")

var HackAssembler = cli.New(Description).
	WithArg(cli.NewArg("inputs", "The assembler (.asm) file(s) to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	// Output path is derived (see §6): 'foo.asm' assembles to 'foo.hack', never a caller
	// supplied second argument. Every input is assembled independently, its own pass 1/pass
	// 2 and its own Hack symbol table, exactly as the single-file invariant in §3 requires.
	for _, input := range args {
		if err := assembleOne(input); err != nil {
			fmt.Printf("ERROR: %s\n", err)
			return -1
		}
	}

	return 0
}

func assembleOne(input string) error {
	content, err := os.ReadFile(input)
	if err != nil {
		return errors.Wrapf(err, "unable to open input file '%s'", input)
	}

	outputPath := strings.TrimSuffix(input, filepath.Ext(input)) + ".hack"
	output, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrapf(err, "unable to open output file '%s'", outputPath)
	}
	defer output.Close()

	// Instantiate a parser for the Asm program
	parser := asm.NewParser(bytes.NewReader(content))
	// Parses the input file content and extract an AST (as a 'asm.Program') from it.
	asmProgram, err := parser.Parse()
	if err != nil {
		return errors.Wrapf(err, "unable to complete 'parsing' pass on '%s'", input)
	}

	// Instantiate a lowerer to convert the program from Asm to Hack
	lowerer := asm.NewLowerer(asmProgram)
	// Lowers the asm.Program to an in-memory/IR representation of its Hack counterpart 'hack.Program'.
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		return errors.Wrapf(err, "unable to complete 'lowering' pass on '%s'", input)
	}

	// Now, instantiates a code generator for the Hack (compiled) program
	codegen := hack.NewCodeGenerator(hackProgram, table)
	// Iterates over each instruction and spits out the relative textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		return errors.Wrapf(err, "unable to complete 'codegen' pass on '%s'", input)
	}

	for _, comp := range compiled {
		line := fmt.Sprintf("%s\n", comp)
		output.Write([]byte(line))
	}

	return nil
}

func main() { os.Exit(HackAssembler.Run(os.Args, os.Stdout)) }
