package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teris-io/cli"
	"its-hmny.dev/nand2tetris/pkg/asm"
	"its-hmny.dev/nand2tetris/pkg/vm"
)

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of multiple modules/files) written in
the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode'like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	// 'AsOptional()' allows to have more than one input .vm file or a directory of them
	WithArg(cli.NewArg("inputs", "The bytecode (.vm) file(s) or directory to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("bootstrap", "Includes bootstrap code (SP=256; call Sys.init 0) in the final .asm file").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	// Output path is derived, never requested of the caller (see §6): a lone directory
	// 'D/' compiles to 'D/D.asm', a lone '.vm' file 'foo.vm' compiles to 'foo.asm'; when
	// several standalone files are given explicitly we bundle them into the first file's
	// directory, named after that directory (mirrors how a directory argument behaves).
	outputPath, err := deriveOutputPath(args)
	if err != nil {
		fmt.Printf("ERROR: Unable to derive output path: %s\n", err)
		return -1
	}

	output, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	inputs, err := enumerateInputs(args)
	if err != nil {
		fmt.Printf("ERROR: Unable to enumerate input files: %s\n", err)
		return -1
	}

	// Allocates a 'vm.Program' struct to save all the parsed translation unit
	// (the .vm files) that will be parsed and lowered independently and then
	// sent to the codegen phases (that will create a monolithic compiled output).
	program := vm.Program{}

	// For every file provided by the user we do the following things
	for _, input := range inputs {
		content, err := os.ReadFile(input)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		// Instantiate a parser for the Vm program
		parser := vm.NewParser(bytes.NewReader(content))
		// Module name is the basename with its '.vm' extension stripped (see §3): the static
		// segment symbol for 'A.vm''s 'static 0' must read 'A.0', not 'A.vm.0'.
		filename, extension := path.Base(input), path.Ext(input)
		// Parses the input file content and extract an AST (as a 'vm.Module') from it.
		program[strings.TrimSuffix(filename, extension)], err = parser.Parse()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
			return -1
		}
	}

	// Instantiate a lowerer to convert the program from Vm to Asm
	lowerer := vm.NewLowerer(program)

	// When the user opts in to include the 'bootstrap' code as the first instructions of
	// our translated program, it must run before 'Lowerer()' so both share the same label
	// counter and the synthesized call to 'Sys.init' can't collide with anything below it.
	var bootstrap []asm.Instruction
	if _, enabled := options["bootstrap"]; enabled {
		bootstrap, err = lowerer.Bootstrap()
		if err != nil {
			fmt.Printf("ERROR: Unable to emit 'bootstrap' prologue: %s\n", err)
			return -1
		}
	}

	// Lowers the vm.Program to an in-memory/IR representation of its Asm counterpart 'asm.Program'.
	asmProgram, err := lowerer.Lowerer()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}
	asmProgram = append(bootstrap, asmProgram...)

	// Now, instantiates a code generator for the Asm (compiled) program
	codegen := asm.NewCodeGenerator(asmProgram)
	// Iterates over each instruction and spits out the relative textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	for _, comp := range compiled {
		line := fmt.Sprintf("%s\n", comp)
		output.Write([]byte(line))
	}

	return 0
}

// deriveOutputPath applies the §6 output-path rule: a directory compiles to '<dir>/<dir>.asm',
// a single file compiles to '<file-without-ext>.asm'; several explicit files bundle into the
// first one's directory (the nand2tetris convention of "every .vm file in a folder is one program").
func deriveOutputPath(args []string) (string, error) {
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return "", err
		}
		if info.IsDir() {
			base := filepath.Base(filepath.Clean(args[0]))
			return filepath.Join(args[0], base+".asm"), nil
		}
		return strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".asm", nil
	}

	dir := filepath.Dir(args[0])
	base := filepath.Base(filepath.Clean(dir))
	return filepath.Join(dir, base+".asm"), nil
}

// enumerateInputs walks every positional argument, recursing into directories, and returns
// every '.vm' file found, sorted so translation (and thus label numbering) is reproducible.
func enumerateInputs(args []string) ([]string, error) {
	inputs := []string{}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}

		err = filepath.Walk(arg, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || filepath.Ext(p) != ".vm" {
				return nil
			}
			inputs = append(inputs, p)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(inputs)
	return inputs, nil
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
