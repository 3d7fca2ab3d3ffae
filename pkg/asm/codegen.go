package asm

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"

	"its-hmny.dev/nand2tetris/pkg/hack"
)

// A location in an A-instruction is either a raw decimal address or a symbolic identifier;
// identifiers follow the grammar's own lexical rule: a letter/underscore/dot/dollar/colon
// followed by any number of alphanumerics plus those same symbols. Anything else could never
// have come out of the parser legitimately, but codegen is also reachable from hand-built
// 'asm.Program' values (e.g. the Vm Translator's lowering pass), so it's checked again here.
var validLocation = regexp.MustCompile(`^([0-9]+|[A-Za-z_.$:][A-Za-z0-9_.$:]*)$`)

// Label declarations can never begin with a digit, since '(123)' would be ambiguous with a
// raw address if it ever leaked into an A-instruction location.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_.$:][A-Za-z0-9_.$:]*$`)

// ----------------------------------------------------------------------------
// Code Generator

// Takes some a set of 'asm.Instruction' and spits out their textual counterparts.
//
// The translation can be done without any additional data structure but the program.
type CodeGenerator struct {
	program Program // The set of instructions to convert in Asm textual format
}

// Initializes and returns to the caller a brand new 'CodeGenerator' struct.
// Requires that argument Program 'p' (what we want to translate) is non-nil.
func NewCodeGenerator(p Program) CodeGenerator {
	return CodeGenerator{program: p}
}

// Translate each statement in the 'program' field to the Asm textual format.
//
// Each instruction will pass through the following step: evaluation, validation and
// then conversion to its textual representation (a string) so that it can be further
// elaborated by the caller (e.g. dumping to a file, runtime interpretation, ...).
func (cg *CodeGenerator) Generate() ([]string, error) {
	asm := make([]string, 0, len(cg.program))

	for idx, statement := range cg.program {
		var generated string = ""
		var err error = nil

		switch tStatement := statement.(type) {
		case AInstruction:
			generated, err = cg.GenerateAInst(tStatement)
		case CInstruction:
			generated, err = cg.GenerateCInst(tStatement)
		case LabelDecl:
			generated, err = cg.GenerateLabelDecl(tStatement)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "error generating code for instruction at index %d", idx)
		}
		asm = append(asm, generated)
	}

	return asm, nil
}

// Specialized function to convert an A Instruction back to its textual Asm format, ('@location').
func (CodeGenerator) GenerateAInst(stmt AInstruction) (string, error) {
	if stmt.Location == "" {
		return "", errors.New("unable to produce empty label declaration")
	}
	if !validLocation.MatchString(stmt.Location) {
		return "", errors.Errorf("location '%s' is not a well formed identifier", stmt.Location)
	}
	// A raw numeric location must still fit the 15 address bits an A-instruction has available,
	// same bound the Hack code generator enforces once labels and variables get resolved to one.
	if num, err := strconv.ParseUint(stmt.Location, 10, 32); err == nil && num >= uint64(hack.MaxAddressableMemory) {
		return "", errors.Errorf("location '%s' resolved to an address not allowed", stmt.Location)
	}

	return fmt.Sprintf("@%s", stmt.Location), nil
}

// Specialized function to convert a C Instruction back to its textual Asm format,
// either 'dest=comp' or 'comp;jump' depending on which sub-instruction is populated.
func (cg *CodeGenerator) GenerateCInst(stmt CInstruction) (string, error) {
	if stmt.Comp == "" {
		return "", errors.New("expected 'comp' directive in C Instruction")
	}

	if stmt.Dest != "" && stmt.Jump == "" {
		if _, found := hack.DestTable[stmt.Dest]; !found {
			return "", errors.Errorf("unknown 'dest' opcode '%s'", stmt.Dest)
		}
		if _, found := hack.CompTable[stmt.Comp]; !found {
			return "", errors.Errorf("unknown 'comp' opcode '%s'", stmt.Comp)
		}
		return fmt.Sprintf("%s=%s", stmt.Dest, stmt.Comp), nil
	}
	if stmt.Jump != "" && stmt.Dest == "" {
		if _, found := hack.JumpTable[stmt.Jump]; !found {
			return "", errors.Errorf("unknown 'jump' opcode '%s'", stmt.Jump)
		}
		if _, found := hack.CompTable[stmt.Comp]; !found {
			return "", errors.Errorf("unknown 'comp' opcode '%s'", stmt.Comp)
		}
		return fmt.Sprintf("%s;%s", stmt.Comp, stmt.Jump), nil
	}

	return "", errors.New("expected either 'dest' or 'jump' directive in C Instruction")
}

// Specialized function to convert a Label Declaration back to its textual Asm format, '(name)'.
func (cg *CodeGenerator) GenerateLabelDecl(stmt LabelDecl) (string, error) {
	if _, found := hack.BuiltInTable[stmt.Name]; found {
		return "", errors.Errorf("unable to override built-in label '%s'", stmt.Name)
	}
	if !validIdentifier.MatchString(stmt.Name) {
		return "", errors.Errorf("label '%s' is not a well formed identifier", stmt.Name)
	}

	return fmt.Sprintf("(%s)", stmt.Name), nil
}
