package vm

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"its-hmny.dev/nand2tetris/pkg/asm"
)

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a 'vm.Program' (one Module per translation unit/.vm file) and produces
// its 'asm.Program' counterpart, ready to be fed to the Asm code generator.
//
// Modules are lowered in file-name order (not map iteration order, which Go randomizes) so
// that repeated runs on the same input always produce byte-identical output. Two pieces of
// state are threaded across the whole lowering pass rather than reset per-module:
//   - cmpCounter, so that every 'eq'/'gt'/'lt' comparison gets globally unique branch labels
//   - curFunc, the innermost FuncDecl we're inside of, used to scope user-defined labels
//     (see resolveLabel) so identically named labels in distinct functions don't collide.
type Lowerer struct {
	program    Program
	cmpCounter uint64
	curFunc    string
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Bootstrap emits the startup prologue a caller can prepend to a bundled translation: it
// sets 'SP=256' and then calls 'Sys.init' through the very same call-frame protocol used for
// any other 'call' (never a raw unconditional jump, since 'Sys.init' expects a callee frame
// with saved segment pointers just like every other function it may itself call or return
// from). It must run before 'Lowerer()' so the two share 'cmpCounter' and no label collides.
func (vl *Lowerer) Bootstrap() ([]asm.Instruction, error) {
	spInit := []asm.Instruction{
		asm.AInstruction{Location: "256"},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}

	callInit, err := vl.handleFuncCallOp(FuncCallOp{Name: "Sys.init", ArgsNum: 0})
	if err != nil {
		return nil, errors.Wrap(err, "error emitting bootstrap call to 'Sys.init'")
	}

	return append(spInit, callInit...), nil
}

// Triggers the lowering process on every module of the program, in file-name order, and
// concatenates their Asm counterparts into a single, monolithic 'asm.Program'.
func (vl *Lowerer) Lowerer() (asm.Program, error) {
	files := make([]string, 0, len(vl.program))
	for file := range vl.program {
		files = append(files, file)
	}
	sort.Strings(files)

	program := asm.Program{}
	for _, file := range files {
		vl.curFunc = ""

		for _, op := range vl.program[file] {
			instructions, err := vl.handleOperation(file, op)
			if err != nil {
				return nil, err
			}
			program = append(program, instructions...)
		}
	}

	return program, nil
}

// Dispatches a single 'vm.Operation' to its specialized handler based on its concrete type.
func (vl *Lowerer) handleOperation(file string, op Operation) ([]asm.Instruction, error) {
	switch tOp := op.(type) {
	case MemoryOp:
		return vl.handleMemoryOp(file, tOp)
	case ArithmeticOp:
		return vl.handleArithmeticOp(tOp)
	case LabelDeclaration:
		return vl.handleLabelDecl(tOp)
	case GotoOp:
		return vl.handleGotoOp(tOp)
	case FuncDecl:
		return vl.handleFuncDecl(tOp)
	case FuncCallOp:
		return vl.handleFuncCallOp(tOp)
	case ReturnOp:
		return vl.handleReturnOp()
	default:
		return nil, errors.Errorf("unrecognized vm.Operation %T", op)
	}
}

// ----------------------------------------------------------------------------
// Label resolution

// User defined labels ('label Foo', 'goto Foo', 'if-goto Foo') are scoped to the enclosing
// function: we qualify them with the function's fully qualified name so that two functions
// can freely reuse the same label text (e.g. both looping with 'label WHILE_EXP0') without
// clobbering each other once every module is flattened into a single Asm namespace.
func (vl *Lowerer) resolveLabel(label string) string {
	if vl.curFunc == "" {
		return label
	}
	return fmt.Sprintf("%s$%s", vl.curFunc, label)
}

// ----------------------------------------------------------------------------
// Memory Op

// Converts a MemoryOp ('push'/'pop' a segment) to its Asm counterpart.
//
// The 'local', 'argument', 'this' and 'that' segments are indirected through a pointer held
// in a fixed register (LCL, ARG, THIS, THAT); 'temp' and 'pointer' are fixed RAM ranges
// addressed directly; 'static' is resolved to a per-file Asm symbol (so that 'static 3' in
// two different .vm files doesn't refer to the same Hack memory cell); 'constant' is only
// ever read (pushed), never written to.
func (vl *Lowerer) handleMemoryOp(file string, op MemoryOp) ([]asm.Instruction, error) {
	if op.Operation == Push {
		return vl.handlePush(file, op.Segment, op.Offset)
	}
	if op.Operation == Pop {
		return vl.handlePop(file, op.Segment, op.Offset)
	}
	return nil, errors.Errorf("unrecognized vm.OperationType '%s'", op.Operation)
}

// Pointer-indirected segments: address = M[segmentPtr] + offset.
var segmentPointer = map[SegmentType]string{
	Local:    "LCL",
	Argument: "ARG",
	This:     "THIS",
	That:     "THAT",
}

func (vl *Lowerer) handlePush(file string, segment SegmentType, offset uint16) ([]asm.Instruction, error) {
	switch segment {
	case Constant:
		return append([]asm.Instruction{
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
		}, pushD()...), nil

	case Local, Argument, This, That:
		return append([]asm.Instruction{
			asm.AInstruction{Location: segmentPointer[segment]},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "A", Comp: "D+A"},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}, pushD()...), nil

	case Temp, Pointer, Static:
		addr, err := vl.fixedAddress(file, segment, offset)
		if err != nil {
			return nil, err
		}
		return append([]asm.Instruction{
			asm.AInstruction{Location: addr},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}, pushD()...), nil

	default:
		return nil, errors.Errorf("unrecognized vm.SegmentType '%s'", segment)
	}
}

func (vl *Lowerer) handlePop(file string, segment SegmentType, offset uint16) ([]asm.Instruction, error) {
	switch segment {
	case Constant:
		return nil, errors.New("cannot 'pop' into the 'constant' segment")

	case Local, Argument, This, That:
		// Stashes the resolved target address in R13 before popping, since popping clobbers
		// A/D and we need both "the value popped" and "where to put it" at the same time.
		return []asm.Instruction{
			asm.AInstruction{Location: segmentPointer[segment]},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: "D", Comp: "D+A"},
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "M", Comp: "D"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}, nil

	case Temp, Pointer, Static:
		addr, err := vl.fixedAddress(file, segment, offset)
		if err != nil {
			return nil, err
		}
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: addr},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}, nil

	default:
		return nil, errors.Errorf("unrecognized vm.SegmentType '%s'", segment)
	}
}

// Resolves the directly-addressable segments ('temp', 'pointer', 'static') to a concrete
// Asm location: a raw Hack memory address for 'temp'/'pointer', a per-file symbol for 'static'.
func (vl *Lowerer) fixedAddress(file string, segment SegmentType, offset uint16) (string, error) {
	switch segment {
	case Temp:
		if offset > 7 {
			return "", errors.Errorf("'temp' segment only has 8 slots, got offset %d", offset)
		}
		return fmt.Sprint(5 + offset), nil

	case Pointer:
		switch offset {
		case 0:
			return "THIS", nil
		case 1:
			return "THAT", nil
		default:
			return "", errors.Errorf("'pointer' segment only has 2 slots, got offset %d", offset)
		}

	case Static:
		return fmt.Sprintf("%s.%d", file, offset), nil

	default:
		return "", errors.Errorf("'%s' is not a fixed-address segment", segment)
	}
}

// Appends the (by convention, already computed) D register value onto the stack and bumps SP.
func pushD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// ----------------------------------------------------------------------------
// Arithmetic Op

// Converts an ArithmeticOp to its Asm counterpart.
//
// Unary operations ('neg', 'not') are applied in place on the stack's top; binary arithmetic
// and bitwise operations ('add', 'sub', 'and', 'or') pop both operands and push a single
// result; comparisons ('eq', 'gt', 'lt') do the same but must additionally branch, since the
// Hack ALU has no boolean result type (true/false are encoded as -1/0 by convention).
func (vl *Lowerer) handleArithmeticOp(op ArithmeticOp) ([]asm.Instruction, error) {
	switch op.Operation {
	case Neg:
		return unaryOp("-M"), nil
	case Not:
		return unaryOp("!M"), nil

	case Add:
		return binaryOp("D+M"), nil
	case Sub:
		return binaryOp("M-D"), nil
	case And:
		return binaryOp("D&M"), nil
	case Or:
		return binaryOp("D|M"), nil

	case Eq:
		return vl.comparisonOp("JEQ"), nil
	case Gt:
		return vl.comparisonOp("JGT"), nil
	case Lt:
		return vl.comparisonOp("JLT"), nil

	default:
		return nil, errors.Errorf("unrecognized vm.ArithOpType '%s'", op.Operation)
	}
}

func unaryOp(comp string) []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: comp},
	}
}

func binaryOp(comp string) []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "M", Comp: comp},
	}
}

// Comparisons jump to the 'IF_TRUE.n' block (which writes 'true' (-1)) when the jump condition
// holds, otherwise they write 'false' (0) and jump past that block to 'IF_END.n'. Each occurrence
// gets its own pair of labels ('IF_TRUE.n'/'IF_END.n') via the Lowerer's global counter, since
// the same comparison can appear any number of times within (or across) a function body.
func (vl *Lowerer) comparisonOp(jump string) []asm.Instruction {
	n := vl.cmpCounter
	vl.cmpCounter++

	trueLabel := fmt.Sprintf("IF_TRUE.%d", n)
	endLabel := fmt.Sprintf("IF_END.%d", n)

	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.AInstruction{Location: trueLabel},
		asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "0"},
		asm.AInstruction{Location: endLabel},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: trueLabel},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "-1"},
		asm.LabelDecl{Name: endLabel},
	}
}

// ----------------------------------------------------------------------------
// Branching Op

func (vl *Lowerer) handleLabelDecl(op LabelDeclaration) ([]asm.Instruction, error) {
	return []asm.Instruction{asm.LabelDecl{Name: vl.resolveLabel(op.Name)}}, nil
}

func (vl *Lowerer) handleGotoOp(op GotoOp) ([]asm.Instruction, error) {
	label := vl.resolveLabel(op.Label)

	switch op.Jump {
	case Goto:
		return []asm.Instruction{
			asm.AInstruction{Location: label},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil

	case IfGoto:
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: label},
			asm.CInstruction{Comp: "D", Jump: "JNE"},
		}, nil

	default:
		return nil, errors.Errorf("unrecognized vm.JumpType '%s'", op.Jump)
	}
}

// ----------------------------------------------------------------------------
// Function Op

// Converts a FuncDecl into a label followed by 'LocalsNum' zero-initialized local slots.
func (vl *Lowerer) handleFuncDecl(op FuncDecl) ([]asm.Instruction, error) {
	vl.curFunc = op.Name

	instructions := []asm.Instruction{asm.LabelDecl{Name: op.Name}}
	for i := uint8(0); i < op.LocalsNum; i++ {
		instructions = append(instructions, asm.AInstruction{Location: "0"}, asm.CInstruction{Dest: "D", Comp: "A"})
		instructions = append(instructions, pushD()...)
	}
	return instructions, nil
}

// Converts a FuncCallOp into the Hack calling convention: push a return address and the
// caller's 4 segment pointers, then reposition ARG/LCL for the callee before jumping to it.
func (vl *Lowerer) handleFuncCallOp(op FuncCallOp) ([]asm.Instruction, error) {
	n := vl.cmpCounter
	vl.cmpCounter++
	retLabel := fmt.Sprintf("%s$ret.%d", op.Name, n)

	instructions := []asm.Instruction{
		// push return-address
		asm.AInstruction{Location: retLabel},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}
	instructions = append(instructions, pushD()...)

	// push LCL, ARG, THIS, THAT (the caller's segment pointers, to be restored on return)
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		instructions = append(instructions,
			asm.AInstruction{Location: reg},
			asm.CInstruction{Dest: "D", Comp: "M"},
		)
		instructions = append(instructions, pushD()...)
	}

	// ARG = SP - 5 - nArgs
	instructions = append(instructions,
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: fmt.Sprint(5 + int(op.ArgsNum))},
		asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)

	// LCL = SP
	instructions = append(instructions,
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)

	// goto callee, then declare the return-address label right after
	instructions = append(instructions,
		asm.AInstruction{Location: op.Name},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: retLabel},
	)

	return instructions, nil
}

// Converts a ReturnOp into the Hack return protocol: stash FRAME (= LCL) and RET (= *(FRAME-5))
// in scratch registers before the return value is written to *ARG (with 0 arguments that is the
// very slot holding RET), then restore the caller's segment pointers and jump back to the resolved return address.
func (vl *Lowerer) handleReturnOp() ([]asm.Instruction, error) {
	return []asm.Instruction{
		// R13 (FRAME) = LCL
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		// R14 (RET) = *(FRAME - 5)
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		// *ARG = pop()
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		// SP = ARG + 1
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		// THAT = *(FRAME - 1)
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "THAT"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		// THIS = *(FRAME - 2)
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "THIS"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		// ARG = *(FRAME - 3)
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		// LCL = *(FRAME - 4)
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},

		// goto RET
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}, nil
}
