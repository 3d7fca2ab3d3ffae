package vm

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the VM intermediate language.
//
// We declare a shared 'Operation' interface for every macro operation available for the
// language and we define some other useful top-level struct such as Program and Module.
// Is important to note that a VM program can be composed of multiple translation units
// that can be also referenced as file or modules or also classes.

// A VM Program is just a set of multiple modules/files keyed by their base file name without
// extension (e.g. "Main" for "Main.vm"), in the VM spec each Jack class is translated to its own .vm file (just like a
// Java .class file) that can be handled as its own translation unit during the lowering phase.
// The file name is kept around (rather than just collecting every Module in a slice) because
// the 'static' segment is scoped per-file: two modules can each declare "static 0" and they
// must resolve to two distinct Hack symbols once lowered (see Lowerer.fixedAddress).
type Program map[string]Module

// A VM Module is just a linear list of VM operations/instructions
type Module []Operation

// Used to put together all operation in the VM language (Memory, Arithmetic, ... ops).
type Operation interface{}

// ----------------------------------------------------------------------------
// Memory Op

// In memory representation of a Memory operation for the VM language.
//
// In the VM intermediate language there are only two possible memory operation on the stack.
// We could either push a new value taken from the specified segment location on the stack's
// top or take the stack's top and saves its value at the specified segment location.
type MemoryOp struct {
	Operation OperationType // The type of operation, either 'push' or 'pop'
	Segment   SegmentType   // The named memory segment to use (this, that, temp, ...)
	Offset    uint16        // The specific location/offset inside of the memory segment
}

type OperationType string // Enum to manage the operation allowed for a MemoryOp

const (
	Push OperationType = "push"
	Pop  OperationType = "pop"
)

type SegmentType string // Enum to manage the segment accessible for a MemoryOp

const (
	Temp     SegmentType = "temp"     // Real segment used to store intermediate computations
	Constant SegmentType = "constant" // Virtual segment used to access numeric constant

	Local    SegmentType = "local"    // Real segment used to store local function variables
	Static   SegmentType = "static"   // Real segment used to store shared/static variables
	Argument SegmentType = "argument" // Real segment used to store function's argument

	This    SegmentType = "this"    // Virtual segment used to point to a specific memory location
	That    SegmentType = "that"    // Virtual segment used to point to a specific memory location
	Pointer SegmentType = "pointer" // Real segment w/ 2 location used to set the 'this' and 'that' pointers
)

// ----------------------------------------------------------------------------
// Arithmetic Op

// In memory representation of a Arithmetic operation for the VM language.
//
// In the VM intermediate language there are just a handful of operation available.
// In particular each operation acts directly on the top of the stack, of course we have both unary
// and binary operation, the specific management of each op will be handled in the codegen phase.
type ArithmeticOp struct{ Operation ArithOpType }

type ArithOpType string // Enum to manage the operation allowed for an ArithmeticOp

const (
	Eq ArithOpType = "eq" // Comparison operations
	Gt ArithOpType = "gt"
	Lt ArithOpType = "lt"

	Add ArithOpType = "add" // Arithmetic operations
	Sub ArithOpType = "sub"
	Neg ArithOpType = "neg"

	Not ArithOpType = "not" // Bitwise operations
	And ArithOpType = "and"
	Or  ArithOpType = "or"
)

// ----------------------------------------------------------------------------
// Branching Op

// In memory representation of a label declaration for the VM language.
//
// Labels are function-scoped: the lowering phase qualifies them with the
// enclosing function's name (e.g. "f$L") so that identically named labels in different
// functions don't collide once lowered to the single, flat Asm namespace.
type LabelDeclaration struct {
	Name string // The symbol/ident chosen by the user for the label
}

// In memory representation of a (un)conditional jump for the VM language.
//
// A conditional jump ('if-goto') pops the stack's top and only jumps if it's non-zero,
// an unconditional jump ('goto') always transfers control to the given label.
type GotoOp struct {
	Jump  JumpType // Either 'goto' or 'if-goto'
	Label string   // The target label, resolved against the enclosing function's scope
}

type JumpType string // Enum to manage the operation allowed for a GotoOp

const (
	Goto   JumpType = "goto"
	IfGoto JumpType = "if-goto"
)

// ----------------------------------------------------------------------------
// Function Op

// In memory representation of a function declaration for the VM language.
//
// Declares a new callable entrypoint, whose arguments are already pushed onto the
// stack by the caller, with 'LocalsNum' local slots that must be zero-initialized by the
// generated prologue before the function's body starts executing.
type FuncDecl struct {
	Name      string // The fully qualified function name (e.g. "Math.abs")
	LocalsNum uint8  // The number of local variable slots to zero-initialize
}

// In memory representation of a function call for the VM language.
//
// Transfers control to 'Name' after having pushed 'ArgsNum' arguments onto the stack,
// the lowering phase emits the code saving/restoring the caller's segment pointers.
type FuncCallOp struct {
	Name    string // The fully qualified function name being called (e.g. "Math.abs")
	ArgsNum uint8  // The number of arguments already pushed onto the stack by the caller
}

// In memory representation of a function return for the VM language.
//
// Transfers control back to the caller, restoring its segment pointers and replacing
// the arguments segment with the single return value left on top of the stack.
type ReturnOp struct{}
