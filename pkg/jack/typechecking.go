package jack

import "github.com/pkg/errors"

// ----------------------------------------------------------------------------
// Jack TypeChecker

// The TypeChecker re-walks a 'jack.Program' after parsing, the same DFS pattern used by the
// Lowerer, but it never produces any 'vm.Operation': it only validates that every identifier
// referenced in an expression was actually declared in scope, and that an array index is never
// applied to a variable whose declared type isn't an array. Anything deeper (e.g. that the RHS
// of a 'let' actually matches the LHS's declared type) is out of scope, the symbol table alone
// can't settle it without a much fuller type system, so we don't pretend to check it.
type TypeChecker struct {
	program Program
	scopes  ScopeTable // Keeps track of the scopes and declared variables inside each one
}

func NewTypeChecker(program Program) TypeChecker {
	return TypeChecker{program: program, scopes: *NewScopeTable()}
}

// Triggers the type-checking process, returns an error as soon as one class fails the check.
func (tc *TypeChecker) Check() (bool, error) {
	if tc.program == nil {
		return false, errors.New("the given 'program' is empty or nil")
	}

	for name, class := range tc.program {
		_, err := tc.HandleClass(class)
		if err != nil {
			return false, errors.Wrapf(err, "error handling type-checking of class '%s'", name)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.Class' and nested fields.
func (tc *TypeChecker) HandleClass(class Class) (bool, error) {
	tc.scopes.PushClassScope(class.Name) // Keep track of the current scope being processed
	defer tc.scopes.PopClassScope()      // Reset the function name after processing

	for _, field := range class.Fields.Entries() {
		if _, err := tc.HandleVarStmt(VarStmt{Vars: []Variable{field}}); err != nil {
			return false, errors.Wrapf(err, "error handling field '%s' in class '%s'", field.Name, class.Name)
		}
	}

	for _, subroutine := range class.Subroutines.Entries() {
		if _, err := tc.HandleSubroutine(subroutine); err != nil {
			return false, errors.Wrapf(err, "error handling subroutine '%s' in class '%s'", subroutine.Name, class.Name)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.Subroutine' and nested fields.
func (tc *TypeChecker) HandleSubroutine(subroutine Subroutine) (bool, error) {
	tc.scopes.PushSubRoutineScope(subroutine.Name) // Keep track of the current subroutine function being processed
	defer tc.scopes.PopSubroutineScope()           // Reset the function name after processing

	if subroutine.Type == Method {
		// Mirrors jack.Lowerer.HandleSubroutine: the implicit 'this' occupies argument 0,
		// it must be counted so the declared arguments resolve to the right offsets.
		tc.scopes.RegisterVariable(Variable{Name: "__obj", VarType: Parameter, DataType: DataType{Main: Object}})
	}

	// Like this we're actually supporting shadowing of variables, so if a variable with the
	// same name is already present in the current scope, we just temporarily override it
	// with the most up to date one instead of returning an error (like Go does).
	for _, arg := range subroutine.Arguments.Entries() {
		tc.scopes.RegisterVariable(arg)
	}

	for _, stmt := range subroutine.Statements {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, errors.Wrapf(err, "error handling nested statement %T", stmt)
		}
	}

	return true, nil
}

// Generalized function to type-check multiple statements types.
func (tc *TypeChecker) HandleStatement(stmt Statement) (bool, error) {
	switch tStmt := stmt.(type) {
	case VarStmt:
		return tc.HandleVarStmt(tStmt)
	case LetStmt:
		return tc.HandleLetStmt(tStmt)
	case DoStmt:
		return tc.HandleExpression(tStmt.FuncCall)
	case IfStmt:
		return tc.HandleIfStmt(tStmt)
	case WhileStmt:
		return tc.HandleWhileStmt(tStmt)
	case ReturnStmt:
		if tStmt.Expr == nil {
			return true, nil
		}
		return tc.HandleExpression(tStmt.Expr)
	default:
		return false, errors.Errorf("unrecognized statement: %T", stmt)
	}
}

// Specialized function to type-check a 'jack.VarStmt', registering its variables in scope.
func (tc *TypeChecker) HandleVarStmt(statement VarStmt) (bool, error) {
	for _, variable := range statement.Vars {
		tc.scopes.RegisterVariable(variable)
	}
	return true, nil
}

// Specialized function to type-check a 'jack.LetStmt': both the LHS reference (plain variable
// or array cell) and the RHS expression must resolve cleanly.
func (tc *TypeChecker) HandleLetStmt(statement LetStmt) (bool, error) {
	if _, err := tc.HandleExpression(statement.Lhs); err != nil {
		return false, errors.Wrap(err, "error handling LHS of 'let' statement")
	}
	if _, err := tc.HandleExpression(statement.Rhs); err != nil {
		return false, errors.Wrap(err, "error handling RHS of 'let' statement")
	}
	return true, nil
}

// Specialized function to type-check a 'jack.IfStmt' and its nested blocks.
func (tc *TypeChecker) HandleIfStmt(statement IfStmt) (bool, error) {
	if _, err := tc.HandleExpression(statement.Condition); err != nil {
		return false, errors.Wrap(err, "error handling 'if' condition")
	}
	for _, stmt := range statement.ThenBlock {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, errors.Wrap(err, "error handling 'then' block")
		}
	}
	for _, stmt := range statement.ElseBlock {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, errors.Wrap(err, "error handling 'else' block")
		}
	}
	return true, nil
}

// Specialized function to type-check a 'jack.WhileStmt' and its nested block.
func (tc *TypeChecker) HandleWhileStmt(statement WhileStmt) (bool, error) {
	if _, err := tc.HandleExpression(statement.Condition); err != nil {
		return false, errors.Wrap(err, "error handling 'while' condition")
	}
	for _, stmt := range statement.Block {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, errors.Wrap(err, "error handling 'while' body")
		}
	}
	return true, nil
}

// Generalized function to type-check multiple expression types.
//
// This is intentionally best-effort (see §4.6/Non-goals): it only catches an undefined
// identifier and an array index applied to a non-array variable, it never checks that the
// types on either side of an operator or assignment actually agree.
func (tc *TypeChecker) HandleExpression(expr Expression) (bool, error) {
	switch tExpr := expr.(type) {
	case VarExpr:
		if tExpr.Var == "this" {
			return true, nil // 'this' is implicit, never registered as a regular variable
		}
		if _, _, err := tc.scopes.ResolveVariable(tExpr.Var); err != nil {
			return false, errors.Wrapf(err, "error resolving identifier '%s'", tExpr.Var)
		}
		return true, nil

	case LiteralExpr:
		return true, nil // Literals carry their own type, nothing to resolve

	case ArrayExpr:
		_, variable, err := tc.scopes.ResolveVariable(tExpr.Var)
		if err != nil {
			return false, errors.Wrapf(err, "error resolving identifier '%s'", tExpr.Var)
		}
		if variable.DataType.Main != Object || variable.DataType.Subtype != "Array" {
			return false, errors.Errorf("variable '%s' of type '%s' is not an Array, cannot be indexed", tExpr.Var, variable.DataType.Subtype)
		}
		if _, err := tc.HandleExpression(tExpr.Index); err != nil {
			return false, errors.Wrap(err, "error handling array index expression")
		}
		return true, nil

	case UnaryExpr:
		if _, err := tc.HandleExpression(tExpr.Rhs); err != nil {
			return false, errors.Wrap(err, "error handling unary expression operand")
		}
		return true, nil

	case BinaryExpr:
		if _, err := tc.HandleExpression(tExpr.Lhs); err != nil {
			return false, errors.Wrap(err, "error handling binary expression LHS")
		}
		if _, err := tc.HandleExpression(tExpr.Rhs); err != nil {
			return false, errors.Wrap(err, "error handling binary expression RHS")
		}
		return true, nil

	case FuncCallExpr:
		// The qualifier of a call ('foo.bar(...)') isn't checked: a name that doesn't resolve to a
		// variable is taken as a class name. Only the argument expressions are checked.
		for _, arg := range tExpr.Arguments {
			if _, err := tc.HandleExpression(arg); err != nil {
				return false, errors.Wrap(err, "error handling call argument expression")
			}
		}
		return true, nil

	default:
		return false, errors.Errorf("unrecognized expression: %T", expr)
	}
}
