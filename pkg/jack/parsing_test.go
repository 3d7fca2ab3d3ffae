package jack_test

import (
	"strings"
	"testing"

	"its-hmny.dev/nand2tetris/pkg/jack"
)

func TestParserClassStructure(t *testing.T) {
	source := `
		// A line comment before the class declaration.
		class Point {
			field int x, y;
			static int count;

			constructor Point new(int ax, int ay) {
				let x = ax;
				let y = ay;
				return this;
			}

			method int getX() { return x; }
		}
	`

	parser := jack.NewParser(strings.NewReader(source))
	class, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected error parsing class: %v", err)
	}

	if class.Name != "Point" {
		t.Errorf("expected class name 'Point', got '%s'", class.Name)
	}
	if class.Fields.Size() != 3 {
		t.Fatalf("expected 3 fields, got %d", class.Fields.Size())
	}
	if _, ok := class.Fields.Get("count"); !ok {
		t.Errorf("expected field 'count' to be declared")
	}
	if class.Subroutines.Size() != 2 {
		t.Fatalf("expected 2 subroutines, got %d", class.Subroutines.Size())
	}

	ctor, ok := class.Subroutines.Get("new")
	if !ok {
		t.Fatalf("expected subroutine 'new' to be declared")
	}
	if ctor.Type != jack.Constructor {
		t.Errorf("expected 'new' to be a constructor, got %s", ctor.Type)
	}
	if len(ctor.Statements) != 3 {
		t.Fatalf("expected 3 statements in constructor, got %d", len(ctor.Statements))
	}
	if _, ok := ctor.Statements[0].(jack.LetStmt); !ok {
		t.Errorf("expected first statement to be a 'let', got %T", ctor.Statements[0])
	}
	if _, ok := ctor.Statements[1].(jack.LetStmt); !ok {
		t.Errorf("expected second statement to be a 'let', got %T", ctor.Statements[1])
	}
	if _, ok := ctor.Statements[2].(jack.ReturnStmt); !ok {
		t.Errorf("expected third statement to be a 'return', got %T", ctor.Statements[2])
	}
}

func TestParserStatements(t *testing.T) {
	source := `
		class Main {
			function void run() {
				var int i;
				let i = 0;
				while (i < 10) {
					if (i = 5) {
						do Output.printInt(i);
					} else {
						let i = i + 1;
					}
				}
				return;
			}
		}
	`

	parser := jack.NewParser(strings.NewReader(source))
	class, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected error parsing class: %v", err)
	}

	run, ok := class.Subroutines.Get("run")
	if !ok {
		t.Fatalf("expected subroutine 'run' to be declared")
	}

	// var decl, let, while, return
	if len(run.Statements) != 4 {
		t.Fatalf("expected 4 top-level statements, got %d: %+v", len(run.Statements), run.Statements)
	}

	whileStmt, ok := run.Statements[2].(jack.WhileStmt)
	if !ok {
		t.Fatalf("expected third statement to be a 'while', got %T", run.Statements[2])
	}
	if len(whileStmt.Block) != 1 {
		t.Fatalf("expected 1 statement in while body, got %d", len(whileStmt.Block))
	}

	ifStmt, ok := whileStmt.Block[0].(jack.IfStmt)
	if !ok {
		t.Fatalf("expected while body to be an 'if', got %T", whileStmt.Block[0])
	}
	if len(ifStmt.ThenBlock) != 1 {
		t.Errorf("expected 1 statement in 'then' block, got %d", len(ifStmt.ThenBlock))
	}
	if len(ifStmt.ElseBlock) != 1 {
		t.Errorf("expected 1 statement in 'else' block, got %d", len(ifStmt.ElseBlock))
	}
	if _, ok := ifStmt.ThenBlock[0].(jack.DoStmt); !ok {
		t.Errorf("expected 'then' block statement to be a 'do', got %T", ifStmt.ThenBlock[0])
	}
}

func TestParserExpressions(t *testing.T) {
	source := `
		class Main {
			function void run() {
				var Array a;
				var boolean flag;
				let a[0] = 1 + 2 * 3;
				let flag = (1 < 2) & ~true;
				do Main.run();
				return;
			}
		}
	`

	parser := jack.NewParser(strings.NewReader(source))
	class, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected error parsing class: %v", err)
	}

	run, ok := class.Subroutines.Get("run")
	if !ok {
		t.Fatalf("expected subroutine 'run' to be declared")
	}

	letArray, ok := run.Statements[2].(jack.LetStmt)
	if !ok {
		t.Fatalf("expected 3rd statement to be a 'let', got %T", run.Statements[2])
	}
	if _, ok := letArray.Lhs.(jack.ArrayExpr); !ok {
		t.Errorf("expected LHS of 'let a[0] = ...' to be an ArrayExpr, got %T", letArray.Lhs)
	}
	// Jack has no operator precedence (§4.5): "1 + 2 * 3" folds strictly left to right, so
	// the outermost node is the LAST operator applied ('*'), wrapping the '1 + 2' subtree.
	rhs, ok := letArray.Rhs.(jack.BinaryExpr)
	if !ok {
		t.Fatalf("expected RHS to be a BinaryExpr, got %T", letArray.Rhs)
	}
	if rhs.Type != jack.Multiply {
		t.Errorf("expected left-associative fold to put 'multiply' at the top, got %s", rhs.Type)
	}
	if inner, ok := rhs.Lhs.(jack.BinaryExpr); !ok || inner.Type != jack.Plus {
		t.Errorf("expected nested LHS to be a 'plus' BinaryExpr, got %+v", rhs.Lhs)
	}

	letFlag, ok := run.Statements[3].(jack.LetStmt)
	if !ok {
		t.Fatalf("expected 4th statement to be a 'let', got %T", run.Statements[3])
	}
	flagExpr, ok := letFlag.Rhs.(jack.BinaryExpr)
	if !ok {
		t.Fatalf("expected RHS to be a BinaryExpr, got %T", letFlag.Rhs)
	}
	if flagExpr.Type != jack.BoolAnd {
		t.Errorf("expected top-level operator to be 'bool_and', got %s", flagExpr.Type)
	}
	if _, ok := flagExpr.Rhs.(jack.UnaryExpr); !ok {
		t.Errorf("expected RHS of '&' to be a UnaryExpr ('~true'), got %T", flagExpr.Rhs)
	}

	doStmt, ok := run.Statements[4].(jack.DoStmt)
	if !ok {
		t.Fatalf("expected 5th statement to be a 'do', got %T", run.Statements[4])
	}
	if !doStmt.FuncCall.IsExtCall || doStmt.FuncCall.Var != "Main" || doStmt.FuncCall.FuncName != "run" {
		t.Errorf("expected an external call to 'Main.run', got %+v", doStmt.FuncCall)
	}
}
