package shadergraph

import (
	"strconv"
	"strings"
)

// Expr is an expression node of a generated shading program.
type Expr interface {
	writeTo(b *strings.Builder)
}

// Stmt is a statement node of a generated shading program.
type Stmt interface {
	writeStmt(b *strings.Builder, indent string)
}

// Identifier references a variable or function by name.
type Identifier struct {
	Name string
}

// Literal is a numeric constant.
type Literal struct {
	Value float64
}

// Member accesses a named property of Object.
type Member struct {
	Object   Expr
	Property string
}

// Call invokes Callee with Args.
type Call struct {
	Callee Expr
	Args   []Expr
}

// New constructs an instance of Callee.
type New struct {
	Callee Expr
	Args   []Expr
}

// Binary applies an infix operator.
type Binary struct {
	Left  Expr
	Op    string
	Right Expr
}

// VarDecl declares a local variable.
type VarDecl struct {
	Name string
	Init Expr
}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	Expr Expr
}

// Return ends the function with a value.
type Return struct {
	Value Expr
}

// Function is a named function declaration.
type Function struct {
	Name   string
	Params []string
	Body   []Stmt
}

func ident(name string) *Identifier { return &Identifier{Name: name} }

func member(obj Expr, props ...string) Expr {
	for _, p := range props {
		obj = &Member{Object: obj, Property: p}
	}
	return obj
}

func (e *Identifier) writeTo(b *strings.Builder) { b.WriteString(e.Name) }

func (e *Literal) writeTo(b *strings.Builder) {
	v := e.Value
	if v == 0 {
		v = 0
	}
	b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
}

func (e *Member) writeTo(b *strings.Builder) {
	if _, ok := e.Object.(*Binary); ok {
		b.WriteByte('(')
		e.Object.writeTo(b)
		b.WriteByte(')')
	} else {
		e.Object.writeTo(b)
	}
	b.WriteByte('.')
	b.WriteString(e.Property)
}

func writeArgs(b *strings.Builder, args []Expr) {
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		a.writeTo(b)
	}
	b.WriteByte(')')
}

func (e *Call) writeTo(b *strings.Builder) {
	e.Callee.writeTo(b)
	writeArgs(b, e.Args)
}

func (e *New) writeTo(b *strings.Builder) {
	b.WriteString("new ")
	e.Callee.writeTo(b)
	writeArgs(b, e.Args)
}

func (e *Binary) writeTo(b *strings.Builder) {
	e.Left.writeTo(b)
	b.WriteString(" " + e.Op + " ")
	if _, ok := e.Right.(*Binary); ok {
		b.WriteByte('(')
		e.Right.writeTo(b)
		b.WriteByte(')')
		return
	}
	e.Right.writeTo(b)
}

func (s *VarDecl) writeStmt(b *strings.Builder, indent string) {
	b.WriteString(indent + "var " + s.Name)
	if s.Init != nil {
		b.WriteString(" = ")
		s.Init.writeTo(b)
	}
	b.WriteString(";\n")
}

func (s *ExprStmt) writeStmt(b *strings.Builder, indent string) {
	b.WriteString(indent)
	s.Expr.writeTo(b)
	b.WriteString(";\n")
}

func (s *Return) writeStmt(b *strings.Builder, indent string) {
	b.WriteString(indent + "return")
	if s.Value != nil {
		b.WriteByte(' ')
		s.Value.writeTo(b)
	}
	b.WriteString(";\n")
}

// Source renders the function as JavaScript source text.
func (f *Function) Source() string {
	var b strings.Builder
	b.WriteString("function " + f.Name + "(" + strings.Join(f.Params, ", ") + ") {\n")
	for _, s := range f.Body {
		s.writeStmt(&b, "    ")
	}
	b.WriteString("}\n")
	return b.String()
}

// ExprString renders a single expression.
func ExprString(e Expr) string {
	var b strings.Builder
	e.writeTo(&b)
	return b.String()
}
