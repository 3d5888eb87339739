package ast

// Visitor is called once per node during Walk. Returning false stops descent
// into that node's children (the node itself was still visited).
type Visitor func(n Node) bool

// Walk implements the generic traversal helper (spec §9): rather than one
// hand-written switch per consumer, every pass that needs to visit the tree
// (dependency scanning, rename rewriting, the diagnostic line finder) calls
// Walk with a small Visitor instead of re-deriving the ~35-case switch.
func Walk(n Node, v Visitor) {
	if n == nil || isNilNode(n) {
		return
	}
	if !v(n) {
		return
	}
	switch t := n.(type) {
	case *Root:
		for _, it := range t.Items {
			Walk(it, v)
		}
	case *Fold:
		Walk(t.Cond, v)
		Walk(t.Block, v)
		for _, e := range t.Elifs {
			Walk(e.Cond, v)
			Walk(e.Block, v)
		}
		Walk(t.Else, v)
	case *Enum:
		for _, m := range t.Members {
			Walk(m.Value, v)
		}
	case *StructDefinition:
		for _, m := range t.Members {
			Walk(m.Default, v)
		}
	case *ConstructorDecl:
		Walk(t.Body, v)
	case *MethodDecl:
		Walk(t.Body, v)
	case *Interface:
		Walk(t.Constructor, v)
		for _, m := range t.Methods {
			Walk(m, v)
		}
	case *ObjectBlock:
		for _, s := range t.Body {
			Walk(s, v)
		}
	case *CodeBlock:
		Walk(t.Body, v)
	case *Contract:
		for _, s := range t.Structs {
			Walk(s, v)
		}
		for _, e := range t.Events {
			Walk(e, v)
		}
		for _, e := range t.Errors {
			Walk(e, v)
		}
		Walk(t.Constructor, v)
		for _, m := range t.Methods {
			Walk(m, v)
		}
	case *Block:
		for _, s := range t.Statements {
			Walk(s, v)
		}
	case *MacroConstant:
		Walk(t.Expr, v)
	case *MacroDefinition:
		Walk(t.Body, v)
	case *FunctionDef:
		Walk(t.Body, v)
	case *VariableDeclaration:
		Walk(t.Init, v)
	case *ConstDeclaration:
		Walk(t.Expr, v)
	case *Assignment:
		Walk(t.RHS, v)
	case *MemberAssignment:
		Walk(t.Target, v)
		Walk(t.RHS, v)
	case *If:
		Walk(t.Cond, v)
		Walk(t.Body, v)
	case *Switch:
		Walk(t.Expr, v)
		for _, c := range t.Cases {
			Walk(c.Value, v)
			Walk(c.Body, v)
		}
		Walk(t.Default, v)
	case *ForLoop:
		Walk(t.Init, v)
		Walk(t.Cond, v)
		Walk(t.Post, v)
		Walk(t.Body, v)
	case *While:
		Walk(t.Cond, v)
		Walk(t.Body, v)
	case *DoWhile:
		Walk(t.Body, v)
		Walk(t.Cond, v)
	case *Emit:
		Walk(t.Offset, v)
		for _, a := range t.Args {
			Walk(a, v)
		}
	case *Throw:
		for _, a := range t.Args {
			Walk(a, v)
		}
	case *StructInitializer:
		for _, a := range t.Args {
			Walk(a.Expr, v)
		}
	case *InterfaceCall:
		for _, a := range t.Args {
			Walk(a, v)
		}
	case *FunctionCall:
		for _, a := range t.Args {
			Walk(a, v)
		}
	case *MemberIdentifier, *CallDataIdentifier, *Identifier, *Literal,
		*IdentifierList, *Pragma, *IncludeCall, *DataValue, *BreakContinue, *Leave:
		// leaf nodes, nothing further to visit
	}
}

// isNilNode guards against typed-nil interface values (a nil *Block stored
// in an Expr/Stmt interface is non-nil as an interface but must not be
// dereferenced).
func isNilNode(n Node) bool {
	switch t := n.(type) {
	case *Block:
		return t == nil
	case *Fold:
		return t == nil
	case *ConstructorDecl:
		return t == nil
	case *MethodDecl:
		return t == nil
	case *Interface:
		return t == nil
	}
	return false
}

// CallNames extracts every FunctionCall callee name reachable from n, used by
// the transformer's dependency-tracking pass (spec §4.4 "Dependency
// materialisation") to decide which builtin helpers a body needs flushed.
func CallNames(n Node) []string {
	seen := map[string]bool{}
	var out []string
	Walk(n, func(m Node) bool {
		if fc, ok := m.(*FunctionCall); ok {
			if !seen[fc.Name] {
				seen[fc.Name] = true
				out = append(out, fc.Name)
			}
		}
		return true
	})
	return out
}
