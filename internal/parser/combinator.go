// Package parser turns a token stream into an expression tree using a small
// algebra of backtracking combinators.
//
// Every combinator maps (tokens, nodes) to (remaining tokens, nodes). A
// combinator succeeded exactly when the remaining token slice is strictly
// shorter than the one it was given; new nodes are then at the front of the
// accumulator. A combinator that fails hands back the very slices it
// received, so callers can backtrack by simply discarding the result. The
// error return is only used for internal-consistency failures, never for an
// ordinary mismatch.
package parser

import (
	"github.com/funvibe/nibble/internal/ast"
	"github.com/funvibe/nibble/internal/diagnostics"
	"github.com/funvibe/nibble/internal/token"
)

type Combinator interface {
	Parse(tokens []token.Token, nodes []ast.Node) ([]token.Token, []ast.Node, error)
}

// CombinatorFunc adapts a function to the Combinator interface.
type CombinatorFunc func(tokens []token.Token, nodes []ast.Node) ([]token.Token, []ast.Node, error)

func (f CombinatorFunc) Parse(tokens []token.Token, nodes []ast.Node) ([]token.Token, []ast.Node, error) {
	return f(tokens, nodes)
}

// Predicate decides whether a When combinator may run.
type Predicate func(tokens []token.Token, nodes []ast.Node) bool

// Builder folds the front nodes of the accumulator into a single node.
// consumed holds the tokens the reduced combinator matched.
type Builder func(children []ast.Node, consumed []token.Token) (ast.Node, error)

// Result is the explicit form of a combinator outcome.
type Result struct {
	Tokens  []token.Token
	Nodes   []ast.Node
	Matched bool
}

// Apply runs c and reports whether it matched according to the
// length-comparison rule.
func Apply(c Combinator, tokens []token.Token, nodes []ast.Node) (Result, error) {
	rest, out, err := c.Parse(tokens, nodes)
	if err != nil {
		return Result{Tokens: tokens, Nodes: nodes}, err
	}
	return Result{Tokens: rest, Nodes: out, Matched: shrank(tokens, rest)}, nil
}

func shrank(before, after []token.Token) bool {
	return len(after) < len(before)
}

// push returns a new accumulator with n in front. The input slice is never
// written to, so a caller that backtracks still holds an intact copy.
func push(n ast.Node, nodes []ast.Node) []ast.Node {
	out := make([]ast.Node, 0, len(nodes)+1)
	out = append(out, n)
	return append(out, nodes...)
}

type seq struct {
	first, second Combinator
}

// Seq runs first, then second on first's output. Both must consume input.
func Seq(first, second Combinator) Combinator {
	return seq{first: first, second: second}
}

func (s seq) Parse(tokens []token.Token, nodes []ast.Node) ([]token.Token, []ast.Node, error) {
	firstTokens, firstNodes, err := s.first.Parse(tokens, nodes)
	if err != nil {
		return tokens, nodes, err
	}
	if !shrank(tokens, firstTokens) {
		return tokens, nodes, nil
	}

	secondTokens, secondNodes, err := s.second.Parse(firstTokens, firstNodes)
	if err != nil {
		return tokens, nodes, err
	}
	if !shrank(firstTokens, secondTokens) {
		return tokens, nodes, nil
	}
	return secondTokens, secondNodes, nil
}

type alt struct {
	first, second Combinator
}

// Alt tries first and falls back to second on the original input.
// It takes the first match, not the longest.
func Alt(first, second Combinator) Combinator {
	return alt{first: first, second: second}
}

func (a alt) Parse(tokens []token.Token, nodes []ast.Node) ([]token.Token, []ast.Node, error) {
	rest, out, err := a.first.Parse(tokens, nodes)
	if err != nil {
		return tokens, nodes, err
	}
	if shrank(tokens, rest) {
		return rest, out, nil
	}
	return a.second.Parse(tokens, nodes)
}

type repeat struct {
	inner Combinator
}

// Repeat applies inner for as long as it keeps consuming input. Zero
// applications is a (non-consuming) success.
func Repeat(inner Combinator) Combinator {
	return repeat{inner: inner}
}

func (r repeat) Parse(tokens []token.Token, nodes []ast.Node) ([]token.Token, []ast.Node, error) {
	curTokens, curNodes := tokens, nodes
	for len(curTokens) > 0 {
		nextTokens, nextNodes, err := r.inner.Parse(curTokens, curNodes)
		if err != nil {
			return tokens, nodes, err
		}
		if !shrank(curTokens, nextTokens) {
			break
		}
		curTokens, curNodes = nextTokens, nextNodes
	}
	return curTokens, curNodes, nil
}

type exactly struct {
	n     int
	inner Combinator
}

// Exactly applies inner n times; all applications must consume input.
func Exactly(n int, inner Combinator) Combinator {
	return exactly{n: n, inner: inner}
}

func (e exactly) Parse(tokens []token.Token, nodes []ast.Node) ([]token.Token, []ast.Node, error) {
	curTokens, curNodes := tokens, nodes
	for i := 0; i < e.n; i++ {
		nextTokens, nextNodes, err := e.inner.Parse(curTokens, curNodes)
		if err != nil {
			return tokens, nodes, err
		}
		if !shrank(curTokens, nextTokens) {
			return tokens, nodes, nil
		}
		curTokens, curNodes = nextTokens, nextNodes
	}
	return curTokens, curNodes, nil
}

type when struct {
	pred  Predicate
	inner Combinator
}

// When runs inner only if pred holds for the current state.
func When(pred Predicate, inner Combinator) Combinator {
	return when{pred: pred, inner: inner}
}

func (w when) Parse(tokens []token.Token, nodes []ast.Node) ([]token.Token, []ast.Node, error) {
	if !w.pred(tokens, nodes) {
		return tokens, nodes, nil
	}
	return w.inner.Parse(tokens, nodes)
}

// Match consumes a single token of type t without producing a node.
func Match(t token.TokenType) Combinator {
	return CombinatorFunc(func(tokens []token.Token, nodes []ast.Node) ([]token.Token, []ast.Node, error) {
		if len(tokens) == 0 || tokens[0].Type != t {
			return tokens, nodes, nil
		}
		return tokens[1:], nodes, nil
	})
}

type reduce struct {
	inner Combinator
	arity int
	build Builder
}

// Reduce runs inner and, on success, replaces the arity front nodes of the
// accumulator with the node returned by build.
func Reduce(inner Combinator, arity int, build Builder) Combinator {
	return reduce{inner: inner, arity: arity, build: build}
}

func (r reduce) Parse(tokens []token.Token, nodes []ast.Node) ([]token.Token, []ast.Node, error) {
	rest, out, err := r.inner.Parse(tokens, nodes)
	if err != nil {
		return tokens, nodes, err
	}
	if !shrank(tokens, rest) {
		return tokens, nodes, nil
	}
	if len(out) < r.arity {
		return tokens, nodes, diagnostics.NewError(diagnostics.ErrI001, tokens[0],
			"reduce needs %d nodes, accumulator holds %d", r.arity, len(out))
	}

	consumed := tokens[:len(tokens)-len(rest)]
	node, err := r.build(out[:r.arity], consumed)
	if err != nil {
		return tokens, nodes, err
	}
	return rest, push(node, out[r.arity:]), nil
}
