// Package compile wires the full pipeline — lexer, indentation processor,
// token-stream finalizer, parser, and (optionally) the emitter — behind a
// single entry point that composes each stage in sequence.
package compile

import (
	"fmt"

	"github.com/antonio-tresol/fangless-go/internal/ast"
	"github.com/antonio-tresol/fangless-go/internal/config"
	"github.com/antonio-tresol/fangless-go/internal/diag"
	"github.com/antonio-tresol/fangless-go/internal/emitter"
	"github.com/antonio-tresol/fangless-go/internal/indent"
	"github.com/antonio-tresol/fangless-go/internal/lexer"
	"github.com/antonio-tresol/fangless-go/internal/parser"
	"github.com/antonio-tresol/fangless-go/internal/token"
	"github.com/antonio-tresol/fangless-go/internal/tokstream"
)

// Result is everything one Compile call can produce: the parsed AST, every
// diagnostic raised along the way, and — only when config.WithEmit(true)
// was supplied — the generated C++ source text.
type Result struct {
	AST           []ast.Node
	Diagnostics   []diag.Diagnostic
	EmittedSource string
}

// Compile runs source through the whole front end and, if requested, the
// emitter. A non-nil error means some stage failed fatally; Result still
// carries whatever diagnostics and partial AST were produced before that
// point, useful for reporting.
func Compile(source string, opts ...config.Option) (*Result, error) {
	cfg := config.Resolve(opts...)

	lx := lexer.New(source, lexer.WithTabWidth(cfg.TabWidth), lexer.WithTracing(cfg.Trace))

	var tokens []token.Token
	for {
		tok := lx.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}

	if lexErrs := lx.Errors(); len(lexErrs) > 0 {
		diags := make([]diag.Diagnostic, len(lexErrs))
		for i, e := range lexErrs {
			diags[i] = diag.New(diag.Lex, e.Message, e.Pos, source)
		}
		return &Result{Diagnostics: diags}, fmt.Errorf("lexing failed: %s", diags[0].Format())
	}

	indented, err := indent.Process(tokens)
	if err != nil {
		var pos token.Position
		if indentErr, ok := err.(*indent.Error); ok {
			pos = indentErr.Pos
		}
		d := diag.New(diag.Indent, err.Error(), pos, source)
		return &Result{Diagnostics: []diag.Diagnostic{d}}, fmt.Errorf("indentation failed: %s", d.Format())
	}

	finalized := tokstream.Finalize(indented)

	p := parser.New(finalized, source)
	nodes, diags := p.Parse()
	result := &Result{AST: nodes, Diagnostics: diags}
	if len(diags) > 0 {
		return result, fmt.Errorf("parsing failed: %s", diags[0].Format())
	}

	if cfg.Emit {
		em := emitter.New(cfg.Banner)
		out, emitErr := em.Emit(nodes)
		if emitErr != nil {
			return result, fmt.Errorf("emission failed: %w", emitErr)
		}
		result.EmittedSource = out
	}

	return result, nil
}
