// Package tokstream performs the final rewrite of an indented token
// sequence before it reaches the grammar: it drops the NEWLINE that
// precedes an ELIF or ELSE (so the parser can treat a multi-arm
// conditional as one production), wraps the sequence with START_TOKEN and
// END_TOKEN sentinels, and exposes it through a pull-style reader.
package tokstream

import "github.com/antonio-tresol/fangless-go/internal/token"

// Finalize rewrites an indented token sequence into its final, parser-ready
// form: NEWLINE-before-ELIF/ELSE suppressed, the lexer's EOF token dropped
// (END_TOKEN takes its place), bracketed by START_TOKEN and END_TOKEN.
func Finalize(tokens []token.Token) []token.Token {
	out := make([]token.Token, 0, len(tokens)+2)
	out = append(out, token.New(token.START_TOKEN, "", startPos(tokens)))

	for i, tok := range tokens {
		if tok.Kind == token.EOF {
			continue
		}
		if tok.Kind == token.NEWLINE && i+1 < len(tokens) {
			next := tokens[i+1].Kind
			if next == token.ELIF || next == token.ELSE {
				continue
			}
		}
		out = append(out, tok)
	}

	out = append(out, token.New(token.END_TOKEN, "", endPos(tokens)))
	return out
}

func startPos(tokens []token.Token) token.Position {
	if len(tokens) == 0 {
		return token.Position{Line: 1, Column: 0}
	}
	return tokens[0].Pos
}

func endPos(tokens []token.Token) token.Position {
	if len(tokens) == 0 {
		return token.Position{Line: 1, Column: 0}
	}
	return tokens[len(tokens)-1].Pos
}

// Reader is a pull-style API over a finalized token sequence: each call to
// Next yields the next token, and returns (zero Token, false) once the
// sequence is exhausted — the Go expression of the source's "null sentinel on EOF"
// contract.
type Reader struct {
	tokens []token.Token
	pos    int
}

// NewReader wraps an already-finalized token sequence for sequential pull.
func NewReader(tokens []token.Token) *Reader {
	return &Reader{tokens: tokens}
}

// Next returns the next token and true, or the zero Token and false once the
// stream is exhausted.
func (r *Reader) Next() (token.Token, bool) {
	if r.pos >= len(r.tokens) {
		return token.Token{}, false
	}
	tok := r.tokens[r.pos]
	r.pos++
	return tok, true
}

// Peek looks n tokens ahead (n=0 is the token Next would return next)
// without consuming anything. It returns false past the end of the stream.
func (r *Reader) Peek(n int) (token.Token, bool) {
	idx := r.pos + n
	if idx >= len(r.tokens) {
		return token.Token{}, false
	}
	return r.tokens[idx], true
}
