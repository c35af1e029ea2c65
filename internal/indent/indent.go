// Package indent implements the off-side-rule indentation processor: it
// rewrites a raw token sequence (as produced by internal/lexer) into one
// carrying explicit INDENT/DEDENT tokens, using the two-pass algorithm of
// classification followed by depth reconciliation.
package indent

import "github.com/antonio-tresol/fangless-go/internal/token"

// Error is a fatal indentation inconsistency: a MUST_INDENT token that
// didn't indent, an unexpected indent, or a dedent to a depth that was
// never pushed.
type Error struct {
	Message string
	Pos     token.Position
}

func (e *Error) Error() string { return e.Message }

type lineState int

const (
	noIndent lineState = iota
	mayIndent
	mustIndent
)

// Process runs both passes and returns the rewritten token sequence.
func Process(tokens []token.Token) ([]token.Token, error) {
	return reconcile(classify(tokens))
}

// classify is Pass 1: it labels every token with AtLineStart and MustIndent
// according to a three-state machine driven by COLON, NEWLINE, and
// WHITESPACE tokens.
func classify(tokens []token.Token) []token.Token {
	out := make([]token.Token, len(tokens))
	copy(out, tokens)

	st := noIndent
	atLineStart := true

	for i := range out {
		out[i].AtLineStart = atLineStart

		switch out[i].Kind {
		case token.COLON:
			atLineStart = false
			st = mayIndent
			out[i].MustIndent = false
		case token.NEWLINE:
			atLineStart = true
			if st == mayIndent {
				st = mustIndent
			}
			out[i].MustIndent = false
		case token.WHITESPACE:
			atLineStart = true
			out[i].MustIndent = false
		default:
			out[i].MustIndent = st == mustIndent
			atLineStart = false
			st = noIndent
		}
	}

	return out
}

// reconcile is Pass 2: it walks the classified stream tracking a stack of
// column levels, dropping WHITESPACE tokens, dropping NEWLINEs that mark
// empty lines, and synthesizing INDENT/DEDENT tokens at depth changes.
func reconcile(tokens []token.Token) ([]token.Token, error) {
	levels := []int{0}
	depth := 0
	lastWasWhitespace := false

	var out []token.Token
	var lastPos token.Position

	for _, tok := range tokens {
		lastPos = tok.Pos

		switch tok.Kind {
		case token.WHITESPACE:
			depth = len([]rune(tok.Literal))
			lastWasWhitespace = true
			continue
		case token.NEWLINE:
			depth = 0
			if !lastWasWhitespace && !tok.AtLineStart {
				out = append(out, tok)
			}
			lastWasWhitespace = false
			continue
		}

		lastWasWhitespace = false

		switch {
		case tok.MustIndent:
			if !(depth > levels[len(levels)-1]) {
				return nil, &Error{Message: "expected an indented block", Pos: tok.Pos}
			}
			levels = append(levels, depth)
			out = append(out, token.New(token.INDENT, "", tok.Pos))

		case tok.AtLineStart:
			top := levels[len(levels)-1]
			switch {
			case depth == top:
				// same block, nothing to do
			case depth > top:
				return nil, &Error{Message: "unexpected indent", Pos: tok.Pos}
			default:
				idx := -1
				for i, lvl := range levels {
					if lvl == depth {
						idx = i
						break
					}
				}
				if idx == -1 {
					return nil, &Error{Message: "unindent does not match any outer indentation level", Pos: tok.Pos}
				}
				// Pop every level above idx, threading a DEDENT in before
				// the token that's already sitting at the tail of out (the
				// preceding NEWLINE, in the common case) so parsing sees
				// "DEDENT NEWLINE" rather than "NEWLINE DEDENT".
				for i := len(levels) - 1; i > idx; i-- {
					n := len(out)
					if n == 0 {
						out = append(out, token.New(token.DEDENT, "", tok.Pos))
					} else {
						prev := out[n-1]
						out[n-1] = token.New(token.DEDENT, "", prev.Pos)
						out = append(out, prev)
					}
					levels = levels[:len(levels)-1]
				}
			}
		}

		out = append(out, tok)
	}

	for i := 1; i < len(levels); i++ {
		out = append(out, token.New(token.DEDENT, "", lastPos))
	}

	return out, nil
}
