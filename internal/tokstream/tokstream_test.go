package tokstream

import (
	"testing"

	"github.com/antonio-tresol/fangless-go/internal/token"
)

func TestFinalizeWrapsWithSentinels(t *testing.T) {
	in := []token.Token{
		token.New(token.NAME, "x", token.Position{Line: 1}),
		token.New(token.NEWLINE, "\n", token.Position{Line: 1}),
	}
	out := Finalize(in)

	if out[0].Kind != token.START_TOKEN {
		t.Fatalf("expected leading START_TOKEN, got %s", out[0].Kind)
	}
	if out[len(out)-1].Kind != token.END_TOKEN {
		t.Fatalf("expected trailing END_TOKEN, got %s", out[len(out)-1].Kind)
	}
}

func TestFinalizeDropsNewlineBeforeElifAndElse(t *testing.T) {
	in := []token.Token{
		token.New(token.DEDENT, "", token.Position{}),
		token.New(token.NEWLINE, "\n", token.Position{}),
		token.New(token.ELIF, "elif", token.Position{}),
		token.New(token.NAME, "x", token.Position{}),
		token.New(token.COLON, ":", token.Position{}),
		token.New(token.NEWLINE, "\n", token.Position{}),
		token.New(token.DEDENT, "", token.Position{}),
		token.New(token.NEWLINE, "\n", token.Position{}),
		token.New(token.ELSE, "else", token.Position{}),
	}
	out := Finalize(in)

	for i, tok := range out {
		if tok.Kind != token.NEWLINE {
			continue
		}
		if i+1 < len(out) {
			next := out[i+1].Kind
			if next == token.ELIF || next == token.ELSE {
				t.Fatalf("NEWLINE at %d should have been dropped before %s", i, next)
			}
		}
	}
}

func TestReaderPullAPIReturnsFalseAtExhaustion(t *testing.T) {
	out := Finalize(nil)
	r := NewReader(out)

	var seen []token.Kind
	for {
		tok, ok := r.Next()
		if !ok {
			break
		}
		seen = append(seen, tok.Kind)
	}

	if len(seen) != 2 || seen[0] != token.START_TOKEN || seen[1] != token.END_TOKEN {
		t.Fatalf("expected [START_TOKEN END_TOKEN], got %v", seen)
	}

	if _, ok := r.Next(); ok {
		t.Fatal("expected reader to report exhaustion once drained")
	}
}

func TestReaderPeekDoesNotConsume(t *testing.T) {
	out := Finalize([]token.Token{token.New(token.NAME, "x", token.Position{})})
	r := NewReader(out)

	peeked, ok := r.Peek(1)
	if !ok || peeked.Kind != token.NAME {
		t.Fatalf("expected to peek NAME, got %v ok=%v", peeked, ok)
	}

	first, ok := r.Next()
	if !ok || first.Kind != token.START_TOKEN {
		t.Fatalf("expected first Next to return START_TOKEN, got %v", first)
	}
}
