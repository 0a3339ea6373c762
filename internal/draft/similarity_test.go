package draft

import (
	"math/rand"
	"testing"
)

func TestSimilarity_ExactMatch(t *testing.T) {
	if got := Similarity("hello world", "hello world"); got != 100 {
		t.Errorf("Similarity(equal) = %d, want 100", got)
	}
}

func TestSimilarity_NormalizedMatch(t *testing.T) {
	// Case and whitespace differences vanish under normalization
	if got := Similarity("  Hello   World ", "hello world"); got != 100 {
		t.Errorf("Similarity(normalized equal) = %d, want 100", got)
	}
}

func TestSimilarity_Empty(t *testing.T) {
	if got := Similarity("", "hello"); got != 0 {
		t.Errorf("Similarity(empty, x) = %d, want 0", got)
	}
	if got := Similarity("hello", "   "); got != 0 {
		t.Errorf("Similarity(x, whitespace) = %d, want 0", got)
	}
	// Both empty normalize equal
	if got := Similarity("", ""); got != 100 {
		t.Errorf("Similarity(empty, empty) = %d, want 100", got)
	}
}

func TestSimilarity_Unrelated(t *testing.T) {
	got := Similarity("hello world", "qqqqqqqqqqqqqqqqqqqq")
	if got >= 60 {
		t.Errorf("Similarity(unrelated) = %d, want < 60", got)
	}
}

func TestSimilarity_CloseMatch(t *testing.T) {
	// One substitution in an 11-char string: round(100*10/11) = 91
	got := Similarity("hello world", "hello worle")
	if got != 91 {
		t.Errorf("Similarity(one substitution) = %d, want 91", got)
	}
}

func TestSimilarity_Insertion(t *testing.T) {
	// "abcd" -> "abcde": distance 1, maxLen 5, round(100*4/5) = 80
	if got := Similarity("abcd", "abcde"); got != 80 {
		t.Errorf("Similarity(insertion) = %d, want 80", got)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"hello world", "hello there"},
		{"draft text", "sent text"},
		{"a", "abcdef"},
	}
	for _, p := range pairs {
		if Similarity(p[0], p[1]) != Similarity(p[1], p[0]) {
			t.Errorf("Similarity(%q, %q) not symmetric", p[0], p[1])
		}
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	// Property check over random inputs: score is always within [0,100]
	// and symmetric.
	rng := rand.New(rand.NewSource(1))
	alphabet := []rune("ab c")
	gen := func(n int) string {
		out := make([]rune, n)
		for i := range out {
			out[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(out)
	}

	for i := 0; i < 500; i++ {
		a := gen(rng.Intn(20))
		b := gen(rng.Intn(20))
		got := Similarity(a, b)
		if got < 0 || got > 100 {
			t.Fatalf("Similarity(%q, %q) = %d, out of [0,100]", a, b, got)
		}
		if got != Similarity(b, a) {
			t.Fatalf("Similarity(%q, %q) not symmetric", a, b)
		}
	}
}

func TestSimilarity_Unicode(t *testing.T) {
	// Distance counts runes, not bytes
	if got := Similarity("héllo", "hello"); got != 80 {
		t.Errorf("Similarity(unicode substitution) = %d, want 80", got)
	}
}
