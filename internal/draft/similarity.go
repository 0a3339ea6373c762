package draft

// Similarity computes a normalized 0-100 text-similarity score between two
// strings. Both inputs are normalized first; equal strings score 100, an
// empty side scores 0, everything else is scored by unit-cost edit distance
// scaled to the longer string. Symmetric and deterministic.
func Similarity(a, b string) int {
	a = Normalize(a)
	b = Normalize(b)

	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}

	dist := editDistance(ra, rb)
	return int(float64(100*(maxLen-dist))/float64(maxLen) + 0.5)
}

// editDistance is Levenshtein distance with unit-cost substitution,
// insertion, and deletion, using a two-row rolling table.
func editDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
