package challenge

import "strings"

// Rand is the subset of *math/rand/v2.Rand used for distractors and shuffles.
type Rand interface {
	IntN(n int) int
}

const (
	// mathDeltaRadius bounds distractors to answer±2.
	mathDeltaRadius = 2
	// maxDraws caps rejection sampling; once hit, a deterministic scan completes the set.
	maxDraws = 1000
	// letterDistractors is how many foreign letters join a word's own letters.
	letterDistractors = 4
)

// MathOptions builds the four answer options for answer.
// Distractors are answer+delta with delta ∈ [-2,2], rejecting negatives and the
// answer itself, accepted in arrival order. The result is shuffled.
func MathOptions(answer int, rng Rand) []int {
	opts := []int{answer}
	seen := map[int]struct{}{answer: {}}
	add := func(v int) {
		if v < 0 {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		opts = append(opts, v)
	}
	for i := 0; i < maxDraws && len(opts) < optionCount; i++ {
		add(answer + rng.IntN(2*mathDeltaRadius+1) - mathDeltaRadius)
	}
	// Small answers (0 or 1) cannot reach four options inside the delta range.
	for v := 0; len(opts) < optionCount; v++ {
		add(v)
	}
	Shuffle(opts, rng)
	return opts
}

// LetterPool returns the word's letters plus exactly four distractor letters
// from alphabet, none already in the word and none repeated, shuffled once.
// If the alphabet has fewer than four free letters the pool carries what exists.
func LetterPool(word string, alphabet string, rng Rand) []string {
	letters := Word{Word: word}.Letters()
	abc := []rune(alphabet)
	taken := make(map[string]struct{}, len(letters)+letterDistractors)
	for _, l := range letters {
		taken[l] = struct{}{}
	}

	distractors := make([]string, 0, letterDistractors)
	pick := func(l string) {
		if _, ok := taken[l]; ok {
			return
		}
		taken[l] = struct{}{}
		distractors = append(distractors, l)
	}
	if len(abc) > 0 {
		for i := 0; i < maxDraws && len(distractors) < letterDistractors; i++ {
			pick(string(abc[rng.IntN(len(abc))]))
		}
	}
	for _, r := range abc {
		if len(distractors) == letterDistractors {
			break
		}
		pick(string(r))
	}

	pool := append(letters, distractors...)
	Shuffle(pool, rng)
	return pool
}

// Shuffle permutes s in place (Fisher–Yates).
func Shuffle[T any](s []T, rng Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// inAlphabet reports whether every character of w belongs to alphabet.
func inAlphabet(w, alphabet string) bool {
	for _, r := range w {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
