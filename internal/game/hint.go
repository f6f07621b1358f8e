package game

// Hint scores a guess against the target word using the standard
// two-pass algorithm. Pass 1 marks exact matches and consumes those
// target letters. Pass 2 walks the remaining positions left to right,
// marking a letter present only while unconsumed occurrences remain,
// so duplicate letters are never double-counted. The result is a pure
// function of (guess, target).
//
// Precondition: len(guess) == len(target), both lowercase a-z; the
// session validates both before calling.
func Hint(guess, target string) []Mark {
	n := len(guess)
	res := make([]Mark, n)

	// Unconsumed letter counts for non-matching target positions.
	var counts [26]int

	for i := 0; i < n; i++ {
		if guess[i] == target[i] {
			res[i] = MarkCorrect
		} else {
			counts[target[i]-'a']++
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == MarkCorrect {
			continue
		}
		j := int(guess[i] - 'a')
		if j >= 0 && j < 26 && counts[j] > 0 {
			res[i] = MarkPresent
			counts[j]--
		} else {
			res[i] = MarkAbsent
		}
	}
	return res
}

// isAlpha reports whether s consists only of lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
