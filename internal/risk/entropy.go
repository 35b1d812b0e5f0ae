package risk

import "math"

// ShannonEntropy measures the information density of a string in bits per
// character, H = -sum(p(c) * log2 p(c)) over rune frequencies. Repetitive
// input such as "aaaa" scores 0; an empty string also scores 0.
func ShannonEntropy(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}

	freq := make(map[rune]int, len(runes))
	for _, r := range runes {
		freq[r]++
	}

	length := float64(len(runes))
	entropy := 0.0
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// hasRepeatedRun reports whether the string contains n or more identical
// consecutive runes, the classic keyboard-mash pattern.
func hasRepeatedRun(s string, n int) bool {
	if n <= 1 {
		return s != ""
	}
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}
