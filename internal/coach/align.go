package coach

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxWords bounds the alignment table.
const maxWords = 500

// WordStatus is the outcome for one expected word.
type WordStatus string

const (
	WordMatched WordStatus = "matched"
	WordMissed  WordStatus = "missed"
)

// WordResult pairs an expected word with whether it was heard.
type WordResult struct {
	Word   string     `json:"word"`
	Status WordStatus `json:"status"`
}

// alignment is the word-level comparison of expected and heard text.
type alignment struct {
	Words    []WordResult
	Missed   []string
	Extra    []string
	Accuracy float64
}

// token is a word as displayed plus its comparison key.
type token struct {
	display string
	key     string
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lower-cases s and strips diacritics so "Está" and "esta" compare equal.
func fold(s string) string {
	out, _, err := transform.String(foldAccents, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// tokenize splits text into words, trimming punctuation such as "¿", "¡"
// and quotes. Tokens with no letters or digits are dropped.
func tokenize(text string) []token {
	var tokens []token
	for _, field := range strings.Fields(text) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" {
			continue
		}
		tokens = append(tokens, token{display: word, key: fold(word)})
	}
	return tokens
}

// align compares expected and heard word sequences with a longest common
// subsequence, so a skipped or inserted word does not shift every later word
// into a mismatch.
func align(expected, heard []token) alignment {
	n, m := len(expected), len(heard)

	// lcs[i][j] is the LCS length of expected[i:] and heard[j:].
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case expected[i].key == heard[j].key:
				lcs[i][j] = lcs[i+1][j+1] + 1
			case lcs[i+1][j] >= lcs[i][j+1]:
				lcs[i][j] = lcs[i+1][j]
			default:
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	res := alignment{Words: make([]WordResult, 0, n)}
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case expected[i].key == heard[j].key:
			res.Words = append(res.Words, WordResult{Word: expected[i].display, Status: WordMatched})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			res.Words = append(res.Words, WordResult{Word: expected[i].display, Status: WordMissed})
			res.Missed = append(res.Missed, expected[i].display)
			i++
		default:
			res.Extra = append(res.Extra, heard[j].display)
			j++
		}
	}
	for ; i < n; i++ {
		res.Words = append(res.Words, WordResult{Word: expected[i].display, Status: WordMissed})
		res.Missed = append(res.Missed, expected[i].display)
	}
	for ; j < m; j++ {
		res.Extra = append(res.Extra, heard[j].display)
	}

	if n > 0 {
		res.Accuracy = float64(lcs[0][0]) / float64(n)
	}
	return res
}
