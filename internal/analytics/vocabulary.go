package analytics

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lexiqai/speech-insights/internal/transcript"
)

// VocabResult holds the alphabetic word list and its statistics
type VocabResult struct {
	Words            []string
	UniqueWordCount  int
	LexicalDiversity float64
	AvgWordLength    float64
}

// VocabularyAnalyzer measures lexical richness. Matching is exact:
// no case folding, no stemming.
type VocabularyAnalyzer struct{}

// Words returns every whitespace token made only of letters, in transcript order
func (VocabularyAnalyzer) Words(segments []transcript.Segment) []string {
	var words []string
	for _, seg := range segments {
		for _, tok := range strings.Fields(seg.Text) {
			if isAlpha(tok) {
				words = append(words, tok)
			}
		}
	}
	return words
}

// Analyze computes uniqueness, diversity and mean length; all 0 without words
func (v VocabularyAnalyzer) Analyze(segments []transcript.Segment) VocabResult {
	words := v.Words(segments)
	res := VocabResult{Words: words}
	if len(words) == 0 {
		return res
	}

	unique := make(map[string]struct{}, len(words))
	letters := 0
	for _, w := range words {
		unique[w] = struct{}{}
		letters += utf8.RuneCountInString(w)
	}

	res.UniqueWordCount = len(unique)
	res.LexicalDiversity = float64(len(unique)) / float64(len(words))
	res.AvgWordLength = float64(letters) / float64(len(words))
	return res
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
