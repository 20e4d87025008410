package rank

import (
	"strings"
	"unicode"
)

// stopwords is the fixed set of common function words dropped during tokenization.
// Contraction stems appear as their apostrophe-stripped forms (don't -> don, t).
var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "about", "above", "after", "again", "against", "all", "also", "am", "an",
		"and", "any", "are", "aren", "as", "at", "be", "because", "been", "before",
		"being", "below", "between", "both", "but", "by", "can", "cannot", "could", "couldn",
		"did", "didn", "do", "does", "doesn", "doing", "don", "down", "during", "each",
		"few", "for", "from", "further", "had", "hadn", "has", "hasn", "have", "haven",
		"having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how",
		"i", "if", "in", "into", "is", "isn", "it", "its", "itself", "just",
		"ll", "me", "might", "more", "most", "mustn", "my", "myself", "no", "nor",
		"not", "now", "of", "off", "on", "once", "only", "or", "other", "our",
		"ours", "ourselves", "out", "over", "own", "please", "re", "same", "shan", "she",
		"should", "shouldn", "so", "some", "such", "than", "that", "the", "their", "theirs",
		"them", "themselves", "then", "there", "these", "they", "this", "those", "through", "to",
		"too", "under", "until", "up", "upon", "ve", "very", "was", "wasn", "we",
		"were", "weren", "what", "when", "where", "which", "while", "who", "whom", "why",
		"will", "with", "won", "would", "wouldn", "you", "your", "yours", "yourself", "yourselves",
	}

	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// Tokenize lowercases text, strips non-alphanumeric characters, and drops
// single-character tokens and stopwords. An all-stopword input yields nil.
func Tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}

	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// splitIdentifier breaks a tool identifier into lowercase tokens on case,
// underscore, hyphen, dot, and space boundaries: createPage, create_page and
// create-page all yield [create page].
func splitIdentifier(s string) []string {
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}

	var prev rune
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			flush()
		case unicode.IsUpper(r) && prev != 0 && !unicode.IsUpper(prev):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
		prev = r
	}
	flush()

	return tokens
}
