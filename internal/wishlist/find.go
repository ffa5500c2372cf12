package wishlist

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vmunix/moviedeck/internal/tmdb"
)

// MinSimilarity is the Jaro-Winkler score a title needs to match a query.
const MinSimilarity = 0.70

// Match is one Find result.
type Match struct {
	Movie tmdb.MovieSummary `json:"movie"`
	Score float64           `json:"score"`
}

// Find ranks wishlist titles against query. A title matches when it contains
// the query or is similar enough to it. Results are best first; limit <= 0
// returns all matches.
func (s *Store) Find(query string, limit int) []Match {
	q := normalizeTitle(query)
	if q == "" {
		return nil
	}

	var matches []Match
	for _, m := range s.Items() {
		title := normalizeTitle(m.Title)
		score := float64(edlib.JaroWinklerSimilarity(q, title))
		if strings.Contains(title, q) {
			score = max(score, 0.95)
		}
		if score < MinSimilarity {
			continue
		}
		matches = append(matches, Match{Movie: m, Score: score})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// normalizeTitle lowercases, folds accents and drops punctuation.
func normalizeTitle(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, strings.ToLower(title))
	if err != nil {
		s = strings.ToLower(title)
	}
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
