package parse

import (
	"regexp"
	"strings"

	"wbtracker/internal/lexicon"
)

// Time notations. The unit-word variant is listed with and without its
// trailing seconds unit so the scanner can also split "30 s" into a time
// followed by a resource letter.
var (
	timeColonToken = regexp.MustCompile(`^\d{1,2}\s*:\s*\d{2}`)
	timeUnitsToken = regexp.MustCompile(`^\d{1,2}\s*(?:mins?)?\s*(?::|\s+)\d{2}`)
	timeUnitsFull  = regexp.MustCompile(`^\d{1,2}\s*(?:mins?)?\s*(?::|\s+)\d{2}\s*(?:segs|seg|s)`)
)

// matcher returns every end offset of a token starting at s[i].
type matcher func(s string, i int) []int

// Grammar decides whether a sanitized line is made exclusively of
// recognised tokens, in any order and with any repetition.
type Grammar struct {
	matchers []matcher
}

// Compile builds the admissibility grammar from the lexicon tables.
func Compile() *Grammar {
	locs := make([]string, 0, len(lexicon.Locations))
	for _, l := range lexicon.Locations {
		locs = append(locs, l.Term)
	}
	return &Grammar{matchers: []matcher{
		digitRun(4),
		literals(locs),
		phrases(lexicon.StatusPhrases()),
		literals(lexicon.Hostility),
		literals(lexicon.Alliance),
		letterRun(lexicon.ResourceLetters),
		pattern(timeColonToken),
		pattern(timeUnitsToken),
		pattern(timeUnitsFull),
	}}
}

// Admit reports whether the whole line tokenises. Tokens may be separated by
// any amount of whitespace, including none. An empty line is not admitted.
func (g *Grammar) Admit(s string) bool {
	start := skipSpace(s, 0)
	if start == len(s) {
		return false
	}
	seen := make([]bool, len(s)+1)
	seen[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		for _, m := range g.matchers {
			for _, end := range m(s, i) {
				next := skipSpace(s, end)
				if next == len(s) {
					return true
				}
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
	}
	return false
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func digitRun(max int) matcher {
	return func(s string, i int) []int {
		var ends []int
		for j := i; j < len(s) && j-i < max && s[j] >= '0' && s[j] <= '9'; j++ {
			ends = append(ends, j+1)
		}
		return ends
	}
}

func letterRun(letters string) matcher {
	return func(s string, i int) []int {
		var ends []int
		for j := i; j < len(s) && strings.IndexByte(letters, s[j]) >= 0; j++ {
			ends = append(ends, j+1)
		}
		return ends
	}
}

func literals(terms []string) matcher {
	return func(s string, i int) []int {
		var ends []int
		for _, t := range terms {
			if strings.HasPrefix(s[i:], t) {
				ends = append(ends, i+len(t))
			}
		}
		return ends
	}
}

// phrases matches multi-word terms where each internal whitespace run in the
// term accepts zero or more whitespace characters in the input.
func phrases(terms []string) matcher {
	split := make([][]string, len(terms))
	for k, t := range terms {
		split[k] = strings.Fields(t)
	}
	return func(s string, i int) []int {
		var ends []int
		for _, words := range split {
			if end, ok := matchWords(s, i, words); ok {
				ends = append(ends, end)
			}
		}
		return ends
	}
}

func matchWords(s string, i int, words []string) (int, bool) {
	for k, w := range words {
		if k > 0 {
			i = skipSpace(s, i)
		}
		if !strings.HasPrefix(s[i:], w) {
			return 0, false
		}
		i += len(w)
	}
	return i, true
}

func pattern(re *regexp.Regexp) matcher {
	return func(s string, i int) []int {
		loc := re.FindStringIndex(s[i:])
		if loc == nil {
			return nil
		}
		return []int{i + loc[1]}
	}
}
