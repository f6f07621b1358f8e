// Word list management for the game engine.
//
// A Source supplies candidate words of a given length and answers
// membership checks for guesses. Implementations:
//   - List: in-memory list loaded from a file or the static defaults.
//   - API: remote word service with a local cache (api.go).
//   - WithFallback: combinator that falls back when a source fails or
//     comes up empty.
//
// Words are normalized to lowercase; only ASCII a-z entries are kept.
package words

import (
	"bufio"
	"context"
	"os"
	"strings"
)

// Source supplies valid words and membership-checks guesses. An empty
// WordsOfLength result is a recoverable condition, not an error; the
// caller decides whether to fall back.
type Source interface {
	WordsOfLength(ctx context.Context, length int) ([]string, error)
	IsValid(word string) bool
}

// List is a static in-memory Source.
type List struct {
	words []string
	set   map[string]struct{}
}

// NewList builds a List from the given words, dropping entries that
// are not purely alphabetic.
func NewList(words []string) *List {
	l := &List{set: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w == "" || !isAlpha(w) {
			continue
		}
		if _, dup := l.set[w]; dup {
			continue
		}
		l.words = append(l.words, w)
		l.set[w] = struct{}{}
	}
	return l
}

// LoadFile reads one word per line from path.
func LoadFile(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewList(out), nil
}

// Static returns the built-in default list used when no other source
// yields words.
func Static() *List {
	return NewList([]string{
		"apple", "brave", "cloud", "dream", "eagle",
		"flame", "grape", "house", "jolly", "knife",
	})
}

// WordsOfLength returns the subset of the list with the given length.
func (l *List) WordsOfLength(_ context.Context, length int) ([]string, error) {
	var out []string
	for _, w := range l.words {
		if len(w) == length {
			out = append(out, w)
		}
	}
	return out, nil
}

// IsValid reports membership of a normalized guess.
func (l *List) IsValid(word string) bool {
	_, ok := l.set[strings.ToLower(word)]
	return ok
}

// Len reports the number of loaded words.
func (l *List) Len() int { return len(l.words) }

// WithFallback chains two sources: backup serves when primary errors
// or returns no words, and guesses valid in either source are valid.
func WithFallback(primary, backup Source) Source {
	return &fallback{primary: primary, backup: backup}
}

type fallback struct {
	primary Source
	backup  Source
}

func (f *fallback) WordsOfLength(ctx context.Context, length int) ([]string, error) {
	out, err := f.primary.WordsOfLength(ctx, length)
	if err == nil && len(out) > 0 {
		return out, nil
	}
	return f.backup.WordsOfLength(ctx, length)
}

func (f *fallback) IsValid(word string) bool {
	return f.primary.IsValid(word) || f.backup.IsValid(word)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
