package words

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewListNormalizes(t *testing.T) {
	l := NewList([]string{"Apple", " brave ", "apple", "", "sp1ke", "día", "cloud"})
	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3", l.Len())
	}
	for _, w := range []string{"apple", "brave", "cloud"} {
		if !l.IsValid(w) {
			t.Errorf("IsValid(%q) = false", w)
		}
	}
	if l.IsValid("sp1ke") {
		t.Error("non-alphabetic entry kept")
	}
	if !l.IsValid("APPLE") {
		t.Error("IsValid should be case-insensitive")
	}
}

func TestWordsOfLength(t *testing.T) {
	l := NewList([]string{"cat", "apple", "brave", "go", "planet"})
	got, err := l.WordsOfLength(context.Background(), 5)
	if err != nil {
		t.Fatalf("WordsOfLength: %v", err)
	}
	want := []string{"apple", "brave"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("WordsOfLength(5) = %v, want %v", got, want)
	}

	got, err = l.WordsOfLength(context.Background(), 9)
	if err != nil || len(got) != 0 {
		t.Fatalf("WordsOfLength(9) = (%v, %v), want empty", got, err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("apple\nBRAVE\n\ncl0ud\ngrape\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3", l.Len())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("missing file did not error")
	}
}

type failingSource struct{ err error }

func (f failingSource) WordsOfLength(context.Context, int) ([]string, error) { return nil, f.err }
func (f failingSource) IsValid(string) bool                                  { return false }

func TestWithFallback(t *testing.T) {
	backup := NewList([]string{"house", "jolly"})

	t.Run("primary error falls back", func(t *testing.T) {
		src := WithFallback(failingSource{err: errors.New("down")}, backup)
		got, err := src.WordsOfLength(context.Background(), 5)
		if err != nil || len(got) != 2 {
			t.Fatalf("WordsOfLength = (%v, %v), want backup words", got, err)
		}
	})

	t.Run("primary empty falls back", func(t *testing.T) {
		src := WithFallback(NewList(nil), backup)
		got, err := src.WordsOfLength(context.Background(), 5)
		if err != nil || len(got) != 2 {
			t.Fatalf("WordsOfLength = (%v, %v), want backup words", got, err)
		}
	})

	t.Run("primary wins when populated", func(t *testing.T) {
		primary := NewList([]string{"flame"})
		src := WithFallback(primary, backup)
		got, _ := src.WordsOfLength(context.Background(), 5)
		if !reflect.DeepEqual(got, []string{"flame"}) {
			t.Fatalf("WordsOfLength = %v, want [flame]", got)
		}
	})

	t.Run("valid in either source", func(t *testing.T) {
		src := WithFallback(NewList([]string{"flame"}), backup)
		if !src.IsValid("flame") || !src.IsValid("house") {
			t.Fatal("IsValid should consult both sources")
		}
		if src.IsValid("zzzzz") {
			t.Fatal("IsValid accepted unknown word")
		}
	})
}

func TestAPIFetchAndCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("sp"); got != "?????" {
			t.Errorf("sp = %q, want ?????", got)
		}
		_, _ = w.Write([]byte(`[{"word":"apple"},{"word":"BRAVE"},{"word":"apple"},{"word":"app le"},{"word":"shorty"}]`))
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, srv.Client())
	got, err := api.WordsOfLength(context.Background(), 5)
	if err != nil {
		t.Fatalf("WordsOfLength: %v", err)
	}
	want := []string{"apple", "brave"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("WordsOfLength = %v, want %v", got, want)
	}

	// Second call of the same length serves from cache.
	if _, err := api.WordsOfLength(context.Background(), 5); err != nil {
		t.Fatalf("cached WordsOfLength: %v", err)
	}
	if calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", calls)
	}

	if !api.IsValid("apple") || !api.IsValid("BRAVE") {
		t.Error("fetched words should validate")
	}
	if api.IsValid("cloud") {
		t.Error("unfetched word validated")
	}
}

func TestAPIFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, srv.Client())
	if _, err := api.WordsOfLength(context.Background(), 5); err == nil {
		t.Fatal("bad status did not error")
	}
}
