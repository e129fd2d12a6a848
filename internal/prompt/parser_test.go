package prompt

import (
	"fmt"
	"testing"
	"time"

	"github.com/yeonho/movie-suggester-go/internal/domain"
	"github.com/yeonho/movie-suggester-go/pkg/errors"
)

func TestParsePlainArray(t *testing.T) {
	raw := `[
		{"title": "Blade Runner", "genre": ["sci-fi"], "year": 1982, "reason": "Neo-noir classic.", "description": "Replicant hunt in future LA", "content_type": "movie"},
		{"title": "Dark", "genre": ["mystery", "sci-fi"], "year": 2017, "reason": "Dense time-travel puzzle.", "description": "Small German town, missing children", "content_type": "series"}
	]`

	drafts, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected successful parse, got %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}

	if drafts[0].Title != "Blade Runner" {
		t.Errorf("unexpected title: %q", drafts[0].Title)
	}
	if drafts[0].Year == nil || *drafts[0].Year != 1982 {
		t.Errorf("expected year 1982, got %v", drafts[0].Year)
	}
	if drafts[0].Kind != domain.KindMovie {
		t.Errorf("expected movie kind, got %q", drafts[0].Kind)
	}
	if drafts[1].Kind != domain.KindSeries {
		t.Errorf("expected series kind, got %q", drafts[1].Kind)
	}
}

func TestParseStripsCodeFences(t *testing.T) {
	raw := "```json\n[{\"title\": \"Heat\", \"genre\": [\"crime\"], \"year\": 1995, \"reason\": \"Definitive heist film.\", \"description\": \"Cop and thief circle each other\", \"content_type\": \"movie\"}]\n```"

	drafts, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected successful parse, got %v", err)
	}
	if len(drafts) != 1 || drafts[0].Title != "Heat" {
		t.Fatalf("unexpected drafts: %+v", drafts)
	}
}

func TestParseExtractsArrayFromProse(t *testing.T) {
	raw := `Here are my picks for you:
[{"title": "Ran", "genre": ["drama"], "year": 1985, "reason": "Kurosawa's Lear.", "description": "Warlord divides his kingdom", "content_type": "movie"}]
Enjoy the watch!`

	drafts, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected successful parse, got %v", err)
	}
	if len(drafts) != 1 || drafts[0].Title != "Ran" {
		t.Fatalf("unexpected drafts: %+v", drafts)
	}
}

func TestParseSingleObjectBecomesOneDraft(t *testing.T) {
	raw := `{"title": "Alien", "genre": ["horror"], "year": 1979, "reason": "Perfect creature feature.", "description": "Crew hunted aboard the Nostromo", "content_type": "movie"}`

	drafts, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected successful parse, got %v", err)
	}
	if len(drafts) != 1 || drafts[0].Title != "Alien" {
		t.Fatalf("unexpected drafts: %+v", drafts)
	}
}

func TestParseDropsRecordsMissingTitleOrReason(t *testing.T) {
	raw := `[
		{"title": "", "reason": "no title here", "content_type": "movie"},
		{"title": "Solaris", "reason": "", "content_type": "movie"},
		{"title": "Stalker", "genre": ["sci-fi"], "year": 1979, "reason": "Hypnotic zone journey.", "description": "Guide leads two men into the Zone", "content_type": "movie"}
	]`

	drafts, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected successful parse, got %v", err)
	}
	if len(drafts) != 1 || drafts[0].Title != "Stalker" {
		t.Fatalf("expected only the valid record, got %+v", drafts)
	}
}

func TestParseClearsImplausibleYear(t *testing.T) {
	future := time.Now().Year() + 50
	raw := fmt.Sprintf(`[
		{"title": "Old", "genre": ["drama"], "year": 1700, "reason": "r", "content_type": "movie"},
		{"title": "Future", "genre": ["sci-fi"], "year": %d, "reason": "r", "content_type": "movie"}
	]`, future)

	drafts, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected successful parse, got %v", err)
	}
	for _, d := range drafts {
		if d.Year != nil {
			t.Errorf("expected cleared year for %q, got %d", d.Title, *d.Year)
		}
	}
}

func TestParseChatRecordClearsCatalogFields(t *testing.T) {
	raw := `[{"title": "Chat Response", "genre": ["drama"], "year": 2020, "reason": "Hello! What kind of movies do you enjoy?", "description": "", "content_type": "chat"}]`

	drafts, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected successful parse, got %v", err)
	}
	if drafts[0].Kind != domain.KindChat {
		t.Fatalf("expected chat kind, got %q", drafts[0].Kind)
	}
	if drafts[0].Genres != nil {
		t.Errorf("expected nil genres for chat, got %v", drafts[0].Genres)
	}
	if drafts[0].Year != nil {
		t.Errorf("expected nil year for chat, got %d", *drafts[0].Year)
	}
}

func TestParseGenreStringBecomesSingleElement(t *testing.T) {
	raw := `[{"title": "Paprika", "genre": "animation", "year": 2006, "reason": "Dream detective work.", "content_type": "movie"}]`

	drafts, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected successful parse, got %v", err)
	}
	if len(drafts[0].Genres) != 1 || drafts[0].Genres[0] != "animation" {
		t.Errorf("unexpected genres: %v", drafts[0].Genres)
	}
}

func TestParseUnknownContentTypeDefaultsToMovie(t *testing.T) {
	raw := `[{"title": "M", "genre": [], "year": 1931, "reason": "Lang's procedural.", "content_type": "documentary"}]`

	drafts, err := Parse(raw)
	if err != nil {
		t.Fatalf("expected successful parse, got %v", err)
	}
	if drafts[0].Kind != domain.KindMovie {
		t.Errorf("expected movie default, got %q", drafts[0].Kind)
	}
}

func TestParseFailures(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no json at all", "Sorry, I cannot help with that."},
		{"unterminated array", `[{"title": "Heat", "reason": "r"`},
		{"all records invalid", `[{"genre": ["drama"]}, {"year": 2001}]`},
		{"empty array", `[]`},
		{"bare scalar", `"just a string"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			if err == nil {
				t.Fatal("expected parse error, got nil")
			}
			if !errors.IsParse(err) {
				t.Errorf("expected parse error code, got %v", err)
			}
		})
	}
}
