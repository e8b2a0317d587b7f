package extract

import (
	"testing"

	"github.com/dtnitsch/imagesync/models"
)

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []models.Reference
	}{
		{
			name: "single marker with definition",
			text: "![x][a]\n\n[a]: https://example.com/pic.jpg",
			want: []models.Reference{{Name: "a", URL: "https://example.com/pic.jpg"}},
		},
		{
			name: "markers emitted in document order",
			text: "![one][b]\nsome prose\n![two][a]\n\n[a]: https://example.com/a.png\n[b]: https://example.com/b.png",
			want: []models.Reference{
				{Name: "b", URL: "https://example.com/b.png"},
				{Name: "a", URL: "https://example.com/a.png"},
			},
		},
		{
			name: "marker without definition skipped silently",
			text: "![x][missing]\n![y][a]\n\n[a]: https://example.com/a.png",
			want: []models.Reference{{Name: "a", URL: "https://example.com/a.png"}},
		},
		{
			name: "last definition wins for repeated name",
			text: "![x][a]\n\n[a]: https://example.com/old.png\n[a]: https://example.com/new.png",
			want: []models.Reference{{Name: "a", URL: "https://example.com/new.png"}},
		},
		{
			name: "duplicate markers produce duplicate references",
			text: "![x][a] and again ![y][a]\n\n[a]: https://example.com/a.png",
			want: []models.Reference{
				{Name: "a", URL: "https://example.com/a.png"},
				{Name: "a", URL: "https://example.com/a.png"},
			},
		},
		{
			name: "non-http definitions ignored",
			text: "![x][a]\n![y][b]\n\n[a]: ftp://example.com/a.png\n[b]: https://example.com/b.png",
			want: []models.Reference{{Name: "b", URL: "https://example.com/b.png"}},
		},
		{
			name: "definition must be anchored at end of line",
			text: "![x][a]\n\n[a]: https://example.com/a.png trailing words",
			want: nil,
		},
		{
			name: "empty caption allowed",
			text: "![][a]\n\n[a]: http://example.com/a.png",
			want: []models.Reference{{Name: "a", URL: "http://example.com/a.png"}},
		},
		{
			name: "no markers yields empty",
			text: "just prose\n\n[a]: https://example.com/a.png",
			want: nil,
		},
		{
			name: "no definitions yields empty",
			text: "![x][a]\n![y][b]",
			want: nil,
		},
		{
			name: "empty document",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Markdown(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Markdown() returned %d refs, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ref %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	refs := []models.Reference{
		{Name: "a", URL: "https://example.com/a.png"},
		{Name: "b", URL: "https://example.com/b.png"},
		{Name: "a", URL: "https://example.com/a.png"},
		{Name: "a", URL: "https://example.com/a.png"},
	}

	got := Dedupe(refs)
	if len(got) != 2 {
		t.Fatalf("Dedupe() returned %d refs, want 2: %v", len(got), got)
	}
	if got[0].Name != "a" || got[1].Name != "b" {
		t.Errorf("Dedupe() kept %q,%q, want first occurrences a,b", got[0].Name, got[1].Name)
	}
}

func TestDedupeShortSlices(t *testing.T) {
	if got := Dedupe(nil); got != nil {
		t.Errorf("Dedupe(nil) = %v, want nil", got)
	}

	one := []models.Reference{{Name: "a", URL: "https://example.com/a.png"}}
	if got := Dedupe(one); len(got) != 1 {
		t.Errorf("Dedupe() of one ref returned %d refs, want 1", len(got))
	}
}
