package mediaindex

import (
	"path/filepath"
	"testing"
	"time"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name string
		want Identity
	}{
		{
			name: "2023-01-02_ABC.jpg",
			want: Identity{Stem: "2023-01-02_ABC", ContentID: "ABC", Variant: VariantPrimary},
		},
		{
			name: "2023-01-02_media~ABC.mp4",
			want: Identity{Stem: "2023-01-02_media~ABC", ContentID: "ABC", Variant: VariantPrimary},
		},
		{
			name: "2023-01-02_overlay~ABC.png",
			want: Identity{Stem: "2023-01-02_overlay~ABC", ContentID: "ABC", Variant: VariantOverlay},
		},
		{
			name: "2023-01-02_ABC_image.jpg",
			want: Identity{Stem: "2023-01-02_ABC_image", ContentID: "ABC", Variant: VariantImage},
		},
		{
			name: "2023-01-02_ABC_caption.png",
			want: Identity{Stem: "2023-01-02_ABC_caption", ContentID: "ABC", Variant: VariantCaption},
		},
		{
			name: "2017-04-30_b~EiQSFnJ.jpg",
			want: Identity{Stem: "2017-04-30_b~EiQSFnJ", ContentID: "b~EiQSFnJ", Variant: VariantPrimary},
		},
		{
			name: "2024-05-01_07-30-00.jpg",
			want: Identity{Stem: "2024-05-01_07-30-00", Timestamp: "2024-05-01_07-30-00", Variant: VariantPrimary},
		},
		{
			name: "2024-05-01_07-30-00_caption.png",
			want: Identity{Stem: "2024-05-01_07-30-00_caption", Timestamp: "2024-05-01_07-30-00", Variant: VariantCaption},
		},
		{
			name: "2024-05-01_07-30-00_XYZ.mp4",
			want: Identity{Stem: "2024-05-01_07-30-00_XYZ", ContentID: "XYZ", Timestamp: "2024-05-01_07-30-00", Variant: VariantPrimary},
		},
		{
			name: "notes.txt",
			want: Identity{Stem: "notes", Variant: VariantUnknown},
		},
		{
			name: "id.with.dots_x.jpg",
			want: Identity{Stem: "id.with.dots_x", ContentID: "x", Variant: VariantPrimary},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFilename(tt.name)
			if got != tt.want {
				t.Errorf("ParseFilename(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}
}

func TestVariantRank(t *testing.T) {
	order := []VariantKind{VariantImage, VariantPrimary, VariantUnknown, VariantOverlay}
	for i := 1; i < len(order); i++ {
		if order[i-1].rank() <= order[i].rank() {
			t.Errorf("rank(%s) = %d, want > rank(%s) = %d", order[i-1], order[i-1].rank(), order[i], order[i].rank())
		}
	}
	if VariantCaption.rank() != VariantOverlay.rank() {
		t.Errorf("caption and overlay should rank equally")
	}
	if VariantCaption.Displayable() || VariantOverlay.Displayable() {
		t.Error("overlay variants should not be displayable")
	}
	if !VariantImage.Displayable() || !VariantPrimary.Displayable() {
		t.Error("image and primary variants should be displayable")
	}
}

func TestParseTimestamp(t *testing.T) {
	got, ok := ParseTimestamp(filepath.Join("memories", "2024-05-01_07-30-00_image.jpg"))
	if !ok {
		t.Fatal("ParseTimestamp() ok = false")
	}
	want := time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseTimestamp() = %v, want %v", got, want)
	}

	got, ok = ParseTimestamp("Snapchat-export_2024-05-01_07-30-00.mp4")
	if !ok || !got.Equal(want) {
		t.Errorf("ParseTimestamp() with an embedded segment = %v, %v, want %v", got, ok, want)
	}
	if id := ParseFilename("Snapchat-export_2024-05-01_07-30-00.mp4"); id.Timestamp != "" {
		t.Errorf("ParseFilename() Timestamp = %q, want only leading segments as keys", id.Timestamp)
	}

	for _, name := range []string{"2024-05-01_ABC.jpg", "2024-13-01_07-30-00.jpg", "clip.mp4"} {
		if _, ok := ParseTimestamp(name); ok {
			t.Errorf("ParseTimestamp(%q) ok = true, want false", name)
		}
	}
}

func TestBaseStem(t *testing.T) {
	tests := []struct {
		path     string
		wantStem string
	}{
		{"/m/2023-01-02_ABC_image.jpg", "2023-01-02_ABC"},
		{"/m/2023-01-02_ABC_caption.png", "2023-01-02_ABC"},
		{"/m/2023-01-02_ABC.mp4", "2023-01-02_ABC"},
	}

	for _, tt := range tests {
		dir, stem := BaseStem(tt.path)
		if dir != filepath.Dir(tt.path) || stem != tt.wantStem {
			t.Errorf("BaseStem(%q) = %q, %q, want %q, %q", tt.path, dir, stem, filepath.Dir(tt.path), tt.wantStem)
		}
	}
}
