package archive

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestMediaRefIDs(t *testing.T) {
	tests := []struct {
		name string
		ref  MediaRef
		want []string
	}{
		{"zero", MediaRef{}, nil},
		{"joined", Joined("a | b |c"), []string{"a", "b", "c"}},
		{"joined single", Joined(" abc "), []string{"abc"}},
		{"joined empty", Joined(""), []string{}},
		{"joined empty tokens", Joined(" | a | "), []string{"a"}},
		{"list", List("x", " y ", ""), []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ref.IDs()
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("IDs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMediaRefUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{`"a | b"`, []string{"a", "b"}},
		{`["a", "b"]`, []string{"a", "b"}},
		{`null`, nil},
		{`""`, nil},
	}

	for _, tt := range tests {
		var ref MediaRef
		if err := json.Unmarshal([]byte(tt.input), &ref); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
		}
		got := ref.IDs()
		if len(got) != len(tt.want) || (len(got) > 0 && !reflect.DeepEqual(got, tt.want)) {
			t.Errorf("Unmarshal(%s).IDs() = %q, want %q", tt.input, got, tt.want)
		}
	}

	var ref MediaRef
	if err := json.Unmarshal([]byte(`42`), &ref); err == nil {
		t.Error("Unmarshal(42) error = nil, want error")
	}
}

func TestMediaRefMarshal(t *testing.T) {
	data, err := json.Marshal(Joined("a | b"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["a","b"]` {
		t.Errorf("Marshal() = %s, want [\"a\",\"b\"]", data)
	}

	data, _ = json.Marshal(MediaRef{})
	if string(data) != `[]` {
		t.Errorf("Marshal(empty) = %s, want []", data)
	}
}

func TestMemoryFilePrefix(t *testing.T) {
	tests := []struct {
		date   string
		want   string
		wantOK bool
	}{
		{"2024-05-01 07:30:00 UTC", "2024-05-01_07-30-00", true},
		{" 2019-12-31 23:59:59 UTC ", "2019-12-31_23-59-59", true},
		{"2024-05-01T07:30:00Z", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := Memory{Date: tt.date}.FilePrefix()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("FilePrefix(%q) = %q, %v, want %q, %v", tt.date, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestChatMessageCreatedAt(t *testing.T) {
	got, ok := ChatMessage{Created: "2023-01-02 03:04:05 UTC"}.CreatedAt()
	if !ok || !got.Equal(time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("CreatedAt() = %v, %v", got, ok)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadChatHistory(t *testing.T) {
	root := t.TempDir()
	path := ExportPath(root, ChatHistoryFile)
	writeFile(t, path, `{
		"bob": [
			{"From": "bob", "Media Type": "MEDIA", "Created": "2023-01-02 03:04:05 UTC", "Content": "", "Media IDs": "a | b"},
			{"From": "me", "Media Type": "TEXT", "Created": "2023-01-02 03:05:00 UTC", "Content": "hi", "Media IDs": ""}
		],
		"alice": [
			{"From": "alice", "Media Type": "MEDIA", "Created": "2023-01-01 00:00:00 UTC", "Media IDs": ["c"]}
		]
	}`)

	history, err := LoadChatHistory(path)
	if err != nil {
		t.Fatalf("LoadChatHistory() error = %v", err)
	}
	if got := history.Conversations(); !reflect.DeepEqual(got, []string{"alice", "bob"}) {
		t.Errorf("Conversations() = %v", got)
	}
	if history["bob"][1].Content != "hi" {
		t.Errorf("Content = %q, want hi", history["bob"][1].Content)
	}

	refs := history.MediaRefs()
	if len(refs) != 2 {
		t.Fatalf("len(MediaRefs()) = %d, want 2", len(refs))
	}
	if got := refs[0].IDs(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("refs[0] = %v, want [c]", got)
	}
	if got := refs[1].IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("refs[1] = %v, want [a b]", got)
	}
}

func TestLoadMemories(t *testing.T) {
	root := t.TempDir()
	wrapped := filepath.Join(root, "wrapped.json")
	writeFile(t, wrapped, `{"Saved Media": [
		{"Date": "2024-05-01 07:30:00 UTC", "Media Type": "Image", "Media Download Url": "https://example.invalid/a"}
	]}`)
	bare := filepath.Join(root, "bare.json")
	writeFile(t, bare, `[{"Date": "2024-05-02 08:00:00 UTC", "Media Type": "Video"}]`)

	memories, err := LoadMemories(wrapped)
	if err != nil {
		t.Fatalf("LoadMemories(wrapped) error = %v", err)
	}
	if len(memories) != 1 || memories[0].MediaType != "Image" || memories[0].DownloadURL == "" {
		t.Errorf("LoadMemories(wrapped) = %+v", memories)
	}

	memories, err = LoadMemories(bare)
	if err != nil {
		t.Fatalf("LoadMemories(bare) error = %v", err)
	}
	if len(memories) != 1 || memories[0].MediaType != "Video" {
		t.Errorf("LoadMemories(bare) = %+v", memories)
	}
}

func TestLoadErrors(t *testing.T) {
	root := t.TempDir()

	_, err := LoadMemories(filepath.Join(root, "missing.json"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Op != "read" {
		t.Errorf("LoadMemories(missing) = %v, want read LoadError", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("errors.Is(err, fs.ErrNotExist) = false for %v", err)
	}

	broken := filepath.Join(root, "broken.json")
	writeFile(t, broken, `{"bob": [`)
	_, err = LoadChatHistory(broken)
	if !errors.As(err, &loadErr) || loadErr.Op != "parse" {
		t.Errorf("LoadChatHistory(broken) = %v, want parse LoadError", err)
	}
}
