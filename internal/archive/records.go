package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"snapcapsule/internal/mediaindex"
)

// RecordTimeLayout is how exports write "Created" and "Date" values.
const RecordTimeLayout = "2006-01-02 15:04:05 UTC"

// Export-relative locations of the record files.
const (
	ChatHistoryFile = "json/chat_history.json"
	MemoriesFile    = "json/memories_history.json"
)

// ChatMessage is one entry of a conversation.
type ChatMessage struct {
	From      string   `json:"From"`
	MediaType string   `json:"Media Type"`
	Created   string   `json:"Created"`
	Content   string   `json:"Content"`
	MediaIDs  MediaRef `json:"Media IDs"`
}

// CreatedAt parses the message timestamp.
func (m ChatMessage) CreatedAt() (time.Time, bool) {
	return parseRecordTime(m.Created)
}

// ChatHistory maps a conversation partner to their messages in file order.
type ChatHistory map[string][]ChatMessage

// Conversations returns the partner names in sorted order.
func (h ChatHistory) Conversations() []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MediaRefs returns every message's media reference, conversation by
// conversation in sorted order. Messages without media are skipped.
func (h ChatHistory) MediaRefs() []MediaRef {
	var refs []MediaRef
	for _, name := range h.Conversations() {
		for _, msg := range h[name] {
			if !msg.MediaIDs.IsEmpty() {
				refs = append(refs, msg.MediaIDs)
			}
		}
	}
	return refs
}

// Memory is one saved snap.
type Memory struct {
	Date        string `json:"Date"`
	MediaType   string `json:"Media Type"`
	Location    string `json:"Location,omitempty"`
	DownloadURL string `json:"Media Download Url,omitempty"`
}

// Time parses the memory's date.
func (m Memory) Time() (time.Time, bool) {
	return parseRecordTime(m.Date)
}

// FilePrefix returns the YYYY-MM-DD_HH-MM-SS prefix the memory's file is
// saved under.
func (m Memory) FilePrefix() (string, bool) {
	t, ok := m.Time()
	if !ok {
		return "", false
	}
	return t.Format(mediaindex.TimestampLayout), true
}

func parseRecordTime(s string) (time.Time, bool) {
	t, err := time.Parse(RecordTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LoadChatHistory reads a chat_history.json file.
func LoadChatHistory(path string) (ChatHistory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Op: "read", Err: err}
	}

	var history ChatHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, &LoadError{Path: path, Op: "parse", Err: err}
	}
	if history == nil {
		history = ChatHistory{}
	}
	return history, nil
}

// LoadMemories reads a memories_history.json file. Both the export's
// {"Saved Media": [...]} object and a bare array are accepted.
func LoadMemories(path string) ([]Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Op: "read", Err: err}
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var memories []Memory
		if err := json.Unmarshal(data, &memories); err != nil {
			return nil, &LoadError{Path: path, Op: "parse", Err: err}
		}
		return memories, nil
	}

	var wrapper struct {
		SavedMedia []Memory `json:"Saved Media"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, &LoadError{Path: path, Op: "parse", Err: err}
	}
	return wrapper.SavedMedia, nil
}

// ExportPath joins an export root with one of the record file locations.
func ExportPath(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}

// Describe summarizes a memory for log lines.
func (m Memory) Describe() string {
	return fmt.Sprintf("%s %s", m.MediaType, m.Date)
}
