package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TimeLayout is the layout used for every persisted timestamp.
// Second precision, local time, matches the historical tarefas.json files.
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime renders t in the persisted timestamp layout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// DefaultProject is used when a task is created without a project name.
const DefaultProject = "Sem projeto"

// Filter represents how tasks should be shown.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterIncomplete Filter = "incomplete"
	FilterComplete   Filter = "complete"
)

// Priority is a task priority level.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var validPriorities = map[Priority]bool{
	PriorityHigh:   true,
	PriorityMedium: true,
	PriorityLow:    true,
}

func (p Priority) Valid() bool {
	return validPriorities[p]
}

// Action tags how a description version came to exist.
type Action string

const (
	ActionCreated  Action = "created"
	ActionModified Action = "modified"
)

var (
	ErrEmptyHistory    = errors.New("history is empty")
	ErrVersionNotFound = errors.New("version not found")
)

// DescriptionVersion is one immutable entry of a task's description history.
// FolderPath is bound when the version is created and never re-derived, so it
// stays valid even if project or short description would later diverge.
type DescriptionVersion struct {
	Version    int    `json:"version"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
	Action     Action `json:"action"`
	FolderPath string `json:"folderPath"`
}

// History is the append-only description history of a task.
// The integer Version field is the only ordering key; timestamps are
// informational and must never be used for sorting.
type History []DescriptionVersion

// Append adds a new immutable version record and returns its version number.
// Numbering is max(existing)+1, starting at 1 for an empty history.
func (h *History) Append(content string, action Action, folderPath string, now time.Time) int {
	next := 1
	for _, v := range *h {
		if v.Version >= next {
			next = v.Version + 1
		}
	}
	*h = append(*h, DescriptionVersion{
		Version:    next,
		Content:    content,
		Timestamp:  FormatTime(now),
		Action:     action,
		FolderPath: folderPath,
	})
	return next
}

// Latest returns the entry with the highest version number.
func (h History) Latest() (DescriptionVersion, error) {
	if len(h) == 0 {
		return DescriptionVersion{}, ErrEmptyHistory
	}
	latest := h[0]
	for _, v := range h[1:] {
		if v.Version > latest.Version {
			latest = v
		}
	}
	return latest, nil
}

// Get returns the entry with the given version number.
func (h History) Get(version int) (DescriptionVersion, error) {
	for _, v := range h {
		if v.Version == version {
			return v, nil
		}
	}
	return DescriptionVersion{}, ErrVersionNotFound
}

// Task is an individual tracked task.
//
// ID is the display identifier: unique and dense (1..N), renumbered after
// deletions, therefore not stable across structural mutations. UID is a
// session-stable identity used to key selection; it is not persisted.
type Task struct {
	ID           int      `json:"id"`
	UID          string   `json:"-"`
	Project      string   `json:"project"`
	ShortDesc    string   `json:"short_desc"`
	Priority     Priority `json:"priority"`
	CreateTime   string   `json:"createTime"`
	ModifiedTime string   `json:"modifiedTime"`
	Completed    bool     `json:"completed"`
	History      History  `json:"history"`
}

// NewUID returns a fresh session identity for a task.
func NewUID() string {
	return uuid.NewString()
}

// Clone returns a deep copy of the task (history included).
func (t Task) Clone() Task {
	out := t
	out.History = make(History, len(t.History))
	copy(out.History, t.History)
	return out
}

// CloneTasks deep-copies a task slice.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
