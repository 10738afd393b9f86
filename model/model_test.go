package model

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestHistoryAppendNumbering(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 30, 0, 0, time.Local)

	var h History
	if got := h.Append("v1", ActionCreated, "/base/p/s/1", now); got != 1 {
		t.Fatalf("first Append returned %d, want 1", got)
	}
	if got := h.Append("v2", ActionModified, "/base/p/s/2", now); got != 2 {
		t.Fatalf("second Append returned %d, want 2", got)
	}
	if got := h.Append("v3", ActionModified, "/base/p/s/3", now); got != 3 {
		t.Fatalf("third Append returned %d, want 3", got)
	}

	for i, v := range h {
		if v.Version != i+1 {
			t.Errorf("entry %d has version %d, want %d", i, v.Version, i+1)
		}
	}
}

func TestHistoryAppendNumbersFromMax(t *testing.T) {
	// files edited by hand may carry gaps; numbering continues from the max
	h := History{
		{Version: 1, Content: "v1"},
		{Version: 5, Content: "v5"},
	}
	if got := h.Append("next", ActionModified, "", time.Now()); got != 6 {
		t.Fatalf("Append returned %d, want 6", got)
	}
}

func TestHistoryLatestAndGet(t *testing.T) {
	h := History{
		{Version: 2, Content: "v2"},
		{Version: 1, Content: "v1"},
		{Version: 3, Content: "v3"},
	}

	latest, err := h.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Version != 3 || latest.Content != "v3" {
		t.Fatalf("Latest = %+v, want version 3", latest)
	}

	v2, err := h.Get(2)
	if err != nil {
		t.Fatalf("Get(2): %v", err)
	}
	if v2.Content != "v2" {
		t.Fatalf("Get(2).Content = %q, want %q", v2.Content, "v2")
	}

	if _, err := h.Get(9); !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("Get(9) error = %v, want ErrVersionNotFound", err)
	}
}

func TestHistoryLatestEmpty(t *testing.T) {
	var h History
	if _, err := h.Latest(); !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("Latest on empty history error = %v, want ErrEmptyHistory", err)
	}
}

func TestTaskJSONFieldNames(t *testing.T) {
	task := Task{
		ID:           1,
		UID:          NewUID(),
		Project:      "Alpha",
		ShortDesc:    "Design doc",
		Priority:     PriorityHigh,
		CreateTime:   "2026-08-29 10:30:00",
		ModifiedTime: "2026-08-29 11:00:00",
		Completed:    true,
		History: History{
			{Version: 1, Content: "v1", Timestamp: "2026-08-29 10:30:00", Action: ActionCreated, FolderPath: "/base/Alpha/Design doc/1"},
		},
	}

	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(data)

	for _, field := range []string{
		`"id"`, `"project"`, `"short_desc"`, `"priority"`,
		`"createTime"`, `"modifiedTime"`, `"completed"`, `"history"`,
		`"version"`, `"content"`, `"timestamp"`, `"action"`, `"folderPath"`,
	} {
		if !strings.Contains(text, field) {
			t.Errorf("marshaled task missing field %s", field)
		}
	}
	// the session identity never leaks into files
	if strings.Contains(text, task.UID) {
		t.Errorf("marshaled task leaks UID: %s", text)
	}

	var back Task
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	task.UID = ""
	if !reflect.DeepEqual(task, back) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", back, task)
	}
}

func TestPriorityValid(t *testing.T) {
	for _, p := range []Priority{PriorityHigh, PriorityMedium, PriorityLow} {
		if !p.Valid() {
			t.Errorf("Valid() = false for %q", p)
		}
	}
	for _, p := range []Priority{"", "urgent", "HIGH"} {
		if p.Valid() {
			t.Errorf("Valid() = true for %q", p)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Task{
		ID:      1,
		History: History{{Version: 1, Content: "v1"}},
	}
	cp := orig.Clone()
	cp.History[0].Content = "mutated"
	if orig.History[0].Content != "v1" {
		t.Fatal("Clone shares history storage with the original")
	}

	list := CloneTasks([]Task{orig})
	list[0].History.Append("v2", ActionModified, "", time.Now())
	if len(orig.History) != 1 {
		t.Fatal("CloneTasks shares history storage with the original")
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 8, 29, 9, 5, 7, 123, time.Local)
	if got := FormatTime(ts); got != "2026-08-29 09:05:07" {
		t.Fatalf("FormatTime = %q", got)
	}
}
