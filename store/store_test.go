package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tarefas-cli/model"
)

func samplePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "tarefas.json")
}

func sampleTasks() []model.Task {
	return []model.Task{
		{
			ID:           1,
			Project:      "Alpha",
			ShortDesc:    "Design doc",
			Priority:     model.PriorityHigh,
			CreateTime:   "2026-08-29 10:30:00",
			ModifiedTime: "2026-08-29 11:00:00",
			History: model.History{
				{Version: 1, Content: "v1", Timestamp: "2026-08-29 10:30:00", Action: model.ActionCreated, FolderPath: "/base/Alpha/Design doc/1"},
				{Version: 2, Content: "v2", Timestamp: "2026-08-29 11:00:00", Action: model.ActionModified, FolderPath: "/base/Alpha/Design doc/2"},
			},
		},
		{
			ID:           2,
			Project:      model.DefaultProject,
			ShortDesc:    "Notas",
			Priority:     model.PriorityLow,
			CreateTime:   "2026-08-29 12:00:00",
			ModifiedTime: "2026-08-29 12:00:00",
			Completed:    true,
			History: model.History{
				{Version: 1, Content: "", Timestamp: "2026-08-29 12:00:00", Action: model.ActionCreated, FolderPath: "/base/Sem projeto/Notas/1"},
			},
		},
	}
}

func assertSameTasks(t *testing.T, got, want []model.Task) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		// UID is a session identity, regenerated on every load
		if g.UID == "" {
			t.Errorf("task %d loaded without UID", i)
		}
		g.UID = ""
		w.UID = ""
		if g.ID != w.ID || g.Project != w.Project || g.ShortDesc != w.ShortDesc ||
			g.Priority != w.Priority || g.Completed != w.Completed ||
			g.CreateTime != w.CreateTime || g.ModifiedTime != w.ModifiedTime {
			t.Errorf("task %d mismatch:\n got %+v\nwant %+v", i, g, w)
		}
		if len(g.History) != len(w.History) {
			t.Fatalf("task %d has %d versions, want %d", i, len(g.History), len(w.History))
		}
		for j := range w.History {
			if g.History[j] != w.History[j] {
				t.Errorf("task %d version %d mismatch:\n got %+v\nwant %+v", i, j, g.History[j], w.History[j])
			}
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := samplePath(t)
	tasks := sampleTasks()

	if err := Save(path, tasks); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertSameTasks(t, loaded, tasks)
}

func TestLoadMissingFile(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "nao-existe.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil || len(loaded) != 0 {
		t.Fatalf("Load of missing file = %v, want empty list", loaded)
	}
}

func TestLoadMigratesLegacyRecords(t *testing.T) {
	path := samplePath(t)
	legacy := `[
  {"id": 7, "project": "Alpha", "short_desc": "Antiga", "priority": "weird", "createTime": "2025-01-02 09:00:00", "completed": false}
]`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d tasks, want 1", len(loaded))
	}
	got := loaded[0]

	if got.ID != 1 {
		t.Errorf("ID = %d, want renumbered 1", got.ID)
	}
	if got.ModifiedTime != got.CreateTime {
		t.Errorf("ModifiedTime = %q, want create time %q", got.ModifiedTime, got.CreateTime)
	}
	if got.Priority != model.PriorityMedium {
		t.Errorf("Priority = %q, want medium fallback", got.Priority)
	}
	if len(got.History) != 1 {
		t.Fatalf("history has %d entries, want synthetic v1", len(got.History))
	}
	v1 := got.History[0]
	if v1.Version != 1 || v1.Action != model.ActionCreated || v1.Content != "" {
		t.Errorf("synthetic version = %+v", v1)
	}
	if v1.Timestamp != got.CreateTime {
		t.Errorf("synthetic timestamp = %q, want %q", v1.Timestamp, got.CreateTime)
	}

	// migration is idempotent: save and reload must not change anything
	if err := Save(path, loaded); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	assertSameTasks(t, again, loaded)
}

func TestAutosaveCreatesBackups(t *testing.T) {
	path := samplePath(t)

	if err := Autosave(path, sampleTasks()); err != nil {
		t.Fatalf("first Autosave: %v", err)
	}
	// no previous file, so no backup yet
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Fatalf(".bak exists after first save, stat err = %v", err)
	}

	if err := Autosave(path, sampleTasks()[:1]); err != nil {
		t.Fatalf("second Autosave: %v", err)
	}
	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Fatalf(".bak missing after second save: %v", err)
	}
	rotating, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		t.Fatal(err)
	}
	if len(rotating) != 1 {
		t.Fatalf("got %d rotating backups, want 1", len(rotating))
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d tasks after second save, want 1", len(loaded))
	}
}

func TestAutosavePrunesRotatingBackups(t *testing.T) {
	path := samplePath(t)

	for i := 0; i < maxRotatingBackups+4; i++ {
		if err := Autosave(path, sampleTasks()); err != nil {
			t.Fatalf("Autosave %d: %v", i, err)
		}
		// rotating names carry a nanosecond timestamp; keep them distinct
		time.Sleep(2 * time.Millisecond)
	}

	rotating, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		t.Fatal(err)
	}
	if len(rotating) > maxRotatingBackups {
		t.Fatalf("got %d rotating backups, want at most %d", len(rotating), maxRotatingBackups)
	}
}

func TestLoadWithRecoveryRestoresBackup(t *testing.T) {
	path := samplePath(t)
	tasks := sampleTasks()

	if err := Autosave(path, tasks); err != nil {
		t.Fatal(err)
	}
	if err := Autosave(path, tasks); err != nil {
		t.Fatal(err)
	}
	// corrupt the main file
	if err := os.WriteFile(path, []byte(`[{"id": 1,`), 0o644); err != nil {
		t.Fatal(err)
	}

	recovered, msg, err := LoadWithRecovery(path)
	if err != nil {
		t.Fatalf("LoadWithRecovery: %v", err)
	}
	if !strings.Contains(msg, "recuperadas") {
		t.Errorf("status message = %q", msg)
	}
	assertSameTasks(t, recovered, tasks)

	// the corrupt file was moved aside, not deleted
	moved, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.corrupt-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(moved) != 1 {
		t.Fatalf("got %d corrupt files moved aside, want 1", len(moved))
	}

	// the main file is healthy again
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload after recovery: %v", err)
	}
	assertSameTasks(t, reloaded, tasks)
}

func TestLoadWithRecoveryWithoutBackupStartsEmpty(t *testing.T) {
	path := samplePath(t)
	if err := os.WriteFile(path, []byte("isto não é json"), 0o644); err != nil {
		t.Fatal(err)
	}

	recovered, msg, err := LoadWithRecovery(path)
	if err != nil {
		t.Fatalf("LoadWithRecovery: %v", err)
	}
	if len(recovered) != 0 {
		t.Fatalf("got %d tasks, want empty list", len(recovered))
	}
	if !strings.Contains(msg, "lista vazia") {
		t.Errorf("status message = %q", msg)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("main file not reinitialized: %v", err)
	}
}

func TestLoadWithRecoveryCleanFile(t *testing.T) {
	path := samplePath(t)
	if err := Save(path, sampleTasks()); err != nil {
		t.Fatal(err)
	}

	loaded, msg, err := LoadWithRecovery(path)
	if err != nil {
		t.Fatalf("LoadWithRecovery: %v", err)
	}
	if msg != "" {
		t.Errorf("unexpected status message %q", msg)
	}
	assertSameTasks(t, loaded, sampleTasks())
}
