package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kickform/internal/domain"
)

func openTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()

	clock := time.Date(2025, 3, 9, 14, 30, 0, 0, time.UTC)
	store, err := OpenForTests(filepath.Join(t.TempDir(), "history.db"), func() time.Time {
		return clock
	})
	if err != nil {
		t.Fatalf("OpenForTests() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, &clock
}

func successResult(action string, score float64) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		Status:         domain.AnalysisSuccess,
		DetectedAction: action,
		FormScore:      score,
		ScoreLabel:     "Good",
		ScoreColor:     domain.ScoreColorYellow,
		KeyStrengths:   []string{"Solid plant foot placement"},
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	store, _ := openTestStore(t)

	saved, err := store.Save("clip.webm", successResult("instep drive", 7.5))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.ID == "" {
		t.Fatal("Save() returned empty ID")
	}
	if got, want := saved.CreatedAt, time.Date(2025, 3, 9, 14, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", got, want)
	}

	got, err := store.Get(saved.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.VideoName != "clip.webm" {
		t.Errorf("VideoName = %q, want %q", got.VideoName, "clip.webm")
	}
	if got.DetectedAction != "instep drive" {
		t.Errorf("DetectedAction = %q, want %q", got.DetectedAction, "instep drive")
	}
	if got.FormScore != 7.5 {
		t.Errorf("FormScore = %v, want %v", got.FormScore, 7.5)
	}
	if got.Result == nil {
		t.Fatal("Get() returned nil Result")
	}
	if got.Result.ScoreLabel != "Good" {
		t.Errorf("Result.ScoreLabel = %q, want %q", got.Result.ScoreLabel, "Good")
	}
	if len(got.Result.KeyStrengths) != 1 {
		t.Errorf("Result.KeyStrengths has %d entries, want 1", len(got.Result.KeyStrengths))
	}
}

func TestSaveRejectsRefusedResult(t *testing.T) {
	store, _ := openTestStore(t)

	refused := &domain.AnalysisResult{
		Status: domain.AnalysisRefused,
		Reason: "No person is visible in the clip.",
	}
	if _, err := store.Save("clip.webm", refused); err == nil {
		t.Fatal("Save() accepted a refused result")
	}
	if _, err := store.Save("clip.webm", nil); err == nil {
		t.Fatal("Save() accepted a nil result")
	}

	entries, err := store.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("List() returned %d entries, want 0", len(entries))
	}
}

func TestListNewestFirst(t *testing.T) {
	store, clock := openTestStore(t)

	names := []string{"first.webm", "second.webm", "third.webm"}
	for _, name := range names {
		if _, err := store.Save(name, successResult("instep drive", 6)); err != nil {
			t.Fatalf("Save(%q) error = %v", name, err)
		}
		*clock = clock.Add(time.Minute)
	}

	entries, err := store.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() returned %d entries, want 3", len(entries))
	}
	for i, want := range []string{"third.webm", "second.webm", "first.webm"} {
		if entries[i].VideoName != want {
			t.Errorf("entries[%d].VideoName = %q, want %q", i, entries[i].VideoName, want)
		}
	}
	for i, entry := range entries {
		if entry.Result != nil {
			t.Errorf("entries[%d].Result = %+v, want nil summary row", i, entry.Result)
		}
	}
}

func TestListHonorsLimit(t *testing.T) {
	store, clock := openTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := store.Save("clip.webm", successResult("instep drive", 6)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		*clock = clock.Add(time.Minute)
	}

	entries, err := store.List(2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("List(2) returned %d entries, want 2", len(entries))
	}
}

func TestGetUnknownID(t *testing.T) {
	store, _ := openTestStore(t)

	if _, err := store.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	store, _ := openTestStore(t)

	saved, err := store.Save("clip.webm", successResult("instep drive", 8))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := store.Delete(saved.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	saved, err := store.Save("clip.webm", successResult("instep drive", 9))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() again error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(saved.ID)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.FormScore != 9 {
		t.Errorf("FormScore = %v, want 9", got.FormScore)
	}
}
