package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := store.SaveEpisode(Episode{LevelID: "stereo", Reason: ReasonDead, MaxPercent: 12}); err != nil {
		t.Fatalf("SaveEpisode() failed: %v", err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	best, err := store.BestPercent("stereo")
	if err != nil {
		t.Fatalf("BestPercent() failed: %v", err)
	}
	if best != 12 {
		t.Errorf("Expected best 12 after reopen, got %v", best)
	}
}

func TestSaveAndRecentEpisodes(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	episodes := []Episode{
		{SessionID: "s1", LevelID: "stereo", Attempt: 1, Frames: 300, MaxPercent: 8.5, DeathX: 765, DeathPercent: 8.5, Reason: ReasonDead},
		{SessionID: "s1", LevelID: "stereo", Attempt: 2, Frames: 900, MaxPercent: 31.2, DeathX: 2808, DeathPercent: 31.2, Reason: ReasonStuck},
		{SessionID: "s1", LevelID: "flat", Attempt: 1, Frames: 1733, MaxPercent: 100, Reason: ReasonComplete},
	}
	for i, ep := range episodes {
		ep.StartedAt = base.Add(time.Duration(i) * time.Minute)
		ep.EndedAt = ep.StartedAt.Add(30 * time.Second)
		id, err := store.SaveEpisode(ep)
		if err != nil {
			t.Fatalf("SaveEpisode() failed: %v", err)
		}
		if id <= 0 {
			t.Errorf("Expected positive ID, got %d", id)
		}
	}

	stereo, err := store.RecentEpisodes("stereo", 10)
	if err != nil {
		t.Fatalf("RecentEpisodes() failed: %v", err)
	}
	if len(stereo) != 2 {
		t.Fatalf("Expected 2 stereo episodes, got %d", len(stereo))
	}
	if stereo[0].Attempt != 2 {
		t.Errorf("Expected newest first, got attempt %d", stereo[0].Attempt)
	}
	if stereo[0].Reason != ReasonStuck || stereo[0].Frames != 900 {
		t.Errorf("Unexpected episode: %+v", stereo[0])
	}
	if got := stereo[0].Duration(); got != 30*time.Second {
		t.Errorf("Duration = %v, want 30s", got)
	}
	if !stereo[1].StartedAt.Equal(base) {
		t.Errorf("StartedAt = %v, want %v", stereo[1].StartedAt, base)
	}

	all, err := store.RecentEpisodes("", 0)
	if err != nil {
		t.Fatalf("RecentEpisodes() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 episodes across levels, got %d", len(all))
	}

	limited, err := store.RecentEpisodes("", 1)
	if err != nil {
		t.Fatalf("RecentEpisodes() failed: %v", err)
	}
	if len(limited) != 1 || limited[0].LevelID != "flat" {
		t.Errorf("Expected only the newest episode, got %+v", limited)
	}
}

func TestSaveEpisodeDefaults(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.SaveEpisode(Episode{LevelID: "stereo"}); err != nil {
		t.Fatalf("SaveEpisode() failed: %v", err)
	}
	eps, err := store.RecentEpisodes("stereo", 1)
	if err != nil {
		t.Fatalf("RecentEpisodes() failed: %v", err)
	}
	if eps[0].Reason != ReasonAborted {
		t.Errorf("Reason = %q, want %q", eps[0].Reason, ReasonAborted)
	}
	if eps[0].EndedAt.IsZero() {
		t.Error("EndedAt should default to now")
	}
}

func TestBestPercentEmpty(t *testing.T) {
	store := openTestStore(t)

	best, err := store.BestPercent("nonexistent")
	if err != nil {
		t.Fatalf("BestPercent() failed: %v", err)
	}
	if best != 0 {
		t.Errorf("Expected 0 for empty level, got %v", best)
	}
}

func TestDeathMap(t *testing.T) {
	store := openTestStore(t)

	deaths := []struct {
		percent float64
		reason  string
	}{
		{8.1, ReasonDead},
		{8.9, ReasonDead},
		{31.2, ReasonStuck},
		{55.0, ReasonDead},
		{100, ReasonComplete},
		{99.6, ReasonDead},
		{100.2, ReasonDead},
	}
	for _, d := range deaths {
		_, err := store.SaveEpisode(Episode{LevelID: "stereo", DeathPercent: d.percent, MaxPercent: d.percent, Reason: d.reason})
		if err != nil {
			t.Fatalf("SaveEpisode() failed: %v", err)
		}
	}

	buckets, err := store.DeathMap("stereo")
	if err != nil {
		t.Fatalf("DeathMap() failed: %v", err)
	}

	want := []DeathBucket{{8, 2}, {31, 1}, {55, 1}, {99, 2}}
	if len(buckets) != len(want) {
		t.Fatalf("Expected %d buckets, got %v", len(want), buckets)
	}
	for i := range want {
		if buckets[i] != want[i] {
			t.Errorf("bucket %d = %+v, want %+v", i, buckets[i], want[i])
		}
	}
}

func TestLevelStats(t *testing.T) {
	store := openTestStore(t)

	for _, ep := range []Episode{
		{LevelID: "stereo", MaxPercent: 10, Frames: 100, Reason: ReasonDead},
		{LevelID: "stereo", MaxPercent: 40, Frames: 400, Reason: ReasonStuck},
		{LevelID: "stereo", MaxPercent: 100, Frames: 1000, Reason: ReasonComplete},
		{LevelID: "flat", MaxPercent: 100, Frames: 1700, Reason: ReasonComplete},
	} {
		if _, err := store.SaveEpisode(ep); err != nil {
			t.Fatalf("SaveEpisode() failed: %v", err)
		}
	}

	stats, err := store.GetLevelStats("stereo")
	if err != nil {
		t.Fatalf("GetLevelStats() failed: %v", err)
	}
	if stats.Episodes != 3 || stats.Completions != 1 || stats.Deaths != 1 || stats.Stuck != 1 {
		t.Errorf("Unexpected counts: %+v", stats)
	}
	if stats.BestPercent != 100 {
		t.Errorf("BestPercent = %v", stats.BestPercent)
	}
	if stats.AvgPercent != 50 {
		t.Errorf("AvgPercent = %v, want 50", stats.AvgPercent)
	}
	if stats.TotalFrames != 1500 {
		t.Errorf("TotalFrames = %d", stats.TotalFrames)
	}
	if stats.LastPlayed.IsZero() {
		t.Error("LastPlayed should be set")
	}
	if r := stats.CompletionRate(); r < 0.33 || r > 0.34 {
		t.Errorf("CompletionRate = %v", r)
	}

	empty, err := store.GetLevelStats("none")
	if err != nil {
		t.Fatalf("GetLevelStats() failed: %v", err)
	}
	if empty.Episodes != 0 || empty.CompletionRate() != 0 || !empty.LastPlayed.IsZero() {
		t.Errorf("Expected empty stats, got %+v", empty)
	}

	levels, err := store.Levels()
	if err != nil {
		t.Fatalf("Levels() failed: %v", err)
	}
	if len(levels) != 2 || levels[0] != "flat" || levels[1] != "stereo" {
		t.Errorf("Levels = %v", levels)
	}
}

func TestClearEpisodes(t *testing.T) {
	store := openTestStore(t)

	store.SaveEpisode(Episode{LevelID: "stereo", Reason: ReasonDead})
	store.SaveEpisode(Episode{LevelID: "flat", Reason: ReasonComplete})

	if err := store.ClearEpisodes("stereo"); err != nil {
		t.Fatalf("ClearEpisodes() failed: %v", err)
	}

	eps, _ := store.RecentEpisodes("stereo", 10)
	if len(eps) != 0 {
		t.Errorf("Expected 0 episodes after clear, got %d", len(eps))
	}
	eps, _ = store.RecentEpisodes("flat", 10)
	if len(eps) != 1 {
		t.Errorf("Expected flat episode to survive, got %d", len(eps))
	}
}
