package storage

import (
	"errors"
	"testing"
)

type memSaver struct {
	episodes []Episode
	err      error
}

func (m *memSaver) SaveEpisode(ep Episode) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.episodes = append(m.episodes, ep)
	return int64(len(m.episodes)), nil
}

func TestRecorderSavesOnTerminalEdge(t *testing.T) {
	saver := &memSaver{}
	rec := NewRecorder(saver, "stereo")

	for i := 0; i < 10; i++ {
		ep, err := rec.Frame(float64(i), float64(i*10), false, "")
		if err != nil || ep != nil {
			t.Fatalf("frame %d: unexpected save %v %v", i, ep, err)
		}
	}
	ep, err := rec.Frame(9.5, 95, true, ReasonDead)
	if err != nil {
		t.Fatalf("Frame() failed: %v", err)
	}
	if ep == nil {
		t.Fatal("Expected an episode on the terminal frame")
	}
	if ep.ID != 1 || ep.Frames != 11 || ep.MaxPercent != 9.5 || ep.DeathX != 95 {
		t.Errorf("Unexpected episode: %+v", ep)
	}
	if ep.SessionID != rec.Session() || ep.LevelID != "stereo" || ep.Attempt != 1 {
		t.Errorf("Unexpected identity: %+v", ep)
	}

	// Later terminal frames of the same attempt are not saved again
	for i := 0; i < 5; i++ {
		if ep, _ := rec.Frame(9.5, 95, true, ReasonDead); ep != nil {
			t.Fatal("Terminal frame saved twice")
		}
	}
	if rec.Saved() != 1 {
		t.Errorf("Expected 1 saved episode, got %d", rec.Saved())
	}
}

func TestRecorderResetStartsNextAttempt(t *testing.T) {
	saver := &memSaver{}
	rec := NewRecorder(saver, "flat")

	rec.Frame(1, 10, false, "")
	rec.Frame(2, 20, true, ReasonStuck)
	if ep, _ := rec.Reset(); ep != nil {
		t.Error("Reset after a terminal frame must not save")
	}

	rec.Frame(5, 50, false, "")
	ep, _ := rec.Frame(100, 1000, true, ReasonComplete)
	if ep == nil || ep.Attempt != 2 || ep.Reason != ReasonComplete {
		t.Fatalf("Unexpected second episode: %+v", ep)
	}
	if saver.episodes[0].SessionID != saver.episodes[1].SessionID {
		t.Error("Episodes of one recorder share a session")
	}
}

func TestRecorderAbortsUnfinished(t *testing.T) {
	saver := &memSaver{}
	rec := NewRecorder(saver, "stereo")

	rec.Frame(3, 30, false, "")
	ep, err := rec.Reset()
	if err != nil || ep == nil {
		t.Fatalf("Expected aborted episode, got %v %v", ep, err)
	}
	if ep.Reason != ReasonAborted || ep.Frames != 1 {
		t.Errorf("Unexpected aborted episode: %+v", ep)
	}

	// Close with nothing open does nothing
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if len(saver.episodes) != 1 {
		t.Errorf("Expected 1 episode, got %d", len(saver.episodes))
	}
}

func TestRecorderSaveError(t *testing.T) {
	saver := &memSaver{err: errors.New("disk full")}
	rec := NewRecorder(saver, "stereo")

	_, err := rec.Frame(1, 1, true, ReasonDead)
	if err == nil {
		t.Fatal("Expected save error")
	}
	if rec.Saved() != 0 {
		t.Error("Failed save must not count")
	}
}

func TestRecorderWithStore(t *testing.T) {
	store := openTestStore(t)
	rec := NewRecorder(store, "stereo")

	rec.Frame(10, 100, false, "")
	if _, err := rec.Frame(20, 200, true, ReasonDead); err != nil {
		t.Fatalf("Frame() failed: %v", err)
	}

	eps, err := store.RecentEpisodes("stereo", 10)
	if err != nil {
		t.Fatalf("RecentEpisodes() failed: %v", err)
	}
	if len(eps) != 1 || eps[0].SessionID != rec.Session() || eps[0].DeathPercent != 20 {
		t.Errorf("Unexpected stored episodes: %+v", eps)
	}
}
