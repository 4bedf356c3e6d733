package storage

import (
	"database/sql"
	"fmt"
	"math"
	"time"
)

// Episode end reasons.
const (
	ReasonDead     = "dead"
	ReasonStuck    = "stuck"
	ReasonComplete = "complete"
	ReasonAborted  = "aborted" // consumer stopped before a terminal frame
)

// Episode is one attempt from reset to terminal frame.
type Episode struct {
	ID           int64
	SessionID    string
	LevelID      string
	Attempt      int
	Frames       int
	MaxPercent   float64
	DeathX       float64
	DeathPercent float64
	Reason       string
	StartedAt    time.Time
	EndedAt      time.Time
}

// Duration returns the wall time of the episode.
func (e Episode) Duration() time.Duration {
	return e.EndedAt.Sub(e.StartedAt)
}

// SaveEpisode records a finished episode and returns its ID.
func (s *Store) SaveEpisode(ep Episode) (int64, error) {
	if ep.Reason == "" {
		ep.Reason = ReasonAborted
	}
	if ep.EndedAt.IsZero() {
		ep.EndedAt = time.Now()
	}
	if ep.StartedAt.IsZero() {
		ep.StartedAt = ep.EndedAt
	}

	result, err := s.db.Exec(
		`INSERT INTO episodes
		 (session_id, level_id, attempt, frames, max_percent, death_x, death_percent, reason, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ep.SessionID,
		ep.LevelID,
		ep.Attempt,
		ep.Frames,
		ep.MaxPercent,
		ep.DeathX,
		ep.DeathPercent,
		ep.Reason,
		ep.StartedAt.UTC().Format(timeLayout),
		ep.EndedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save episode: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentEpisodes returns the latest episodes, newest first. An empty
// levelID matches every level.
func (s *Store) RecentEpisodes(levelID string, limit int) ([]Episode, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, level_id, attempt, frames, max_percent, death_x, death_percent,
		        reason, started_at, ended_at
		 FROM episodes
		 WHERE ? = '' OR level_id = ?
		 ORDER BY ended_at DESC, id DESC
		 LIMIT ?`,
		levelID, levelID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var ep Episode
		var startedAt, endedAt any
		if err := rows.Scan(
			&ep.ID,
			&ep.SessionID,
			&ep.LevelID,
			&ep.Attempt,
			&ep.Frames,
			&ep.MaxPercent,
			&ep.DeathX,
			&ep.DeathPercent,
			&ep.Reason,
			&startedAt,
			&endedAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		ep.StartedAt = parseTime(startedAt)
		ep.EndedAt = parseTime(endedAt)
		episodes = append(episodes, ep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return episodes, nil
}

// BestPercent returns the furthest progress reached on a level.
// Returns 0 if no episodes exist.
func (s *Store) BestPercent(levelID string) (float64, error) {
	var best sql.NullFloat64
	err := s.db.QueryRow(
		"SELECT MAX(max_percent) FROM episodes WHERE level_id = ?",
		levelID,
	).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query best percent: %w", err)
	}
	if !best.Valid {
		return 0, nil
	}
	return best.Float64, nil
}

// DeathBucket counts deaths within one percent of the level.
type DeathBucket struct {
	Percent int // bucket lower bound, 0..99
	Deaths  int
}

// DeathMap returns a histogram of where episodes on a level ended in death
// or stuck, in 1% buckets, ordered by percent. Empty buckets are omitted.
func (s *Store) DeathMap(levelID string) ([]DeathBucket, error) {
	rows, err := s.db.Query(
		`SELECT CAST(death_percent AS INTEGER) AS bucket, COUNT(*)
		 FROM episodes
		 WHERE level_id = ? AND reason IN (?, ?)
		 GROUP BY bucket
		 ORDER BY bucket`,
		levelID, ReasonDead, ReasonStuck,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query death map: %w", err)
	}
	defer rows.Close()

	var buckets []DeathBucket
	for rows.Next() {
		var b DeathBucket
		if err := rows.Scan(&b.Percent, &b.Deaths); err != nil {
			return nil, fmt.Errorf("storage: cannot scan death bucket: %w", err)
		}
		b.Percent = min(max(b.Percent, 0), 99)
		if n := len(buckets); n > 0 && buckets[n-1].Percent == b.Percent {
			buckets[n-1].Deaths += b.Deaths
			continue
		}
		buckets = append(buckets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return buckets, nil
}

// LevelStats contains aggregated statistics for a level.
type LevelStats struct {
	LevelID     string
	Episodes    int
	Completions int
	Deaths      int
	Stuck       int
	BestPercent float64
	AvgPercent  float64
	TotalFrames int64
	LastPlayed  time.Time
}

// CompletionRate returns the share of episodes that completed the level.
func (ls LevelStats) CompletionRate() float64 {
	if ls.Episodes == 0 {
		return 0
	}
	return float64(ls.Completions) / float64(ls.Episodes)
}

// GetLevelStats retrieves aggregated statistics for a specific level.
func (s *Store) GetLevelStats(levelID string) (*LevelStats, error) {
	stats := &LevelStats{LevelID: levelID}

	var lastPlayed any
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN reason = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN reason = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN reason = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(MAX(max_percent), 0),
		        COALESCE(AVG(max_percent), 0),
		        COALESCE(SUM(frames), 0),
		        MAX(ended_at)
		 FROM episodes WHERE level_id = ?`,
		ReasonComplete, ReasonDead, ReasonStuck, levelID,
	).Scan(
		&stats.Episodes,
		&stats.Completions,
		&stats.Deaths,
		&stats.Stuck,
		&stats.BestPercent,
		&stats.AvgPercent,
		&stats.TotalFrames,
		&lastPlayed,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get level stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)
	stats.AvgPercent = math.Round(stats.AvgPercent*100) / 100

	return stats, nil
}

// Levels returns the IDs of all levels with recorded episodes.
func (s *Store) Levels() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT level_id FROM episodes ORDER BY level_id")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query levels: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: cannot scan level: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClearEpisodes deletes all episodes for the given level.
func (s *Store) ClearEpisodes(levelID string) error {
	_, err := s.db.Exec("DELETE FROM episodes WHERE level_id = ?", levelID)
	if err != nil {
		return fmt.Errorf("storage: cannot clear episodes: %w", err)
	}
	return nil
}
