package storage

import (
	"time"

	"github.com/google/uuid"
)

// EpisodeSaver persists finished episodes. *Store implements it.
type EpisodeSaver interface {
	SaveEpisode(ep Episode) (int64, error)
}

// Recorder turns a stream of producer frames into episode rows. An episode
// starts on the first frame after a reset and ends on the first terminal
// frame; frames after that are ignored until the next reset.
type Recorder struct {
	saver   EpisodeSaver
	levelID string
	session string
	now     func() time.Time

	attempt int
	cur     Episode
	open    bool
	saved   int
}

// NewRecorder returns a recorder with a fresh session ID.
func NewRecorder(saver EpisodeSaver, levelID string) *Recorder {
	return &Recorder{
		saver:   saver,
		levelID: levelID,
		session: uuid.NewString(),
		now:     time.Now,
	}
}

// Session returns the session ID shared by every episode this recorder saves.
func (r *Recorder) Session() string {
	return r.session
}

// Saved returns the number of episodes written.
func (r *Recorder) Saved() int {
	return r.saved
}

// Frame records one published frame. When the frame is the episode's first
// terminal frame the episode is saved and returned.
func (r *Recorder) Frame(percent, x float64, terminal bool, reason string) (*Episode, error) {
	if !r.open {
		if r.cur.Reason != "" {
			// already finished, waiting for a reset
			return nil, nil
		}
		r.begin()
	}

	r.cur.Frames++
	if percent > r.cur.MaxPercent {
		r.cur.MaxPercent = percent
	}
	if !terminal {
		return nil, nil
	}

	r.cur.Reason = reason
	r.cur.DeathX = x
	r.cur.DeathPercent = percent
	return r.finish()
}

// Reset marks the start of a new attempt. An unfinished episode is saved
// as aborted.
func (r *Recorder) Reset() (*Episode, error) {
	var (
		ep  *Episode
		err error
	)
	if r.open && r.cur.Frames > 0 {
		r.cur.Reason = ReasonAborted
		ep, err = r.finish()
	}
	r.open = false
	r.cur = Episode{}
	return ep, err
}

// Close saves an unfinished episode as aborted.
func (r *Recorder) Close() error {
	_, err := r.Reset()
	return err
}

func (r *Recorder) begin() {
	r.attempt++
	r.cur = Episode{
		SessionID: r.session,
		LevelID:   r.levelID,
		Attempt:   r.attempt,
		StartedAt: r.now(),
	}
	r.open = true
}

func (r *Recorder) finish() (*Episode, error) {
	r.open = false
	r.cur.EndedAt = r.now()
	ep := r.cur
	id, err := r.saver.SaveEpisode(ep)
	if err != nil {
		return nil, err
	}
	ep.ID = id
	r.saved++
	return &ep, nil
}
