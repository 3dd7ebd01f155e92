// Package curriculum owns every study and finished-study storage,
// schedules workers by capability, and serializes the periodic snapshot.
package curriculum

import (
	"sync"
	"time"

	"github.com/atsuhiron/lite-dist2-go/internal/clock"
	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/study"
	"github.com/atsuhiron/lite-dist2-go/internal/trial"
)

// Summary is the compact per-study/per-storage description returned by
// GET /status.
type Summary struct {
	StudyID          string         `json:"study_id"`
	Name             string         `json:"name"`
	Status           study.Status   `json:"status"`
	RequiredCapacity []string       `json:"required_capacity"`
	RegisteredAt     time.Time      `json:"registered_at"`
	DoneAt           *time.Time     `json:"done_at,omitempty"`
	TrialCount       int            `json:"trial_count"`
}

// Curriculum owns Studies and Storages exclusively. It holds one mutex
// guarding studies, storages, and snapshotting. Lock order is always
// Curriculum -> Study, never the reverse.
type Curriculum struct {
	mu       sync.Mutex
	Studies  []*study.Study
	Storages []*study.Storage
	Clock    clock.Clock
}

// New returns an empty curriculum.
func New(c clock.Clock) *Curriculum {
	return &Curriculum{Clock: c}
}

// InsertStudy appends a freshly registered study under the lock.
func (c *Curriculum) InsertStudy(s *study.Study) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Studies = append(c.Studies, s)
}

// GetAvailableStudy scans studies once for a running study whose required
// capacity is a subset of capabilitySet; if none, scans again for a
// waiting one with the same subset condition. The Study pointer is
// returned after the Curriculum lock is released: the caller must re-check
// the study after acquiring its own mutex, since a concurrent MigrateDone
// may have moved it to storage in between.
func (c *Curriculum) GetAvailableStudy(capabilitySet map[string]struct{}) *study.Study {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.Studies {
		if s.Status() == study.StatusRunning && s.RequiredCapacitySubsetOf(capabilitySet) {
			return s
		}
	}
	for _, s := range c.Studies {
		if s.Status() == study.StatusWait && s.RequiredCapacitySubsetOf(capabilitySet) {
			return s
		}
	}
	return nil
}

// findStudyLocked requires c.mu already held.
func (c *Curriculum) findStudyLocked(studyID string) *study.Study {
	for _, s := range c.Studies {
		if s.StudyID == studyID {
			return s
		}
	}
	return nil
}

// FindStudy locates a study by ID without locking into its own mutex.
func (c *Curriculum) FindStudy(studyID string) *study.Study {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findStudyLocked(studyID)
}

// ReceiptTrial routes a worker-submitted trial to its owning study. Fails
// NotFoundError if the study is absent (already migrated to storage or
// never existed).
func (c *Curriculum) ReceiptTrial(tr *trial.Trial) error {
	s := c.FindStudy(tr.StudyID)
	if s == nil {
		return lderrors.NewNotFoundError("study", tr.StudyID)
	}
	return s.ReceiptTrial(tr.TrialID, tr.Result)
}

// MigrateDone recomputes every study's status; any that are now done are
// moved into storages and dropped from studies.
func (c *Curriculum) MigrateDone() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.Clock.Now()
	remaining := c.Studies[:0]
	for _, s := range c.Studies {
		if s.UpdateStatus() == study.StatusDone {
			c.Storages = append(c.Storages, s.ToStorage(now))
			continue
		}
		remaining = append(remaining, s)
	}
	c.Studies = remaining
}

// PopStorage removes and returns the first storage matching studyID xor
// name. Exactly one of the two must be non-empty; that xor is enforced by
// the API layer, not here.
func (c *Curriculum) PopStorage(studyID, name string) *study.Storage {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, st := range c.Storages {
		if (studyID != "" && st.StudyID == studyID) || (name != "" && st.Name == name) {
			c.Storages = append(c.Storages[:i], c.Storages[i+1:]...)
			return st
		}
	}
	return nil
}

// GetStudyStatus linear-scans studies (and, if absent there, storages) for
// a matching study_id/name, returning its status. ok is false if no match
// was found in either list.
func (c *Curriculum) GetStudyStatus(studyID, name string) (study.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.Studies {
		if (studyID != "" && s.StudyID == studyID) || (name != "" && s.Name == name) {
			return s.Status(), true
		}
	}
	for _, st := range c.Storages {
		if (studyID != "" && st.StudyID == studyID) || (name != "" && st.Name == name) {
			return study.StatusDone, true
		}
	}
	return "", false
}

// ToSummaries builds the compact per-study/per-storage description for
// GET /status.
func (c *Curriculum) ToSummaries() []Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Summary, 0, len(c.Studies)+len(c.Storages))
	for _, s := range c.Studies {
		out = append(out, Summary{
			StudyID:          s.StudyID,
			Name:             s.Name,
			Status:           s.Status(),
			RequiredCapacity: capacitySlice(s.RequiredCapacity),
			RegisteredAt:     s.RegisteredAt,
			TrialCount:       s.TrialCount(),
		})
	}
	for _, st := range c.Storages {
		doneAt := st.DoneAt
		out = append(out, Summary{
			StudyID:      st.StudyID,
			Name:         st.Name,
			Status:       study.StatusDone,
			RegisteredAt: st.RegisteredAt,
			DoneAt:       &doneAt,
			TrialCount:   len(st.Result),
		})
	}
	return out
}

func capacitySlice(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
