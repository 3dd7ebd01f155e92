package curriculum

import (
	"encoding/json"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/clock"
	"github.com/atsuhiron/lite-dist2-go/internal/study"
)

// wireCurriculum is the snapshot document shape: the whole curriculum in
// one JSON object.
type wireCurriculum struct {
	Studies  []*study.Study   `json:"studies"`
	Storages []*study.Storage `json:"storages"`
}

// Snapshot serializes the curriculum under its lock and returns the bytes.
// The write itself happens outside the lock (storage/snapshot), keeping
// request latency bounded while a save is in flight.
func (c *Curriculum) Snapshot() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(wireCurriculum{Studies: c.Studies, Storages: c.Storages})
	if err != nil {
		return nil, lderrors.NewSerializationError("curriculum", "cannot serialize curriculum", err)
	}
	return data, nil
}

// FromSnapshot rebuilds a curriculum from snapshot bytes, installing clk on
// every rebuilt study (the snapshot carries no timestamp source).
func FromSnapshot(data []byte, clk clock.Clock) (*Curriculum, error) {
	var w wireCurriculum
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, lderrors.NewSerializationError("curriculum", "cannot parse curriculum snapshot", err)
	}
	c := New(clk)
	c.Studies = w.Studies
	c.Storages = w.Storages
	for _, s := range c.Studies {
		s.SetClock(clk)
	}
	return c, nil
}

// StoragesCopy returns a point-in-time copy of the finished-study storages,
// used by the optional Postgres archive sync.
func (c *Curriculum) StoragesCopy() []*study.Storage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*study.Storage, len(c.Storages))
	copy(out, c.Storages)
	return out
}
