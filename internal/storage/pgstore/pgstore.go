// Package pgstore archives finished-study storages to Postgres via bun.
// The primary persistence contract stays the atomic JSON snapshot
// (storage/snapshot); this archive is an optional secondary sink enabled by
// the table config's archive_dsn, giving completed studies a durable,
// queryable home after they leave the curriculum.
package pgstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/atsuhiron/lite-dist2-go/internal/study"
	"github.com/atsuhiron/lite-dist2-go/internal/trial"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

type Archive struct {
	db *bun.DB
}

func New(dsn string) *Archive {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &Archive{db: db}
}

func (a *Archive) InitSchema(ctx context.Context) error {
	_, err := a.db.NewCreateTable().Model((*StorageModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (a *Archive) Close() error { return a.db.Close() }

// StorageModel is the archived form of a finished study.
type StorageModel struct {
	bun.BaseModel `bun:"table:study_storages,alias:ss"`

	StudyID         string          `bun:"study_id,pk"`
	Name            string          `bun:"name"`
	RegisteredAt    time.Time       `bun:"registered_at"`
	DoneAt          time.Time       `bun:"done_at"`
	ResultType      string          `bun:"result_type"`
	ResultValueType string          `bun:"result_value_type"`
	Result          []trial.Mapping `bun:"result,type:jsonb"`
}

func NewStorageModel(st *study.Storage) *StorageModel {
	return &StorageModel{
		StudyID:         st.StudyID,
		Name:            st.Name,
		RegisteredAt:    st.RegisteredAt,
		DoneAt:          st.DoneAt,
		ResultType:      string(st.ResultType),
		ResultValueType: string(st.ResultValueType),
		Result:          st.Result,
	}
}

func (m *StorageModel) ToDomain() *study.Storage {
	return &study.Storage{
		StudyID:         m.StudyID,
		Name:            m.Name,
		RegisteredAt:    m.RegisteredAt,
		DoneAt:          m.DoneAt,
		ResultType:      trial.ResultShape(m.ResultType),
		ResultValueType: value.Type(m.ResultValueType),
		Result:          m.Result,
	}
}

// Sync inserts every given storage, ignoring ones already archived. Called
// on the same periodic tick as MigrateDone, so a storage is archived at
// most one save period after its study completes.
func (a *Archive) Sync(ctx context.Context, storages []*study.Storage) error {
	for _, st := range storages {
		model := NewStorageModel(st)
		_, err := a.db.NewInsert().
			Model(model).
			On("CONFLICT (study_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

// Fetch returns the archived storage for studyID, or nil if absent.
func (a *Archive) Fetch(ctx context.Context, studyID string) (*study.Storage, error) {
	model := new(StorageModel)
	err := a.db.NewSelect().Model(model).Where("study_id = ?", studyID).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
