package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trustlens-server-go/internal/platform/storage"
)

type sqliteStore struct {
	db    *gorm.DB
	ttl   time.Duration
	owned bool
}

// NewSQLite builds a store on an existing gorm handle whose schema is already
// migrated.
func NewSQLite(db *gorm.DB, cfg Config) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{
		db:  db,
		ttl: cfg.TTL,
	}, nil
}

// OpenSQLite opens (and migrates) the database at path and owns the handle.
func OpenSQLite(path string, cfg Config) (Store, error) {
	db, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{db: db, ttl: cfg.TTL, owned: true}, nil
}

func (s *sqliteStore) Save(ctx context.Context, record Record) error {
	if record.ID == "" {
		return fmt.Errorf("record id required")
	}
	record = record.stamp(time.Now(), s.ttl)

	payload, err := sonic.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	row := &storage.AnalysisRecord{
		ID:        record.ID,
		Kind:      string(record.Kind),
		Subject:   record.Source,
		RiskScore: record.RiskScore,
		Flagged:   record.Flagged,
		Payload:   payload,
		CreatedAt: record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error
}

func (s *sqliteStore) Get(ctx context.Context, id string) (Record, error) {
	var row storage.AnalysisRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Record{}, err
	}
	if row.ExpiresAt != nil && time.Now().After(*row.ExpiresAt) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return decodeRow(row)
}

func (s *sqliteStore) List(ctx context.Context, limit int) ([]Record, error) {
	limit = normalizeLimit(limit)
	now := time.Now()

	var rows []storage.AnalysisRecord
	// over-fetch so rows awaiting cleanup do not shorten the page
	err := s.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(limit * 2).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, min(len(rows), limit))
	for _, row := range rows {
		if row.ExpiresAt != nil && now.After(*row.ExpiresAt) {
			continue
		}
		record, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
		if len(records) == limit {
			break
		}
	}
	return records, nil
}

func (s *sqliteStore) Remove(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&storage.AnalysisRecord{}).Error
}

func (s *sqliteStore) CleanupExpired(ctx context.Context) error {
	var rows []storage.AnalysisRecord
	if err := s.db.WithContext(ctx).Select("id", "expires_at").Where("expires_at IS NOT NULL").Find(&rows).Error; err != nil {
		return err
	}
	now := time.Now()
	expired := make([]string, 0)
	for _, row := range rows {
		if row.ExpiresAt != nil && now.After(*row.ExpiresAt) {
			expired = append(expired, row.ID)
		}
	}
	if len(expired) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("id IN ?", expired).Delete(&storage.AnalysisRecord{}).Error
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&storage.AnalysisRecord{}).Count(&total).Error; err != nil {
		return nil, err
	}

	type kindCount struct {
		Kind  string
		Count int64
	}
	var counts []kindCount
	if err := s.db.WithContext(ctx).Model(&storage.AnalysisRecord{}).
		Select("kind, count(*) as count").Group("kind").Scan(&counts).Error; err != nil {
		return nil, err
	}
	byKind := make(map[string]int64, len(counts))
	for _, c := range counts {
		byKind[c.Kind] = c.Count
	}

	return map[string]any{
		"type":        "sqlite",
		"total":       total,
		"by_kind":     byKind,
		"ttl_seconds": int(s.ttl.Seconds()),
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	if !s.owned {
		return nil
	}
	return storage.Close(s.db)
}

func decodeRow(row storage.AnalysisRecord) (Record, error) {
	var record Record
	if err := sonic.Unmarshal(row.Payload, &record); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", row.ID, err)
	}
	return record, nil
}
