package db

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"submix/internal/model"
	"submix/internal/parser"
)

const batchSize = 500

func Connect(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		// logger.Error hides "SLOW SQL" warnings (default is Warn)
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Link{})
}

func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Hash is the store identity of a raw link.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

// SaveLinks stores the links that parse, tagged with source. Links already
// present are skipped. It returns how many rows were inserted and how many
// links were rejected by the parser.
func SaveLinks(db *gorm.DB, source string, links []string) (inserted int64, rejected int, err error) {
	now := time.Now()
	batch := make([]model.Link, 0, len(links))
	for _, raw := range links {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		n, perr := parser.Parse(raw)
		if perr != nil {
			rejected++
			continue
		}
		batch = append(batch, model.Link{
			Hash:      Hash(raw),
			Raw:       raw,
			Scheme:    string(n.Protocol()),
			Source:    source,
			CreatedAt: now,
			Name:      n.Name,
			Server:    n.Server,
			Port:      int(n.Port),
		})
	}
	if len(batch) == 0 {
		return 0, rejected, nil
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}},
		DoNothing: true,
	}).CreateInBatches(batch, batchSize)
	if result.Error != nil {
		return 0, rejected, fmt.Errorf("failed to save links: %w", result.Error)
	}
	return result.RowsAffected, rejected, nil
}

// LoadLinks returns stored raw links in insertion order, limited to the given
// sources when any are named.
func LoadLinks(db *gorm.DB, sources []string) ([]string, error) {
	q := db.Model(&model.Link{}).Order("id asc")
	if len(sources) > 0 {
		q = q.Where("source IN ?", sources)
	}
	var raws []string
	if err := q.Pluck("raw", &raws).Error; err != nil {
		return nil, fmt.Errorf("failed to load links: %w", err)
	}
	return raws, nil
}

// Prune deletes the oldest links until at most max remain. max <= 0 keeps
// everything.
func Prune(db *gorm.DB, max int) (int64, error) {
	if max <= 0 {
		return 0, nil
	}
	var total int64
	if err := db.Model(&model.Link{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	excess := int(total) - max
	if excess <= 0 {
		return 0, nil
	}

	var ids []uint
	if err := db.Model(&model.Link{}).Order("id asc").Limit(excess).Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("failed to select links to prune: %w", err)
	}

	var deleted int64
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		res := db.Delete(&model.Link{}, ids[start:end])
		if res.Error != nil {
			return deleted, fmt.Errorf("failed to prune links: %w", res.Error)
		}
		deleted += res.RowsAffected
	}
	return deleted, nil
}

type CountStat struct {
	Name  string
	Count int64
}

// Stats is the store summary shown by the status command.
type Stats struct {
	Total    int64
	ByScheme []CountStat
	BySource []CountStat
	Newest   time.Time
}

func GetStats(db *gorm.DB) (*Stats, error) {
	var s Stats
	if err := db.Model(&model.Link{}).Count(&s.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count links: %w", err)
	}
	if err := db.Model(&model.Link{}).
		Select("scheme as name, count(*) as count").
		Group("scheme").
		Order("count desc, name asc").
		Scan(&s.ByScheme).Error; err != nil {
		return nil, fmt.Errorf("failed to group by scheme: %w", err)
	}
	if err := db.Model(&model.Link{}).
		Select("source as name, count(*) as count").
		Group("source").
		Order("count desc, name asc").
		Scan(&s.BySource).Error; err != nil {
		return nil, fmt.Errorf("failed to group by source: %w", err)
	}
	if s.Total > 0 {
		var newest model.Link
		if err := db.Order("id desc").First(&newest).Error; err == nil {
			s.Newest = newest.CreatedAt
		}
	}
	return &s, nil
}
