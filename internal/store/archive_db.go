package store

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tokenintel/internal/models"
)

// DailyArchive is the relational copy of one sealed day. The JSON archive
// file remains the source of truth; rows exist for ad-hoc querying.
type DailyArchive struct {
	ID             uint      `gorm:"primaryKey"`
	Date           string    `gorm:"uniqueIndex;size:10"`
	TotalVolumeSol float64   `gorm:"column:total_volume_sol"`
	TotalBuys      int       `gorm:"column:total_buys"`
	TotalSells     int       `gorm:"column:total_sells"`
	TotalTransfers int       `gorm:"column:total_transfers"`
	Payload        string    `gorm:"type:jsonb"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// TableName keeps the table name stable.
func (DailyArchive) TableName() string { return "daily_archives" }

// ArchiveDB mirrors sealed days into Postgres.
type ArchiveDB struct {
	db *gorm.DB
}

// OpenArchiveDB connects and migrates. Optional: callers skip construction
// when no DSN is configured.
func OpenArchiveDB(dsn string) (*ArchiveDB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	if err := db.AutoMigrate(&DailyArchive{}); err != nil {
		return nil, fmt.Errorf("migrate archive db: %w", err)
	}
	return &ArchiveDB{db: db}, nil
}

// SaveDay upserts one sealed day by date.
func (a *ArchiveDB) SaveDay(stats *models.DailyStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode day %s: %w", stats.Date, err)
	}
	row := DailyArchive{
		Date:           stats.Date,
		TotalVolumeSol: stats.TotalVolumeSol,
		TotalBuys:      stats.TotalBuys,
		TotalSells:     stats.TotalSells,
		TotalTransfers: stats.TotalTransfers,
		Payload:        string(payload),
	}
	err = a.db.Where(DailyArchive{Date: stats.Date}).
		Assign(row).
		FirstOrCreate(&DailyArchive{}).Error
	if err != nil {
		return fmt.Errorf("save day %s: %w", stats.Date, err)
	}
	log.Infof("archived day %s to database", stats.Date)
	return nil
}
