// Package store persists pipeline state as a single JSON document plus one
// immutable archive file per completed UTC day.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"tokenintel/internal/models"
)

// Store owns the data directory layout: <dir>/<stateFile> for the live
// state and <dir>/daily/<date>.json for sealed days.
type Store struct {
	dir       string
	stateFile string
}

// New builds a store rooted at dir.
func New(dir, stateFile string) *Store {
	return &Store{dir: dir, stateFile: stateFile}
}

func (s *Store) statePath() string {
	return filepath.Join(s.dir, s.stateFile)
}

// Load reads the persisted state. A missing file yields a fresh state; a
// stored daily block from a previous date is discarded so the new day
// starts clean.
func (s *Store) Load(alertThreshold float64) (*models.State, error) {
	today := time.Now().UTC().Format("2006-01-02")
	state := models.NewState(today, alertThreshold)

	raw, err := os.ReadFile(s.statePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info("no existing state file, starting fresh")
			return state, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var loaded models.State
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if loaded.WalletLabels != nil {
		state.WalletLabels = loaded.WalletLabels
	}
	state.WhaleCounter = loaded.WhaleCounter
	state.LastSignature = loaded.LastSignature
	state.LastPollTime = loaded.LastPollTime
	if loaded.AlertThreshold > 0 {
		state.AlertThreshold = loaded.AlertThreshold
	}
	if loaded.RecentAlerts != nil {
		state.RecentAlerts = loaded.RecentAlerts
	}
	if loaded.ProcessedSignatures != nil {
		state.ProcessedSignatures = loaded.ProcessedSignatures
	}
	if loaded.DailyStats != nil && loaded.DailyStats.Date == today {
		state.DailyStats = loaded.DailyStats
	}

	log.Infof("state loaded: %d known wallets, last sig: %s",
		len(state.WalletLabels), shortSig(state.LastSignature))
	return state, nil
}

// Save writes the full state atomically: temp file then rename, so a crash
// mid-write leaves the previous version intact.
func (s *Store) Save(state *models.State) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, s.stateFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmpName, s.statePath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// ArchiveDay seals one completed day under daily/<date>.json.
func (s *Store) ArchiveDay(stats *models.DailyStats) error {
	dailyDir := filepath.Join(s.dir, "daily")
	if err := os.MkdirAll(dailyDir, 0o755); err != nil {
		return fmt.Errorf("create daily dir: %w", err)
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encode daily stats: %w", err)
	}
	path := filepath.Join(dailyDir, stats.Date+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write daily archive: %w", err)
	}
	return nil
}

func shortSig(sig string) string {
	if sig == "" {
		return "none"
	}
	if len(sig) > 12 {
		return sig[:12] + "..."
	}
	return sig
}
