// Package records is the single-table record store behind the execution
// pipeline: order outcomes keyed by broker ticket, plus singleton global
// settings such as the kill switch.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tss/internal/gateway/broker"
	"tss/internal/intent"
	"tss/internal/logger"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// PersistenceError marks a record write that failed after the broker
// already accepted the order. The order stands; the record needs manual
// reconciliation.
type PersistenceError struct {
	Ticket int64
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting order record failed (ticket=%d): %v", e.Ticket, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type Store struct {
	db *gorm.DB
}

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return newStore(db)
}

func NewStoreFromDB(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	return newStore(db)
}

func newStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveOrder writes the execution outcome as an OPEN order record. The
// broker ticket is the dedup key: a redelivered message whose ticket is
// already recorded writes nothing and succeeds (at-least-once delivery
// tolerance). Per the OPEN invariant no closed_utc / closing_price /
// profit_loss attributes are written here.
func (s *Store) SaveOrder(ctx context.Context, res *broker.SubmitResult, in *intent.Intent, accountLogin int64) error {
	if res == nil || res.Ticket == 0 {
		return &PersistenceError{Err: errors.New("submit result carries no ticket")}
	}
	now := time.Now().UTC().Format(time.RFC3339)

	b := NewRecordBuilder().
		Set("mt5_ticket", res.Ticket).
		Set("account_login", accountLogin).
		Set("symbol", in.Symbol).
		Set("order_action", string(in.Action)).
		Set("order_type", string(in.Kind)).
		Set("order_status", StatusOpen).
		Set("requested_lot_size", in.LotSize).
		Set("executed_entry_price", res.ExecutedPrice).
		Set("executed_volume", res.ExecutedVolume).
		Set("created_utc", now).
		Set("submitted_utc", now).
		Set("opened_utc", now).
		Set("version", 1).
		Set("broker_retcode", res.ReturnCode).
		SetIf(res.Comment != "", "broker_comment", res.Comment).
		SetIf(in.Comment != "", "comment", in.Comment).
		SetNonZero("requested_entry_price", in.EntryPrice).
		SetNonZero("requested_tp_price", in.TPPrice).
		SetNonZero("requested_sl_price", in.SLPrice).
		SetNonZero("executed_tp_price", res.ExecutedTP).
		SetNonZero("executed_sl_price", res.ExecutedSL)

	// Position-management sub-state only when the owning flag is on.
	// Writing these sparsely keeps presence-based index scans honest.
	b.SetIf(in.Scenario, "scenario_active", true).
		SetIf(in.Scenario && in.ScenarioActivatePrice != 0, "scenario_activate_price", in.ScenarioActivatePrice).
		SetIf(in.Scenario && in.ScenarioCancelPrice != 0, "scenario_cancel_price", in.ScenarioCancelPrice).
		SetIf(in.BreakevenEnabled, "breakeven_armed", true).
		SetIf(in.TrailingStopEnabled, "trailing_armed", true).
		SetIf(in.AddPositionLevels > 0, "add_position_level", 0).
		SetIf(in.AddPositionLevels > 0, "add_position_max", in.AddPositionLevels)

	rec := Record{
		PK:  fmt.Sprintf("%s%d", OrderPKPrefix, res.Ticket),
		SK:  MetadataSK,
		Doc: b.Doc(),
	}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pk"}, {Name: "sk"}},
		DoNothing: true,
	}).Create(&rec)
	if tx.Error != nil {
		return &PersistenceError{Ticket: res.Ticket, Err: tx.Error}
	}
	if tx.RowsAffected == 0 {
		logger.Warnf("order record already exists, skipping write (ticket=%d)", res.Ticket)
	}
	return nil
}

// GetOrder loads an order record by ticket. Returns nil without error
// when nothing is recorded for the ticket.
func (s *Store) GetOrder(ctx context.Context, ticket int64) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).
		Where("pk = ? AND sk = ?", fmt.Sprintf("%s%d", OrderPKPrefix, ticket), MetadataSK).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// MarkClosed transitions an order record to CLOSED, stamping the closing
// attributes the OPEN invariant kept absent.
func (s *Store) MarkClosed(ctx context.Context, ticket int64, closingPrice, profit float64) error {
	rec, err := s.GetOrder(ctx, ticket)
	if err != nil {
		return &PersistenceError{Ticket: ticket, Err: err}
	}
	if rec == nil {
		return &PersistenceError{Ticket: ticket, Err: gorm.ErrRecordNotFound}
	}
	doc := map[string]any(rec.Doc)
	doc["order_status"] = StatusClosed
	doc["closed_utc"] = time.Now().UTC().Format(time.RFC3339)
	doc["closing_price"] = closingPrice
	doc["profit_loss"] = profit
	// JSONMap scans decode numbers as json.Number, not float64.
	switch v := doc["version"].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			doc["version"] = n + 1
		}
	case float64:
		doc["version"] = int64(v) + 1
	}
	err = s.db.WithContext(ctx).Model(&Record{}).
		Where("pk = ? AND sk = ?", rec.PK, rec.SK).
		Update("doc", datatypes.JSONMap(doc)).Error
	if err != nil {
		return &PersistenceError{Ticket: ticket, Err: err}
	}
	return nil
}

// KillSwitchStatus reads the raw status attribute of the global kill
// switch record. The fail-closed interpretation lives in safety.Gate,
// not here.
func (s *Store) KillSwitchStatus(ctx context.Context) (string, error) {
	var rec Record
	err := s.db.WithContext(ctx).
		Where("pk = ? AND sk = ?", GlobalConfigPK, KillSwitchSK).
		First(&rec).Error
	if err != nil {
		return "", err
	}
	status, _ := rec.Doc["status"].(string)
	return status, nil
}

// SetKillSwitch writes the global kill switch status. Operator tooling
// and tests use this; the dispatcher only ever reads.
func (s *Store) SetKillSwitch(ctx context.Context, status string) error {
	rec := Record{
		PK:  GlobalConfigPK,
		SK:  KillSwitchSK,
		Doc: NewRecordBuilder().Set("status", status).Doc(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pk"}, {Name: "sk"}},
		UpdateAll: true,
	}).Create(&rec).Error
}
