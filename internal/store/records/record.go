package records

import (
	"time"

	"gorm.io/datatypes"
)

// Single-table key shapes. Orders live under ORDER#<ticket>/METADATA;
// global settings under GLOBALCONFIG/SETTING#<name>.
const (
	OrderPKPrefix = "ORDER#"
	MetadataSK    = "METADATA"

	GlobalConfigPK = "GLOBALCONFIG"
	KillSwitchSK   = "SETTING#KILL_SWITCH"
)

// Order lifecycle statuses stored in the order_status attribute.
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// Record is one row of the single-table store: a composite key plus a
// JSON attribute document. Sparse attributes exist only as present keys
// in Doc, never as explicit nulls, so presence alone can drive
// sparse-index style lookups.
type Record struct {
	PK        string            `gorm:"column:pk;primaryKey"`
	SK        string            `gorm:"column:sk;primaryKey"`
	Doc       datatypes.JSONMap `gorm:"column:doc"`
	CreatedAt time.Time         `gorm:"column:created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at"`
}

func (Record) TableName() string { return "records" }

// RecordBuilder accumulates only present attributes. Building the
// document this way (instead of stripping nulls from a full struct)
// guarantees an absent field is truly absent.
type RecordBuilder struct {
	doc map[string]any
}

func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{doc: make(map[string]any)}
}

func (b *RecordBuilder) Set(key string, val any) *RecordBuilder {
	b.doc[key] = val
	return b
}

// SetIf inserts the attribute only when cond holds.
func (b *RecordBuilder) SetIf(cond bool, key string, val any) *RecordBuilder {
	if cond {
		b.doc[key] = val
	}
	return b
}

// SetNonZero inserts a numeric attribute only when it carries a value.
func (b *RecordBuilder) SetNonZero(key string, val float64) *RecordBuilder {
	if val != 0 {
		b.doc[key] = val
	}
	return b
}

func (b *RecordBuilder) Doc() datatypes.JSONMap {
	return datatypes.JSONMap(b.doc)
}
