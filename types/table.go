package types

import (
	"github.com/lib/pq"
)

type Table struct {
	Model interface{}
	Name  string
}

type CollectedSeqInfo struct {
	Name     string `gorm:"type:text;primaryKey"`
	Sequence int64  `gorm:"type:bigint"`
}

// CollectedConsoleLog is one decoded console.sol statement. Position is the
// pre-order index of the originating call within its transaction trace;
// (hash, position) is unique per transaction.
type CollectedConsoleLog struct {
	Height    int64          `gorm:"type:bigint;primaryKey;autoIncrement:false;index:console_log_height"`
	Hash      string         `gorm:"type:text;primaryKey"`
	Position  int64          `gorm:"type:bigint;primaryKey;autoIncrement:false"`
	Sequence  int64          `gorm:"type:bigint;index:console_log_sequence_desc,sort:desc"`
	Signature string         `gorm:"type:text;index:console_log_signature"`
	Values    pq.StringArray `gorm:"type:text[]"`
	Message   string         `gorm:"type:text"`
	Reverted  bool           `gorm:"type:boolean;index:console_log_reverted"`
}

// CollectedExtractionWarning records a console call that produced no log
// entry: unknown selector or malformed payload. Kept separate from the
// primary output so diagnostics never interleave with decoded lines.
type CollectedExtractionWarning struct {
	Height   int64  `gorm:"type:bigint;primaryKey;autoIncrement:false;index:extraction_warning_height"`
	Hash     string `gorm:"type:text;primaryKey"`
	Position int64  `gorm:"type:bigint;primaryKey;autoIncrement:false"`
	Reason   string `gorm:"type:text"`
}

func (CollectedSeqInfo) TableName() string {
	return "seq_info"
}

func (CollectedConsoleLog) TableName() string {
	return "console_log"
}

func (CollectedExtractionWarning) TableName() string {
	return "extraction_warning"
}
