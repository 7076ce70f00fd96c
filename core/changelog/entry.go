package changelog

import (
	"time"

	"commscivet/core/reconcile"
	"commscivet/core/utils"
)

// Entry is one persisted change record.
type Entry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RunID      string    `gorm:"size:36;index:idx_change_log_run" json:"run_id"`
	Dataset    string    `gorm:"size:64;index" json:"dataset"`
	Sequence   int       `gorm:"index:idx_change_log_run" json:"sequence"`
	Identifier string    `gorm:"size:255;index" json:"identifier"`
	ChangeType string    `gorm:"size:16" json:"change_type"`
	FieldName  *string   `gorm:"size:128" json:"field_name"`
	OldValue   *string   `gorm:"type:text" json:"old_value"`
	NewValue   *string   `gorm:"type:text" json:"new_value"`
	ObservedAt time.Time `json:"observed_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName overrides the default pluralized name.
func (Entry) TableName() string {
	return "change_log"
}

// NewEntry converts a change record. Values are stored in their canonical
// text form; nil stays NULL.
func NewEntry(runID, dataset string, sequence int, c reconcile.ChangeRecord) Entry {
	e := Entry{
		RunID:      runID,
		Dataset:    dataset,
		Sequence:   sequence,
		Identifier: c.Identifier,
		ChangeType: string(c.ChangeType),
		OldValue:   textOrNil(c.OldValue),
		NewValue:   textOrNil(c.NewValue),
		ObservedAt: c.ObservedAt,
	}
	if c.FieldName != "" {
		name := c.FieldName
		e.FieldName = &name
	}
	return e
}

// Change converts the entry back into a change record.
func (e Entry) Change() reconcile.ChangeRecord {
	c := reconcile.ChangeRecord{
		Identifier: e.Identifier,
		ChangeType: reconcile.ChangeType(e.ChangeType),
		ObservedAt: e.ObservedAt,
	}
	if e.FieldName != nil {
		c.FieldName = *e.FieldName
	}
	if e.OldValue != nil {
		c.OldValue = *e.OldValue
	}
	if e.NewValue != nil {
		c.NewValue = *e.NewValue
	}
	return c
}

func textOrNil(v any) *string {
	if utils.IsNil(v) {
		return nil
	}
	s := utils.ToString(v)
	return &s
}
