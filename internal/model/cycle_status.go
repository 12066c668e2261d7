package model

// CycleStatus marks whether a cycle is currently open for application
// activity, independent of the cycle table existing.
type CycleStatus struct {
	Name   string `gorm:"primaryKey"`
	Active bool
}

func (CycleStatus) TableName() string { return "cycle_status" }
