package model

// Setting is the singleton user settings row. Updates replace the row
// rather than appending.
type Setting struct {
	ID           uint `gorm:"primaryKey"`
	DefaultCycle string
}

func (Setting) TableName() string { return "user_settings" }
