package model

// Resource is an auxiliary label + link record (job boards, prep
// material). Stored in the same per-user database, unrelated to metrics.
type Resource struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Link string `json:"link"`
}

func (Resource) TableName() string { return "resources" }
