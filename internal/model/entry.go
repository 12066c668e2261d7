package model

import (
	"strings"
	"time"
)

// tagSeparator delimits tag labels inside the stored tag string.
const tagSeparator = ", "

// Entry is a single tracked application. Each cycle owns its own table,
// so the struct carries no cycle column; the table name is supplied at
// query time and the id is only unique within its cycle.
type Entry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Date        time.Time `gorm:"not null" json:"date"`
	Position    string    `gorm:"not null" json:"position"`
	Company     string    `gorm:"not null" json:"company"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Tags        string    `json:"tags"`
	Status      string    `gorm:"not null" json:"status"`
}

// TagList splits the stored tag string back into labels.
func (e Entry) TagList() []string {
	if e.Tags == "" {
		return nil
	}
	return strings.Split(e.Tags, tagSeparator)
}

// JoinTags renders a tag set into the delimited storage form.
func JoinTags(tags []string) string {
	return strings.Join(tags, tagSeparator)
}
