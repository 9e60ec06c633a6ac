package domain

import "time"

// Skill is a technology shown in the skills section
type Skill struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Category    string `gorm:"size:100" json:"category"`
	Proficiency int    `gorm:"default:50" json:"proficiency"`
	Featured    bool   `gorm:"default:false;index" json:"featured"`
}

// TableName specifies the table name for Skill
func (Skill) TableName() string {
	return "skills"
}

// Testimonial is a client quote
type Testimonial struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ClientName string    `gorm:"size:100;not null" json:"client_name"`
	Company    string    `gorm:"size:100" json:"company"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Rating     int       `gorm:"default:5" json:"rating"`
	Featured   bool      `gorm:"default:false;index" json:"featured"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for Testimonial
func (Testimonial) TableName() string {
	return "testimonials"
}

// SiteSetting is one key/value pair of editable site copy
type SiteSetting struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Key   string `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

// TableName specifies the table name for SiteSetting
func (SiteSetting) TableName() string {
	return "site_settings"
}
