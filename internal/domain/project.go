package domain

import (
	"strings"
	"time"
)

// Project is a portfolio entry shown on the projects pages
type Project struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Technologies string    `gorm:"size:500" json:"technologies"`
	GitHubURL    string    `gorm:"column:github_url;size:500" json:"github_url"`
	LiveURL      string    `gorm:"size:500" json:"live_url"`
	Featured     bool      `gorm:"default:false;index" json:"featured"`
	ImageURL     string    `gorm:"size:500" json:"image_url"`
	Category     string    `gorm:"size:100;index" json:"category"`
	Views        int       `gorm:"not null;default:0" json:"views"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

// TechList splits the comma separated technologies column
func (p *Project) TechList() []string {
	var out []string
	for _, t := range strings.Split(p.Technologies, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
