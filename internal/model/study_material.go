package model

import "time"

const (
	FileTypePDF   = "pdf"
	FileTypeImage = "image"
)

type StudyMaterial struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	OriginalFilename string    `gorm:"size:255;not null" json:"originalFilename"`
	Filename         string    `gorm:"size:255;not null" json:"filename"`
	FileType         string    `gorm:"size:16;not null" json:"fileType"`
	FileURL          string    `gorm:"size:1024;not null" json:"fileUrl"`
	StorageKey       string    `gorm:"size:512;not null" json:"storageKey"`
	Summary          string    `json:"summary"`
	DateUploaded     string    `gorm:"size:10;index" json:"dateUploaded"`
	CreatedAt        time.Time `gorm:"index" json:"createdAt"`
}
