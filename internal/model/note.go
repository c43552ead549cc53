package model

import "time"

// QAPair is one question asked about a note and the answer it received.
type QAPair struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Confidence string    `json:"confidence,omitempty"`
	AskedAt    time.Time `json:"askedAt"`
}

// Note leaves its long text columns unsized so MySQL creates LONGTEXT and
// Postgres creates TEXT.
type Note struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	Questions []QAPair  `gorm:"serializer:json" json:"questions"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// QAMessage is the queued form of a Q&A pair waiting to be appended to a note.
type QAMessage struct {
	NoteID string `json:"noteId"`
	Pair   QAPair `json:"pair"`
}
