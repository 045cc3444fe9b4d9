package archive

import "time"

// SessionModel is a row in the sessions table
type SessionModel struct {
	ID        string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

func (SessionModel) TableName() string { return "sessions" }

// EntryModel is a row in the history_entries table
type EntryModel struct {
	ID         uint    `gorm:"primaryKey;autoIncrement"`
	SessionID  string  `gorm:"not null;index"`
	Command    string  `gorm:"not null"`
	Output     string  `gorm:"not null;default:''"`
	Error      *string
	ExitCode   int       `gorm:"not null"`
	ExecutedAt time.Time `gorm:"not null;index"`

	Session SessionModel `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (EntryModel) TableName() string { return "history_entries" }

// Record is one archived command
type Record struct {
	ID         uint      `json:"id"`
	SessionID  string    `json:"session_id"`
	Command    string    `json:"command"`
	Output     string    `json:"output"`
	Error      *string   `json:"error"`
	ExitCode   int       `json:"exit_code"`
	ExecutedAt time.Time `json:"executed_at"`
}

func (m EntryModel) toRecord() Record {
	return Record{
		ID:         m.ID,
		SessionID:  m.SessionID,
		Command:    m.Command,
		Output:     m.Output,
		Error:      m.Error,
		ExitCode:   m.ExitCode,
		ExecutedAt: m.ExecutedAt,
	}
}
