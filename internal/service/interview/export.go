package interview

import (
	"time"

	"github.com/zhouzirui/persona-interview/backend/internal/model/chat"
	"github.com/zhouzirui/persona-interview/backend/internal/model/persona"
)

// ExportRecord is the persisted persona artifact handed to downstream tools.
// Field names and order are a compatibility contract.
type ExportRecord struct {
	Persona       persona.Summary `json:"persona"`
	ChatHistory   []chat.Entry    `json:"chat_history"`
	InterviewDate string          `json:"interview_date"`
}

func newExportRecord(summary persona.Summary, transcript []chat.Entry, at time.Time) ExportRecord {
	history := make([]chat.Entry, len(transcript))
	copy(history, transcript)
	return ExportRecord{
		Persona:       summary,
		ChatHistory:   history,
		InterviewDate: at.UTC().Format(time.RFC3339),
	}
}

// FileName suggests a download name for the record.
func (r ExportRecord) FileName() string {
	stamp := "persona"
	if t, err := time.Parse(time.RFC3339, r.InterviewDate); err == nil {
		stamp = "persona_" + t.Format("20060102_150405")
	}
	return stamp + ".json"
}
