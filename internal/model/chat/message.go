package chat

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one turn of the displayed conversation. Its JSON shape is part of
// the exported persona artifact.
type Entry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserEntry builds a user turn.
func UserEntry(content string) Entry {
	return Entry{Role: RoleUser, Content: content}
}

// AssistantEntry builds an assistant turn.
func AssistantEntry(content string) Entry {
	return Entry{Role: RoleAssistant, Content: content}
}
