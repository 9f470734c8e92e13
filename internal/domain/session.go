package domain

import "time"

// MaxHistoryEntries bounds a session's history buffer. Oldest entries are
// dropped first so long calls keep only recent context for the next prompt.
const MaxHistoryEntries = 20

// CallSession holds the accumulated state for one ongoing call. All fields
// exist from construction; "not yet provided" is an absent map key, never a
// missing field.
type CallSession struct {
	CallID    string         `json:"call_id"`
	History   []string       `json:"history"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
	LastSeen  time.Time      `json:"last_seen"`
}

func NewCallSession(callID string) *CallSession {
	now := time.Now()
	return &CallSession{
		CallID:    callID,
		History:   make([]string, 0, MaxHistoryEntries),
		Fields:    make(map[string]any),
		CreatedAt: now,
		LastSeen:  now,
	}
}
