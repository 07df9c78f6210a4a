package game

import (
	"time"

	"github.com/google/uuid"
)

// InputMode определяет, как интерпретируется следующее сообщение пользователя.
type InputMode string

const (
	// ModeIdle — обычный режим, ввод обрабатывается только по кнопкам.
	ModeIdle InputMode = "idle"
	// ModeAwaitingNote — следующее текстовое сообщение станет заметкой.
	ModeAwaitingNote InputMode = "awaiting_note"
	// ModeAwaitingReply — отправлено напоминание, ждём ответа на него.
	ModeAwaitingReply InputMode = "awaiting_procrastination_reply"
)

// EventKind is the kind of an activity log entry.
type EventKind string

const (
	EventQuestCompleted EventKind = "quest_completed"
	EventLevelUp        EventKind = "level_up"
	EventPenaltyApplied EventKind = "penalty_applied"
)

// Event is a single activity log entry. Entries are append-only: once logged
// they are never mutated or removed.
type Event struct {
	ID        string    `json:"id"`
	At        time.Time `json:"at"`
	Kind      EventKind `json:"kind"`
	QuestName string    `json:"quest_name,omitempty"`
	XPDelta   int       `json:"xp_delta,omitempty"`
	GoldDelta int       `json:"gold_delta,omitempty"`
	Level     int       `json:"level,omitempty"`
}

// Note is a single user note. Notes are append-only.
type Note struct {
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// PlayerRecord — состояние прогресса одного пользователя.
//
// The record is owned exclusively by the player manager while in memory and
// by the store across restarts. All counters are non-negative; Level is
// derived from XP and never decreases over the record's lifetime.
type PlayerRecord struct {
	UserID            int64      `json:"user_id"`
	XP                int        `json:"xp"`
	Level             int        `json:"level"`
	Gold              int        `json:"gold"`
	InputMode         InputMode  `json:"input_mode"`
	LastActivityAt    time.Time  `json:"last_activity_at"`
	PendingReminderAt *time.Time `json:"pending_reminder_at,omitempty"`
	Notes             []Note     `json:"notes"`
	ActivityLog       []Event    `json:"activity_log"`
}

// NewPlayerRecord возвращает запись нового пользователя с дефолтами
// (level=1, xp=0, gold=0, обычный режим ввода).
func NewPlayerRecord(userID int64, now time.Time) *PlayerRecord {
	return &PlayerRecord{
		UserID:         userID,
		XP:             0,
		Level:          1,
		Gold:           0,
		InputMode:      ModeIdle,
		LastActivityAt: now,
	}
}

// Clone returns a deep copy of the record. The manager mutates clones so a
// failed persistence write leaves the cached record untouched.
func (r *PlayerRecord) Clone() *PlayerRecord {
	cp := *r
	if r.PendingReminderAt != nil {
		t := *r.PendingReminderAt
		cp.PendingReminderAt = &t
	}
	cp.Notes = append([]Note(nil), r.Notes...)
	cp.ActivityLog = append([]Event(nil), r.ActivityLog...)
	return &cp
}

// AppendNote добавляет заметку к записи.
func (r *PlayerRecord) AppendNote(text string, now time.Time) {
	r.Notes = append(r.Notes, Note{ID: uuid.NewString(), At: now, Text: text})
}

func newEvent(kind EventKind, now time.Time) Event {
	return Event{ID: uuid.NewString(), At: now, Kind: kind}
}
