// Package game содержит чистую игровую логику: модель записи игрока,
// кривую уровней, каталог квестов и функции переходов. Никакого I/O и
// никакой синхронизации — пакет работает только над переданной записью.
package game

import (
	"math/rand"
	"time"
)

// GoldRoll возвращает количество золота в диапазоне [min, max] включительно.
// Передаётся снаружи, чтобы переходы оставались детерминированными в тестах.
type GoldRoll func(min, max int) int

// RandomRoll — продакшн-бросок золота на math/rand.
func RandomRoll(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}

// ApplyQuest применяет награду квеста к записи: XP растёт ровно на
// quest.XPReward, золото — на бросок в [GoldMin, GoldMax], уровень
// пересчитывается по кривой. Завершённый квест служит подтверждением
// активности: обновляется LastActivityAt, снимается ожидающее напоминание.
//
// Возвращает QuestCompleted и, если порог пройден, LevelUp. Не ошибается
// на валидном квесте.
func ApplyQuest(rec *PlayerRecord, quest QuestDefinition, roll GoldRoll, now time.Time) []Event {
	if roll == nil {
		roll = RandomRoll
	}
	gold := roll(quest.GoldMin, quest.GoldMax)

	oldLevel := rec.Level
	rec.XP += quest.XPReward
	rec.Gold += gold
	rec.LastActivityAt = now
	rec.PendingReminderAt = nil
	if rec.InputMode == ModeAwaitingReply {
		rec.InputMode = ModeIdle
	}

	completed := newEvent(EventQuestCompleted, now)
	completed.QuestName = quest.Name
	completed.XPDelta = quest.XPReward
	completed.GoldDelta = gold
	events := []Event{completed}

	if newLevel := LevelFor(rec.XP); newLevel > oldLevel {
		rec.Level = newLevel
		up := newEvent(EventLevelUp, now)
		up.Level = newLevel
		events = append(events, up)
	}
	return events
}

// ApplyPenalty снимает XP за прокрастинацию, не опуская его ниже нуля.
// Уровень не понижается, LastActivityAt и режим ввода не трогаются.
func ApplyPenalty(rec *PlayerRecord, amount int, now time.Time) []Event {
	applied := amount
	if applied > rec.XP {
		applied = rec.XP
	}
	rec.XP -= applied

	ev := newEvent(EventPenaltyApplied, now)
	ev.XPDelta = -applied
	return []Event{ev}
}

// DueForReminder сообщает, пора ли отправить напоминание: с последней
// активности прошло не меньше interval и другое напоминание не ждёт ответа.
func DueForReminder(rec *PlayerRecord, now time.Time, interval time.Duration) bool {
	if rec.PendingReminderAt != nil {
		return false
	}
	return now.Sub(rec.LastActivityAt) >= interval
}

// ReminderOverdue сообщает, что напоминание осталось без ответа дольше
// льготного периода.
func ReminderOverdue(rec *PlayerRecord, now time.Time, grace time.Duration) bool {
	if rec.PendingReminderAt == nil {
		return false
	}
	return now.Sub(*rec.PendingReminderAt) >= grace
}
