package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"questbot/internal/game"
)

const (
	cbProfile    = "profile"
	cbQuests     = "quests"
	cbLog        = "log"
	cbNotes      = "notes"
	cbAddNote    = "add_note"
	cbBack       = "back"
	cbRemindWork = "remind_work"
	cbRemindLazy = "remind_lazy"
)

// questEmoji — чисто презентационная примета квеста; каталог о ней не знает.
var questEmoji = map[string]string{
	"q_apply":     "💼",
	"q_study":     "🧠",
	"q_resume":    "📄",
	"q_recruiter": "✉️",
	"q_project":   "🛠️",
}

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Профиль", cbProfile),
			tgbotapi.NewInlineKeyboardButtonData("📜 Квесты", cbQuests),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📖 Журнал", cbLog),
			tgbotapi.NewInlineKeyboardButtonData("🗒 Заметки", cbNotes),
		),
	)
}

// questMenu строит клавиатуру по каталогу: по два квеста в ряд и "Назад".
func questMenu(catalog game.Catalog) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, q := range catalog.List() {
		label := q.Name
		if emoji, ok := questEmoji[q.Key]; ok {
			label = emoji + " " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, q.Key))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func notesMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить заметку", cbAddNote),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbBack),
		),
	)
}

func backMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbBack),
		),
	)
}

func reminderMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💪 Делаю квест", cbRemindWork),
			tgbotapi.NewInlineKeyboardButtonData("😴 Прокрастинирую", cbRemindLazy),
		),
	)
}
