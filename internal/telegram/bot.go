// Package telegram — тонкий транспортный адаптер: принимает команды и
// callback-кнопки, переводит их в операции над менеджером игроков и
// доставляет исходящие уведомления. Своего состояния у пакета нет.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"questbot/internal/game"
	"questbot/internal/player"
	"questbot/internal/scheduler"
)

type Bot struct {
	api       *tgbotapi.BotAPI
	s         sender
	players   *player.Manager
	reminders *scheduler.Scheduler
	catalog   game.Catalog
	roll      game.GoldRoll
	now       func() time.Time
}

func New(botToken string, players *player.Manager, reminders *scheduler.Scheduler, catalog game.Catalog) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:       api,
		s:         botAPISender{api: api},
		players:   players,
		reminders: reminders,
		catalog:   catalog,
		roll:      game.RandomRoll,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start крутит long polling до отмены контекста.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message != nil {
			b.handleIncomingMessage(ctx, update.Message)
			continue
		}
		if update.CallbackQuery != nil {
			b.handleCallback(ctx, update.CallbackQuery)
			continue
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID

	if msg.Text == "/start" {
		if _, err := b.players.GetOrCreate(ctx, userID); err != nil {
			log.Printf("❌ Failed to create player %d: %v", userID, err)
			b.sendMessage(msg.Chat.ID, "⚠️ Что-то пошло не так, попробуй ещё раз")
			return
		}
		out := tgbotapi.NewMessage(msg.Chat.ID, "🎮 Поиск работы — MMORPG")
		out.ReplyMarkup = mainMenu()
		if _, err := b.s.Send(out); err != nil {
			log.Printf("failed to send greeting: %v", err)
		}
		return
	}

	if msg.Text == "" {
		return
	}

	err := b.submitNote(ctx, userID, msg.Text)
	if errors.Is(err, game.ErrInconsistentMode) {
		// обычный текст вне режима заметки игнорируется, как в меню-ботах
		return
	}
	if err != nil {
		log.Printf("❌ Failed to save note for %d: %v", userID, err)
		b.sendMessage(msg.Chat.ID, "⚠️ Не получилось сохранить заметку, попробуй ещё раз")
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, "✅ Заметка сохранена")
	out.ReplyMarkup = mainMenu()
	if _, err := b.s.Send(out); err != nil {
		log.Printf("failed to send note confirmation: %v", err)
	}
}

// submitNote сохраняет текст заметкой, только если её ждали.
func (b *Bot) submitNote(ctx context.Context, userID int64, text string) error {
	_, err := b.players.Mutate(ctx, userID, func(rec *game.PlayerRecord) ([]game.Event, error) {
		if rec.InputMode != game.ModeAwaitingNote {
			return nil, game.ErrInconsistentMode
		}
		rec.AppendNote(text, b.now())
		rec.InputMode = game.ModeIdle
		return nil, nil
	})
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Data == "" || cb.Message == nil || cb.Message.Chat == nil {
		b.answerCallback(cb.ID, "")
		return
	}
	userID := cb.From.ID

	text, keyboard, err := b.actionReply(ctx, userID, cb.Data)
	if err != nil {
		log.Printf("❌ Callback %q for player %d failed: %v", cb.Data, userID, err)
		b.answerCallback(cb.ID, "⚠️ Попробуй ещё раз")
		return
	}
	if text == "" {
		// неизвестная кнопка — просто гасим "часики"
		b.answerCallback(cb.ID, "")
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID, text, keyboard)
	if _, err := b.s.Send(edit); err != nil {
		log.Printf("failed to edit message: %v", err)
	}
	b.answerCallback(cb.ID, "")
}

// actionReply — таблица маршрутизации кнопок. Возвращает текст и клавиатуру
// для редактирования сообщения; пустой текст означает неизвестную кнопку.
func (b *Bot) actionReply(ctx context.Context, userID int64, data string) (string, tgbotapi.InlineKeyboardMarkup, error) {
	switch data {
	case cbProfile:
		rec, err := b.players.Snapshot(ctx, userID)
		if err != nil {
			return "", tgbotapi.InlineKeyboardMarkup{}, err
		}
		return profileText(rec), mainMenu(), nil

	case cbQuests:
		return "📜 Выбери квест", questMenu(b.catalog), nil

	case cbLog:
		rec, err := b.players.Snapshot(ctx, userID)
		if err != nil {
			return "", tgbotapi.InlineKeyboardMarkup{}, err
		}
		return logText(rec), mainMenu(), nil

	case cbNotes:
		rec, err := b.players.Snapshot(ctx, userID)
		if err != nil {
			return "", tgbotapi.InlineKeyboardMarkup{}, err
		}
		return notesText(rec), notesMenu(), nil

	case cbAddNote:
		_, err := b.players.Mutate(ctx, userID, func(rec *game.PlayerRecord) ([]game.Event, error) {
			rec.InputMode = game.ModeAwaitingNote
			return nil, nil
		})
		if err != nil {
			return "", tgbotapi.InlineKeyboardMarkup{}, err
		}
		return "✍️ Напиши текст заметки одним сообщением", backMenu(), nil

	case cbBack:
		return "Главное меню", mainMenu(), nil

	case cbRemindWork, cbRemindLazy:
		return b.replyToReminder(ctx, userID, data == cbRemindLazy)
	}

	quest, err := b.catalog.Get(data)
	if errors.Is(err, game.ErrInvalidQuest) {
		return "", tgbotapi.InlineKeyboardMarkup{}, nil
	}
	return b.completeQuest(ctx, userID, quest)
}

func (b *Bot) completeQuest(ctx context.Context, userID int64, quest game.QuestDefinition) (string, tgbotapi.InlineKeyboardMarkup, error) {
	events, err := b.players.Mutate(ctx, userID, func(rec *game.PlayerRecord) ([]game.Event, error) {
		return game.ApplyQuest(rec, quest, b.roll, b.now()), nil
	})
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	return questReplyText(quest, events), questMenu(b.catalog), nil
}

func (b *Bot) replyToReminder(ctx context.Context, userID int64, admits bool) (string, tgbotapi.InlineKeyboardMarkup, error) {
	events, err := b.reminders.ReplyToReminder(ctx, userID, admits)
	if errors.Is(err, game.ErrInconsistentMode) {
		return "Напоминание уже неактуально", mainMenu(), nil
	}
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	if admits {
		penalty := 0
		for _, ev := range events {
			if ev.Kind == game.EventPenaltyApplied {
				penalty = -ev.XPDelta
			}
		}
		return fmt.Sprintf("⚔️ Честность зачтена, но прокрастинация наказуема: -%d XP", penalty), mainMenu(), nil
	}
	return "💪 Отлично! Заверши квест, чтобы подтвердить прогресс", questMenu(b.catalog), nil
}

// DeliverReminder реализует scheduler.Notifier. В личной переписке chat id
// совпадает с id пользователя.
func (b *Bot) DeliverReminder(userID int64) {
	out := tgbotapi.NewMessage(userID, "⏰ Ты давно не выполнял квестов. Работаешь над чем-то?")
	out.ReplyMarkup = reminderMenu()
	if _, err := b.s.Send(out); err != nil {
		log.Printf("failed to deliver reminder to %d: %v", userID, err)
	}
}

// NotifyPenalty реализует scheduler.Notifier.
func (b *Bot) NotifyPenalty(userID int64, ev game.Event) {
	b.sendMessage(userID, fmt.Sprintf("⚔️ Напоминание осталось без ответа: -%d XP", -ev.XPDelta))
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.s.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
}

func profileText(rec *game.PlayerRecord) string {
	into, needed := game.Progress(rec.XP)
	return fmt.Sprintf("👤 Уровень: %d\nXP: %d / %d\n💰 Золото: %d", rec.Level, into, needed, rec.Gold)
}

func questReplyText(quest game.QuestDefinition, events []game.Event) string {
	var sb strings.Builder
	for _, ev := range events {
		switch ev.Kind {
		case game.EventQuestCompleted:
			fmt.Fprintf(&sb, "✅ %s\n+%d XP", quest.Name, ev.XPDelta)
			if ev.GoldDelta > 0 {
				fmt.Fprintf(&sb, ", +%d золота", ev.GoldDelta)
			}
		case game.EventLevelUp:
			fmt.Fprintf(&sb, "\n🆙 Новый уровень %d", ev.Level)
		}
	}
	return sb.String()
}

// logText показывает журнал от новых записей к старым.
func logText(rec *game.PlayerRecord) string {
	var sb strings.Builder
	sb.WriteString("📖 Журнал")
	for i := len(rec.ActivityLog) - 1; i >= 0; i-- {
		ev := rec.ActivityLog[i]
		sb.WriteString("\n")
		sb.WriteString(ev.At.Format("02.01 15:04"))
		sb.WriteString(" — ")
		switch ev.Kind {
		case game.EventQuestCompleted:
			fmt.Fprintf(&sb, "✅ %s (+%d XP", ev.QuestName, ev.XPDelta)
			if ev.GoldDelta > 0 {
				fmt.Fprintf(&sb, ", +%d золота", ev.GoldDelta)
			}
			sb.WriteString(")")
		case game.EventLevelUp:
			fmt.Fprintf(&sb, "🆙 Новый уровень %d", ev.Level)
		case game.EventPenaltyApplied:
			fmt.Fprintf(&sb, "⚔️ Штраф %d XP", ev.XPDelta)
		}
	}
	return sb.String()
}

// notesText показывает заметки от новых к старым.
func notesText(rec *game.PlayerRecord) string {
	var sb strings.Builder
	sb.WriteString("🗒 Заметки")
	for i := len(rec.Notes) - 1; i >= 0; i-- {
		n := rec.Notes[i]
		sb.WriteString("\n")
		sb.WriteString(n.At.Format("02.01 15:04"))
		sb.WriteString(" — ")
		sb.WriteString(n.Text)
	}
	return sb.String()
}

