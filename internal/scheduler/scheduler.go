// Package scheduler реализует фоновую проверку активности: периодический
// обход всех известных игроков, отправку напоминаний и штрафы за
// прокрастинацию.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"questbot/internal/game"
	"questbot/internal/player"
)

// Notifier доставляет исходящие сообщения пользователю. Реализуется
// телеграм-ботом; в тестах подменяется фейком.
type Notifier interface {
	DeliverReminder(userID int64)
	NotifyPenalty(userID int64, ev game.Event)
}

// Config — параметры проверки активности.
type Config struct {
	// Interval — период тиков и порог простоя для напоминания.
	Interval time.Duration
	// Grace — сколько ждём ответа на напоминание до штрафа.
	Grace time.Duration
	// PenaltyXP — размер штрафа.
	PenaltyXP int
	// LockWait — сколько один тик готов ждать замок пользователя; по
	// истечении пользователь пропускается до следующего тика.
	LockWait time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 15 * time.Minute
	}
	if c.Grace <= 0 {
		c.Grace = c.Interval
	}
	if c.PenaltyXP <= 0 {
		c.PenaltyXP = 10
	}
	if c.LockWait <= 0 {
		c.LockWait = 2 * time.Second
	}
	return c
}

// Scheduler обходит игроков по расписанию и решает для каждого: напомнить,
// оштрафовать или не трогать.
type Scheduler struct {
	cron     *cron.Cron
	players  *player.Manager
	notifier Notifier
	cfg      Config
	ctx      context.Context
	cancel   context.CancelFunc
	now      func() time.Time
}

// New создает планировщик. Notifier задаётся отдельно через SetNotifier,
// потому что бот и планировщик ссылаются друг на друга при сборке.
func New(players *player.Manager, cfg Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		players: players,
		cfg:     cfg.withDefaults(),
		ctx:     ctx,
		cancel:  cancel,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier устанавливает доставщика напоминаний.
func (s *Scheduler) SetNotifier(n Notifier) { s.notifier = n }

// SetClock подменяет источник времени (для тестов).
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

// Start запускает периодический обход.
func (s *Scheduler) Start() error {
	if s.notifier == nil {
		log.Println("⚠️ Notifier not set, scheduler will not run")
		return nil
	}

	spec := "@every " + s.cfg.Interval.String()
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.Sweep(s.ctx); err != nil {
			log.Printf("❌ Activity sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("📅 Scheduler started - activity check every %s, grace %s, penalty %d XP",
		s.cfg.Interval, s.cfg.Grace, s.cfg.PenaltyXP)
	return nil
}

// Stop останавливает планировщик, дожидаясь завершения текущего тика.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("📅 Scheduler stopped")
}

// Sweep — один проход по всем известным игрокам. Занятый пользователь
// пропускается: следующий тик пересчитает его предикаты по свежему времени,
// так что напоминание или штраф лишь откладывается, но не теряется.
func (s *Scheduler) Sweep(ctx context.Context) error {
	ids, err := s.players.UserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		userCtx, cancel := context.WithTimeout(ctx, s.cfg.LockWait)
		err := s.tickUser(userCtx, id)
		cancel()
		if err != nil {
			if userCtx.Err() != nil {
				log.Printf("⏭️ Player %d is busy, skipping until next tick", id)
				continue
			}
			log.Printf("❌ Activity check for player %d failed: %v", id, err)
		}
	}
	return nil
}

// tickUser оценивает одного игрока. Предикаты проверяются внутри Mutate,
// то есть под замком пользователя и по свежей записи: гонка с параллельным
// завершением квеста решается в пользу того, кто взял замок первым.
func (s *Scheduler) tickUser(ctx context.Context, userID int64) error {
	now := s.now()

	// быстрый выход без записи в хранилище, если делать нечего
	snap, err := s.players.Snapshot(ctx, userID)
	if err != nil {
		return err
	}
	if !s.wantsAction(snap, now) {
		return nil
	}

	remind := false
	events, err := s.players.Mutate(ctx, userID, func(rec *game.PlayerRecord) ([]game.Event, error) {
		switch {
		case rec.InputMode == game.ModeAwaitingNote:
			// пользователь пишет заметку — не влезаем
			return nil, nil
		case game.ReminderOverdue(rec, now, s.cfg.Grace):
			events := game.ApplyPenalty(rec, s.cfg.PenaltyXP, now)
			rec.PendingReminderAt = nil
			if rec.InputMode == game.ModeAwaitingReply {
				rec.InputMode = game.ModeIdle
			}
			return events, nil
		case game.DueForReminder(rec, now, s.cfg.Interval):
			t := now
			rec.PendingReminderAt = &t
			rec.InputMode = game.ModeAwaitingReply
			remind = true
			return nil, nil
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	if remind {
		s.notifier.DeliverReminder(userID)
	}
	for _, ev := range events {
		if ev.Kind == game.EventPenaltyApplied {
			s.notifier.NotifyPenalty(userID, ev)
		}
	}
	return nil
}

// wantsAction — предварительная проверка по снимку. Решение всё равно
// перепроверяется под замком; здесь отсеиваются игроки, для которых тик
// заведомо ничего не изменит.
func (s *Scheduler) wantsAction(rec *game.PlayerRecord, now time.Time) bool {
	if rec.InputMode == game.ModeAwaitingNote {
		return false
	}
	return game.ReminderOverdue(rec, now, s.cfg.Grace) || game.DueForReminder(rec, now, s.cfg.Interval)
}

// ReplyToReminder обрабатывает ответ на напоминание. Подтверждение работы
// снимает напоминание без штрафа (доказательством станет завершённый квест);
// признание в прокрастинации применяет штраф сразу, не дожидаясь истечения
// льготного периода.
func (s *Scheduler) ReplyToReminder(ctx context.Context, userID int64, admitsInactivity bool) ([]game.Event, error) {
	now := s.now()
	return s.players.Mutate(ctx, userID, func(rec *game.PlayerRecord) ([]game.Event, error) {
		if rec.PendingReminderAt == nil || rec.InputMode != game.ModeAwaitingReply {
			return nil, game.ErrInconsistentMode
		}
		rec.PendingReminderAt = nil
		rec.InputMode = game.ModeIdle
		if admitsInactivity {
			return game.ApplyPenalty(rec, s.cfg.PenaltyXP, now), nil
		}
		return nil, nil
	})
}
