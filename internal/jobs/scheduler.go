// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: в полночь по времени приложения
// создаётся дневная сводка переработки.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// dailyTrash — то, что планировщику нужно от учёта переработки.
type dailyTrash interface {
	EnsureToday(ctx context.Context) error
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron  *cron.Cron
	trash dailyTrash
}

// NewScheduler создаёт планировщик в часовом поясе loc.
func NewScheduler(trash dailyTrash, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(loc)),
		trash: trash,
	}
}

// Start запускает все фоновые задачи.
// Сводка за сегодня создаётся сразу, не дожидаясь полуночи.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("0 0 * * *", func() { s.ensureToday(ctx) }); err != nil {
		return err
	}

	s.ensureToday(ctx)
	s.cron.Start()
	log.WithField("location", s.cron.Location().String()).Info("Планировщик задач запущен")
	return nil
}

func (s *Scheduler) ensureToday(ctx context.Context) {
	log.Debug("[CRON] Дневная сводка переработки")
	if err := s.trash.EnsureToday(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка создания дневной сводки")
	}
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
