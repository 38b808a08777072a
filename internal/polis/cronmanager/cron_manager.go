// Пакет для управления периодическими задачами платформы.
//
// Основные возможности:
//   - Регистрация задач с расписанием в формате cron
//   - Запуск и остановка диспетчера
//   - Восстановление после паники внутри задачи
package cronmanager

import (
	"fmt"
	"sync"

	"log/slog"

	"github.com/robfig/cron/v3"
)

type JobFunc func()

type Job struct {
	Func     JobFunc
	Schedule string
}

type JobRegistry map[string]Job

type CronManager struct {
	dispatcher *cron.Cron
	jobs       map[string]cron.EntryID
	mu         sync.Mutex
	registry   JobRegistry
}

// NewCronManager создает диспетчер периодических задач по реестру.
func NewCronManager(registry JobRegistry) *CronManager {
	return &CronManager{
		dispatcher: cron.New(
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
		jobs:     make(map[string]cron.EntryID),
		registry: registry,
	}
}

// LoadJobs ставит все задачи реестра в расписание. Ранее добавленные
// задачи снимаются. Ошибка постановки отдельной задачи логируется и не
// мешает остальным.
func (cm *CronManager) LoadJobs() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for name, entryID := range cm.jobs {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}

	for name, job := range cm.registry {
		id, err := cm.dispatcher.AddFunc(job.Schedule, job.Func)
		if err != nil {
			slog.Error("Error adding job", "name", name, "err", err)
			continue
		}
		cm.jobs[name] = id
	}
	return nil
}

// RemoveJob снимает задачу с расписания по имени.
func (cm *CronManager) RemoveJob(name string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if entryID, exists := cm.jobs[name]; exists {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}
}

// Start запускает диспетчер.
func (cm *CronManager) Start() {
	slog.Info("Start cron manager", "jobs", fmt.Sprint(len(cm.jobs)))
	cm.dispatcher.Start()
}

// Stop останавливает диспетчер, дожидаясь завершения текущих задач.
func (cm *CronManager) Stop() {
	ctx := cm.dispatcher.Stop()
	<-ctx.Done()
	slog.Info("Cron manager stopped")
}
