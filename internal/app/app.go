package app

import (
	"database/sql"
	"log"
	"net/http"

	"service-scheduler/internal/cache"
	"service-scheduler/internal/config"
	transport "service-scheduler/internal/http"
	"service-scheduler/internal/http/handlers"
	"service-scheduler/internal/mq"
	"service-scheduler/internal/repository"
	"service-scheduler/internal/service"
)

type App struct {
	handler   http.Handler
	publisher *mq.OutboxPublisher
}

func New(db *sql.DB, cfg *config.Config, logger *log.Logger) (*App, error) {
	txManager := repository.NewPostgresTxManager(db)

	var occurrenceCache *cache.OccurrenceCache
	if cfg.Cache.Enabled {
		var err error
		occurrenceCache, err = cache.NewOccurrenceCache(cfg.Cache.Size)
		if err != nil {
			return nil, err
		}
	}

	schedulerService := service.NewSchedulerService(txManager, occurrenceCache)
	scheduleHandler := handlers.NewScheduleHandler(schedulerService)
	router := transport.NewRouter(scheduleHandler)

	publisher, err := mq.NewOutboxPublisher(txManager, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &App{handler: router.Handler(), publisher: publisher}, nil
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// OutboxPublisher is nil when RabbitMQ is disabled.
func (a *App) OutboxPublisher() *mq.OutboxPublisher {
	return a.publisher
}
