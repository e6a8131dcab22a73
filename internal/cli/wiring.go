package cli

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"lessonloop/internal/app"
	"lessonloop/internal/config"
	"lessonloop/internal/infra/memory"
	"lessonloop/internal/infra/postgres"
	redisinfra "lessonloop/internal/infra/redis"
)

// backend is the persistence and fan-out wiring picked from config.
type backend struct {
	stores app.Stores
	events app.PollEvents
	close  func()
}

// openBackend uses Postgres when a URL is configured and memory otherwise.
// Redis, when configured, backs the quiz-list cache and poll fan-out.
func openBackend(ctx context.Context, cfg config.Config, logger *log.Logger) (*backend, error) {
	var closers []func()
	b := &backend{}

	var quizzes memory.QuizLoader
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, pool.Close)
		pg := postgres.NewStores(pool)
		b.stores = app.Stores{
			Classes:       pg.Classes,
			Quizzes:       pg.Quizzes,
			Results:       pg.Results,
			Users:         pg.Users,
			Polls:         pg.Polls,
			Attendance:    pg.Attendance,
			Notifications: pg.Notifications,
		}
		quizzes = pg.Quizzes
		logger.Infof("using postgres stores")
	} else {
		quizStore := memory.NewQuizStore()
		b.stores = app.Stores{
			Classes:       memory.NewClassStore(),
			Quizzes:       quizStore,
			Results:       memory.NewResultStore(),
			Users:         memory.NewUserStore(),
			Polls:         memory.NewPollStore(),
			Attendance:    memory.NewAttendanceStore(),
			Notifications: memory.NewNotificationStore(),
		}
		quizzes = quizStore
		logger.Warnf("postgres url not configured, data lives in memory only")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			for _, c := range closers {
				c()
			}
			return nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		b.stores.Catalog = redisinfra.NewQuizCatalog(client, quizzes, config.TTLDuration(cfg.Redis.TTL, quizTTL))
		b.events = redisinfra.NewPollEvents(client)
		logger.Infof("using redis at %s for quiz cache and poll events", cfg.Redis.Addr)
	} else {
		b.stores.Catalog = memory.NewQuizCatalog(quizzes, quizTTL)
		b.events = memory.NewPollHub()
	}

	b.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return b, nil
}
