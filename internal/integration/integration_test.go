package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"lessonloop/internal/app"
	"lessonloop/internal/domain"
	"lessonloop/internal/infra/postgres"
	pgmigrations "lessonloop/internal/infra/postgres/migrations"
	infraredis "lessonloop/internal/infra/redis"
)

func TestClassroomEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	pg := postgres.NewStores(pool)
	stores := app.Stores{
		Classes:       pg.Classes,
		Quizzes:       pg.Quizzes,
		Catalog:       infraredis.NewQuizCatalog(redisClient, pg.Quizzes, 5*time.Minute),
		Results:       pg.Results,
		Users:         pg.Users,
		Polls:         pg.Polls,
		Attendance:    pg.Attendance,
		Notifications: pg.Notifications,
	}
	events := infraredis.NewPollEvents(redisClient)
	notifications := app.NewNotificationService(stores.Notifications)
	classes := app.NewClassService(stores)
	quizzes := app.NewQuizService(stores, notifications, nil)
	polls := app.NewPollService(stores, events, notifications)
	analyticsSvc := app.NewAnalyticsService(stores)

	teacher := domain.User{ID: "t1", IdentityID: "idp-t1", Name: "Ms Frizzle", Email: "frizzle@school.test", Role: domain.RoleTeacher, CreatedAt: time.Now().UTC()}
	students := make([]domain.User, 5)
	for i := range students {
		students[i] = domain.User{
			ID:         fmt.Sprintf("s%d", i+1),
			IdentityID: fmt.Sprintf("idp-s%d", i+1),
			Name:       fmt.Sprintf("Student %d", i+1),
			Email:      fmt.Sprintf("s%d@school.test", i+1),
			Role:       domain.RoleStudent,
			CreatedAt:  time.Now().UTC(),
		}
	}
	for _, u := range append([]domain.User{teacher}, students...) {
		if err := stores.Users.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	class, err := classes.Create(ctx, teacher, "Year 5 Maths")
	if err != nil {
		t.Fatalf("create class: %v", err)
	}
	for _, s := range students {
		if _, err := classes.Join(ctx, s, class.InviteCode); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	quiz, err := quizzes.Create(ctx, teacher, class.ID, app.QuizInput{
		Title: "Fractions 1",
		Topic: "Fractions",
		Questions: []domain.Question{
			{Text: "1/2 + 1/2", Options: []domain.Option{{Text: "1"}, {Text: "2"}}, CorrectAnswer: 0},
			{Text: "1/4 + 1/4", Options: []domain.Option{{Text: "1/2"}, {Text: "1"}}, CorrectAnswer: 0},
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if _, err := quizzes.Publish(ctx, teacher, quiz.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Concurrent submissions from one student: exactly one may land.
	right := 0
	answers := []domain.Answer{{QuestionIndex: 0, SelectedOption: &right}, {QuestionIndex: 1, SelectedOption: &right}}
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := quizzes.Submit(ctx, students[0], quiz.ID, answers)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	accepted := 0
	for err := range errs {
		switch {
		case err == nil:
			accepted++
		case !errors.Is(err, domain.ErrAlreadySubmitted):
			t.Fatalf("unexpected submit error: %v", err)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one accepted submission, got %d", accepted)
	}

	mastery, err := analyticsSvc.ClassAnalytics(ctx, teacher, class.ID)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if len(mastery.Strongest) != 1 || mastery.Strongest[0].Topic != "Fractions" {
		t.Fatalf("unexpected mastery %+v", mastery)
	}

	updates, cancel, err := polls.Subscribe(ctx, teacher, class.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	poll, err := polls.Create(ctx, teacher, class.ID, app.PollInput{Question: "Ready?", Options: []string{"Yes", "No"}})
	if err != nil {
		t.Fatalf("create poll: %v", err)
	}
	if _, err := polls.Create(ctx, teacher, class.ID, app.PollInput{Question: "Again?", Options: []string{"Yes", "No"}}); !errors.Is(err, domain.ErrActivePollExists) {
		t.Fatalf("expected active poll conflict, got %v", err)
	}

	// Every student votes twice at once; the tally must count each once.
	wg = sync.WaitGroup{}
	for _, s := range students {
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(s domain.User) {
				defer wg.Done()
				_, _ = polls.Vote(ctx, s, poll.ID, 0)
			}(s)
		}
	}
	wg.Wait()

	active, err := polls.Active(ctx, teacher, class.ID)
	if err != nil || active == nil {
		t.Fatalf("active poll: %v", err)
	}
	if active.Options[0].Votes != len(students) || len(active.VotedUsers) != len(students) {
		t.Fatalf("expected %d votes, got %+v voted=%v", len(students), active.Options, active.VotedUsers)
	}

	select {
	case event := <-updates:
		if event.Type != domain.PollCreated || event.Poll.ID != poll.ID {
			t.Fatalf("unexpected first event %+v", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no poll event received over redis")
	}
}

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "lessonloop", "POSTGRES_PASSWORD": "lessonloop", "POSTGRES_DB": "lessonloop"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://lessonloop:lessonloop@%s:%s/lessonloop?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	provider, err := tc.NewDockerProvider()
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	defer provider.Close()
	if err := provider.Health(context.Background()); err != nil {
		t.Skipf("docker not healthy: %v", err)
	}
}
