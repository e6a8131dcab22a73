package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/labstack/gommon/log"
	"github.com/rs/cors"

	"lessonloop/internal/app"
	"lessonloop/internal/domain"
	"lessonloop/internal/validation"
)

// Services bundles the use cases served over HTTP.
type Services struct {
	Users         *app.UserService
	Classes       *app.ClassService
	Quizzes       *app.QuizService
	Polls         *app.PollService
	Attendance    *app.AttendanceService
	Notifications *app.NotificationService
	Analytics     *app.AnalyticsService
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	Logger         *log.Logger
	Validator      *validation.Validator
}

type handler struct {
	svc      Services
	validate *validation.Validator
	logger   *log.Logger
}

// NewRouter builds the REST API under /api, the poll websocket at /ws/polls
// and a /healthz endpoint, wrapped in CORS and request logging.
func NewRouter(svc Services, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New("http")
	}
	validate := opts.Validator
	if validate == nil {
		validate = validation.New()
	}
	h := &handler{svc: svc, validate: validate, logger: logger}
	auth := authenticator{users: svc.Users, logger: logger}
	teacher := RequireRole(logger, domain.RoleTeacher)
	student := RequireRole(logger, domain.RoleStudent)
	only := func(mw func(http.Handler) http.Handler, fn http.HandlerFunc) http.Handler {
		return mw(fn)
	}

	router := mux.NewRouter()
	router.Use(requestLogger(logger))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ws/polls", NewWSHandler(svc.Users, svc.Polls, logger).ServeWS).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Handle("/auth/register-profile", auth.identityOnly(http.HandlerFunc(h.registerProfile))).Methods(http.MethodPost)

	secured := api.NewRoute().Subrouter()
	secured.Use(auth.requireProfile)

	secured.HandleFunc("/auth/profile", h.profile).Methods(http.MethodGet)

	secured.Handle("/classes", only(teacher, h.createClass)).Methods(http.MethodPost)
	secured.HandleFunc("/classes", h.listClasses).Methods(http.MethodGet)
	secured.Handle("/classes/join", only(student, h.joinClass)).Methods(http.MethodPost)
	secured.HandleFunc("/classes/{id}", h.getClass).Methods(http.MethodGet)
	secured.Handle("/classes/{id}", only(teacher, h.renameClass)).Methods(http.MethodPut)
	secured.Handle("/classes/{id}/gradebook", only(teacher, h.gradebook)).Methods(http.MethodGet)
	secured.Handle("/classes/{id}/my-grades", only(student, h.myGrades)).Methods(http.MethodGet)
	secured.Handle("/classes/{id}/export-data", only(teacher, h.exportClass)).Methods(http.MethodGet)

	secured.Handle("/quizzes", only(teacher, h.createQuiz)).Methods(http.MethodPost)
	secured.Handle("/quizzes/generate-mcq", only(teacher, h.generateQuestions)).Methods(http.MethodPost)
	secured.HandleFunc("/quizzes/quiz/{id}", h.getQuiz).Methods(http.MethodGet)
	secured.Handle("/quizzes/quiz/{id}", only(teacher, h.updateQuiz)).Methods(http.MethodPut)
	secured.Handle("/quizzes/quiz/{id}", only(teacher, h.deleteQuiz)).Methods(http.MethodDelete)
	secured.Handle("/quizzes/publish/{id}", only(teacher, h.publishQuiz)).Methods(http.MethodPut)
	secured.Handle("/quizzes/submit/{id}", only(student, h.submitQuiz)).Methods(http.MethodPost)
	secured.Handle("/quizzes/results/{quizId}", only(teacher, h.quizResults)).Methods(http.MethodGet)
	secured.Handle("/quizzes/result/{quizId}", only(student, h.myQuizResult)).Methods(http.MethodGet)
	secured.HandleFunc("/quizzes/result/{quizId}/attempt/{attemptId}", h.attempt).Methods(http.MethodGet)
	secured.Handle("/quizzes/my-results/{classId}", only(student, h.myResults)).Methods(http.MethodGet)
	secured.HandleFunc("/quizzes/{classId}", h.listQuizzes).Methods(http.MethodGet)

	secured.HandleFunc("/polls/active/{classId}", h.activePoll).Methods(http.MethodGet)
	secured.Handle("/polls", only(teacher, h.createPoll)).Methods(http.MethodPost)
	secured.Handle("/polls/vote", only(student, h.vote)).Methods(http.MethodPost)
	secured.Handle("/polls/end/{pollId}", only(teacher, h.endPoll)).Methods(http.MethodPut)

	secured.Handle("/attendance/{classId}", only(teacher, h.takeAttendance)).Methods(http.MethodPost)
	secured.Handle("/attendance/{classId}/{date}", only(teacher, h.getAttendance)).Methods(http.MethodGet)

	secured.HandleFunc("/notifications", h.notifications).Methods(http.MethodGet)
	secured.HandleFunc("/notifications/mark-read/{id}", h.markRead).Methods(http.MethodPut)
	secured.HandleFunc("/notifications/mark-all-read", h.markAllRead).Methods(http.MethodPut)
	secured.HandleFunc("/notifications/read", h.deleteRead).Methods(http.MethodDelete)
	secured.HandleFunc("/notifications/{id}", h.deleteNotification).Methods(http.MethodDelete)

	secured.HandleFunc("/analytics/{classId}", h.classAnalytics).Methods(http.MethodGet)
	secured.HandleFunc("/student/average-grade", h.averageGrade).Methods(http.MethodGet)

	return cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "x-auth-token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler(router)
}
