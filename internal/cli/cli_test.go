package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AmimerNabil/achieveai/internal/adapter/auth"
	dbadapter "github.com/AmimerNabil/achieveai/internal/adapter/db"
	httpadapter "github.com/AmimerNabil/achieveai/internal/adapter/http"
	"github.com/AmimerNabil/achieveai/internal/adapter/http/handlers"
	"github.com/AmimerNabil/achieveai/internal/app/engine"
	appservice "github.com/AmimerNabil/achieveai/internal/app/service"
	"github.com/AmimerNabil/achieveai/internal/cli"
	"github.com/AmimerNabil/achieveai/internal/core/domain"
)

type env struct {
	t          *testing.T
	clock      clockwork.FakeClock
	repository *dbadapter.TaskRepository
	service    *appservice.TaskService
	configPath string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := dbadapter.ConnectSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, dbadapter.Migrate(context.Background(), db, dbadapter.DialectSQLite))

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC))
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	config := "owner: alice\ntimezone: UTC\ndeadlines: " + filepath.Join(dir, "deadlines.db") + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o600))

	repository := dbadapter.NewTaskRepository(db)
	return &env{
		t:          t,
		clock:      clock,
		repository: repository,
		service:    appservice.NewTaskService(repository, clock),
		configPath: configPath,
	}
}

func (e *env) run(args ...string) (string, error) {
	e.t.Helper()

	var out, errOut bytes.Buffer
	root := cli.NewRootCommand(
		cli.WithClock(e.clock),
		cli.WithOutput(&out, &errOut),
		cli.WithGateway(func(cfg cli.Config) (engine.Gateway, error) {
			return engine.NewServiceGateway(e.service, cfg.Owner), nil
		}),
	)
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String() + errOut.String(), err
}

// serve exposes the service through the real router, for runs that go
// through the HTTP client.
func (e *env) serve() string {
	e.t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	verifier := auth.NewStaticVerifier(map[string]domain.Identity{"alice-token": {Subject: "alice"}})
	httpadapter.RegisterRoutes(router, handlers.NewHealthHandler(e.repository, dbadapter.DialectSQLite), handlers.NewTaskHandler(e.service), verifier)
	server := httptest.NewServer(router)
	e.t.Cleanup(server.Close)
	return server.URL
}

// runHTTP runs taskctl against url with the default HTTP gateway.
func (e *env) runHTTP(url string, args ...string) (string, error) {
	e.t.Helper()

	var out, errOut bytes.Buffer
	root := cli.NewRootCommand(cli.WithClock(e.clock), cli.WithOutput(&out, &errOut))
	root.SetArgs(append([]string{"--config", e.configPath, "--server", url, "--token", "alice-token"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String() + errOut.String(), err
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, out)
	return out
}

func (e *env) stored() []domain.Task {
	e.t.Helper()
	tasks, err := e.service.ListTasks(context.Background(), "alice")
	require.NoError(e.t, err)
	return tasks
}

func (e *env) onlyTask() domain.Task {
	e.t.Helper()
	tasks := e.stored()
	require.Len(e.t, tasks, 1)
	return tasks[0]
}

func TestAddAndList(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun("add", "Write", "report", "-p", "high", "--due", "2024-03-20", "-e", "60", "-c", "Work")
	require.Contains(t, out, `"Write report"`)

	task := e.onlyTask()
	require.Equal(t, "Write report", task.Title)
	require.Equal(t, domain.PriorityHigh, task.Priority)
	require.Equal(t, 60, *task.EstimatedTime)
	require.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), *task.DueDate)

	out = e.mustRun("list")
	require.Contains(t, out, "Write report")
	require.Contains(t, out, "2024-03-20 (2 days from now)")
	require.Contains(t, out, "idle")
}

func TestAddListAndTimer_OverHTTP(t *testing.T) {
	e := newEnv(t)
	url := e.serve()

	out, err := e.runHTTP(url, "add", "Inbox")
	require.NoError(t, err, out)
	task := e.onlyTask()
	require.Equal(t, "Inbox", task.Title)
	require.Equal(t, domain.PriorityMedium, task.Priority)
	require.Equal(t, domain.RepetitionOneTime, task.Repetition)

	out, err = e.runHTTP(url, "add", "Report", "-p", "high", "--due", "2024-03-20", "-e", "30")
	require.NoError(t, err, out)
	require.Len(t, e.stored(), 2)

	out, err = e.runHTTP(url, "list", "--date", "2024-03-20")
	require.NoError(t, err, out)
	require.Contains(t, out, "Report")
	require.NotContains(t, out, "Inbox")

	var report domain.Task
	for _, stored := range e.stored() {
		if stored.Title == "Report" {
			report = stored
		}
	}
	require.NotEmpty(t, report.ID)

	out, err = e.runHTTP(url, "timer", "start", report.ID)
	require.NoError(t, err, out)
	e.clock.Advance(2 * time.Minute)
	out, err = e.runHTTP(url, "timer", "pause", report.ID)
	require.NoError(t, err, out)
	require.Contains(t, out, "paused")

	updated, err := e.service.GetTask(context.Background(), "alice", report.ID)
	require.NoError(t, err)
	require.Equal(t, 2, updated.TimeSpent)
}

func TestList_FiltersAndFormats(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "Low", "-p", "low", "--due", "2024-03-18")
	e.mustRun("add", "High", "-p", "high", "--due", "2024-04-02")
	e.mustRun("add", "Medium")

	out := e.mustRun("list", "--sort", "priority", "-o", "json")
	var views []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 3)
	require.Equal(t, "High", views[0]["title"])
	require.Equal(t, "Medium", views[1]["title"])
	require.Equal(t, "Low", views[2]["title"])

	out = e.mustRun("list", "--frame", "today", "-o", "yaml")
	var filtered []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &filtered))
	require.Len(t, filtered, 1)
	require.Equal(t, "Low", filtered[0]["title"])

	out = e.mustRun("list", "--date", "2024-04-02", "--frame", "today", "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	require.Equal(t, "High", views[0]["title"])

	_, err := e.run("list", "--frame", "year")
	require.Error(t, err)
	_, err = e.run("list", "-o", "xml")
	require.Error(t, err)
}

func TestEditDoneAndRemove(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "Draft", "-d", "notes", "-e", "30")
	id := e.onlyTask().ID

	e.mustRun("edit", id[:6], "--title", "Final", "--clear-description", "-r", "Daily")
	task := e.onlyTask()
	require.Equal(t, "Final", task.Title)
	require.Nil(t, task.Description)
	require.Equal(t, domain.RepetitionDaily, task.Repetition)

	out := e.mustRun("done", id)
	require.Contains(t, out, "completed")
	require.True(t, e.onlyTask().IsCompleted)

	e.mustRun("done", id)
	require.False(t, e.onlyTask().IsCompleted)

	_, err := e.run("edit", id, "--title", " ")
	require.ErrorIs(t, err, domain.ErrInvalidTask)

	out = e.mustRun("rm", id)
	require.Contains(t, out, "Deleted")
	require.Empty(t, e.stored())

	_, err = e.run("show", id)
	require.ErrorIs(t, err, domain.ErrUnknownTask)
}

func TestTimer_SurvivesBetweenRuns(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "Focus", "-e", "60")
	id := e.onlyTask().ID

	out := e.mustRun("timer", "start", id)
	require.Contains(t, out, "running, 1:00:00 left")

	e.clock.Advance(5*time.Minute + 30*time.Second)
	out = e.mustRun("show", id)
	require.Contains(t, out, "running")
	require.Contains(t, out, "54:30")
	require.Equal(t, 5, e.onlyTask().TimeSpent)

	e.clock.Advance(time.Minute)
	out = e.mustRun("timer", "pause", id)
	require.Contains(t, out, "paused")
	require.Equal(t, 6, e.onlyTask().TimeSpent)

	e.clock.Advance(time.Hour)
	out = e.mustRun("show", id, "-o", "json")
	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Equal(t, "paused", view["state"])
	require.EqualValues(t, 6, view["timeSpent"])

	e.mustRun("timer", "stop", id)
	require.Zero(t, e.onlyTask().TimeSpent)

	_, err := e.run("timer", "pause", id)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTimer_ExpiryRingsOnNextRun(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "Quick", "-e", "1")
	id := e.onlyTask().ID
	e.mustRun("timer", "start", id)

	e.clock.Advance(2 * time.Minute)
	out := e.mustRun("list")

	require.Contains(t, out, "\a")
	require.Contains(t, out, `time is up for "Quick"`)
	require.Equal(t, 1, e.onlyTask().TimeSpent)

	out = e.mustRun("list")
	require.NotContains(t, out, "time is up")
}

func TestWatch_StopsWhenDone(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "Focus", "-e", "60")
	e.mustRun("timer", "start", e.onlyTask().ID)

	out := e.mustRun("timer", "watch", "--for", "100ms")

	require.Contains(t, out, "Focus")
	require.Contains(t, out, "Stopped watching")
}

func TestStats(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "A", "--due", "2024-03-20")
	e.mustRun("add", "B", "--due", "2024-03-20")
	e.mustRun("add", "C", "--due", "2024-03-22")
	for _, task := range e.stored() {
		if task.Title == "A" {
			e.mustRun("edit", task.ID, "--spent", "90")
			e.mustRun("done", task.ID)
		}
	}

	out := e.mustRun("stats", "--calendar")
	require.Contains(t, out, "Productivity:")
	require.Contains(t, out, "33%")
	require.Contains(t, out, "1.5")

	out = e.mustRun("stats", "--calendar", "-o", "json")
	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.EqualValues(t, 3, view["total"])
	require.EqualValues(t, 1, view["completed"])
	require.Equal(t, []any{"2024-03-20", "2024-03-22"}, view["dueDates"])
}

func TestConfig_Errors(t *testing.T) {
	e := newEnv(t)

	_, err := e.run("--timezone", "Mars/Olympus", "list")
	require.Error(t, err)

	e.configPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = e.run("list")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "read config"))
}
