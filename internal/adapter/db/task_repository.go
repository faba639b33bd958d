package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/AmimerNabil/achieveai/internal/core/domain"
	"github.com/AmimerNabil/achieveai/internal/core/ports"
)

const (
	listTasksQuery = `
SELECT * FROM tasks
WHERE owner = ?
ORDER BY created_at, id;
`
	getTaskQuery = `SELECT * FROM tasks WHERE id = ? AND owner = ?;`

	insertTaskQuery = `
INSERT INTO tasks (
  id, owner, title, description, priority, due_date, category, repetition,
  estimated_time, is_completed, time_spent, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
	updateTimeSpentQuery = `UPDATE tasks SET time_spent = ?, updated_at = ? WHERE id = ? AND owner = ?;`
	deleteTaskQuery      = `DELETE FROM tasks WHERE id = ? AND owner = ?;`
)

type TaskRepository struct {
	db *sqlx.DB
}

type taskRow struct {
	ID            string         `db:"id"`
	Owner         string         `db:"owner"`
	Title         string         `db:"title"`
	Description   sql.NullString `db:"description"`
	Priority      string         `db:"priority"`
	DueDate       sql.NullTime   `db:"due_date"`
	Category      string         `db:"category"`
	Repetition    string         `db:"repetition"`
	EstimatedTime sql.NullInt64  `db:"estimated_time"`
	IsCompleted   bool           `db:"is_completed"`
	TimeSpent     int            `db:"time_spent"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

var _ ports.TaskRepository = (*TaskRepository)(nil)
var _ ports.HealthChecker = (*TaskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Ping(ctx context.Context) error {
	if r.db == nil {
		return errors.New("sql store is not configured")
	}
	return r.db.PingContext(ctx)
}

func (r *TaskRepository) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, listTasksQuery, owner); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, mapTaskRowToDomainTask(row))
	}

	return tasks, nil
}

func (r *TaskRepository) GetTask(ctx context.Context, owner, id string) (domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Task{}, domain.ErrTaskNotFound
	}

	var row taskRow
	if err := r.db.GetContext(ctx, &row, getTaskQuery, id, owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, domain.ErrTaskNotFound
		}
		return domain.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return mapTaskRowToDomainTask(row), nil
}

func (r *TaskRepository) CreateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	task.ID = uuid.NewString()
	row := mapDomainTaskToRow(task)

	_, err := r.db.ExecContext(ctx, insertTaskQuery,
		row.ID, row.Owner, row.Title, row.Description, row.Priority, row.DueDate, row.Category,
		row.Repetition, row.EstimatedTime, row.IsCompleted, row.TimeSpent, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return r.GetTask(ctx, task.Owner, task.ID)
}

func (r *TaskRepository) UpdateTask(
	ctx context.Context,
	owner, id string,
	input domain.UpdateTaskInput,
	updatedAt time.Time,
) (domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Task{}, domain.ErrTaskNotFound
	}

	sets, args := buildUpdateSet(input)
	sets = append(sets, "updated_at = ?")
	args = append(args, updatedAt)
	args = append(args, id, owner)

	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = ? AND owner = ?;", strings.Join(sets, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}

	// MySQL reports zero affected rows when nothing changed, so existence is
	// checked by reading the row back.
	return r.GetTask(ctx, owner, id)
}

func (r *TaskRepository) UpdateTimeSpent(
	ctx context.Context,
	owner, id string,
	minutes int,
	updatedAt time.Time,
) (domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	if _, err := r.db.ExecContext(ctx, updateTimeSpentQuery, minutes, updatedAt, id, owner); err != nil {
		return domain.Task{}, fmt.Errorf("update time spent %s: %w", id, err)
	}
	return r.GetTask(ctx, owner, id)
}

func (r *TaskRepository) DeleteTask(ctx context.Context, owner, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrTaskNotFound
	}

	result, err := r.db.ExecContext(ctx, deleteTaskQuery, id, owner)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if affected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func buildUpdateSet(input domain.UpdateTaskInput) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if input.Title != nil {
		add("title", *input.Title)
	}
	if input.DescriptionSet {
		add("description", nullString(input.Description))
	}
	if input.Priority != nil {
		add("priority", string(*input.Priority))
	}
	if input.DueDateSet {
		add("due_date", nullTime(input.DueDate))
	}
	if input.Category != nil {
		add("category", *input.Category)
	}
	if input.Repetition != nil {
		add("repetition", string(*input.Repetition))
	}
	if input.EstimatedTimeSet {
		add("estimated_time", nullInt(input.EstimatedTime))
	}
	if input.IsCompleted != nil {
		add("is_completed", *input.IsCompleted)
	}
	if input.TimeSpent != nil {
		add("time_spent", *input.TimeSpent)
	}
	return sets, args
}

func mapDomainTaskToRow(task domain.Task) taskRow {
	return taskRow{
		ID:            task.ID,
		Owner:         task.Owner,
		Title:         task.Title,
		Description:   nullString(task.Description),
		Priority:      string(task.Priority),
		DueDate:       nullTime(task.DueDate),
		Category:      task.Category,
		Repetition:    string(task.Repetition),
		EstimatedTime: nullInt(task.EstimatedTime),
		IsCompleted:   task.IsCompleted,
		TimeSpent:     task.TimeSpent,
		CreatedAt:     task.CreatedAt.UTC(),
		UpdatedAt:     task.UpdatedAt.UTC(),
	}
}

func mapTaskRowToDomainTask(row taskRow) domain.Task {
	task := domain.Task{
		ID:          row.ID,
		Owner:       row.Owner,
		Title:       row.Title,
		Priority:    domain.Priority(row.Priority),
		Category:    row.Category,
		Repetition:  domain.Repetition(row.Repetition),
		IsCompleted: row.IsCompleted,
		TimeSpent:   row.TimeSpent,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}

	if priority, ok := domain.ParsePriority(row.Priority); ok {
		task.Priority = priority
	}
	if repetition, ok := domain.ParseRepetition(row.Repetition); ok {
		task.Repetition = repetition
	}

	if row.Description.Valid {
		value := row.Description.String
		task.Description = &value
	}

	if row.DueDate.Valid {
		value := row.DueDate.Time.UTC()
		task.DueDate = &value
	}

	if row.EstimatedTime.Valid {
		value := int(row.EstimatedTime.Int64)
		task.EstimatedTime = &value
	}

	return task
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value.UTC(), Valid: true}
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}
