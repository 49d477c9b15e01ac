package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vetroai/vetro/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite. Timestamps are stored as
// unix milliseconds; dataAccess and result are JSON text columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency between handlers and simulator timers.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		full_name TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		onboarding_completed INTEGER NOT NULL DEFAULT 0,
		onboarding_step INTEGER NOT NULL DEFAULT 1,
		industry TEXT NOT NULL DEFAULT '',
		team_size TEXT NOT NULL DEFAULT '',
		ai_experience_level TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		goals TEXT NOT NULL,
		personality TEXT NOT NULL,
		autonomy_level TEXT NOT NULL,
		data_access TEXT NOT NULL DEFAULT '[]',
		special_instructions TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'offline',
		created_at INTEGER NOT NULL,
		last_active INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_agents_user ON agents(user_id);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		agent_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		sender TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_agent ON messages(agent_id, timestamp);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		agent_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at INTEGER NOT NULL,
		completed_at INTEGER,
		result TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_agent ON tasks(agent_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const userColumns = `id, username, password, email, full_name, company_name,
	onboarding_completed, onboarding_step, industry, team_size,
	ai_experience_level, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	var completed int
	var createdAt int64
	err := row.Scan(
		&u.ID, &u.Username, &u.Password, &u.Email, &u.FullName, &u.CompanyName,
		&completed, &u.OnboardingStep, &u.Industry, &u.TeamSize,
		&u.AIExperienceLevel, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	u.OnboardingCompleted = completed != 0
	u.CreatedAt = time.UnixMilli(createdAt)
	return &u, nil
}

// GetUserByID retrieves a user by id.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// CreateUser inserts a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, email, full_name, company_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		nu.Username, nu.Password, nu.Email, nu.FullName, nu.CompanyName, now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user insert id: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

// UpdateUser applies the non-nil fields of upd to an existing user.
func (s *SQLiteStore) UpdateUser(ctx context.Context, id int64, upd domain.UserUpdate) (*domain.User, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.CompanyName != nil {
		u.CompanyName = *upd.CompanyName
	}
	if upd.Industry != nil {
		u.Industry = *upd.Industry
	}
	if upd.TeamSize != nil {
		u.TeamSize = *upd.TeamSize
	}
	if upd.AIExperienceLevel != nil {
		u.AIExperienceLevel = *upd.AIExperienceLevel
	}
	if upd.OnboardingStep != nil {
		u.OnboardingStep = *upd.OnboardingStep
	}
	if upd.OnboardingCompleted != nil {
		u.OnboardingCompleted = *upd.OnboardingCompleted
	}

	completed := 0
	if u.OnboardingCompleted {
		completed = 1
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET email = ?, full_name = ?, company_name = ?,
			onboarding_completed = ?, onboarding_step = ?, industry = ?,
			team_size = ?, ai_experience_level = ?
		WHERE id = ?`,
		u.Email, u.FullName, u.CompanyName, completed, u.OnboardingStep,
		u.Industry, u.TeamSize, u.AIExperienceLevel, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

const agentColumns = `id, user_id, name, role, goals, personality, autonomy_level,
	data_access, special_instructions, status, created_at, last_active`

func scanAgent(row interface{ Scan(...any) error }) (*domain.Agent, error) {
	var a domain.Agent
	var dataAccess string
	var createdAt, lastActive int64
	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Role, &a.Goals, &a.Personality,
		&a.AutonomyLevel, &dataAccess, &a.SpecialInstructions, &a.Status,
		&createdAt, &lastActive,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent row: %w", err)
	}
	if err := json.Unmarshal([]byte(dataAccess), &a.DataAccess); err != nil {
		return nil, fmt.Errorf("decode data_access: %w", err)
	}
	a.CreatedAt = time.UnixMilli(createdAt)
	a.LastActive = time.UnixMilli(lastActive)
	return &a, nil
}

// GetAgentByID retrieves an agent by id.
func (s *SQLiteStore) GetAgentByID(ctx context.Context, id int64) (*domain.Agent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)
	return scanAgent(row)
}

// GetAgentsByUserID returns all agents owned by the given user.
func (s *SQLiteStore) GetAgentsByUserID(ctx context.Context, userID int64) ([]*domain.Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	var out []*domain.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateAgent inserts a new agent record.
func (s *SQLiteStore) CreateAgent(ctx context.Context, na domain.NewAgent) (*domain.Agent, error) {
	dataAccess, err := json.Marshal(na.DataAccess)
	if err != nil {
		return nil, fmt.Errorf("encode data_access: %w", err)
	}
	now := time.Now().UnixMilli()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO agents (user_id, name, role, goals, personality, autonomy_level,
			data_access, special_instructions, status, created_at, last_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		na.UserID, na.Name, na.Role, na.Goals, na.Personality, na.AutonomyLevel,
		string(dataAccess), na.SpecialInstructions, string(na.Status), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert agent: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("agent insert id: %w", err)
	}
	return s.GetAgentByID(ctx, id)
}

// UpdateAgent applies the non-nil fields of upd to an existing agent.
func (s *SQLiteStore) UpdateAgent(ctx context.Context, id int64, upd domain.AgentUpdate) (*domain.Agent, error) {
	a, err := s.GetAgentByID(ctx, id)
	if err != nil || a == nil {
		return nil, err
	}
	applyAgentUpdate(a, upd)

	dataAccess, err := json.Marshal(a.DataAccess)
	if err != nil {
		return nil, fmt.Errorf("encode data_access: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE agents SET name = ?, role = ?, goals = ?, personality = ?,
			autonomy_level = ?, data_access = ?, special_instructions = ?,
			status = ?, last_active = ?
		WHERE id = ?`,
		a.Name, a.Role, a.Goals, a.Personality, a.AutonomyLevel,
		string(dataAccess), a.SpecialInstructions, string(a.Status),
		a.LastActive.UnixMilli(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update agent: %w", err)
	}
	return a, nil
}

// DeleteAgent removes an agent without cascading to messages or tasks.
func (s *SQLiteStore) DeleteAgent(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete agent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete agent rows: %w", err)
	}
	return n > 0, nil
}

// GetMessagesByAgentID returns the agent's log sorted ascending by timestamp.
func (s *SQLiteStore) GetMessagesByAgentID(ctx context.Context, agentID int64) ([]*domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_id, user_id, content, sender, timestamp
		FROM messages WHERE agent_id = ? ORDER BY timestamp, id`, agentID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var m domain.Message
		var ts int64
		if err := rows.Scan(&m.ID, &m.AgentID, &m.UserID, &m.Content, &m.Sender, &ts); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.Timestamp = time.UnixMilli(ts)
		out = append(out, &m)
	}
	return out, rows.Err()
}

// CreateMessage inserts a message and touches the parent agent's lastActive
// for agent-authored messages.
func (s *SQLiteStore) CreateMessage(ctx context.Context, nm domain.NewMessage) (*domain.Message, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (agent_id, user_id, content, sender, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		nm.AgentID, nm.UserID, nm.Content, nm.Sender, now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message insert id: %w", err)
	}

	if nm.Sender == domain.SenderAgent {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE agents SET last_active = ? WHERE id = ?`,
			time.Now().UnixMilli(), nm.AgentID); err != nil {
			return nil, fmt.Errorf("touch agent last_active: %w", err)
		}
	}

	return &domain.Message{
		ID:        id,
		AgentID:   nm.AgentID,
		UserID:    nm.UserID,
		Content:   nm.Content,
		Sender:    nm.Sender,
		Timestamp: now,
	}, nil
}

const taskColumns = `id, agent_id, user_id, title, description, status, created_at, completed_at, result`

func scanTask(row interface{ Scan(...any) error }) (*domain.Task, error) {
	var t domain.Task
	var createdAt int64
	var completedAt sql.NullInt64
	var result sql.NullString
	err := row.Scan(&t.ID, &t.AgentID, &t.UserID, &t.Title, &t.Description,
		&t.Status, &createdAt, &completedAt, &result)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan task row: %w", err)
	}
	t.CreatedAt = time.UnixMilli(createdAt)
	if completedAt.Valid {
		ts := time.UnixMilli(completedAt.Int64)
		t.CompletedAt = &ts
	}
	if result.Valid && result.String != "" {
		var r domain.TaskResult
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			return nil, fmt.Errorf("decode task result: %w", err)
		}
		t.Result = &r
	}
	return &t, nil
}

// GetTaskByID retrieves a task by id.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// GetTasksByAgentID returns the agent's tasks, newest first.
func (s *SQLiteStore) GetTasksByAgentID(ctx context.Context, agentID int64) ([]*domain.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE agent_id = ? ORDER BY created_at DESC, id DESC`, agentID)
}

// GetTasksByUserID returns the user's tasks, newest first.
func (s *SQLiteStore) GetTasksByUserID(ctx context.Context, userID int64) ([]*domain.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
}

func (s *SQLiteStore) queryTasks(ctx context.Context, query string, arg any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTask inserts a pending task with nil completedAt and result.
func (s *SQLiteStore) CreateTask(ctx context.Context, nt domain.NewTask) (*domain.Task, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (agent_id, user_id, title, description, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		nt.AgentID, nt.UserID, nt.Title, nt.Description, string(domain.TaskPending), now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("task insert id: %w", err)
	}
	return &domain.Task{
		ID:          id,
		AgentID:     nt.AgentID,
		UserID:      nt.UserID,
		Title:       nt.Title,
		Description: nt.Description,
		Status:      domain.TaskPending,
		CreatedAt:   now,
	}, nil
}

// UpdateTask applies the non-nil fields of upd to an existing task.
func (s *SQLiteStore) UpdateTask(ctx context.Context, id int64, upd domain.TaskUpdate) (*domain.Task, error) {
	t, err := s.GetTaskByID(ctx, id)
	if err != nil || t == nil {
		return nil, err
	}
	applyTaskUpdate(t, upd)

	var completedAt any
	if t.CompletedAt != nil {
		completedAt = t.CompletedAt.UnixMilli()
	}
	var result any
	if t.Result != nil {
		b, err := json.Marshal(t.Result)
		if err != nil {
			return nil, fmt.Errorf("encode task result: %w", err)
		}
		result = string(b)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, status = ?, completed_at = ?, result = ?
		WHERE id = ?`,
		t.Title, t.Description, string(t.Status), completedAt, result, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}
