package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Session struct {
	ID        string
	Token     string
	Email     string
	CreatedAt int64
	ExpiresAt int64
}

type LoggedEntry struct {
	ID            int64
	EventID       string
	UserKey       string
	Name          string
	Portion       float64
	Unit          string
	Calories      float64
	Protein       float64
	Fat           float64
	Carbohydrates float64
	Fiber         float64
	Sugar         float64
	MealType      string
	ConsumedAt    int64
	ReceivedAt    int64
}

type DailySnapshot struct {
	UserKey       string
	Day           string
	Calories      float64
	Protein       float64
	Fat           float64
	Carbohydrates float64
	Fiber         float64
	Sugar         float64
	UpdatedAt     int64
}

const upsertSession = `
INSERT INTO sessions (id, token, email, created_at, expires_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    token = excluded.token,
    email = excluded.email,
    expires_at = excluded.expires_at
`

func (q *Queries) UpsertSession(ctx context.Context, arg Session) error {
	_, err := q.db.ExecContext(ctx, upsertSession, arg.ID, arg.Token, arg.Email, arg.CreatedAt, arg.ExpiresAt)
	return err
}

const getSession = `
SELECT id, token, email, created_at, expires_at FROM sessions
WHERE id = ? AND expires_at > ?
`

func (q *Queries) GetSession(ctx context.Context, id string, now int64) (Session, error) {
	row := q.db.QueryRowContext(ctx, getSession, id, now)
	var s Session
	err := row.Scan(&s.ID, &s.Token, &s.Email, &s.CreatedAt, &s.ExpiresAt)
	return s, err
}

const deleteSession = `DELETE FROM sessions WHERE id = ?`

func (q *Queries) DeleteSession(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, id)
	return err
}

const deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at <= ?`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredSessions, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const insertAddedRecipe = `
INSERT INTO added_recipes (user_key, title, added_at) VALUES (?, ?, ?)
ON CONFLICT(user_key, title) DO UPDATE SET added_at = excluded.added_at
`

func (q *Queries) InsertAddedRecipe(ctx context.Context, userKey, title string, addedAt int64) error {
	_, err := q.db.ExecContext(ctx, insertAddedRecipe, userKey, title, addedAt)
	return err
}

const listAddedRecipes = `SELECT title FROM added_recipes WHERE user_key = ? ORDER BY title`

func (q *Queries) ListAddedRecipes(ctx context.Context, userKey string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listAddedRecipes, userKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		items = append(items, title)
	}
	return items, rows.Err()
}

const insertLoggedEntry = `
INSERT OR IGNORE INTO logged_entries (
    event_id, user_key, name, portion, unit,
    calories, protein, fat, carbohydrates, fiber, sugar,
    meal_type, consumed_at, received_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertLoggedEntry returns the number of inserted rows; 0 means the event
// was already recorded.
func (q *Queries) InsertLoggedEntry(ctx context.Context, arg LoggedEntry) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertLoggedEntry,
		arg.EventID, arg.UserKey, arg.Name, arg.Portion, arg.Unit,
		arg.Calories, arg.Protein, arg.Fat, arg.Carbohydrates, arg.Fiber, arg.Sugar,
		arg.MealType, arg.ConsumedAt, arg.ReceivedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listLoggedEntries = `
SELECT id, event_id, user_key, name, portion, unit,
       calories, protein, fat, carbohydrates, fiber, sugar,
       meal_type, consumed_at, received_at
FROM logged_entries
WHERE user_key = ? AND consumed_at >= ? AND consumed_at < ?
ORDER BY consumed_at, id
`

func (q *Queries) ListLoggedEntries(ctx context.Context, userKey string, from, to int64) ([]LoggedEntry, error) {
	rows, err := q.db.QueryContext(ctx, listLoggedEntries, userKey, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LoggedEntry
	for rows.Next() {
		var i LoggedEntry
		if err := rows.Scan(
			&i.ID, &i.EventID, &i.UserKey, &i.Name, &i.Portion, &i.Unit,
			&i.Calories, &i.Protein, &i.Fat, &i.Carbohydrates, &i.Fiber, &i.Sugar,
			&i.MealType, &i.ConsumedAt, &i.ReceivedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listLedgerUsers = `
SELECT DISTINCT user_key FROM logged_entries
WHERE consumed_at >= ? AND consumed_at < ?
ORDER BY user_key
`

func (q *Queries) ListLedgerUsers(ctx context.Context, from, to int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listLedgerUsers, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const upsertDailySnapshot = `
INSERT INTO daily_snapshots (
    user_key, day, calories, protein, fat, carbohydrates, fiber, sugar, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_key, day) DO UPDATE SET
    calories = excluded.calories,
    protein = excluded.protein,
    fat = excluded.fat,
    carbohydrates = excluded.carbohydrates,
    fiber = excluded.fiber,
    sugar = excluded.sugar,
    updated_at = excluded.updated_at
`

func (q *Queries) UpsertDailySnapshot(ctx context.Context, arg DailySnapshot) error {
	_, err := q.db.ExecContext(ctx, upsertDailySnapshot,
		arg.UserKey, arg.Day, arg.Calories, arg.Protein, arg.Fat,
		arg.Carbohydrates, arg.Fiber, arg.Sugar, arg.UpdatedAt)
	return err
}

const listDailySnapshots = `
SELECT user_key, day, calories, protein, fat, carbohydrates, fiber, sugar, updated_at
FROM daily_snapshots
WHERE user_key = ? AND day >= ? AND day <= ?
ORDER BY day
`

func (q *Queries) ListDailySnapshots(ctx context.Context, userKey, fromDay, toDay string) ([]DailySnapshot, error) {
	rows, err := q.db.QueryContext(ctx, listDailySnapshots, userKey, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DailySnapshot
	for rows.Next() {
		var i DailySnapshot
		if err := rows.Scan(
			&i.UserKey, &i.Day, &i.Calories, &i.Protein, &i.Fat,
			&i.Carbohydrates, &i.Fiber, &i.Sugar, &i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
