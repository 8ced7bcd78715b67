package goals

import (
	"context"
	"database/sql"
)

// PostgresRows keeps each user's collection in one JSONB row.
type PostgresRows struct {
	db *sql.DB
}

func NewPostgresRows(db *sql.DB) *PostgresRows {
	return &PostgresRows{db: db}
}

func (p *PostgresRows) Get(ctx context.Context, userID string) ([]byte, bool, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT goals FROM goals WHERE user_id = $1
	`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (p *PostgresRows) Insert(ctx context.Context, userID string, raw []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO goals (user_id, goals) VALUES ($1, $2::jsonb)
	`, userID, raw)
	return err
}

// Append pushes one goal object onto the stored array in place, the narrow
// counterpart of a full Replace.
func (p *PostgresRows) Append(ctx context.Context, userID string, rawGoal []byte) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE goals SET goals = goals || $2::jsonb WHERE user_id = $1
	`, userID, rawGoal)
	return err
}

func (p *PostgresRows) Replace(ctx context.Context, userID string, raw []byte) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE goals SET goals = $2::jsonb WHERE user_id = $1
	`, userID, raw)
	return err
}
