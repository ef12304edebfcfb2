package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
)

var _ repository.PublishLogRepository = (*PublishLogRepoImpl)(nil)

const schema = `
	CREATE TABLE IF NOT EXISTS publish_log (
		id                UUID PRIMARY KEY,
		channel           TEXT NOT NULL,
		title             TEXT NOT NULL,
		target_account_id TEXT NOT NULL DEFAULT '',
		content_length    INTEGER NOT NULL,
		success           BOOLEAN NOT NULL,
		need_login        BOOLEAN NOT NULL,
		remote_article_id TEXT NOT NULL DEFAULT '',
		message           TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS publish_log_channel_created_at_idx ON publish_log (channel, created_at DESC);
`

// Connect opens a connection pool and verifies it.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return db, nil
}

// PublishLogRepoImpl provides a concrete implementation for the PublishLogRepository interface using PostgreSQL.
type PublishLogRepoImpl struct {
	db *pgxpool.Pool
}

// NewPublishLogRepo creates a new instance of PublishLogRepoImpl.
func NewPublishLogRepo(db *pgxpool.Pool) *PublishLogRepoImpl {
	return &PublishLogRepoImpl{db: db}
}

// EnsureSchema creates the publish_log table if it does not exist.
func (r *PublishLogRepoImpl) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

// Save appends one publish attempt.
func (r *PublishLogRepoImpl) Save(ctx context.Context, record *entity.PublishRecord) error {
	query := `
		INSERT INTO publish_log (id, channel, title, target_account_id, content_length, success, need_login, remote_article_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.db.Exec(ctx, query,
		record.ID,
		string(record.Channel),
		record.Title,
		record.TargetAccountID,
		record.ContentLength,
		record.Success,
		record.NeedLogin,
		record.RemoteArticleID,
		record.Message,
		record.CreatedAt,
	)
	return err
}

// ListRecent retrieves the newest attempts. An empty channel lists every channel.
func (r *PublishLogRepoImpl) ListRecent(ctx context.Context, channel entity.Channel, limit int) ([]*entity.PublishRecord, error) {
	query := `
		SELECT id::text, channel, title, target_account_id, content_length, success, need_login, remote_article_id, message, created_at
		FROM publish_log
		WHERE $1::text = '' OR channel = $1::text
		ORDER BY created_at DESC
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, string(channel), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*entity.PublishRecord
	for rows.Next() {
		var (
			rec entity.PublishRecord
			ch  string
		)
		if err := rows.Scan(
			&rec.ID,
			&ch,
			&rec.Title,
			&rec.TargetAccountID,
			&rec.ContentLength,
			&rec.Success,
			&rec.NeedLogin,
			&rec.RemoteArticleID,
			&rec.Message,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Channel = entity.Channel(ch)
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Ping checks the database connection.
func (r *PublishLogRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
