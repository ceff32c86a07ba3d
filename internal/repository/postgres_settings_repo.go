package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresSettingsRepo はPostgreSQLを使用した設定リポジトリ。
// user_settingsテーブルにキー単位のJSONデータを保存する。
type PostgresSettingsRepo struct {
	db *sql.DB
}

// NewPostgresSettingsRepo はPostgresSettingsRepoを生成する。
func NewPostgresSettingsRepo(db *sql.DB) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{db: db}
}

// Load は指定キーの設定データを取得する。未保存の場合はnilを返す。
func (r *PostgresSettingsRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM user_settings WHERE key = $1`,
		key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("設定の取得に失敗しました: %w", err)
	}
	return value, nil
}

// Save は指定キーの設定データを保存する。既存の値は上書きされる。
func (r *PostgresSettingsRepo) Save(ctx context.Context, key string, data []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_settings (key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, data,
	)
	if err != nil {
		return fmt.Errorf("設定の保存に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SettingsRepository = (*PostgresSettingsRepo)(nil)
