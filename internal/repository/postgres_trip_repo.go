package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/nizukuri/internal/model"
)

// PostgresTripRepo はPostgreSQLを使用した旅行リポジトリ。
type PostgresTripRepo struct {
	db *sql.DB
}

// NewPostgresTripRepo はPostgresTripRepoを生成する。
func NewPostgresTripRepo(db *sql.DB) *PostgresTripRepo {
	return &PostgresTripRepo{db: db}
}

// Create は旅行と持ち物リストを同一トランザクションで作成する。
func (r *PostgresTripRepo) Create(ctx context.Context, trip *model.Trip) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	forecasts, err := marshalForecasts(trip.Forecasts)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO trips (id, name, gender, duration, selected_tag_ids, destination,
		                    start_date, end_date, forecasts, checked_count, total_count,
		                    is_archived, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		trip.ID, trip.Name, string(trip.Gender), string(trip.Duration),
		pq.Array(trip.SelectedTagIDs), nullString(trip.Destination),
		trip.StartDate, trip.EndDate, forecasts,
		trip.CheckedCount, trip.TotalCount, trip.IsArchived, trip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("旅行の作成に失敗しました: %w", err)
	}

	for pos, item := range trip.Items {
		if err := insertItemTx(ctx, tx, trip.ID, item, pos); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの旅行を持ち物リスト込みで取得する。見つからない場合はnilを返す。
func (r *PostgresTripRepo) FindByID(ctx context.Context, id string) (*model.Trip, error) {
	trip, err := scanTrip(r.db.QueryRowContext(ctx,
		`SELECT id, name, gender, duration, selected_tag_ids, destination,
		        start_date, end_date, forecasts, checked_count, total_count,
		        is_archived, created_at
		 FROM trips WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("旅行の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, name_en, category_name, category_name_en, is_checked, sort_order
		 FROM trip_items WHERE trip_id = $1 ORDER BY position ASC`,
		trip.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("持ち物リストの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.TripItem
		if err := rows.Scan(
			&item.ID, &item.Name, &item.NameEn,
			&item.CategoryName, &item.CategoryNameEn,
			&item.IsChecked, &item.SortOrder,
		); err != nil {
			return nil, fmt.Errorf("持ち物リストの読み取りに失敗しました: %w", err)
		}
		trip.Items = append(trip.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("持ち物リストの走査に失敗しました: %w", err)
	}

	return trip, nil
}

// List は全旅行を持ち物リストなしで取得する。
func (r *PostgresTripRepo) List(ctx context.Context) ([]*model.Trip, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, gender, duration, selected_tag_ids, destination,
		        start_date, end_date, forecasts, checked_count, total_count,
		        is_archived, created_at
		 FROM trips
		 ORDER BY is_archived ASC, created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("旅行一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectTrips(rows)
}

// SaveItems は持ち物リスト全体とカウンタを置き換える。
func (r *PostgresTripRepo) SaveItems(ctx context.Context, tripID string, items []model.TripItem, checkedCount, totalCount int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trip_items WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("持ち物リストの削除に失敗しました: %w", err)
	}

	for pos, item := range items {
		if err := insertItemTx(ctx, tx, tripID, item, pos); err != nil {
			return err
		}
	}

	if err := updateCountersTx(ctx, tx, tripID, checkedCount, totalCount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// UpdateItemChecked はアイテムのチェック状態とチェック済みカウンタを更新する。
func (r *PostgresTripRepo) UpdateItemChecked(ctx context.Context, tripID, itemID string, isChecked bool, checkedCount int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE trip_items SET is_checked = $3 WHERE trip_id = $1 AND id = $2`,
		tripID, itemID, isChecked,
	)
	if err != nil {
		return fmt.Errorf("チェック状態の更新に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE trips SET checked_count = $2 WHERE id = $1`,
		tripID, checkedCount,
	)
	if err != nil {
		return fmt.Errorf("チェック済みカウンタの更新に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// InsertItem はアイテムをリスト末尾に追加し、カウンタを更新する。
func (r *PostgresTripRepo) InsertItem(ctx context.Context, tripID string, item model.TripItem, checkedCount, totalCount int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO trip_items (trip_id, id, name, name_en, category_name,
		                         category_name_en, is_checked, sort_order, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
		         (SELECT COALESCE(MAX(position), -1) + 1 FROM trip_items WHERE trip_id = $1))`,
		tripID, item.ID, item.Name, item.NameEn,
		item.CategoryName, item.CategoryNameEn, item.IsChecked, item.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("アイテムの追加に失敗しました: %w", err)
	}

	if err := updateCountersTx(ctx, tx, tripID, checkedCount, totalCount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// DeleteItem はアイテムを削除し、カウンタを更新する。
func (r *PostgresTripRepo) DeleteItem(ctx context.Context, tripID, itemID string, checkedCount, totalCount int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM trip_items WHERE trip_id = $1 AND id = $2`,
		tripID, itemID,
	)
	if err != nil {
		return fmt.Errorf("アイテムの削除に失敗しました: %w", err)
	}

	if err := updateCountersTx(ctx, tx, tripID, checkedCount, totalCount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// UpdateCounters は進捗カウンタのみを更新する。
func (r *PostgresTripRepo) UpdateCounters(ctx context.Context, tripID string, checkedCount, totalCount int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE trips SET checked_count = $2, total_count = $3 WHERE id = $1`,
		tripID, checkedCount, totalCount,
	)
	if err != nil {
		return fmt.Errorf("進捗カウンタの更新に失敗しました: %w", err)
	}
	return nil
}

// SetArchived はアーカイブ状態を更新する。
func (r *PostgresTripRepo) SetArchived(ctx context.Context, tripID string, archived bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE trips SET is_archived = $2 WHERE id = $1`,
		tripID, archived,
	)
	if err != nil {
		return fmt.Errorf("アーカイブ状態の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は旅行を削除する。関連するtrip_itemsはCASCADE削除される。
func (r *PostgresTripRepo) Delete(ctx context.Context, tripID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, tripID)
	if err != nil {
		return fmt.Errorf("旅行の削除に失敗しました: %w", err)
	}
	return nil
}

// ListUpcomingActive は出発日が指定範囲内の未アーカイブ旅行を取得する。
func (r *PostgresTripRepo) ListUpcomingActive(ctx context.Context, from, to time.Time) ([]*model.Trip, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, gender, duration, selected_tag_ids, destination,
		        start_date, end_date, forecasts, checked_count, total_count,
		        is_archived, created_at
		 FROM trips
		 WHERE is_archived = false
		   AND start_date IS NOT NULL
		   AND start_date >= $1
		   AND start_date <= $2
		 ORDER BY start_date ASC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("出発予定旅行の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectTrips(rows)
}

// UpdateForecasts は旅行の予報データを置き換える。
func (r *PostgresTripRepo) UpdateForecasts(ctx context.Context, tripID string, forecasts []model.Forecast) error {
	blob, err := marshalForecasts(forecasts)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE trips SET forecasts = $2 WHERE id = $1`,
		tripID, blob,
	)
	if err != nil {
		return fmt.Errorf("予報データの更新に失敗しました: %w", err)
	}
	return nil
}

// ClearStaleForecasts は終了日がcutoffより前の旅行から予報データを取り除く。
func (r *PostgresTripRepo) ClearStaleForecasts(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE trips SET forecasts = NULL
		 WHERE forecasts IS NOT NULL
		   AND end_date IS NOT NULL
		   AND end_date < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("古い予報データの削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return affected, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTrip は1行分の旅行レコードを読み取る。持ち物リストは読み込まない。
func scanTrip(row rowScanner) (*model.Trip, error) {
	trip := &model.Trip{}
	var gender, duration string
	var destination sql.NullString
	var startDate, endDate sql.NullTime
	var tagIDs pq.StringArray
	var forecasts []byte

	err := row.Scan(
		&trip.ID, &trip.Name, &gender, &duration, &tagIDs, &destination,
		&startDate, &endDate, &forecasts, &trip.CheckedCount, &trip.TotalCount,
		&trip.IsArchived, &trip.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	trip.Gender = model.Gender(gender)
	trip.Duration = model.TripDuration(duration)
	trip.SelectedTagIDs = []string(tagIDs)
	trip.Destination = nullStringValue(destination)
	if startDate.Valid {
		t := startDate.Time
		trip.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		trip.EndDate = &t
	}
	if len(forecasts) > 0 {
		if err := json.Unmarshal(forecasts, &trip.Forecasts); err != nil {
			return nil, fmt.Errorf("予報データのパースに失敗しました: %w", err)
		}
	}

	return trip, nil
}

// collectTrips は結果セットの全行を旅行レコードとして読み取る。
func collectTrips(rows *sql.Rows) ([]*model.Trip, error) {
	var trips []*model.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("旅行一覧の読み取りに失敗しました: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("旅行一覧の走査に失敗しました: %w", err)
	}
	return trips, nil
}

// insertItemTx はトランザクション内でアイテムを1件挿入する。
func insertItemTx(ctx context.Context, tx *sql.Tx, tripID string, item model.TripItem, position int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO trip_items (trip_id, id, name, name_en, category_name,
		                         category_name_en, is_checked, sort_order, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tripID, item.ID, item.Name, item.NameEn,
		item.CategoryName, item.CategoryNameEn, item.IsChecked, item.SortOrder, position,
	)
	if err != nil {
		return fmt.Errorf("アイテムの保存に失敗しました: %w", err)
	}
	return nil
}

// updateCountersTx はトランザクション内で進捗カウンタを更新する。
func updateCountersTx(ctx context.Context, tx *sql.Tx, tripID string, checkedCount, totalCount int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE trips SET checked_count = $2, total_count = $3 WHERE id = $1`,
		tripID, checkedCount, totalCount,
	)
	if err != nil {
		return fmt.Errorf("進捗カウンタの更新に失敗しました: %w", err)
	}
	return nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// marshalForecasts は予報リストをJSONに変換する。空の場合はNULL相当のnilを返す。
func marshalForecasts(forecasts []model.Forecast) ([]byte, error) {
	if len(forecasts) == 0 {
		return nil, nil
	}
	blob, err := json.Marshal(forecasts)
	if err != nil {
		return nil, fmt.Errorf("予報データのシリアライズに失敗しました: %w", err)
	}
	return blob, nil
}

// compile-time interface check
var _ TripRepository = (*PostgresTripRepo)(nil)
