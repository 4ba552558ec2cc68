package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"watchtrack/models"
)

var (
	// ErrItemNotFound is returned when an id does not exist within the
	// owning user's rows.
	ErrItemNotFound = errors.New("watchlist item not found")
	// ErrDuplicateItem is returned when (user, tmdb_id, media_type) already exists.
	ErrDuplicateItem = errors.New("title already on watchlist")
)

// WatchlistRepository persists watchlist_items rows. Every operation is
// scoped by the owning user id; an id outside that scope behaves as missing.
type WatchlistRepository struct {
	conn *sql.DB
}

func NewWatchlistRepository(conn *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{conn: conn}
}

const watchlistColumns = `id, user_id, tmdb_id, media_type, title, overview, poster_path,
	backdrop_path, release_date, genre_ids, vote_average, is_watched, rating, notes,
	created_at, updated_at`

// ListByUser returns all items owned by userID, newest first.
func (r *WatchlistRepository) ListByUser(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+watchlistColumns+` FROM watchlist_items WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	items := []models.WatchlistItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	return items, nil
}

// Insert creates a new row from ins and returns the stored item.
func (r *WatchlistRepository) Insert(ctx context.Context, ins models.WatchlistInsert) (models.WatchlistItem, error) {
	now := time.Now().UTC()
	item := models.WatchlistItem{
		ID:           uuid.NewString(),
		UserID:       ins.UserID,
		TMDBID:       ins.TMDBID,
		MediaType:    ins.MediaType,
		Title:        ins.Title,
		Overview:     ins.Overview,
		PosterPath:   ins.PosterPath,
		BackdropPath: ins.BackdropPath,
		ReleaseDate:  ins.ReleaseDate,
		GenreIDs:     ins.GenreIDs,
		VoteAverage:  ins.VoteAverage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	genres, err := json.Marshal(item.GenreIDs)
	if err != nil {
		return models.WatchlistItem{}, fmt.Errorf("encode genre ids: %w", err)
	}

	_, err = r.conn.ExecContext(ctx,
		`INSERT INTO watchlist_items (`+watchlistColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.TMDBID, item.MediaType, item.Title, item.Overview,
		item.PosterPath, item.BackdropPath, item.ReleaseDate, string(genres),
		item.VoteAverage, boolToInt(item.IsWatched), item.Rating, item.Notes,
		item.CreatedAt, item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.WatchlistItem{}, ErrDuplicateItem
		}
		return models.WatchlistItem{}, fmt.Errorf("insert watchlist item: %w", err)
	}
	return item, nil
}

// Delete removes the row by id, scoped to the owning user.
func (r *WatchlistRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.conn.ExecContext(ctx,
		`DELETE FROM watchlist_items WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete watchlist item: %w", err)
	}
	return requireRow(res)
}

// SetWatched updates the watched flag and bumps updated_at.
func (r *WatchlistRepository) SetWatched(ctx context.Context, id, userID string, watched bool) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE watchlist_items SET is_watched = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		boolToInt(watched), time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("update watched flag: %w", err)
	}
	return requireRow(res)
}

// SetRating stores rating (nil clears it) and bumps updated_at.
func (r *WatchlistRepository) SetRating(ctx context.Context, id, userID string, rating *int) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE watchlist_items SET rating = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		rating, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func scanItem(rows *sql.Rows) (models.WatchlistItem, error) {
	var (
		item      models.WatchlistItem
		genres    string
		isWatched int
		rating    sql.NullInt64
	)
	err := rows.Scan(&item.ID, &item.UserID, &item.TMDBID, &item.MediaType, &item.Title,
		&item.Overview, &item.PosterPath, &item.BackdropPath, &item.ReleaseDate, &genres,
		&item.VoteAverage, &isWatched, &rating, &item.Notes, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return models.WatchlistItem{}, fmt.Errorf("scan watchlist item: %w", err)
	}
	item.IsWatched = isWatched != 0
	if rating.Valid {
		v := int(rating.Int64)
		item.Rating = &v
	}
	if genres != "" {
		if err := json.Unmarshal([]byte(genres), &item.GenreIDs); err != nil {
			return models.WatchlistItem{}, fmt.Errorf("decode genre ids: %w", err)
		}
	}
	return item, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
