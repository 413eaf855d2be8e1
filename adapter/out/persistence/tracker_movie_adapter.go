package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tracker_server/core/domain"
	"tracker_server/core/port/out"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// MovieAdapter implements MovieRepository
type MovieAdapter struct {
	db *sqlx.DB
}

// NewMovieAdapter creates a new MovieAdapter
func NewMovieAdapter(db *sqlx.DB) *MovieAdapter {
	return &MovieAdapter{db: db}
}

var _ out.MovieRepository = (*MovieAdapter)(nil)

// movieRow represents the database row
type movieRow struct {
	ID           int64           `db:"id"`
	UserID       uuid.UUID       `db:"user_id"`
	TMDBID       int64           `db:"tmdb_id"`
	Title        string          `db:"title"`
	Director     sql.NullString  `db:"director"`
	Actors       sql.NullString  `db:"actors"`
	Description  sql.NullString  `db:"description"`
	GenreIDs     pq.Int64Array   `db:"genre_ids"`
	ListName     string          `db:"list_name"`
	TimesWatched int             `db:"no_of_times_watched"`
	UserRating   sql.NullFloat64 `db:"user_rating"`
	UserReview   sql.NullString  `db:"user_review"`
	PosterPath   sql.NullString  `db:"poster_path"`
	ReleaseDate  sql.NullString  `db:"release_date"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

const movieColumns = `
	id, user_id, tmdb_id, title, director, actors, description, genre_ids,
	list_name, no_of_times_watched, user_rating, user_review, poster_path,
	to_char(release_date, 'YYYY-MM-DD') AS release_date, created_at, updated_at`

// List returns the user's entries, newest first
func (a *MovieAdapter) List(ctx context.Context, filter *domain.MovieEntryFilter) ([]*domain.MovieEntry, error) {
	var (
		conds = []string{"user_id = $1"}
		args  = []any{filter.UserID}
	)
	if filter.ListName != nil {
		args = append(args, string(*filter.ListName))
		conds = append(conds, fmt.Sprintf("list_name = $%d", len(args)))
	}

	query := `SELECT` + movieColumns + `
		FROM movies
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var rows []movieRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	entries := make([]*domain.MovieEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toDomain())
	}
	return entries, nil
}

// Get returns one entry owned by the user
func (a *MovieAdapter) Get(ctx context.Context, userID uuid.UUID, id int64) (*domain.MovieEntry, error) {
	query := `SELECT` + movieColumns + `
		FROM movies
		WHERE id = $1 AND user_id = $2`

	var row movieRow
	if err := a.db.QueryRowxContext(ctx, query, id, userID).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, out.ErrMovieEntryNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// Create inserts an entry and fills in its id and timestamps
func (a *MovieAdapter) Create(ctx context.Context, entry *domain.MovieEntry) error {
	query := `
		INSERT INTO movies (
			user_id, tmdb_id, title, director, actors, description, genre_ids,
			list_name, no_of_times_watched, user_rating, user_review, poster_path, release_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::date)
		RETURNING id, created_at, updated_at
	`

	err := a.db.QueryRowxContext(ctx, query,
		entry.UserID,
		entry.TMDBID,
		entry.Title,
		nullString(entry.Director),
		nullString(entry.Actors),
		nullString(entry.Description),
		pq.Int64Array(entry.GenreIDs),
		string(entry.ListName),
		entry.TimesWatched,
		entry.UserRating,
		nullString(entry.UserReview),
		nullString(entry.PosterPath),
		entry.ReleaseDate,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return out.ErrMovieEntryDuplicate
		}
		return err
	}
	return nil
}

// UpdateList moves an entry to another list
func (a *MovieAdapter) UpdateList(ctx context.Context, userID uuid.UUID, id int64, list domain.ListName, timesWatched int) error {
	query := `
		UPDATE movies
		SET list_name = $1, no_of_times_watched = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
	`
	res, err := a.db.ExecContext(ctx, query, string(list), timesWatched, id, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return out.ErrMovieEntryDuplicate
		}
		return err
	}
	return requireAffected(res)
}

// UpdateReview sets rating and review
func (a *MovieAdapter) UpdateReview(ctx context.Context, userID uuid.UUID, id int64, rating *float64, review string) error {
	query := `
		UPDATE movies
		SET user_rating = $1, user_review = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
	`
	res, err := a.db.ExecContext(ctx, query, rating, nullString(review), id, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes one entry
func (a *MovieAdapter) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	res, err := a.db.ExecContext(ctx, `DELETE FROM movies WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteList removes every entry in a list
func (a *MovieAdapter) DeleteList(ctx context.Context, userID uuid.UUID, list domain.ListName) (int64, error) {
	res, err := a.db.ExecContext(ctx, `DELETE FROM movies WHERE user_id = $1 AND list_name = $2`, userID, string(list))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return out.ErrMovieEntryNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *movieRow) toDomain() *domain.MovieEntry {
	e := &domain.MovieEntry{
		ID:           r.ID,
		UserID:       r.UserID,
		TMDBID:       r.TMDBID,
		Title:        r.Title,
		Director:     r.Director.String,
		Actors:       r.Actors.String,
		Description:  r.Description.String,
		GenreIDs:     []int64(r.GenreIDs),
		ListName:     domain.ListName(r.ListName),
		TimesWatched: r.TimesWatched,
		UserReview:   r.UserReview.String,
		PosterPath:   r.PosterPath.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.UserRating.Valid {
		rating := r.UserRating.Float64
		e.UserRating = &rating
	}
	if r.ReleaseDate.Valid {
		date := r.ReleaseDate.String
		e.ReleaseDate = &date
	}
	return e
}
