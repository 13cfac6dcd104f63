package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"moviehub/internal/models"
)

// Movies is the catalog. Score, comment count and the latest comment are
// derived per row on every read.
type Movies struct {
	db DBTX
}

func NewMovies(db DBTX) *Movies {
	return &Movies{db: db}
}

// The latest comment is joined in by id so its created_at keeps the
// DATETIME column type and scans into a time.Time.
const movieSelect = `SELECT m.id, m.title, m.description, m.added_by, m.created_at,
		COALESCE((SELECT SUM(v.vote_type) FROM votes v WHERE v.movie_id = m.id), 0) AS score,
		(SELECT COUNT(*) FROM comments c WHERE c.movie_id = m.id) AS comments_count,
		COALESCE(u.name, '') AS added_by_name,
		lc.body, lu.name, lc.created_at
	FROM movies m
	LEFT JOIN users u ON u.id = m.added_by
	LEFT JOIN comments lc ON lc.id = (
		SELECT c2.id FROM comments c2 WHERE c2.movie_id = m.id
		ORDER BY c2.created_at DESC, c2.id DESC LIMIT 1)
	LEFT JOIN users lu ON lu.id = lc.user_id`

const movieFilter = ` WHERE (m.title LIKE ? ESCAPE '\' OR m.description LIKE ? ESCAPE '\')`

func scanMovie(row interface{ Scan(...any) error }) (models.Movie, error) {
	var (
		m        models.Movie
		lastBody sql.NullString
		lastUser sql.NullString
		lastAt   sql.NullTime
	)
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.AddedBy, &m.CreatedAt,
		&m.Votes, &m.CommentsCount, &m.AddedByName,
		&lastBody, &lastUser, &lastAt)
	if err != nil {
		return models.Movie{}, err
	}
	if lastBody.Valid {
		m.LastCommentBody = &lastBody.String
	}
	if lastUser.Valid {
		m.LastCommentUserName = &lastUser.String
	}
	if lastAt.Valid {
		m.LastCommentCreatedAt = &lastAt.Time
	}
	return m, nil
}

// List returns one page of the catalog ordered by score, then newest first.
// Total counts every movie matching the filter.
func (s *Movies) List(ctx context.Context, pq PageQuery) (models.Page[models.Movie], error) {
	pq = pq.normalize()
	page := models.Page[models.Movie]{Items: []models.Movie{}, Page: pq.Page, Limit: pq.Limit}

	var where string
	var args []any
	if pq.Query != "" {
		where = movieFilter
		pat := likePattern(pq.Query)
		args = append(args, pat, pat)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies m`+where, args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count movies: %w", err)
	}

	q := movieSelect + where + ` ORDER BY score DESC, m.created_at DESC, m.id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, append(args, pq.Limit, pq.Offset())...)
	if err != nil {
		return page, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return page, fmt.Errorf("scan movie: %w", err)
		}
		page.Items = append(page.Items, m)
	}
	return page, rows.Err()
}

func (s *Movies) Get(ctx context.Context, id int64) (models.Movie, error) {
	m, err := scanMovie(s.db.QueryRowContext(ctx, movieSelect+` WHERE m.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Movie{}, notFound("Movie")
	} else if err != nil {
		return models.Movie{}, fmt.Errorf("movie %d: %w", id, err)
	}
	return m, nil
}

func (s *Movies) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Add inserts a movie owned by ownerID and returns it with its (empty)
// aggregates.
func (s *Movies) Add(ctx context.Context, title, description string, ownerID int64) (models.Movie, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Movie{}, invalid("Title is required")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO movies(title,description,added_by,created_at) VALUES(?,?,?,?)`,
		title, strings.TrimSpace(description), ownerID, time.Now().UTC())
	if isForeignKeyViolation(err) {
		return models.Movie{}, notFound("User")
	} else if err != nil {
		return models.Movie{}, fmt.Errorf("add movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Movie{}, err
	}
	return s.Get(ctx, id)
}

// Delete removes a movie. Its votes and comments go with it through the
// ON DELETE CASCADE foreign keys.
func (s *Movies) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("Movie")
	}
	return nil
}
