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

type Comments struct {
	db     DBTX
	movies *Movies
}

func NewComments(db DBTX) *Comments {
	return &Comments{db: db, movies: NewMovies(db)}
}

const commentSelect = `SELECT c.id, c.user_id, c.movie_id, c.body, c.created_at, u.name
	FROM comments c JOIN users u ON u.id = c.user_id`

func scanComment(row interface{ Scan(...any) error }) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.UserID, &c.MovieID, &c.Body, &c.CreatedAt, &c.UserName)
	return c, err
}

// ListForMovie returns the movie's comments, newest first.
func (s *Comments) ListForMovie(ctx context.Context, movieID int64) ([]models.Comment, error) {
	ok, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("comments: %w", err)
	}
	if !ok {
		return nil, notFound("Movie")
	}

	rows, err := s.db.QueryContext(ctx,
		commentSelect+` WHERE c.movie_id = ? ORDER BY c.created_at DESC, c.id DESC`, movieID)
	if err != nil {
		return nil, fmt.Errorf("comments for %d: %w", movieID, err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Comments) Get(ctx context.Context, id int64) (models.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, notFound("Comment")
	} else if err != nil {
		return models.Comment{}, fmt.Errorf("comment %d: %w", id, err)
	}
	return c, nil
}

func validBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", invalid("Comment body is required")
	}
	return body, nil
}

func (s *Comments) Add(ctx context.Context, movieID, userID int64, body string) (models.Comment, error) {
	body, err := validBody(body)
	if err != nil {
		return models.Comment{}, err
	}
	ok, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		return models.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	if !ok {
		return models.Comment{}, notFound("Movie")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comments(user_id,movie_id,body,created_at) VALUES(?,?,?,?)`,
		userID, movieID, body, time.Now().UTC())
	if isForeignKeyViolation(err) {
		return models.Comment{}, notFound("Movie")
	} else if err != nil {
		return models.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Comment{}, err
	}
	return s.Get(ctx, id)
}

// Update replaces the body of an existing comment. Ownership is the
// caller's concern.
func (s *Comments) Update(ctx context.Context, id int64, body string) (models.Comment, error) {
	body, err := validBody(body)
	if err != nil {
		return models.Comment{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE comments SET body = ? WHERE id = ?`, body, id)
	if err != nil {
		return models.Comment{}, fmt.Errorf("update comment %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Comment{}, notFound("Comment")
	}
	return s.Get(ctx, id)
}

func (s *Comments) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("Comment")
	}
	return nil
}

// Search lists comments across all movies, newest first. A non-empty query
// matches the body, the author's name or the movie title.
func (s *Comments) Search(ctx context.Context, pq PageQuery) (models.Page[models.AdminComment], error) {
	pq = pq.normalize()
	page := models.Page[models.AdminComment]{Items: []models.AdminComment{}, Page: pq.Page, Limit: pq.Limit}

	const from = ` FROM comments c
		JOIN users u ON u.id = c.user_id
		JOIN movies m ON m.id = c.movie_id`
	var where string
	var args []any
	if pq.Query != "" {
		where = ` WHERE (c.body LIKE ? ESCAPE '\' OR u.name LIKE ? ESCAPE '\' OR m.title LIKE ? ESCAPE '\')`
		pat := likePattern(pq.Query)
		args = append(args, pat, pat, pat)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count comments: %w", err)
	}

	q := `SELECT c.id, c.body, c.created_at, u.id, u.name, m.id, m.title` + from + where +
		` ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, append(args, pq.Limit, pq.Offset())...)
	if err != nil {
		return page, fmt.Errorf("search comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.AdminComment
		if err := rows.Scan(&c.ID, &c.Body, &c.CreatedAt, &c.UserID, &c.UserName, &c.MovieID, &c.MovieTitle); err != nil {
			return page, err
		}
		page.Items = append(page.Items, c)
	}
	return page, rows.Err()
}
