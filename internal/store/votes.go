package store

import (
	"context"
	"fmt"
	"time"

	"moviehub/internal/models"
)

const (
	Upvote   = 1
	Downvote = -1
)

// Votes is the vote ledger: at most one signed vote per (user, movie).
type Votes struct {
	db     DBTX
	movies *Movies
}

func NewVotes(db DBTX) *Votes {
	return &Votes{db: db, movies: NewMovies(db)}
}

// Cast records userID's vote on movieID, replacing any earlier vote by the
// same user, and returns the movie's recomputed score. The replacement is a
// single upsert against UNIQUE(user_id, movie_id), so concurrent votes by
// one user on one movie leave exactly one row (last writer wins).
func (s *Votes) Cast(ctx context.Context, userID, movieID int64, voteType int) (int, error) {
	if voteType != Upvote && voteType != Downvote {
		return 0, invalid("Invalid vote type")
	}
	ok, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		return 0, fmt.Errorf("vote: %w", err)
	}
	if !ok {
		return 0, notFound("Movie")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO votes(user_id,movie_id,vote_type,created_at) VALUES(?,?,?,?)
		ON CONFLICT(user_id,movie_id) DO UPDATE SET vote_type=excluded.vote_type`,
		userID, movieID, voteType, time.Now().UTC())
	if isForeignKeyViolation(err) {
		// the movie was deleted between the check and the write
		return 0, notFound("Movie")
	} else if err != nil {
		return 0, fmt.Errorf("vote: %w", err)
	}
	return s.Score(ctx, movieID)
}

// Score is the sum of vote_type over the movie's votes, 0 without votes.
func (s *Votes) Score(ctx context.Context, movieID int64) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(vote_type), 0) FROM votes WHERE movie_id = ?`, movieID).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("score %d: %w", movieID, err)
	}
	return score, nil
}

func (s *Votes) forMovie(ctx context.Context, movieID int64) ([]models.Vote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, movie_id, vote_type, created_at FROM votes WHERE movie_id = ? ORDER BY id`, movieID)
	if err != nil {
		return nil, fmt.Errorf("votes for %d: %w", movieID, err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.UserID, &v.MovieID, &v.VoteType, &v.CreatedAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
