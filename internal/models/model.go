package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Movie is a catalog entry together with the aggregates derived from its
// votes and comments at read time.
type Movie struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AddedBy     int64     `json:"added_by"`
	CreatedAt   time.Time `json:"created_at"`

	Votes         int    `json:"votes"`
	CommentsCount int    `json:"comments_count"`
	AddedByName   string `json:"added_by_name"`

	LastCommentBody      *string    `json:"last_comment_body"`
	LastCommentUserName  *string    `json:"last_comment_user_name"`
	LastCommentCreatedAt *time.Time `json:"last_comment_created_at"`
}

type Vote struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	MovieID   int64     `json:"movie_id"`
	VoteType  int       `json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	MovieID   int64     `json:"movie_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UserName  string    `json:"user_name"`
}

// AdminComment is a comment row in the cross-movie admin listing.
type AdminComment struct {
	ID         int64     `json:"id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	UserID     int64     `json:"user_id"`
	UserName   string    `json:"user_name"`
	MovieID    int64     `json:"movie_id"`
	MovieTitle string    `json:"movie_title"`
}

type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}
