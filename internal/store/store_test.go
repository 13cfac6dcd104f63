package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"moviehub/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbc, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { dbc.Close() })
	if err := db.Migrate(context.Background(), dbc); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dbc
}

type fixture struct {
	users    *Users
	movies   *Movies
	votes    *Votes
	comments *Comments
}

func newFixture(t *testing.T) fixture {
	dbc := openTestDB(t)
	return fixture{
		users:    NewUsers(dbc),
		movies:   NewMovies(dbc),
		votes:    NewVotes(dbc),
		comments: NewComments(dbc),
	}
}

func (f fixture) user(t *testing.T, name string) int64 {
	t.Helper()
	u, err := f.users.Create(context.Background(), name, name+"@x.com", "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u.ID
}

func (f fixture) movie(t *testing.T, title string, owner int64) int64 {
	t.Helper()
	m, err := f.movies.Add(context.Background(), title, "about "+title, owner)
	if err != nil {
		t.Fatalf("add movie %s: %v", title, err)
	}
	return m.ID
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		page, limit string
		wantPage    int
		wantLimit   int
	}{
		{"", "", 1, 20},
		{"3", "10", 3, 10},
		{"0", "0", 1, 20},
		{"-2", "500", 1, 100},
		{"2", "-5", 2, 1},
		{"x", "y", 1, 20},
		{"4th", "10abc", 4, 10},
		{" 2 ", "+7", 2, 7},
	}
	for _, tt := range tests {
		pq := ParsePage(" q ", tt.page, tt.limit)
		if pq.Page != tt.wantPage || pq.Limit != tt.wantLimit {
			t.Errorf("ParsePage(%q,%q) = %d/%d, want %d/%d", tt.page, tt.limit, pq.Page, pq.Limit, tt.wantPage, tt.wantLimit)
		}
		if pq.Query != "q" {
			t.Errorf("query not trimmed: %q", pq.Query)
		}
	}
	if off := (PageQuery{Page: 3, Limit: 20}).Offset(); off != 40 {
		t.Errorf("offset = %d", off)
	}
}

func TestUsersCreateDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.users.Create(ctx, "Alice", "a@x.com", "h"); err != nil {
		t.Fatal(err)
	}
	_, err := f.users.Create(ctx, "Alice Again", " A@X.com ", "h")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if _, err := f.users.Create(ctx, " ", "b@x.com", "h"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("blank name: err = %v", err)
	}
}

func TestUsersPromote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "bob")
	u, err := f.users.Promote(ctx, "BOB@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if !u.IsAdmin() {
		t.Errorf("role = %q", u.Role)
	}
	if _, err := f.users.Promote(ctx, "nobody@x.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestVoteRevoteKeepsOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")
	m := f.movie(t, "Heat", u)

	if score, err := f.votes.Cast(ctx, u, m, Upvote); err != nil || score != 1 {
		t.Fatalf("first vote = %d, %v", score, err)
	}
	score, err := f.votes.Cast(ctx, u, m, Downvote)
	if err != nil || score != -1 {
		t.Fatalf("revote = %d, %v", score, err)
	}
	votes, err := f.votes.forMovie(ctx, m)
	if err != nil {
		t.Fatal(err)
	}
	if len(votes) != 1 || votes[0].VoteType != Downvote {
		t.Fatalf("votes = %+v", votes)
	}
	got, err := f.movies.Get(ctx, m)
	if err != nil {
		t.Fatal(err)
	}
	if got.Votes != -1 {
		t.Errorf("catalog score = %d", got.Votes)
	}
}

func TestConcurrentVotesLeaveOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")
	m := f.movie(t, "Heat", u)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		vote := Upvote
		if i%2 == 1 {
			vote = Downvote
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.votes.Cast(ctx, u, m, vote); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("cast: %v", err)
	}

	votes, err := f.votes.forMovie(ctx, m)
	if err != nil {
		t.Fatal(err)
	}
	if len(votes) != 1 {
		t.Fatalf("rows = %d, want 1", len(votes))
	}
	score, err := f.votes.Score(ctx, m)
	if err != nil {
		t.Fatal(err)
	}
	if score != votes[0].VoteType || (score != Upvote && score != Downvote) {
		t.Fatalf("score = %d, row = %+v", score, votes[0])
	}
}

func TestScoreIsSumOfLatestVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	m := f.movie(t, "Alien", owner)

	voters := make([]int64, 5)
	for i := range voters {
		voters[i] = f.user(t, fmt.Sprintf("v%d", i))
	}
	seq := []struct {
		who  int
		vote int
	}{{0, 1}, {1, 1}, {2, -1}, {0, -1}, {3, 1}, {1, -1}, {4, 1}, {0, 1}, {2, 1}}

	latest := map[int]int{}
	for _, s := range seq {
		score, err := f.votes.Cast(ctx, voters[s.who], m, s.vote)
		if err != nil {
			t.Fatal(err)
		}
		latest[s.who] = s.vote
		want := 0
		for _, v := range latest {
			want += v
		}
		if score != want {
			t.Fatalf("after %+v score = %d, want %d", s, score, want)
		}
	}
}

func TestVoteValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")
	m := f.movie(t, "Heat", u)

	if _, err := f.votes.Cast(ctx, u, m, 2); !errors.Is(err, ErrInvalid) {
		t.Errorf("vote 2: err = %v", err)
	}
	if _, err := f.votes.Cast(ctx, u, m, 0); !errors.Is(err, ErrInvalid) {
		t.Errorf("vote 0: err = %v", err)
	}
	if _, err := f.votes.Cast(ctx, u, m+100, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing movie: err = %v", err)
	}
}

func TestMoviesOrderingAndPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	voters := []int64{f.user(t, "a"), f.user(t, "b"), f.user(t, "c")}

	ids := make([]int64, 7)
	for i := range ids {
		ids[i] = f.movie(t, fmt.Sprintf("Movie %d", i), owner)
	}
	// scores: ids[2]=3, ids[5]=2, ids[0]=1, ids[6]=-1, rest 0
	cast := func(m int64, n int, v int) {
		for i := 0; i < n; i++ {
			if _, err := f.votes.Cast(ctx, voters[i], m, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	cast(ids[2], 3, 1)
	cast(ids[5], 2, 1)
	cast(ids[0], 1, 1)
	cast(ids[6], 1, -1)

	want := []int64{ids[2], ids[5], ids[0], ids[4], ids[3], ids[1], ids[6]}

	var got []int64
	for page := 1; ; page++ {
		p, err := f.movies.List(ctx, PageQuery{Page: page, Limit: 3})
		if err != nil {
			t.Fatal(err)
		}
		if p.Total != len(ids) {
			t.Fatalf("total = %d", p.Total)
		}
		if len(p.Items) == 0 {
			break
		}
		for _, m := range p.Items {
			got = append(got, m.ID)
		}
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}

	// a new zero-score movie lands first among the zero-score ones
	fresh := f.movie(t, "Fresh", owner)
	p, err := f.movies.List(ctx, PageQuery{Page: 1, Limit: 100})
	if err != nil {
		t.Fatal(err)
	}
	if p.Items[3].ID != fresh || p.Items[2].ID != ids[0] {
		t.Errorf("fresh movie misplaced: %v", p.Items)
	}
}

func TestMoviesSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	if _, err := f.movies.Add(ctx, "The Matrix", "hackers", owner); err != nil {
		t.Fatal(err)
	}
	if _, err := f.movies.Add(ctx, "Up", "a house with BALLOONS", owner); err != nil {
		t.Fatal(err)
	}
	if _, err := f.movies.Add(ctx, "100% Wolf", "", owner); err != nil {
		t.Fatal(err)
	}
	if _, err := f.movies.Add(ctx, "1000 Wolves", "", owner); err != nil {
		t.Fatal(err)
	}

	tests := map[string]int{
		"matrix":   1,
		"balloons": 1,
		"wolf":     1,
		"100%":     1,
		"_":        0,
		"":         4,
	}
	for q, want := range tests {
		p, err := f.movies.List(ctx, PageQuery{Query: q, Page: 1, Limit: 20})
		if err != nil {
			t.Fatal(err)
		}
		if p.Total != want || len(p.Items) != want {
			t.Errorf("q=%q total=%d items=%d, want %d", q, p.Total, len(p.Items), want)
		}
	}
}

func TestMovieAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	m, err := f.movies.Add(ctx, "  Heat ", "crime", alice)
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "Heat" || m.Votes != 0 || m.CommentsCount != 0 || m.AddedByName != "alice" {
		t.Fatalf("new movie = %+v", m)
	}
	if m.LastCommentBody != nil || m.LastCommentUserName != nil || m.LastCommentCreatedAt != nil {
		t.Fatalf("latest comment should be empty: %+v", m)
	}

	if _, err := f.comments.Add(ctx, m.ID, alice, "first"); err != nil {
		t.Fatal(err)
	}
	last, err := f.comments.Add(ctx, m.ID, bob, "second")
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.movies.Get(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CommentsCount != 2 {
		t.Errorf("comments_count = %d", got.CommentsCount)
	}
	if got.LastCommentBody == nil || *got.LastCommentBody != "second" {
		t.Errorf("last body = %v", got.LastCommentBody)
	}
	if got.LastCommentUserName == nil || *got.LastCommentUserName != "bob" {
		t.Errorf("last user = %v", got.LastCommentUserName)
	}
	if got.LastCommentCreatedAt == nil || !got.LastCommentCreatedAt.Equal(last.CreatedAt) {
		t.Errorf("last at = %v, want %v", got.LastCommentCreatedAt, last.CreatedAt)
	}

	if _, err := f.movies.Add(ctx, "   ", "", alice); !errors.Is(err, ErrInvalid) {
		t.Errorf("blank title: err = %v", err)
	}
	if _, err := f.movies.Get(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: err = %v", err)
	}
}

func TestMovieDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")
	m := f.movie(t, "Heat", u)
	if _, err := f.votes.Cast(ctx, u, m, Upvote); err != nil {
		t.Fatal(err)
	}
	c, err := f.comments.Add(ctx, m, u, "hello")
	if err != nil {
		t.Fatal(err)
	}

	if err := f.movies.Delete(ctx, m); err != nil {
		t.Fatal(err)
	}
	if err := f.movies.Delete(ctx, m); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
	if _, err := f.comments.Get(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("comment survived: err = %v", err)
	}
	votes, err := f.votes.forMovie(ctx, m)
	if err != nil {
		t.Fatal(err)
	}
	if len(votes) != 0 {
		t.Errorf("votes survived: %+v", votes)
	}
}

func TestCommentsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")
	m := f.movie(t, "Heat", u)

	if _, err := f.comments.Add(ctx, m, u, "  "); !errors.Is(err, ErrInvalid) {
		t.Errorf("empty body: err = %v", err)
	}
	if _, err := f.comments.Add(ctx, m+1, u, "hi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing movie: err = %v", err)
	}

	first, err := f.comments.Add(ctx, m, u, "first")
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.comments.Add(ctx, m, u, "second")
	if err != nil {
		t.Fatal(err)
	}
	list, err := f.comments.ListForMovie(ctx, m)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("list = %+v", list)
	}
	if list[0].UserName != "alice" {
		t.Errorf("user_name = %q", list[0].UserName)
	}

	upd, err := f.comments.Update(ctx, first.ID, " edited ")
	if err != nil {
		t.Fatal(err)
	}
	if upd.Body != "edited" {
		t.Errorf("body = %q", upd.Body)
	}
	if _, err := f.comments.Update(ctx, 999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: err = %v", err)
	}
	if _, err := f.comments.Update(ctx, first.ID, ""); !errors.Is(err, ErrInvalid) {
		t.Errorf("update empty: err = %v", err)
	}

	if err := f.comments.Delete(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.comments.Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete twice: err = %v", err)
	}
	if _, err := f.comments.ListForMovie(ctx, m+1); !errors.Is(err, ErrNotFound) {
		t.Errorf("list missing movie: err = %v", err)
	}
}

func TestCommentsSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	heat := f.movie(t, "Heat", alice)
	alien := f.movie(t, "Alien", alice)

	for _, c := range []struct {
		movie int64
		user  int64
		body  string
	}{
		{heat, alice, "great shootout"},
		{heat, bob, "too long"},
		{alien, bob, "scary"},
		{alien, alice, "classic"},
	} {
		if _, err := f.comments.Add(ctx, c.movie, c.user, c.body); err != nil {
			t.Fatal(err)
		}
	}

	tests := map[string]int{
		"":         4,
		"bob":      2, // author name
		"alien":    2, // movie title
		"shootout": 1, // body
		"nothing":  0,
	}
	for q, want := range tests {
		p, err := f.comments.Search(ctx, PageQuery{Query: q, Page: 1, Limit: 20})
		if err != nil {
			t.Fatal(err)
		}
		if p.Total != want || len(p.Items) != want {
			t.Errorf("q=%q total=%d items=%d, want %d", q, p.Total, len(p.Items), want)
		}
	}

	p, err := f.comments.Search(ctx, PageQuery{Page: 2, Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if p.Total != 4 || len(p.Items) != 1 || p.Items[0].Body != "great shootout" {
		t.Fatalf("page 2 = %+v", p)
	}
	if p.Items[0].MovieTitle != "Heat" || p.Items[0].UserName != "alice" {
		t.Errorf("joined fields = %+v", p.Items[0])
	}
}
