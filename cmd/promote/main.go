// Command promote grants the admin role to an existing user.
//
//	promote -email=you@example.com
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"moviehub/internal/db"
	"moviehub/internal/store"
)

func main() {
	_ = godotenv.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	defPath := os.Getenv("DATABASE_PATH")
	if defPath == "" {
		defPath = "./data/moviehub.db"
	}
	email := flag.String("email", "", "email of the user to promote")
	path := flag.String("db", defPath, "SQLite database file")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: promote -email=you@example.com [-db=path]")
		os.Exit(2)
	}

	dbc, err := db.Open(*path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *path).Msg("open database")
	}
	defer dbc.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx, dbc); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	u, err := store.NewUsers(dbc).Promote(ctx, *email)
	if errors.Is(err, store.ErrNotFound) {
		logger.Error().Str("email", *email).Msg("no user found with that email")
		dbc.Close()
		os.Exit(1)
	} else if err != nil {
		logger.Fatal().Err(err).Msg("promote")
	}
	fmt.Printf("User promoted to admin: id=%d email=%s role=%s\n", u.ID, u.Email, u.Role)
}
