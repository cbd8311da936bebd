// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library keeps a local history of composed playlists and the
// per-user track feedback that turns into boost and hidden preferences.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/wodmix/pkg/types"
)

// DefaultDBPath is used when LibraryConfig.DBPath is empty.
const DefaultDBPath = "data/wodmix.db"

// ErrNotFound is returned when a playlist or track does not exist.
var ErrNotFound = errors.New("not found")

// timeFmt is fixed-width so stored timestamps sort lexically.
const timeFmt = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the playlist history SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens or creates the database at cfg.DBPath and creates the
// schema if it does not exist.
func NewStore(cfg types.LibraryConfig) (*Store, error) {
	path := cfg.DBPath
	if path == "" {
		path = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			workout_name TEXT,
			workout TEXT,
			duration_ms INTEGER,
			external_url TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_playlists_user ON playlists(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			name TEXT,
			artist TEXT,
			bpm INTEGER,
			energy REAL,
			duration_ms INTEGER,
			source TEXT,
			phase TEXT,
			spotify_uri TEXT,
			PRIMARY KEY (playlist_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			track_id TEXT NOT NULL,
			artist TEXT NOT NULL,
			rating INTEGER NOT NULL CHECK (rating IN (-1, 1)),
			created_at TEXT NOT NULL,
			UNIQUE (user_id, track_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_user ON feedback(user_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// PlaylistRecord is a saved playlist together with the workout it was
// composed for.
type PlaylistRecord struct {
	UserID    string         `json:"user_id" yaml:"user_id"`
	Workout   types.Workout  `json:"workout" yaml:"workout"`
	Playlist  types.Playlist `json:"playlist" yaml:"playlist"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
}

// PlaylistSummary is one row of a user's history.
type PlaylistSummary struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	WorkoutName string    `json:"workout_name" yaml:"workout_name"`
	Tracks      int       `json:"tracks" yaml:"tracks"`
	DurationMs  int       `json:"duration_ms" yaml:"duration_ms"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// SavePlaylist records p for userID. Saving the same playlist ID again
// replaces its tracks.
func (s *Store) SavePlaylist(ctx context.Context, userID string, w types.Workout, p types.Playlist) error {
	if p.ID == "" {
		return fmt.Errorf("saving playlist: empty id")
	}
	workoutYAML, err := yaml.Marshal(&w)
	if err != nil {
		return fmt.Errorf("marshaling workout: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO playlists (id, user_id, name, workout_name, workout, duration_ms, external_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			user_id=excluded.user_id, name=excluded.name, workout_name=excluded.workout_name,
			workout=excluded.workout, duration_ms=excluded.duration_ms, external_url=excluded.external_url`,
		p.ID, userID, p.Name, w.Name, string(workoutYAML), p.DurationMs(), p.ExternalURL,
		s.now().Format(timeFmt),
	)
	if err != nil {
		return fmt.Errorf("upserting playlist: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ?`, p.ID); err != nil {
		return fmt.Errorf("deleting old tracks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO playlist_tracks (playlist_id, position, track_id, name, artist, bpm, energy, duration_ms, source, phase, spotify_uri)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range p.Tracks {
		_, err := stmt.ExecContext(ctx,
			p.ID, i, t.ID, t.Name, t.Artist, t.BPM, t.Energy, t.DurationMs, t.Source, t.Phase, t.SpotifyURI,
		)
		if err != nil {
			return fmt.Errorf("inserting track %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// ListPlaylists returns userID's playlists, newest first.
func (s *Store) ListPlaylists(ctx context.Context, userID string) ([]PlaylistSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.workout_name, p.duration_ms, p.created_at,
			(SELECT count(*) FROM playlist_tracks t WHERE t.playlist_id = p.id)
		 FROM playlists p
		 WHERE p.user_id = ?
		 ORDER BY p.created_at DESC, p.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying playlists: %w", err)
	}
	defer rows.Close()

	var out []PlaylistSummary
	for rows.Next() {
		var ps PlaylistSummary
		var workoutName sql.NullString
		var created string
		if err := rows.Scan(&ps.ID, &ps.Name, &workoutName, &ps.DurationMs, &created, &ps.Tracks); err != nil {
			return nil, fmt.Errorf("scanning playlist: %w", err)
		}
		ps.WorkoutName = workoutName.String
		ps.CreatedAt, _ = time.Parse(timeFmt, created)
		out = append(out, ps)
	}
	return out, rows.Err()
}

// GetPlaylist loads one saved playlist with its tracks in order.
func (s *Store) GetPlaylist(ctx context.Context, id string) (*PlaylistRecord, error) {
	var rec PlaylistRecord
	var workoutYAML, externalURL sql.NullString
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, name, workout, external_url, created_at FROM playlists WHERE id = ?`, id,
	).Scan(&rec.UserID, &rec.Playlist.Name, &workoutYAML, &externalURL, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("playlist %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying playlist %s: %w", id, err)
	}
	rec.Playlist.ID = id
	rec.Playlist.ExternalURL = externalURL.String
	rec.CreatedAt, _ = time.Parse(timeFmt, created)
	if workoutYAML.Valid {
		if err := yaml.Unmarshal([]byte(workoutYAML.String), &rec.Workout); err != nil {
			return nil, fmt.Errorf("parsing stored workout for %s: %w", id, err)
		}
	}

	tracks, err := s.tracks(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Playlist.Tracks = tracks
	return &rec, nil
}

func (s *Store) tracks(ctx context.Context, playlistID string) ([]types.Track, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_id, name, artist, bpm, energy, duration_ms, source, phase, spotify_uri
		 FROM playlist_tracks WHERE playlist_id = ? ORDER BY position`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	var out []types.Track
	for rows.Next() {
		var t types.Track
		var source, phase, uri sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &t.Artist, &t.BPM, &t.Energy, &t.DurationMs, &source, &phase, &uri); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		t.Source = source.String
		t.Phase = phase.String
		t.SpotifyURI = uri.String
		out = append(out, t)
	}
	return out, rows.Err()
}
