// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pdiddy/wodmix/pkg/types"
)

// Ratings a user can give a track.
const (
	ThumbsUp   = 1
	ThumbsDown = -1
)

// ErrInvalidRating is returned for ratings other than ThumbsUp or ThumbsDown.
var ErrInvalidRating = errors.New("rating must be +1 or -1")

// Feedback is one user's rating of a track in a saved playlist. A later
// rating of the same track by the same user replaces the earlier one.
type Feedback struct {
	UserID     string `json:"user_id" yaml:"user_id"`
	PlaylistID string `json:"playlist_id" yaml:"playlist_id"`
	TrackID    string `json:"track_id" yaml:"track_id"`

	// Artist is filled from the saved playlist when empty.
	Artist string `json:"artist,omitempty" yaml:"artist,omitempty"`
	Rating int    `json:"rating" yaml:"rating"`
}

// RecordFeedback stores f. The track must belong to the named playlist.
func (s *Store) RecordFeedback(ctx context.Context, f Feedback) error {
	if f.Rating != ThumbsUp && f.Rating != ThumbsDown {
		return fmt.Errorf("%w, got %d", ErrInvalidRating, f.Rating)
	}
	if f.UserID == "" {
		return fmt.Errorf("recording feedback: empty user id")
	}

	var artist string
	err := s.db.QueryRowContext(ctx,
		`SELECT artist FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?`,
		f.PlaylistID, f.TrackID,
	).Scan(&artist)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("track %s in playlist %s: %w", f.TrackID, f.PlaylistID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("looking up track: %w", err)
	}
	if f.Artist == "" {
		f.Artist = artist
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, user_id, playlist_id, track_id, artist, rating, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, track_id) DO UPDATE SET
			playlist_id=excluded.playlist_id, artist=excluded.artist,
			rating=excluded.rating, created_at=excluded.created_at`,
		uuid.NewString(), f.UserID, f.PlaylistID, f.TrackID, f.Artist, f.Rating,
		s.now().Format(timeFmt),
	)
	if err != nil {
		return fmt.Errorf("upserting feedback: %w", err)
	}
	return nil
}

// Preferences derives the feedback-driven preference sets for userID:
// artists whose ratings sum above zero are boosted, and tracks rated
// down are hidden.
func (s *Store) Preferences(ctx context.Context, userID string) (boost, hidden types.StringSet, err error) {
	boost = types.NewStringSet()
	hidden = types.NewStringSet()

	rows, err := s.db.QueryContext(ctx,
		`SELECT artist FROM feedback WHERE user_id = ?
		 GROUP BY artist HAVING sum(rating) > 0`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying boosted artists: %w", err)
	}
	if err := scanInto(rows, boost); err != nil {
		return nil, nil, fmt.Errorf("scanning boosted artists: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT track_id FROM feedback WHERE user_id = ? AND rating < 0`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying hidden tracks: %w", err)
	}
	if err := scanInto(rows, hidden); err != nil {
		return nil, nil, fmt.Errorf("scanning hidden tracks: %w", err)
	}
	return boost, hidden, nil
}

func scanInto(rows *sql.Rows, set types.StringSet) error {
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return err
		}
		set.Add(v)
	}
	return rows.Err()
}

// ratings returns userID's current rating per track ID.
func (s *Store) ratings(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_id, rating FROM feedback WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying ratings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var r int
		if err := rows.Scan(&id, &r); err != nil {
			return nil, fmt.Errorf("scanning rating: %w", err)
		}
		out[id] = r
	}
	return out, rows.Err()
}
