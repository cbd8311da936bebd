// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identity verifies opaque user IDs signed by a trusted front end
// with a shared secret. It does not authenticate users.
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrBadSignature is returned when a signature does not match the user ID.
	ErrBadSignature = errors.New("invalid user signature")

	// ErrNoSecret is returned when no shared secret is configured.
	ErrNoSecret = errors.New("shared secret not configured")
)

// Sign returns the hex-encoded HMAC-SHA256 of userID under secret.
func Sign(secret, userID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks sig against userID in constant time.
func Verify(secret, userID, sig string) error {
	if secret == "" {
		return ErrNoSecret
	}
	want, _ := hex.DecodeString(Sign(secret, userID))
	got, err := hex.DecodeString(strings.TrimSpace(sig))
	if err != nil || !hmac.Equal(got, want) {
		return ErrBadSignature
	}
	return nil
}

// Trusted returns userID when its signature verifies and "" otherwise,
// writing a warning to w for every rejected ID. An empty userID is
// returned as is without a warning.
func Trusted(secret, userID, sig string, w io.Writer) string {
	if userID == "" {
		return ""
	}
	if err := Verify(secret, userID, sig); err != nil {
		fmt.Fprintf(w, "warning: user id ignored: %v\n", err)
		return ""
	}
	return userID
}
