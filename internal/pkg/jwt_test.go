package pkg

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestTokenRoundTrip(t *testing.T) {
	c := qt.New(t)
	m := NewTokenManager("0123456789abcdef", time.Hour)

	tok, err := m.Generate("user-1", "admin")
	c.Assert(err, qt.IsNil)

	claims, err := m.Parse(tok)
	c.Assert(err, qt.IsNil)
	c.Assert(claims.UserID, qt.Equals, "user-1")
	c.Assert(claims.Role, qt.Equals, "admin")
	c.Assert(claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time), qt.Equals, time.Hour)
}

func TestTokenDefaultTTL(t *testing.T) {
	c := qt.New(t)
	m := NewTokenManager("0123456789abcdef", 0)

	tok, err := m.Generate("user-1", "")
	c.Assert(err, qt.IsNil)
	claims, err := m.Parse(tok)
	c.Assert(err, qt.IsNil)
	c.Assert(claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time), qt.Equals, DefaultTokenTTL)
}

func TestTokenExpired(t *testing.T) {
	c := qt.New(t)
	m := NewTokenManager("0123456789abcdef", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }
	tok, err := m.Generate("user-1", "")
	c.Assert(err, qt.IsNil)

	m.now = time.Now
	_, err = m.Parse(tok)
	c.Assert(err, qt.Equals, ErrTokenExpired)
}

func TestTokenWrongSecret(t *testing.T) {
	c := qt.New(t)
	tok, err := NewTokenManager("0123456789abcdef", time.Hour).Generate("user-1", "")
	c.Assert(err, qt.IsNil)

	_, err = NewTokenManager("fedcba9876543210", time.Hour).Parse(tok)
	c.Assert(err, qt.Equals, ErrTokenInvalid)
}

func TestTokenGarbage(t *testing.T) {
	c := qt.New(t)
	_, err := NewTokenManager("0123456789abcdef", time.Hour).Parse("not-a-token")
	c.Assert(err, qt.Equals, ErrTokenParseFailure)
}

func TestTokenMissingUserID(t *testing.T) {
	c := qt.New(t)
	m := NewTokenManager("0123456789abcdef", time.Hour)
	tok, err := m.Generate("", "")
	c.Assert(err, qt.IsNil)
	_, err = m.Parse(tok)
	c.Assert(err, qt.Equals, ErrTokenInvalid)
}
