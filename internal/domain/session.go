package domain

import "time"

const DefaultSessionTimeout = 24 * time.Hour

// Session is the persisted authentication record. The zero value is the
// anonymous state.
type Session struct {
	Authenticated bool
	User          *User
	SessionStart  time.Time
	LastActivity  time.Time
}

func NewSession(user User, now time.Time) Session {
	return Session{
		Authenticated: true,
		User:          &user,
		SessionStart:  now,
		LastActivity:  now,
	}
}

// Expired reports whether the session reached its timeout. A session is
// expired from SessionStart+timeout onwards.
func (s Session) Expired(now time.Time, timeout time.Duration) bool {
	if !s.Authenticated {
		return false
	}
	if timeout <= 0 {
		return false
	}
	return !now.Before(s.SessionStart.Add(timeout))
}

func (s Session) Active(now time.Time, timeout time.Duration) bool {
	return s.Authenticated && s.User != nil && !s.Expired(now, timeout)
}

// BonusDay formats the calendar date used by the daily bonus marker.
func BonusDay(now time.Time) string {
	return now.Format(time.DateOnly)
}
