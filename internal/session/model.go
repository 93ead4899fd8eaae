// Package session holds the server-side session records that back the
// identity cookie. A cookie is only trusted while its session row is open
// and unexpired, which is what makes server-side revocation possible.
package session

import "time"

// Session is one login's server-side record.
//
// LoginTime and ExpirationTime are fixed at creation; the expiration horizon
// is never extended (no sliding renewal). LogoutTime is the only field ever
// mutated, set exactly once when the user logs out.
type Session struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	LoginTime      time.Time  `json:"loginTime"`
	ExpirationTime time.Time  `json:"expirationTime"`
	LogoutTime     *time.Time `json:"logoutTime,omitempty"`
	IPAddress      string     `json:"ipAddress,omitempty"`
	UserAgent      string     `json:"userAgent,omitempty"`
}

// Active reports whether the session is open and unexpired at the given
// instant.
func (s *Session) Active(now time.Time) bool {
	return s.LogoutTime == nil && now.Before(s.ExpirationTime)
}
