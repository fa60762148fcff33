package auth

import "strings"

// Credentials are the login details generated for a new tenant. The
// plaintext password is shown once to management and only its bcrypt hash
// is stored.
type Credentials struct {
	Username string
	Password string
}

// DeriveCredentials builds tenant credentials from the room number and the
// building code: "<room>@<code>" and "pass@<room>@<code>", lowercased.
func DeriveCredentials(roomNumber, buildingCode string) Credentials {
	room := strings.TrimSpace(roomNumber)
	code := strings.TrimSpace(buildingCode)
	return Credentials{
		Username: strings.ToLower(room + "@" + code),
		Password: strings.ToLower("pass@" + room + "@" + code),
	}
}

// NormalizeUsername lowercases and trims a submitted username so that
// lookups match derived usernames.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
