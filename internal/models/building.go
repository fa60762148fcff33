package models

import "strings"

// Building represents a managed property.
type Building struct {
	// ID is the unique identifier for the building (UUID format).
	ID string

	// Name is the display name (e.g., "Berry Spa Towers").
	Name string

	// Code is the short code derived from Name, used in tenant usernames.
	Code string

	// Address and Description are optional free text.
	Address     string
	Description string

	// CreatedAt is the Unix timestamp when the building was created.
	CreatedAt int64
}

// BuildingCode derives a building code from its name: the first letter of
// every whitespace-separated word, lowercased. "Berry Spa Towers" -> "bst".
func BuildingCode(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r := []rune(word)
		b.WriteRune(r[0])
	}
	return strings.ToLower(b.String())
}
