package domain

// Character is the static persona metadata used to build the system
// instruction. Read-only from the session's perspective.
type Character struct {
	CharacterID       string
	Language          string
	Description       string
	PublicDescription string
	Ord               int
}
