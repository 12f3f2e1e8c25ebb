package models

import (
	"fmt"
	"strings"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// NewID génère un identifiant aléatoire (UUID v4) compatible ScyllaDB
func NewID() gocql.UUID {
	return gocql.UUID(uuid.New())
}

// ParseID convertit un identifiant texte en gocql.UUID
func ParseID(s string) (gocql.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return gocql.UUID{}, fmt.Errorf("identifiant invalide %q: %w", s, err)
	}
	return gocql.UUID(id), nil
}

func IsZeroID(id gocql.UUID) bool {
	return id == gocql.UUID{}
}
