package pkg

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// GenerateGameID - generates a short numeric identifier for a game room.
func GenerateGameID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(99999999))
	if err != nil {
		return ""
	}
	return n.String()
}

// GeneratePlayerID - generates a unique identifier for a player.
func GeneratePlayerID() string {
	return uuid.NewString()
}
