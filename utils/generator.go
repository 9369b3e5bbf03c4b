package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
)

// IDGenerator produces short human-friendly reference codes for appointments
// and orders. Codes are random; uniqueness across restarts is enforced by the
// store's unique index, the in-memory set only avoids repeats within a process.
type IDGenerator struct {
	usedIDs      map[string]bool
	mutex        sync.Mutex
	characterSet []rune
	length       int
	maxTracked   int
}

// NewIDGenerator creates a new instance of IDGenerator
func NewIDGenerator() *IDGenerator {
	// Use only capital letters and numbers for better legibility
	// Omitting easily confused characters: 0, O, 1, I
	characterSet := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")

	return &IDGenerator{
		usedIDs:      make(map[string]bool),
		characterSet: characterSet,
		length:       8,
		maxTracked:   100000,
	}
}

// GenerateID creates a new 8-character code not handed out before by this generator.
func (g *IDGenerator) GenerateID() (string, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if len(g.usedIDs) >= g.maxTracked {
		g.usedIDs = make(map[string]bool)
	}

	// Maximum attempts to avoid infinite loops
	maxAttempts := 100
	for attempts := 0; attempts < maxAttempts; attempts++ {
		id, err := g.generateRandomID(g.length)
		if err != nil {
			return "", err
		}

		if !g.usedIDs[id] {
			g.usedIDs[id] = true
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique ID after %d attempts", maxAttempts)
}

// generateRandomID creates a random ID of specified length
func (g *IDGenerator) generateRandomID(length int) (string, error) {
	result := make([]rune, length)
	charSetLength := big.NewInt(int64(len(g.characterSet)))

	for i := 0; i < length; i++ {
		randomIndex, err := rand.Int(rand.Reader, charSetLength)
		if err != nil {
			return "", err
		}
		result[i] = g.characterSet[randomIndex.Int64()]
	}

	return string(result), nil
}
