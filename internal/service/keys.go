package service

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateKey returns a fresh random license key such as
// "7F3A9C2E-0B1D-4E5F-8A6B-1C2D3E4F5A6B".
func GenerateKey() string {
	return strings.ToUpper(uuid.NewString())
}
