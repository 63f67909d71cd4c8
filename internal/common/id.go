package common

import (
	"github.com/google/uuid"
)

// NewResolutionID generates a unique ID for a recorded ownership resolution.
// Format: res_<uuid>
func NewResolutionID() string {
	return "res_" + uuid.New().String()
}
