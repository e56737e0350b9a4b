package utils

import (
	_ "net/http/pprof"

	"github.com/google/uuid"
)

// GetUUID returns a random v4 uuid; ledger rows use these instead of the
// short ids so they stay unique across exports.
func GetUUID() string {
	return uuid.New().String()
}
