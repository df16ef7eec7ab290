package novelty

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/vigiajus/vigiajus/pkg/types/process"
)

// HashMovement computes the stable dedup key for a movement: SHA-256 over
// date, title, description, and the judicial flag, field-separated so
// adjacent fields cannot collide by concatenation.
func HashMovement(m process.Movement) string {
	h := sha256.New()
	h.Write([]byte(m.Date.UTC().Format("2006-01-02T15:04:05")))
	h.Write([]byte{0})
	h.Write([]byte(m.Title))
	h.Write([]byte{0})
	h.Write([]byte(m.Description))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(m.IsJudicial)))
	return hex.EncodeToString(h.Sum(nil))
}

// HashMovements computes a hash over a whole movement list, used as the
// query result content hash when the source does not provide one.
func HashMovements(movements []process.Movement) string {
	h := sha256.New()
	for _, m := range movements {
		h.Write([]byte(HashMovement(m)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
