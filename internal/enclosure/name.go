package enclosure

import (
	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
)

// generateName produces a unique, human-memorable enclosure name: two
// random words plus a short suffix, the Go-ecosystem analogue of a
// haikunator-style name.
func generateName() string {
	words := petname.Generate(2, "-")
	suffix := uuid.New().String()[:8]
	return words + "-" + suffix
}
