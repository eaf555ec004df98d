package seeder

import (
	"time"

	"github.com/google/uuid"
)

// Defaults seeds the demo board for sessionID.
func Defaults(sessionID uuid.UUID, now time.Time, force bool) []Seeder {
	return []Seeder{
		DemoBoardSeeder{SessionID: sessionID, Now: now, Force: force},
	}
}
