package repository

import "time"

// Attempt is one submitted PIN and its outcome. The PIN itself is never stored.
type Attempt struct {
	ID        string
	Account   string
	PINLength int
	Success   bool
	Reason    string
	CreatedAt time.Time
}
