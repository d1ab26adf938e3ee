package domain

import "time"

// ChangeEvent is a coalesced batch of source file modifications.
type ChangeEvent struct {
	Paths []string
	At    time.Time
}

func (e ChangeEvent) IsEmpty() bool {
	return len(e.Paths) == 0
}
