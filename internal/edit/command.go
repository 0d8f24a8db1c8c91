package edit

import (
	"github.com/dshills/geoedit/internal/feature"
)

// featureEditCommand captures before/after snapshots of one feature.
// Execute re-asserts the after state (idempotent when it is already
// live); Undo restores the before state. Both write through the store's
// committed upsert so derived structures rebuild.
type featureEditCommand struct {
	before *feature.Feature
	after  *feature.Feature
	desc   string
}

func newEditCommand(before, after *feature.Feature, desc string) *featureEditCommand {
	return &featureEditCommand{
		before: before.Clone(),
		after:  after.Clone(),
		desc:   desc,
	}
}

// Execute writes the after snapshot.
func (c *featureEditCommand) Execute(s *feature.Store) error {
	return s.Upsert(c.after)
}

// Undo writes the before snapshot.
func (c *featureEditCommand) Undo(s *feature.Store) error {
	return s.Upsert(c.before)
}

// Description returns a human-readable description of the edit.
func (c *featureEditCommand) Description() string {
	return c.desc
}
