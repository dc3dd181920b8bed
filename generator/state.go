package generator

import (
	"github.com/syssam/seedql/schema"
	"github.com/syssam/seedql/statements"
)

// generationState is the write state of one entity instance.
type generationState int

const (
	// statePending marks an entity that was referenced but not written
	// yet. The state carries the deferred actions to run once the entity
	// is written.
	statePending generationState = iota
	// statePersisted marks an entity whose row exists in the database.
	// The state is monotone: once persisted, an entity never becomes
	// pending again.
	statePersisted
)

// pendingAction is one deferred statement, queued until the entity it
// depends on is written.
type pendingAction struct {
	// record to update once the awaited entity is written.
	record *schema.Record
	// property that produces the statement.
	property PendingProperty
	// args carry property specific details, e.g. the element index of a
	// deferred join table row.
	args []any
}

// entityState tracks one entity instance in a descriptor's state map.
type entityState struct {
	state   generationState
	pending []pendingAction
}

// flush runs the queued actions in FIFO order. written is the entity whose
// persistence unblocked the queue.
func (s *entityState) flush(w statements.Writer, written *schema.Record) error {
	for _, a := range s.pending {
		if err := a.property.WritePendingStatement(w, written, a.record, a.args); err != nil {
			return err
		}
	}
	s.pending = nil
	return nil
}
