// Package history provides the undo/redo command stack for feature edits.
//
// Commands capture before/after feature snapshots; pushing a command
// executes it immediately and clears the redo list. The edit session
// constructs and pushes commands but never calls Undo/Redo itself.
package history

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/geoedit/internal/feature"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Command is an atomic, reversible edit applied through the feature store.
type Command interface {
	// Execute applies the command and returns an error if it fails.
	Execute(store *feature.Store) error

	// Undo reverses the command and returns an error if it fails.
	Undo(store *feature.Store) error

	// Description returns a human-readable description of the command.
	Description() string
}

// OperationInfo describes one stack entry.
type OperationInfo struct {
	Description string
	Timestamp   time.Time
}

// undoEntry wraps a command with metadata.
type undoEntry struct {
	command   Command
	timestamp time.Time
}

// Stack manages undo/redo state over one feature store.
type Stack struct {
	mu sync.Mutex

	store *feature.Store

	undoStack []*undoEntry
	redoStack []*undoEntry

	maxEntries int
}

// NewStack creates a stack writing through the given store.
func NewStack(store *feature.Store, maxEntries int) *Stack {
	if maxEntries <= 0 {
		maxEntries = 1000 // Default
	}
	return &Stack{
		store:      store,
		maxEntries: maxEntries,
	}
}

// Push executes a command and adds it to the undo stack, clearing the
// redo stack. A failed execution leaves the stack unchanged.
func (s *Stack) Push(cmd Command) error {
	if err := cmd.Execute(s.store); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.undoStack = append(s.undoStack, &undoEntry{
		command:   cmd,
		timestamp: time.Now(),
	})
	s.redoStack = nil

	if len(s.undoStack) > s.maxEntries {
		excess := len(s.undoStack) - s.maxEntries
		s.undoStack = s.undoStack[excess:]
	}
	return nil
}

// Undo reverses the last command.
func (s *Stack) Undo() error {
	s.mu.Lock()
	if len(s.undoStack) == 0 {
		s.mu.Unlock()
		return ErrNothingToUndo
	}
	entry := s.undoStack[len(s.undoStack)-1]
	s.undoStack = s.undoStack[:len(s.undoStack)-1]
	s.mu.Unlock()

	if err := entry.command.Undo(s.store); err != nil {
		// Restore entry on failure
		s.mu.Lock()
		s.undoStack = append(s.undoStack, entry)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.redoStack = append(s.redoStack, entry)
	s.mu.Unlock()
	return nil
}

// Redo re-applies the last undone command.
func (s *Stack) Redo() error {
	s.mu.Lock()
	if len(s.redoStack) == 0 {
		s.mu.Unlock()
		return ErrNothingToRedo
	}
	entry := s.redoStack[len(s.redoStack)-1]
	s.redoStack = s.redoStack[:len(s.redoStack)-1]
	s.mu.Unlock()

	if err := entry.command.Execute(s.store); err != nil {
		// Restore entry on failure
		s.mu.Lock()
		s.redoStack = append(s.redoStack, entry)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.undoStack = append(s.undoStack, entry)
	s.mu.Unlock()
	return nil
}

// CanUndo returns true if undo is available.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack) > 0
}

// UndoCount returns the number of undo operations available.
func (s *Stack) UndoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack)
}

// RedoCount returns the number of redo operations available.
func (s *Stack) RedoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack)
}

// PeekUndo returns info about the next undo operation without removing it.
func (s *Stack) PeekUndo() (OperationInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undoStack) == 0 {
		return OperationInfo{}, false
	}
	entry := s.undoStack[len(s.undoStack)-1]
	return OperationInfo{
		Description: entry.command.Description(),
		Timestamp:   entry.timestamp,
	}, true
}

// Clear removes all undo/redo history.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undoStack = nil
	s.redoStack = nil
}
