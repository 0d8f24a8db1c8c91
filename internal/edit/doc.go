// Package edit turns continuous drag input into single, atomic, undoable
// geometry changes.
//
// A Session is a small state machine (idle -> vertex drag | translate
// drag -> idle) holding at most one open transaction. During a drag it
// writes live previews into the feature store; on release it validates
// the result and either pushes exactly one undoable command or rolls the
// store back to the pre-drag snapshot and reports the rejection reason.
// Vertex insertion and deletion are one-shot transactions with the same
// commit-or-reject semantics.
package edit
