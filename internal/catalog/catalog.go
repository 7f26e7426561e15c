// Package catalog exposes the curriculum tree that session content is
// drawn from. Nodes form a hierarchy (unit > chapter > topic) scoped to
// a subject within an academic stream.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
)

// NodeKind identifies the level of a curriculum node in the tree.
type NodeKind string

const (
	NodeKindUnit    NodeKind = "unit"
	NodeKindChapter NodeKind = "chapter"
	NodeKindTopic   NodeKind = "topic"
)

// ErrNodeNotFound indicates the requested curriculum node does not exist.
var ErrNodeNotFound = errors.New("curriculum node not found")

// Node is a single entry in the curriculum tree. ParentID is uuid.Nil
// for root-level units. Position orders siblings under the same parent.
type Node struct {
	ID        uuid.UUID
	SubjectID uuid.UUID
	StreamID  uuid.UUID
	ParentID  uuid.UUID
	Kind      NodeKind
	Title     string
	Position  int
	CreatedAt time.Time
}

// IsLeaf reports whether the node can carry study sessions directly.
func (n Node) IsLeaf() bool {
	return n.Kind == NodeKindTopic
}

// StudyUnit is a schedulable piece of curriculum: a leaf node paired
// with the session type the learner should tackle next, derived from
// their phase progress on that node.
type StudyUnit struct {
	Node          Node
	SuggestedType domain.SessionType
}

// Service reads the curriculum tree and computes what a learner should
// study next for a subject.
type Service interface {
	// SubjectTree returns every node for a subject within a stream,
	// ordered depth-first by position.
	SubjectTree(ctx context.Context, subjectID, streamID uuid.UUID) ([]Node, error)

	// NextUncompleted returns up to limit study units for the user in
	// hierarchical order, skipping nodes whose phases are all complete.
	// An empty slice means the subject has no remaining content.
	NextUncompleted(ctx context.Context, userID, subjectID, streamID uuid.UUID, limit int) ([]StudyUnit, error)
}

// SuggestedTypeFor derives the next session type for a node from its
// phase progress. Phases are worked in a fixed order: understand the
// lesson, review it, practice the theory, then practice exercises. A
// node with all phases done falls back to spaced review.
func SuggestedTypeFor(progress *domain.ContentProgress) domain.SessionType {
	if progress == nil {
		return domain.SessionTypeLessonReview
	}
	switch {
	case !progress.Understanding:
		return domain.SessionTypeLessonReview
	case !progress.Review:
		return domain.SessionTypeSpacedReview
	case !progress.TheoryPractice:
		return domain.SessionTypeTopicTest
	case !progress.ExercisePractice:
		return domain.SessionTypeExercises
	default:
		return domain.SessionTypeSpacedReview
	}
}
