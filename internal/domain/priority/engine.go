// Package priority computes weighted priority scores for a user's subjects
// from coefficient, exam proximity, difficulty, inactivity and performance
// gap signals.
package priority

import (
	"sort"
	"time"

	"github.com/bacready/bacready-api/internal/domain"
)

// Service defines the interface for priority calculation.
type Service interface {
	// Rank scores every subject and returns a new slice ordered by priority,
	// highest first. The input slice is not modified. Recalculation is
	// explicit: callers invoke Rank after goal or preference changes, the
	// session generator only consumes the persisted result.
	Rank(
		subjects []domain.SubjectPriority,
		weights domain.PriorityWeights,
		now time.Time,
	) []domain.SubjectPriority
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct{}

// NewService creates the default priority service.
func NewService() Service {
	return &defaultService{}
}

// Rank implements the Service interface.
func (s *defaultService) Rank(
	subjects []domain.SubjectPriority,
	weights domain.PriorityWeights,
	now time.Time,
) []domain.SubjectPriority {
	ranked := make([]domain.SubjectPriority, len(subjects))
	copy(ranked, subjects)

	for i := range ranked {
		ranked[i].PriorityScore = score(ranked[i], weights, now)
	}

	// Ties break on the catalog order field, then the subject ID, so the
	// ranking is deterministic regardless of input order.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].PriorityScore != ranked[j].PriorityScore {
			return ranked[i].PriorityScore > ranked[j].PriorityScore
		}
		if ranked[i].Order != ranked[j].Order {
			return ranked[i].Order < ranked[j].Order
		}
		return ranked[i].SubjectID.String() < ranked[j].SubjectID.String()
	})

	return ranked
}
