package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/catalog"
	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/store"
)

// PostgresCatalogStore implements the catalog.Service interface using a
// PostgreSQL database as the storage backend. The curriculum tree is walked
// with a recursive CTE ordered by the sibling-position path, which yields
// depth-first order.
type PostgresCatalogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCatalogStore creates a new PostgreSQL implementation of the
// catalog.Service interface. If logger is nil, the default logger is used.
func NewPostgresCatalogStore(db store.DBTX, logger *slog.Logger) *PostgresCatalogStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCatalogStore{
		db:     db,
		logger: logger.With(slog.String("component", "catalog_store")),
	}
}

// Ensure PostgresCatalogStore implements catalog.Service
var _ catalog.Service = (*PostgresCatalogStore)(nil)

const catalogTreeCTE = `
	WITH RECURSIVE tree AS (
		SELECT id, subject_id, stream_id, parent_id, kind, title, position,
			created_at, ARRAY[position] AS path
		FROM curriculum_nodes
		WHERE subject_id = $1 AND stream_id = $2 AND parent_id IS NULL
		UNION ALL
		SELECT cn.id, cn.subject_id, cn.stream_id, cn.parent_id, cn.kind,
			cn.title, cn.position, cn.created_at, tree.path || cn.position
		FROM curriculum_nodes cn
		JOIN tree ON cn.parent_id = tree.id
	)`

// SubjectTree implements catalog.Service.SubjectTree
func (s *PostgresCatalogStore) SubjectTree(ctx context.Context, subjectID, streamID uuid.UUID) ([]catalog.Node, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := catalogTreeCTE + `
		SELECT id, subject_id, stream_id, parent_id, kind, title, position, created_at
		FROM tree
		ORDER BY path
	`
	rows, err := s.db.QueryContext(ctx, query, subjectID, streamID)
	if err != nil {
		log.Error("failed to query curriculum tree",
			slog.String("error", err.Error()),
			slog.String("subject_id", subjectID.String()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	nodes := []catalog.Node{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			log.Error("failed to scan node row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return nodes, nil
}

// NextUncompleted implements catalog.Service.NextUncompleted
// Only leaf (topic) nodes are schedulable; nodes whose four phases are all
// complete are skipped. The suggested session type comes from the first
// incomplete phase of each node's progress.
func (s *PostgresCatalogStore) NextUncompleted(
	ctx context.Context,
	userID, subjectID, streamID uuid.UUID,
	limit int,
) ([]catalog.StudyUnit, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 10
	}

	query := catalogTreeCTE + `
		SELECT t.id, t.subject_id, t.stream_id, t.parent_id, t.kind, t.title,
			t.position, t.created_at,
			cp.understanding, cp.review, cp.theory_practice, cp.exercise_practice
		FROM tree t
		LEFT JOIN content_progress cp
			ON cp.node_id = t.id AND cp.user_id = $3
		WHERE t.kind = 'topic'
			AND (cp.user_id IS NULL
				OR NOT (cp.understanding AND cp.review
					AND cp.theory_practice AND cp.exercise_practice))
		ORDER BY t.path
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query, subjectID, streamID, userID, limit)
	if err != nil {
		log.Error("failed to query next study units",
			slog.String("error", err.Error()),
			slog.String("subject_id", subjectID.String()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	units := []catalog.StudyUnit{}
	for rows.Next() {
		var node catalog.Node
		var parentID uuid.NullUUID
		var kind string
		var understanding, review, theory, exercise sql.NullBool

		err := rows.Scan(
			&node.ID,
			&node.SubjectID,
			&node.StreamID,
			&parentID,
			&kind,
			&node.Title,
			&node.Position,
			&node.CreatedAt,
			&understanding,
			&review,
			&theory,
			&exercise,
		)
		if err != nil {
			log.Error("failed to scan study unit row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}

		node.ParentID = parentID.UUID
		node.Kind = catalog.NodeKind(kind)

		var progress *domain.ContentProgress
		if understanding.Valid {
			progress = &domain.ContentProgress{
				UserID:           userID,
				NodeID:           node.ID,
				Understanding:    understanding.Bool,
				Review:           review.Bool,
				TheoryPractice:   theory.Bool,
				ExercisePractice: exercise.Bool,
			}
		}

		units = append(units, catalog.StudyUnit{
			Node:          node,
			SuggestedType: catalog.SuggestedTypeFor(progress),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("resolved next study units",
		slog.String("subject_id", subjectID.String()),
		slog.Int("count", len(units)))
	return units, nil
}

func scanNode(row rowScanner) (catalog.Node, error) {
	var node catalog.Node
	var parentID uuid.NullUUID
	var kind string

	err := row.Scan(
		&node.ID,
		&node.SubjectID,
		&node.StreamID,
		&parentID,
		&kind,
		&node.Title,
		&node.Position,
		&node.CreatedAt,
	)
	if err != nil {
		return catalog.Node{}, err
	}
	node.ParentID = parentID.UUID
	node.Kind = catalog.NodeKind(kind)
	return node, nil
}
