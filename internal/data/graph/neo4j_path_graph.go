package graph

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/platform/neo4jdb"
)

// SyncPath mirrors a roadmap and its prerequisite edges into neo4j. The
// mirror is best-effort: a nil client is a no-op and callers log failures
// without failing the write that triggered the sync.
func SyncPath(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, path *types.LearningPath, nodes []*types.PathNode) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if path == nil || path.ID == uuid.Nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	nodeRows := make([]map[string]any, 0, len(nodes))
	edgeRows := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		if n == nil || n.ID == uuid.Nil {
			continue
		}
		nodeRows = append(nodeRows, map[string]any{
			"id":        n.ID.String(),
			"path_id":   path.ID.String(),
			"title":     n.Title,
			"subtopic":  n.Subtopic,
			"position":  int64(n.Position),
			"status":    n.Status,
			"synced_at": now,
		})
		for _, prereqID := range DecodePrereqIDs(n.PrereqIDs) {
			edgeRows = append(edgeRows, map[string]any{
				"node_id":   n.ID.String(),
				"prereq_id": prereqID.String(),
			})
		}
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Best-effort schema init.
	if res, err := session.Run(ctx, `CREATE CONSTRAINT path_node_id_unique IF NOT EXISTS FOR (n:PathNode) REQUIRE n.id IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if res, err := tx.Run(ctx, `
MERGE (p:Path {id: $path_id})
SET p.title = $title,
    p.subject = $subject,
    p.owner_user_id = $owner_user_id,
    p.synced_at = $synced_at
`, map[string]any{
			"path_id":       path.ID.String(),
			"title":         path.Title,
			"subject":       path.Subject,
			"owner_user_id": path.OwnerUserID.String(),
			"synced_at":     now,
		}); err != nil {
			return nil, err
		} else if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(nodeRows) == 0 {
			return nil, nil
		}

		if res, err := tx.Run(ctx, `
UNWIND $rows AS r
MERGE (n:PathNode {id: r.id})
SET n.path_id = r.path_id,
    n.title = r.title,
    n.subtopic = r.subtopic,
    n.position = r.position,
    n.status = r.status,
    n.synced_at = r.synced_at
WITH n, r
MATCH (p:Path {id: r.path_id})
MERGE (n)-[:IN_PATH]->(p)
`, map[string]any{"rows": nodeRows}); err != nil {
			return nil, err
		} else if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(edgeRows) == 0 {
			return nil, nil
		}

		res, err := tx.Run(ctx, `
UNWIND $rows AS r
MATCH (n:PathNode {id: r.node_id})
MATCH (m:PathNode {id: r.prereq_id})
MERGE (n)-[:REQUIRES]->(m)
`, map[string]any{"rows": edgeRows})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// SetNodeStatus updates the mirrored status of one node.
func SetNodeStatus(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, nodeID uuid.UUID, status string) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if nodeID == uuid.Nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:PathNode {id: $id})
SET n.status = $status, n.synced_at = $synced_at
`, map[string]any{
			"id":        nodeID.String(),
			"status":    status,
			"synced_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// UnlockableNodeIDs returns the locked nodes of a path whose prerequisites
// are all completed, i.e. the nodes the roadmap service should now flip to
// available.
func UnlockableNodeIDs(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, pathID uuid.UUID) ([]uuid.UUID, error) {
	if client == nil || client.Driver == nil {
		return nil, nil
	}
	if pathID == uuid.Nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:PathNode {path_id: $path_id})
WHERE n.status = $locked
  AND NOT EXISTS {
    MATCH (n)-[:REQUIRES]->(m:PathNode)
    WHERE m.status <> $completed
  }
RETURN n.id AS id
ORDER BY n.position
`, map[string]any{
			"path_id":   pathID.String(),
			"locked":    types.PathNodeStatusLocked,
			"completed": types.PathNodeStatusCompleted,
		})
		if err != nil {
			return nil, err
		}
		var ids []uuid.UUID
		for res.Next(ctx) {
			raw, ok := res.Record().Get("id")
			if !ok {
				continue
			}
			s, ok := raw.(string)
			if !ok {
				continue
			}
			id, err := uuid.Parse(s)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	ids, _ := rows.([]uuid.UUID)
	return ids, nil
}

// DeletePath removes a mirrored path and its nodes.
func DeletePath(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, pathID uuid.UUID) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if pathID == uuid.Nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:PathNode {path_id: $path_id})
DETACH DELETE n
WITH count(*) AS _
MATCH (p:Path {id: $path_id})
DETACH DELETE p
`, map[string]any{"path_id": pathID.String()})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// DecodePrereqIDs parses the jsonb prerequisite id array stored on a path
// node. Malformed payloads and unparseable ids are dropped rather than
// surfaced; the column is advisory metadata, not referential state.
func DecodePrereqIDs(raw []byte) []uuid.UUID {
	if len(raw) == 0 {
		return nil
	}
	var strs []string
	if err := json.Unmarshal(raw, &strs); err != nil {
		return nil
	}
	out := make([]uuid.UUID, 0, len(strs))
	for _, s := range strs {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}
