package graph

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/platform/neo4jdb"
)

// PrereqOrder returns the nodes of a path in dependency order: every node
// sorts after all of its prerequisites, ties broken by position. When the
// neo4j mirror is available the order comes from the graph; otherwise (or on
// any mirror error) it falls back to a local topological sort over the jsonb
// prereq ids. The result is always a permutation of the input.
func PrereqOrder(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, pathID uuid.UUID, nodes []*types.PathNode) []*types.PathNode {
	if len(nodes) == 0 {
		return nodes
	}
	if client == nil || client.Driver == nil {
		return TopoOrder(nodes)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ids, err := mirroredOrder(ctx, client, pathID)
	if err != nil {
		if log != nil {
			log.Warn("neo4j prereq order failed, using local sort", "pathID", pathID, "error", err)
		}
		return TopoOrder(nodes)
	}

	rank := make(map[uuid.UUID]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}
	out := make([]*types.PathNode, len(nodes))
	copy(out, nodes)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iKnown := rank[out[i].ID]
		rj, jKnown := rank[out[j].ID]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return out[i].Position < out[j].Position
		}
	})
	return out
}

// TopoOrder is the SQL-side dependency sort: Kahn's algorithm over the
// prereq id arrays, position as the tiebreak so sibling nodes keep their
// authored order. Nodes caught in a prereq cycle (bad data) are appended at
// the end in position order instead of being dropped.
func TopoOrder(nodes []*types.PathNode) []*types.PathNode {
	if len(nodes) <= 1 {
		return nodes
	}

	byID := make(map[uuid.UUID]*types.PathNode, len(nodes))
	for _, n := range nodes {
		if n != nil {
			byID[n.ID] = n
		}
	}

	indegree := make(map[uuid.UUID]int, len(nodes))
	dependents := make(map[uuid.UUID][]uuid.UUID, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if _, ok := indegree[n.ID]; !ok {
			indegree[n.ID] = 0
		}
		for _, prereqID := range DecodePrereqIDs(n.PrereqIDs) {
			// Ids pointing outside the path do not gate anything.
			if _, ok := byID[prereqID]; !ok {
				continue
			}
			indegree[n.ID]++
			dependents[prereqID] = append(dependents[prereqID], n.ID)
		}
	}

	var ready []*types.PathNode
	for _, n := range nodes {
		if n != nil && indegree[n.ID] == 0 {
			ready = append(ready, n)
		}
	}
	sortByPosition(ready)

	out := make([]*types.PathNode, 0, len(nodes))
	seen := make(map[uuid.UUID]bool, len(nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		out = append(out, n)
		seen[n.ID] = true

		var unlocked []*types.PathNode
		for _, depID := range dependents[n.ID] {
			indegree[depID]--
			if indegree[depID] == 0 {
				unlocked = append(unlocked, byID[depID])
			}
		}
		sortByPosition(unlocked)
		ready = append(ready, unlocked...)
	}

	if len(out) < len(nodes) {
		var cyclic []*types.PathNode
		for _, n := range nodes {
			if n != nil && !seen[n.ID] {
				cyclic = append(cyclic, n)
			}
		}
		sortByPosition(cyclic)
		out = append(out, cyclic...)
	}
	return out
}

func sortByPosition(nodes []*types.PathNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Position < nodes[j].Position
	})
}

// mirroredOrder asks neo4j for the path's node ids ordered by prerequisite
// depth. Counting REQUIRES paths works as a topological key: a node always
// has strictly more downstream paths than any of its prerequisites.
func mirroredOrder(ctx context.Context, client *neo4jdb.Client, pathID uuid.UUID) ([]uuid.UUID, error) {
	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:PathNode {path_id: $path_id})
RETURN n.id AS id, size([(n)-[:REQUIRES*]->(:PathNode) | 1]) AS depth
ORDER BY depth, n.position
`, map[string]any{"path_id": pathID.String()})
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
