package graph

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/menttor/menttor-backend/internal/domain"
)

func prereqJSON(t *testing.T, ids ...uuid.UUID) datatypes.JSON {
	t.Helper()
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, id.String())
	}
	raw, err := json.Marshal(strs)
	if err != nil {
		t.Fatalf("marshal prereq ids: %v", err)
	}
	return datatypes.JSON(raw)
}

func TestTopoOrderRespectsPrereqs(t *testing.T) {
	a := &types.PathNode{ID: uuid.New(), Title: "intro", Position: 0}
	b := &types.PathNode{ID: uuid.New(), Title: "core", Position: 1}
	c := &types.PathNode{ID: uuid.New(), Title: "advanced", Position: 2}
	b.PrereqIDs = prereqJSON(t, a.ID)
	c.PrereqIDs = prereqJSON(t, b.ID)

	// Shuffled input; order must come from the edges, not the slice.
	out := TopoOrder([]*types.PathNode{c, a, b})
	if len(out) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(out))
	}
	if out[0].ID != a.ID || out[1].ID != b.ID || out[2].ID != c.ID {
		t.Fatalf("wrong order: %s, %s, %s", out[0].Title, out[1].Title, out[2].Title)
	}
}

func TestTopoOrderBreaksTiesByPosition(t *testing.T) {
	root := &types.PathNode{ID: uuid.New(), Title: "root", Position: 0}
	left := &types.PathNode{ID: uuid.New(), Title: "left", Position: 1, PrereqIDs: prereqJSON(t, root.ID)}
	right := &types.PathNode{ID: uuid.New(), Title: "right", Position: 2, PrereqIDs: prereqJSON(t, root.ID)}

	out := TopoOrder([]*types.PathNode{right, left, root})
	if out[0].ID != root.ID || out[1].ID != left.ID || out[2].ID != right.ID {
		t.Fatalf("wrong order: %s, %s, %s", out[0].Title, out[1].Title, out[2].Title)
	}
}

func TestTopoOrderAppendsCyclicNodes(t *testing.T) {
	a := &types.PathNode{ID: uuid.New(), Title: "a", Position: 0}
	b := &types.PathNode{ID: uuid.New(), Title: "b", Position: 1}
	a.PrereqIDs = prereqJSON(t, b.ID)
	b.PrereqIDs = prereqJSON(t, a.ID)
	free := &types.PathNode{ID: uuid.New(), Title: "free", Position: 2}

	out := TopoOrder([]*types.PathNode{a, b, free})
	if len(out) != 3 {
		t.Fatalf("cycle dropped nodes: got %d of 3", len(out))
	}
	if out[0].ID != free.ID {
		t.Fatalf("acyclic node should sort first, got %s", out[0].Title)
	}
}

func TestTopoOrderIgnoresForeignPrereqs(t *testing.T) {
	n := &types.PathNode{ID: uuid.New(), Title: "solo", Position: 0, PrereqIDs: prereqJSON(t, uuid.New())}
	out := TopoOrder([]*types.PathNode{n})
	if len(out) != 1 || out[0].ID != n.ID {
		t.Fatalf("node gated on a prereq outside the path")
	}
}

func TestPrereqOrderWithoutMirrorFallsBack(t *testing.T) {
	a := &types.PathNode{ID: uuid.New(), Title: "first", Position: 0}
	b := &types.PathNode{ID: uuid.New(), Title: "second", Position: 1, PrereqIDs: prereqJSON(t, a.ID)}

	out := PrereqOrder(context.Background(), nil, nil, uuid.New(), []*types.PathNode{b, a})
	if out[0].ID != a.ID || out[1].ID != b.ID {
		t.Fatalf("fallback order wrong: %s, %s", out[0].Title, out[1].Title)
	}
}

func TestDecodePrereqIDsTolerant(t *testing.T) {
	id := uuid.New()
	got := DecodePrereqIDs(prereqJSON(t, id))
	if len(got) != 1 || got[0] != id {
		t.Fatalf("expected [%s], got %v", id, got)
	}
	if got := DecodePrereqIDs(nil); got != nil {
		t.Fatalf("nil payload should decode to nil, got %v", got)
	}
	if got := DecodePrereqIDs([]byte(`["not-a-uuid"]`)); len(got) != 0 {
		t.Fatalf("bad id should be dropped, got %v", got)
	}
	if got := DecodePrereqIDs([]byte(`{`)); got != nil {
		t.Fatalf("malformed json should decode to nil, got %v", got)
	}
}
