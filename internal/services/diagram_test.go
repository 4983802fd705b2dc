package services

import (
	"errors"
	"testing"

	redisclient "github.com/menttor/menttor-backend/internal/clients/redis"
	"github.com/menttor/menttor-backend/internal/data/repos/testutil"
)

func newDiagramService(t *testing.T) DiagramService {
	t.Helper()
	log := testutil.Logger(t)
	return NewDiagramService(log, redisclient.NewGenCache(log))
}

func TestDiagramSanitizeCachesPerSession(t *testing.T) {
	svc := newDiagramService(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("dgm"))
	dbc := authedDBC(u)

	chart := "graph TD\n  A[Start] --> B{Choice}\n  B --> C[End]"

	res, cached, err := svc.Sanitize(dbc, chart, "sess-1")
	if err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	if cached {
		t.Fatalf("first sanitize should miss the cache")
	}
	if res.Chart == "" {
		t.Fatalf("sanitized chart empty")
	}

	again, cached, err := svc.Sanitize(dbc, chart, "sess-1")
	if err != nil {
		t.Fatalf("second Sanitize: %v", err)
	}
	if !cached {
		t.Fatalf("second sanitize should hit the cache")
	}
	if again.Chart != res.Chart {
		t.Fatalf("cached chart differs: want=%q got=%q", res.Chart, again.Chart)
	}

	// A different session has its own scope.
	_, cached, err = svc.Sanitize(dbc, chart, "sess-2")
	if err != nil {
		t.Fatalf("other session Sanitize: %v", err)
	}
	if cached {
		t.Fatalf("other session should not share the cache entry")
	}
}

func TestDiagramSanitizeValidation(t *testing.T) {
	svc := newDiagramService(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("dgmval"))

	if _, _, err := svc.Sanitize(authedDBC(u), "   ", "s"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("blank chart error: want ErrInvalidArgument got %v", err)
	}
	if _, _, err := svc.Sanitize(anonDBC(), "graph TD", "s"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous error: want ErrUnauthorized got %v", err)
	}
}
