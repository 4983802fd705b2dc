package services

import (
	"errors"
	"testing"

	"github.com/menttor/menttor-backend/internal/concepts"
	"github.com/menttor/menttor-backend/internal/data/repos/testutil"
)

func newConceptService(t *testing.T) ConceptService {
	t.Helper()
	log := testutil.Logger(t)
	return NewConceptService(log, concepts.NewExtractor(log))
}

func TestConceptExtract(t *testing.T) {
	svc := newConceptService(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("concept"))

	matches, err := svc.Extract(authedDBC(u), "Calculus", "the derivative of the integral", 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("want at least one match")
	}
	if matches[0].Category != "mathematics" {
		t.Fatalf("top category: want=mathematics got=%s", matches[0].Category)
	}

	// No matches is a valid empty answer.
	matches, err = svc.Extract(authedDBC(u), "Gardening", "watering my tomatoes", 10)
	if err != nil {
		t.Fatalf("Extract no-match: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("unmatched text: want no matches got %d", len(matches))
	}
}

func TestConceptExtractClampsLimit(t *testing.T) {
	svc := newConceptService(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("conceptlim"))

	// Text touching many categories, asked with an out-of-range limit.
	text := "derivative force molecule cell algorithm market empire grammar painting chord"
	matches, err := svc.Extract(authedDBC(u), "", text, 500)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(matches) == 0 || len(matches) > 10 {
		t.Fatalf("clamped matches: want 1..10 got %d", len(matches))
	}

	one, err := svc.Extract(authedDBC(u), "", text, 1)
	if err != nil {
		t.Fatalf("Extract limit=1: %v", err)
	}
	if len(one) != 1 {
		t.Fatalf("limit=1: want 1 match got %d", len(one))
	}
}

func TestConceptExtractValidation(t *testing.T) {
	svc := newConceptService(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("conceptval"))

	if _, err := svc.Extract(authedDBC(u), "  ", "", 5); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("blank input error: want ErrInvalidArgument got %v", err)
	}
	if _, err := svc.Extract(anonDBC(), "Calculus", "limits", 5); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous error: want ErrUnauthorized got %v", err)
	}
}
