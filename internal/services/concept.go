package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/menttor/menttor-backend/internal/concepts"
	"github.com/menttor/menttor-backend/internal/platform/ctxutil"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

// ConceptService exposes the rule-table extractor to the API. Results are
// advisory; an empty match list is a valid answer, not an error.
type ConceptService interface {
	Extract(dbc dbctx.Context, subject, text string, limit int) ([]concepts.Match, error)
}

type conceptService struct {
	log       *logger.Logger
	extractor *concepts.Extractor
}

func NewConceptService(log *logger.Logger, extractor *concepts.Extractor) ConceptService {
	return &conceptService{
		log:       log.With("service", "ConceptService"),
		extractor: extractor,
	}
}

func (cs *conceptService) Extract(dbc dbctx.Context, subject, text string, limit int) ([]concepts.Match, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	if strings.TrimSpace(text) == "" && strings.TrimSpace(subject) == "" {
		return nil, fmt.Errorf("subject or text required: %w", ErrInvalidArgument)
	}
	if limit <= 0 || limit > 20 {
		limit = 10
	}
	return cs.extractor.Extract(subject, text, limit), nil
}
