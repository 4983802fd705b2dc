package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/menttor/menttor-backend/internal/data/repos"
	"github.com/menttor/menttor-backend/internal/doc/blocks"
	"github.com/menttor/menttor-backend/internal/doc/layout"
	"github.com/menttor/menttor-backend/internal/doc/pdfcanvas"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/gcp"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

const fallbackExportName = "menttor-learning-content"

// ExportArtifact is one finished PDF held in memory. Nothing is streamed
// incrementally; a render either produces the whole document or fails.
type ExportArtifact struct {
	Filename  string
	PageCount int
	Data      []byte
}

type ExportService interface {
	// ExportDoc is the synchronous path: owner-checked fetch plus render.
	ExportDoc(dbc dbctx.Context, docID uuid.UUID) (ExportArtifact, error)
	// RenderDoc paginates an already-loaded doc. The export job pipeline
	// uses this directly since it authorizes through the job row, not a
	// request context.
	RenderDoc(doc *types.LearningDoc) (ExportArtifact, error)
	ListExports(dbc dbctx.Context, docID uuid.UUID) ([]*types.ExportRecord, error)
	// ShareCardsForDoc returns the newest rendered share card pair for a
	// doc, wide card first. A doc never rendered yields an empty slice.
	ShareCardsForDoc(dbc dbctx.Context, docID uuid.UUID) ([]*types.Asset, error)
}

type exportService struct {
	log         *logger.Logger
	learningSvc LearningService
	exportRepo  repos.ExportRecordRepo
	assetRepo   repos.AssetRepo
}

func NewExportService(log *logger.Logger, learningSvc LearningService, exportRepo repos.ExportRecordRepo, assetRepo repos.AssetRepo) ExportService {
	return &exportService{
		log:         log.With("service", "ExportService"),
		learningSvc: learningSvc,
		exportRepo:  exportRepo,
		assetRepo:   assetRepo,
	}
}

func (es *exportService) ExportDoc(dbc dbctx.Context, docID uuid.UUID) (ExportArtifact, error) {
	doc, err := es.learningSvc.GetDoc(dbc, docID)
	if err != nil {
		return ExportArtifact{}, err
	}
	return es.RenderDoc(doc)
}

func (es *exportService) RenderDoc(doc *types.LearningDoc) (ExportArtifact, error) {
	if doc == nil {
		return ExportArtifact{}, fmt.Errorf("no doc to render: %w", ErrInvalidArgument)
	}
	content, skipped, err := blocks.Decode(doc.Blocks)
	if err != nil {
		return ExportArtifact{}, fmt.Errorf("decode doc blocks: %w", err)
	}
	if len(skipped) > 0 {
		es.log.Warn("Export skipping unknown block types", "docID", doc.ID, "types", skipped)
	}

	header := doc.Subject
	if doc.Subtopic != "" {
		if header != "" {
			header += " - "
		}
		header += doc.Subtopic
	}

	pdf := pdfcanvas.New(header)
	eng := layout.NewEngine(pdf, layout.A4(), header)
	if err := eng.Render(content); err != nil {
		return ExportArtifact{}, fmt.Errorf("render doc %s: %w", doc.ID, err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return ExportArtifact{}, fmt.Errorf("write pdf for doc %s: %w", doc.ID, err)
	}
	return ExportArtifact{
		Filename:  exportFilename(doc.Subtopic),
		PageCount: pdf.PageCount(),
		Data:      buf.Bytes(),
	}, nil
}

func (es *exportService) ListExports(dbc dbctx.Context, docID uuid.UUID) ([]*types.ExportRecord, error) {
	if _, err := es.learningSvc.GetDoc(dbc, docID); err != nil {
		return nil, err
	}
	records, err := es.exportRepo.ListByDoc(dbc, docID)
	if err != nil {
		return nil, fmt.Errorf("list export records: %w", err)
	}
	return records, nil
}

func (es *exportService) ShareCardsForDoc(dbc dbctx.Context, docID uuid.UUID) ([]*types.Asset, error) {
	if _, err := es.learningSvc.GetDoc(dbc, docID); err != nil {
		return nil, err
	}
	recent, err := es.assetRepo.ListByEntity(dbc, "learning_doc", docID, string(gcp.BucketCategorySharecard), 8)
	if err != nil {
		return nil, fmt.Errorf("list share card assets: %w", err)
	}
	// One render writes a wide and a square image back to back, so the
	// newest of each variant is the latest pair even when renders overlap.
	var wide, square *types.Asset
	for _, a := range recent {
		if a.Width == a.Height {
			if square == nil {
				square = a
			}
		} else if wide == nil {
			wide = a
		}
	}
	out := make([]*types.Asset, 0, 2)
	if wide != nil {
		out = append(out, wide)
	}
	if square != nil {
		out = append(out, square)
	}
	return out, nil
}

// exportFilename slugifies the subtopic into a download name, falling back
// to a fixed name when nothing slugifiable remains.
func exportFilename(subtopic string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(subtopic) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = fallbackExportName
	}
	return slug + ".pdf"
}
