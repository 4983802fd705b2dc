package doc_export

import (
	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/data/repos"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/gcp"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/services"
)

// Pipeline turns one learning doc into a stored PDF: render, upload under
// the export category, record an export_records row. A failure at any stage
// leaves nothing behind except the failed job row.
type Pipeline struct {
	db      *gorm.DB
	log     *logger.Logger
	docs    repos.LearningDocRepo
	exports repos.ExportRecordRepo
	export  services.ExportService
	bucket  gcp.BucketService
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	docs repos.LearningDocRepo,
	exports repos.ExportRecordRepo,
	export services.ExportService,
	bucket gcp.BucketService,
) *Pipeline {
	return &Pipeline{
		db:      db,
		log:     baseLog.With("job", types.JobTypeDocExport),
		docs:    docs,
		exports: exports,
		export:  export,
		bucket:  bucket,
	}
}

func (p *Pipeline) Type() string { return types.JobTypeDocExport }
