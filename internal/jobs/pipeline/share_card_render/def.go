package share_card_render

import (
	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/concepts"
	"github.com/menttor/menttor-backend/internal/data/repos"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/gcp"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/sharecard"
)

// Pipeline renders the social card pair for a learning doc (wide card plus
// square variant), uploads both under the sharecard category and records
// them as assets attached to the doc.
type Pipeline struct {
	db        *gorm.DB
	log       *logger.Logger
	docs      repos.LearningDocRepo
	nodes     repos.PathNodeRepo
	users     repos.UserRepo
	assets    repos.AssetRepo
	extractor *concepts.Extractor
	renderer  *sharecard.Renderer
	bucket    gcp.BucketService
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	docs repos.LearningDocRepo,
	nodes repos.PathNodeRepo,
	users repos.UserRepo,
	assets repos.AssetRepo,
	extractor *concepts.Extractor,
	renderer *sharecard.Renderer,
	bucket gcp.BucketService,
) *Pipeline {
	return &Pipeline{
		db:        db,
		log:       baseLog.With("job", types.JobTypeShareCardRender),
		docs:      docs,
		nodes:     nodes,
		users:     users,
		assets:    assets,
		extractor: extractor,
		renderer:  renderer,
		bucket:    bucket,
	}
}

func (p *Pipeline) Type() string { return types.JobTypeShareCardRender }
