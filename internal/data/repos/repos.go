package repos

import (
	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/data/repos/auth"
	"github.com/menttor/menttor-backend/internal/data/repos/jobs"
	"github.com/menttor/menttor-backend/internal/data/repos/learning"
	"github.com/menttor/menttor-backend/internal/data/repos/media"
	"github.com/menttor/menttor-backend/internal/data/repos/sessions"
	"github.com/menttor/menttor-backend/internal/data/repos/user"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type LearningDocRepo = learning.LearningDocRepo
type ExportRecordRepo = learning.ExportRecordRepo
type LearningPathRepo = learning.LearningPathRepo
type PathNodeRepo = learning.PathNodeRepo

type AssetRepo = media.AssetRepo

type FocusSessionRepo = sessions.FocusSessionRepo
type NudgeRepo = sessions.NudgeRepo

type JobRunRepo = jobs.JobRunRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewLearningDocRepo(db *gorm.DB, baseLog *logger.Logger) LearningDocRepo {
	return learning.NewLearningDocRepo(db, baseLog)
}

func NewExportRecordRepo(db *gorm.DB, baseLog *logger.Logger) ExportRecordRepo {
	return learning.NewExportRecordRepo(db, baseLog)
}

func NewLearningPathRepo(db *gorm.DB, baseLog *logger.Logger) LearningPathRepo {
	return learning.NewLearningPathRepo(db, baseLog)
}

func NewPathNodeRepo(db *gorm.DB, baseLog *logger.Logger) PathNodeRepo {
	return learning.NewPathNodeRepo(db, baseLog)
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return media.NewAssetRepo(db, baseLog)
}

func NewFocusSessionRepo(db *gorm.DB, baseLog *logger.Logger) FocusSessionRepo {
	return sessions.NewFocusSessionRepo(db, baseLog)
}

func NewNudgeRepo(db *gorm.DB, baseLog *logger.Logger) NudgeRepo {
	return sessions.NewNudgeRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
