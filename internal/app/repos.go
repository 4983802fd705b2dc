package app

import (
	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/data/repos"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	UserToken    repos.UserTokenRepo
	LearningDoc  repos.LearningDocRepo
	ExportRecord repos.ExportRecordRepo
	LearningPath repos.LearningPathRepo
	PathNode     repos.PathNodeRepo
	Asset        repos.AssetRepo
	FocusSession repos.FocusSessionRepo
	Nudge        repos.NudgeRepo
	JobRun       repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		UserToken:    repos.NewUserTokenRepo(db, log),
		LearningDoc:  repos.NewLearningDocRepo(db, log),
		ExportRecord: repos.NewExportRecordRepo(db, log),
		LearningPath: repos.NewLearningPathRepo(db, log),
		PathNode:     repos.NewPathNodeRepo(db, log),
		Asset:        repos.NewAssetRepo(db, log),
		FocusSession: repos.NewFocusSessionRepo(db, log),
		Nudge:        repos.NewNudgeRepo(db, log),
		JobRun:       repos.NewJobRunRepo(db, log),
	}
}
