package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/menttor/menttor-backend/internal/data/repos"
	"github.com/menttor/menttor-backend/internal/data/repos/testutil"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/realtime"
)

func newJobFixture(t *testing.T) (JobService, repos.JobRunRepo, *fakeEmitter) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	emit := &fakeEmitter{}
	repo := repos.NewJobRunRepo(db, log)
	return NewJobService(db, log, repo, NewJobNotifier(emit)), repo, emit
}

func TestJobEnqueue(t *testing.T) {
	svc, _, emit := newJobFixture(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("jenq"))
	entity := uuid.New()

	job, err := svc.Enqueue(authedDBC(u), u.ID, types.JobTypeDocExport, "learning_doc", &entity, map[string]any{"doc_id": entity.String()})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != types.JobStatusQueued {
		t.Fatalf("status: want=%s got=%s", types.JobStatusQueued, job.Status)
	}
	if job.Stage != "queued" || job.Progress != 0 {
		t.Fatalf("fresh job shape: %+v", job)
	}
	// Created events go to the user channel and the job channel.
	if n := emit.countEvent(realtime.SSEEventJobCreated); n != 2 {
		t.Fatalf("job created events: want=2 got=%d", n)
	}

	if _, err := svc.Enqueue(authedDBC(u), uuid.Nil, types.JobTypeDocExport, "", nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("missing owner error: want ErrInvalidArgument got %v", err)
	}
	if _, err := svc.Enqueue(authedDBC(u), u.ID, "", "", nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("missing type error: want ErrInvalidArgument got %v", err)
	}
}

func TestJobEnqueueUnlessRunnableCollapses(t *testing.T) {
	svc, repo, _ := newJobFixture(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("jdedupe"))
	entity := uuid.New()
	dbc := authedDBC(u)

	first, created, err := svc.EnqueueUnlessRunnable(dbc, u.ID, types.JobTypeDocExport, "learning_doc", &entity, nil)
	if err != nil {
		t.Fatalf("first EnqueueUnlessRunnable: %v", err)
	}
	if !created {
		t.Fatalf("first call should create")
	}

	second, created, err := svc.EnqueueUnlessRunnable(dbc, u.ID, types.JobTypeDocExport, "learning_doc", &entity, nil)
	if err != nil {
		t.Fatalf("second EnqueueUnlessRunnable: %v", err)
	}
	if created {
		t.Fatalf("second call should reuse the queued job")
	}
	if second.ID != first.ID {
		t.Fatalf("reused job id: want=%s got=%s", first.ID, second.ID)
	}

	// A different entity does not collapse.
	otherEntity := uuid.New()
	_, created, err = svc.EnqueueUnlessRunnable(dbc, u.ID, types.JobTypeDocExport, "learning_doc", &otherEntity, nil)
	if err != nil {
		t.Fatalf("other entity EnqueueUnlessRunnable: %v", err)
	}
	if !created {
		t.Fatalf("different entity should create")
	}

	// Once the job is terminal a new one can be enqueued.
	plain := dbctx.Context{Ctx: anonDBC().Ctx}
	if _, err := repo.UpdateFieldsUnlessStatus(plain, first.ID, nil, map[string]interface{}{
		"status": types.JobStatusFailed,
	}); err != nil {
		t.Fatalf("fail the job: %v", err)
	}
	third, created, err := svc.EnqueueUnlessRunnable(dbc, u.ID, types.JobTypeDocExport, "learning_doc", &entity, nil)
	if err != nil {
		t.Fatalf("third EnqueueUnlessRunnable: %v", err)
	}
	if !created {
		t.Fatalf("terminal predecessor should not block a new job")
	}
	if third.ID == first.ID {
		t.Fatalf("third call returned the failed job")
	}

	if _, _, err := svc.EnqueueUnlessRunnable(dbc, u.ID, types.JobTypeDocExport, "learning_doc", nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("nil entity error: want ErrInvalidArgument got %v", err)
	}
}

func TestJobGetAndListScopedToOwner(t *testing.T) {
	svc, _, _ := newJobFixture(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("jget"))
	other := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("jpeek"))
	entity := uuid.New()

	job, err := svc.Enqueue(authedDBC(u), u.ID, types.JobTypeShareCardRender, "learning_doc", &entity, nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	got, err := svc.GetByIDForRequestUser(authedDBC(u), job.ID)
	if err != nil {
		t.Fatalf("GetByIDForRequestUser: %v", err)
	}
	if got.ID != job.ID {
		t.Fatalf("job id: want=%s got=%s", job.ID, got.ID)
	}
	if _, err := svc.GetByIDForRequestUser(authedDBC(other), job.ID); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("foreign job error: want ErrNotFound got %v", err)
	}

	mine, err := svc.ListForRequestUser(authedDBC(u), 0)
	if err != nil {
		t.Fatalf("ListForRequestUser: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("own jobs: want=1 got=%d", len(mine))
	}
	theirs, err := svc.ListForRequestUser(authedDBC(other), 0)
	if err != nil {
		t.Fatalf("ListForRequestUser other: %v", err)
	}
	if len(theirs) != 0 {
		t.Fatalf("foreign jobs: want=0 got=%d", len(theirs))
	}
}

func TestJobCancel(t *testing.T) {
	svc, _, emit := newJobFixture(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("jcancel"))
	entity := uuid.New()
	dbc := authedDBC(u)

	job, err := svc.Enqueue(dbc, u.ID, types.JobTypeDocExport, "learning_doc", &entity, nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	canceled, err := svc.CancelForRequestUser(dbc, job.ID)
	if err != nil {
		t.Fatalf("CancelForRequestUser: %v", err)
	}
	if canceled.Status != types.JobStatusCanceled {
		t.Fatalf("status: want=%s got=%s", types.JobStatusCanceled, canceled.Status)
	}
	if n := emit.countEvent(realtime.SSEEventJobCanceled); n != 2 {
		t.Fatalf("cancel events: want=2 got=%d", n)
	}

	// Cancel on a terminal job is a quiet no-op.
	again, err := svc.CancelForRequestUser(dbc, job.ID)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if again.Status != types.JobStatusCanceled {
		t.Fatalf("second cancel status: want=%s got=%s", types.JobStatusCanceled, again.Status)
	}
	if n := emit.countEvent(realtime.SSEEventJobCanceled); n != 2 {
		t.Fatalf("no-op cancel emitted events: want=2 got=%d", n)
	}
}

func TestJobRestart(t *testing.T) {
	svc, repo, _ := newJobFixture(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("jrestart"))
	entity := uuid.New()
	dbc := authedDBC(u)
	plain := dbctx.Context{Ctx: anonDBC().Ctx}

	job, err := svc.Enqueue(dbc, u.ID, types.JobTypeDocExport, "learning_doc", &entity, nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// Queued jobs cannot restart.
	if _, err := svc.RestartForRequestUser(dbc, job.ID); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("restart queued error: want ErrInvalidArgument got %v", err)
	}

	if _, err := repo.UpdateFieldsUnlessStatus(plain, job.ID, nil, map[string]interface{}{
		"status":   types.JobStatusFailed,
		"attempts": 3,
		"error":    "boom",
		"progress": 40,
	}); err != nil {
		t.Fatalf("fail the job: %v", err)
	}

	restarted, err := svc.RestartForRequestUser(dbc, job.ID)
	if err != nil {
		t.Fatalf("RestartForRequestUser: %v", err)
	}
	if restarted.Status != types.JobStatusQueued {
		t.Fatalf("status: want=%s got=%s", types.JobStatusQueued, restarted.Status)
	}
	if restarted.Attempts != 0 || restarted.Progress != 0 || restarted.Error != "" {
		t.Fatalf("restart did not reset the row: %+v", restarted)
	}

	row, err := repo.GetByID(plain, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.Status != types.JobStatusQueued || row.Attempts != 0 {
		t.Fatalf("persisted restart: %+v", row)
	}
}
