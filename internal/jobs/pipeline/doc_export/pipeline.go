package doc_export

import (
	"bytes"
	"fmt"

	types "github.com/menttor/menttor-backend/internal/domain"
	jobrt "github.com/menttor/menttor-backend/internal/jobs/runtime"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/gcp"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}

	docID, ok := jc.PayloadUUID("doc_id")
	if !ok {
		jc.Fail("validate", fmt.Errorf("missing doc_id"))
		return nil
	}
	if p.bucket == nil {
		jc.Fail("validate", fmt.Errorf("object storage not configured"))
		return nil
	}

	dbc := dbctx.Context{Ctx: jc.Ctx}
	doc, err := p.docs.GetByID(dbc, docID)
	if err != nil {
		jc.Fail("load", fmt.Errorf("fetch learning doc: %w", err))
		return nil
	}
	// The job row is the authorization here; a doc that moved to another
	// owner since enqueue reads as missing.
	if doc == nil || doc.OwnerUserID != jc.Job.OwnerUserID {
		jc.Fail("load", fmt.Errorf("learning doc %s not found", docID))
		return nil
	}

	jc.Progress("render", 10, "Laying out document")
	artifact, err := p.export.RenderDoc(doc)
	if err != nil {
		jc.Fail("render", err)
		return nil
	}

	jc.Progress("upload", 60, "Uploading PDF")
	key := fmt.Sprintf("%s/%s/%s/%s", doc.OwnerUserID, doc.ID, jc.Job.ID, artifact.Filename)
	if err := p.bucket.Upload(jc.Ctx, gcp.BucketCategoryExport, key, "application/pdf", bytes.NewReader(artifact.Data)); err != nil {
		jc.Fail("upload", err)
		return nil
	}

	jc.Progress("record", 90, "Recording export")
	rec := &types.ExportRecord{
		DocID:       doc.ID,
		OwnerUserID: doc.OwnerUserID,
		StorageKey:  key,
		Filename:    artifact.Filename,
		PageCount:   artifact.PageCount,
		ByteSize:    int64(len(artifact.Data)),
	}
	if _, err := p.exports.Create(dbc, []*types.ExportRecord{rec}); err != nil {
		// Failed exports persist nothing; reap the uploaded object so the
		// bucket does not collect orphans.
		if delErr := p.bucket.Delete(jc.Ctx, gcp.BucketCategoryExport, key); delErr != nil {
			p.log.Warn("Orphaned export object after record failure", "key", key, "error", delErr)
		}
		jc.Fail("record", fmt.Errorf("create export record: %w", err))
		return nil
	}

	jc.Succeed("done", map[string]any{
		"export_record_id": rec.ID.String(),
		"doc_id":           doc.ID.String(),
		"storage_key":      key,
		"url":              p.bucket.PublicURL(gcp.BucketCategoryExport, key),
		"filename":         artifact.Filename,
		"page_count":       artifact.PageCount,
		"byte_size":        len(artifact.Data),
	})
	return nil
}
