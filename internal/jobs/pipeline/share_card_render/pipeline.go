package share_card_render

import (
	"bytes"
	"fmt"

	"golang.org/x/sync/errgroup"

	types "github.com/menttor/menttor-backend/internal/domain"
	jobrt "github.com/menttor/menttor-backend/internal/jobs/runtime"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/gcp"
	"github.com/menttor/menttor-backend/internal/sharecard"
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

	jc.Progress("prepare", 10, "Collecting stats")
	card := sharecard.Card{
		Subject:  doc.Subject,
		Subtopic: doc.Subtopic,
		Category: p.extractor.Primary(doc.Subject, doc.Subtopic+" "+doc.Goal),
		Progress: p.pathProgress(dbc, doc),
	}
	// Stats are decoration; a doc whose owner row is unreadable still gets
	// a card, just with zeroed streak and XP.
	if user, err := p.users.GetByID(dbc, doc.OwnerUserID); err == nil && user != nil {
		card.StreakDays = user.StreakDays
		card.XP = user.XP
	}

	jc.Progress("render", 35, "Drawing cards")
	var cardBuf, squareBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		buf, err := p.renderer.RenderCard(card)
		if err != nil {
			return fmt.Errorf("render card: %w", err)
		}
		cardBuf = buf
		return nil
	})
	g.Go(func() error {
		buf, err := p.renderer.RenderSquare(card)
		if err != nil {
			return fmt.Errorf("render square: %w", err)
		}
		squareBuf = buf
		return nil
	})
	if err := g.Wait(); err != nil {
		jc.Fail("render", err)
		return nil
	}

	jc.Progress("upload", 70, "Uploading images")
	prefix := fmt.Sprintf("%s/%s/%s", doc.OwnerUserID, doc.ID, jc.Job.ID)
	cardKey := prefix + "/card.png"
	squareKey := prefix + "/square.png"
	if err := p.bucket.Upload(jc.Ctx, gcp.BucketCategorySharecard, cardKey, "image/png", bytes.NewReader(cardBuf.Bytes())); err != nil {
		jc.Fail("upload", fmt.Errorf("upload card: %w", err))
		return nil
	}
	if err := p.bucket.Upload(jc.Ctx, gcp.BucketCategorySharecard, squareKey, "image/png", bytes.NewReader(squareBuf.Bytes())); err != nil {
		p.reap(jc, cardKey)
		jc.Fail("upload", fmt.Errorf("upload square: %w", err))
		return nil
	}

	jc.Progress("record", 90, "Recording assets")
	entityID := doc.ID
	rows := []*types.Asset{
		{
			OwnerUserID: doc.OwnerUserID,
			Category:    string(gcp.BucketCategorySharecard),
			BucketKey:   cardKey,
			PublicURL:   p.bucket.PublicURL(gcp.BucketCategorySharecard, cardKey),
			MimeType:    "image/png",
			Width:       sharecard.CardWidth,
			Height:      sharecard.CardHeight,
			ByteSize:    int64(cardBuf.Len()),
			EntityType:  "learning_doc",
			EntityID:    &entityID,
		},
		{
			OwnerUserID: doc.OwnerUserID,
			Category:    string(gcp.BucketCategorySharecard),
			BucketKey:   squareKey,
			PublicURL:   p.bucket.PublicURL(gcp.BucketCategorySharecard, squareKey),
			MimeType:    "image/png",
			Width:       sharecard.SquareSize,
			Height:      sharecard.SquareSize,
			ByteSize:    int64(squareBuf.Len()),
			EntityType:  "learning_doc",
			EntityID:    &entityID,
		},
	}
	if _, err := p.assets.Create(dbc, rows); err != nil {
		p.reap(jc, cardKey)
		p.reap(jc, squareKey)
		jc.Fail("record", fmt.Errorf("create share card assets: %w", err))
		return nil
	}

	jc.Succeed("done", map[string]any{
		"doc_id":          doc.ID.String(),
		"card_asset_id":   rows[0].ID.String(),
		"square_asset_id": rows[1].ID.String(),
		"card_url":        rows[0].PublicURL,
		"square_url":      rows[1].PublicURL,
	})
	return nil
}

// pathProgress is best effort; a doc outside any path renders with the
// progress bar at zero.
func (p *Pipeline) pathProgress(dbc dbctx.Context, doc *types.LearningDoc) float64 {
	if doc.PathNodeID == nil {
		return 0
	}
	node, err := p.nodes.GetByID(dbc, *doc.PathNodeID)
	if err != nil || node == nil {
		return 0
	}
	all, err := p.nodes.ListByPath(dbc, node.PathID)
	if err != nil || len(all) == 0 {
		return 0
	}
	completed := 0
	for _, n := range all {
		if n.Status == types.PathNodeStatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(all))
}

func (p *Pipeline) reap(jc *jobrt.Context, key string) {
	if err := p.bucket.Delete(jc.Ctx, gcp.BucketCategorySharecard, key); err != nil {
		p.log.Warn("Orphaned share card object after failure", "key", key, "error", err)
	}
}
