package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/data/graph"
	"github.com/menttor/menttor-backend/internal/data/repos"
	"github.com/menttor/menttor-backend/internal/doc/blocks"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/ctxutil"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/platform/neo4jdb"
)

type CreateDocInput struct {
	Subject    string          `json:"subject"`
	Subtopic   string          `json:"subtopic"`
	Goal       string          `json:"goal"`
	Content    json.RawMessage `json:"content"`
	PathNodeID *uuid.UUID      `json:"path_node_id,omitempty"`
}

type CreatePathNodeInput struct {
	Title    string `json:"title"`
	Subtopic string `json:"subtopic"`
	// Prereqs are indexes into the request's node list. Only earlier nodes
	// may be referenced, which keeps the graph acyclic at the gate.
	Prereqs []int `json:"prereqs,omitempty"`
}

type CreatePathInput struct {
	Title   string                `json:"title"`
	Subject string                `json:"subject"`
	Goal    string                `json:"goal"`
	Nodes   []CreatePathNodeInput `json:"nodes"`
}

// PathEdge is one prerequisite relation in a roadmap, shaped for the API.
type PathEdge struct {
	NodeID   uuid.UUID `json:"node_id"`
	PrereqID uuid.UUID `json:"prereq_id"`
}

type LearningService interface {
	CreateDoc(dbc dbctx.Context, in CreateDocInput) (*types.LearningDoc, error)
	GetDoc(dbc dbctx.Context, id uuid.UUID) (*types.LearningDoc, error)
	ListDocs(dbc dbctx.Context, limit int) ([]*types.LearningDoc, error)
	UpdateDocBlocks(dbc dbctx.Context, id uuid.UUID, content json.RawMessage) (*types.LearningDoc, error)
	DeleteDoc(dbc dbctx.Context, id uuid.UUID) error

	CreatePath(dbc dbctx.Context, in CreatePathInput) (*types.LearningPath, error)
	// GetPath returns the path with its nodes in dependency order plus the
	// prerequisite edges.
	GetPath(dbc dbctx.Context, id uuid.UUID) (*types.LearningPath, []PathEdge, error)
	ListPaths(dbc dbctx.Context) ([]*types.LearningPath, error)

	// CompleteNodeForDoc marks the roadmap node behind a doc completed and
	// unlocks any nodes whose prerequisites are now all met. Docs without a
	// node, and nodes already completed, are no-ops. Called by the session
	// scheduler when a focus run on the doc finishes.
	CompleteNodeForDoc(dbc dbctx.Context, docID uuid.UUID) error
}

type learningService struct {
	db       *gorm.DB
	log      *logger.Logger
	docRepo  repos.LearningDocRepo
	pathRepo repos.LearningPathRepo
	nodeRepo repos.PathNodeRepo
	userSvc  UserService
	neo      *neo4jdb.Client
}

// NewLearningService wires the doc and roadmap operations. neo may be nil;
// the graph mirror is optional and every mirror call is best-effort.
func NewLearningService(
	db *gorm.DB,
	log *logger.Logger,
	docRepo repos.LearningDocRepo,
	pathRepo repos.LearningPathRepo,
	nodeRepo repos.PathNodeRepo,
	userSvc UserService,
	neo *neo4jdb.Client,
) LearningService {
	return &learningService{
		db:       db,
		log:      log.With("service", "LearningService"),
		docRepo:  docRepo,
		pathRepo: pathRepo,
		nodeRepo: nodeRepo,
		userSvc:  userSvc,
		neo:      neo,
	}
}

// -------------------- Docs --------------------

func (ls *learningService) CreateDoc(dbc dbctx.Context, in CreateDocInput) (*types.LearningDoc, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}

	subject := strings.TrimSpace(in.Subject)
	subtopic := strings.TrimSpace(in.Subtopic)
	if subject == "" || subtopic == "" {
		return nil, fmt.Errorf("subject and subtopic required: %w", ErrInvalidArgument)
	}
	if len(in.Content) == 0 {
		return nil, fmt.Errorf("content required: %w", ErrInvalidArgument)
	}
	if _, skipped, err := blocks.Decode(in.Content); err != nil {
		return nil, fmt.Errorf("invalid content: %v: %w", err, ErrInvalidArgument)
	} else if len(skipped) > 0 {
		ls.log.Warn("Doc contains unknown block types, keeping them as-is", "types", skipped)
	}

	if in.PathNodeID != nil {
		if _, err := ls.ownedNode(dbc, rd.UserID, *in.PathNodeID); err != nil {
			return nil, err
		}
	}

	var doc *types.LearningDoc
	var startedNodeID uuid.UUID
	err := ls.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		created, err := ls.docRepo.Create(inner, []*types.LearningDoc{{
			OwnerUserID: rd.UserID,
			Subject:     subject,
			Subtopic:    subtopic,
			Goal:        strings.TrimSpace(in.Goal),
			Blocks:      datatypes.JSON(in.Content),
			PathNodeID:  in.PathNodeID,
		}})
		if err != nil {
			return fmt.Errorf("create learning doc: %w", err)
		}
		doc = created[0]

		if in.PathNodeID != nil {
			changed, err := ls.nodeRepo.UpdateStatusIf(inner, *in.PathNodeID, types.PathNodeStatusAvailable, types.PathNodeStatusInProgress)
			if err != nil {
				return fmt.Errorf("start path node: %w", err)
			}
			if changed {
				startedNodeID = *in.PathNodeID
			}
		}
		if err := ls.userSvc.RecordActivity(inner, rd.UserID, 0, time.Now()); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if startedNodeID != uuid.Nil {
		if err := graph.SetNodeStatus(dbc.Ctx, ls.neo, ls.log, startedNodeID, types.PathNodeStatusInProgress); err != nil {
			ls.log.Warn("Failed to mirror node status", "nodeID", startedNodeID, "error", err)
		}
	}
	return doc, nil
}

func (ls *learningService) GetDoc(dbc dbctx.Context, id uuid.UUID) (*types.LearningDoc, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	doc, err := ls.docRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("fetch learning doc: %w", err)
	}
	if doc == nil || doc.OwnerUserID != rd.UserID {
		// Someone else's doc reads the same as a missing one.
		return nil, fmt.Errorf("learning doc %s: %w", id, repos.ErrNotFound)
	}
	return doc, nil
}

func (ls *learningService) ListDocs(dbc dbctx.Context, limit int) ([]*types.LearningDoc, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	docs, err := ls.docRepo.ListByOwner(dbc, rd.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list learning docs: %w", err)
	}
	return docs, nil
}

func (ls *learningService) UpdateDocBlocks(dbc dbctx.Context, id uuid.UUID, content json.RawMessage) (*types.LearningDoc, error) {
	doc, err := ls.GetDoc(dbc, id)
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("content required: %w", ErrInvalidArgument)
	}
	if _, skipped, err := blocks.Decode(content); err != nil {
		return nil, fmt.Errorf("invalid content: %v: %w", err, ErrInvalidArgument)
	} else if len(skipped) > 0 {
		ls.log.Warn("Doc update contains unknown block types, keeping them as-is", "types", skipped)
	}
	if err := ls.docRepo.UpdateBlocks(dbc, id, datatypes.JSON(content)); err != nil {
		return nil, fmt.Errorf("update doc blocks: %w", err)
	}
	doc.Blocks = datatypes.JSON(content)
	return doc, nil
}

func (ls *learningService) DeleteDoc(dbc dbctx.Context, id uuid.UUID) error {
	if _, err := ls.GetDoc(dbc, id); err != nil {
		return err
	}
	if err := ls.docRepo.SoftDeleteByIDs(dbc, []uuid.UUID{id}); err != nil {
		return fmt.Errorf("delete learning doc: %w", err)
	}
	return nil
}

// -------------------- Roadmaps --------------------

func (ls *learningService) CreatePath(dbc dbctx.Context, in CreatePathInput) (*types.LearningPath, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}

	title := strings.TrimSpace(in.Title)
	subject := strings.TrimSpace(in.Subject)
	if title == "" || subject == "" {
		return nil, fmt.Errorf("title and subject required: %w", ErrInvalidArgument)
	}
	if len(in.Nodes) == 0 {
		return nil, fmt.Errorf("at least one node required: %w", ErrInvalidArgument)
	}

	// Ids are assigned up front so prereq arrays can reference sibling rows
	// before anything is inserted.
	pathID := uuid.New()
	nodes := make([]*types.PathNode, len(in.Nodes))
	for i, nin := range in.Nodes {
		nodeTitle := strings.TrimSpace(nin.Title)
		if nodeTitle == "" {
			return nil, fmt.Errorf("node %d: title required: %w", i, ErrInvalidArgument)
		}
		nodes[i] = &types.PathNode{
			ID:       uuid.New(),
			PathID:   pathID,
			Title:    nodeTitle,
			Subtopic: strings.TrimSpace(nin.Subtopic),
			Position: i,
			Status:   types.PathNodeStatusAvailable,
		}
	}
	for i, nin := range in.Nodes {
		if len(nin.Prereqs) == 0 {
			continue
		}
		prereqIDs := make([]string, 0, len(nin.Prereqs))
		for _, idx := range nin.Prereqs {
			if idx < 0 || idx >= i {
				return nil, fmt.Errorf("node %d: prereq index %d must reference an earlier node: %w", i, idx, ErrInvalidArgument)
			}
			prereqIDs = append(prereqIDs, nodes[idx].ID.String())
		}
		raw, err := json.Marshal(prereqIDs)
		if err != nil {
			return nil, fmt.Errorf("encode prereq ids: %w", err)
		}
		nodes[i].PrereqIDs = datatypes.JSON(raw)
		nodes[i].Status = types.PathNodeStatusLocked
	}

	path := &types.LearningPath{
		ID:          pathID,
		OwnerUserID: rd.UserID,
		Title:       title,
		Subject:     subject,
		Goal:        strings.TrimSpace(in.Goal),
	}
	err := ls.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if _, err := ls.pathRepo.Create(inner, []*types.LearningPath{path}); err != nil {
			return fmt.Errorf("create learning path: %w", err)
		}
		if _, err := ls.nodeRepo.Create(inner, nodes); err != nil {
			return fmt.Errorf("create path nodes: %w", err)
		}
		if err := ls.userSvc.RecordActivity(inner, rd.UserID, 0, time.Now()); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := graph.SyncPath(dbc.Ctx, ls.neo, ls.log, path, nodes); err != nil {
		ls.log.Warn("Failed to mirror path to graph", "pathID", pathID, "error", err)
	}
	path.Nodes = nodes
	return path, nil
}

func (ls *learningService) GetPath(dbc dbctx.Context, id uuid.UUID) (*types.LearningPath, []PathEdge, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	path, err := ls.pathRepo.GetWithNodes(dbc, id)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch learning path: %w", err)
	}
	if path == nil || path.OwnerUserID != rd.UserID {
		return nil, nil, fmt.Errorf("learning path %s: %w", id, repos.ErrNotFound)
	}

	path.Nodes = graph.PrereqOrder(dbc.Ctx, ls.neo, ls.log, id, path.Nodes)
	var edges []PathEdge
	for _, n := range path.Nodes {
		for _, prereqID := range graph.DecodePrereqIDs(n.PrereqIDs) {
			edges = append(edges, PathEdge{NodeID: n.ID, PrereqID: prereqID})
		}
	}
	return path, edges, nil
}

func (ls *learningService) ListPaths(dbc dbctx.Context) ([]*types.LearningPath, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	paths, err := ls.pathRepo.ListByOwner(dbc, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list learning paths: %w", err)
	}
	return paths, nil
}

func (ls *learningService) CompleteNodeForDoc(dbc dbctx.Context, docID uuid.UUID) error {
	doc, err := ls.docRepo.GetByID(dbc, docID)
	if err != nil {
		return fmt.Errorf("fetch learning doc: %w", err)
	}
	if doc == nil || doc.PathNodeID == nil {
		return nil
	}
	nodeID := *doc.PathNodeID

	node, err := ls.nodeRepo.GetByID(dbc, nodeID)
	if err != nil {
		return fmt.Errorf("fetch path node: %w", err)
	}
	if node == nil {
		return nil
	}

	changed, err := ls.nodeRepo.UpdateStatusIf(dbc, nodeID, types.PathNodeStatusInProgress, types.PathNodeStatusCompleted)
	if err != nil {
		return fmt.Errorf("complete path node: %w", err)
	}
	if !changed {
		// A doc can finish before the node was ever started.
		changed, err = ls.nodeRepo.UpdateStatusIf(dbc, nodeID, types.PathNodeStatusAvailable, types.PathNodeStatusCompleted)
		if err != nil {
			return fmt.Errorf("complete path node: %w", err)
		}
	}
	if !changed {
		return nil
	}
	ls.log.Info("Path node completed", "nodeID", nodeID, "pathID", node.PathID)

	if err := graph.SetNodeStatus(dbc.Ctx, ls.neo, ls.log, nodeID, types.PathNodeStatusCompleted); err != nil {
		ls.log.Warn("Failed to mirror node status", "nodeID", nodeID, "error", err)
	}
	if err := ls.unlockReadyNodes(dbc, node.PathID); err != nil {
		ls.log.Warn("Failed to unlock dependent nodes", "pathID", node.PathID, "error", err)
	}
	return nil
}

// unlockReadyNodes flips every locked node whose prerequisites are all
// completed to available. The candidate set comes from the graph mirror when
// it is enabled (the completed status is mirrored before this runs), else
// from a scan over the path's rows.
func (ls *learningService) unlockReadyNodes(dbc dbctx.Context, pathID uuid.UUID) error {
	ids, err := graph.UnlockableNodeIDs(dbc.Ctx, ls.neo, ls.log, pathID)
	if err != nil {
		ls.log.Warn("Graph unlock query failed, scanning rows", "pathID", pathID, "error", err)
		ids = nil
	}
	if len(ids) == 0 {
		nodes, err := ls.nodeRepo.ListByPath(dbc, pathID)
		if err != nil {
			return fmt.Errorf("list path nodes: %w", err)
		}
		ids = unlockableFromRows(nodes)
	}

	for _, id := range ids {
		changed, err := ls.nodeRepo.UpdateStatusIf(dbc, id, types.PathNodeStatusLocked, types.PathNodeStatusAvailable)
		if err != nil {
			return fmt.Errorf("unlock node %s: %w", id, err)
		}
		if !changed {
			continue
		}
		ls.log.Info("Path node unlocked", "nodeID", id, "pathID", pathID)
		if err := graph.SetNodeStatus(dbc.Ctx, ls.neo, ls.log, id, types.PathNodeStatusAvailable); err != nil {
			ls.log.Warn("Failed to mirror node status", "nodeID", id, "error", err)
		}
	}
	return nil
}

func unlockableFromRows(nodes []*types.PathNode) []uuid.UUID {
	inPath := make(map[uuid.UUID]bool, len(nodes))
	completed := make(map[uuid.UUID]bool, len(nodes))
	for _, n := range nodes {
		inPath[n.ID] = true
		if n.Status == types.PathNodeStatusCompleted {
			completed[n.ID] = true
		}
	}
	var ids []uuid.UUID
	for _, n := range nodes {
		if n.Status != types.PathNodeStatusLocked {
			continue
		}
		ready := true
		for _, prereqID := range graph.DecodePrereqIDs(n.PrereqIDs) {
			if inPath[prereqID] && !completed[prereqID] {
				ready = false
				break
			}
		}
		if ready {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// ownedNode loads a node and checks the caller owns its path. Misses and
// foreign nodes both come back as not-found.
func (ls *learningService) ownedNode(dbc dbctx.Context, userID, nodeID uuid.UUID) (*types.PathNode, error) {
	node, err := ls.nodeRepo.GetByID(dbc, nodeID)
	if err != nil {
		return nil, fmt.Errorf("fetch path node: %w", err)
	}
	if node == nil {
		return nil, fmt.Errorf("path node %s: %w", nodeID, repos.ErrNotFound)
	}
	path, err := ls.pathRepo.GetByID(dbc, node.PathID)
	if err != nil {
		return nil, fmt.Errorf("fetch learning path: %w", err)
	}
	if path == nil || path.OwnerUserID != userID {
		return nil, fmt.Errorf("path node %s: %w", nodeID, repos.ErrNotFound)
	}
	return node, nil
}
