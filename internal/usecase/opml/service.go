// Package opml implements the OPML import/export (O) component:
// upload validation, the import and export workers, status lookup,
// and rollback, grounded on original_source's
// application/opml/opml.py (upload_opml_file/import_opml/export_opml)
// and infrastructure/storage/local.py for the storage-key layout, with
// the worker-dispatch shape adapted from the teacher's cmd/worker
// per-job-transaction idiom.
package opml

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/infra/storage"
	"feedkeep/internal/repository"
	"feedkeep/internal/usecase/feed"
	"feedkeep/internal/usecase/subscription"

	"github.com/google/uuid"
)

// Service orchestrates OPML upload, import, export, and rollback.
type Service struct {
	opml    repository.OpmlRepository
	folders repository.FolderRepository
	feeds   repository.FeedRepository
	subs    *subscription.Service
	feedSvc *feed.Service
	store   *storage.Local
}

func New(
	opmlRepo repository.OpmlRepository,
	folders repository.FolderRepository,
	feeds repository.FeedRepository,
	subs *subscription.Service,
	feedSvc *feed.Service,
	store *storage.Local,
) *Service {
	return &Service{opml: opmlRepo, folders: folders, feeds: feeds, subs: subs, feedSvc: feedSvc, store: store}
}

// Upload validates an uploaded OPML file, persists it to object
// storage, and records a pending OpmlImport batch. The caller is
// responsible for enqueuing the import job with the returned id
// (§4.O Upload).
func (s *Service) Upload(ctx context.Context, userID, filename string, content []byte) (*entity.OpmlImport, error) {
	if _, err := Validate(filename, content); err != nil {
		return nil, err
	}

	imp := &entity.OpmlImport{
		ID:        uuid.NewString(),
		UserID:    userID,
		Filename:  filename,
		Status:    entity.OpmlStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.opml.Create(ctx, imp); err != nil {
		return nil, fmt.Errorf("create import record: %w", err)
	}

	originalName := strings.TrimSuffix(filename, ".opml")
	uniqueFilename := fmt.Sprintf("%s-%s.opml", originalName, imp.ID)
	key := storage.Key(fmt.Sprintf("users/%s/imports", userID), uniqueFilename)
	if err := s.store.Put(ctx, key, content); err != nil {
		return nil, fmt.Errorf("store uploaded file: %w", err)
	}

	imp.StorageKey = key
	if err := s.opml.Update(ctx, imp); err != nil {
		return nil, fmt.Errorf("record storage key: %w", err)
	}
	return imp, nil
}

// Import runs the §4.O Import worker for a previously uploaded batch:
// it streams the outline tree into folder/subscription operations
// under userID, tagging every created Subscription with importID, and
// records the final counts on the OpmlImport row.
func (s *Service) Import(ctx context.Context, importID string, rootFolderID *string) error {
	imp, err := s.opml.GetByID(ctx, importID)
	if err != nil {
		return fmt.Errorf("load import record: %w", err)
	}
	if imp.StorageKey == "" {
		return &entity.ValidationError{Field: "import_id", Message: "no file was uploaded for this import"}
	}

	imp.Status = entity.OpmlStatusProcessing
	if err := s.opml.Update(ctx, imp); err != nil {
		return fmt.Errorf("mark import processing: %w", err)
	}

	content, err := s.store.Get(ctx, imp.StorageKey)
	if err != nil {
		imp.Status = entity.OpmlStatusFailed
		_ = s.opml.Update(ctx, imp)
		return fmt.Errorf("read uploaded file: %w", err)
	}
	outlines, err := Validate(imp.Filename, content)
	if err != nil {
		imp.Status = entity.OpmlStatusFailed
		_ = s.opml.Update(ctx, imp)
		return fmt.Errorf("re-validate uploaded file: %w", err)
	}

	tree, err := s.folders.Tree(ctx, imp.UserID)
	if err != nil {
		return fmt.Errorf("load folder tree: %w", err)
	}
	w := newImportWalk(ctx, s, imp.UserID, importID, tree)
	w.walk(outlines, rootFolderID)

	now := time.Now().UTC()
	imp.Total = w.total
	imp.Imported = w.imported
	imp.Failed = w.failed
	imp.Duplicate = w.duplicate
	imp.FailedFeeds = w.failedFeeds
	imp.Status = entity.OpmlStatusCompleted
	imp.CompletedAt = &now
	if err := s.opml.Update(ctx, imp); err != nil {
		return fmt.Errorf("record import completion: %w", err)
	}

	slog.Info("opml import completed",
		"import_id", importID, "total", imp.Total, "imported", imp.Imported,
		"failed", imp.Failed, "duplicate", imp.Duplicate)
	return nil
}

// importWalk holds the per-batch counters and folder-lookup cache
// accumulated while streaming outlines into folder/subscription
// operations. The cache avoids re-creating a folder for every outline
// group that shares a name under the same parent across one import.
type importWalk struct {
	ctx      context.Context
	svc      *Service
	userID   string
	importID string

	depthByID  map[string]int
	folderByID map[string]*string // key: parentKey+"\x00"+name

	total       int
	imported    int
	failed      int
	duplicate   int
	failedFeeds []entity.OpmlFailure
}

func newImportWalk(ctx context.Context, svc *Service, userID, importID string, tree []*entity.Folder) *importWalk {
	depthByID := make(map[string]int, len(tree))
	folderByID := make(map[string]*string, len(tree))
	for _, f := range tree {
		depthByID[f.ID] = f.Depth
		key := folderKey(f.ParentID, f.Name)
		id := f.ID
		folderByID[key] = &id
	}
	return &importWalk{
		ctx: ctx, svc: svc, userID: userID, importID: importID,
		depthByID: depthByID, folderByID: folderByID,
	}
}

func folderKey(parentID *string, name string) string {
	parent := ""
	if parentID != nil {
		parent = *parentID
	}
	return parent + "\x00" + name
}

func (w *importWalk) walk(outlines []Outline, parentFolderID *string) {
	for _, o := range outlines {
		if o.XMLURL != "" {
			w.importFeed(o, parentFolderID)
			continue
		}
		if len(o.Outlines) == 0 {
			continue
		}
		name := o.Text
		if name == "" {
			name = o.Title
		}
		folderID, err := w.getOrCreateFolder(name, parentFolderID)
		if err != nil {
			slog.Warn("opml import: folder creation failed, importing children at parent level",
				"import_id", w.importID, "name", name, "error", err)
			w.walk(o.Outlines, parentFolderID)
			continue
		}
		w.walk(o.Outlines, folderID)
	}
}

func (w *importWalk) importFeed(o Outline, folderID *string) {
	w.total++
	importID := w.importID

	f, err := w.svc.feeds.GetByCanonicalURL(w.ctx, o.XMLURL)
	if err != nil {
		f, err = w.svc.feedSvc.CreateFeed(w.ctx, o.XMLURL)
		if err != nil {
			w.failed++
			w.failedFeeds = append(w.failedFeeds, entity.OpmlFailure{URL: o.XMLURL, Reason: err.Error()})
			return
		}
	}

	if _, err := w.svc.subs.SubscriptionFor(w.ctx, w.userID, f.ID); err == nil {
		w.duplicate++
		return
	}

	if _, err := w.svc.subs.Subscribe(w.ctx, w.userID, f.ID, folderID, &importID); err != nil {
		w.failed++
		w.failedFeeds = append(w.failedFeeds, entity.OpmlFailure{URL: o.XMLURL, Reason: err.Error()})
		return
	}
	w.imported++
}

// getOrCreateFolder returns the id of an existing folder named name
// directly under parentID, or creates one at the correct depth. Depth
// beyond MaxFolderDepth collapses children to the deepest allowed
// parent rather than failing the whole import.
func (w *importWalk) getOrCreateFolder(name string, parentID *string) (*string, error) {
	key := folderKey(parentID, name)
	if id, ok := w.folderByID[key]; ok {
		return id, nil
	}

	depth := 0
	if parentID != nil {
		depth = w.depthByID[*parentID] + 1
	}
	if depth > entity.MaxFolderDepth {
		return parentID, nil
	}

	f := &entity.Folder{
		ID:       uuid.NewString(),
		UserID:   w.userID,
		Name:     name,
		ParentID: parentID,
		Depth:    depth,
	}
	if err := w.svc.folders.Create(w.ctx, f); err != nil {
		return nil, err
	}
	w.depthByID[f.ID] = depth
	w.folderByID[key] = &f.ID
	return &f.ID, nil
}

// CreateExportJob records a pending export batch and returns its id
// for the caller to enqueue as an export job (§4.O Export).
func (s *Service) CreateExportJob(ctx context.Context, userID string) (*entity.OpmlImport, error) {
	exp := &entity.OpmlImport{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    entity.OpmlStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.opml.Create(ctx, exp); err != nil {
		return nil, fmt.Errorf("create export record: %w", err)
	}
	return exp, nil
}

// ExportForUser assembles userID's current folder tree and
// subscription list and runs Export against it, so the job dispatcher
// only needs an export id and a user id (§4.O Export).
func (s *Service) ExportForUser(ctx context.Context, exportID, userID string) error {
	folders, err := s.folders.Tree(ctx, userID)
	if err != nil {
		return fmt.Errorf("load folder tree: %w", err)
	}
	subs, err := s.subs.ListForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	bySubFeed := make(map[string]exportFeed, len(subs))
	for _, sub := range subs {
		f, err := s.feeds.GetByID(ctx, sub.FeedID)
		if err != nil {
			slog.Warn("opml export: feed lookup failed, skipping subscription",
				"subscription_id", sub.ID, "feed_id", sub.FeedID, "error", err)
			continue
		}
		bySubFeed[sub.ID] = exportFeed{
			Title:    sub.DisplayTitle(f.Title),
			Link:     f.Website,
			XMLURL:   f.CanonicalURL,
			FolderID: sub.FolderID,
		}
	}

	return s.Export(ctx, exportID, userID, folders, bySubFeed)
}

// Export runs the §4.O Export worker: it generates an OPML document
// for the user's current subscription tree and writes it to object
// storage, then records completion on the OpmlImport row (reused as
// the export job's status record).
func (s *Service) Export(ctx context.Context, exportID, userID string, folders []*entity.Folder, bySubFeed map[string]exportFeed) error {
	exp, err := s.opml.GetByID(ctx, exportID)
	if err != nil {
		return fmt.Errorf("load export record: %w", err)
	}

	doc := buildExportDocument(folders, bySubFeed)
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal opml document: %w", err)
	}
	content := append([]byte(xml.Header), body...)

	filename := fmt.Sprintf("export-%s.opml", exportID)
	key := storage.Key(fmt.Sprintf("users/%s/exports", userID), filename)
	if err := s.store.Put(ctx, key, content); err != nil {
		return fmt.Errorf("store export file: %w", err)
	}

	now := time.Now().UTC()
	exp.StorageKey = key
	exp.Filename = filename
	exp.Status = entity.OpmlStatusCompleted
	exp.CompletedAt = &now
	return s.opml.Update(ctx, exp)
}

// Download returns the stored export's contents, or an error if the
// file is missing or has outlived OPML_FILE_EXPIRY_HOURS (§6.3).
func (s *Service) Download(ctx context.Context, storageKey string, now time.Time) ([]byte, error) {
	if !s.store.Exists(ctx, storageKey) {
		return nil, &entity.NotFoundError{Resource: "opml export", ID: storageKey}
	}
	mtime, err := s.store.ModTime(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("stat export file: %w", err)
	}
	if now.Sub(mtime) > entity.OpmlFileExpiryHours*time.Hour {
		return nil, &entity.NotFoundError{Resource: "opml export", ID: storageKey}
	}
	return s.store.Get(ctx, storageKey)
}

// Status returns the current state of one import or export batch.
func (s *Service) Status(ctx context.Context, id, userID string) (*entity.OpmlImport, error) {
	rec, err := s.opml.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load opml record: %w", err)
	}
	if rec.UserID != userID {
		return nil, &entity.NotFoundError{Resource: "opml operation", ID: id}
	}
	return rec, nil
}

// Rollback delegates to the Subscription lifecycle's reachability-aware
// cleanup (§4.O Rollback, §4.U Bulk OPML rollback).
func (s *Service) Rollback(ctx context.Context, userID, importID string) error {
	return s.subs.RollbackImport(ctx, userID, importID)
}
