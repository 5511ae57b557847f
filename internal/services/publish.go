package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/yungbote/lawflow-backend/internal/data/aggregates"
	"github.com/yungbote/lawflow-backend/internal/data/repos"
	types "github.com/yungbote/lawflow-backend/internal/domain"
	"github.com/yungbote/lawflow-backend/internal/observability"
	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lawflow-backend/internal/platform/gcp"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
	"github.com/yungbote/lawflow-backend/internal/platform/notion"
)

const (
	// PageStatusCurrent is the Status property every freshly published page gets.
	PageStatusCurrent = "Current"
	// PageStatusSuperseded marks the page of the version a newer publish replaced.
	PageStatusSuperseded = "Superseded"

	rollbackTimeout = 30 * time.Second
)

type PublishResult struct {
	GenerationID uuid.UUID `json:"generation_id"`
	DocumentURL  string    `json:"document_url"`
	FileURL      string    `json:"file_url"`
}

type PublishConfig struct {
	RootFolder        string
	DefaultDatabaseID string
	Now               func() time.Time
}

type PublishService interface {
	// ProcessResponse publishes a pasted response to the document store and
	// the file store, then marks the generation COMPLETED. Remote artifacts
	// created before a failure are archived or trashed and the generation is
	// marked FAILED.
	ProcessResponse(ctx context.Context, generationID uuid.UUID, responseText, databaseID string) (*PublishResult, error)
}

type publishService struct {
	log     *logger.Logger
	cfg     PublishConfig
	tx      aggregates.TxRunner
	docs    notion.Client
	files   gcp.FileStore
	modules repos.ModuleRepo
	topics  repos.TopicRepo
	content repos.ContentItemRepo
	gens    repos.GenerationRepo

	locks *generationLocks
}

func NewPublishService(
	baseLog *logger.Logger,
	cfg PublishConfig,
	tx aggregates.TxRunner,
	docs notion.Client,
	files gcp.FileStore,
	modules repos.ModuleRepo,
	topics repos.TopicRepo,
	content repos.ContentItemRepo,
	gens repos.GenerationRepo,
) PublishService {
	if strings.TrimSpace(cfg.RootFolder) == "" {
		cfg.RootFolder = gcp.DefaultRootFolder
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &publishService{
		log:     baseLog.With("service", "PublishService"),
		cfg:     cfg,
		tx:      tx,
		docs:    docs,
		files:   files,
		modules: modules,
		topics:  topics,
		content: content,
		gens:    gens,
		locks:   newGenerationLocks(),
	}
}

func (s *publishService) ProcessResponse(ctx context.Context, generationID uuid.UUID, responseText, databaseID string) (*PublishResult, error) {
	// Callers for the same generation run one at a time, each under its own
	// context; whoever runs second sees the first outcome in the stored status.
	release, err := s.locks.acquire(ctx, generationID)
	if err != nil {
		return nil, wrapPublishErr("publish.process_response", generationID, err)
	}
	defer release()
	return s.process(ctx, generationID, responseText, databaseID)
}

// generationLocks hands out one binary semaphore per generation id while
// any caller holds or waits for it.
type generationLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func newGenerationLocks() *generationLocks {
	return &generationLocks{entries: map[uuid.UUID]*lockEntry{}}
}

func (l *generationLocks) acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[id]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		l.entries[id] = e
	}
	e.refs++
	l.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		l.drop(id, e)
		return nil, err
	}
	return func() {
		e.sem.Release(1)
		l.drop(id, e)
	}, nil
}

func (l *generationLocks) drop(id uuid.UUID, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, id)
	}
}

// created tracks remote side effects so a failure can undo them.
type created struct {
	pageID string
	fileID string
}

func (s *publishService) process(ctx context.Context, generationID uuid.UUID, responseText, databaseID string) (res *PublishResult, err error) {
	const op = "publish.process_response"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("generation_id", generationID.String()))
	defer func() { observability.EndSpan(span, err) }()

	dbc := dbctx.With(ctx)
	gen, err := s.gens.GetByID(dbc, generationID)
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	if gen == nil {
		return nil, apierr.NotFound(op, "Generation", generationID.String())
	}
	if gen.Status == types.GenerationCompleted {
		e := apierr.Validation(op, fmt.Sprintf("Generation already completed: %s", generationID))
		e.ID = generationID.String()
		return nil, e
	}
	topic, module, err := loadTopicWithModule(dbc, op, s.topics, s.modules, gen.TopicID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(responseText) == "" {
		e := apierr.Validation(op, "response text is empty")
		e.ID = generationID.String()
		return nil, e
	}
	dbID, err := s.resolveDatabaseID(op, databaseID, module)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("stage", string(gen.Stage)),
		attribute.Int("version", gen.Version),
	)

	var done created
	result, err := s.publish(ctx, gen, topic, module, responseText, dbID, &done)
	if err == nil {
		s.log.Info("Generation published",
			"generation_id", gen.ID,
			"stage", gen.Stage,
			"version", gen.Version,
			"page_id", done.pageID,
			"file_id", done.fileID,
		)
		s.supersedePrevious(ctx, gen)
		return result, nil
	}

	s.rollback(ctx, gen.ID, done)
	// A lost commit race means another caller completed it.
	if !apierr.IsKind(err, apierr.KindConflict) {
		s.markFailed(ctx, gen.ID)
	}
	return nil, wrapPublishErr(op, gen.ID, err)
}

func (s *publishService) publish(ctx context.Context, gen *types.Generation, topic *types.Topic, module *types.Module, responseText, databaseID string, done *created) (*PublishResult, error) {
	items, err := s.content.ListActiveByTopic(dbctx.With(ctx), topic.ID)
	if err != nil {
		return nil, err
	}
	sourceFiles := make([]string, 0, len(items))
	for _, it := range items {
		sourceFiles = append(sourceFiles, it.FileName)
	}

	title := fmt.Sprintf("%s - %s - %s", module.Name, topic.Name, gen.Stage)
	props := notion.PageProperties{
		Topic:       topic.Name,
		Stage:       string(gen.Stage),
		Status:      PageStatusCurrent,
		Version:     gen.Version,
		Generated:   s.cfg.Now().UTC(),
		SourceFiles: sourceFiles,
	}
	blocks := notion.ValidateBlocks(notion.FromMarkdown(responseText))

	pageCtx, pageSpan := observability.StartSpan(ctx, "publish.create_page", attribute.Int("blocks", len(blocks)))
	page, err := s.docs.CreatePage(pageCtx, databaseID, title, props, blocks)
	// A page may exist even when appending later blocks failed.
	if page.ID != "" {
		done.pageID = page.ID
	}
	observability.EndSpan(pageSpan, err)
	if err != nil {
		return nil, err
	}

	folderCtx, folderSpan := observability.StartSpan(ctx, "publish.ensure_folders")
	folderID, err := gcp.EnsureFolderPath(folderCtx, s.files, s.cfg.RootFolder, module.Name, topic.Name)
	observability.EndSpan(folderSpan, err)
	if err != nil {
		return nil, err
	}

	fileName := gen.BackupFileName()
	uploadCtx, uploadSpan := observability.StartSpan(ctx, "publish.upload_backup", attribute.String("file_name", fileName))
	file, err := s.files.Upload(uploadCtx, []byte(responseText), fileName, folderID, gcp.MimeTypeFor(fileName))
	if file.ID != "" {
		done.fileID = file.ID
	}
	observability.EndSpan(uploadSpan, err)
	if err != nil {
		return nil, err
	}

	commitCtx, commitSpan := observability.StartSpan(ctx, "publish.commit")
	err = s.tx.InTx(commitCtx, func(txc dbctx.Context) error {
		ok, err := aggregates.UpdateByStatus(txc, types.Generation{}.TableName(), gen.ID,
			[]string{string(types.GenerationPending), string(types.GenerationFailed)},
			map[string]interface{}{
				"response_text":     responseText,
				"document_page_id":  strPtr(page.ID),
				"document_page_url": strPtr(page.URL),
				"file_backup_id":    strPtr(file.ID),
				"file_backup_url":   strPtr(file.URL),
				"status":            types.GenerationCompleted,
				"updated_at":        time.Now().UTC(),
			})
		if err != nil {
			return err
		}
		return aggregates.RequireCASSuccess(ok, "publish.commit", gen.ID.String(), fmt.Sprintf("Generation already completed: %s", gen.ID))
	})
	observability.EndSpan(commitSpan, err)
	if err != nil {
		return nil, err
	}

	return &PublishResult{
		GenerationID: gen.ID,
		DocumentURL:  page.URL,
		FileURL:      file.URL,
	}, nil
}

// rollback undoes whatever remote artifacts were created. It never fails;
// each step is attempted independently and logged.
func (s *publishService) rollback(ctx context.Context, generationID uuid.UUID, done created) {
	if done.pageID == "" && done.fileID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, "publish.rollback")
	defer span.End()

	if done.pageID != "" {
		if err := s.docs.ArchivePage(ctx, done.pageID); err != nil {
			s.log.Warn("Rollback: failed to archive page", "generation_id", generationID, "page_id", done.pageID, "error", err)
		} else {
			s.log.Info("Rollback: archived page", "generation_id", generationID, "page_id", done.pageID)
		}
	}
	if done.fileID != "" {
		if _, err := s.files.Trash(ctx, done.fileID); err != nil {
			s.log.Warn("Rollback: failed to trash backup file", "generation_id", generationID, "file_id", done.fileID, "error", err)
		} else {
			s.log.Info("Rollback: trashed backup file", "generation_id", generationID, "file_id", done.fileID)
		}
	}
}

// supersedePrevious relabels the page of the newest earlier completed
// version of the same topic and stage. Failures are logged only.
func (s *publishService) supersedePrevious(ctx context.Context, gen *types.Generation) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	rows, err := s.gens.ListCompleted(dbctx.With(ctx), gen.TopicID, gen.Stage)
	if err != nil {
		s.log.Warn("Failed to look up previous version", "generation_id", gen.ID, "error", err)
		return
	}
	for _, prev := range rows {
		if prev.ID == gen.ID || prev.Version >= gen.Version {
			continue
		}
		if prev.DocumentPageID == nil || *prev.DocumentPageID == "" {
			return
		}
		if err := s.docs.UpdatePageStatus(ctx, *prev.DocumentPageID, PageStatusSuperseded); err != nil {
			s.log.Warn("Failed to mark previous page superseded", "generation_id", prev.ID, "page_id", *prev.DocumentPageID, "error", err)
		}
		return
	}
}

func (s *publishService) markFailed(ctx context.Context, generationID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	err := s.gens.UpdateFields(dbctx.With(ctx), generationID, map[string]interface{}{"status": types.GenerationFailed})
	if err != nil {
		s.log.Warn("Failed to mark generation as failed", "generation_id", generationID, "error", err)
	}
}

func (s *publishService) resolveDatabaseID(op, explicit string, module *types.Module) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}
	if module.DocumentDatabaseID != nil && strings.TrimSpace(*module.DocumentDatabaseID) != "" {
		return strings.TrimSpace(*module.DocumentDatabaseID), nil
	}
	if id := strings.TrimSpace(s.cfg.DefaultDatabaseID); id != "" {
		return id, nil
	}
	return "", apierr.Validation(op, fmt.Sprintf("no document database configured for module %s", module.Name))
}

func wrapPublishErr(op string, generationID uuid.UUID, cause error) error {
	kind := apierr.KindExternal
	switch k := apierr.KindOf(cause); k {
	case apierr.KindConfiguration, apierr.KindValidation, apierr.KindConflict:
		kind = k
	}
	e := apierr.New(kind, op, fmt.Sprintf("failed to process response for generation %s: %v", generationID, cause), cause)
	e.ID = generationID.String()
	return e
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
