package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/lawflow-backend/internal/data/aggregates"
	"github.com/yungbote/lawflow-backend/internal/data/repos"
	"github.com/yungbote/lawflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lawflow-backend/internal/domain"
	"github.com/yungbote/lawflow-backend/internal/platform/gcp"
	"github.com/yungbote/lawflow-backend/internal/platform/notion"
	"github.com/yungbote/lawflow-backend/internal/prompts"
)

type createdPage struct {
	DatabaseID string
	Title      string
	Props      notion.PageProperties
	Blocks     []notion.Block
}

type fakeDocs struct {
	mu        sync.Mutex
	pages     []createdPage
	archived  []string
	createErr error
	// partial makes a failing CreatePage still return a page ref.
	partial    bool
	archiveErr error
	block      chan struct{}
	// entered, when set, is signalled before CreatePage waits on block.
	entered chan struct{}
	// statuses records UpdatePageStatus calls as "pageID=status".
	statuses  []string
	statusErr error
}

func (f *fakeDocs) CreatePage(ctx context.Context, databaseID, title string, props notion.PageProperties, blocks []notion.Block) (notion.PageRef, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, createdPage{DatabaseID: databaseID, Title: title, Props: props, Blocks: blocks})
	ref := notion.PageRef{ID: fmt.Sprintf("page-%d", len(f.pages)), URL: fmt.Sprintf("https://notion.test/page-%d", len(f.pages))}
	if f.createErr != nil {
		if f.partial {
			return ref, f.createErr
		}
		return notion.PageRef{}, f.createErr
	}
	return ref, nil
}

func (f *fakeDocs) ArchivePage(ctx context.Context, pageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, pageID)
	return f.archiveErr
}

func (f *fakeDocs) UpdatePageStatus(ctx context.Context, pageID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, pageID+"="+status)
	return f.statusErr
}

func (f *fakeDocs) createCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pages)
}

type storedFile struct {
	Name     string
	FolderID string
	MimeType string
	Data     []byte
}

type fakeFiles struct {
	mu        sync.Mutex
	folders   map[string]string
	files     map[string]storedFile
	trashed   []string
	folderErr error
	uploadErr error
	trashErr  error
	seq       int
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{folders: map[string]string{}, files: map[string]storedFile{}}
}

func (f *fakeFiles) GetOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.folderErr != nil {
		return "", f.folderErr
	}
	key := parentID + "/" + name
	if id, ok := f.folders[key]; ok {
		return id, nil
	}
	f.seq++
	id := fmt.Sprintf("folder-%d", f.seq)
	f.folders[key] = id
	return id, nil
}

func (f *fakeFiles) Upload(ctx context.Context, data []byte, fileName, folderID, mimeType string) (gcp.FileRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return gcp.FileRef{}, f.uploadErr
	}
	f.seq++
	id := fmt.Sprintf("file-%d", f.seq)
	f.files[id] = storedFile{Name: fileName, FolderID: folderID, MimeType: mimeType, Data: append([]byte(nil), data...)}
	return gcp.FileRef{ID: id, URL: "https://drive.test/" + id}, nil
}

func (f *fakeFiles) Trash(ctx context.Context, fileID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trashErr != nil {
		return false, f.trashErr
	}
	if _, ok := f.files[fileID]; !ok {
		return false, nil
	}
	delete(f.files, fileID)
	f.trashed = append(f.trashed, fileID)
	return true, nil
}

type harness struct {
	db      *gorm.DB
	modules repos.ModuleRepo
	topics  repos.TopicRepo
	content repos.ContentItemRepo
	gens    repos.GenerationRepo
	docs    *fakeDocs
	files   *fakeFiles

	gate        StageGate
	generations GenerationService
	publish     PublishService
	contents    ContentService
	catalog     CatalogService
}

var fixedNow = time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.DB(t)
	builder, err := prompts.NewBuilder(log, "")
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	h := &harness{
		db:      db,
		modules: repos.NewModuleRepo(db, log),
		topics:  repos.NewTopicRepo(db, log),
		content: repos.NewContentItemRepo(db, log),
		gens:    repos.NewGenerationRepo(db, log),
		docs:    &fakeDocs{},
		files:   newFakeFiles(),
	}
	tx := aggregates.NewGormTxRunner(db)
	h.gate = NewStageGate(log, h.topics, h.content, h.gens)
	h.generations = NewGenerationService(log, tx, h.gate, builder, h.modules, h.topics, h.content, h.gens)
	h.publish = NewPublishService(log, PublishConfig{
		RootFolder:        "LawFlow",
		DefaultDatabaseID: "db-default",
		Now:               func() time.Time { return fixedNow },
	}, tx, h.docs, h.files, h.modules, h.topics, h.content, h.gens)
	h.contents = NewContentService(log, "LawFlow", h.files, h.modules, h.topics, h.content)
	h.catalog = NewCatalogService(log, tx, h.modules, h.topics, h.content, h.gens)
	return h
}

// seedTopic creates a module and topic and uploads the given content types.
func (h *harness) seedTopic(t *testing.T, cts ...types.ContentType) (*types.Module, *types.Topic) {
	t.Helper()
	ctx := context.Background()
	m := testutil.SeedModule(t, ctx, h.db, "Contract Law")
	tp := testutil.SeedTopic(t, ctx, h.db, m.ID, "Offer and Acceptance")
	for i, ct := range cts {
		testutil.SeedContent(t, ctx, h.db, tp.ID, ct, fmt.Sprintf("%s_%d.pdf", ct, i), time.Duration(len(cts)-i)*time.Minute)
	}
	return m, tp
}

func (h *harness) reload(t *testing.T, g *types.Generation) *types.Generation {
	t.Helper()
	var row types.Generation
	if err := h.db.Where("id = ?", g.ID).First(&row).Error; err != nil {
		t.Fatalf("reload generation: %v", err)
	}
	return &row
}

var errRemote = errors.New("remote unavailable")
