package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/lawflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lawflow-backend/internal/domain"
	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/gcp"
)

func TestUploadContent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m, tp := h.seedTopic(t)

	item, err := h.contents.UploadContent(ctx, tp.ID, types.ContentLecturePDF, "week1.pdf", []byte("%PDF-1.7"))
	if err != nil {
		t.Fatalf("UploadContent: %v", err)
	}
	if !item.Active || item.SizeBytes != 8 || item.FileName != "week1.pdf" {
		t.Fatalf("item: %+v", item)
	}
	if item.RemoteFileID == nil || h.files.files[*item.RemoteFileID].MimeType != "application/pdf" {
		t.Fatalf("remote file: %+v", h.files.files)
	}
	if _, ok := h.files.folders[h.files.folders["/LawFlow"]+"/"+m.Name]; !ok {
		t.Fatalf("module folder not created: %v", h.files.folders)
	}

	if _, err := h.contents.UploadContent(ctx, tp.ID, types.ContentTranscript, "week1.txt", []byte("hi")); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if len(h.files.folders) != 3 {
		t.Fatalf("folders must be reused: want=3 got=%d", len(h.files.folders))
	}

	items, err := h.contents.ListContent(ctx, tp.ID)
	if err != nil || len(items) != 2 {
		t.Fatalf("ListContent: n=%d err=%v", len(items), err)
	}
}

func TestUploadContentValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, tp := h.seedTopic(t)

	if _, err := h.contents.UploadContent(ctx, tp.ID, types.ContentType("SLIDES"), "a.pdf", nil); !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("bad content type: want validation, got=%v", err)
	}
	if _, err := h.contents.UploadContent(ctx, tp.ID, types.ContentLecturePDF, "  ", nil); !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("empty name: want validation, got=%v", err)
	}
	if _, err := h.contents.UploadContent(ctx, uuid.New(), types.ContentLecturePDF, "a.pdf", nil); !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("unknown topic: want not found, got=%v", err)
	}
}

func TestUploadContentStoreUnavailable(t *testing.T) {
	h := newHarness(t)
	_, tp := h.seedTopic(t)
	svc := NewContentService(testutil.Logger(t), "", gcp.Unavailable(nil), h.modules, h.topics, h.content)

	_, err := svc.UploadContent(context.Background(), tp.ID, types.ContentLecturePDF, "a.pdf", []byte("x"))
	if !apierr.IsKind(err, apierr.KindConfiguration) {
		t.Fatalf("want configuration, got=%v", err)
	}
}

func TestUploadContentRemoteFailure(t *testing.T) {
	h := newHarness(t)
	_, tp := h.seedTopic(t)
	h.files.uploadErr = errRemote

	_, err := h.contents.UploadContent(context.Background(), tp.ID, types.ContentLecturePDF, "a.pdf", []byte("x"))
	if !apierr.IsKind(err, apierr.KindExternal) {
		t.Fatalf("want external, got=%v", err)
	}
	var n int64
	h.db.Model(&types.ContentItem{}).Count(&n)
	if n != 0 {
		t.Fatalf("no content row expected, got=%d", n)
	}
}

func TestRemoveContent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, tp := h.seedTopic(t)
	item, err := h.contents.UploadContent(ctx, tp.ID, types.ContentLecturePDF, "a.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("UploadContent: %v", err)
	}

	res, err := h.contents.RemoveContent(ctx, item.ID)
	if err != nil {
		t.Fatalf("RemoveContent: %v", err)
	}
	if res.Item.Active || len(res.Warnings) != 0 {
		t.Fatalf("result: active=%v warnings=%v", res.Item.Active, res.Warnings)
	}
	if len(h.files.trashed) != 1 || h.files.trashed[0] != *item.RemoteFileID {
		t.Fatalf("trashed: %v", h.files.trashed)
	}
	if ok, _, _ := h.gate.CanGenerate(ctx, tp.ID, types.StageMK1); ok {
		t.Fatalf("removed content must not satisfy the gate")
	}
	if _, err := h.contents.RemoveContent(ctx, item.ID); !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("second remove: want not found, got=%v", err)
	}
}

func TestRemoveContentRemoteFailureIsWarning(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, tp := h.seedTopic(t)
	item, err := h.contents.UploadContent(ctx, tp.ID, types.ContentLecturePDF, "a.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("UploadContent: %v", err)
	}
	h.files.trashErr = errRemote

	res, err := h.contents.RemoveContent(ctx, item.ID)
	if err != nil {
		t.Fatalf("RemoveContent: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings: want=1 got=%v", res.Warnings)
	}
	items, _ := h.contents.ListContent(ctx, tp.ID)
	if len(items) != 0 {
		t.Fatalf("item should be inactive locally")
	}
}
