package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/lawflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lawflow-backend/internal/domain"
	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
)

var mk2Content = []types.ContentType{types.ContentLecturePDF, types.ContentSourceMaterial, types.ContentTutorialPDF}

func TestStartGenerationBlockedBySingleMissingRequirement(t *testing.T) {
	h := newHarness(t)
	_, tp := h.seedTopic(t, types.ContentLecturePDF, types.ContentSourceMaterial)

	_, err := h.generations.StartGeneration(context.Background(), tp.ID, types.StageMK2)
	if !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("want validation, got=%v", err)
	}
	want := "Cannot generate MK2 for topic. Missing requirements: Missing Tutorial Pdf"
	if err.Error() != want {
		t.Fatalf("message: want=%q got=%q", want, err.Error())
	}
	var n int64
	h.db.Model(&types.Generation{}).Count(&n)
	if n != 0 {
		t.Fatalf("no generation should be created, got=%d", n)
	}
}

func TestStartGenerationListsEveryMissingRequirement(t *testing.T) {
	h := newHarness(t)
	_, tp := h.seedTopic(t)

	_, err := h.generations.StartGeneration(context.Background(), tp.ID, types.StageMK3)
	if !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("want validation, got=%v", err)
	}
	for _, part := range []string{"Missing Lecture Pdf", "Missing Source Material", "Missing Tutorial Pdf", "Missing Transcript", MissingCompletedMK2} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("message missing %q: %s", part, err.Error())
		}
	}
}

func TestStartGenerationAssignsSequentialVersions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m, tp := h.seedTopic(t, types.ContentLecturePDF)

	first, err := h.generations.StartGeneration(ctx, tp.ID, types.StageMK1)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := h.generations.StartGeneration(ctx, tp.ID, types.StageMK1)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Version != 1 || second.Version != 2 {
		t.Fatalf("versions: want=1,2 got=%d,%d", first.Version, second.Version)
	}
	if first.Status != types.GenerationPending {
		t.Fatalf("status: want=%s got=%s", types.GenerationPending, first.Status)
	}
	for _, want := range []string{tp.Name, m.Name, "LECTURE_PDF_0.pdf"} {
		if !strings.Contains(first.PromptText, want) {
			t.Fatalf("prompt missing %q:\n%s", want, first.PromptText)
		}
	}
	if first.PreviousGenerationID != nil {
		t.Fatalf("MK1 must not reference a previous generation")
	}
}

func TestStartGenerationMK3UsesLatestCompletedMK2(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, tp := h.seedTopic(t, append(mk2Content, types.ContentTranscript)...)
	testutil.SeedGeneration(t, ctx, h.db, tp.ID, types.StageMK2, 1, types.GenerationCompleted, testutil.Ptr("old MK2 notes"))
	latest := testutil.SeedGeneration(t, ctx, h.db, tp.ID, types.StageMK2, 2, types.GenerationCompleted, testutil.Ptr("## Fresh MK2 notes\n\nBody."))
	testutil.SeedGeneration(t, ctx, h.db, tp.ID, types.StageMK2, 3, types.GenerationFailed, testutil.Ptr("broken"))

	g, err := h.generations.StartGeneration(ctx, tp.ID, types.StageMK3)
	if err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	if !strings.Contains(g.PromptText, "## Fresh MK2 notes\n\nBody.") {
		t.Fatalf("prompt should embed latest MK2 verbatim:\n%s", g.PromptText)
	}
	if strings.Contains(g.PromptText, "old MK2 notes") || strings.Contains(g.PromptText, "broken") {
		t.Fatalf("prompt embedded the wrong MK2 output")
	}
	if g.PreviousGenerationID == nil || *g.PreviousGenerationID != latest.ID {
		t.Fatalf("previous generation: want=%s got=%v", latest.ID, g.PreviousGenerationID)
	}
}

func TestStartGenerationMK3CompletedWithoutResponse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, tp := h.seedTopic(t, append(mk2Content, types.ContentTranscript)...)
	broken := testutil.SeedGeneration(t, ctx, h.db, tp.ID, types.StageMK2, 1, types.GenerationCompleted, nil)

	_, err := h.generations.StartGeneration(ctx, tp.ID, types.StageMK3)
	if !apierr.IsKind(err, apierr.KindDataIntegrity) {
		t.Fatalf("want data integrity, got=%v", err)
	}
	if apierr.IDOf(err) != broken.ID.String() {
		t.Fatalf("error id: want=%s got=%s", broken.ID, apierr.IDOf(err))
	}
}

func TestStartGenerationUnknownTopicAndStage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.generations.StartGeneration(ctx, uuid.New(), types.StageMK1); !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("unknown topic: want not found, got=%v", err)
	}
	_, tp := h.seedTopic(t, types.ContentLecturePDF)
	if _, err := h.generations.StartGeneration(ctx, tp.ID, types.Stage("MK7")); !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("unknown stage: want validation, got=%v", err)
	}
}

func TestUpdateGenerationResponse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, tp := h.seedTopic(t, types.ContentLecturePDF)
	g, err := h.generations.StartGeneration(ctx, tp.ID, types.StageMK1)
	if err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}

	updated, err := h.generations.UpdateGenerationResponse(ctx, g.ID, "notes", "")
	if err != nil {
		t.Fatalf("UpdateGenerationResponse: %v", err)
	}
	if updated.Status != types.GenerationCompleted {
		t.Fatalf("status: want=%s got=%s", types.GenerationCompleted, updated.Status)
	}
	row := h.reload(t, g)
	if row.ResponseText == nil || *row.ResponseText != "notes" {
		t.Fatalf("response not persisted: %v", row.ResponseText)
	}

	if _, err := h.generations.UpdateGenerationResponse(ctx, g.ID, "again", types.GenerationCompleted); !apierr.IsKind(err, apierr.KindConflict) {
		t.Fatalf("second completion: want conflict, got=%v", err)
	}
	if _, err := h.generations.UpdateGenerationResponse(ctx, uuid.New(), "x", ""); !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("unknown id: want not found, got=%v", err)
	}
}

func TestMarkGenerationFailed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, tp := h.seedTopic(t)
	g := testutil.SeedGeneration(t, ctx, h.db, tp.ID, types.StageMK1, 1, types.GenerationPending, nil)

	out, err := h.generations.MarkGenerationFailed(ctx, g.ID)
	if err != nil || out.Status != types.GenerationFailed {
		t.Fatalf("MarkGenerationFailed: status=%v err=%v", out, err)
	}
	if row := h.reload(t, g); row.Status != types.GenerationFailed {
		t.Fatalf("persisted status: want=%s got=%s", types.GenerationFailed, row.Status)
	}
	if _, err := h.generations.MarkGenerationFailed(ctx, g.ID); err != nil {
		t.Fatalf("marking failed twice should be allowed: %v", err)
	}
}

func TestHistoryAndLatestCompleted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, tp := h.seedTopic(t)
	testutil.SeedGeneration(t, ctx, h.db, tp.ID, types.StageMK1, 1, types.GenerationCompleted, testutil.Ptr("a"))
	v2 := testutil.SeedGeneration(t, ctx, h.db, tp.ID, types.StageMK1, 2, types.GenerationCompleted, testutil.Ptr("b"))
	testutil.SeedGeneration(t, ctx, h.db, tp.ID, types.StageMK1, 3, types.GenerationFailed, nil)
	testutil.SeedGeneration(t, ctx, h.db, tp.ID, types.StageMK2, 1, types.GenerationPending, nil)

	all, err := h.generations.History(ctx, tp.ID, "")
	if err != nil || len(all) != 4 {
		t.Fatalf("History(all): n=%d err=%v", len(all), err)
	}
	mk1, err := h.generations.History(ctx, tp.ID, types.StageMK1)
	if err != nil || len(mk1) != 3 {
		t.Fatalf("History(MK1): n=%d err=%v", len(mk1), err)
	}
	if mk1[0].Version != 3 {
		t.Fatalf("History newest-first: want=3 got=%d", mk1[0].Version)
	}

	latest, err := h.generations.LatestCompleted(ctx, tp.ID, types.StageMK1)
	if err != nil || latest == nil || latest.ID != v2.ID {
		t.Fatalf("LatestCompleted: want=%s got=%v err=%v", v2.ID, latest, err)
	}
	none, err := h.generations.LatestCompleted(ctx, tp.ID, types.StageMK3)
	if err != nil || none != nil {
		t.Fatalf("LatestCompleted(MK3): want nil got=%v err=%v", none, err)
	}
}

func TestDeleteGeneration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, tp := h.seedTopic(t)
	g := testutil.SeedGeneration(t, ctx, h.db, tp.ID, types.StageMK1, 1, types.GenerationFailed, nil)

	if err := h.generations.DeleteGeneration(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGeneration: %v", err)
	}
	if err := h.generations.DeleteGeneration(ctx, g.ID); !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("second delete: want not found, got=%v", err)
	}
	// The version is free again once the row is gone.
	if v, _ := h.gate.NextVersion(ctx, tp.ID, types.StageMK1); v != 1 {
		t.Fatalf("next version after delete: want=1 got=%d", v)
	}
}

func TestStageOverview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, tp := h.seedTopic(t, types.ContentLecturePDF)
	done := testutil.SeedGeneration(t, ctx, h.db, tp.ID, types.StageMK1, 1, types.GenerationCompleted, testutil.Ptr("x"))

	out, err := h.generations.StageOverview(ctx, tp.ID)
	if err != nil {
		t.Fatalf("StageOverview: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("stages: want=3 got=%d", len(out))
	}
	if out[0].Stage != types.StageMK1 || !out[0].Allowed || out[0].NextVersion != 2 {
		t.Fatalf("MK1 card: %+v", out[0])
	}
	if out[0].LatestCompleted == nil || out[0].LatestCompleted.ID != done.ID {
		t.Fatalf("MK1 latest: want=%s got=%v", done.ID, out[0].LatestCompleted)
	}
	if out[0].Template.Name != "Mk-1 Foundation Notes" {
		t.Fatalf("MK1 template name: got=%q", out[0].Template.Name)
	}
	if out[1].Allowed || len(out[1].Missing) != 2 || out[1].NextVersion != 1 {
		t.Fatalf("MK2 card: %+v", out[1])
	}
	if out[2].Allowed || out[2].Missing[len(out[2].Missing)-1] != MissingCompletedMK2 {
		t.Fatalf("MK3 card: %+v", out[2])
	}
}
