package prompts

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/yungbote/lawflow-backend/internal/domain/studio"
	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(logger.Nop(), "")
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func TestBuildIncludesInputsInOrder(t *testing.T) {
	b := newBuilder(t)
	files := []string{"lecture_formation.pdf", "sources_contract_act.pdf", "tutorial_questions.pdf"}

	out, err := b.Build(studio.StageMK2, "Contract Formation", "Contract Law", files, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, want := range append([]string{"Contract Formation", "Contract Law"}, files...) {
		if !strings.Contains(out, want) {
			t.Fatalf("Build: missing %q in output", want)
		}
	}
	last := -1
	for _, f := range files {
		idx := strings.Index(out, f)
		if idx <= last {
			t.Fatalf("Build: file %q out of input order", f)
		}
		last = idx
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	b := newBuilder(t)
	for _, stage := range studio.Stages {
		a, err := b.Build(stage, "Easements", "Land Law", []string{"a.pdf", "b.pdf"}, "prior notes")
		if err != nil {
			t.Fatalf("Build(%s): %v", stage, err)
		}
		again, _ := b.Build(stage, "Easements", "Land Law", []string{"a.pdf", "b.pdf"}, "prior notes")
		if a != again {
			t.Fatalf("Build(%s): output differs across calls", stage)
		}
	}
}

func TestBuildMK3RequiresPreviousContent(t *testing.T) {
	b := newBuilder(t)
	_, err := b.Build(studio.StageMK3, "Easements", "Land Law", []string{"a.pdf"}, "")
	if !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("Build(MK3, no previous): want kind=%s got=%v", apierr.KindValidation, err)
	}

	prev := "# Easements - MK2 Notes\n## Key Concepts\n- Re Ellenborough Park {{not a template}}\n"
	out, err := b.Build(studio.StageMK3, "Easements", "Land Law", []string{"a.pdf"}, prev)
	if err != nil {
		t.Fatalf("Build(MK3): %v", err)
	}
	if !strings.Contains(out, prev) {
		t.Fatalf("Build(MK3): previous content not verbatim in output")
	}
}

func TestBuildIgnoresPreviousContentBeforeMK3(t *testing.T) {
	b := newBuilder(t)
	out, err := b.Build(studio.StageMK1, "Easements", "Land Law", []string{"a.pdf"}, "SHOULD-NOT-APPEAR")
	if err != nil {
		t.Fatalf("Build(MK1): %v", err)
	}
	if strings.Contains(out, "SHOULD-NOT-APPEAR") {
		t.Fatalf("Build(MK1): previous content leaked into output")
	}
}

func TestBuildUnknownStage(t *testing.T) {
	b := newBuilder(t)
	_, err := b.Build(studio.Stage("MK9"), "t", "m", nil, "")
	if !apierr.IsKind(err, apierr.KindConfiguration) {
		t.Fatalf("Build(MK9): want kind=%s got=%v", apierr.KindConfiguration, err)
	}
	if !strings.Contains(err.Error(), "MK9") {
		t.Fatalf("Build(MK9): error should name the stage, got=%v", err)
	}
}

func TestInfo(t *testing.T) {
	b := newBuilder(t)
	for _, stage := range studio.Stages {
		info, err := b.Info(stage)
		if err != nil {
			t.Fatalf("Info(%s): %v", stage, err)
		}
		want := "Mk-" + strings.TrimPrefix(string(stage), "MK")
		if !strings.Contains(info.Name, want) || info.Description == "" {
			t.Fatalf("Info(%s): got=%+v", stage, info)
		}
	}
}

func TestLoadRejectsIncompleteTemplates(t *testing.T) {
	good := []byte("name: n\ndescription: d\ntemplate: \"{{.TopicName}}\"\n")
	fsys := fstest.MapFS{
		"mk1.yaml": {Data: good},
		"mk2.yaml": {Data: good},
		"mk3.yaml": {Data: []byte("name: n\ntemplate: x\n")},
	}
	if _, err := Load(logger.Nop(), fsys, "."); !apierr.IsKind(err, apierr.KindConfiguration) {
		t.Fatalf("Load(missing description): want kind=%s got=%v", apierr.KindConfiguration, err)
	}

	delete(fsys, "mk3.yaml")
	if _, err := Load(logger.Nop(), fsys, "."); !apierr.IsKind(err, apierr.KindConfiguration) {
		t.Fatalf("Load(missing file): want kind=%s got=%v", apierr.KindConfiguration, err)
	}

	fsys["mk3.yaml"] = &fstest.MapFile{Data: good}
	b, err := Load(logger.Nop(), fsys, ".")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out, _ := b.Build(studio.StageMK1, "Trusts", "Equity", nil, "")
	if out != "Trusts" {
		t.Fatalf("Build(custom): want=%q got=%q", "Trusts", out)
	}
}
