package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/lawflow-backend/internal/data/repos"
	types "github.com/yungbote/lawflow-backend/internal/domain"
	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

const MissingCompletedMK2 = "Missing completed MK2 generation"

// StageGate decides whether a stage may be generated for a topic and hands
// out version numbers.
type StageGate interface {
	// CanGenerate returns the missing requirements in fixed order; allowed
	// is true iff there are none.
	CanGenerate(ctx context.Context, topicID uuid.UUID, stage types.Stage) (bool, []string, error)
	NextVersion(ctx context.Context, topicID uuid.UUID, stage types.Stage) (int, error)
}

type stageGate struct {
	log     *logger.Logger
	topics  repos.TopicRepo
	content repos.ContentItemRepo
	gens    repos.GenerationRepo
}

func NewStageGate(baseLog *logger.Logger, topics repos.TopicRepo, content repos.ContentItemRepo, gens repos.GenerationRepo) StageGate {
	return &stageGate{
		log:     baseLog.With("service", "StageGate"),
		topics:  topics,
		content: content,
		gens:    gens,
	}
}

// MissingRequirements lists what stage still needs given the uploaded
// content types and whether a completed MK2 generation exists.
func MissingRequirements(stage types.Stage, uploaded map[types.ContentType]bool, hasCompletedMK2 bool) ([]string, error) {
	required, err := types.RequiredContent(stage)
	if err != nil {
		return nil, apierr.Validation("stage_gate.check", err.Error())
	}
	missing := []string{}
	for _, ct := range required {
		if !uploaded[ct] {
			missing = append(missing, "Missing "+ct.Label())
		}
	}
	if stage == types.StageMK3 && !hasCompletedMK2 {
		missing = append(missing, MissingCompletedMK2)
	}
	return missing, nil
}

func (g *stageGate) CanGenerate(ctx context.Context, topicID uuid.UUID, stage types.Stage) (bool, []string, error) {
	if !stage.Valid() {
		return false, nil, apierr.Validation("stage_gate.can_generate", fmt.Sprintf("unknown stage: %s", stage))
	}
	dbc := dbctx.With(ctx)
	topic, err := g.topics.GetByID(dbc, topicID)
	if err != nil {
		return false, nil, apierr.Internal("stage_gate.can_generate", err)
	}
	if topic == nil {
		return false, nil, apierr.NotFound("stage_gate.can_generate", "Topic", topicID.String())
	}

	items, err := g.content.ListActiveByTopic(dbc, topicID)
	if err != nil {
		return false, nil, apierr.Internal("stage_gate.can_generate", err)
	}
	uploaded := make(map[types.ContentType]bool, len(items))
	for _, it := range items {
		uploaded[it.ContentType] = true
	}

	hasMK2 := false
	if stage == types.StageMK3 {
		latest, err := g.gens.LatestCompleted(dbc, topicID, types.StageMK2)
		if err != nil {
			return false, nil, apierr.Internal("stage_gate.can_generate", err)
		}
		hasMK2 = latest != nil
	}

	missing, err := MissingRequirements(stage, uploaded, hasMK2)
	if err != nil {
		return false, nil, err
	}
	return len(missing) == 0, missing, nil
}

func (g *stageGate) NextVersion(ctx context.Context, topicID uuid.UUID, stage types.Stage) (int, error) {
	return nextVersion(dbctx.With(ctx), g.gens, topicID, stage)
}

func nextVersion(dbc dbctx.Context, gens repos.GenerationRepo, topicID uuid.UUID, stage types.Stage) (int, error) {
	max, err := gens.MaxVersion(dbc, topicID, stage)
	if err != nil {
		return 0, apierr.Internal("stage_gate.next_version", err)
	}
	return max + 1, nil
}
