package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lawflow-backend/internal/data/aggregates"
	"github.com/yungbote/lawflow-backend/internal/data/db"
	"github.com/yungbote/lawflow-backend/internal/data/repos"
	types "github.com/yungbote/lawflow-backend/internal/domain"
	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
	"github.com/yungbote/lawflow-backend/internal/prompts"
)

// StageStatus summarizes one stage of a topic for the overview screen.
type StageStatus struct {
	Stage           types.Stage       `json:"stage"`
	Allowed         bool              `json:"allowed"`
	Missing         []string          `json:"missing"`
	LatestCompleted *types.Generation `json:"latest_completed,omitempty"`
	NextVersion     int               `json:"next_version"`
	Template        prompts.Info      `json:"template"`
}

type GenerationService interface {
	// StartGeneration validates the stage gate, builds the prompt and records
	// a PENDING generation with the next version number.
	StartGeneration(ctx context.Context, topicID uuid.UUID, stage types.Stage) (*types.Generation, error)
	UpdateGenerationResponse(ctx context.Context, id uuid.UUID, response string, status types.GenerationStatus) (*types.Generation, error)
	MarkGenerationFailed(ctx context.Context, id uuid.UUID) (*types.Generation, error)

	GetGeneration(ctx context.Context, id uuid.UUID) (*types.Generation, error)
	// History is newest-first; an empty stage means every stage.
	History(ctx context.Context, topicID uuid.UUID, stage types.Stage) ([]*types.Generation, error)
	LatestCompleted(ctx context.Context, topicID uuid.UUID, stage types.Stage) (*types.Generation, error)
	DeleteGeneration(ctx context.Context, id uuid.UUID) error

	StageOverview(ctx context.Context, topicID uuid.UUID) ([]StageStatus, error)
}

type generationService struct {
	log     *logger.Logger
	tx      aggregates.TxRunner
	gate    StageGate
	prompts *prompts.Builder
	modules repos.ModuleRepo
	topics  repos.TopicRepo
	content repos.ContentItemRepo
	gens    repos.GenerationRepo
}

func NewGenerationService(
	baseLog *logger.Logger,
	tx aggregates.TxRunner,
	gate StageGate,
	builder *prompts.Builder,
	modules repos.ModuleRepo,
	topics repos.TopicRepo,
	content repos.ContentItemRepo,
	gens repos.GenerationRepo,
) GenerationService {
	return &generationService{
		log:     baseLog.With("service", "GenerationService"),
		tx:      tx,
		gate:    gate,
		prompts: builder,
		modules: modules,
		topics:  topics,
		content: content,
		gens:    gens,
	}
}

func (s *generationService) StartGeneration(ctx context.Context, topicID uuid.UUID, stage types.Stage) (*types.Generation, error) {
	const op = "generation.start"
	if !stage.Valid() {
		return nil, apierr.Validation(op, fmt.Sprintf("unknown stage: %s", stage))
	}
	dbc := dbctx.With(ctx)

	topic, module, err := s.topicWithModule(dbc, op, topicID)
	if err != nil {
		return nil, err
	}

	allowed, missing, err := s.gate.CanGenerate(ctx, topicID, stage)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apierr.Validation(op, fmt.Sprintf(
			"Cannot generate %s for topic. Missing requirements: %s", stage, strings.Join(missing, ", ")))
	}

	items, err := s.content.ListActiveByTopic(dbc, topicID)
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	fileNames := make([]string, 0, len(items))
	for _, it := range items {
		fileNames = append(fileNames, it.FileName)
	}

	var previous *types.Generation
	previousContent := ""
	if stage == types.StageMK3 {
		previous, err = s.gens.LatestCompleted(dbc, topicID, types.StageMK2)
		if err != nil {
			return nil, apierr.Internal(op, err)
		}
		if previous == nil {
			return nil, apierr.Validation(op, "MK3 requires a completed MK2 generation")
		}
		if previous.ResponseText == nil || strings.TrimSpace(*previous.ResponseText) == "" {
			return nil, apierr.DataIntegrity(op, previous.ID.String(),
				"MK2 generation is marked as completed but has no response content")
		}
		previousContent = *previous.ResponseText
	}

	promptText, err := s.prompts.Build(stage, topic.Name, module.Name, fileNames, previousContent)
	if err != nil {
		return nil, err
	}

	var created *types.Generation
	err = s.tx.InTx(ctx, func(txc dbctx.Context) error {
		version, err := nextVersion(txc, s.gens, topicID, stage)
		if err != nil {
			return err
		}
		row := &types.Generation{
			TopicID:    topicID,
			Stage:      stage,
			Version:    version,
			PromptText: promptText,
			Status:     types.GenerationPending,
		}
		if previous != nil {
			pid := previous.ID
			row.PreviousGenerationID = &pid
		}
		created, err = s.gens.Create(txc, row)
		return err
	})
	if err != nil {
		if apierr.KindOf(err) != "" {
			return nil, err
		}
		if db.IsUniqueViolation(err) {
			return nil, apierr.Conflict(op, topicID.String(), fmt.Sprintf("could not assign %s version: %v", stage, err))
		}
		return nil, apierr.Internal(op, err)
	}

	s.log.Info("Generation started",
		"generation_id", created.ID,
		"topic_id", topicID,
		"stage", stage,
		"version", created.Version,
		"files", len(fileNames),
	)
	return created, nil
}

func (s *generationService) UpdateGenerationResponse(ctx context.Context, id uuid.UUID, response string, status types.GenerationStatus) (*types.Generation, error) {
	const op = "generation.update_response"
	if status == "" {
		status = types.GenerationCompleted
	}
	dbc := dbctx.With(ctx)
	gen, err := s.mustGet(dbc, op, id)
	if err != nil {
		return nil, err
	}
	if gen.Status == types.GenerationCompleted && status == types.GenerationCompleted {
		return nil, apierr.Conflict(op, id.String(), fmt.Sprintf("Generation already completed: %s", id))
	}
	if gen.Status != status && !gen.Status.CanTransition(status) {
		return nil, apierr.Conflict(op, id.String(), fmt.Sprintf("cannot move generation from %s to %s", gen.Status, status))
	}
	gen.ResponseText = &response
	gen.Status = status
	if _, err := s.gens.Update(dbc, gen); err != nil {
		return nil, s.updateErr(op, id, err)
	}
	return gen, nil
}

func (s *generationService) MarkGenerationFailed(ctx context.Context, id uuid.UUID) (*types.Generation, error) {
	const op = "generation.mark_failed"
	dbc := dbctx.With(ctx)
	gen, err := s.mustGet(dbc, op, id)
	if err != nil {
		return nil, err
	}
	if !gen.Status.CanTransition(types.GenerationFailed) {
		return nil, apierr.Conflict(op, id.String(), fmt.Sprintf("cannot move generation from %s to %s", gen.Status, types.GenerationFailed))
	}
	if err := s.gens.UpdateFields(dbc, id, map[string]interface{}{"status": types.GenerationFailed}); err != nil {
		return nil, apierr.Internal(op, err)
	}
	gen.Status = types.GenerationFailed
	return gen, nil
}

func (s *generationService) GetGeneration(ctx context.Context, id uuid.UUID) (*types.Generation, error) {
	return s.mustGet(dbctx.With(ctx), "generation.get", id)
}

func (s *generationService) History(ctx context.Context, topicID uuid.UUID, stage types.Stage) ([]*types.Generation, error) {
	const op = "generation.history"
	if stage != "" && !stage.Valid() {
		return nil, apierr.Validation(op, fmt.Sprintf("unknown stage: %s", stage))
	}
	dbc := dbctx.With(ctx)
	if _, _, err := s.topicWithModule(dbc, op, topicID); err != nil {
		return nil, err
	}
	rows, err := s.gens.ListByTopic(dbc, topicID, stage)
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	return rows, nil
}

func (s *generationService) LatestCompleted(ctx context.Context, topicID uuid.UUID, stage types.Stage) (*types.Generation, error) {
	const op = "generation.latest_completed"
	if !stage.Valid() {
		return nil, apierr.Validation(op, fmt.Sprintf("unknown stage: %s", stage))
	}
	g, err := s.gens.LatestCompleted(dbctx.With(ctx), topicID, stage)
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	return g, nil
}

// DeleteGeneration removes the local record only; published pages and
// backups stay where they are.
func (s *generationService) DeleteGeneration(ctx context.Context, id uuid.UUID) error {
	const op = "generation.delete"
	ok, err := s.gens.Delete(dbctx.With(ctx), id)
	if err != nil {
		return apierr.Internal(op, err)
	}
	if !ok {
		return apierr.NotFound(op, "Generation", id.String())
	}
	s.log.Info("Generation deleted", "generation_id", id)
	return nil
}

func (s *generationService) StageOverview(ctx context.Context, topicID uuid.UUID) ([]StageStatus, error) {
	const op = "generation.stage_overview"
	dbc := dbctx.With(ctx)
	if _, _, err := s.topicWithModule(dbc, op, topicID); err != nil {
		return nil, err
	}
	out := make([]StageStatus, 0, len(types.Stages))
	for _, stage := range types.Stages {
		allowed, missing, err := s.gate.CanGenerate(ctx, topicID, stage)
		if err != nil {
			return nil, err
		}
		latest, err := s.gens.LatestCompleted(dbc, topicID, stage)
		if err != nil {
			return nil, apierr.Internal(op, err)
		}
		next, err := s.gate.NextVersion(ctx, topicID, stage)
		if err != nil {
			return nil, err
		}
		info, err := s.prompts.Info(stage)
		if err != nil {
			return nil, err
		}
		out = append(out, StageStatus{
			Stage:           stage,
			Allowed:         allowed,
			Missing:         missing,
			LatestCompleted: latest,
			NextVersion:     next,
			Template:        info,
		})
	}
	return out, nil
}

func (s *generationService) mustGet(dbc dbctx.Context, op string, id uuid.UUID) (*types.Generation, error) {
	gen, err := s.gens.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	if gen == nil {
		return nil, apierr.NotFound(op, "Generation", id.String())
	}
	return gen, nil
}

func (s *generationService) topicWithModule(dbc dbctx.Context, op string, topicID uuid.UUID) (*types.Topic, *types.Module, error) {
	return loadTopicWithModule(dbc, op, s.topics, s.modules, topicID)
}

func (s *generationService) updateErr(op string, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.NotFound(op, "Generation", id.String())
	}
	return apierr.Internal(op, err)
}

func loadTopicWithModule(dbc dbctx.Context, op string, topics repos.TopicRepo, modules repos.ModuleRepo, topicID uuid.UUID) (*types.Topic, *types.Module, error) {
	topic, err := topics.GetByID(dbc, topicID)
	if err != nil {
		return nil, nil, apierr.Internal(op, err)
	}
	if topic == nil {
		return nil, nil, apierr.NotFound(op, "Topic", topicID.String())
	}
	module, err := modules.GetByID(dbc, topic.ModuleID)
	if err != nil {
		return nil, nil, apierr.Internal(op, err)
	}
	if module == nil {
		return nil, nil, apierr.NotFound(op, "Module", topic.ModuleID.String())
	}
	return topic, module, nil
}
