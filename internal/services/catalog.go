package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/lawflow-backend/internal/data/aggregates"
	"github.com/yungbote/lawflow-backend/internal/data/db"
	"github.com/yungbote/lawflow-backend/internal/data/repos"
	types "github.com/yungbote/lawflow-backend/internal/domain"
	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

// ModuleInput carries create/update fields. Nil pointers are left unchanged
// on update; an empty string clears an optional field.
type ModuleInput struct {
	Name                *string `json:"name"`
	ExternalProjectName *string `json:"external_project_name"`
	DocumentDatabaseID  *string `json:"document_database_id"`
}

type CatalogService interface {
	CreateModule(ctx context.Context, in ModuleInput) (*types.Module, error)
	ListModules(ctx context.Context) ([]*types.Module, error)
	GetModule(ctx context.Context, id uuid.UUID) (*types.Module, error)
	UpdateModule(ctx context.Context, id uuid.UUID, in ModuleInput) (*types.Module, error)
	// DeleteModule refuses while the module still has topics.
	DeleteModule(ctx context.Context, id uuid.UUID) error

	CreateTopic(ctx context.Context, moduleID uuid.UUID, name string) (*types.Topic, error)
	ListTopics(ctx context.Context, moduleID uuid.UUID) ([]*types.Topic, error)
	GetTopic(ctx context.Context, id uuid.UUID) (*types.Topic, error)
	RenameTopic(ctx context.Context, id uuid.UUID, name string) (*types.Topic, error)
	// DeleteTopic refuses while the topic has active content or generations.
	DeleteTopic(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	log     *logger.Logger
	tx      aggregates.TxRunner
	modules repos.ModuleRepo
	topics  repos.TopicRepo
	content repos.ContentItemRepo
	gens    repos.GenerationRepo
}

func NewCatalogService(
	baseLog *logger.Logger,
	tx aggregates.TxRunner,
	modules repos.ModuleRepo,
	topics repos.TopicRepo,
	content repos.ContentItemRepo,
	gens repos.GenerationRepo,
) CatalogService {
	return &catalogService{
		log:     baseLog.With("service", "CatalogService"),
		tx:      tx,
		modules: modules,
		topics:  topics,
		content: content,
		gens:    gens,
	}
}

func (s *catalogService) CreateModule(ctx context.Context, in ModuleInput) (*types.Module, error) {
	const op = "catalog.create_module"
	name := ""
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if name == "" {
		return nil, apierr.Validation(op, "module name is required")
	}
	dbc := dbctx.With(ctx)
	if err := s.ensureModuleNameFree(dbc, op, name, uuid.Nil); err != nil {
		return nil, err
	}
	row := &types.Module{
		Name:                name,
		ExternalProjectName: optional(in.ExternalProjectName),
		DocumentDatabaseID:  optional(in.DocumentDatabaseID),
	}
	m, err := s.modules.Create(dbc, row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apierr.Conflict(op, "", fmt.Sprintf("module %q already exists", name))
		}
		return nil, apierr.Internal(op, err)
	}
	s.log.Info("Module created", "module_id", m.ID, "name", m.Name)
	return m, nil
}

func (s *catalogService) ListModules(ctx context.Context) ([]*types.Module, error) {
	rows, err := s.modules.List(dbctx.With(ctx))
	if err != nil {
		return nil, apierr.Internal("catalog.list_modules", err)
	}
	return rows, nil
}

func (s *catalogService) GetModule(ctx context.Context, id uuid.UUID) (*types.Module, error) {
	return s.mustModule(dbctx.With(ctx), "catalog.get_module", id)
}

func (s *catalogService) UpdateModule(ctx context.Context, id uuid.UUID, in ModuleInput) (*types.Module, error) {
	const op = "catalog.update_module"
	dbc := dbctx.With(ctx)
	m, err := s.mustModule(dbc, op, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.Validation(op, "module name is required")
		}
		if name != m.Name {
			if err := s.ensureModuleNameFree(dbc, op, name, id); err != nil {
				return nil, err
			}
			m.Name = name
		}
	}
	if in.ExternalProjectName != nil {
		m.ExternalProjectName = optional(in.ExternalProjectName)
	}
	if in.DocumentDatabaseID != nil {
		m.DocumentDatabaseID = optional(in.DocumentDatabaseID)
	}
	if _, err := s.modules.Update(dbc, m); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apierr.Conflict(op, id.String(), fmt.Sprintf("module %q already exists", m.Name))
		}
		return nil, apierr.Internal(op, err)
	}
	return m, nil
}

func (s *catalogService) DeleteModule(ctx context.Context, id uuid.UUID) error {
	const op = "catalog.delete_module"
	dbc := dbctx.With(ctx)
	if _, err := s.mustModule(dbc, op, id); err != nil {
		return err
	}
	n, err := s.topics.CountByModule(dbc, id)
	if err != nil {
		return apierr.Internal(op, err)
	}
	if n > 0 {
		return apierr.Conflict(op, id.String(), fmt.Sprintf("module still has %d topic(s)", n))
	}
	if _, err := s.modules.Delete(dbc, id); err != nil {
		return apierr.Internal(op, err)
	}
	s.log.Info("Module deleted", "module_id", id)
	return nil
}

func (s *catalogService) CreateTopic(ctx context.Context, moduleID uuid.UUID, name string) (*types.Topic, error) {
	const op = "catalog.create_topic"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.Validation(op, "topic name is required")
	}
	dbc := dbctx.With(ctx)
	if _, err := s.mustModule(dbc, op, moduleID); err != nil {
		return nil, err
	}
	if err := s.ensureTopicNameFree(dbc, op, moduleID, name, uuid.Nil); err != nil {
		return nil, err
	}
	t, err := s.topics.Create(dbc, &types.Topic{ModuleID: moduleID, Name: name})
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	s.log.Info("Topic created", "topic_id", t.ID, "module_id", moduleID, "name", name)
	return t, nil
}

func (s *catalogService) ListTopics(ctx context.Context, moduleID uuid.UUID) ([]*types.Topic, error) {
	const op = "catalog.list_topics"
	dbc := dbctx.With(ctx)
	if _, err := s.mustModule(dbc, op, moduleID); err != nil {
		return nil, err
	}
	rows, err := s.topics.ListByModule(dbc, moduleID)
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	return rows, nil
}

func (s *catalogService) GetTopic(ctx context.Context, id uuid.UUID) (*types.Topic, error) {
	return s.mustTopic(dbctx.With(ctx), "catalog.get_topic", id)
}

func (s *catalogService) RenameTopic(ctx context.Context, id uuid.UUID, name string) (*types.Topic, error) {
	const op = "catalog.rename_topic"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.Validation(op, "topic name is required")
	}
	dbc := dbctx.With(ctx)
	t, err := s.mustTopic(dbc, op, id)
	if err != nil {
		return nil, err
	}
	if name == t.Name {
		return t, nil
	}
	if err := s.ensureTopicNameFree(dbc, op, t.ModuleID, name, id); err != nil {
		return nil, err
	}
	t.Name = name
	if _, err := s.topics.Update(dbc, t); err != nil {
		return nil, apierr.Internal(op, err)
	}
	return t, nil
}

func (s *catalogService) DeleteTopic(ctx context.Context, id uuid.UUID) error {
	const op = "catalog.delete_topic"
	dbc := dbctx.With(ctx)
	if _, err := s.mustTopic(dbc, op, id); err != nil {
		return err
	}
	// Soft-deleted content goes with the topic; anything live blocks it.
	var purged int64
	err := s.tx.InTx(ctx, func(txc dbctx.Context) error {
		items, err := s.content.CountActiveByTopic(txc, id)
		if err != nil {
			return apierr.Internal(op, err)
		}
		gens, err := s.gens.CountByTopic(txc, id)
		if err != nil {
			return apierr.Internal(op, err)
		}
		if items > 0 || gens > 0 {
			return apierr.Conflict(op, id.String(),
				fmt.Sprintf("topic still has %d active content item(s) and %d generation(s)", items, gens))
		}
		if purged, err = s.content.PurgeInactiveByTopic(txc, id); err != nil {
			return apierr.Internal(op, err)
		}
		if _, err := s.topics.Delete(txc, id); err != nil {
			return apierr.Internal(op, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("Topic deleted", "topic_id", id, "purged_content", purged)
	return nil
}

func (s *catalogService) mustModule(dbc dbctx.Context, op string, id uuid.UUID) (*types.Module, error) {
	m, err := s.modules.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	if m == nil {
		return nil, apierr.NotFound(op, "Module", id.String())
	}
	return m, nil
}

func (s *catalogService) mustTopic(dbc dbctx.Context, op string, id uuid.UUID) (*types.Topic, error) {
	t, err := s.topics.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	if t == nil {
		return nil, apierr.NotFound(op, "Topic", id.String())
	}
	return t, nil
}

func (s *catalogService) ensureModuleNameFree(dbc dbctx.Context, op, name string, self uuid.UUID) error {
	existing, err := s.modules.GetByName(dbc, name)
	if err != nil {
		return apierr.Internal(op, err)
	}
	if existing != nil && existing.ID != self {
		return apierr.Conflict(op, existing.ID.String(), fmt.Sprintf("module %q already exists", name))
	}
	return nil
}

func (s *catalogService) ensureTopicNameFree(dbc dbctx.Context, op string, moduleID uuid.UUID, name string, self uuid.UUID) error {
	rows, err := s.topics.ListByModule(dbc, moduleID)
	if err != nil {
		return apierr.Internal(op, err)
	}
	for _, t := range rows {
		if t.ID != self && strings.EqualFold(t.Name, name) {
			return apierr.Conflict(op, t.ID.String(), fmt.Sprintf("topic %q already exists in this module", name))
		}
	}
	return nil
}

func optional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
