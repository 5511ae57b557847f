package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lawflow-backend/internal/domain/studio"
)

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Module {
	tb.Helper()
	now := time.Now().UTC()
	m := &types.Module{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedTopic(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, name string) *types.Topic {
	tb.Helper()
	now := time.Now().UTC()
	t := &types.Topic{
		ID:        uuid.New(),
		ModuleID:  moduleID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed topic: %v", err)
	}
	return t
}

// SeedContent creates an active item uploaded at the given offset from now.
func SeedContent(tb testing.TB, ctx context.Context, tx *gorm.DB, topicID uuid.UUID, ct types.ContentType, fileName string, age time.Duration) *types.ContentItem {
	tb.Helper()
	c := &types.ContentItem{
		ID:          uuid.New(),
		TopicID:     topicID,
		ContentType: ct,
		FileName:    fileName,
		UploadedAt:  time.Now().UTC().Add(-age),
		SizeBytes:   int64(len(fileName)),
		Active:      true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed content: %v", err)
	}
	return c
}

func SeedGeneration(tb testing.TB, ctx context.Context, tx *gorm.DB, topicID uuid.UUID, stage types.Stage, version int, status types.GenerationStatus, response *string) *types.Generation {
	tb.Helper()
	now := time.Now().UTC()
	g := &types.Generation{
		ID:           uuid.New(),
		TopicID:      topicID,
		Stage:        stage,
		Version:      version,
		PromptText:   "prompt",
		ResponseText: response,
		Status:       status,
		CreatedAt:    now.Add(time.Duration(version) * time.Millisecond),
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed generation: %v", err)
	}
	return g
}

func Ptr[T any](v T) *T { return &v }
