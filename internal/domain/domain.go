package domain

import "github.com/yungbote/lawflow-backend/internal/domain/studio"

const (
	StageMK1 = studio.StageMK1
	StageMK2 = studio.StageMK2
	StageMK3 = studio.StageMK3

	ContentLecturePDF     = studio.ContentLecturePDF
	ContentSourceMaterial = studio.ContentSourceMaterial
	ContentTutorialPDF    = studio.ContentTutorialPDF
	ContentTranscript     = studio.ContentTranscript

	GenerationPending   = studio.GenerationPending
	GenerationCompleted = studio.GenerationCompleted
	GenerationFailed    = studio.GenerationFailed
)

type (
	Stage            = studio.Stage
	ContentType      = studio.ContentType
	GenerationStatus = studio.GenerationStatus

	Module      = studio.Module
	Topic       = studio.Topic
	ContentItem = studio.ContentItem
	Generation  = studio.Generation
)

var (
	Stages       = studio.Stages
	ContentTypes = studio.ContentTypes

	ParseStage       = studio.ParseStage
	ParseContentType = studio.ParseContentType
	RequiredContent  = studio.RequiredContent
)
