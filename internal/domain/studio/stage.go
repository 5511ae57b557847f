package studio

import (
	"fmt"
	"strings"
)

// Stage is one of the three ordered generation phases.
type Stage string

const (
	StageMK1 Stage = "MK1"
	StageMK2 Stage = "MK2"
	StageMK3 Stage = "MK3"
)

// Stages lists every stage in generation order.
var Stages = []Stage{StageMK1, StageMK2, StageMK3}

func (s Stage) Valid() bool {
	switch s {
	case StageMK1, StageMK2, StageMK3:
		return true
	default:
		return false
	}
}

func ParseStage(raw string) (Stage, error) {
	s := Stage(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage: %q", raw)
	}
	return s, nil
}

// ContentType tags an uploaded source file with the material it provides.
type ContentType string

const (
	ContentLecturePDF     ContentType = "LECTURE_PDF"
	ContentSourceMaterial ContentType = "SOURCE_MATERIAL"
	ContentTutorialPDF    ContentType = "TUTORIAL_PDF"
	ContentTranscript     ContentType = "TRANSCRIPT"
)

var ContentTypes = []ContentType{ContentLecturePDF, ContentSourceMaterial, ContentTutorialPDF, ContentTranscript}

func (c ContentType) Valid() bool {
	switch c {
	case ContentLecturePDF, ContentSourceMaterial, ContentTutorialPDF, ContentTranscript:
		return true
	default:
		return false
	}
}

func ParseContentType(raw string) (ContentType, error) {
	c := ContentType(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown content type: %q", raw)
	}
	return c, nil
}

// Label renders the tag for humans: LECTURE_PDF -> "Lecture Pdf".
func (c ContentType) Label() string {
	parts := strings.Split(strings.ToLower(string(c)), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// stageRequirements is cumulative: each stage needs everything the previous one did.
var stageRequirements = map[Stage][]ContentType{
	StageMK1: {ContentLecturePDF},
	StageMK2: {ContentLecturePDF, ContentSourceMaterial, ContentTutorialPDF},
	StageMK3: {ContentLecturePDF, ContentSourceMaterial, ContentTutorialPDF, ContentTranscript},
}

// RequiredContent returns the content types a stage needs, in fixed order.
func RequiredContent(stage Stage) ([]ContentType, error) {
	req, ok := stageRequirements[stage]
	if !ok {
		return nil, fmt.Errorf("unknown stage: %q", string(stage))
	}
	out := make([]ContentType, len(req))
	copy(out, req)
	return out, nil
}
