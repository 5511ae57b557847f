package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/lawflow-backend/internal/domain/studio"
	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

//go:embed templates/*.yaml
var embedded embed.FS

var templateFiles = map[studio.Stage]string{
	studio.StageMK1: "mk1.yaml",
	studio.StageMK2: "mk2.yaml",
	studio.StageMK3: "mk3.yaml",
}

// Info describes a stage template for display.
type Info struct {
	Stage       studio.Stage `json:"stage"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
}

type templateDoc struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

type compiled struct {
	info Info
	tmpl *template.Template
}

// Input is the data a stage template renders against.
type Input struct {
	TopicName       string
	ModuleName      string
	Files           []string
	PreviousContent string
}

type Builder struct {
	log       *logger.Logger
	templates map[studio.Stage]*compiled
}

// NewBuilder compiles the stage templates, reading from dir when it is set
// and from the embedded defaults otherwise.
func NewBuilder(log *logger.Logger, dir string) (*Builder, error) {
	if strings.TrimSpace(dir) != "" {
		return Load(log, os.DirFS(dir), ".")
	}
	return Load(log, embedded, "templates")
}

// Load compiles one template per stage from root inside fsys.
func Load(log *logger.Logger, fsys fs.FS, root string) (*Builder, error) {
	if log == nil {
		log = logger.Nop()
	}
	b := &Builder{
		log:       log.With("service", "PromptBuilder"),
		templates: make(map[studio.Stage]*compiled, len(templateFiles)),
	}
	for _, stage := range studio.Stages {
		file := path.Join(root, templateFiles[stage])
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, apierr.Configuration("prompts.load", fmt.Sprintf("template file not found for %s: %s", stage, file), err)
		}
		c, err := compile(stage, raw)
		if err != nil {
			return nil, err
		}
		b.templates[stage] = c
	}
	b.log.Debug("Prompt templates loaded", "count", len(b.templates))
	return b, nil
}

func compile(stage studio.Stage, raw []byte) (*compiled, error) {
	var doc templateDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, apierr.Configuration("prompts.load", fmt.Sprintf("invalid template yaml for %s", stage), err)
	}
	if strings.TrimSpace(doc.Name) == "" || strings.TrimSpace(doc.Description) == "" || strings.TrimSpace(doc.Template) == "" {
		return nil, apierr.Configuration("prompts.load", fmt.Sprintf("template for %s must contain name, description and template", stage), nil)
	}
	t, err := template.New(string(stage)).
		Option("missingkey=error").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		Parse(doc.Template)
	if err != nil {
		return nil, apierr.Configuration("prompts.load", fmt.Sprintf("%s template parse", stage), err)
	}
	return &compiled{
		info: Info{Stage: stage, Name: doc.Name, Description: doc.Description},
		tmpl: t,
	}, nil
}

// Build renders the prompt for stage. MK3 needs the completed MK2 text as
// previousContent; the other stages ignore it.
func (b *Builder) Build(stage studio.Stage, topicName, moduleName string, fileNames []string, previousContent string) (string, error) {
	c, ok := b.templates[stage]
	if !ok {
		return "", apierr.Configuration("prompts.build", fmt.Sprintf("unknown stage: %s", stage), nil)
	}
	in := Input{
		TopicName:  topicName,
		ModuleName: moduleName,
		Files:      append([]string(nil), fileNames...),
	}
	if stage == studio.StageMK3 {
		if strings.TrimSpace(previousContent) == "" {
			return "", apierr.Validation("prompts.build", "MK3 requires previous content (MK2 output) to be provided")
		}
		in.PreviousContent = previousContent
	}
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, in); err != nil {
		return "", apierr.Configuration("prompts.build", fmt.Sprintf("failed to render template for %s", stage), err)
	}
	return buf.String(), nil
}

func (b *Builder) Info(stage studio.Stage) (Info, error) {
	c, ok := b.templates[stage]
	if !ok {
		return Info{}, apierr.Configuration("prompts.info", fmt.Sprintf("unknown stage: %s", stage), nil)
	}
	return c.info, nil
}

// RequiredContent is the content each stage's template expects to be attached.
func (b *Builder) RequiredContent(stage studio.Stage) ([]studio.ContentType, error) {
	req, err := studio.RequiredContent(stage)
	if err != nil {
		return nil, apierr.Configuration("prompts.required_content", err.Error(), err)
	}
	return req, nil
}
