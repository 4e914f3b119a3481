package exam

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/kiranshivaraju/examforge/pkg/models"
)

//go:embed default_prompt.tmpl
var defaultPromptTemplate string

// Disclaimer is prepended to every generated exam.
const Disclaimer = `⚠️ 注意事項 / NOTICE ⚠️
此試題由 AI 自動生成，僅供參考練習使用。
答案可能有誤，請務必自行確認正確性。
This exam is AI-generated for reference and practice only.
Answers may contain errors. Please verify the correctness yourself.

================================================================================

`

// PromptData is what a prompt template renders from.
type PromptData struct {
	Professor string
	Course    string
	Archives  []models.ArchiveDescriptor
}

// PromptBuilder renders the generation prompt.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder loads the template at path, or the built-in one when path is empty.
func NewPromptBuilder(path string) (*PromptBuilder, error) {
	text := defaultPromptTemplate
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompt template: %w", err)
		}
		text = string(b)
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &PromptBuilder{tmpl: tmpl}, nil
}

// Build returns custom verbatim when set. Otherwise the template is rendered
// with professor and course taken from the first (most recent) archive.
func (b *PromptBuilder) Build(custom *string, archives []models.ArchiveDescriptor) (string, error) {
	if custom != nil && *custom != "" {
		return *custom, nil
	}
	if len(archives) == 0 {
		return "", fmt.Errorf("build prompt: no archives")
	}

	var sb strings.Builder
	err := b.tmpl.Execute(&sb, PromptData{
		Professor: archives[0].Professor,
		Course:    archives[0].Course,
		Archives:  archives,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}
