package exam_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kiranshivaraju/examforge/internal/exam"
	"github.com/kiranshivaraju/examforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptors() []models.ArchiveDescriptor {
	return []models.ArchiveDescriptor{
		{ID: 2, Name: "Midterm", Course: "Linear Algebra", Professor: "Wang", AcademicYear: 2024, ArchiveType: "midterm"},
		{ID: 1, Name: "Final", Course: "Linear Algebra", Professor: "Lee", AcademicYear: 2023, ArchiveType: "final"},
	}
}

func TestBuild_DefaultPrompt(t *testing.T) {
	b, err := exam.NewPromptBuilder("")
	require.NoError(t, err)

	p, err := b.Build(nil, descriptors())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(p, "You are a teaching assistant for Professor Wang's Linear Algebra course."))
	assert.Contains(t, p, "generate a NEW exam based on 2 past exam papers")
	assert.Contains(t, p, "Past Exam Information:\n- 2024 Midterm (midterm)\n- 2023 Final (final)\n\nCRITICAL REQUIREMENTS:")
	assert.Contains(t, p, "ANSWER KEY - MANDATORY")
	assert.Contains(t, p, "===== ANSWER KEY =====")
	assert.Contains(t, p, "Questions must be ORIGINAL")
	assert.NotContains(t, p, "Lee")
}

func TestBuild_CustomPromptVerbatim(t *testing.T) {
	b, err := exam.NewPromptBuilder("")
	require.NoError(t, err)

	custom := "  keep {{ braces }} as-is  "
	p, err := b.Build(&custom, descriptors())
	require.NoError(t, err)
	assert.Equal(t, custom, p)
}

func TestBuild_EmptyCustomPromptFallsBack(t *testing.T) {
	b, err := exam.NewPromptBuilder("")
	require.NoError(t, err)

	empty := ""
	p, err := b.Build(&empty, descriptors())
	require.NoError(t, err)
	assert.Contains(t, p, "Professor Wang")
}

func TestBuild_NoArchives(t *testing.T) {
	b, err := exam.NewPromptBuilder("")
	require.NoError(t, err)

	_, err = b.Build(nil, nil)
	assert.Error(t, err)
}

func TestNewPromptBuilder_TemplateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	tmpl := "{{.Course}} by {{.Professor}}: {{len .Archives}}{{range .Archives}} [{{.AcademicYear}}]{{end}}"
	require.NoError(t, os.WriteFile(path, []byte(tmpl), 0o600))

	b, err := exam.NewPromptBuilder(path)
	require.NoError(t, err)

	p, err := b.Build(nil, descriptors())
	require.NoError(t, err)
	assert.Equal(t, "Linear Algebra by Wang: 2 [2024] [2023]", p)
}

func TestNewPromptBuilder_MissingFile(t *testing.T) {
	_, err := exam.NewPromptBuilder(filepath.Join(t.TempDir(), "nope.tmpl"))
	assert.Error(t, err)
}

func TestNewPromptBuilder_BadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{.Course"), 0o600))

	_, err := exam.NewPromptBuilder(path)
	assert.Error(t, err)
}

func TestDisclaimer(t *testing.T) {
	assert.True(t, strings.HasPrefix(exam.Disclaimer, "⚠️ 注意事項 / NOTICE ⚠️\n"))
	assert.Contains(t, exam.Disclaimer, "This exam is AI-generated for reference and practice only.")
	assert.True(t, strings.HasSuffix(exam.Disclaimer, strings.Repeat("=", 80)+"\n\n"))
}
