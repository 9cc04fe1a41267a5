package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoSectionTemplate - шаблон из двух секций по три шага (всего 6).
func twoSectionTemplate() *PlaybookTemplate {
	return &PlaybookTemplate{
		Name:    "Onboarding",
		Version: 1,
		Sections: PlaybookSections{
			{
				ID: "s1", Name: "Kickoff", Order: 1,
				Steps: []PlaybookStep{
					{ID: "st1", Name: "Intro call", Order: 1},
					{ID: "st2", Name: "Collect requirements", Order: 2},
					{ID: "st3", Name: "Share timeline", Order: 3},
				},
			},
			{
				ID: "s2", Name: "Delivery", Order: 2,
				Steps: []PlaybookStep{
					{ID: "st4", Name: "Setup environment", Order: 1},
					{ID: "st5", Name: "Training session", Order: 2},
					{ID: "st6", Name: "Handover", Order: 3},
				},
			},
		},
	}
}

func completionsFor(stepIDs ...string) []StepCompletion {
	var out []StepCompletion
	for _, id := range stepIDs {
		out = append(out, StepCompletion{InstanceID: 1, StepID: id})
	}
	return out
}

func TestTemplateValidate(t *testing.T) {
	valid := twoSectionTemplate()
	assert.NoError(t, valid.Validate())

	noName := twoSectionTemplate()
	noName.Name = ""
	require.Error(t, noName.Validate())
	assert.Equal(t, "Название шаблона обязательно", noName.Validate().Error())

	noSections := twoSectionTemplate()
	noSections.Sections = nil
	assert.EqualError(t, noSections.Validate(), "Шаблон должен содержать хотя бы одну секцию")

	noSectionName := twoSectionTemplate()
	noSectionName.Sections[0].Name = ""
	assert.EqualError(t, noSectionName.Validate(), "Каждая секция должна иметь название")

	emptySection := twoSectionTemplate()
	emptySection.Sections[1].Steps = nil
	assert.EqualError(t, emptySection.Validate(), "Секция 'Delivery' должна содержать хотя бы один шаг")

	noStepName := twoSectionTemplate()
	noStepName.Sections[0].Steps[2].Name = ""
	assert.EqualError(t, noStepName.Validate(), "Каждый шаг секции 'Kickoff' должен иметь название")
}

func TestTemplateValidate_FirstViolationWins(t *testing.T) {
	// Несколько нарушений сразу: сообщается первое по порядку проверки.
	tpl := twoSectionTemplate()
	tpl.Name = ""
	tpl.Sections = nil
	assert.EqualError(t, tpl.Validate(), "Название шаблона обязательно")
}

func TestSectionsHelpers(t *testing.T) {
	sections := twoSectionTemplate().Sections

	assert.Equal(t, 6, sections.TotalSteps())

	ids := sections.StepIDs()
	assert.Len(t, ids, 6)
	assert.True(t, ids["st1"])
	assert.True(t, ids["st6"])
	assert.False(t, ids["ghost"])

	assert.Equal(t, 0, PlaybookSections{}.TotalSteps())
}

func TestDeepCopy_SnapshotIsolation(t *testing.T) {
	tpl := twoSectionTemplate()

	snapshot, err := tpl.Sections.DeepCopy()
	require.NoError(t, err)
	require.Equal(t, tpl.Sections, snapshot)

	// Правки живого шаблона не должны просачиваться в снапшот.
	tpl.Sections[0].Name = "Renamed"
	tpl.Sections[0].Steps[0].Name = "Changed step"
	tpl.Sections[1].Steps = append(tpl.Sections[1].Steps, PlaybookStep{ID: "st7", Name: "Extra"})

	assert.Equal(t, "Kickoff", snapshot[0].Name)
	assert.Equal(t, "Intro call", snapshot[0].Steps[0].Name)
	assert.Equal(t, 6, snapshot.TotalSteps())
}

func TestDeepCopy_Empty(t *testing.T) {
	copied, err := PlaybookSections(nil).DeepCopy()
	require.NoError(t, err)
	assert.NotNil(t, copied)
	assert.Equal(t, 0, copied.TotalSteps())
}

func TestProgress(t *testing.T) {
	snapshot, err := twoSectionTemplate().Sections.DeepCopy()
	require.NoError(t, err)
	instance := &PlaybookInstance{TemplateSnapshot: snapshot, Status: InstanceStatusActive}

	completed, total, percent := instance.Progress(nil)
	assert.Equal(t, 0, completed)
	assert.Equal(t, 6, total)
	assert.Equal(t, 0, percent)

	// 5 из 6 шагов: 83.33 округляется до 83.
	completed, total, percent = instance.Progress(completionsFor("st1", "st2", "st3", "st4", "st5"))
	assert.Equal(t, 5, completed)
	assert.Equal(t, 6, total)
	assert.Equal(t, 83, percent)

	completed, _, percent = instance.Progress(completionsFor("st1", "st2", "st3", "st4", "st5", "st6"))
	assert.Equal(t, 6, completed)
	assert.Equal(t, 100, percent)
}

func TestProgress_IgnoresUnknownAndDuplicateSteps(t *testing.T) {
	snapshot, err := twoSectionTemplate().Sections.DeepCopy()
	require.NoError(t, err)
	instance := &PlaybookInstance{TemplateSnapshot: snapshot}

	// Шаги вне снапшота (из более новой версии шаблона) в расчет не идут,
	// дубликаты считаются один раз.
	completed, total, percent := instance.Progress(completionsFor("st1", "st1", "ghost", "st2"))
	assert.Equal(t, 2, completed)
	assert.Equal(t, 6, total)
	assert.Equal(t, 33, percent)
}

func TestProgress_EmptySnapshot(t *testing.T) {
	instance := &PlaybookInstance{TemplateSnapshot: PlaybookSections{}}
	completed, total, percent := instance.Progress(completionsFor("st1"))
	assert.Equal(t, 0, completed)
	assert.Equal(t, 0, total)
	assert.Equal(t, 0, percent)
}
