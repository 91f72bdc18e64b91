package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/medqa/internal/lexicon"
	"github.com/zero-day-ai/medqa/internal/matcher"
	"github.com/zero-day-ai/medqa/internal/types"
)

func newTestMatcher(t *testing.T) *matcher.Matcher {
	t.Helper()
	lex, err := lexicon.New(map[lexicon.Category][]string{
		lexicon.Disease:  {"高血压", "糖尿病", "肺炎"},
		lexicon.Symptom:  {"头晕", "发烧"},
		lexicon.Drug:     {"阿司匹林"},
		lexicon.Food:     {"芹菜"},
		lexicon.Check:    {"血常规"},
		lexicon.Negation: {"不", "忌", "别"},
	})
	require.NoError(t, err)
	m, err := matcher.New(lex)
	require.NoError(t, err)
	return m
}

func newTestClassifier(t *testing.T, opts ...Option) *Classifier {
	t.Helper()
	c, err := NewClassifier(newTestMatcher(t), opts...)
	require.NoError(t, err)
	return c
}

func TestClassifyQuestion(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name     string
		question string
		want     []Intent
	}{
		{"disease symptom", "高血压有哪些症状", []Intent{DiseaseSymptom}},
		{"default disease description", "高血压", []Intent{DiseaseDesc}},
		{"default symptom", "头晕", []Intent{SymptomDisease}},
		{"symptom rule", "头晕是什么症状", []Intent{SymptomDisease}},
		{"negated food", "糖尿病不能吃什么", []Intent{DiseaseNotFood}},
		{"food", "糖尿病吃什么好", []Intent{DiseaseDoFood}},
		{"multi label in rule order", "高血压的症状和并发症", []Intent{DiseaseSymptom, DiseaseAcompany}},
		{"rule order independent of text order", "高血压的原因和症状", []Intent{DiseaseSymptom, DiseaseCause}},
		{"drug use", "阿司匹林治疗什么", []Intent{DrugDisease}},
		{"bare 要 is not a cure trigger", "阿司匹林要怎么服用", nil},
		{"bare 感染 is not an easyget trigger", "肺炎会感染吗", []Intent{DiseaseDesc}},
		{"easyget", "肺炎容易感染什么人", []Intent{DiseaseEasyget}},
		{"check finds disease", "血常规能查出什么病", []Intent{CheckDisease}},
		{"department", "高血压属于什么科", []Intent{DiseaseDepartment}},
		{"drug entity only without trigger", "阿司匹林", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.ClassifyQuestion(tt.question)
			require.NotEmpty(t, res.Entities)
			assert.Equal(t, tt.want, res.Intents)
		})
	}
}

func TestClassifyQuestion_NoEntities(t *testing.T) {
	c := newTestClassifier(t)

	res := c.ClassifyQuestion("今天天气怎么样")
	assert.Empty(t, res.Entities)
	assert.Empty(t, res.Intents)
	assert.True(t, res.Empty())
}

func TestClassify_IntentAddedOnce(t *testing.T) {
	c := newTestClassifier(t)

	q := "高血压和糖尿病有什么症状表现"
	got := c.Classify(q, c.matcher.Extract(q))
	assert.Equal(t, []Intent{DiseaseSymptom}, got)
}

func TestClassify_DefaultIsNeverAdditive(t *testing.T) {
	c := newTestClassifier(t)

	q := "高血压的症状"
	got := c.Classify(q, c.matcher.Extract(q))
	assert.NotContains(t, got, DiseaseDesc)
}

func TestClassify_EmptyEntities(t *testing.T) {
	c := newTestClassifier(t)
	assert.Nil(t, c.Classify("高血压的症状", nil))
}

func TestWithKeywords(t *testing.T) {
	c := newTestClassifier(t, WithKeywords(map[Trigger][]string{
		TriggerSymptom: {"征兆"},
	}))

	assert.Equal(t, []Intent{DiseaseSymptom}, c.ClassifyQuestion("高血压有什么征兆").Intents)
	assert.Equal(t, []Intent{DiseaseDesc}, c.ClassifyQuestion("高血压有哪些症状").Intents)
}

func TestNewClassifier_Validation(t *testing.T) {
	m := newTestMatcher(t)

	_, err := NewClassifier(nil)
	assert.Error(t, err)

	_, err = NewClassifier(m, WithRules([]Rule{{Triggers: []Trigger{TriggerSymptom}, Requires: lexicon.Disease, Intent: "disease_weather"}}))
	assert.Equal(t, types.INTENT_UNKNOWN, types.CodeOf(err))

	_, err = NewClassifier(m, WithRules([]Rule{{Triggers: []Trigger{"mood"}, Requires: lexicon.Disease, Intent: DiseaseDesc}}))
	assert.Equal(t, types.INPUT_INVALID, types.CodeOf(err))

	_, err = NewClassifier(m, WithRules([]Rule{{Triggers: []Trigger{TriggerSymptom}, Requires: lexicon.Negation, Intent: DiseaseDesc}}))
	assert.Equal(t, types.CATEGORY_UNKNOWN, types.CodeOf(err))
}
