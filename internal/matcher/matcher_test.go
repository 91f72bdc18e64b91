package matcher

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/medqa/internal/lexicon"
	"github.com/zero-day-ai/medqa/internal/types"
)

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	lex, err := lexicon.New(map[lexicon.Category][]string{
		lexicon.Disease:  {"肺炎", "高血压", "糖尿病", "感冒"},
		lexicon.Symptom:  {"肺", "头晕", "发烧", "炎", "感冒"},
		lexicon.Drug:     {"阿司匹林"},
		lexicon.Producer: {"拜耳阿司匹林"},
		lexicon.Food:     {"芹菜"},
		lexicon.Negation: {"不"},
	})
	require.NoError(t, err)
	m, err := New(lex)
	require.NoError(t, err)
	return m
}

func TestExtract_OverlapSuppression(t *testing.T) {
	m := newTestMatcher(t)

	got := m.Extract("肺炎的症状")
	require.Len(t, got, 1)
	assert.Equal(t, "肺炎", got[0].Term)
	assert.Equal(t, []lexicon.Category{lexicon.Disease}, got[0].Categories)
}

func TestExtract(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		name     string
		question string
		want     []string
	}{
		{"no vocabulary term", "今天天气怎么样", nil},
		{"empty question", "", nil},
		{"single disease", "高血压有哪些症状", []string{"高血压"}},
		{"order follows position", "头晕是不是高血压", []string{"头晕", "高血压"}},
		{"outer match wins for producer", "拜耳阿司匹林能治什么", []string{"拜耳阿司匹林"}},
		{"inner term kept when it also occurs alone", "肺炎会不会伤肺", []string{"肺炎", "肺"}},
		{"repeated term reported once", "高血压和高血压", []string{"高血压"}},
		{"several entities", "糖尿病能吃芹菜吗", []string{"糖尿病", "芹菜"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Extract(tt.question)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got.Terms())
		})
	}
}

func TestExtract_MultiCategoryTerm(t *testing.T) {
	m := newTestMatcher(t)

	got := m.Extract("感冒怎么办")
	cats, ok := got.Lookup("感冒")
	require.True(t, ok)
	assert.Equal(t, []lexicon.Category{lexicon.Disease, lexicon.Symptom}, cats)

	byCat := got.ByCategory()
	assert.Equal(t, []string{"感冒"}, byCat[lexicon.Disease])
	assert.Equal(t, []string{"感冒"}, byCat[lexicon.Symptom])
	assert.True(t, got.HasCategory(lexicon.Symptom))
	assert.False(t, got.HasCategory(lexicon.Drug))
}

func TestExtract_NegationWordsAreNotEntities(t *testing.T) {
	m := newTestMatcher(t)
	assert.Empty(t, m.Extract("不"))
}

func TestExtract_Concurrent(t *testing.T) {
	m := newTestMatcher(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := m.Extract("糖尿病能吃芹菜吗")
			assert.Equal(t, []string{"糖尿病", "芹菜"}, got.Terms())
		}()
	}
	wg.Wait()
}

func TestNew_EmptyLexicon(t *testing.T) {
	lex, err := lexicon.New(map[lexicon.Category][]string{lexicon.Negation: {"不"}})
	require.NoError(t, err)

	_, err = New(lex)
	assert.Equal(t, types.LEXICON_EMPTY, types.CodeOf(err))
}

func TestEntities_AsMap(t *testing.T) {
	m := newTestMatcher(t)
	got := m.Extract("高血压头晕").AsMap()
	assert.Equal(t, map[string][]lexicon.Category{
		"高血压": {lexicon.Disease},
		"头晕":  {lexicon.Symptom},
	}, got)
}
