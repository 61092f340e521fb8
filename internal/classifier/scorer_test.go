package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/thoughtguard/internal/rules"
)

var scoringCorpus = []string{
	"",
	"Hola, ¿cómo estás?",
	"Ahora te confirmo el precio: 45,00€",
	"Es Pedro, el del ordenador portátil. Voy a buscar su ficha.",
	"Buenas! Necesito que me digas la talla.",
	"El cliente quiere devolver la chaqueta 👕",
	"<think>The user wants a refund</think>",
	strings.Repeat("Hola. Voy a revisar su pedido. ", 500),
}

func TestScorer_Scenarios(t *testing.T) {
	scorer := NewScorer(rules.DefaultRegistries().Signals)

	t.Run("greeting with question", func(t *testing.T) {
		got := scorer.Score("Hola, ¿cómo estás?")
		assert.Equal(t, -65, got.Score)
		assert.Equal(t, []string{"greeting(-50)", "question_mark(-15)"}, got.MatchedLabels())
	})

	t.Run("hold message with price", func(t *testing.T) {
		got := scorer.Score("Ahora te confirmo el precio: 45,00€")
		assert.Negative(t, got.Score)
		assert.Empty(t, got.Positive())
		assert.Contains(t, got.MatchedLabels(), "hold_message(-30)")
		assert.Contains(t, got.MatchedLabels(), "contains_price(-20)")
	})

	t.Run("leaked narration", func(t *testing.T) {
		got := scorer.Score("Es Pedro, el del ordenador portátil. Voy a buscar su ficha.")
		assert.GreaterOrEqual(t, got.Score, 50)
		assert.Contains(t, got.MatchedLabels(), "client_identification(+50)")
		assert.Contains(t, got.MatchedLabels(), "narrating_action(+45)")
	})

	t.Run("mixed evidence cancels additively", func(t *testing.T) {
		got := scorer.Score("Buenas! Necesito que me digas la talla.")
		assert.Equal(t, []string{"monologue_starter(+35)", "greeting(-50)"}, got.MatchedLabels())
		assert.Equal(t, -15, got.Score)
	})

	t.Run("discourse connectors are not client names", func(t *testing.T) {
		for _, text := range []string{
			"Es decir, el que te enseñé ayer.",
			"Es verdad, la que pediste es más grande.",
		} {
			got := scorer.Score(text)
			assert.Less(t, got.Score, 50, text)
			assert.NotContains(t, got.MatchedLabels(), "client_identification(+50)", text)
		}
	})

	t.Run("customer service phrase", func(t *testing.T) {
		got := scorer.Score("Nuestro servicio de atención al cliente te llamará mañana.")
		assert.Equal(t, []string{"second_person(-20)"}, got.MatchedLabels())
		assert.Equal(t, -20, got.Score)
	})

	t.Run("empty text", func(t *testing.T) {
		got := scorer.Score("")
		assert.Zero(t, got.Score)
		assert.False(t, got.HasMatches())
		assert.Empty(t, got.MatchedLabels())
	})
}

func TestScorer_SumOfMatchedWeights(t *testing.T) {
	reg := rules.DefaultRegistries().Signals
	scorer := NewScorer(reg)

	for _, text := range scoringCorpus {
		want := 0
		for _, sig := range reg.Signals() {
			if sig.Matches(text) {
				want += sig.Weight
			}
		}
		assert.Equal(t, want, scorer.Score(text).Score, "text %.40q", text)
	}
}

func TestScorer_NonMatchingSignalIsNeutral(t *testing.T) {
	base := rules.DefaultSignals()
	extended := append(append([]rules.Rule{}, base...), rules.Rule{
		Label:   "never",
		Pattern: `zzqxjv`,
		Weight:  1000,
	})

	before := NewScorer(rules.MustCompile("base", base))
	after := NewScorer(rules.MustCompile("extended", extended))

	for _, text := range scoringCorpus {
		assert.Equal(t, before.Score(text), after.Score(text), "text %.40q", text)
	}
}

func TestScorer_PreservesRegistryOrder(t *testing.T) {
	reg := rules.MustCompile("ordered", []rules.Rule{
		{Label: "c", Pattern: `c`, Weight: 1},
		{Label: "a", Pattern: `a`, Weight: 2},
		{Label: "b", Pattern: `b`, Weight: -4},
	})
	got := NewScorer(reg).Score("abc")
	require.Len(t, got.Matches, 3)
	assert.Equal(t, []string{"c(+1)", "a(+2)", "b(-4)"}, got.MatchedLabels())
	assert.Equal(t, -1, got.Score)
}

func TestMatch_String(t *testing.T) {
	assert.Equal(t, "greeting(-50)", Match{Label: "greeting", Weight: -50}.String())
	assert.Equal(t, "thought_tag(+60)", Match{Label: "thought_tag", Weight: 60}.String())
	assert.Equal(t, "zero(+0)", Match{Label: "zero"}.String())
}
