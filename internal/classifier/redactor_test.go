package classifier

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/thoughtguard/internal/rules"
)

// redactionCorpus contains no whole-message triggers.
var redactionCorpus = []string{
	"",
	"Hola, ¿cómo estás?",
	"Es Pedro, el del ordenador portátil.\nVoy a buscar su ficha.",
	"Hola Ana!\nEl cliente quiere devolver la chaqueta.\nTe paso el enlace de devolución.",
	"Voy a revisar su pedido.\n\nTu pedido sale mañana.\n",
	"  \nNecesito mirar el stock\n  ¡Gracias por esperar!  \n\n",
	"Buenas! Necesito que me digas la talla.",
	"Let me check the order\r\nTu pedido está en camino\r\n",
}

func TestWholeMessageDetector(t *testing.T) {
	d := NewWholeMessageDetector(rules.DefaultRegistries().WholeMessage)

	label, ok := d.Detect("Veo que el cliente ha enviado una foto\npero no dice qué quiere.")
	assert.True(t, ok)
	assert.Equal(t, "media_without_request", label)

	assert.True(t, d.IsWholeMessageThought("Análisis:\n- quiere cambiar la talla\n- tiene ticket abierto"))
	assert.False(t, d.IsWholeMessageThought("Hola, te envío la foto del producto."))
	assert.False(t, d.IsWholeMessageThought(""))
}

func TestRedactor_WholeMessageShortCircuit(t *testing.T) {
	e := New(nil)
	text := "Hola!\nVeo que Lucía ha mandado un audio,\npero no especifica la talla.\nGracias"

	require.True(t, e.Whole.IsWholeMessageThought(text))
	got := e.FilterThoughts(text)

	assert.Equal(t, "", got.FilteredText)
	assert.Equal(t, []string{text}, got.RemovedLines)
	assert.True(t, got.WholeMessage)
	assert.Equal(t, []string{"media_without_request"}, got.Labels)
	assert.Empty(t, got.KeptLines)
	assert.True(t, got.Emptied())
}

func TestRedactor_Scenarios(t *testing.T) {
	e := New(nil)

	t.Run("everything removed", func(t *testing.T) {
		got := e.FilterThoughts("Es Pedro, el del ordenador portátil.\nVoy a buscar su ficha.")
		assert.Equal(t, "", got.FilteredText)
		assert.Equal(t, []string{"Es Pedro, el del ordenador portátil.", "Voy a buscar su ficha."}, got.RemovedLines)
		assert.Equal(t, []string{"client_identification", "narrating_action"}, got.Labels)
		assert.False(t, got.WholeMessage)
		assert.True(t, got.Emptied())
	})

	t.Run("single line narration", func(t *testing.T) {
		got := e.FilterThoughts("Es Pedro, el del ordenador portátil. Voy a buscar su ficha.")
		assert.Equal(t, "", got.FilteredText)
		assert.Len(t, got.RemovedLines, 1)
	})

	t.Run("middle line removed", func(t *testing.T) {
		got := e.FilterThoughts("Hola Ana!\nEl cliente quiere devolver la chaqueta.\nTe paso el enlace de devolución.")
		assert.Equal(t, "Hola Ana!\nTe paso el enlace de devolución.", got.FilteredText)
		assert.Equal(t, []string{"El cliente quiere devolver la chaqueta."}, got.RemovedLines)
		assert.Equal(t, []string{"third_person_client"}, got.Labels)
		assert.True(t, got.Removed())
	})

	t.Run("safe greeting line retained", func(t *testing.T) {
		text := "Buenas! Necesito que me digas la talla."
		got := e.FilterThoughts(text)
		assert.Equal(t, text, got.FilteredText)
		assert.False(t, got.Removed())
	})

	t.Run("result is trimmed", func(t *testing.T) {
		got := e.FilterThoughts("Voy a revisar su pedido.\n\nTu pedido sale mañana.\n")
		assert.Equal(t, "Tu pedido sale mañana.", got.FilteredText)
	})

	t.Run("labels are deduplicated", func(t *testing.T) {
		got := e.FilterThoughts("El cliente pregunta.\nHola\nLa clienta insiste.")
		assert.Len(t, got.RemovedLines, 2)
		assert.Equal(t, []string{"third_person_client"}, got.Labels)
	})
}

func TestRedactor_Idempotent(t *testing.T) {
	e := New(nil)
	for _, text := range redactionCorpus {
		first := e.FilterThoughts(text)
		require.False(t, e.Whole.IsWholeMessageThought(first.FilteredText))

		second := e.FilterThoughts(first.FilteredText)
		assert.Equal(t, first.FilteredText, second.FilteredText, "text %q", text)
		assert.Empty(t, second.RemovedLines, "text %q", text)
	}
}

func TestRedactor_OnlyDeletes(t *testing.T) {
	e := New(nil)
	for _, text := range redactionCorpus {
		got := e.FilterThoughts(text)
		require.False(t, got.WholeMessage)

		all := append(append([]string{}, got.RemovedLines...), got.KeptLines...)
		assert.ElementsMatch(t, strings.Split(text, "\n"), all, "text %q", text)

		// Kept lines keep their relative order.
		idx := 0
		for _, line := range strings.Split(text, "\n") {
			if idx < len(got.KeptLines) && got.KeptLines[idx] == line {
				idx++
			}
		}
		assert.Equal(t, len(got.KeptLines), idx, "text %q", text)
	}
}

func TestRedactor_FilteredLinesPlusRemoved(t *testing.T) {
	e := New(nil)
	text := "Hola Ana!\nEl cliente quiere devolver la chaqueta.\nTe paso el enlace de devolución."
	got := e.FilterThoughts(text)

	all := append(append([]string{}, got.RemovedLines...), strings.Split(got.FilteredText, "\n")...)
	assert.ElementsMatch(t, strings.Split(text, "\n"), all)
}

func TestEngine_ExplainLines(t *testing.T) {
	e := New(nil)
	verdicts := e.ExplainLines("Hola!\nVoy a buscar su ficha.\n")

	require.Len(t, verdicts, 3)
	assert.Equal(t, ReasonSafe, verdicts[0].Reason)
	assert.Equal(t, "safe_greeting", verdicts[0].Label)
	assert.True(t, verdicts[1].IsThought)
	assert.Equal(t, "narrating_action", verdicts[1].Label)
	assert.Equal(t, ReasonEmpty, verdicts[2].Reason)
}

func TestEngine_ConcurrentUse(t *testing.T) {
	e := New(rules.DefaultRegistries())
	assert.NotNil(t, e.Registries())

	want := make([]Redaction, len(redactionCorpus))
	for i, text := range redactionCorpus {
		want[i] = e.FilterThoughts(text)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, text := range redactionCorpus {
				assert.Equal(t, want[i], e.FilterThoughts(text))
				e.Score(text)
			}
		}()
	}
	wg.Wait()
}
