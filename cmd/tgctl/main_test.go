package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/thoughtguard/internal/guard"
	apihttp "github.com/fyrsmithlabs/thoughtguard/internal/http"
	"github.com/fyrsmithlabs/thoughtguard/internal/logging"
	"github.com/fyrsmithlabs/thoughtguard/internal/policy"
)

const (
	narration = "Es Pedro, el del ordenador portátil. Voy a buscar su ficha."
	mixed     = "Hola Ana!\nEl cliente quiere devolver la chaqueta.\nTe paso el enlace."
)

// execute runs tgctl with args and stdin, returning stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCmd(t *testing.T) {
	cmd := newRootCmd()
	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"score", "filter", "check", "lines", "rules", "classify", "health"} {
		assert.Contains(t, names, want)
	}
}

func TestScoreCmd(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		out, _, err := execute(t, "Voy a revisar el pedido.\n", "score")
		require.NoError(t, err)
		assert.Contains(t, out, "Score: 45")
	})

	t.Run("file with custom rules", func(t *testing.T) {
		rules := writeFile(t, "rules.toml", "[[signals]]\nlabel = \"pineapple\"\npattern = 'piña'\nweight = 80\n")
		msg := writeFile(t, "msg.txt", "Quiero una piña\n")

		out, _, err := execute(t, "", "score", "--rules", rules, msg)
		require.NoError(t, err)
		assert.Contains(t, out, "Score: 80")
		assert.Contains(t, out, "pineapple")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "Voy a revisar el pedido.", "score", "--json", "-")
		require.NoError(t, err)

		var got struct {
			Score int `json:"score"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, 45, got.Score)
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, err := execute(t, "  \n", "score")
		assert.ErrorContains(t, err, "no input text")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, "", "score", filepath.Join(t.TempDir(), "nope.txt"))
		assert.ErrorContains(t, err, "failed to read file")
	})
}

func TestFilterCmd(t *testing.T) {
	t.Run("removes thought lines", func(t *testing.T) {
		out, errOut, err := execute(t, mixed, "filter")
		require.NoError(t, err)
		assert.Equal(t, "Hola Ana!\nTe paso el enlace.\n", out)
		assert.Contains(t, errOut, "removed 1 line(s)")
		assert.Contains(t, errOut, "third_person_client")
	})

	t.Run("whole message", func(t *testing.T) {
		out, errOut, err := execute(t, "Veo que el cliente ha enviado una foto pero no dice qué quiere.", "filter")
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Contains(t, errOut, "whole message")
	})

	t.Run("nothing removed", func(t *testing.T) {
		out, errOut, err := execute(t, "Hola, ¿cómo estás?", "filter")
		require.NoError(t, err)
		assert.Equal(t, "Hola, ¿cómo estás?\n", out)
		assert.Empty(t, errOut)
	})
}

func TestCheckCmd(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []string
		want  policy.Decision
	}{
		{"narration cancels", narration, nil, policy.Cancel()},
		{"greeting passes", "Hola, ¿cómo estás?", nil, policy.PassThrough()},
		{"below default threshold", "Voy a revisar el pedido.", nil, policy.PassThrough()},
		{"lower threshold cancels", "Voy a revisar el pedido.", []string{"--threshold", "40"}, policy.Cancel()},
		{"threshold is inclusive", "Voy a revisar el pedido.", []string{"--threshold", "45"}, policy.Cancel()},
		{"redaction replaces", mixed, []string{"--strategy", "redaction"}, policy.ReplaceContent("Hola Ana!\nTe paso el enlace.")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"check", "--json"}, tt.args...)
			out, _, err := execute(t, tt.input, args...)
			require.NoError(t, err)

			var got policy.Decision
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("text output", func(t *testing.T) {
		out, _, err := execute(t, mixed, "check", "--strategy", "redaction")
		require.NoError(t, err)
		assert.Contains(t, out, "Decision: replace")
		assert.Contains(t, out, "Content:\nHola Ana!\nTe paso el enlace.")
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, _, err := execute(t, narration, "check", "--strategy", "vibes")
		assert.ErrorIs(t, err, policy.ErrUnknownStrategy)
	})
}

func TestLinesCmd(t *testing.T) {
	out, _, err := execute(t, mixed, "lines")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "keep"))
	assert.True(t, strings.HasPrefix(lines[1], "drop"))
	assert.Contains(t, lines[1], "third_person_client")
	assert.True(t, strings.HasPrefix(lines[2], "keep"))
}

func TestRulesCmd(t *testing.T) {
	t.Run("list built-in", func(t *testing.T) {
		out, _, err := execute(t, "", "rules", "list")
		require.NoError(t, err)
		for _, table := range []string{"[signals]", "[safe]", "[thoughts]", "[whole_message]"} {
			assert.Contains(t, out, table)
		}
		assert.Contains(t, out, "greeting")
	})

	t.Run("validate ok", func(t *testing.T) {
		path := writeFile(t, "rules.toml", "[[thoughts]]\nlabel = \"meta\"\npattern = '^nota interna'\n")
		out, _, err := execute(t, "", "rules", "validate", path)
		require.NoError(t, err)
		assert.Contains(t, out, "ok")
	})

	t.Run("validate reports duplicates", func(t *testing.T) {
		path := writeFile(t, "rules.toml", "[[thoughts]]\nlabel = \"meta\"\npattern = 'a'\n[[thoughts]]\nlabel = \"meta\"\npattern = 'b'\n")
		_, errOut, err := execute(t, "", "rules", "validate", path)
		require.NoError(t, err)
		assert.Contains(t, errOut, "duplicate labels")
	})

	t.Run("validate bad pattern", func(t *testing.T) {
		path := writeFile(t, "rules.toml", "[[safe]]\nlabel = \"broken\"\npattern = '('\n")
		_, _, err := execute(t, "", "rules", "validate", path)
		assert.Error(t, err)
	})

	t.Run("validate requires a file", func(t *testing.T) {
		_, _, err := execute(t, "", "rules", "validate")
		assert.Error(t, err)
	})
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	g, err := guard.New(nil, nil)
	require.NoError(t, err)
	srv, err := apihttp.NewServer(g, logging.NewNop(), nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestClassifyCmd(t *testing.T) {
	ts := newTestServer(t)

	t.Run("cancel", func(t *testing.T) {
		out, _, err := execute(t, narration, "classify", "--server", ts.URL, "--channel", "whatsapp")
		require.NoError(t, err)
		assert.Contains(t, out, "Decision: cancel")
		assert.Contains(t, out, "Strategy: threshold")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "Hola, ¿cómo estás?", "classify", "--server", ts.URL, "--json")
		require.NoError(t, err)

		var v guard.Verdict
		require.NoError(t, json.Unmarshal([]byte(out), &v))
		assert.True(t, v.Decision.IsPass())
		assert.NotEmpty(t, v.ID)
	})

	t.Run("server error", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"invalid request body"}`))
		}))
		defer bad.Close()

		_, _, err := execute(t, narration, "classify", "--server", bad.URL)
		assert.ErrorContains(t, err, "status 400: invalid request body")
	})
}

func TestHealthCmd(t *testing.T) {
	ts := newTestServer(t)

	out, _, err := execute(t, "", "health", "--server", ts.URL+"/")
	require.NoError(t, err)
	assert.Contains(t, out, "Server Status: ok")
	assert.Contains(t, out, "Strategy:      threshold")

	_, _, err = execute(t, "", "health", "--server", "http://127.0.0.1:1")
	assert.ErrorContains(t, err, "failed to connect")
}
