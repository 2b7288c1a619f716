package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_Annotate(t *testing.T) {
	in := writeInput(t, "proteins.tsv", "id\tsequence\np1\tMKTAYIAKQR\np2\tMK1\np3\tGAVLIPFMW\n")
	out := filepath.Join(t.TempDir(), "annotated.tsv")
	audit := filepath.Join(t.TempDir(), "audit", "failures.jsonl")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"annotate", in, out, "-w", "2", "--audit-log", audit, "--log-level", "error"},
		&stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id\tsequence\tdomains\tfamily", lines[0])
	assert.Equal(t, "p1\tMKTAYIAKQR\tKinase;ATPase;Zinc finger;Phosphatase\tProtein Kinase", lines[1])
	assert.Equal(t, "p2\tMK1\t\t", lines[2])

	assert.Contains(t, stdout.String(), "3 processed, 2 succeeded, 1 failed")
	assert.Contains(t, stdout.String(), "Protein family distribution:")
	assert.Contains(t, stdout.String(), "Protein Kinase")

	auditData, err := os.ReadFile(audit)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(auditData), "\n"))
	assert.Contains(t, string(auditData), `"key":"MK1"`)
	assert.Contains(t, string(auditData), `"code":"invalid"`)
}

func TestRun_PredictCopiesStructures(t *testing.T) {
	in := writeInput(t, "proteins.csv", "sequence,name\nMKTAYIAKQR,a\nGAVLIPFMW,b\n")
	out := filepath.Join(t.TempDir(), "predicted.csv")
	pdbDir := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"predict", in, out, pdbDir, "--log-level", "error"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	entries, err := os.ReadDir(pdbDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "sequence,name,predicted_pdb,confidence\n"))
	assert.Contains(t, string(data), pdbDir)
}

func TestRun_UsageErrors(t *testing.T) {
	in := writeInput(t, "in.tsv", "sequence\nMKV\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no command", args: nil, want: "usage:"},
		{name: "unknown command", args: []string{"fold", in, "out.tsv"}, want: `unknown command "fold"`},
		{name: "missing output", args: []string{"annotate", in}, want: "annotate needs <input> <output>"},
		{name: "zero workers", args: []string{"annotate", in, "out.tsv", "--workers", "0"}, want: "workers must be >= 1"},
		{name: "bad delimiter", args: []string{"annotate", in, "out.tsv", "--delimiter", "::"}, want: "delimiter"},
		{name: "exec without command", args: []string{"exec", in, "out.tsv"}, want: "command.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestRun_MissingKeyColumnWritesNothing(t *testing.T) {
	in := writeInput(t, "in.tsv", "id\tname\n1\tx\n")
	out := filepath.Join(t.TempDir(), "out.tsv")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"annotate", in, out}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "key field missing")
	assert.NoFileExists(t, out)
}

func TestParse_Precedence(t *testing.T) {
	cfgPath := writeInput(t, "seqflow.yaml", "workers: 2\nkey_field: seq\nitem_timeout: 5s\n")
	t.Setenv("SEQFLOW_WORKERS", "6")

	inv, err := parse([]string{"annotate", "in.tsv", "out.tsv", "--config", cfgPath, "--item-timeout", "1m"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 6, inv.cfg.Workers)
	assert.Equal(t, "seq", inv.cfg.KeyField)
	assert.Equal(t, "1m0s", inv.cfg.ItemTimeout)

	inv, err = parse([]string{"annotate", "in.tsv", "out.tsv", "--config", cfgPath, "-w", "3"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 3, inv.cfg.Workers)
}
