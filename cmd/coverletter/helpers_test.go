package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cover-letter-generator/internal/config"
)

const (
	testKey    = "gsk_test_key_0123456789"
	testLetter = "Dear Hiring Manager,\n\nI would love to join TechCo.\n\nSincerely,\nJane Doe"
	testJob    = "Backend Engineer at TechCo. You will build Go services and own the billing pipeline."
)

const testProfileJSON = "```json\n" +
	`{"name":"Jane Doe","email":"jane@example.com","skills":"go, sql","experience":[{"title":"Engineer","company":"Initech"}]}` +
	"\n```"

// fakeProvider speaks the Groq chat format.
type fakeProvider struct {
	server *httptest.Server
	calls  atomic.Int32
}

// fakeReply answers resume parsing with a profile, extraction (temperature
// 0.1) with job info and everything else with a letter.
func fakeReply(prompt string, temperature float64) string {
	switch {
	case strings.Contains(prompt, "Resume:"):
		return testProfileJSON
	case temperature < 0.2:
		return `{"company":"TechCo","role":"Backend Engineer"}`
	default:
		return testLetter
	}
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	fp := &fakeProvider{}
	fp.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp.calls.Add(1)
		var body struct {
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		var prompt strings.Builder
		for _, m := range body.Messages {
			prompt.WriteString(m.Content)
		}
		resp, _ := json.Marshal(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{
				"role": "assistant", "content": fakeReply(prompt.String(), body.Temperature),
			}}},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(resp)
	}))
	t.Cleanup(fp.server.Close)
	return fp
}

// testEnv is an isolated working set: a config file pointing groq at the fake
// provider, a file store and an output directory.
type testEnv struct {
	dir       string
	config    string
	storePath string
	outDir    string
	provider  *fakeProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clearEnv(t)

	env := &testEnv{dir: t.TempDir(), provider: newFakeProvider(t)}
	env.storePath = filepath.Join(env.dir, "store.json")
	env.outDir = filepath.Join(env.dir, "out")
	env.config = writeTestFile(t, env.dir, "config.json", mustJSON(t, map[string]any{
		"endpoints":  map[string]string{"groq": env.provider.server.URL},
		"output_dir": env.outDir,
	}))
	return env
}

// args prefixes the config and store flags.
func (e *testEnv) args(args ...string) []string {
	return append([]string{"--config", e.config, "--store", config.StoreFile, "--store-path", e.storePath}, args...)
}

func (e *testEnv) writeProfile(t *testing.T) string {
	t.Helper()
	return writeTestFile(t, e.dir, "profile.json", `{
		"name": "Jane Doe",
		"email": "jane@example.com",
		"skills": "Go, SQL",
		"experience": [{"title": "Engineer", "company": "Initech"}]
	}`)
}

// clearEnv hides variables a developer .env could set.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvAPIKey, config.EnvProvider, config.EnvModel, config.EnvStorePassphrase,
		config.EnvDatabaseURL, config.EnvJWTSecret, config.EnvJWTExpiration,
	} {
		t.Setenv(key, "")
	}
}

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the root command in-process with fresh flag values.
func execute(t *testing.T, stdin io.Reader, args ...string) result {
	t.Helper()
	return executeContext(t, context.Background(), stdin, args...)
}

func executeContext(t *testing.T, ctx context.Context, stdin io.Reader, args ...string) result {
	t.Helper()
	resetFlags(rootCmd)
	setContext(rootCmd, ctx)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(stdin)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// setContext replaces the context cobra kept on every command from an earlier run.
func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		setContext(sub, ctx)
	}
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
