package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmuoria/career-bot/internal/config"
	"github.com/fmuoria/career-bot/internal/ingestion"
)

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "config.json"),
		"--credentials-path", filepath.Join(dir, "users.csv"),
	}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeDocx(t *testing.T, dir, name, text string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for file, content := range map[string]string{
		"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			`<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`,
		"word/_rels/document.xml.rels": `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	} {
		w, err := zw.Create(file)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestUsersCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "users", "register", "a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, "registered a@x.com\n", out)

	_, err = run(t, dir, "users", "register", "b@x.com", "p2")
	require.NoError(t, err)

	out, err = run(t, dir, "users", "check", "a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, err = run(t, dir, "users", "check", "a@x.com", "P1")
	assert.ErrorIs(t, err, errInvalidLogin)

	out, err = run(t, dir, "users", "lookup", "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "p2\n", out)

	_, err = run(t, dir, "users", "lookup", "nobody")
	assert.ErrorIs(t, err, errUnknownIdentity)

	out, err = run(t, dir, "users", "list")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com\nb@x.com\n", out)
}

func TestUsers_SQLiteBackendFlag(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "users.db")

	_, err := run(t, dir, "--credentials-backend", "sqlite", "--credentials-path", db, "users", "register", "a@x.com", "p1")
	require.NoError(t, err)

	out, err := run(t, dir, "--credentials-backend", "sqlite", "--credentials-path", db, "users", "list")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com\n", out)

	_, err = os.Stat(filepath.Join(dir, "users.csv"))
	assert.True(t, os.IsNotExist(err), "csv store should not be touched")
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	path := writeDocx(t, dir, "cv.docx", "Jane Doe, Software Engineer")

	out, err := run(t, dir, "extract", path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe, Software Engineer\n", out)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0644))

	_, err := run(t, dir, "extract", path)
	assert.ErrorIs(t, err, ingestion.ErrUnsupportedFormat)
}

func TestSuggest(t *testing.T) {
	dir := t.TempDir()
	path := writeDocx(t, dir, "cv.docx", "Senior Data Analyst and project manager")

	out, err := run(t, dir, "suggest", path)
	require.NoError(t, err)
	assert.Equal(t,
		"Data Analyst\thttps://www.linkedin.com/jobs/search/?keywords=Data%20Analyst\n"+
			"Project Manager\thttps://www.linkedin.com/jobs/search/?keywords=Project%20Manager\n",
		out)
}

func TestEvaluate_WritesReport(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 {
			prompt = req.Messages[len(req.Messages)-1].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Strong CV. {\"overall_score\": 80, \"summary\": \"Well structured\"}"}}]}`)
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	dir := t.TempDir()
	path := writeDocx(t, dir, "cv.docx", "Go developer")

	out, err := run(t, dir, "--provider", "openai", "evaluate", path, "--out", filepath.Join(dir, "report"))
	require.NoError(t, err)

	assert.Contains(t, prompt, "Go developer")
	assert.True(t, strings.HasPrefix(out, "Score: 80 / 100 (Good)\n"))
	assert.Contains(t, out, "Report written to "+filepath.Join(dir, "report.xlsx"))

	_, err = os.Stat(filepath.Join(dir, "report.xlsx"))
	assert.NoError(t, err)
}

func TestEvaluate_InvalidConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	path := writeDocx(t, dir, "cv.docx", "cv")

	_, err := run(t, dir, "--provider", "openai", "evaluate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai_api_key is required")
}

func TestServe_InvalidConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := run(t, t.TempDir(), "--provider", "openai", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestUnknownBackend(t *testing.T) {
	_, err := run(t, t.TempDir(), "--credentials-backend", "ldap", "users", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown credentials backend")
}

func TestSampleLibrary(t *testing.T) {
	a := &app{cfg: config.DefaultConfig()}
	a.cfg.SamplesDir = t.TempDir()

	lib, err := a.sampleLibrary(context.Background())
	require.NoError(t, err)
	dirLib, ok := lib.(*ingestion.DirLibrary)
	require.True(t, ok)
	assert.Equal(t, a.cfg.SamplesDir, dirLib.Dir())

	cfg := config.DefaultConfig()
	cfg.SamplesBucket = "cvs"
	cfg.SamplesPrefix = "samples"
	cfg.SamplesEndpoint = "http://localhost:9000"
	assert.Equal(t, ingestion.S3Options{
		Bucket:   "cvs",
		Prefix:   "samples",
		Endpoint: "http://localhost:9000",
	}, samplesS3Options(cfg))
}

func TestConfigFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Model = "from-file"
	cfg.CredentialsBackend = config.BackendXLSX
	require.NoError(t, cfg.SaveTo(filepath.Join(dir, "config.json")))

	a := &app{configPath: filepath.Join(dir, "config.json")}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&a.model, "model", "", "")
	cmd.Flags().StringVar(&a.backend, "credentials-backend", "", "")
	require.NoError(t, cmd.ParseFlags([]string{"--model", "from-flag"}))

	require.NoError(t, a.loadConfig(cmd))
	assert.Equal(t, "from-flag", a.cfg.Model)
	assert.Equal(t, config.BackendXLSX, a.cfg.CredentialsBackend, "unset flags keep file values")
}
