package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idcard-api/internal/service"
)

func executeCommand(cmd *cobra.Command, stdin string, args ...string) (string, error) {
	cmd.SetArgs(args)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return buf.String(), err
}

func TestNormalizeCommand(t *testing.T) {
	out, err := executeCommand(newRootCmd(), "", "normalize", "rgb(255,", "0,", "0)")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#ff0000"), out)

	out, err = executeCommand(newRootCmd(), "", "normalize", "papayawhip")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#FFFFFF"), out)
}

func TestThemesCommand(t *testing.T) {
	out, err := executeCommand(newRootCmd(), "", "themes")
	require.NoError(t, err)
	for _, name := range []string{"purple", "blue", "green", "red", "orange", "dark"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "#8B5CF6")
}

func TestLoadScheme(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("primary: rgb(0, 0, 255)\nsecondary: \"#000\"\naccent: wat\ntext: \"#ffffff\"\n"), 0o644))

	scheme, err := loadScheme(good, service.NewThemeService())
	require.NoError(t, err)
	assert.Equal(t, "#0000ff", scheme.Primary)
	assert.Equal(t, "#000", scheme.Secondary)
	assert.Equal(t, "#FFFFFF", scheme.Accent)

	partial := filepath.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(partial, []byte("primary: \"#123456\"\n"), 0o644))
	_, err = loadScheme(partial, service.NewThemeService())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs primary")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("primary: [\n"), 0o644))
	_, err = loadScheme(broken, service.NewThemeService())
	assert.Error(t, err)
}

func fakeRecordsAPI(t *testing.T, login string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			_, _ = w.Write([]byte(login))
		case "/v1/studentResult/student":
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		default:
			_, _ = w.Write([]byte(`{"status":false}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestLoginCommandWritesFaces(t *testing.T) {
	url := fakeRecordsAPI(t, `{"status":true,"payload":{"token":{"access_token":"tok"},"user":{"id":"9","FullName":"Chidi Eze","MatNo":"IAUE/20/9","DepartmentID":1}}}`)
	dir := t.TempDir()

	out, err := executeCommand(newRootCmd(), "secret\n",
		"login", "--records-url", url, "-u", "chidi", "--password-stdin", "--out", dir, "--theme", "dark", "--pdf")
	require.NoError(t, err, out)

	assert.Contains(t, out, "Chidi Eze (IAUE/20/9)")
	assert.Contains(t, out, "N/A, N/A, level N/A")
	assert.Contains(t, out, "estimated")
	for _, name := range []string{"student_front.png", "student_back.png", "student_card.pdf"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size())
	}
}

func TestLoginCommandReportsUpstreamMessage(t *testing.T) {
	url := fakeRecordsAPI(t, `<html>login</html>`)

	_, err := executeCommand(newRootCmd(), "secret\n",
		"login", "--records-url", url, "-u", "chidi", "--password-stdin", "--out", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, "Incorrect credentials. Use your school password.", err.Error())
}

func TestLoginCommandRequiresPassword(t *testing.T) {
	_, err := executeCommand(newRootCmd(), "", "login", "-u", "chidi", "--password-stdin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password is required")
}
