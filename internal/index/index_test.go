package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func testTemplate(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "templates.html")
	writeFile(t, path, "<html><body><p>Total: {TOTAL_FILES}</p>\n<!-- INJECTED_CONTENT -->\n</body></html>")
	return path
}

func TestGeneratorGroupsByDirectoryAndYear(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "downloads", "2013", "a.pdf"), "x")
	writeFile(t, filepath.Join(root, "downloads", "2013", "b.pdf"), "x")
	writeFile(t, filepath.Join(root, "downloads", "unknown", "c.pdf"), "x")
	writeFile(t, filepath.Join(root, "downloads", "notes.txt"), "x")
	writeFile(t, filepath.Join(root, "downloads", ".files", "sidecar.pdf"), "x")

	tmplDir := t.TempDir()
	out := filepath.Join(tmplDir, "index_local.html")
	g := New(root, testTemplate(t, tmplDir), out, zap.NewNop())

	count, err := g.Run()
	require.NoError(t, err)
	require.Equal(t, 3, count)

	html, err := os.ReadFile(out)
	require.NoError(t, err)
	body := string(html)

	require.Contains(t, body, "Total: 3")
	require.Contains(t, body, `<div class="dir-header">downloads<span class="arrow"></span></div>`)
	require.Contains(t, body, `2013 <span class="count">(2 PDFs)</span>`)
	require.Contains(t, body, `No Year Folder <span class="count">(1 PDFs)</span>`)
	require.NotContains(t, body, "sidecar.pdf")
	require.NotContains(t, body, "notes.txt")
	require.NotContains(t, body, "{TOTAL_FILES}")
	require.NotContains(t, body, "<!-- INJECTED_CONTENT -->")
}

func TestGeneratorFindsYearAtAnyDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "archive", "deep", "batch-2014", "x.pdf"), "x")

	tmplDir := t.TempDir()
	out := filepath.Join(tmplDir, "out.html")
	g := New(root, testTemplate(t, tmplDir), out, zap.NewNop())

	count, err := g.Run()
	require.NoError(t, err)
	require.Equal(t, 1, count)

	html, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(html), `2014 <span class="count">(1 PDFs)</span>`)
}

func TestGeneratorEscapesNamesAndLinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "2013", "memo|final & draft.pdf"), "x")

	tmplDir := t.TempDir()
	out := filepath.Join(tmplDir, "out.html")
	g := New(root, testTemplate(t, tmplDir), out, zap.NewNop())

	_, err := g.Run()
	require.NoError(t, err)

	html, err := os.ReadFile(out)
	require.NoError(t, err)
	body := string(html)
	require.Contains(t, body, "memoVertical Barfinal &amp; draft.pdf")
	require.Contains(t, body, "memo%7Cfinal%20&amp;") // href is path-escaped, then printed escaped
	require.NotContains(t, body, ">memo|final")
}

func TestGeneratorRejectsTemplateWithoutMarker(t *testing.T) {
	root := t.TempDir()
	tmplDir := t.TempDir()
	tmpl := filepath.Join(tmplDir, "bad.html")
	writeFile(t, tmpl, "<html>no markers</html>")

	g := New(root, tmpl, filepath.Join(tmplDir, "out.html"), zap.NewNop())
	_, err := g.Run()
	require.Error(t, err)
}

func TestYearFromPath(t *testing.T) {
	tests := []struct {
		segments []string
		want     int
	}{
		{[]string{"downloads", "2013", "a.pdf"}, 2013},
		{[]string{"dump", "scan-1997-q2", "a.pdf"}, 1997},
		{[]string{"downloads", "unknown", "a.pdf"}, 0},
		{[]string{"downloads", "3013", "a.pdf"}, 0},
		{[]string{"downloads", "18970", "a.pdf"}, 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, yearFromPath(tt.segments), "%v", tt.segments)
	}
}
