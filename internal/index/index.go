// Package index renders a static, self-contained HTML index of the
// downloaded PDF tree, grouped by top-level directory and then by the
// year found in the path.
package index

import (
	"fmt"
	"html"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	totalMarker   = "{TOTAL_FILES}"
	contentMarker = "<!-- INJECTED_CONTENT -->"

	// noYearBucket groups files whose path carries no recognizable year.
	noYearBucket = "No Year Folder"

	// sidecar directories produced by browsers saving pages; never indexed
	sidecarDir = ".files"
)

var yearToken = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

type fileEntry struct {
	relPath string
	name    string
	year    int // 0 when no year token matched
}

// Generator scans a directory tree for PDFs and writes the index file.
type Generator struct {
	root         string
	templatePath string
	outputPath   string
	logger       *zap.Logger
}

// New constructs a Generator rooted at root.
func New(root, templatePath, outputPath string, logger *zap.Logger) *Generator {
	return &Generator{
		root:         root,
		templatePath: templatePath,
		outputPath:   outputPath,
		logger:       logger,
	}
}

// Run scans, groups, renders, and writes the index. It returns the
// number of files indexed.
func (g *Generator) Run() (int, error) {
	template, err := os.ReadFile(g.templatePath)
	if err != nil {
		return 0, fmt.Errorf("read template %s: %w", g.templatePath, err)
	}
	if !strings.Contains(string(template), contentMarker) {
		return 0, fmt.Errorf("template %s missing %s marker", g.templatePath, contentMarker)
	}

	files, err := g.scan()
	if err != nil {
		return 0, err
	}
	g.logger.Info("Scanned for PDF files", zap.Int("count", len(files)))

	content := render(group(files))
	out := strings.ReplaceAll(string(template), totalMarker, strconv.Itoa(len(files)))
	out = strings.ReplaceAll(out, contentMarker, content)

	if err := os.WriteFile(g.outputPath, []byte(out), 0o644); err != nil {
		return 0, fmt.Errorf("write index %s: %w", g.outputPath, err)
	}
	return len(files), nil
}

// scan walks the root collecting PDF files, skipping sidecar folders.
func (g *Generator) scan() ([]fileEntry, error) {
	var files []fileEntry
	err := filepath.WalkDir(g.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == sidecarDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		rel, err := filepath.Rel(g.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		files = append(files, fileEntry{
			relPath: rel,
			name:    d.Name(),
			year:    yearFromPath(strings.Split(rel, "/")),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", g.root, err)
	}
	return files, nil
}

// yearFromPath returns the first 4-digit year token (1900-2099) found
// in any path segment, or 0.
func yearFromPath(segments []string) int {
	for _, seg := range segments {
		if m := yearToken.FindString(seg); m != "" {
			year, _ := strconv.Atoi(m)
			return year
		}
	}
	return 0
}

// group arranges files by top-level directory then by year bucket.
func group(files []fileEntry) map[string]map[string][]fileEntry {
	grouped := make(map[string]map[string][]fileEntry)
	for _, f := range files {
		topDir := f.relPath
		if i := strings.Index(f.relPath, "/"); i >= 0 {
			topDir = f.relPath[:i]
		}
		bucket := noYearBucket
		if f.year != 0 {
			bucket = strconv.Itoa(f.year)
		}
		if grouped[topDir] == nil {
			grouped[topDir] = make(map[string][]fileEntry)
		}
		grouped[topDir][bucket] = append(grouped[topDir][bucket], f)
	}
	return grouped
}

func render(grouped map[string]map[string][]fileEntry) string {
	var b strings.Builder
	for _, topDir := range sortedKeys(grouped) {
		years := grouped[topDir]
		b.WriteString(`<div class="directory collapsed">` + "\n")
		fmt.Fprintf(&b, `  <div class="dir-header">%s<span class="arrow"></span></div>`+"\n", html.EscapeString(topDir))
		b.WriteString(`  <div class="content">` + "\n")

		for _, bucket := range sortedBuckets(years) {
			entries := years[bucket]
			sort.Slice(entries, func(i, j int) bool {
				return strings.ToLower(entries[i].relPath) < strings.ToLower(entries[j].relPath)
			})

			b.WriteString(`    <div class="year collapsed">` + "\n")
			fmt.Fprintf(&b, `      <div class="year-header">%s <span class="count">(%d PDFs)</span><span class="arrow"></span></div>`+"\n", bucket, len(entries))
			b.WriteString(`      <div class="content">` + "\n")
			b.WriteString(`        <div class="table-wrapper"><table><thead><tr><th>Document</th><th>Path</th></tr></thead><tbody>` + "\n")
			for _, f := range entries {
				safeName := html.EscapeString(strings.ReplaceAll(f.name, "|", "Vertical Bar"))
				link := html.EscapeString((&url.URL{Path: f.relPath}).EscapedPath())
				fmt.Fprintf(&b, `          <tr><td><a href="%s" target="_blank">%s</a></td><td><code>%s</code></td></tr>`+"\n",
					link, safeName, html.EscapeString(f.relPath))
			}
			b.WriteString(`        </tbody></table></div>` + "\n")
			b.WriteString(`      </div></div>` + "\n")
		}

		b.WriteString(`  </div></div>` + "\n")
	}
	return b.String()
}

func sortedKeys(m map[string]map[string][]fileEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedBuckets orders year buckets numerically, with the no-year
// bucket last.
func sortedBuckets(m map[string][]fileEntry) []string {
	var years []int
	hasNoYear := false
	for k := range m {
		if k == noYearBucket {
			hasNoYear = true
			continue
		}
		y, _ := strconv.Atoi(k)
		years = append(years, y)
	}
	sort.Ints(years)
	out := make([]string, 0, len(m))
	for _, y := range years {
		out = append(out, strconv.Itoa(y))
	}
	if hasNoYear {
		out = append(out, noYearBucket)
	}
	return out
}
