package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/okrtree/pkg/buildinfo"
	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/okr"
)

const recordsJSON = `[
	{"okr_id": 1, "parent_okr": null, "name": "Grow Revenue", "status": "On Track"},
	{"okr_id": 2, "parent_okr": 1, "name": "APAC"},
	{"okr_id": 3, "parent_okr": 1, "name": "EMEA"},
	{"okr_id": 4, "parent_okr": null, "name": "Hire Engineers"}
]`

const boardJSON = `{
	"okrs": [{"okr_id": 1, "name": "Grow Revenue"}],
	"forms": [
		{"form_id": 10, "week": "W1", "entry_date": "2020-01-06", "status": 2},
		{"form_id": 11, "week": "W2", "entry_date": "2020-01-13", "status": 0}
	]
}`

// isolate points every XDG directory at a temp dir so tests never touch
// the user's config or cache.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(configEnv, "")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.out = &out
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func TestLayoutCommand(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "okrs.json", recordsJSON)

	out, err := run(t, "layout", input, "--no-cache")
	require.NoError(t, err)

	l, err := graph.UnmarshalLayout([]byte(out))
	require.NoError(t, err)
	require.Len(t, l.Nodes, 4)
	assert.Equal(t, graph.Position{X: 210, Y: 0}, l.Nodes[0].Position)
	assert.Equal(t, graph.Position{X: 50, Y: 180}, l.Nodes[1].Position)
	assert.Equal(t, graph.Position{X: 370, Y: 180}, l.Nodes[2].Position)
	assert.Equal(t, graph.Position{X: 690, Y: 0}, l.Nodes[3].Position)
}

func TestLayoutCommandRootAndViewer(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "okrs.json", recordsJSON)

	out, err := run(t, "layout", input, "--root", "3", "--flow")
	require.NoError(t, err)

	var flow struct {
		Nodes []struct {
			Position graph.Position `json:"position"`
		} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &flow))
	require.Len(t, flow.Nodes, 1)
	assert.Equal(t, graph.Position{X: 50, Y: 0}, flow.Nodes[0].Position)
}

func TestLayoutCommandToFile(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "okrs.json", recordsJSON)
	output := filepath.Join(dir, "tree.layout.json")

	_, err := run(t, "layout", input, "-o", output)
	require.NoError(t, err)

	l, err := graph.ReadLayoutFile(output)
	require.NoError(t, err)
	assert.Len(t, l.Edges, 2)
}

func TestLayoutCommandErrors(t *testing.T) {
	dir := isolate(t)

	_, err := run(t, "layout")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSource), "got %v", err)

	cyclic := writeFile(t, dir, "cycle.json", `[{"okr_id": 1, "parent_okr": 2}, {"okr_id": 2, "parent_okr": 1}]`)
	_, err = run(t, "layout", cyclic, "--no-cache")
	assert.True(t, errors.Is(err, errors.ErrCodeCyclicHierarchy), "got %v", err)

	orphan := writeFile(t, dir, "orphan.json", `[{"okr_id": 1, "parent_okr": 9}]`)
	_, err = run(t, "layout", orphan, "--strict", "--no-cache")
	assert.True(t, errors.Is(err, errors.ErrCodeUnknownParent), "got %v", err)

	_, err = run(t, "layout", filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)

	_, err = run(t, "layout", "--source", "carrier-pigeon")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSource), "got %v", err)
}

func TestRenderCommand(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "okrs.json", recordsJSON)
	base := filepath.Join(dir, "out", "tree")
	require.NoError(t, os.MkdirAll(filepath.Dir(base), 0o755))

	_, err := run(t, "render", input, "-f", "svg,dot,json", "-o", base, "--title", "FY26")
	require.NoError(t, err)

	svg, err := os.ReadFile(base + ".svg")
	require.NoError(t, err)
	assert.Contains(t, string(svg), "FY26")
	assert.Contains(t, string(svg), "Hire Engineers")

	dot, err := os.ReadFile(base + ".dot")
	require.NoError(t, err)
	assert.Contains(t, string(dot), `"1" -> "2";`)

	_, err = os.Stat(base + ".json")
	assert.NoError(t, err)
}

func TestRenderCommandFromLayout(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "okrs.json", recordsJSON)
	layoutPath := filepath.Join(dir, "okrs.layout.json")
	_, err := run(t, "layout", input, "-o", layoutPath)
	require.NoError(t, err)

	_, err = run(t, "render", layoutPath, "-f", "dot")
	require.NoError(t, err)

	dot, err := os.ReadFile(filepath.Join(dir, "okrs.dot"))
	require.NoError(t, err)
	assert.Contains(t, string(dot), "Grow Revenue")
}

func TestRenderCommandInvalidFormat(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "okrs.json", recordsJSON)

	_, err := run(t, "render", input, "-f", "gif")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)

	_, err = run(t, "render", input, "-t", "tower")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidVizType), "got %v", err)
}

func TestRootsCommand(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "okrs.json", recordsJSON)

	out, err := run(t, "roots", input, "--no-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "Grow Revenue")
	assert.Contains(t, out, "Hire Engineers")
	assert.NotContains(t, out, "APAC")
}

func TestDiscussionsCommand(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "board.json", boardJSON)

	out, err := run(t, "discussions", input, "--filter", "completed")
	require.NoError(t, err)
	assert.Contains(t, out, "Completed (1)")
	assert.Contains(t, out, "Pending (1)")
	assert.Contains(t, out, "W1")
	assert.NotContains(t, out, "W2")

	_, err = run(t, "discussions", input, "--filter", "later")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFilter), "got %v", err)
}

func TestCachePathCommand(t *testing.T) {
	dir := isolate(t)

	out, err := run(t, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache", appName)+"\n", out)
}

func TestCacheClearCommand(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "okrs.json", recordsJSON)

	_, err := run(t, "layout", input)
	require.NoError(t, err)

	cacheRoot := filepath.Join(dir, "cache", appName)
	entries, err := os.ReadDir(cacheRoot)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	_, err = run(t, "cache", "clear")
	require.NoError(t, err)

	var left int
	require.NoError(t, filepath.WalkDir(cacheRoot, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			left++
		}
		return err
	}))
	assert.Zero(t, left)
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	for shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			out, err := run(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, out, appName)
		})
	}

	_, err := run(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestStatusStyle(t *testing.T) {
	tests := []struct {
		status string
		want   any
	}{
		{"Completed", styleOK},
		{"on track", styleAccent},
		{" At Risk ", styleWarn},
		{"Off Track", styleBad},
		{"", styleMuted},
		{"Drafting", styleMuted},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, statusStyle(tt.status))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "okrs.json", `[{"okr_id": 1, "name": "Solo"}]`)
	cfg := writeFile(t, dir, "okrtree.toml", `
[layout]
node_width = 200
margin = 10

[source]
kind = "file"
path = "`+filepath.ToSlash(input)+`"

[cache]
backend = "none"
`)
	t.Setenv(configEnv, cfg)

	out, err := run(t, "layout")
	require.NoError(t, err)

	l, err := graph.UnmarshalLayout([]byte(out))
	require.NoError(t, err)
	require.Len(t, l.Nodes, 1)
	assert.Equal(t, graph.Position{X: 10, Y: 0}, l.Nodes[0].Position)
	assert.Equal(t, 220.0, l.Width)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "absent.toml"), false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = LoadConfig(filepath.Join(dir, "absent.toml"), true)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))

	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"unknown key", "[layout]\nwidth = 3\n", errors.ErrCodeInvalidInput},
		{"bad source kind", "[source]\nkind = \"ftp\"\n", errors.ErrCodeInvalidSource},
		{"bad cache backend", "[cache]\nbackend = \"memcached\"\n", errors.ErrCodeInvalidInput},
		{"bad geometry", "[layout]\nnode_height = 500\n", errors.ErrCodeInvalidInput},
		{"syntax", "[layout\n", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "bad.toml", tt.body)
			_, err := LoadConfig(path, true)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}

	path := writeFile(t, dir, "full.toml", `
[source]
kind = "api"
api_url = "https://okr.example.com/api"
headers = { "X-Tenant" = "acme" }
query = { team_id = "7", status = "All" }

[source.actions]
view = "https://okr.example.com/okrs/{id}"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
redis_db = 2

[server]
addr = ":9090"
`)
	cfg, err = LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, sourceAPI, cfg.Source.Kind)
	assert.Equal(t, "acme", cfg.Source.Headers["X-Tenant"])
	assert.Equal(t, okr.Query{TeamID: "7", Status: okr.StatusAll}, cfg.Source.Query)
	assert.Equal(t, "https://okr.example.com/okrs/{id}", cfg.Source.Actions["view"])
	assert.Equal(t, 2, cfg.Cache.RedisDB)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, graph.DefaultGeometry(), cfg.Layout.Geometry())
}

func TestConfigPath(t *testing.T) {
	isolate(t)

	path, explicit := configPath("/etc/okrtree.toml")
	assert.Equal(t, "/etc/okrtree.toml", path)
	assert.True(t, explicit)

	t.Setenv(configEnv, "/srv/okrtree.toml")
	path, explicit = configPath("")
	assert.Equal(t, "/srv/okrtree.toml", path)
	assert.True(t, explicit)

	t.Setenv(configEnv, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, explicit = configPath("")
	assert.Equal(t, filepath.Join("/tmp/xdg", appName, "config.toml"), path)
	assert.False(t, explicit)
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
	dir, err := cacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/custom-cache", appName), dir)

	t.Setenv("XDG_CACHE_HOME", "")
	dir, err = cacheDir()
	require.NoError(t, err)
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".cache", appName), dir)
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg, pdf,png", []string{"svg", "pdf", "png"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseFormats(tt.input), "parseFormats(%q)", tt.input)
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		output  string
		formats []string
		want    map[string]string
	}{
		{"single with output", nil, "tree.svg", []string{"svg"}, map[string]string{"svg": "tree.svg"}},
		{"multi with output base", nil, "out/tree.svg", []string{"svg", "dot"}, map[string]string{"svg": "out/tree.svg", "dot": "out/tree.dot"}},
		{"from input", []string{"data/okrs.json"}, "", []string{"png"}, map[string]string{"png": "data/okrs.png"}},
		{"from layout input", []string{"okrs.layout.json"}, "", []string{"svg"}, map[string]string{"svg": "okrs.svg"}},
		{"no input", nil, "", []string{"pdf"}, map[string]string{"pdf": "okrtree.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outputPaths(tt.args, tt.output, tt.formats))
		})
	}
}

func TestStatsLine(t *testing.T) {
	line := statsLine(5, 3, 2, true)
	assert.Contains(t, line, "5 objectives")
	assert.Contains(t, line, "3 nodes")
	assert.Contains(t, line, "2 edges")
	assert.Contains(t, line, labelCached)

	line = statsLine(1, 1, 0, false)
	assert.NotContains(t, line, "objectives")
	assert.NotContains(t, line, "edges")
	assert.Contains(t, line, labelFresh)
}

func TestRootPickerModel(t *testing.T) {
	var records []okr.Record
	require.NoError(t, json.Unmarshal([]byte(recordsJSON), &records))

	key := func(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }
	enter := tea.KeyMsg{Type: tea.KeyEnter}

	m := NewRootPickerModel(records)
	require.Len(t, m.Roots, 2)
	assert.Equal(t, 2, m.Children["1"])
	assert.Contains(t, m.View(), "All objectives")

	next, _ := m.Update(enter)
	assert.Equal(t, okr.SelectAll, next.(RootPickerModel).Selected)

	next, _ = m.Update(key("j"))
	next, _ = next.Update(key("j"))
	next, _ = next.Update(key("j"))
	assert.Equal(t, 2, next.(RootPickerModel).Cursor, "cursor stops at the last root")
	next, _ = next.Update(enter)
	assert.Equal(t, "4", next.(RootPickerModel).Selected)

	next, _ = m.Update(key("q"))
	assert.True(t, next.(RootPickerModel).Quit)
}

func TestRootsTable(t *testing.T) {
	var records []okr.Record
	require.NoError(t, json.Unmarshal([]byte(recordsJSON), &records))

	out := rootsTable(records, okr.Roots(records))
	assert.Contains(t, out, "Objective")
	assert.Contains(t, out, "On Track")
}

func TestShippedExamples(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig(filepath.Join("..", "..", "examples", "config.toml"), true)
	require.NoError(t, err)
	assert.Equal(t, graph.DefaultGeometry(), cfg.Layout.Geometry())

	out, err := run(t, "layout", filepath.Join("..", "..", "examples", "okrs.json"), "--no-cache", "--viewer", "u-1")
	require.NoError(t, err)
	l, err := graph.UnmarshalLayout([]byte(out))
	require.NoError(t, err)
	require.Len(t, l.Nodes, 5)

	hire, ok := l.NodeByRecord("4")
	require.True(t, ok)
	assert.Equal(t, 0, hire.Data.Level, "parent 0 means root")
	assert.True(t, hire.Data.IsAssignedToCurrentUser)
	require.NotNil(t, l.Context)
	assert.Len(t, l.Context.Users, 3, "roster comes from the file")
}

func TestCacheKeyerIsVersioned(t *testing.T) {
	key := cacheKeyer().RecordsKey("file:okrs.json", "")
	assert.True(t, strings.HasPrefix(key, appName+"@"+buildinfo.Version+":"), key)
}
