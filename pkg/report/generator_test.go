package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-ullrich/XLT/pkg/config"
	"github.com/m-ullrich/XLT/pkg/mergerules"
)

const generatorConfig = `
mergeRules:
  - newName: "{u:1}"
    patterns:
      url: "^https://[^/]+/([a-z]+)"
    excludePatterns:
      name: "^Login"
`

func timerLine(name, url, method string, runtime int) string {
	return fmt.Sprintf("R,%s,1714730000000,%d,false,10,100,200,%s,text/html,%s,agent-01,TMain", name, runtime, url, method)
}

func writeTimerFile(t *testing.T, dir, rel string, lines ...string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestGenerator(t *testing.T, yaml, glob string, workers int) *Generator {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)

	return NewGenerator(cfg, Options{
		InputGlob:  glob,
		Workers:    workers,
		Automatons: mergerules.NewAutomatonTable(),
	})
}

func TestRunClassifiesAndAggregates(t *testing.T) {
	dir := t.TempDir()
	writeTimerFile(t, dir, "agent-01/timers.csv",
		timerLine("HomePage", "https://shop.example.com/home", "GET", 100),
		timerLine("HomePage", "https://shop.example.com/home", "GET", 300),
		timerLine("AddToCart", "https://shop.example.com/cart?add=1", "POST", 50),
	)
	writeTimerFile(t, dir, "agent-02/timers.csv",
		timerLine("Login", "https://shop.example.com/account", "POST", 80),
		"not,a,request,line",
	)

	g := newTestGenerator(t, generatorConfig, filepath.Join(dir, "**", "timers.csv"), 2)

	rep, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, rep.TotalRequests)
	assert.NotEmpty(t, rep.RunID)

	byName := make(map[string]RequestReport, len(rep.Requests))
	for _, r := range rep.Requests {
		byName[r.Name] = r
	}

	// Two home requests merged under the URL capture.
	home, ok := byName["home"]
	require.True(t, ok, "buckets: %v", byName)
	assert.Equal(t, 2, home.Count)
	assert.Equal(t, int64(100), home.MinMillis)
	assert.Equal(t, int64(300), home.MaxMillis)

	cart, ok := byName["cart"]
	require.True(t, ok)
	assert.Equal(t, 1, cart.Count)

	// The exclude pattern keeps Login out of the rule; it stays under
	// its recorded name.
	login, ok := byName["Login"]
	require.True(t, ok)
	assert.Equal(t, 1, login.Count)

	methods := make(map[string]int, len(rep.RequestMethods))
	for _, m := range rep.RequestMethods {
		methods[m.Method] = m.Count
	}
	assert.Equal(t, map[string]int{"GET": 2, "POST": 2}, methods)
}

func TestRunNoMatchingFiles(t *testing.T) {
	g := newTestGenerator(t, generatorConfig, filepath.Join(t.TempDir(), "**", "timers.csv"), 1)

	_, err := g.Run(context.Background())
	assert.ErrorContains(t, err, "no timer files match")
}

func TestRunBadRuleConfiguration(t *testing.T) {
	dir := t.TempDir()
	writeTimerFile(t, dir, "timers.csv", timerLine("Home", "https://x/home", "GET", 10))

	g := newTestGenerator(t, "mergeRules:\n  - newName: x\n    patterns: {url: \"(unclosed\"}",
		filepath.Join(dir, "timers.csv"), 1)

	_, err := g.Run(context.Background())
	assert.ErrorContains(t, err, "building merge rules")
}

func TestRunDropsRecordOnCaptureError(t *testing.T) {
	dir := t.TempDir()
	writeTimerFile(t, dir, "timers.csv",
		timerLine("Home", "https://x/home", "GET", 10),
	)

	// Group 5 does not exist in the pattern; the record is dropped,
	// the run succeeds.
	g := newTestGenerator(t, "mergeRules:\n  - newName: \"{u:5}\"\n    patterns:\n      url: \"/([a-z]+)\"",
		filepath.Join(dir, "timers.csv"), 1)

	rep, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.TotalRequests)
	assert.Equal(t, 1, rep.DroppedRequests)
}

func TestRunStopOnMatchFalseChainsRules(t *testing.T) {
	dir := t.TempDir()
	writeTimerFile(t, dir, "timers.csv",
		timerLine("HomePage", "https://x/home", "GET", 10),
	)

	yaml := `
mergeRules:
  - newName: "{u:1}"
    patterns:
      url: "/([a-z]+)$"
    stopOnMatch: false
  - newName: "{m} {n}"
    patterns:
      method: "^GET$"
`
	g := newTestGenerator(t, yaml, filepath.Join(dir, "timers.csv"), 1)

	rep, err := g.Run(context.Background())
	require.NoError(t, err)

	// The second rule sees the name produced by the first.
	require.Len(t, rep.Requests, 1)
	assert.Equal(t, "GET home", rep.Requests[0].Name)
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	lines := make([]string, 0, 2000)
	for i := 0; i < 2000; i++ {
		lines = append(lines, timerLine("Home", "https://x/home", "GET", 10))
	}
	writeTimerFile(t, dir, "timers.csv", lines...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newTestGenerator(t, generatorConfig, filepath.Join(dir, "timers.csv"), 1)

	_, err := g.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
