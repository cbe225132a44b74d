package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/coastkit/internal/config"
	"github.com/san-kum/coastkit/internal/dashboard"
	"github.com/san-kum/coastkit/internal/storage"
	"github.com/san-kum/coastkit/internal/wave"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(model)
	}
	return m
}

func metric(t *testing.T, m model, k string) string {
	t.Helper()
	if m.panel == nil {
		t.Fatalf("no panel rendered")
	}
	mt, ok := m.panel.Metric(k)
	if !ok {
		t.Fatalf("metric %q missing; messages %v", k, m.panel.Messages)
	}
	return mt.Value
}

func TestMenuNavigation(t *testing.T) {
	m := *New(config.DefaultConfig(), nil, "")
	if m.state != stateMenu {
		t.Fatalf("expected menu state")
	}

	m = press(t, m, "up", "down", "down", "down")
	if m.cursor != 2 {
		t.Errorf("cursor should stop at the last module, got %d", m.cursor)
	}

	m = press(t, m, "up", "enter")
	if m.state != stateForm || m.module != dashboard.SedimentTransport {
		t.Fatalf("expected sediment form, got state %d module %v", m.state, m.module)
	}
	m = press(t, m, "esc")
	if m.state != stateMenu {
		t.Errorf("esc should return to the menu")
	}
}

func TestSedimentForm(t *testing.T) {
	m := *New(config.DefaultConfig(), nil, "")
	m = press(t, m, "down", "enter")

	if got := metric(t, m, "transport_rate"); got != "21.2258 m³/s/m" {
		t.Errorf("transport_rate = %q", got)
	}

	// Type a new D50 value.
	m = press(t, m, "down", "enter", "backspace", "backspace", "backspace", "-", "1", "enter")
	if !m.panel.Failed() {
		t.Fatalf("negative grain size should fail")
	}
	if !strings.HasPrefix(m.panel.Messages[0].Text, dashboard.SedimentFailed) {
		t.Errorf("message = %q", m.panel.Messages[0].Text)
	}
	if !strings.Contains(m.View(), dashboard.SedimentFailed) {
		t.Errorf("view should show the error")
	}
}

func TestShorelineAdjust(t *testing.T) {
	m := *New(config.DefaultConfig(), nil, "")
	m = press(t, m, "down", "down", "enter")

	if got := metric(t, m, "omega_aragonite"); got != "3.29" {
		t.Errorf("omega_aragonite = %q", got)
	}
	if got := metric(t, m, "retreat_m"); got != "5.00 meters" {
		t.Errorf("retreat_m = %q", got)
	}

	m = press(t, m, "down", "down", "down", "down", "down", "right")
	if got := metric(t, m, "retreat_m"); got != "5.50 meters" {
		t.Errorf("after one more year retreat_m = %q", got)
	}

	for i := 0; i < 200; i++ {
		m = press(t, m, "right")
	}
	if got := m.value("years"); got != 100 {
		t.Errorf("years should clamp at 100, got %g", got)
	}
	if m.panel.Failed() {
		t.Errorf("clamped years should not fail: %v", m.panel.Err())
	}
}

func TestWaveBrowsing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.nc")
	if err := wave.WriteSample(path, wave.DefaultSampleOptions()); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}

	m := *New(config.DefaultConfig(), nil, path)
	if m.module != dashboard.WaveModeling || m.panel == nil {
		t.Fatalf("expected wave panel on start")
	}
	if m.panel.Failed() {
		t.Fatalf("load failed: %v", m.panel.Err())
	}
	if m.variable != "hs" || m.panel.TimeSteps != 24 {
		t.Errorf("variable %q steps %d", m.variable, m.panel.TimeSteps)
	}

	m = press(t, m, "[", "]", "]")
	if m.timeIndex != 2 || m.panel.TimeIndex != 2 {
		t.Errorf("time index = %d", m.timeIndex)
	}

	m = press(t, m, "v")
	if m.variable != "tp" {
		t.Errorf("variable = %q, want tp", m.variable)
	}

	m = press(t, m, "s")
	if _, ok := m.panel.Metric("dominant_period"); !ok {
		t.Errorf("spectrum view should report the dominant period")
	}
	if !strings.Contains(m.View(), "spectrum") {
		t.Errorf("view should name the spectrum mode")
	}
}

func TestWavePathInput(t *testing.T) {
	m := *New(config.DefaultConfig(), nil, "")
	m = press(t, m, "enter")
	if !m.path.Focused() {
		t.Fatalf("path input should take focus when no file is set")
	}

	m = press(t, m, "n", "o", "n", "e", ".", "n", "c", "enter")
	if m.path.Focused() {
		t.Errorf("enter should leave the path input")
	}
	if !m.panel.Failed() || !strings.HasPrefix(m.panel.Messages[0].Text, dashboard.LoadFailed) {
		t.Errorf("missing file should report %q, got %v", dashboard.LoadFailed, m.panel.Messages)
	}
}

func TestSaveReport(t *testing.T) {
	store := storage.New(t.TempDir())
	m := *New(config.DefaultConfig(), store, "")
	m = press(t, m, "down", "enter", "w")
	if !strings.HasPrefix(m.status, "saved sediment_") {
		t.Fatalf("status = %q", m.status)
	}

	reports, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(reports) != 1 || reports[0].Module != "sediment" {
		t.Errorf("reports = %+v", reports)
	}

	m = press(t, m, "esc", "down", "enter")
	m.store = nil
	m = press(t, m, "w")
	if m.status != "archive disabled" {
		t.Errorf("status = %q", m.status)
	}
}
