package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/coastkit/internal/carbonate"
	"github.com/san-kum/coastkit/internal/config"
	"github.com/san-kum/coastkit/internal/dashboard"
	"github.com/san-kum/coastkit/internal/plot"
	"github.com/san-kum/coastkit/internal/sediment"
	"github.com/san-kum/coastkit/internal/shoreline"
	"github.com/san-kum/coastkit/internal/storage"
)

const sidebarWidth = 34

var moduleInfo = map[dashboard.Module]string{
	dashboard.WaveModeling:      "NetCDF slice viewer",
	dashboard.SedimentTransport: "bedload formula",
	dashboard.ShorelineChange:   "CO2SYS + linear retreat",
}

type state int

const (
	stateMenu state = iota
	stateForm
)

// field is one numeric form input.
type field struct {
	key     string
	label   string
	value   float64
	step    float64
	integer bool
	min     float64
	max     float64
}

func (f *field) set(v float64) {
	if f.integer {
		v = math.Round(v)
	}
	if f.max > f.min {
		v = math.Max(f.min, math.Min(f.max, v))
	}
	f.value = v
}

func (f field) String() string {
	if f.integer {
		return fmt.Sprintf("%d", int(f.value))
	}
	return fmt.Sprintf("%g", f.value)
}

type model struct {
	state   state
	cursor  int
	modules []dashboard.Module
	module  dashboard.Module

	fields      map[dashboard.Module][]field
	fieldCursor int
	editing     bool
	editBuf     string

	path      textinput.Model
	timeDim   string
	variable  string
	timeIndex int
	spectrum  bool

	panel  *dashboard.Panel
	store  *storage.Store
	status string

	width  int
	height int
}

// New builds the dashboard model. A non-empty path opens the wave module
// with that dataset loaded.
func New(cfg *config.Config, store *storage.Store, path string) *model {
	ti := textinput.New()
	ti.Placeholder = "path/to/model_output.nc"
	ti.Prompt = "file ▸ "
	ti.CharLimit = 512
	ti.Width = 48
	ti.SetValue(path)

	m := &model{
		state:   stateMenu,
		modules: dashboard.Modules(),
		fields: map[dashboard.Module][]field{
			dashboard.SedimentTransport: {
				{key: "velocity", label: "Flow velocity (m/s)", value: cfg.Sediment.Velocity, step: 0.1},
				{key: "d50", label: "Median grain size D50 (mm)", value: cfg.Sediment.D50, step: 0.05},
			},
			dashboard.ShorelineChange: {
				{key: "alkalinity", label: "Total Alkalinity (µmol/kg)", value: cfg.Carbonate.Alkalinity, step: 10},
				{key: "dic", label: "Dissolved Inorganic Carbon (µmol/kg)", value: cfg.Carbonate.DIC, step: 10},
				{key: "temperature", label: "Temperature (°C)", value: cfg.Carbonate.Temperature, step: 0.5},
				{key: "salinity", label: "Salinity", value: cfg.Carbonate.Salinity, step: 0.5},
				{key: "rate", label: "Erosion Rate (m/year)", value: cfg.Shoreline.Rate, step: 0.1},
				{key: "years", label: "Years to Project", value: float64(cfg.Shoreline.Years), step: 1, integer: true,
					min: shoreline.MinYears, max: shoreline.MaxYears},
			},
		},
		path:    ti,
		timeDim: cfg.Wave.TimeDim,
		store:   store,
		width:   110,
		height:  34,
	}
	if path != "" {
		m.module = dashboard.WaveModeling
		m.state = stateForm
		m.run()
	}
	return m
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	if m.path.Focused() {
		var cmd tea.Cmd
		m.path, cmd = m.path.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateForm:
		if m.module == dashboard.WaveModeling {
			return m.waveKey(msg)
		}
		return m.formKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.modules)-1 {
			m.cursor++
		}
	case "enter", " ", "right", "l":
		m.open(m.modules[m.cursor])
		if m.module == dashboard.WaveModeling && m.path.Value() == "" {
			return m, m.path.Focus()
		}
	}
	return m, nil
}

// open switches to a module's form and renders it once with current inputs.
func (m *model) open(mod dashboard.Module) {
	if m.module != mod {
		m.panel = nil
		m.fieldCursor = 0
	}
	m.module = mod
	m.state = stateForm
	m.status = ""
	if mod != dashboard.WaveModeling || m.path.Value() != "" {
		m.run()
	}
}

func (m model) formKey(msg tea.KeyMsg) (model, tea.Cmd) {
	fields := m.fields[m.module]
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(m.editBuf, "%g", &val); err == nil {
				fields[m.fieldCursor].set(val)
			}
			m.editing = false
			m.editBuf = ""
			m.run()
		case "esc":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(fields)-1 {
			m.fieldCursor++
		}
	case "enter", " ":
		m.editing = true
		m.editBuf = fields[m.fieldCursor].String()
	case "left", "h":
		f := &fields[m.fieldCursor]
		f.set(f.value - f.step)
		m.run()
	case "right", "l":
		f := &fields[m.fieldCursor]
		f.set(f.value + f.step)
		m.run()
	case "r":
		m.run()
	case "w":
		m.save()
	}
	return m, nil
}

func (m model) waveKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.path.Focused() {
		switch msg.String() {
		case "enter":
			m.path.Blur()
			m.variable = ""
			m.timeIndex = 0
			m.spectrum = false
			m.run()
			return m, nil
		case "esc", "tab":
			m.path.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.path, cmd = m.path.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "tab", "i", "/":
		return m, m.path.Focus()
	case "]", "right", "l":
		if m.panel != nil && m.timeIndex < m.panel.TimeSteps-1 {
			m.timeIndex++
			m.run()
		}
	case "[", "left", "h":
		if m.timeIndex > 0 {
			m.timeIndex--
			m.run()
		}
	case "v":
		if m.panel != nil && len(m.panel.Variables) > 0 {
			m.variable = nextVariable(m.panel.Variables, m.variable)
			m.run()
		}
	case "s":
		m.spectrum = !m.spectrum
		m.run()
	case "r":
		m.run()
	case "w":
		m.save()
	}
	return m, nil
}

func nextVariable(vars []string, current string) string {
	for i, v := range vars {
		if v == current {
			return vars[(i+1)%len(vars)]
		}
	}
	if len(vars) > 1 {
		return vars[1]
	}
	return vars[0]
}

func (m model) value(key string) float64 {
	for _, f := range m.fields[m.module] {
		if f.key == key {
			return f.value
		}
	}
	return 0
}

// run re-renders the current module from the form state.
func (m *model) run() {
	m.status = ""
	switch m.module {
	case dashboard.WaveModeling:
		req := dashboard.WaveRequest{
			Path:      strings.TrimSpace(m.path.Value()),
			Variable:  m.variable,
			TimeIndex: m.timeIndex,
			TimeDim:   m.timeDim,
		}
		if m.spectrum {
			m.panel = dashboard.WaveSpectrum(req)
		} else {
			m.panel = dashboard.Wave(req)
		}
		if m.panel.Variable != "" {
			m.variable = m.panel.Variable
		}
	case dashboard.SedimentTransport:
		m.panel = dashboard.Sediment(sediment.Input{
			Velocity: m.value("velocity"),
			D50:      m.value("d50"),
		})
	case dashboard.ShorelineChange:
		m.panel = dashboard.ShorelinePage(carbonate.Input{
			Alkalinity:  m.value("alkalinity"),
			DIC:         m.value("dic"),
			Temperature: m.value("temperature"),
			Salinity:    m.value("salinity"),
		}, m.value("rate"), int(m.value("years")))
	}
}

func (m *model) save() {
	if m.store == nil {
		m.status = "archive disabled"
		return
	}
	if m.panel == nil || m.panel.Failed() {
		m.status = "nothing to save"
		return
	}
	id, err := m.store.Save(m.panel.Report())
	if err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	m.status = "saved " + id
}

func (m model) View() string {
	main := m.viewForm()
	if m.state == stateForm {
		main = lipgloss.JoinVertical(lipgloss.Left, main, m.viewPanel())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(), main)
}

func (m model) viewSidebar() string {
	var b strings.Builder
	b.WriteString(plot.Title.Render("Choose Module") + "\n\n")
	for i, mod := range m.modules {
		mark := "○"
		if mod == m.module && m.state == stateForm {
			mark = "◉"
		}
		line := fmt.Sprintf("%s %s", mark, mod)
		if i == m.cursor && m.state == stateMenu {
			b.WriteString(plot.Selected.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("    " + plot.Subtle.Render(moduleInfo[mod]) + "\n")
	}
	b.WriteString("\n" + plot.KeyHint.Render("↑↓ select  enter open  q quit"))
	return plot.Panel.Width(sidebarWidth).Render(b.String())
}

func (m model) viewForm() string {
	var b strings.Builder
	b.WriteString(plot.Title.Render("🌊 "+dashboard.AppTitle) + "\n")
	b.WriteString(plot.Subtle.Render("Model wave dynamics, sediment transport, and shoreline change.") + "\n")
	b.WriteString(plot.Separator(m.mainWidth()) + "\n")

	if m.state == stateMenu {
		return b.String()
	}

	switch m.module {
	case dashboard.WaveModeling:
		b.WriteString(plot.Title.Render("🌊 Wave Modeling") + "\n")
		b.WriteString(m.path.View() + "\n")
		if m.panel != nil && len(m.panel.Variables) > 0 {
			b.WriteString(plot.Subtle.Render("Variables in dataset: "+strings.Join(m.panel.Variables, ", ")) + "\n")
			mode := "slice"
			if m.spectrum {
				mode = "spectrum"
			}
			b.WriteString(fmt.Sprintf("variable %s   %s %d/%d   view %s\n",
				plot.Selected.Render(m.variable), m.timeDim, m.timeIndex, max(m.panel.TimeSteps-1, 0), mode))
		}
		b.WriteString(plot.KeyHint.Render("tab edit path  enter load  [ ] time  v variable  s spectrum  w save  esc back") + "\n")
	case dashboard.SedimentTransport:
		b.WriteString(plot.Title.Render("🏖️ Sediment Transport Calculator") + "\n")
		b.WriteString(m.viewFields())
	case dashboard.ShorelineChange:
		b.WriteString(plot.Title.Render("📉 Shoreline Change Prediction") + "\n")
		b.WriteString(m.viewFields())
	}
	return b.String()
}

func (m model) viewFields() string {
	var b strings.Builder
	for i, f := range m.fields[m.module] {
		val := fmt.Sprintf("%10s", f.String())
		if m.editing && i == m.fieldCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"▋")
		}
		label := fmt.Sprintf("%-38s", f.label)
		if i == m.fieldCursor {
			b.WriteString(plot.Selected.Render("▸ "+label) + plot.MetricValue.Render(val) + "\n")
		} else {
			b.WriteString("  " + plot.MetricLabel.Render(label) + val + "\n")
		}
	}
	b.WriteString(plot.KeyHint.Render("↑↓ select  ←→ adjust  enter edit  r run  w save  esc back") + "\n")
	return b.String()
}

func (m model) viewPanel() string {
	if m.panel == nil {
		return ""
	}
	var b strings.Builder
	for _, msg := range m.panel.Messages {
		b.WriteString(messageStyle(msg.Level).Render(msg.Text) + "\n")
	}
	for _, mt := range m.panel.Metrics {
		b.WriteString(plot.Metric(mt.Label, mt.Value) + "\n")
	}
	if m.panel.Figure != nil {
		b.WriteString("\n" + plot.Terminal(m.panel.Figure, m.mainWidth()-4, m.plotHeight()) + "\n")
	}
	if m.status != "" {
		b.WriteString(plot.Subtle.Render(m.status) + "\n")
	}
	return b.String()
}

func messageStyle(l dashboard.Level) lipgloss.Style {
	switch l {
	case dashboard.LevelSuccess:
		return plot.Success
	case dashboard.LevelWarning:
		return plot.Warning
	case dashboard.LevelError:
		return plot.Failure
	}
	return plot.Subtle
}

func (m model) mainWidth() int {
	return max(m.width-sidebarWidth-6, 40)
}

func (m model) plotHeight() int {
	return max(m.height-20, 8)
}

// Run starts the terminal dashboard on the alternate screen.
func Run(cfg *config.Config, store *storage.Store, path string) error {
	p := tea.NewProgram(New(cfg, store, path), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
