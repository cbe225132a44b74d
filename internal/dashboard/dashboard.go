// Package dashboard turns form input into rendered result panels. Each
// handler is a pure function of its input; the terminal and web front ends
// call them once per interaction.
package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/coastkit/internal/plot"
	"github.com/san-kum/coastkit/internal/storage"
)

const AppTitle = "Coastal & Ocean Engineering Toolkit"

type Module int

const (
	WaveModeling Module = iota
	SedimentTransport
	ShorelineChange
)

var moduleNames = map[Module]string{
	WaveModeling:      "Wave Modeling",
	SedimentTransport: "Sediment Transport",
	ShorelineChange:   "Shoreline Change Prediction",
}

var moduleSlugs = map[Module]string{
	WaveModeling:      "wave",
	SedimentTransport: "sediment",
	ShorelineChange:   "shoreline",
}

// Modules lists the sidebar entries in display order.
func Modules() []Module {
	return []Module{WaveModeling, SedimentTransport, ShorelineChange}
}

func (m Module) String() string {
	if name, ok := moduleNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Module(%d)", int(m))
}

func (m Module) Slug() string { return moduleSlugs[m] }

// ParseModule accepts a slug or a display name, case-insensitively.
func ParseModule(s string) (Module, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, m := range Modules() {
		if s == m.Slug() || s == strings.ToLower(m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("dashboard: unknown module %q", s)
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is user-facing feedback shown above a panel's results.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Metric is one highlighted result value.
type Metric struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value string  `json:"value"`
	Raw   float64 `json:"raw"`
}

// Panel is the rendered result of one module for one interaction.
type Panel struct {
	Module    Module             `json:"-"`
	Kind      string             `json:"kind"`
	Title     string             `json:"title"`
	Inputs    map[string]float64 `json:"inputs,omitempty"`
	Metrics   []Metric           `json:"metrics"`
	Messages  []Message          `json:"messages"`
	Variables []string           `json:"variables,omitempty"`
	Variable  string             `json:"variable,omitempty"`
	TimeSteps int                `json:"time_steps,omitempty"`
	TimeIndex int                `json:"time_index"`
	Source    string             `json:"source,omitempty"`

	Figure *plot.Figure    `json:"-"`
	Series *storage.Series `json:"-"`
	err    error
}

func newPanel(m Module, kind, title string) *Panel {
	return &Panel{
		Module:   m,
		Kind:     kind,
		Title:    title,
		Inputs:   make(map[string]float64),
		Metrics:  []Metric{},
		Messages: []Message{},
	}
}

// Err is the first calculation error, if any. The panel already carries it
// as a message.
func (p *Panel) Err() error { return p.err }

func (p *Panel) Failed() bool { return p.err != nil }

func (p *Panel) fail(prefix string, err error) {
	if p.err == nil {
		p.err = err
	}
	p.Messages = append(p.Messages, Message{Level: LevelError, Text: fmt.Sprintf("%s: %v", prefix, err)})
}

func (p *Panel) info(level Level, text string) {
	p.Messages = append(p.Messages, Message{Level: level, Text: text})
}

// input records a finite form value for the archive.
func (p *Panel) input(key string, v float64) {
	if finite(v) {
		p.Inputs[key] = v
	}
}

func (p *Panel) metric(key, label, value string, raw float64) {
	if !finite(raw) {
		raw = 0
	}
	p.Metrics = append(p.Metrics, Metric{Key: key, Label: label, Value: value, Raw: raw})
}

// Metric looks a metric up by key.
func (p *Panel) Metric(key string) (Metric, bool) {
	for _, m := range p.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// merge appends the results of another panel of the same page.
func (p *Panel) merge(o *Panel) {
	for k, v := range o.Inputs {
		p.Inputs[k] = v
	}
	p.Metrics = append(p.Metrics, o.Metrics...)
	p.Messages = append(p.Messages, o.Messages...)
	if o.Figure != nil {
		p.Figure = o.Figure
		p.Series = o.Series
	}
	if p.err == nil {
		p.err = o.err
	}
}

// Report converts the panel into an archive record.
func (p *Panel) Report() *storage.Report {
	r := &storage.Report{
		Module:  p.Kind,
		Source:  p.Source,
		Inputs:  p.Inputs,
		Metrics: make(map[string]float64, len(p.Metrics)),
		Series:  p.Series,
	}
	summary := make([]string, 0, len(p.Metrics))
	for _, m := range p.Metrics {
		r.Metrics[m.Key] = m.Raw
		summary = append(summary, m.Label+": "+m.Value)
	}
	r.Summary = strings.Join(summary, "; ")
	return r
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
