// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package compare implements the interactive comparer: an Input tab with
// the two sequences and a Comparison tab with the rendered alignment.
package compare

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/config"
	"github.com/bionova/seqdiff/internal/sequence"
	"github.com/bionova/seqdiff/internal/ui/components"
	"github.com/bionova/seqdiff/internal/ui/styles"
)

// Tab identifies the visible page.
type Tab int

const (
	TabInput Tab = iota
	TabComparison
)

// String returns the tab title.
func (t Tab) String() string {
	switch t {
	case TabInput:
		return "Input"
	case TabComparison:
		return "Comparison"
	default:
		return "Unknown"
	}
}

const (
	fieldOriginal = iota
	fieldEdited
	fieldCount
)

var fieldNames = [fieldCount]string{"original", "edited"}

// chromeHeight is the rows taken by the tab bar, separator and footer.
const chromeHeight = 5

// =============================================================================
// MODEL
// =============================================================================

// Model is the bubbletea model of the interactive comparer.
type Model struct {
	cfg   *config.Config
	theme *styles.Theme
	keys  KeyMap
	help  help.Model

	tab    Tab
	inputs [fieldCount]textinput.Model
	focus  int

	viewport viewport.Model
	result   *align.Result

	// err is the last validation failure; errField is the input it belongs to
	err      error
	errField int

	width  int
	height int
}

// New creates a comparer pre-filled with the demo pair.
func New(cfg *config.Config) Model {
	if cfg == nil {
		cfg = config.Default()
	}

	m := Model{
		cfg:      cfg,
		theme:    styles.NewTheme(),
		keys:     DefaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(80, 20),
		errField: -1,
		width:    80,
		height:   24,
	}

	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = "ACGT..."
		m.inputs[i] = in
	}
	m.inputs[fieldOriginal].SetValue(sequence.DemoOriginal)
	m.inputs[fieldEdited].SetValue(sequence.DemoEdited)
	m.inputs[fieldOriginal].Focus()
	m.resize(m.width, m.height)
	return m
}

// Tab returns the visible tab.
func (m Model) Tab() Tab {
	return m.tab
}

// Result returns the last successful alignment, or nil.
func (m Model) Result() *align.Result {
	return m.result
}

// Err returns the last validation error, or nil.
func (m Model) Err() error {
	return m.err
}

// Value returns the text of the original (0) or edited (1) input.
func (m Model) Value(field int) string {
	return m.inputs[field].Value()
}

// SetValues replaces both inputs.
func (m *Model) SetValues(original, edited string) {
	m.inputs[fieldOriginal].SetValue(original)
	m.inputs[fieldEdited].SetValue(edited)
	m.clearError()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.tab == TabComparison {
			return m.updateComparison(msg)
		}
		return m.updateInput(msg)
	}

	return m.forward(msg)
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Compare):
		return m.showComparison()
	case key.Matches(msg, m.keys.NextField):
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case key.Matches(msg, m.keys.Swap):
		original, edited := m.Value(fieldOriginal), m.Value(fieldEdited)
		m.SetValues(edited, original)
		return m, nil
	case key.Matches(msg, m.keys.Reset):
		m.SetValues(sequence.DemoOriginal, sequence.DemoEdited)
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	// Typing clears a stale error on the field being edited
	if m.errField == m.focus {
		m.clearError()
	}
	return m.forward(msg)
}

func (m Model) updateComparison(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Inputs):
		m.tab = TabInput
		return m, m.setFocus(m.focus)
	case key.Matches(msg, m.keys.Compare):
		return m.showComparison()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case msg.String() == "q":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// forward hands msg to the focused input.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.tab != TabInput {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// setFocus moves the cursor to input i.
func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = i
	for j := range m.inputs {
		if j != i {
			m.inputs[j].Blur()
		}
	}
	return m.inputs[i].Focus()
}

// showComparison re-aligns the inputs and switches to the Comparison tab.
// Invalid input keeps the Input tab open with the error under its field.
func (m Model) showComparison() (tea.Model, tea.Cmd) {
	if err := m.realign(); err != nil {
		m.tab = TabInput
		return m, m.setFocus(m.errField)
	}
	m.tab = TabComparison
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	return m, nil
}

// realign parses both inputs and aligns them.
func (m *Model) realign() error {
	var seqs [fieldCount]sequence.Sequence
	for i, name := range fieldNames {
		seq, err := sequence.ParseField(name, m.inputs[i].Value())
		if err != nil {
			m.err, m.errField = err, i
			return err
		}
		if limit := m.cfg.Align.MaxLength; limit > 0 && seq.Len() > limit {
			m.err = fmt.Errorf("%d bases exceeds the %d base limit", seq.Len(), limit)
			m.errField = i
			return m.err
		}
		seqs[i] = seq
	}

	m.clearError()
	m.result = align.Align(seqs[fieldOriginal], seqs[fieldEdited])
	m.renderResult()
	return nil
}

func (m *Model) clearError() {
	m.err = nil
	m.errField = -1
}

// resize fits the inputs and viewport to the terminal.
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)
	m.help.Width = width

	for i := range m.inputs {
		m.inputs[i].Width = max(width-14, 10)
	}
	m.viewport.Width = width
	m.viewport.Height = max(height-chromeHeight, 3)
	if m.result != nil {
		m.renderResult()
	}
}

// renderResult draws the alignment into the viewport.
func (m *Model) renderResult() {
	viewer := components.NewAlignmentViewer(m.result)
	viewer.SetSize(m.viewport.Width)
	viewer.SetBlockSize(m.cfg.UI.BlockSize)
	viewer.SetNames(fieldNames[fieldOriginal], fieldNames[fieldEdited])
	viewer.ShowHunks(true)
	m.viewport.SetContent(viewer.View())
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.theme.Separator.Render(strings.Repeat("─", max(m.width, 1))))
	b.WriteString("\n")

	if m.tab == TabComparison {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.renderInputs())
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, 2)
	for _, t := range []Tab{TabInput, TabComparison} {
		style := m.theme.Tab
		if t == m.tab {
			style = m.theme.ActiveTab
		}
		tabs = append(tabs, style.Render(t.String()))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	if m.result != nil {
		row += "  " + m.theme.Subtitle.Render(m.result.Summary())
	}
	return row
}

func (m Model) renderInputs() string {
	var b strings.Builder
	b.WriteString("\n")
	for i, name := range fieldNames {
		label := m.theme.Label
		if i == m.focus {
			label = m.theme.FocusedLabel
		}
		fmt.Fprintf(&b, "  %s %s\n", label.Render(fmt.Sprintf("%-9s", name)), m.inputs[i].View())

		length := len(strings.TrimSpace(m.inputs[i].Value()))
		fmt.Fprintf(&b, "  %s\n", m.theme.Coordinate.Render(fmt.Sprintf("%9s %d characters", "", length)))

		if m.err != nil && m.errField == i {
			fmt.Fprintf(&b, "  %s\n", m.theme.ErrorText.Render(fmt.Sprintf("%9s %s", "", errorText(m.err))))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// errorText drops the field prefix, which the layout already shows.
func errorText(err error) string {
	var ve *sequence.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		return strings.TrimPrefix(err.Error(), ve.Field+": ")
	}
	return err.Error()
}

// Run starts the interactive comparer full screen.
func Run(cfg *config.Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
