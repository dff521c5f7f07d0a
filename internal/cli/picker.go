package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/okr"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(paletteAccent)
	listNormalStyle   = lipgloss.NewStyle().Foreground(paletteText)
	listDimStyle      = styleFaint
)

// =============================================================================
// RootPickerModel - Interactive root objective selection
// =============================================================================

// RootPickerModel is the bubbletea model for choosing a root objective.
// The first entry selects every root.
type RootPickerModel struct {
	Roots    []okr.Record
	Children map[okr.ID]int
	Cursor   int
	Offset   int
	Height   int
	Selected string
	Quit     bool
}

// NewRootPickerModel creates a picker over the roots of records.
func NewRootPickerModel(records []okr.Record) RootPickerModel {
	children := make(map[okr.ID]int)
	for _, r := range records {
		if r.Parent != "" {
			children[r.Parent]++
		}
	}
	return RootPickerModel{
		Roots:    okr.Roots(records),
		Children: children,
		Height:   15,
	}
}

func (m RootPickerModel) Init() tea.Cmd {
	return nil
}

func (m RootPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quit = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Roots) {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if m.Cursor == 0 {
				m.Selected = okr.SelectAll
			} else {
				m.Selected = string(m.Roots[m.Cursor-1].ID)
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m RootPickerModel) View() string {
	var b strings.Builder

	b.WriteString(styleHeading.Render("Select Objective"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Roots)+1)
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		var line string
		if i == 0 {
			line = fmt.Sprintf("%sAll objectives %s", cursor, listDimStyle.Render(fmt.Sprintf("(%d roots)", len(m.Roots))))
		} else {
			r := m.Roots[i-1]
			name := r.Name
			if name == "" {
				name = "#" + string(r.ID)
			}
			line = fmt.Sprintf("%s%-40s %s", cursor, name, listDimStyle.Render(fmt.Sprintf("%d children", m.Children[r.ID])))
		}
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Roots)+1)))
	return b.String()
}

// pickRoot runs the picker on the terminal and returns the chosen root id,
// or okr.SelectAll.
func pickRoot(ctx context.Context, records []okr.Record) (string, error) {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return "", errors.New(errors.ErrCodeInvalidInput, "--pick needs an interactive terminal; use --root instead")
	}
	if len(okr.Roots(records)) == 0 {
		return okr.SelectAll, nil
	}

	final, err := tea.NewProgram(NewRootPickerModel(records), tea.WithContext(ctx)).Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("root picker: %w", err)
	}
	m := final.(RootPickerModel)
	if m.Quit || m.Selected == "" {
		return "", context.Canceled
	}
	return m.Selected, nil
}
