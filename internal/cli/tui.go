package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/arbormap/arbor/pkg/tree"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PersonListModel - Interactive person browser
// =============================================================================

// personRow is one precomputed list entry.
type personRow struct {
	person   *tree.Person
	spouses  int
	children int
}

// PersonListModel is the bubbletea model for browsing tree persons.
type PersonListModel struct {
	Rows     []personRow
	Cursor   int
	Selected *tree.Person
	Height   int
	Offset   int
}

// NewPersonListModel builds the list model from a tree, sorted by name.
func NewPersonListModel(t *tree.Tree) PersonListModel {
	childrenByParent := make(map[string]int)
	for _, rel := range t.ParentChild {
		childrenByParent[rel.ParentID]++
	}

	rows := make([]personRow, 0, len(t.Persons))
	for _, p := range t.Persons {
		rows = append(rows, personRow{
			person:   p,
			spouses:  len(t.MarriagesInvolving(p.ID)),
			children: childrenByParent[p.ID],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].person.Name != rows[j].person.Name {
			return rows[i].person.Name < rows[j].person.Name
		}
		return rows[i].person.ID < rows[j].person.ID
	})

	return PersonListModel{
		Rows:   rows,
		Cursor: 0,
		Height: 15,
		Offset: 0,
	}
}

func (m PersonListModel) Init() tea.Cmd {
	return nil
}

func (m PersonListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Selected = m.Rows[m.Cursor].person
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m PersonListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Family Tree"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Rows) {
		end = len(m.Rows)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		p := r.person

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		lifespan := formatLifespan(p)
		rows = append(rows, []string{
			cursor,
			p.Name,
			p.Gender,
			lifespan,
			fmt.Sprintf("%d", r.spouses),
			fmt.Sprintf("%d", r.children),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "Gender", "Lifespan", "Spouses", "Children").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}

			base := lipgloss.NewStyle()
			if col >= 2 {
				base = base.Foreground(colorGray)
			}
			if actualIdx == m.Cursor {
				return base.Foreground(colorCyan).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// formatLifespan renders "1920 – 1999", "1920 –", or "" from the person's dates.
func formatLifespan(p *tree.Person) string {
	switch {
	case p.DateOfBirth != "" && p.DateOfDeath != "":
		return p.DateOfBirth + " – " + p.DateOfDeath
	case p.DateOfBirth != "":
		return p.DateOfBirth + " –"
	case p.DateOfDeath != "":
		return "– " + p.DateOfDeath
	default:
		return ""
	}
}
