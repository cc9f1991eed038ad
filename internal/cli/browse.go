package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/spf13/cobra"

	"github.com/arbormap/arbor/pkg/tree"
)

// browseCommand creates the browse command for inspecting a tree file.
func (c *CLI) browseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [tree.json]",
		Short: "Browse the persons in a family tree file",
		Long: `Browse the persons in a family tree file.

Opens an interactive list of all persons with their life dates and
relationship counts. Selecting a person prints their full record.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(args[0])
		},
	}

	return cmd
}

// runBrowse loads the tree and runs the interactive person list.
func (c *CLI) runBrowse(input string) error {
	t, err := tree.ImportJSON(input)
	if err != nil {
		return fmt.Errorf("load tree %s: %w", input, err)
	}
	if len(t.Persons) == 0 {
		printWarning("Tree is empty")
		return nil
	}

	model := NewPersonListModel(t)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("run browser: %w", err)
	}

	m, ok := final.(PersonListModel)
	if !ok || m.Selected == nil {
		return nil
	}

	p := m.Selected
	printNewline()
	printKeyValue("Name", p.Name)
	printKeyValue("ID", p.ID)
	if p.Gender != "" {
		printKeyValue("Gender", p.Gender)
	}
	if p.DateOfBirth != "" {
		printKeyValue("Born", p.DateOfBirth)
	}
	if p.DateOfDeath != "" {
		printKeyValue("Died", p.DateOfDeath)
	}
	if p.Notes != "" {
		printKeyValue("Notes", p.Notes)
	}
	printKeyValue("Position", fmt.Sprintf("%.0f, %.0f", p.X, p.Y))

	return nil
}
