package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/logweave/logweave/pkg/export"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// newViewCmd creates the view command, an interactive browser for a graph
// interchange file written by `analyze -f graphdef`.
func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <graphdef-file>",
		Short: "Browse a graph interchange file interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			def, err := export.ReadGraphDefFile(args[0])
			if err != nil {
				return err
			}
			model := NewGraphViewModel(def)
			_, err = tea.NewProgram(model, tea.WithContext(c.Context())).Run()
			return err
		},
	}
}

// GraphViewModel is the bubbletea model for browsing a graph: a scrolling
// node list on the left half of the screen, the selected node's attributes
// and incoming edges below it.
type GraphViewModel struct {
	Def    export.GraphDef
	Cursor int
	Height int
	Offset int
}

// NewGraphViewModel creates a graph browser over def.
func NewGraphViewModel(def export.GraphDef) GraphViewModel {
	return GraphViewModel{
		Def:    def,
		Height: 15,
	}
}

func (m GraphViewModel) Init() tea.Cmd {
	return nil
}

func (m GraphViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Def.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "g":
			m.Cursor = 0
			m.Offset = 0
		case "G":
			m.Cursor = len(m.Def.Nodes) - 1
			if m.Cursor >= m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m GraphViewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Graph · %d nodes", len(m.Def.Nodes))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Def.Nodes) {
		end = len(m.Def.Nodes)
	}
	for i := m.Offset; i < end; i++ {
		node := m.Def.Nodes[i]
		line := fmt.Sprintf("%s (%d in)", node.Name, len(node.Input))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("> " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if len(m.Def.Nodes) > 0 {
		b.WriteString("\n")
		b.WriteString(m.detailView(m.Def.Nodes[m.Cursor]))
	}
	return b.String()
}

// detailView renders the selected node's attributes and incoming edges.
func (m GraphViewModel) detailView(node export.NodeDef) string {
	var b strings.Builder

	for _, key := range sortedAttrKeys(node.Attr) {
		if strings.HasPrefix(key, export.FlagPrefix) {
			b.WriteString("  " + listDimStyle.Render(strings.TrimPrefix(key, export.FlagPrefix)))
		} else {
			b.WriteString("  " + listDimStyle.Render(key+": ") + StyleValue.Render(node.Attr[key]))
		}
		b.WriteString("\n")
	}
	for _, in := range node.Input {
		b.WriteString("  " + listDimStyle.Render(iconArrow+" from ") + listNormalStyle.Render(in.Source))
		b.WriteString("\n")
	}
	return b.String()
}

func sortedAttrKeys(attr map[string]string) []string {
	keys := make([]string, 0, len(attr))
	for k := range attr {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
