package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/wasset/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	previewStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("#444444")).
			PaddingLeft(1)
)

const (
	listWidth      = 52
	maxHexPreview  = 4096
	defaultWidth   = 120
	defaultHeight  = 30
	chromeHeight   = 4
	previewPadding = 2
)

// browseItem is one asset with its rendered preview.
type browseItem struct {
	entry
	preview string
}

// label is the list text for the item.
func (it browseItem) label() string {
	if it.Path != "" {
		return it.Path
	}
	return it.ID.String()
}

type browseModel struct {
	err       error
	filename  string
	items     []browseItem
	visible   []int
	view      viewport.Model
	filter    textinput.Model
	selected  int
	width     int
	height    int
	filtering bool
}

func newBrowseModel(filename string, items []browseItem) *browseModel {
	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "filter by path or id"
	filter.Width = listWidth - 4

	m := &browseModel{
		filename: filename,
		items:    items,
		view:     viewport.New(defaultWidth-listWidth-previewPadding, defaultHeight-chromeHeight),
		filter:   filter,
		width:    defaultWidth,
		height:   defaultHeight,
	}
	m.applyFilter()
	return m
}

// loadBrowseItems decodes every asset of module and renders its preview.
func (a *app) loadBrowseItems(module []byte, mpath string) ([]browseItem, error) {
	mf, err := loadManifest(mpath)
	if err != nil {
		return nil, err
	}
	entries, err := a.readEntries(module, mf)
	if err != nil {
		return nil, err
	}
	adapter, err := a.adapter()
	if err != nil {
		return nil, err
	}
	items := make([]browseItem, len(entries))
	for i, e := range entries {
		items[i] = browseItem{entry: e, preview: preview(adapter, e.data)}
	}
	return items, nil
}

func preview(adapter schema.Adapter, payload []byte) string {
	asset, err := adapter.Decode(payload)
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("cannot decode payload: %v", err)) +
			"\n\n" + hexPreview(payload)
	}
	switch asset.Kind {
	case schema.KindText:
		return asset.Text
	case schema.KindBinary:
		return hexPreview(asset.Binary)
	}
	out, err := render(asset)
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	return string(out)
}

func hexPreview(data []byte) string {
	if len(data) <= maxHexPreview {
		return hex.Dump(data)
	}
	return hex.Dump(data[:maxHexPreview]) + fmt.Sprintf("... %d more bytes\n", len(data)-maxHexPreview)
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

// applyFilter recomputes the visible items and resets the selection.
func (m *browseModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for i, it := range m.items {
		if q == "" ||
			strings.Contains(strings.ToLower(it.Path), q) ||
			strings.Contains(it.ID.String(), q) {
			m.visible = append(m.visible, i)
		}
	}
	m.selected = 0
	m.showSelected()
}

func (m *browseModel) current() (browseItem, bool) {
	if m.selected < 0 || m.selected >= len(m.visible) {
		return browseItem{}, false
	}
	return m.items[m.visible[m.selected]], true
}

func (m *browseModel) showSelected() {
	it, ok := m.current()
	if !ok {
		m.view.SetContent(helpStyle.Render("no matching assets"))
		return
	}
	m.view.SetContent(it.preview)
	m.view.GotoTop()
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.view.Width = max(msg.Width-listWidth-previewPadding, 10)
		m.view.Height = max(msg.Height-chromeHeight, 3)
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "enter":
				m.filtering = false
				m.filter.Blur()
				return m, nil
			case "esc":
				m.filtering = false
				m.filter.Blur()
				m.filter.Reset()
				m.applyFilter()
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.showSelected()
			}

		case "down", "j":
			if m.selected < len(m.visible)-1 {
				m.selected++
				m.showSelected()
			}

		case "/":
			m.filtering = true
			return m, m.filter.Focus()

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("wasset"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	fmt.Fprintf(&b, "  %d/%d assets\n\n", len(m.visible), len(m.items))

	var list strings.Builder
	rows := max(m.view.Height, 1)
	start := 0
	if m.selected >= rows {
		start = m.selected - rows + 1
	}
	for i := start; i < len(m.visible) && i < start+rows; i++ {
		it := m.items[m.visible[i]]
		line := truncate(it.label(), listWidth-12) + " " + kindStyle.Render(it.Kind)
		if i == m.selected {
			list.WriteString(selectedStyle.Render("> " + line))
		} else {
			list.WriteString("  " + line)
		}
		list.WriteString("\n")
	}

	left := lipgloss.NewStyle().Width(listWidth).Render(list.String())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, previewStyle.Render(m.view.View())))
	b.WriteString("\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("  ")
	}
	b.WriteString(helpStyle.Render("↑/↓ select • pgup/pgdn scroll • / filter • q quit"))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runBrowse(ctx context.Context, a *app, args []string) error {
	var mpath string
	fs := a.newFlagSet("browse", "MODULE [flags]")
	fs.StringVar(&mpath, "manifest", "", "manifest used to show asset paths")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("browse takes exactly one module")
	}
	if !isTerminal(a.stdout) {
		return fmt.Errorf("browse needs an interactive terminal; use list or cat instead")
	}

	module, err := a.readModule(fs.Arg(0))
	if err != nil {
		return err
	}
	items, err := a.loadBrowseItems(module, mpath)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newBrowseModel(fs.Arg(0), items),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithOutput(a.stdout))
	_, err = p.Run()
	return err
}
