package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var helpText = strings.Join([]string{
	"tab: focus", "enter: open", "ctrl+n: new", "ctrl+s: save", "ctrl+d: delete",
	"ctrl+r: refresh", "ctrl+p: preview", "esc: dismiss", "ctrl+c: quit",
}, "  ")

// View renders the model.
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("jotter"))
	if m.activity != "" {
		s.WriteString("  ")
		s.WriteString(helpStyle.Render(m.activity))
	}
	s.WriteString("\n")

	if m.state.Banner != "" {
		s.WriteString(bannerStyle.Render("Error: " + m.state.Banner))
		s.WriteString(" ")
		s.WriteString(helpStyle.Render("(esc to dismiss)"))
		s.WriteString("\n")
	}

	sidebar := paneStyle
	editor := paneStyle
	if m.focus == focusList {
		sidebar = activePaneStyle
	} else {
		editor = activePaneStyle
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		sidebar.Render(m.sidebarView()),
		editor.Render(m.editorView()),
	))
	s.WriteString("\n")

	if len(m.prompts) > 0 {
		s.WriteString(promptStyle.Render(
			warningStyle.Render(m.prompts[0].question) + "\n" + helpStyle.Render("y: yes  any other key: no"),
		))
		return s.String()
	}

	if m.status != "" {
		s.WriteString(successStyle.Render(m.status))
		s.WriteString("\n")
	}
	s.WriteString(helpStyle.Render(helpText))
	return s.String()
}

func (m Model) sidebarView() string {
	if len(m.state.Notes) == 0 {
		return titleStyle.Render("Notes") + "\n\n" + helpStyle.Render("No notes yet. ctrl+n to write one.")
	}
	return m.list.View()
}

func (m Model) editorView() string {
	var s strings.Builder

	heading := "New note"
	if m.state.HasSelection() {
		heading = "Edit note"
	}
	if m.ctrl.HasUnsavedChanges() {
		heading += " *"
	}
	s.WriteString(titleStyle.Render(heading))
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Title"))
	s.WriteString("\n")
	s.WriteString(m.title.View())
	s.WriteString("\n")
	if m.state.Validation != "" {
		s.WriteString(errorStyle.Render(m.state.Validation))
		s.WriteString("\n")
	}

	s.WriteString(labelStyle.Render("Content"))
	if m.preview {
		s.WriteString(helpStyle.Render(" (preview)"))
		s.WriteString("\n")
		s.WriteString(m.previewText)
	} else {
		s.WriteString("\n")
		s.WriteString(m.content.View())
	}
	return s.String()
}
