package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *model) View() string {
	switch m.mode {
	case ModeStartup:
		return m.historyView("recent maps", "enter open · n new · q quit")
	case ModeHistory:
		return m.historyView("history", "enter open · esc back")
	case ModeSetup:
		return m.setupView()
	case ModeLibrary:
		return m.libraryView()
	case ModeFlashcards:
		return m.flashcardsView()
	case ModeNarrative:
		return m.narrativeView()
	case ModeReflection:
		return m.reflectionView()
	default:
		return m.mapView()
	}
}

func (m *model) banner() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errorStyle.Render(m.status)
	}
	return successStyle.Render(m.status)
}

func (m *model) historyView(title, hints string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("mindloom · " + title))
	b.WriteString("\n\n")
	if len(m.entries) == 0 {
		b.WriteString(hintStyle.Render("no saved maps yet, press n to generate one"))
		b.WriteString("\n")
	}
	for i, e := range m.entries {
		line := fmt.Sprintf("%s  %-8s %s",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Size, truncateTo(e.RootLabel, 50))
		if i == m.historyCursor {
			b.WriteString(selStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if banner := m.banner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render(hints))
	return b.String()
}

func (m *model) setupView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("mindloom · new map"))
	b.WriteString("\n\n")

	focus := func(i int, label string) string {
		if m.setupFocus == i {
			return selStyle.Render(label)
		}
		return label
	}
	b.WriteString(focus(0, "chat") + "          " + m.chatInput.View() + "\n")
	b.WriteString(focus(1, "instructions") + "  " + m.instructionInput.View() + "\n")
	b.WriteString(focus(2, "context") + "       " + m.contextMode)
	if m.contextMode == "library" {
		b.WriteString(fmt.Sprintf("  (%d selected, ctrl+l to pick)", len(m.selectedDocIDs())))
	}
	b.WriteString("\n")
	b.WriteString("size          " + m.cfg.MapSize + "\n\n")

	if m.generating {
		b.WriteString(m.spinner.View() + " generating…\n")
	}
	if banner := m.banner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("tab fields · enter generate · ctrl+l library · esc back"))
	return b.String()
}

func (m *model) libraryView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("mindloom · library"))
	b.WriteString("\n\n")

	if m.libLoading {
		b.WriteString(m.spinner.View() + " loading…\n")
	} else if m.library != nil {
		stats := m.library.Stats
		b.WriteString(fmt.Sprintf("%d documents · %s of %s used\n\n",
			stats.DocumentCount, formatBytes(stats.UsedBytes), formatBytes(stats.LimitBytes)))

		b.WriteString("filter  " + m.libFilter.View() + "\n\n")
		for pos, i := range m.libFiltered {
			doc := m.library.Documents[i]
			mark := "[ ]"
			if m.libSelected[doc.ID] {
				mark = "[x]"
			}
			line := fmt.Sprintf("%s %-40s %10s", mark, truncateTo(doc.Name, 40), formatBytes(doc.Size))
			if pos == m.libCursor {
				b.WriteString(selStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		if len(m.libFiltered) == 0 {
			b.WriteString(hintStyle.Render("  no matching documents"))
			b.WriteString("\n")
		}
	}

	if m.libUpload {
		b.WriteString("\nupload  " + m.libPath.View() + "\n")
	}

	b.WriteString("\n")
	if banner := m.banner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("space select · ctrl+u upload · ctrl+x clear all · ctrl+r refresh · esc back"))
	return b.String()
}

func (m *model) mapView() string {
	if m.sess == nil {
		return headerStyle.Render("mindloom") + "\n\n" + hintStyle.Render("no map loaded")
	}

	w, h := m.canvasSize()
	opts := RenderOptions{CursorX: m.cursorX, CursorY: m.cursorY}
	if id, ok := NodeAtCell(m.sess, m.cursorX, m.cursorY); ok {
		opts.HoverNode = id
	}
	switch m.mode {
	case ModeMove:
		opts.SelectedNode = m.moveNode
	case ModeConnect:
		opts.PreviewToCursor = true
		opts.PreviewSnapNode = opts.HoverNode
		if fromID, _, ok := m.sess.PendingConnection(); ok && opts.HoverNode == "" {
			opts.SelectedNode = fromID
		}
	case ModeLabelEdit:
		if id, ok := m.sess.EditingNode(); ok {
			opts.SelectedNode = id
			opts.EditText = m.labelInput.Value()
		}
	}
	if conn, ok := EdgeAtCell(m.sess, m.cursorX, m.cursorY); ok {
		opts.HoverEdge = conn.ID
	}

	canvas := NewCanvas(w, h)
	lines := canvas.Render(m.sess, opts)

	var b strings.Builder
	b.WriteString(m.headerLine())
	b.WriteString("\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m *model) statusLine() string {
	if m.mode == ModeConfirm {
		return errorStyle.Render(m.confirmPrompt() + " (y/n)")
	}
	if banner := m.banner(); banner != "" {
		return banner
	}
	var hints string
	switch m.mode {
	case ModeMove:
		hints = "move: hjkl drag · enter place · esc cancel"
	case ModeConnect:
		hints = "connect: move to target · enter attach · esc cancel"
	case ModeLabelEdit:
		hints = "edit: type label · enter save · esc cancel"
	default:
		hints = "enter move · c connect · e edit · d delete · x cut edge · r reset · u undo · f cards · n story · m send · q quit"
	}
	return statusStyle.Render(hints)
}

func (m *model) confirmPrompt() string {
	switch m.confirmAction {
	case ConfirmDeleteNode:
		label := m.confirmTarget
		if node := m.sess.Node(m.confirmTarget); node != nil {
			label = m.sess.Label(node.ID)
		}
		return fmt.Sprintf("delete %q and reattach its children?", truncateTo(label, 30))
	case ConfirmDeleteConnection:
		return "delete this connection?"
	case ConfirmResetLayout:
		return "discard all edits and restore the original layout?"
	case ConfirmClearLibrary:
		return "delete every document in the library?"
	case ConfirmSendDigest:
		return "send the map digest to the chat?"
	case ConfirmQuit:
		return "quit?"
	}
	return "are you sure?"
}

func (m *model) flashcardsView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("mindloom · flashcards"))
	b.WriteString("\n\n")

	switch {
	case m.cardsLoading && m.deck == nil:
		b.WriteString(m.spinner.View() + " generating cards…\n")
	case m.deckMessage != "":
		b.WriteString(errorStyle.Render("not enough context: " + m.deckMessage))
		b.WriteString("\n")
	case m.deck == nil || m.deck.Len() == 0:
		b.WriteString(hintStyle.Render("no cards yet, press g to generate"))
		b.WriteString("\n")
	default:
		card, _ := m.deck.Current()
		face := card.Front
		side := "front"
		if m.deck.BackUp() {
			face = card.Back
			side = "back"
		}
		b.WriteString(cardStyle.Width(clampInt(m.width-8, 30, 70)).Render(face))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("card %d/%d · %s", m.deck.Index()+1, m.deck.Len(), side))
		if m.cardsLoading {
			b.WriteString("  " + m.spinner.View() + " more on the way")
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if banner := m.banner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("space flip · h/l prev/next · g more · esc back"))
	return b.String()
}

func (m *model) narrativeView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("mindloom · narrative"))
	b.WriteString("\n\n")

	switch {
	case m.narConfiguring:
		b.WriteString(fmt.Sprintf("type        < %s >\n", narrativeTypes[m.narType]))
		b.WriteString(fmt.Sprintf("complexity  < %s >\n\n", narrativeComplexities[m.narComplex]))
		b.WriteString(hintStyle.Render("h/l type · j/k complexity · enter generate · esc back"))
		return b.String()
	case m.narLoading:
		b.WriteString(m.spinner.View() + " working…\n")
	case m.narrative == nil:
		b.WriteString(hintStyle.Render("no narrative yet, press G to generate"))
		b.WriteString("\n")
	case m.reader != nil:
		b.WriteString(m.interactiveView())
	default:
		pages := m.narrative.Pages()
		if len(pages) > 0 {
			b.WriteString(wrapText(pages[m.pageIndex], clampInt(m.width-4, 30, 90)))
			b.WriteString("\n\n")
			b.WriteString(fmt.Sprintf("page %d/%d", m.pageIndex+1, len(pages)))
			b.WriteString("\n")
		}
	}

	if m.feedback != nil {
		b.WriteString("\n" + headerStyle.Render("feedback") + "\n")
		if m.feedback.ConceptualUnderstanding != "" {
			b.WriteString("understanding  " + m.feedback.ConceptualUnderstanding + "\n")
		}
		if m.feedback.DecisionReasoning != "" {
			b.WriteString("reasoning      " + m.feedback.DecisionReasoning + "\n")
		}
		if m.feedback.TransferApplication != "" {
			b.WriteString("transfer       " + m.feedback.TransferApplication + "\n")
		}
	}

	b.WriteString("\n")
	if banner := m.banner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("h/l pages · 1-9 choose · r restart · w reflect · G regenerate · esc back"))
	return b.String()
}

func (m *model) interactiveView() string {
	var b strings.Builder
	node := m.reader.Current()
	if node == nil {
		return errorStyle.Render("story state lost")
	}
	b.WriteString(wrapText(node.Content, clampInt(m.width-4, 30, 90)))
	b.WriteString("\n\n")
	if m.reader.AtEnd() {
		b.WriteString(successStyle.Render("· the end ·"))
		b.WriteString("\n")
	} else {
		for i, choice := range node.Choices {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, choice.Text))
		}
	}
	return b.String()
}

func (m *model) reflectionView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("mindloom · reflection"))
	b.WriteString("\n\n")
	b.WriteString(m.reflection.View())
	b.WriteString("\n\n")
	if m.narLoading {
		b.WriteString(m.spinner.View() + " asking for feedback…\n")
	}
	if banner := m.banner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("ctrl+s submit · esc back"))
	return b.String()
}

// wrapText is a plain paragraph wrapper for the reading panels.
func wrapText(s string, width int) string {
	if width < 1 {
		return s
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if lipgloss.Width(line)+1+lipgloss.Width(w) > width {
				out = append(out, line)
				line = w
				continue
			}
			line += " " + w
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
