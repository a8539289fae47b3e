package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.applyViewport()
		m.ensureCursorInBounds()
		m.reflection.SetWidth(clampInt(m.width-8, 20, 100))
		m.reflection.SetHeight(clampInt(m.height-12, 4, 12))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case mapGeneratedMsg:
		// Superseded by a newer mind-map request: that one owns the
		// spinner and the session, so drop this without touching either.
		if m.client.StaleMindMap(msg.token) {
			return m, nil
		}
		m.generating = false
		if msg.err != nil {
			m.reportError(msg.err)
			return m, nil
		}
		if m.history != nil {
			if _, err := m.history.Save(m.chatInput.Value(), msg.gen); err == nil {
				if entries, lerr := m.history.Recent(startupHistoryLimit); lerr == nil {
					m.entries = entries
				}
			}
		}
		m.openSession(msg.gen)
		m.setStatus(fmt.Sprintf("generated %d nodes", msg.gen.Tree.Count()))
		return m, nil

	case flashcardsMsg:
		if m.client.StaleFlashcards(msg.token) {
			return m, nil
		}
		m.cardsLoading = false
		if msg.err != nil {
			m.reportError(msg.err)
			return m, nil
		}
		if msg.result.InsufficientContext {
			m.deckMessage = msg.result.Message
			return m, nil
		}
		m.deckMessage = ""
		if m.deck == nil {
			m.deck = NewDeck(msg.result.Cards)
		} else {
			added := m.deck.Append(msg.result.Cards)
			m.setStatus(fmt.Sprintf("%d new cards", added))
		}
		return m, nil

	case narrativeMsg:
		if m.client.StaleNarrative(msg.token) {
			return m, nil
		}
		m.narLoading = false
		if msg.err != nil {
			m.reportError(msg.err)
			return m, nil
		}
		m.narrative = msg.narrative
		m.pageIndex = 0
		m.feedback = nil
		if msg.narrative.Interactive != nil {
			m.reader = NewNarrativeReader(msg.narrative.Interactive)
		} else {
			m.reader = nil
		}
		return m, nil

	case feedbackMsg:
		m.narLoading = false
		if msg.err != nil {
			m.reportError(msg.err)
			return m, nil
		}
		m.feedback = msg.feedback
		m.mode = ModeNarrative
		return m, nil

	case libraryMsg:
		m.libLoading = false
		if msg.err != nil {
			m.reportError(msg.err)
			return m, nil
		}
		m.library = msg.overview
		m.refilterLibrary()
		return m, nil

	case uploadedMsg:
		m.libLoading = false
		if msg.err != nil {
			m.reportError(msg.err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("uploaded %s", msg.doc.Name))
		m.libLoading = true
		return m, m.fetchLibraryCmd()

	case libraryClearedMsg:
		m.libLoading = false
		if msg.err != nil {
			m.reportError(msg.err)
			return m, nil
		}
		m.libSelected = make(map[string]bool)
		m.setStatus("library cleared")
		m.libLoading = true
		return m, m.fetchLibraryCmd()

	case chatPostedMsg:
		if msg.err != nil {
			m.reportError(msg.err)
			return m, nil
		}
		m.setStatus("digest sent to chat")
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.reportError(msg.err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("exported %s", msg.path))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	m.status = ""
	m.statusErr = false

	switch m.mode {
	case ModeStartup:
		return m.updateStartup(msg)
	case ModeSetup:
		return m.updateSetup(msg)
	case ModeLibrary:
		return m.updateLibrary(msg)
	case ModeMap:
		return m.updateMap(msg)
	case ModeMove:
		return m.updateMove(msg)
	case ModeConnect:
		return m.updateConnect(msg)
	case ModeLabelEdit:
		return m.updateLabelEdit(msg)
	case ModeConfirm:
		return m.updateConfirm(msg)
	case ModeFlashcards:
		return m.updateFlashcards(msg)
	case ModeNarrative:
		return m.updateNarrative(msg)
	case ModeReflection:
		return m.updateReflection(msg)
	case ModeHistory:
		return m.updateHistory(msg)
	}
	return m, nil
}

func (m *model) updateStartup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "n":
		m.mode = ModeSetup
		return m, nil
	case "j", "down":
		m.historyCursor = clampInt(m.historyCursor+1, 0, len(m.entries)-1)
	case "k", "up":
		m.historyCursor = clampInt(m.historyCursor-1, 0, len(m.entries)-1)
	case "enter":
		if len(m.entries) == 0 {
			m.mode = ModeSetup
			return m, nil
		}
		return m, m.loadHistoryEntry(m.entries[m.historyCursor])
	}
	return m, nil
}

func (m *model) loadHistoryEntry(e HistoryEntry) tea.Cmd {
	if m.history == nil {
		return nil
	}
	gen, err := m.history.Load(e.ID)
	if err != nil {
		m.reportError(err)
		return nil
	}
	if e.ChatID != "" {
		m.chatInput.SetValue(e.ChatID)
	}
	m.openSession(gen)
	return nil
}

func (m *model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.generating {
		if msg.String() == "esc" {
			// Abandon the wait; the late response is discarded by token.
			m.client.AbandonMindMap()
			m.generating = false
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		if len(m.entries) > 0 {
			m.mode = ModeStartup
		}
		return m, nil
	case "tab", "shift+tab":
		if msg.String() == "tab" {
			m.setupFocus = (m.setupFocus + 1) % 3
		} else {
			m.setupFocus = (m.setupFocus + 2) % 3
		}
		m.chatInput.Blur()
		m.instructionInput.Blur()
		switch m.setupFocus {
		case 0:
			m.chatInput.Focus()
		case 1:
			m.instructionInput.Focus()
		}
		return m, nil
	case "left", "right":
		if m.setupFocus == 2 {
			modes := []string{"recent", "full", "library"}
			i := 0
			for j, mode := range modes {
				if mode == m.contextMode {
					i = j
				}
			}
			if msg.String() == "right" {
				i = (i + 1) % len(modes)
			} else {
				i = (i + len(modes) - 1) % len(modes)
			}
			m.contextMode = modes[i]
			return m, nil
		}
	case "ctrl+l":
		m.prevMode = m.mode
		m.mode = ModeLibrary
		m.libLoading = true
		return m, m.fetchLibraryCmd()
	case "enter":
		if m.chatInput.Value() == "" {
			m.reportError(&ValidationError{Field: "chat_id", Msg: "chat id is required"})
			return m, nil
		}
		m.generating = true
		return m, tea.Batch(m.generateMapCmd(), m.spinner.Tick)
	}

	var cmd tea.Cmd
	switch m.setupFocus {
	case 0:
		m.chatInput, cmd = m.chatInput.Update(msg)
	case 1:
		m.instructionInput, cmd = m.instructionInput.Update(msg)
	}
	return m, cmd
}

func (m *model) refilterLibrary() {
	m.libFiltered = m.libFiltered[:0]
	if m.library == nil {
		return
	}
	pattern := m.libFilter.Value()
	if pattern == "" {
		for i := range m.library.Documents {
			m.libFiltered = append(m.libFiltered, i)
		}
	} else {
		names := make([]string, len(m.library.Documents))
		for i, d := range m.library.Documents {
			names[i] = d.Name
		}
		for _, match := range fuzzy.Find(pattern, names) {
			m.libFiltered = append(m.libFiltered, match.Index)
		}
	}
	m.libCursor = clampInt(m.libCursor, 0, len(m.libFiltered)-1)
	if len(m.libFiltered) == 0 {
		m.libCursor = 0
	}
}

func (m *model) updateLibrary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.libUpload {
		switch msg.String() {
		case "esc":
			m.libUpload = false
			return m, nil
		case "enter":
			path := m.libPath.Value()
			if path == "" {
				m.reportError(&ValidationError{Field: "path", Msg: "file path is required"})
				return m, nil
			}
			m.libUpload = false
			m.libPath.SetValue("")
			m.libLoading = true
			return m, m.uploadCmd(path)
		}
		var cmd tea.Cmd
		m.libPath, cmd = m.libPath.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc":
		m.mode = m.prevMode
		return m, nil
	case "down", "ctrl+n":
		m.libCursor = clampInt(m.libCursor+1, 0, len(m.libFiltered)-1)
		return m, nil
	case "up", "ctrl+p":
		m.libCursor = clampInt(m.libCursor-1, 0, len(m.libFiltered)-1)
		return m, nil
	case " ":
		if m.library != nil && m.libCursor < len(m.libFiltered) {
			doc := m.library.Documents[m.libFiltered[m.libCursor]]
			m.libSelected[doc.ID] = !m.libSelected[doc.ID]
		}
		return m, nil
	case "ctrl+u":
		if m.library == nil {
			return m, nil
		}
		m.libUpload = true
		m.libPath.Focus()
		return m, nil
	case "ctrl+x":
		m.confirmAction = ConfirmClearLibrary
		m.prevMode = ModeLibrary
		m.mode = ModeConfirm
		return m, nil
	case "ctrl+r":
		m.libLoading = true
		return m, m.fetchLibraryCmd()
	}

	var cmd tea.Cmd
	m.libFilter, cmd = m.libFilter.Update(msg)
	m.refilterLibrary()
	return m, cmd
}

func (m *model) updateMap(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if isNavigationKey(key) {
		return m.handleNavigation(key)
	}

	switch key {
	case "q":
		return m, m.confirmOrDo(ConfirmQuit, "")
	case "enter":
		if id, ok := NodeAtCell(m.sess, m.cursorX, m.cursorY); ok {
			if err := m.sess.BeginDrag(id, CellToWorld(m.sess, m.cursorX, m.cursorY)); err != nil {
				m.reportError(err)
				return m, nil
			}
			m.moveNode = id
			m.mode = ModeMove
		}
		return m, nil
	case "c":
		if id, ok := NodeAtCell(m.sess, m.cursorX, m.cursorY); ok {
			anchor := m.sess.NearestAnchor(id, CellToWorld(m.sess, m.cursorX, m.cursorY))
			if err := m.sess.BeginConnection(id, anchor); err != nil {
				m.reportError(err)
				return m, nil
			}
			m.mode = ModeConnect
		}
		return m, nil
	case "e":
		if id, ok := NodeAtCell(m.sess, m.cursorX, m.cursorY); ok {
			text, err := m.sess.BeginLabelEdit(id)
			if err != nil {
				m.reportError(err)
				return m, nil
			}
			m.labelInput.SetValue(text)
			m.labelInput.CursorEnd()
			m.labelInput.Focus()
			m.mode = ModeLabelEdit
		}
		return m, nil
	case "d":
		if id, ok := NodeAtCell(m.sess, m.cursorX, m.cursorY); ok {
			return m, m.confirmOrDo(ConfirmDeleteNode, id)
		}
		return m, nil
	case "x":
		if conn, ok := EdgeAtCell(m.sess, m.cursorX, m.cursorY); ok {
			return m, m.confirmOrDo(ConfirmDeleteConnection, conn.ID)
		}
		return m, nil
	case "r":
		return m, m.confirmOrDo(ConfirmResetLayout, "")
	case "u":
		if m.sess.CanUndo() {
			m.sess.Undo()
		} else {
			m.setStatus("nothing to undo")
		}
		return m, nil
	case "ctrl+r":
		if m.sess.CanRedo() {
			m.sess.Redo()
		} else {
			m.setStatus("nothing to redo")
		}
		return m, nil
	case "p":
		return m, m.exportCmd("png")
	case "s":
		return m, m.exportCmd("svg")
	case "w":
		if m.gen == nil {
			m.setStatus("nothing to save")
			return m, nil
		}
		path := m.cfg.ExportPath(exportFilename("json"))
		if err := SaveMapJSON(m.gen, path); err != nil {
			m.reportError(err)
		} else {
			m.setStatus(fmt.Sprintf("saved %s", path))
		}
		return m, nil
	case "g":
		if err := writeClipboardText(m.sess.Tree().Digest()); err != nil {
			m.reportError(err)
		} else {
			m.setStatus("digest copied")
		}
		return m, nil
	case "m":
		return m, m.confirmOrDo(ConfirmSendDigest, "")
	case "f":
		m.mode = ModeFlashcards
		if m.deck == nil && !m.cardsLoading {
			m.cardsLoading = true
			return m, tea.Batch(m.generateFlashcardsCmd(), m.spinner.Tick)
		}
		return m, nil
	case "n":
		m.mode = ModeNarrative
		if m.narrative == nil {
			m.narConfiguring = true
		}
		return m, nil
	case "o":
		if len(m.entries) > 0 {
			m.mode = ModeHistory
		}
		return m, nil
	case "N":
		m.mode = ModeSetup
		return m, nil
	}
	return m, nil
}

// confirmOrDo routes through the confirm prompt when confirmations are on,
// otherwise performs the action immediately.
func (m *model) confirmOrDo(action ConfirmAction, target string) tea.Cmd {
	if m.cfg.Confirmations {
		m.confirmAction = action
		m.confirmTarget = target
		m.prevMode = m.mode
		m.mode = ModeConfirm
		return nil
	}
	return m.performConfirmed(action, target)
}

func (m *model) performConfirmed(action ConfirmAction, target string) tea.Cmd {
	switch action {
	case ConfirmDeleteNode:
		if err := m.sess.DeleteNode(target); err != nil {
			m.reportError(err)
		} else {
			m.setStatus("node deleted")
		}
	case ConfirmDeleteConnection:
		if err := m.sess.DeleteConnection(target); err != nil {
			m.reportError(err)
		} else {
			m.setStatus("connection deleted")
		}
	case ConfirmResetLayout:
		m.sess.Reset()
		m.setStatus("layout reset")
	case ConfirmClearLibrary:
		m.libLoading = true
		return m.clearLibraryCmd()
	case ConfirmSendDigest:
		return m.postDigestCmd()
	case ConfirmQuit:
		return tea.Quit
	}
	return nil
}

func (m *model) updateMove(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if isNavigationKey(key) {
		model, cmd := m.handleNavigation(key)
		m.sess.DragTo(CellToWorld(m.sess, m.cursorX, m.cursorY))
		return model, cmd
	}
	switch key {
	case "enter":
		m.sess.EndDrag()
		m.moveNode = ""
		m.mode = ModeMap
	case "esc":
		m.sess.CancelInteraction()
		m.moveNode = ""
		m.mode = ModeMap
	}
	return m, nil
}

func (m *model) updateConnect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if isNavigationKey(key) {
		return m.handleNavigation(key)
	}
	switch key {
	case "enter":
		id, ok := NodeAtCell(m.sess, m.cursorX, m.cursorY)
		if !ok {
			m.setStatus("no node under cursor")
			return m, nil
		}
		anchor := m.sess.NearestAnchor(id, CellToWorld(m.sess, m.cursorX, m.cursorY))
		if _, err := m.sess.CompleteConnection(id, anchor); err != nil {
			m.reportError(err)
			// Stay in connect mode so the user can pick another target.
			return m, nil
		}
		m.setStatus("connection added")
		m.mode = ModeMap
	case "esc":
		m.sess.CancelInteraction()
		m.mode = ModeMap
	}
	return m, nil
}

func (m *model) updateLabelEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if err := m.sess.CommitLabel(m.labelInput.Value()); err != nil {
			m.reportError(err)
			return m, nil
		}
		m.labelInput.Blur()
		m.mode = ModeMap
		return m, nil
	case "esc":
		m.sess.CancelInteraction()
		m.labelInput.Blur()
		m.mode = ModeMap
		return m, nil
	}
	var cmd tea.Cmd
	m.labelInput, cmd = m.labelInput.Update(msg)
	return m, cmd
}

func (m *model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.mode = m.prevMode
		return m, m.performConfirmed(m.confirmAction, m.confirmTarget)
	case "n", "N", "esc":
		m.mode = m.prevMode
		return m, nil
	}
	return m, nil
}

func (m *model) updateFlashcards(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = ModeMap
		return m, nil
	case " ", "enter":
		if m.deck != nil {
			m.deck.Flip()
		}
		return m, nil
	case "l", "right", "n":
		if m.deck != nil {
			m.deck.Next()
		}
		return m, nil
	case "h", "left", "p":
		if m.deck != nil {
			m.deck.Prev()
		}
		return m, nil
	case "g":
		if !m.cardsLoading {
			m.cardsLoading = true
			return m, tea.Batch(m.generateFlashcardsCmd(), m.spinner.Tick)
		}
		return m, nil
	}
	return m, nil
}

func (m *model) updateNarrative(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.narConfiguring {
		switch key {
		case "esc":
			m.narConfiguring = false
			m.mode = ModeMap
		case "h", "left":
			m.narType = (m.narType + len(narrativeTypes) - 1) % len(narrativeTypes)
		case "l", "right":
			m.narType = (m.narType + 1) % len(narrativeTypes)
		case "j", "down":
			m.narComplex = (m.narComplex + 1) % len(narrativeComplexities)
		case "k", "up":
			m.narComplex = (m.narComplex + len(narrativeComplexities) - 1) % len(narrativeComplexities)
		case "enter":
			m.narConfiguring = false
			m.narLoading = true
			return m, tea.Batch(m.generateNarrativeCmd(), m.spinner.Tick)
		}
		return m, nil
	}

	switch key {
	case "esc", "q":
		m.mode = ModeMap
		return m, nil
	case "G":
		m.narConfiguring = true
		return m, nil
	case "w":
		if m.narrative != nil {
			m.reflection.Reset()
			m.reflection.Focus()
			m.mode = ModeReflection
		}
		return m, nil
	}

	if m.narrative == nil {
		return m, nil
	}

	if m.reader != nil {
		switch key {
		case "r":
			m.reader.Restart()
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			if err := m.reader.Choose(int(key[0] - '1')); err != nil {
				m.reportError(err)
			}
		}
		return m, nil
	}

	pages := m.narrative.Pages()
	switch key {
	case "l", "right", "n":
		m.pageIndex = clampInt(m.pageIndex+1, 0, len(pages)-1)
	case "h", "left", "p":
		m.pageIndex = clampInt(m.pageIndex-1, 0, len(pages)-1)
	}
	return m, nil
}

func (m *model) updateReflection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.reflection.Blur()
		m.mode = ModeNarrative
		return m, nil
	case "ctrl+s":
		if m.reflection.Value() == "" {
			m.reportError(&ValidationError{Field: "reflection", Msg: "reflection text is required"})
			return m, nil
		}
		m.reflection.Blur()
		m.narLoading = true
		return m, tea.Batch(m.feedbackCmd(), m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.reflection, cmd = m.reflection.Update(msg)
	return m, cmd
}

func (m *model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = ModeMap
		return m, nil
	case "j", "down":
		m.historyCursor = clampInt(m.historyCursor+1, 0, len(m.entries)-1)
	case "k", "up":
		m.historyCursor = clampInt(m.historyCursor-1, 0, len(m.entries)-1)
	case "enter":
		if len(m.entries) > 0 {
			return m, m.loadHistoryEntry(m.entries[m.historyCursor])
		}
	}
	return m, nil
}
