package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type model struct {
	cfg     *Config
	client  *Client
	history *History

	mode     Mode
	prevMode Mode

	width   int
	height  int
	cursorX int
	cursorY int

	// setup form
	chatInput        textinput.Model
	instructionInput textinput.Model
	setupFocus       int
	contextMode      string
	spinner          spinner.Model
	generating       bool

	// library panel
	library     *LibraryOverview
	libFilter   textinput.Model
	libFiltered []int
	libCursor   int
	libSelected map[string]bool
	libLoading  bool
	libUpload   bool
	libPath     textinput.Model

	// map session
	sess       *Session
	gen        *GeneratedMap
	moveNode   string
	labelInput textinput.Model

	// confirm prompt
	confirmAction ConfirmAction
	confirmTarget string

	// flashcards panel
	deck         *Deck
	deckMessage  string
	cardsLoading bool

	// narrative panel
	narrative      *Narrative
	reader         *NarrativeReader
	pageIndex      int
	reflection     textarea.Model
	feedback       *Feedback
	narLoading     bool
	narType        int
	narComplex     int
	narConfiguring bool

	// history list (startup and in-session)
	entries       []HistoryEntry
	historyCursor int

	status    string
	statusErr bool
}

// Async results. Generation messages carry the request token so superseded
// responses can be discarded.

type mapGeneratedMsg struct {
	gen   *GeneratedMap
	token uint64
	err   error
}

type flashcardsMsg struct {
	result *FlashcardResult
	token  uint64
	err    error
}

type narrativeMsg struct {
	narrative *Narrative
	token     uint64
	err       error
}

type feedbackMsg struct {
	feedback *Feedback
	err      error
}

type libraryMsg struct {
	overview *LibraryOverview
	err      error
}

type uploadedMsg struct {
	doc *Document
	err error
}

type libraryClearedMsg struct{ err error }

type chatPostedMsg struct{ err error }

type exportedMsg struct {
	path string
	err  error
}

func initialModel(cfg *Config) *model {
	chat := textinput.New()
	chat.Placeholder = "chat id"
	chat.SetValue(cfg.ChatID)
	chat.Focus()

	instr := textinput.New()
	instr.Placeholder = "extra instructions (optional)"

	filter := textinput.New()
	filter.Placeholder = "filter documents"

	path := textinput.New()
	path.Placeholder = "path to file"

	label := textinput.New()

	reflect := textarea.New()
	reflect.Placeholder = "What did you take away from this story?"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &model{
		cfg:              cfg,
		client:           NewClient(cfg.ServerURL, cfg.CSRFToken),
		mode:             ModeStartup,
		cursorX:          -1,
		cursorY:          -1,
		chatInput:        chat,
		instructionInput: instr,
		contextMode:      "recent",
		spinner:          sp,
		libFilter:        filter,
		libPath:          path,
		libSelected:      make(map[string]bool),
		labelInput:       label,
		reflection:       reflect,
	}

	if h, err := OpenHistory(cfg.HistoryPath); err == nil {
		m.history = h
		if entries, err := h.Recent(startupHistoryLimit); err == nil {
			m.entries = entries
		}
	}
	if len(m.entries) == 0 {
		m.mode = ModeSetup
	}
	return m
}

func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

// canvasSize is the cell area available to the map, below the header and
// above the status bar.
func (m *model) canvasSize() (int, int) {
	w := m.width
	h := m.height - chromeRows
	if w < 1 {
		w = 80
	}
	if h < 1 {
		h = 24
	}
	return w, h
}

func (m *model) applyViewport() {
	if m.sess == nil {
		return
	}
	w, h := m.canvasSize()
	m.sess.SetViewport(float64(w)*cellWidth, float64(h)*cellHeight)
}

// openSession replaces the current map with a freshly generated or loaded
// one and centers the cursor.
func (m *model) openSession(gen *GeneratedMap) {
	sess, err := NewSession(gen.Tree, NewCellMeasurer(), m.cfg.SizeMultiplier())
	if err != nil {
		m.reportError(err)
		return
	}
	m.gen = gen
	m.sess = sess
	m.applyViewport()
	w, h := m.canvasSize()
	m.cursorX, m.cursorY = w/2, h/2
	m.deck = nil
	m.narrative = nil
	m.reader = nil
	m.feedback = nil
	m.mode = ModeMap
}

func (m *model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

// reportError routes an error to the right surface: validation errors show
// inline, everything else as an error banner.
func (m *model) reportError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m *model) selectedDocIDs() []string {
	if m.library == nil {
		return nil
	}
	var ids []string
	for _, d := range m.library.Documents {
		if m.libSelected[d.ID] {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// Commands. Each closes over the request and returns the typed message.

func (m *model) generateMapCmd() tea.Cmd {
	req := MindMapRequest{
		ChatID:        m.chatInput.Value(),
		ContextMode:   m.contextMode,
		Size:          m.cfg.MapSize,
		LibraryDocIDs: m.selectedDocIDs(),
		Instructions:  m.instructionInput.Value(),
	}
	client := m.client
	return func() tea.Msg {
		gen, token, err := client.GenerateMindMap(context.Background(), req)
		return mapGeneratedMsg{gen: gen, token: token, err: err}
	}
}

func (m *model) generateFlashcardsCmd() tea.Cmd {
	req := FlashcardRequest{
		ChatID:        m.chatInput.Value(),
		ContextMode:   m.contextMode,
		LibraryDocIDs: m.selectedDocIDs(),
		DisplayMode:   "deck",
		CardCount:     flashcardBatchSize,
	}
	client := m.client
	return func() tea.Msg {
		result, token, err := client.GenerateFlashcards(context.Background(), req)
		return flashcardsMsg{result: result, token: token, err: err}
	}
}

func (m *model) generateNarrativeCmd() tea.Cmd {
	req := NarrativeRequest{
		ChatID:        m.chatInput.Value(),
		ContextMode:   m.contextMode,
		LibraryDocIDs: m.selectedDocIDs(),
		NarrativeType: narrativeTypes[m.narType],
		Complexity:    narrativeComplexities[m.narComplex],
	}
	client := m.client
	return func() tea.Msg {
		n, token, err := client.GenerateNarrative(context.Background(), req)
		return narrativeMsg{narrative: n, token: token, err: err}
	}
}

func (m *model) feedbackCmd() tea.Cmd {
	content := m.narrative.Content
	if m.reader != nil {
		content = m.reader.Transcript()
	}
	req := FeedbackRequest{
		NarrativeType:    m.narrative.Type,
		NarrativeContent: content,
		ReflectionText:   m.reflection.Value(),
		Complexity:       m.narrative.Complexity,
	}
	client := m.client
	return func() tea.Msg {
		fb, err := client.NarrativeFeedback(context.Background(), req)
		return feedbackMsg{feedback: fb, err: err}
	}
}

func (m *model) fetchLibraryCmd() tea.Cmd {
	client, roomID := m.client, m.cfg.RoomID
	return func() tea.Msg {
		overview, err := client.FetchLibrary(context.Background(), roomID)
		return libraryMsg{overview: overview, err: err}
	}
}

func (m *model) uploadCmd(path string) tea.Cmd {
	client, roomID := m.client, m.cfg.RoomID
	stats := m.library.Stats
	return func() tea.Msg {
		info, err := os.Stat(path)
		if err != nil {
			return uploadedMsg{err: err}
		}
		// Quota check happens before any bytes move.
		if err := CheckUploadQuota(stats, info.Size()); err != nil {
			return uploadedMsg{err: err}
		}
		f, err := os.Open(path)
		if err != nil {
			return uploadedMsg{err: err}
		}
		defer f.Close()
		doc, err := client.UploadDocument(context.Background(), roomID, filepath.Base(path), f)
		return uploadedMsg{doc: doc, err: err}
	}
}

func (m *model) clearLibraryCmd() tea.Cmd {
	client, roomID := m.client, m.cfg.RoomID
	return func() tea.Msg {
		return libraryClearedMsg{err: client.ClearLibrary(context.Background(), roomID)}
	}
}

func (m *model) postDigestCmd() tea.Cmd {
	client, chatID := m.client, m.chatInput.Value()
	digest := m.sess.Tree().Digest()
	return func() tea.Msg {
		return chatPostedMsg{err: client.PostChatMessage(context.Background(), chatID, digest)}
	}
}

func (m *model) exportCmd(format string) tea.Cmd {
	sess, cfg := m.sess, m.cfg
	return func() tea.Msg {
		path := cfg.ExportPath(exportFilename(format))
		var err error
		switch format {
		case "png":
			err = ExportPNG(sess, path)
		case "svg":
			err = ExportSVG(sess, path)
		default:
			err = ExportDigest(sess, path)
		}
		return exportedMsg{path: path, err: err}
	}
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
	selStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 3)
)

func (m *model) headerLine() string {
	title := "mindloom"
	if m.sess != nil {
		title = fmt.Sprintf("mindloom · %s", truncateTo(m.sess.Tree().Label, 40))
	}
	return headerStyle.Render(title)
}
