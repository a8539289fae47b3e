package main

type Mode int

const (
	ModeStartup Mode = iota
	ModeSetup
	ModeLibrary
	ModeMap
	ModeMove
	ModeConnect
	ModeLabelEdit
	ModeConfirm
	ModeFlashcards
	ModeNarrative
	ModeReflection
	ModeHistory
)

type ConfirmAction int

const (
	ConfirmDeleteNode ConfirmAction = iota
	ConfirmDeleteConnection
	ConfirmResetLayout
	ConfirmClearLibrary
	ConfirmQuit
	ConfirmSendDigest
)

const (
	// How far one arrow press moves the cursor, in cells.
	cursorStep     = 1
	cursorStepFast = 5

	// Rows reserved above and below the canvas for the header and status
	// bars.
	chromeRows = 3

	startupHistoryLimit = 10
	flashcardBatchSize  = 10
)

var narrativeTypes = []string{"adventure", "mystery", "fable", "sci-fi", "interactive"}

var narrativeComplexities = []string{"simple", "moderate", "complex"}
