package main

import tea "github.com/charmbracelet/bubbletea"

// Cursor movement shared by the map modes. The cursor lives in canvas cells;
// world-space positions are derived from it on demand.

func (m *model) handleNavigation(key string) (tea.Model, tea.Cmd) {
	speed := moveSpeed(key)
	switch key {
	case "h", "left", "H", "shift+left":
		m.cursorX -= speed
	case "l", "right", "L", "shift+right":
		m.cursorX += speed
	case "k", "up", "K", "shift+up":
		m.cursorY -= speed
	case "j", "down", "J", "shift+down":
		m.cursorY += speed
	}
	m.ensureCursorInBounds()
	return m, nil
}

func (m *model) ensureCursorInBounds() {
	w, h := m.canvasSize()
	m.cursorX = clampInt(m.cursorX, 0, w-1)
	m.cursorY = clampInt(m.cursorY, 0, h-1)
}

func moveSpeed(key string) int {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return cursorStepFast
	default:
		return cursorStep
	}
}

func isNavigationKey(key string) bool {
	switch key {
	case "h", "j", "k", "l", "H", "J", "K", "L",
		"left", "right", "up", "down",
		"shift+left", "shift+right", "shift+up", "shift+down":
		return true
	}
	return false
}
