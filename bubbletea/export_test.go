package bubbletea

// BlockSeparator exports blockSeparator for testing.
func BlockSeparator(prev, curr MessageBlock) string {
	return blockSeparator(prev, curr)
}

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// Blocks returns the rendered blocks in order.
func Blocks(m Model) []MessageBlock {
	return m.blocks
}

// BlockFocus returns the index of the focused sources block.
func BlockFocus(m Model) int {
	return m.blockFocus
}

// StatusLine exports statusLine for testing.
func StatusLine(m Model) string {
	return m.statusLine()
}

// DocumentsLine exports documentsLine for testing.
func DocumentsLine(m Model) string {
	return m.documentsLine()
}

// SetRunning puts the model into the running state without starting a send.
func SetRunning(m Model) Model {
	m.running = true
	return m
}
