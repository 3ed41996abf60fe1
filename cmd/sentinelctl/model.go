package main

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ims-sentinel/sentineld/internal/protocol"
)

var (
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	styleFooter  = lipgloss.NewStyle().Faint(true)
	stylePrompt  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	styleCommand = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

// serverChunkMsg carries one raw read off the connection.
type serverChunkMsg struct {
	data []byte
	err  error
}

// model is the bubbletea model for the operator console. It mirrors
// apps/client.c's event loop (data from server vs. keyboard input) as
// bubbletea messages instead of a select() loop: serverChunkMsg for
// socket data, tea.KeyMsg for keystrokes.
type model struct {
	conn       io.ReadWriteCloser
	addr       string
	lines      []string
	input      strings.Builder
	inMonitor  bool
	width      int
	height     int
	quitting   bool
	connError  error
}

func newModel(conn io.ReadWriteCloser, addr string) model {
	return model{
		conn:  conn,
		addr:  addr,
		lines: []string{fmt.Sprintf("Connected securely to %s.", addr), "Type 'help' for available commands."},
	}
}

func (m model) Init() tea.Cmd {
	return readServer(m.conn)
}

// readServer blocks on one Read and returns its result as a message; the
// model re-issues this command after every chunk to keep listening, the
// bubbletea idiom for a long-lived background reader.
func readServer(conn io.Reader) tea.Cmd {
	return func() tea.Msg {
		buf := make([]byte, 4096)
		n, err := conn.Read(buf)
		return serverChunkMsg{data: buf[:n], err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case serverChunkMsg:
		if msg.err != nil {
			m.connError = msg.err
			m.lines = append(m.lines, "[SERVER] Connection closed.")
			m.quitting = true
			return m, tea.Quit
		}
		m.appendServerData(msg.data)
		return m, readServer(m.conn)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// appendServerData mirrors the byte-by-byte EOM handling in
// apps/client.c's "Data from Server" branch: everything up to an EOM
// byte is display text; an EOM ends the current reply and exits
// monitor mode.
func (m *model) appendServerData(data []byte) {
	var current strings.Builder
	for _, b := range data {
		if b == protocol.EOM {
			m.inMonitor = false
			if current.Len() > 0 {
				m.lines = append(m.lines, strings.Split(strings.TrimRight(current.String(), "\n"), "\n")...)
				current.Reset()
			}
			continue
		}
		current.WriteByte(b)
	}
	if current.Len() > 0 {
		m.lines = append(m.lines, strings.Split(strings.TrimRight(current.String(), "\n"), "\n")...)
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEnter:
		text := m.input.String()
		m.input.Reset()
		if text == "" {
			if m.inMonitor {
				// Instant interrupt for monitor mode, per apps/client.c.
				_, _ = m.conn.Write([]byte("\n"))
			}
			return m, nil
		}

		m.lines = append(m.lines, stylePrompt.Render("IMS> ")+styleCommand.Render(text))
		if strings.HasPrefix(text, "monitor") {
			m.inMonitor = true
		}
		_, _ = m.conn.Write([]byte(text))

		if text == "quit" || text == "exit" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyBackspace:
		s := m.input.String()
		if len(s) > 0 {
			m.input.Reset()
			m.input.WriteString(s[:len(s)-1])
		}
		return m, nil

	case tea.KeyRunes, tea.KeySpace:
		m.input.WriteString(msg.String())
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return "\n" + styleFooter.Render("Disconnected.") + "\n"
	}

	var b strings.Builder
	b.WriteString(styleHeader.Render(fmt.Sprintf("sentinelctl — %s", m.addr)))
	b.WriteString("\n\n")

	start := 0
	visible := m.height - 6
	if visible > 0 && len(m.lines) > visible {
		start = len(m.lines) - visible
	}
	for _, line := range m.lines[start:] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(stylePrompt.Render("IMS> "))
	b.WriteString(m.input.String())
	b.WriteString("\n")
	b.WriteString(styleFooter.Render("ctrl+c to quit · monitor mode: empty enter interrupts"))
	return b.String()
}
