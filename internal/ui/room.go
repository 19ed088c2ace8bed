package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/edulive/classmesh/internal/session"
)

const chatTail = 12

// SnapshotMsg delivers session state into the bubbletea loop.
type SnapshotMsg session.Snapshot

// Controller is the slice of the session the room view drives.
type Controller interface {
	SetMicrophone(on bool)
	SetCamera(on bool)
	SendChat(text string)
	StartScreenShare()
	StopScreenShare()
	KickPeer(id string)
	Close()
}

// RoomModel renders the classroom: roster, chat and media controls. It is a
// pure observer of session snapshots; every action round-trips through the
// session event loop.
type RoomModel struct {
	roomID    string
	localName string
	role      string
	ctrl      Controller

	snap    session.Snapshot
	started bool

	input    textinput.Model
	spin     spinner.Model
	quitting bool
}

func NewRoomModel(roomID, localName, role string, ctrl Controller) RoomModel {
	input := textinput.New()
	input.Placeholder = "Type a message"
	input.CharLimit = 500
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(Primary)

	return RoomModel{
		roomID:    roomID,
		localName: localName,
		role:      role,
		ctrl:      ctrl,
		input:     input,
		spin:      spin,
	}
}

func (m RoomModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m RoomModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case SnapshotMsg:
		m.snap = session.Snapshot(msg)
		m.started = true
		if m.snap.Closed {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			m.ctrl.Close()
			return m, tea.Quit

		case "ctrl+t":
			m.ctrl.SetMicrophone(!m.snap.MicrophoneEnabled)
			return m, nil

		case "ctrl+g":
			m.ctrl.SetCamera(!m.snap.CameraEnabled)
			return m, nil

		case "ctrl+s":
			if m.snap.ScreenShareActive {
				m.ctrl.StopScreenShare()
			} else {
				m.ctrl.StartScreenShare()
			}
			return m, nil

		case "enter":
			m.submit()
			return m, nil
		}
	}

	var cmd tea.Cmd
	if !m.started {
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the typed line: either a chat message or, for teachers,
// a "/kick <peer-id>" command.
func (m *RoomModel) submit() {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return
	}
	if target, ok := strings.CutPrefix(text, "/kick "); ok {
		if m.role == "teacher" {
			m.ctrl.KickPeer(strings.TrimSpace(target))
		}
		return
	}
	m.ctrl.SendChat(text)
}

func (m RoomModel) View() string {
	if m.quitting {
		if m.snap.Reason != nil {
			if errors.Is(m.snap.Reason, session.ErrKicked) {
				return ErrorStyle.Render("You were removed from the room.") + "\n"
			}
			return ErrorStyle.Render("Session ended: "+m.snap.Reason.Error()) + "\n"
		}
		return MutedStyle.Render("Left the room.") + "\n"
	}

	if !m.started {
		return fmt.Sprintf("\n %s Connecting to room %s...\n", m.spin.View(), BoldStyle.Render(m.roomID))
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Classroom "+m.roomID) + "\n")
	b.WriteString(m.rosterView() + "\n")
	b.WriteString(m.chatView() + "\n")
	b.WriteString(m.input.View() + "\n")
	b.WriteString(m.statusView() + "\n")
	return b.String()
}

func (m RoomModel) rosterView() string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Name", "State")

	tbl.Row(m.localName+" (You)", "local")
	for _, p := range m.snap.Participants {
		name := p.DisplayName
		if name == "" {
			name = shortID(p.ID)
		}
		tbl.Row(name, p.State.String())
	}
	return tbl.Render()
}

func (m RoomModel) chatView() string {
	msgs := m.snap.Chat
	if len(msgs) > chatTail {
		msgs = msgs[len(msgs)-chatTail:]
	}
	var lines []string
	for _, c := range msgs {
		lines = append(lines, MutedStyle.Render(c.Sender+": ")+c.Text)
	}
	if len(lines) == 0 {
		lines = append(lines, MutedStyle.Render("No messages yet"))
	}
	return ChatBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m RoomModel) statusView() string {
	onOff := func(on bool, label string) string {
		if on {
			return SuccessStyle.Render(label + " on")
		}
		return MutedStyle.Render(label + " off")
	}
	parts := []string{
		onOff(m.snap.MicrophoneEnabled, "mic"),
		onOff(m.snap.CameraEnabled, "cam"),
	}
	if m.snap.ScreenShareActive {
		parts = append(parts, WarningStyle.Render("sharing screen"))
	}
	parts = append(parts, MutedStyle.Render(fmt.Sprintf("people: %d", 1+len(m.snap.Participants))))
	parts = append(parts, MutedStyle.Render("ctrl+t mic · ctrl+g cam · ctrl+s share · esc leave"))
	return strings.Join(parts, "  ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
