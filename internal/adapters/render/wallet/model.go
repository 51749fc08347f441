package wallet

import (
	"errors"
	"fmt"
	"io"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// Reader is the part of the ledger the live view reads.
type Reader interface {
	GetAllBalances() domain.Balances
	History(limit int) []domain.Transaction
}

// Bus events forwarded into a running program.
type (
	TokenCreatedMsg  struct{ Token domain.Token }
	TokensClearedMsg struct{}
	LoginChangedMsg  struct{ User *domain.User }
)

type renderReadyMsg struct{}

// Model is the wallet view as a bubbletea model. A live model re-reads
// the ledger on every wallet event; a one-shot model draws its snapshot
// once and quits.
type Model struct {
	wallet       Reader
	clock        ports.Clock
	historyLimit int
	oneShot      bool

	snapshot Snapshot
	styles   styles
}

func NewModel(wallet Reader, clock ports.Clock, user *domain.User, historyLimit int) Model {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	m := Model{
		wallet:       wallet,
		clock:        clock,
		historyLimit: historyLimit,
		styles:       newStyles(),
	}
	m.snapshot.User = user
	m.refresh("")
	return m
}

// Snapshot returns what the model currently shows.
func (m Model) Snapshot() Snapshot {
	return m.snapshot
}

func (m *Model) refresh(notice string) {
	m.snapshot.Notice = notice
	if m.wallet == nil {
		return
	}
	m.snapshot.Balances = m.wallet.GetAllBalances()
	m.snapshot.History = m.wallet.History(m.historyLimit)
	m.snapshot.Now = m.clock.Now()
}

func (m Model) Init() tea.Cmd {
	if !m.oneShot {
		return nil
	}
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case renderReadyMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case TokenCreatedMsg:
		m.refresh(fmt.Sprintf("%+d %s from %s", msg.Token.Amount, msg.Token.Type.Label(), msg.Token.Source))
	case TokensClearedMsg:
		m.refresh("ledger cleared")
	case LoginChangedMsg:
		m.snapshot.User = msg.User
		if msg.User == nil {
			m.refresh("signed out")
		} else {
			m.refresh("signed in as " + msg.User.Email)
		}
	}
	return m, nil
}

func (m Model) View() string {
	view := renderView(m.snapshot, m.styles)
	if m.oneShot {
		return view
	}
	return view + "\n\n" + lipgloss.NewStyle().Faint(true).Render("q to quit") + "\n"
}

// Render draws the snapshot through a one-shot program so the output
// matches what the live view shows.
func Render(snapshot Snapshot) (string, error) {
	p := tea.NewProgram(
		Model{snapshot: snapshot, styles: newStyles(), oneShot: true},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(Model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
