package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/tokenwallet/internal/application"
	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type planFetchedMsg struct {
	plan application.SyncPlan
	err  error
}

// planFetchModel spins while a snapshot is fetched and diffed, then
// leaves a one-line summary of the plan behind.
type planFetchModel struct {
	spinner spinner.Model
	class   domain.CollectionClass
	fetch   tea.Cmd
	plan    application.SyncPlan
	err     error
	done    bool
}

func newPlanFetchModel(class domain.CollectionClass, fetch tea.Cmd) planFetchModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return planFetchModel{spinner: s, class: class, fetch: fetch}
}

func (m planFetchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch)
}

func (m planFetchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case planFetchedMsg:
		m.done = true
		m.plan, m.err = msg.plan, msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m planFetchModel) View() string {
	if !m.done {
		return fmt.Sprintf("%s Fetching %s snapshot...", m.spinner.View(), m.class)
	}
	if m.err != nil {
		return fmt.Sprintf("Fetching %s snapshot failed\n", m.class)
	}
	return planSummary(m.plan) + "\n"
}

// planSummary reads like "repos: 3 on server, 2 cached, 2 conflicts
// (1 added, 0 deleted, 1 modified)".
func planSummary(plan application.SyncPlan) string {
	counts := map[domain.ConflictType]int{}
	for _, conflict := range plan.Conflicts {
		counts[conflict.Type]++
	}

	noun := "conflicts"
	if len(plan.Conflicts) == 1 {
		noun = "conflict"
	}
	return fmt.Sprintf("%s: %d on server, %d cached, %d %s (%d added, %d deleted, %d modified)",
		plan.Class, len(plan.Server), len(plan.Cached), len(plan.Conflicts), noun,
		counts[domain.ConflictAdded], counts[domain.ConflictDeleted], counts[domain.ConflictModified],
	)
}

// runPlanFetchSpinner shows progress on output while fetch runs and
// returns the plan it produced.
func runPlanFetchSpinner(ctx context.Context, output io.Writer, class domain.CollectionClass, fetch func(context.Context) (application.SyncPlan, error)) (application.SyncPlan, error) {
	fetchCmd := func() tea.Msg {
		plan, err := fetch(ctx)
		return planFetchedMsg{plan: plan, err: err}
	}

	p := tea.NewProgram(
		newPlanFetchModel(class, fetchCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return application.SyncPlan{}, err
	}

	result, ok := finalModel.(planFetchModel)
	if !ok {
		return application.SyncPlan{}, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}
	if result.err != nil {
		return application.SyncPlan{}, result.err
	}
	return result.plan, nil
}
