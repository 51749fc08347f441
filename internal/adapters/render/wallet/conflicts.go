package wallet

import (
	"fmt"
	"sort"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Conflicts renders a sync diff, one line per conflict.
func Conflicts(class domain.CollectionClass, conflicts []domain.SyncConflict) string {
	s := newStyles()
	lines := []string{
		s.title.Render(fmt.Sprintf("Sync %s", class)),
		s.header.Render(fmt.Sprintf("conflicts: %d", len(conflicts))),
	}
	if len(conflicts) == 0 {
		lines = append(lines, s.empty.Render("Cache matches the server."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, conflict := range conflicts {
		marker := s.detail.Render("~")
		switch conflict.Type {
		case domain.ConflictAdded:
			marker = s.credit.Render("+")
		case domain.ConflictDeleted:
			marker = s.debit.Render("-")
		}

		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			marker,
			" ",
			s.key.Render(conflict.EntityName),
			" ",
			s.meta.Render(fmt.Sprintf("(%s, %s)", conflict.EntityID, conflict.Type)),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Resolution summarises how an applied sync settled each conflict.
func Resolution(class domain.CollectionClass, resolution domain.Resolution) string {
	s := newStyles()
	lines := []string{
		s.title.Render(fmt.Sprintf("Applied %s sync (%s)", class, resolution.Strategy)),
		s.header.Render(fmt.Sprintf("entities: %d", len(resolution.Merged))),
	}

	rules := make([]string, 0, len(resolution.Counts))
	for rule := range resolution.Counts {
		rules = append(rules, string(rule))
	}
	sort.Strings(rules)
	for _, rule := range rules {
		lines = append(lines, s.detail.Render(fmt.Sprintf("%s: %d", rule, resolution.Counts[domain.ResolutionRule(rule)])))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
