package wallet

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Snapshot is everything the wallet view shows.
type Snapshot struct {
	User     *domain.User
	Balances domain.Balances
	History  []domain.Transaction
	Now      time.Time
	Notice   string
}

const balanceBarWidth = 20

// View renders the snapshot without running a bubbletea program, for
// callers that already own one.
func View(snapshot Snapshot) string {
	return renderView(snapshot, newStyles())
}

// History renders only the activity section.
func History(history []domain.Transaction, now time.Time) string {
	return renderHistory(history, now, newStyles())
}

func renderView(snapshot Snapshot, s styles) string {
	lines := []string{
		s.title.Render("Token Wallet"),
		s.header.Render(userLine(snapshot.User)),
	}
	if snapshot.Notice != "" {
		lines = append(lines, s.warning.Render(snapshot.Notice))
	}

	lines = append(lines, s.section.Render(renderBalances(snapshot.Balances, s)))
	lines = append(lines, s.section.Render(renderHistory(snapshot.History, snapshot.Now, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func userLine(user *domain.User) string {
	if user == nil {
		return "signed out"
	}
	name := strings.TrimSpace(user.DisplayName)
	if name == "" {
		return "signed in as " + user.Email
	}
	return fmt.Sprintf("signed in as %s <%s>", name, user.Email)
}

func renderBalances(balances domain.Balances, s styles) string {
	var peak int64
	for _, tokenType := range domain.TokenTypes() {
		if balances[tokenType] > peak {
			peak = balances[tokenType]
		}
	}

	lines := []string{s.user.Render("Balances")}
	for _, tokenType := range domain.TokenTypes() {
		balance := balances[tokenType]
		share := 0.0
		if peak > 0 && balance > 0 {
			share = float64(balance) / float64(peak) * 100
		}

		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.key.Render(fmt.Sprintf("%-8s", tokenType.Label())),
			" ",
			renderBar(share, balanceBarWidth, s),
			" ",
			lipgloss.NewStyle().Foreground(interpolateColor(share, 0, 100)).Render(fmt.Sprintf("%d", balance)),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderHistory(history []domain.Transaction, now time.Time, s styles) string {
	lines := []string{s.user.Render("Recent activity")}
	if len(history) == 0 {
		lines = append(lines, s.empty.Render("No transactions yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, tx := range history {
		lines = append(lines, transactionLine(tx, now, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func transactionLine(tx domain.Transaction, now time.Time, s styles) string {
	amount := s.credit.Render(fmt.Sprintf("+%d", tx.Amount))
	if tx.Kind == domain.TransactionDebit {
		amount = s.debit.Render(fmt.Sprintf("-%d", tx.Amount))
	}

	description := tx.Description
	if description == "" {
		description = tx.Source
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		amount,
		" ",
		s.key.Render(tx.TokenType.Label()),
		" ",
		s.detail.Render(description),
		" ",
		s.meta.Render(fmt.Sprintf("(balance %d, %s)", tx.Balance, formatAge(tx.Timestamp, now))),
	)
}

func renderBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatAge(at, now time.Time) string {
	if at.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return at.Format("15:04 on 02 Jan")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// interpolateColor maps value onto the 240-255 greyscale ramp.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
