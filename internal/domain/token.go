package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type TokenType string

const (
	TokenTypeInfinity TokenType = "infinity_tokens"
	TokenTypeXP       TokenType = "xp_tokens"
	TokenTypeBadge    TokenType = "badge_tokens"
	TokenTypeCreator  TokenType = "creator_tokens"
)

// TokenTypes returns the recognized token kinds in display order.
func TokenTypes() []TokenType {
	return []TokenType{TokenTypeInfinity, TokenTypeXP, TokenTypeBadge, TokenTypeCreator}
}

func (t TokenType) Valid() bool {
	switch t {
	case TokenTypeInfinity, TokenTypeXP, TokenTypeBadge, TokenTypeCreator:
		return true
	default:
		return false
	}
}

func (t TokenType) Label() string {
	name := strings.TrimSuffix(string(t), "_tokens")
	if name == "xp" {
		return "XP"
	}
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func ParseTokenType(raw string) (TokenType, error) {
	normalized := TokenType(strings.ToLower(strings.TrimSpace(raw)))
	if !strings.HasSuffix(string(normalized), "_tokens") {
		normalized += "_tokens"
	}
	if !normalized.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTokenType, raw)
	}
	return normalized, nil
}

// Token is an immutable ledger entry. Positive amounts credit, negative debit.
type Token struct {
	ID          string
	Seq         int64
	Type        TokenType
	Amount      int64
	Source      string
	Description string
	Timestamp   time.Time
	Metadata    map[string]string
}

func (t Token) IsDebit() bool {
	return t.Amount < 0
}

type TransactionKind string

const (
	TransactionCredit TransactionKind = "credit"
	TransactionDebit  TransactionKind = "debit"
)

// Transaction is one bounded-history row; Balance is the balance of
// TokenType right after the transaction was applied.
type Transaction struct {
	TokenID     string
	Kind        TransactionKind
	TokenType   TokenType
	Amount      int64
	Source      string
	Description string
	Timestamp   time.Time
	Balance     int64
}

func TransactionFor(token Token, balance int64) Transaction {
	kind := TransactionCredit
	amount := token.Amount
	if token.IsDebit() {
		kind = TransactionDebit
		amount = -amount
	}

	return Transaction{
		TokenID:     token.ID,
		Kind:        kind,
		TokenType:   token.Type,
		Amount:      amount,
		Source:      token.Source,
		Description: token.Description,
		Timestamp:   token.Timestamp,
		Balance:     balance,
	}
}

type Balances map[TokenType]int64

// ZeroBalances returns one zero entry per recognized type.
func ZeroBalances() Balances {
	balances := make(Balances, len(TokenTypes()))
	for _, tokenType := range TokenTypes() {
		balances[tokenType] = 0
	}
	return balances
}

// ReplayBalances derives balances from the log alone.
func ReplayBalances(tokens []Token) Balances {
	balances := ZeroBalances()
	for _, token := range tokens {
		balances[token.Type] += token.Amount
	}
	return balances
}

// WalletState is the persisted wallet: the append-only token log, the
// cached balances derived from it and the bounded transaction history.
type WalletState struct {
	Balances    Balances
	LastUpdated time.Time
	Tokens      []Token
	History     []Transaction
}

func (s WalletState) Balance(tokenType TokenType) int64 {
	return s.Balances[tokenType]
}

// NextSeq returns the log position for the next appended token.
func (s WalletState) NextSeq() int64 {
	if len(s.Tokens) == 0 {
		return 1
	}
	return s.Tokens[len(s.Tokens)-1].Seq + 1
}

// Append adds token to the log and applies it to the cached balance and
// the history in one step. History is trimmed to maxHistory, oldest first.
func (s *WalletState) Append(token Token, maxHistory int) Transaction {
	if s.Balances == nil {
		s.Balances = ZeroBalances()
	}

	s.Tokens = append(s.Tokens, token)
	s.Balances[token.Type] += token.Amount
	s.LastUpdated = token.Timestamp

	tx := TransactionFor(token, s.Balances[token.Type])
	s.History = append(s.History, tx)
	if maxHistory > 0 && len(s.History) > maxHistory {
		s.History = append([]Transaction(nil), s.History[len(s.History)-maxHistory:]...)
	}

	return tx
}

// Reset empties the log, history and balances.
func (s *WalletState) Reset(at time.Time) {
	s.Tokens = nil
	s.History = nil
	s.Balances = ZeroBalances()
	s.LastUpdated = at
}

// Normalize fills missing balance entries and keeps the log in seq order.
func (s *WalletState) Normalize() {
	if s.Balances == nil {
		s.Balances = ZeroBalances()
	}
	for _, tokenType := range TokenTypes() {
		if _, ok := s.Balances[tokenType]; !ok {
			s.Balances[tokenType] = 0
		}
	}
	sort.SliceStable(s.Tokens, func(i, j int) bool {
		return s.Tokens[i].Seq < s.Tokens[j].Seq
	})
}

// Drift lists the types whose cached balance disagrees with a replay of the log.
func (s WalletState) Drift() map[TokenType][2]int64 {
	replayed := ReplayBalances(s.Tokens)
	drift := map[TokenType][2]int64{}
	for tokenType, want := range replayed {
		if got := s.Balances[tokenType]; got != want {
			drift[tokenType] = [2]int64{got, want}
		}
	}
	return drift
}

// Clone returns a deep copy safe to hand out to callers.
func (s WalletState) Clone() WalletState {
	clone := WalletState{
		Balances:    make(Balances, len(s.Balances)),
		LastUpdated: s.LastUpdated,
		Tokens:      make([]Token, len(s.Tokens)),
		History:     append([]Transaction(nil), s.History...),
	}
	for tokenType, balance := range s.Balances {
		clone.Balances[tokenType] = balance
	}
	for i, token := range s.Tokens {
		token.Metadata = cloneMetadata(token.Metadata)
		clone.Tokens[i] = token
	}
	return clone
}

func cloneMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}
	clone := make(map[string]string, len(metadata))
	for key, value := range metadata {
		clone[key] = value
	}
	return clone
}
