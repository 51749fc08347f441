package toml

import "fmt"

const (
	currentWalletSchemaVersion     = 1
	currentSessionSchemaVersion    = 1
	currentUsersSchemaVersion      = 1
	currentCollectionSchemaVersion = 1
)

func checkVersion(kind string, version, current int) error {
	if version > current {
		return fmt.Errorf("unsupported %s schema version %d (current %d)", kind, version, current)
	}
	return nil
}

type walletFileSchema struct {
	Version     int                 `toml:"version"`
	LastUpdated string              `toml:"last_updated,omitempty"`
	Balances    map[string]int64    `toml:"balances"`
	Tokens      []tokenSchema       `toml:"tokens,omitempty"`
	History     []transactionSchema `toml:"history,omitempty"`
}

func (s *walletFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentWalletSchemaVersion
	}
}

type tokenSchema struct {
	ID          string            `toml:"id"`
	Seq         int64             `toml:"seq"`
	Type        string            `toml:"type"`
	Amount      int64             `toml:"amount"`
	Source      string            `toml:"source"`
	Description string            `toml:"description"`
	Timestamp   string            `toml:"timestamp"`
	Metadata    map[string]string `toml:"metadata,omitempty"`
}

type transactionSchema struct {
	TokenID     string `toml:"token_id"`
	Kind        string `toml:"kind"`
	TokenType   string `toml:"token_type"`
	Amount      int64  `toml:"amount"`
	Source      string `toml:"source"`
	Description string `toml:"description"`
	Timestamp   string `toml:"timestamp"`
	Balance     int64  `toml:"balance"`
}

type sessionFileSchema struct {
	Version int           `toml:"version"`
	Session sessionSchema `toml:"session"`
	Bonus   bonusSchema   `toml:"bonus"`
}

func (s *sessionFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSessionSchemaVersion
	}
}

type sessionSchema struct {
	IsAuthenticated bool        `toml:"is_authenticated"`
	User            *userSchema `toml:"user,omitempty"`
	SessionStart    string      `toml:"session_start,omitempty"`
	LastActivity    string      `toml:"last_activity,omitempty"`
}

type bonusSchema struct {
	LastAwarded string `toml:"last_awarded,omitempty"`
}

type usersFileSchema struct {
	Version int          `toml:"version"`
	Users   []userSchema `toml:"users"`
}

func (s *usersFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentUsersSchemaVersion
	}
}

type userSchema struct {
	ID          string `toml:"id"`
	Email       string `toml:"email"`
	DisplayName string `toml:"display_name"`
	SecretRef   string `toml:"secret_ref"`
	CreatedAt   string `toml:"created_at,omitempty"`
}

type collectionFileSchema struct {
	Version  int            `toml:"version"`
	Class    string         `toml:"class"`
	SavedAt  string         `toml:"saved_at,omitempty"`
	Entities []entitySchema `toml:"entities"`
}

func (s *collectionFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentCollectionSchemaVersion
	}
}

type entitySchema struct {
	ID         string            `toml:"id"`
	Name       string            `toml:"name"`
	Version    string            `toml:"version"`
	UpdatedAt  string            `toml:"updated_at,omitempty"`
	Attributes map[string]string `toml:"attributes,omitempty"`
}
