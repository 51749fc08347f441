package toml

import (
	"context"
	"sync"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
	"github.com/spf13/viper"
)

const (
	SessionPathKey  = "session.path"
	sessionFileName = "session.toml"
)

// SessionRepository keeps the session record and the daily bonus marker
// in one file; clearing the session leaves the marker in place.
type SessionRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(cfg *viper.Viper) (*SessionRepository, error) {
	path, err := resolvePath(cfg, SessionPathKey, sessionFileName)
	if err != nil {
		return nil, err
	}

	return &SessionRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *SessionRepository) Path() string {
	return r.path
}

func (r *SessionRepository) Load(ctx context.Context) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Session{}, err
	}

	return fromSessionSchema(file.Session), nil
}

func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	return r.update(ctx, func(file *sessionFileSchema) {
		file.Session = toSessionSchema(session)
	})
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	return r.update(ctx, func(file *sessionFileSchema) {
		file.Session = sessionSchema{}
	})
}

func (r *SessionRepository) LastBonusDay(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return "", err
	}

	return file.Bonus.LastAwarded, nil
}

func (r *SessionRepository) SetLastBonusDay(ctx context.Context, day string) error {
	return r.update(ctx, func(file *sessionFileSchema) {
		file.Bonus.LastAwarded = day
	})
}

func (r *SessionRepository) update(ctx context.Context, mutate func(file *sessionFileSchema)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	mutate(&file)
	file.applyDefaults()

	return writeTOMLFile(r.path, file)
}

func (r *SessionRepository) readSchema() (sessionFileSchema, error) {
	var file sessionFileSchema
	if err := readTOMLFile(r.path, &file); err != nil {
		return sessionFileSchema{}, err
	}
	if err := checkVersion("session", file.Version, currentSessionSchemaVersion); err != nil {
		return sessionFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func toSessionSchema(session domain.Session) sessionSchema {
	schema := sessionSchema{
		IsAuthenticated: session.Authenticated,
		SessionStart:    formatTime(session.SessionStart),
		LastActivity:    formatTime(session.LastActivity),
	}
	if session.User != nil {
		user := toUserSchema(*session.User)
		schema.User = &user
	}
	return schema
}

func fromSessionSchema(schema sessionSchema) domain.Session {
	session := domain.Session{
		Authenticated: schema.IsAuthenticated,
		SessionStart:  parseTime(schema.SessionStart),
		LastActivity:  parseTime(schema.LastActivity),
	}
	if schema.User != nil {
		user := fromUserSchema(*schema.User)
		session.User = &user
	}
	return session
}
