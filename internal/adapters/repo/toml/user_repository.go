package toml

import (
	"context"
	"sync"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
	"github.com/spf13/viper"
)

const (
	UsersPathKey  = "users.path"
	usersFileName = "users.toml"
)

type UserRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(cfg *viper.Viper) (*UserRepository, error) {
	path, err := resolvePath(cfg, UsersPathKey, usersFileName)
	if err != nil {
		return nil, err
	}

	return &UserRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *UserRepository) Save(ctx context.Context, user domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toUserSchema(user)
	updated := false
	for i := range file.Users {
		if file.Users[i].ID == encoded.ID {
			file.Users[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Users = append(file.Users, encoded)
	}

	return writeTOMLFile(r.path, file)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.User{}, err
	}

	normalized := domain.NormalizeEmail(email)
	for _, entry := range file.Users {
		if domain.NormalizeEmail(entry.Email) == normalized {
			return fromUserSchema(entry), nil
		}
	}

	return domain.User{}, domain.ErrUserNotFound
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(file.Users))
	for _, entry := range file.Users {
		users = append(users, fromUserSchema(entry))
	}

	return users, nil
}

func (r *UserRepository) readSchema() (usersFileSchema, error) {
	var file usersFileSchema
	if err := readTOMLFile(r.path, &file); err != nil {
		return usersFileSchema{}, err
	}
	if err := checkVersion("users", file.Version, currentUsersSchemaVersion); err != nil {
		return usersFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func toUserSchema(user domain.User) userSchema {
	return userSchema{
		ID:          string(user.ID),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		SecretRef:   user.SecretRef,
		CreatedAt:   formatTime(user.CreatedAt),
	}
}

func fromUserSchema(schema userSchema) domain.User {
	return domain.User{
		ID:          domain.UserID(schema.ID),
		Email:       schema.Email,
		DisplayName: schema.DisplayName,
		SecretRef:   schema.SecretRef,
		CreatedAt:   parseTime(schema.CreatedAt),
	}
}
