package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/user"
)

type userRepository struct {
	db *table[user.User]
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) CheckUniqueness(_ context.Context, email, username string, excludedIDs ...string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}

	var usernameTaken bool
	for _, usr := range repo.db.rows {
		if excluded[usr.ID] {
			continue
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
		if username != "" && usr.Username == username {
			usernameTaken = true
		}
	}
	if usernameTaken {
		return user.ErrUsernameExists
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = uuid.New().String()
	repo.db.rows[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.rows[filter.ID]; ok {
			return usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.rows {
		switch {
		case filter.Email != "" && usr.Email == filter.Email:
			return usr, nil
		case filter.UsernameOrEmail != "" && (usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail):
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	keep := func(usr user.User) bool {
		if filter == nil {
			return true
		}
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(usr.Username), s) && !strings.Contains(strings.ToLower(usr.Email), s) {
				return false
			}
		}
		if len(filter.Roles) > 0 {
			var match bool
			for _, r := range filter.Roles {
				if usr.Role == r {
					match = true
					break
				}
			}
			if !match {
				return false
			}
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			return false
		}
		return true
	}
	return repo.db.all(keep, userLess(ordering)), nil
}

// userLess compares users on the orderings, falling back to newest first.
func userLess(ordering []core.DBOrdering) func(a, b user.User) bool {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	return func(a, b user.User) bool {
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "email":
				cmp = strings.Compare(a.Email, b.Email)
			case "username":
				cmp = strings.Compare(a.Username, b.Username)
			case "role":
				cmp = strings.Compare(string(a.Role), string(b.Role))
			case "created_at":
				cmp = a.CreatedAt.Compare(b.CreatedAt)
			case "last_login":
				switch {
				case a.LastLogin == nil && b.LastLogin == nil:
				case a.LastLogin == nil:
					cmp = -1
				case b.LastLogin == nil:
					cmp = 1
				default:
					cmp = a.LastLogin.Compare(*b.LastLogin)
				}
			}
			if cmp != 0 {
				return (cmp < 0) == ord.Ascending
			}
		}
		return false
	}
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.rows[usr.ID] = usr
	return usr, nil
}
