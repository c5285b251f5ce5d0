package memory

import (
	"context"

	"quiz-attempt-service/internal/domain"
)

// Directory is a static implementation of app.Directory backed by in-memory
// maps, useful for tests and demo runs without Postgres.
type Directory struct {
	users   map[string]domain.User
	byEmail map[string]domain.User
	rosters map[string][]string
}

func NewDirectory(users []domain.User, rosters map[string][]string) *Directory {
	d := &Directory{
		users:   make(map[string]domain.User, len(users)),
		byEmail: make(map[string]domain.User, len(users)),
		rosters: rosters,
	}
	for _, user := range users {
		d.users[user.ID] = user
		d.byEmail[user.Email] = user
	}
	return d
}

func (d *Directory) GetUser(_ context.Context, userID string) (domain.User, error) {
	if user, ok := d.users[userID]; ok {
		return user, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (d *Directory) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	if user, ok := d.byEmail[email]; ok {
		return user, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (d *Directory) ListMembers(_ context.Context, companyID string) ([]domain.User, error) {
	ids, ok := d.rosters[companyID]
	if !ok {
		return nil, domain.ErrCompanyNotFound
	}
	members := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if user, found := d.users[id]; found {
			members = append(members, user)
		}
	}
	return members, nil
}
