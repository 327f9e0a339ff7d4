package memory

import (
	"context"
	"strings"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
)

// UserRepository implementa repository.UserRepository en memoria.
type UserRepository struct {
	handle
}

func copyUser(u *entity.User) *entity.User {
	cp := *u
	return &cp
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	return r.write(func(st *state) error {
		for _, existing := range st.users {
			if existing.ID == u.ID || strings.EqualFold(existing.Username, u.Username) {
				return domain.ErrDuplicate
			}
		}
		st.users[u.ID] = copyUser(u)
		st.userOrder = append(st.userOrder, u.ID)
		return nil
	})
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.read(func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = copyUser(u)
		}
		return nil
	})
	return out, err
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	var out *entity.User
	err := r.read(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Username, strings.TrimSpace(username)) {
				out = copyUser(u)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	return r.write(func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return domain.ErrNotFound
		}
		for _, existing := range st.users {
			if existing.ID != u.ID && strings.EqualFold(existing.Username, u.Username) {
				return domain.ErrDuplicate
			}
		}
		st.users[u.ID] = copyUser(u)
		return nil
	})
}

func (r *UserRepository) List(_ context.Context) ([]*entity.User, error) {
	out := make([]*entity.User, 0)
	err := r.read(func(st *state) error {
		for _, id := range st.userOrder {
			out = append(out, copyUser(st.users[id]))
		}
		return nil
	})
	return out, err
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	return r.write(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.users, id)
		st.userOrder = remove(st.userOrder, id)
		return nil
	})
}
