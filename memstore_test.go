package courseapp

import (
	"context"
	"fmt"
	"sync"
)

type memStore struct {
	mu sync.Mutex

	users   map[string]*User
	courses map[string]*Course
	order   []string
	nextID  int

	updateUserErr   error
	updateUserCalls int
	insertUserCalls int

	// beforeUpdateUser runs ahead of every UpdateUser, outside the lock.
	beforeUpdateUser func()
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]*User{},
		courses: map[string]*Course{},
	}
}

func (m *memStore) newID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s%04d", prefix, m.nextID)
}

// stored strips the staged password; only persisted fields survive a round trip.
func stored(u *User) *User {
	out := u.Clone()
	out.clearPendingPassword()
	return out
}

func (m *memStore) InsertUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertUserCalls++

	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return ErrDuplicateUser
		}
	}
	u.ID = m.newID("u")
	m.users[u.ID] = stored(u)
	return nil
}

func (m *memStore) UpdateUser(_ context.Context, u *User) error {
	if m.beforeUpdateUser != nil {
		m.beforeUpdateUser()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateUserCalls++

	if m.updateUserErr != nil {
		return m.updateUserErr
	}
	if _, ok := m.users[u.ID]; !ok {
		return ErrUserNotFound
	}
	m.users[u.ID] = stored(u)
	return nil
}

func (m *memStore) FindUserByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u.Clone(), nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memStore) FindUserByIDAndToken(_ context.Context, id, token string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	for _, s := range u.Sessions {
		if s.Token == token {
			return u.Clone(), nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memStore) ListCourses(context.Context) ([]Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Course, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.courses[id])
	}
	return out, nil
}

func (m *memStore) FindCourseByID(_ context.Context, id string) (*Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courses[id]
	if !ok {
		return nil, ErrCourseNotFound
	}
	out := *c
	return &out, nil
}

func (m *memStore) FindCoursesByIDs(_ context.Context, ids []string) ([]Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) InsertCourse(_ context.Context, c *Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.ID = m.newID("c")
	cp := *c
	m.courses[c.ID] = &cp
	m.order = append(m.order, c.ID)
	return nil
}

func (m *memStore) UpdateCourse(_ context.Context, c *Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.courses[c.ID]; !ok {
		return ErrCourseNotFound
	}
	cp := *c
	m.courses[c.ID] = &cp
	return nil
}

func (m *memStore) DeleteCourse(_ context.Context, id string) (*Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courses[id]
	if !ok {
		return nil, ErrCourseNotFound
	}
	delete(m.courses, id)
	for i, cid := range m.order {
		if cid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return c, nil
}
