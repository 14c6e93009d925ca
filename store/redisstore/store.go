package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	courseapp "github.com/albi2/CourseAppApi"
	"github.com/albi2/CourseAppApi/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis transport or protocol failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrImmutableIdentity is returned by UpdateUser when the username or email of a
// stored user would change.
var ErrImmutableIdentity = errors.New("username and email cannot be changed")

const defaultPrefix = "ca"

const insertUserScript = `
if redis.call("EXISTS", KEYS[2]) == 1 or redis.call("EXISTS", KEYS[3]) == 1 then
  return 0
end
redis.call("SET", KEYS[2], ARGV[1])
redis.call("SET", KEYS[3], ARGV[1])
redis.call("SET", KEYS[1], ARGV[2])
return 1
`

var insertUserLua = redis.NewScript(insertUserScript)

// Store keeps users and courses as JSON documents in Redis.
//
// Usernames and emails are claimed through index keys inside a Lua script, so two
// concurrent signups cannot both win. Courses are ordered by a sorted set scored
// with an insertion sequence.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New returns a Store using client. An empty prefix defaults to "ca".
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

// Documents and indexes live in separate namespaces so that no document id can
// address an index or counter key.

func (s *Store) userKey(id string) string {
	return s.prefix + ":doc:user:" + id
}

func (s *Store) courseKey(id string) string {
	return s.prefix + ":doc:course:" + id
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":idx:email:" + email
}

func (s *Store) usernameKey(username string) string {
	return s.prefix + ":idx:username:" + username
}

func (s *Store) courseOrderKey() string {
	return s.prefix + ":idx:courses"
}

func (s *Store) courseSeqKey() string {
	return s.prefix + ":seq:course"
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

type userDoc struct {
	ID        string             `json:"_id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	Password  string             `json:"password"`
	UserType  courseapp.UserType `json:"userType,omitempty"`
	CourseIDs []string           `json:"courseIds"`
	Sessions  []session.Session  `json:"sessions"`
}

func toUserDoc(u *courseapp.User) userDoc {
	doc := userDoc{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		UserType:  u.UserType,
		CourseIDs: u.CourseIDs,
		Sessions:  u.Sessions,
	}
	if doc.CourseIDs == nil {
		doc.CourseIDs = []string{}
	}
	if doc.Sessions == nil {
		doc.Sessions = []session.Session{}
	}
	return doc
}

func (d userDoc) user() *courseapp.User {
	return &courseapp.User{
		ID:        d.ID,
		Username:  d.Username,
		Email:     d.Email,
		Password:  d.Password,
		UserType:  d.UserType,
		CourseIDs: d.CourseIDs,
		Sessions:  d.Sessions,
	}
}

/*
====================================
USERS
====================================
*/

// InsertUser stores u under a new UUID and claims its username and email.
func (s *Store) InsertUser(ctx context.Context, u *courseapp.User) error {
	doc := toUserDoc(u)
	doc.ID = uuid.NewString()

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	keys := []string{s.userKey(doc.ID), s.emailKey(doc.Email), s.usernameKey(doc.Username)}
	ok, err := insertUserLua.Run(ctx, s.redis, keys, doc.ID, data).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ok == 0 {
		return courseapp.ErrDuplicateUser
	}

	u.ID = doc.ID
	return nil
}

// UpdateUser replaces the stored document. The write is skipped if the document
// changes between read and write.
func (s *Store) UpdateUser(ctx context.Context, u *courseapp.User) error {
	key := s.userKey(u.ID)
	doc := toUserDoc(u)
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	err = s.redis.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return courseapp.ErrUserNotFound
			}
			return err
		}
		var current userDoc
		if err := json.Unmarshal(raw, &current); err != nil {
			return err
		}
		if current.Email != doc.Email || current.Username != doc.Username {
			return ErrImmutableIdentity
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, courseapp.ErrUserNotFound), errors.Is(err, ErrImmutableIdentity):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
}

// FindUserByID loads the user stored under id.
func (s *Store) FindUserByID(ctx context.Context, id string) (*courseapp.User, error) {
	if id == "" {
		return nil, courseapp.ErrUserNotFound
	}
	raw, err := s.redis.Get(ctx, s.userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, courseapp.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var doc userDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	return doc.user(), nil
}

// FindUserByEmail resolves the email index and loads the user.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*courseapp.User, error) {
	if email == "" {
		return nil, courseapp.ErrUserNotFound
	}
	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, courseapp.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.FindUserByID(ctx, id)
}

// FindUserByIDAndToken loads user id if any of its sessions carries token.
func (s *Store) FindUserByIDAndToken(ctx context.Context, id, token string) (*courseapp.User, error) {
	u, err := s.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, sess := range u.Sessions {
		if sess.Token == token {
			return u, nil
		}
	}
	return nil, courseapp.ErrUserNotFound
}

/*
====================================
COURSES
====================================
*/

// ListCourses returns every course in insertion order.
func (s *Store) ListCourses(ctx context.Context) ([]courseapp.Course, error) {
	ids, err := s.redis.ZRange(ctx, s.courseOrderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.FindCoursesByIDs(ctx, ids)
}

// FindCourseByID loads the course stored under id.
func (s *Store) FindCourseByID(ctx context.Context, id string) (*courseapp.Course, error) {
	if id == "" {
		return nil, courseapp.ErrCourseNotFound
	}
	raw, err := s.redis.Get(ctx, s.courseKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, courseapp.ErrCourseNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var c courseapp.Course
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode course %s: %w", id, err)
	}
	return &c, nil
}

// FindCoursesByIDs loads ids with a single MGET, keeping their order and skipping
// ids that match nothing.
func (s *Store) FindCoursesByIDs(ctx context.Context, ids []string) ([]courseapp.Course, error) {
	out := make([]courseapp.Course, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.courseKey(id)
	}
	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var c courseapp.Course
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("decode course %s: %w", ids[i], err)
		}
		out = append(out, c)
	}
	return out, nil
}

// InsertCourse stores c under a new UUID and appends it to the listing order.
func (s *Store) InsertCourse(ctx context.Context, c *courseapp.Course) error {
	seq, err := s.redis.Incr(ctx, s.courseSeqKey()).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	doc := *c
	doc.ID = uuid.NewString()
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.courseKey(doc.ID), data, 0)
		pipe.ZAdd(ctx, s.courseOrderKey(), redis.Z{Score: float64(seq), Member: doc.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	c.ID = doc.ID
	return nil
}

// UpdateCourse replaces an existing course document.
func (s *Store) UpdateCourse(ctx context.Context, c *courseapp.Course) error {
	key := s.courseKey(c.ID)
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	err = s.redis.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return courseapp.ErrCourseNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, courseapp.ErrCourseNotFound):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
}

// DeleteCourse removes the course and its listing entry and returns the removed document.
func (s *Store) DeleteCourse(ctx context.Context, id string) (*courseapp.Course, error) {
	key := s.courseKey(id)
	var removed courseapp.Course

	err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return courseapp.ErrCourseNotFound
			}
			return err
		}
		if err := json.Unmarshal(raw, &removed); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, s.courseOrderKey(), id)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return &removed, nil
	case errors.Is(err, courseapp.ErrCourseNotFound):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
}

var (
	_ courseapp.UserStore   = (*Store)(nil)
	_ courseapp.CourseStore = (*Store)(nil)
)
