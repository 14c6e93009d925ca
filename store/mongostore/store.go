package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	courseapp "github.com/albi2/CourseAppApi"
	"github.com/albi2/CourseAppApi/session"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection   = "users"
	coursesCollection = "courses"
)

// Store implements courseapp.UserStore and courseapp.CourseStore on MongoDB.
type Store struct {
	client  *mongo.Client
	users   *mongo.Collection
	courses *mongo.Collection
}

// Open connects to uri, pings the server and ensures the unique indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := New(client.Database(database))
	s.client = client
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. Call EnsureIndexes before serving traffic.
func New(db *mongo.Database) *Store {
	return &Store{
		client:  db.Client(),
		users:   db.Collection(usersCollection),
		courses: db.Collection(coursesCollection),
	}
}

// EnsureIndexes creates the unique username and email indexes and the session token index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sessions.token", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type userDoc struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Username  string               `bson:"username"`
	Email     string               `bson:"email"`
	Password  string               `bson:"password"`
	UserType  string               `bson:"userType,omitempty"`
	CourseIDs []primitive.ObjectID `bson:"courseIds"`
	Sessions  []session.Session    `bson:"sessions"`
}

// toUserDoc converts course references to ObjectIDs. A reference that is not a valid
// hex id cannot name a stored course and fails with ErrCourseNotFound.
func toUserDoc(u *courseapp.User) (userDoc, error) {
	doc := userDoc{
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		UserType:  string(u.UserType),
		CourseIDs: make([]primitive.ObjectID, 0, len(u.CourseIDs)),
		Sessions:  u.Sessions,
	}
	for _, id := range u.CourseIDs {
		oid, ok := objectID(id)
		if !ok {
			return userDoc{}, fmt.Errorf("%w: %q", courseapp.ErrCourseNotFound, id)
		}
		doc.CourseIDs = append(doc.CourseIDs, oid)
	}
	if doc.Sessions == nil {
		doc.Sessions = []session.Session{}
	}
	return doc, nil
}

func (d userDoc) user() *courseapp.User {
	courseIDs := make([]string, 0, len(d.CourseIDs))
	for _, oid := range d.CourseIDs {
		courseIDs = append(courseIDs, oid.Hex())
	}
	return &courseapp.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Email:     d.Email,
		Password:  d.Password,
		UserType:  courseapp.UserType(d.UserType),
		CourseIDs: courseIDs,
		Sessions:  d.Sessions,
	}
}

type courseDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Number       int                `bson:"id"`
	CourseName   string             `bson:"courseName"`
	Credits      float64            `bson:"credits"`
	Lecturer     string             `bson:"lecturer"`
	NoOfStudents int                `bson:"noOfStudents"`
	StartDate    time.Time          `bson:"startDate"`
	NoOfWeeks    int                `bson:"noOfWeeks"`
	LastUpdated  time.Time          `bson:"lastUpdated"`
	Description  string             `bson:"description,omitempty"`
}

func toCourseDoc(c *courseapp.Course) courseDoc {
	return courseDoc{
		Number:       c.Number,
		CourseName:   c.CourseName,
		Credits:      c.Credits,
		Lecturer:     c.Lecturer,
		NoOfStudents: c.NoOfStudents,
		StartDate:    c.StartDate,
		NoOfWeeks:    c.NoOfWeeks,
		LastUpdated:  c.LastUpdated,
		Description:  c.Description,
	}
}

func (d courseDoc) course() courseapp.Course {
	return courseapp.Course{
		ID:           d.ID.Hex(),
		Number:       d.Number,
		CourseName:   d.CourseName,
		Credits:      d.Credits,
		Lecturer:     d.Lecturer,
		NoOfStudents: d.NoOfStudents,
		StartDate:    d.StartDate.UTC(),
		NoOfWeeks:    d.NoOfWeeks,
		LastUpdated:  d.LastUpdated.UTC(),
		Description:  d.Description,
	}
}

// objectID parses a hex id. Malformed ids cannot match any document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

/*
====================================
USERS
====================================
*/

// InsertUser stores u and assigns its ObjectID hex as u.ID.
func (s *Store) InsertUser(ctx context.Context, u *courseapp.User) error {
	doc, err := toUserDoc(u)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return courseapp.ErrDuplicateUser
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = doc.ID.Hex()
	return nil
}

// UpdateUser replaces the stored document.
func (s *Store) UpdateUser(ctx context.Context, u *courseapp.User) error {
	oid, ok := objectID(u.ID)
	if !ok {
		return courseapp.ErrUserNotFound
	}
	doc, err := toUserDoc(u)
	if err != nil {
		return err
	}
	doc.ID = oid

	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return courseapp.ErrDuplicateUser
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return courseapp.ErrUserNotFound
	}
	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*courseapp.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, courseapp.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.user(), nil
}

// FindUserByID loads the user with the given hex id.
func (s *Store) FindUserByID(ctx context.Context, id string) (*courseapp.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, courseapp.ErrUserNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

// FindUserByEmail loads the user with the given email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*courseapp.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

// FindUserByIDAndToken loads user id if any of its sessions carries token.
func (s *Store) FindUserByIDAndToken(ctx context.Context, id, token string) (*courseapp.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, courseapp.ErrUserNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid, "sessions.token": token})
}

/*
====================================
COURSES
====================================
*/

func (s *Store) findCourses(ctx context.Context, filter bson.M) ([]courseDoc, error) {
	cursor, err := s.courses.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []courseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}
	return docs, nil
}

// ListCourses returns every course in insertion order.
func (s *Store) ListCourses(ctx context.Context) ([]courseapp.Course, error) {
	docs, err := s.findCourses(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]courseapp.Course, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.course())
	}
	return out, nil
}

// FindCourseByID loads the course with the given hex id.
func (s *Store) FindCourseByID(ctx context.Context, id string) (*courseapp.Course, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, courseapp.ErrCourseNotFound
	}

	var doc courseDoc
	if err := s.courses.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, courseapp.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	c := doc.course()
	return &c, nil
}

// FindCoursesByIDs loads ids with one $in query and returns them in the order of ids.
func (s *Store) FindCoursesByIDs(ctx context.Context, ids []string) ([]courseapp.Course, error) {
	out := make([]courseapp.Course, 0, len(ids))

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := objectID(id); ok {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return out, nil
	}

	docs, err := s.findCourses(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]courseDoc, len(docs))
	for _, d := range docs {
		byID[d.ID.Hex()] = d
	}
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d.course())
		}
	}
	return out, nil
}

// InsertCourse stores c and assigns its ObjectID hex as c.ID.
func (s *Store) InsertCourse(ctx context.Context, c *courseapp.Course) error {
	doc := toCourseDoc(c)
	doc.ID = primitive.NewObjectID()
	if _, err := s.courses.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	c.ID = doc.ID.Hex()
	return nil
}

// UpdateCourse replaces the stored course document.
func (s *Store) UpdateCourse(ctx context.Context, c *courseapp.Course) error {
	oid, ok := objectID(c.ID)
	if !ok {
		return courseapp.ErrCourseNotFound
	}
	doc := toCourseDoc(c)
	doc.ID = oid

	res, err := s.courses.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if res.MatchedCount == 0 {
		return courseapp.ErrCourseNotFound
	}
	return nil
}

// DeleteCourse removes the course and returns the removed document.
func (s *Store) DeleteCourse(ctx context.Context, id string) (*courseapp.Course, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, courseapp.ErrCourseNotFound
	}

	var doc courseDoc
	if err := s.courses.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, courseapp.ErrCourseNotFound
		}
		return nil, fmt.Errorf("delete course: %w", err)
	}
	c := doc.course()
	return &c, nil
}

var (
	_ courseapp.UserStore   = (*Store)(nil)
	_ courseapp.CourseStore = (*Store)(nil)
)
