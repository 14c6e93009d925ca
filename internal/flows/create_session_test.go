package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/albi2/CourseAppApi/session"
)

func fixedNow() time.Time { return time.Unix(1_700_000_000, 0) }

func TestRunCreateSessionAppendsAndPersists(t *testing.T) {
	var persisted []session.Session
	deps := CreateSessionDeps{
		Now:             fixedNow,
		Lifetime:        10 * 24 * time.Hour,
		NewRefreshToken: func() (string, error) { return "tok-new", nil },
		Persist: func(_ context.Context, s []session.Session) error {
			persisted = s
			return nil
		},
	}

	existing := []session.Session{{Token: "tok-old", ExpiresAt: fixedNow().Unix() + 100}}
	res := RunCreateSession(context.Background(), existing, deps)
	if res.Failure != CreateSessionFailureNone {
		t.Fatalf("unexpected failure: %v %v", res.Failure, res.Err)
	}
	if res.Token != "tok-new" {
		t.Fatalf("expected tok-new, got %q", res.Token)
	}
	if want := fixedNow().Unix() + 864000; res.ExpiresAt != want {
		t.Fatalf("expected expiry %d, got %d", want, res.ExpiresAt)
	}
	if len(persisted) != 2 || persisted[1].Token != "tok-new" {
		t.Fatalf("unexpected persisted list: %+v", persisted)
	}
	if len(existing) != 1 {
		t.Fatal("expected input list to be left untouched")
	}
}

func TestRunCreateSessionPrunesAndCaps(t *testing.T) {
	now := fixedNow()
	existing := []session.Session{
		{Token: "expired", ExpiresAt: now.Unix() - 1},
		{Token: "a", ExpiresAt: now.Unix() + 10},
		{Token: "b", ExpiresAt: now.Unix() + 10},
		{Token: "c", ExpiresAt: now.Unix() + 10},
	}
	deps := CreateSessionDeps{
		Now:             fixedNow,
		PruneExpired:    true,
		MaxSessions:     3,
		NewRefreshToken: func() (string, error) { return "d", nil },
		Persist:         func(context.Context, []session.Session) error { return nil },
	}

	res := RunCreateSession(context.Background(), existing, deps)
	if res.Failure != CreateSessionFailureNone {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	if len(res.Sessions) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(res.Sessions))
	}
	if res.Sessions[0].Token != "b" || res.Sessions[2].Token != "d" {
		t.Fatalf("expected oldest dropped, got %+v", res.Sessions)
	}
	if res.Dropped != 2 {
		t.Fatalf("expected 2 dropped, got %d", res.Dropped)
	}
}

func TestRunCreateSessionPersistFailure(t *testing.T) {
	boom := errors.New("write failed")
	deps := CreateSessionDeps{
		Now:             fixedNow,
		NewRefreshToken: func() (string, error) { return "tok", nil },
		Persist:         func(context.Context, []session.Session) error { return boom },
	}

	res := RunCreateSession(context.Background(), nil, deps)
	if res.Failure != CreateSessionFailurePersist || !errors.Is(res.Err, boom) {
		t.Fatalf("expected persist failure, got %v %v", res.Failure, res.Err)
	}
	if res.Token != "" {
		t.Fatal("expected no token on failure")
	}
}

func TestRunCreateSessionGenerateFailure(t *testing.T) {
	persisted := false
	deps := CreateSessionDeps{
		NewRefreshToken: func() (string, error) { return "", errors.New("entropy") },
		Persist: func(context.Context, []session.Session) error {
			persisted = true
			return nil
		},
	}

	res := RunCreateSession(context.Background(), nil, deps)
	if res.Failure != CreateSessionFailureGenerate {
		t.Fatalf("expected generate failure, got %v", res.Failure)
	}
	if persisted {
		t.Fatal("expected no persistence after generation failure")
	}
}
