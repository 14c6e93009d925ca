package session

import (
	"testing"
	"time"
)

func TestFindClassifiesToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	sessions := []Session{
		{Token: "old", ExpiresAt: now.Unix() - 10},
		{Token: "live", ExpiresAt: now.Unix() + 10},
	}

	if got := Find(sessions, "live", now); got != LookupValid {
		t.Fatalf("expected valid, got %v", got)
	}
	if got := Find(sessions, "old", now); got != LookupExpired {
		t.Fatalf("expected expired, got %v", got)
	}
	if got := Find(sessions, "missing", now); got != LookupMissing {
		t.Fatalf("expected missing, got %v", got)
	}
	if got := Find(nil, "live", now); got != LookupMissing {
		t.Fatalf("expected missing on empty list, got %v", got)
	}
}

func TestFindAnyMatchingUnexpiredWins(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	sessions := []Session{
		{Token: "dup", ExpiresAt: now.Unix()},
		{Token: "dup", ExpiresAt: now.Unix() + 60},
	}
	if !Valid(sessions, "dup", now) {
		t.Fatal("expected later unexpired duplicate to validate")
	}
}

func TestPruneKeepsOrderAndInput(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	sessions := []Session{
		{Token: "a", ExpiresAt: now.Unix() + 5},
		{Token: "b", ExpiresAt: now.Unix()},
		{Token: "c", ExpiresAt: now.Unix() + 1},
	}

	kept := Prune(sessions, now)
	if len(kept) != 2 || kept[0].Token != "a" || kept[1].Token != "c" {
		t.Fatalf("unexpected prune result: %+v", kept)
	}
	if len(sessions) != 3 || sessions[1].Token != "b" {
		t.Fatal("expected input to be left untouched")
	}
}

func TestCapDropsOldest(t *testing.T) {
	sessions := []Session{{Token: "1"}, {Token: "2"}, {Token: "3"}, {Token: "4"}}

	got := Cap(sessions, 3, 1)
	if len(got) != 2 || got[0].Token != "3" || got[1].Token != "4" {
		t.Fatalf("unexpected cap result: %+v", got)
	}
	if got := Cap(sessions, 0, 1); len(got) != 4 {
		t.Fatalf("expected disabled cap to keep all, got %d", len(got))
	}
	if got := Cap(sessions, 10, 1); len(got) != 4 {
		t.Fatalf("expected under-limit list to be unchanged, got %d", len(got))
	}
	if got := Cap(sessions, 1, 1); len(got) != 0 {
		t.Fatalf("expected room for one new session only, got %d", len(got))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	src := []Session{{Token: "a", ExpiresAt: 1}}
	dst := Clone(src)
	dst[0].Token = "b"
	if src[0].Token != "a" {
		t.Fatal("expected clone to be independent")
	}
	if Clone(nil) != nil {
		t.Fatal("expected nil clone of nil")
	}
}
