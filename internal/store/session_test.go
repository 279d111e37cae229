package store

import (
	"testing"
	"time"

	"github.com/volunteerhub/volunteerhub/internal/model"
)

func TestSessionCreateAndGet(t *testing.T) {
	db := setupStoreTest(t)
	ss := NewSessionStore(db)

	sess, err := ss.Create(model.SubjectVolunteer, 42)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}
	if sess.SubjectType != model.SubjectVolunteer {
		t.Errorf("subject_type = %q, want %q", sess.SubjectType, model.SubjectVolunteer)
	}
	if sess.SubjectID != 42 {
		t.Errorf("subject_id = %d, want 42", sess.SubjectID)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Errorf("got = %+v, want session %d", got, sess.ID)
	}
}

func TestSessionGetByTokenUnknown(t *testing.T) {
	db := setupStoreTest(t)
	ss := NewSessionStore(db)

	got, err := ss.GetByToken("deadbeef")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestSessionExpiry(t *testing.T) {
	db := setupStoreTest(t)
	ss := NewSessionStore(db)

	sess, err := ss.Create(model.SubjectPromoter, 1)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Force the session into the past.
	if _, err := db.Exec(
		`UPDATE sessions SET expires_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Hour), sess.ID,
	); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil for expired session")
	}

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}

func TestSessionDelete(t *testing.T) {
	db := setupStoreTest(t)
	ss := NewSessionStore(db)

	sess, err := ss.Create(model.SubjectVolunteer, 1)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := ss.Delete(sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}
