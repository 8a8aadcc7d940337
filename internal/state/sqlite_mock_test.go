package state

import (
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAppendInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO entries").
		WillReturnError(errors.New("disk I/O error"))

	store := NewSQLiteStoreWithDB(db)
	appendErr := store.Append(&Entry{SessionID: "s", Input: "eval 1"})
	if appendErr == nil {
		t.Fatal("expected append error")
	}
	if got := appendErr.Error(); !strings.Contains(got, "disk I/O error") {
		t.Errorf("expected wrapped driver error, got %q", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecentQueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM entries").
		WillReturnError(errors.New("database is locked"))

	store := NewSQLiteStoreWithDB(db)
	if _, err := store.Recent(10); err == nil {
		t.Fatal("expected query error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
