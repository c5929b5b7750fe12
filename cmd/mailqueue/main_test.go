package main

import (
	"os"
	"testing"
)

func TestRunVersionCommand(t *testing.T) {
	if code := run([]string{"version"}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if code := run([]string{"unknown-command"}); code == 0 {
		t.Fatalf("expected non-zero exit code for unknown command")
	}
}

func TestRunSendMailWithoutDatabase(t *testing.T) {
	t.Setenv("MAILQUEUE_CONFIG", "")
	t.Setenv("MAILQUEUE_DATABASE_DSN", "")
	t.Setenv("DATABASE_URL", "")
	chdir(t, t.TempDir())

	if code := run([]string{"send-mail", "--count"}); code != 1 {
		t.Fatalf("expected exit code 1 without a queue database, got %d", code)
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
