package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/freelance-app/errs"
	"github.com/yeremiapane/freelance-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger("error")
	os.Exit(m.Run())
}

// TestEndToEndIntegration menguji flow utama lewat CLI:
// 1. migrate + seed (dua kali, harus idempotent)
// 2. customers -projects => satu customer dengan satu project
// 3. delete-user => customer dan project ikut terhapus
func TestEndToEndIntegration(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("LOG_LEVEL", "error")

	dbPath := filepath.Join(t.TempDir(), "freelance.db")
	ctx := context.Background()

	exec := func(args ...string) (string, error) {
		var out bytes.Buffer
		err := run(ctx, append([]string{"-d", dbPath}, args...), &out, io.Discard)
		return out.String(), err
	}

	_, err := exec("migrate")
	require.NoError(t, err)

	out, err := exec("seed")
	require.NoError(t, err)
	assert.Contains(t, out, seedEmail)

	// Seeding again must not fail on the unique email.
	out, err = exec("seed")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = exec("users")
	require.NoError(t, err)
	var users []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &users))
	require.Len(t, users, 1)
	assert.Equal(t, seedEmail, users[0]["email"])

	out, err = exec("customers", "-email", seedEmail, "-projects")
	require.NoError(t, err)

	var customers []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		UserID   string `json:"user_id"`
		Projects []struct {
			Name     string   `json:"name"`
			TodoList []string `json:"todo_list"`
		} `json:"projects"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &customers))
	require.Len(t, customers, 1)
	assert.Equal(t, "Acme Studio", customers[0].Name)
	assert.Equal(t, users[0]["id"], customers[0].UserID)
	require.Len(t, customers[0].Projects, 1)
	assert.Equal(t, []string{"Wireframes", "Design", "Build", "Launch"}, customers[0].Projects[0].TodoList)

	out, err = exec("delete-user", "-email", seedEmail)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted user")

	_, err = exec("customers", "-email", seedEmail)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	out, err = exec("users")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestRunUsageErrors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	var out bytes.Buffer

	err := run(context.Background(), nil, &out, io.Discard)
	assert.ErrorIs(t, err, flag.ErrHelp)

	err = run(context.Background(), []string{"frobnicate"}, &out, io.Discard)
	assert.ErrorContains(t, err, "unknown command")

	// No -d and no DATABASE_URL.
	err = run(context.Background(), []string{"migrate"}, &out, io.Discard)
	assert.Error(t, err)

	dbPath := filepath.Join(t.TempDir(), "usage.db")
	err = run(context.Background(), []string{"-d", dbPath, "customers"}, &out, io.Discard)
	assert.ErrorContains(t, err, "-email is required")
}

// TestJSONCommandsKeepStdoutClean memastikan log (level info) tidak ikut
// tercampur dengan JSON di stdout.
func TestJSONCommandsKeepStdoutClean(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("LOG_LEVEL", "info")
	t.Cleanup(func() { utils.InitLogger("error") })

	dbPath := filepath.Join(t.TempDir(), "stdout.db")
	ctx := context.Background()

	var stderr bytes.Buffer
	require.NoError(t, run(ctx, []string{"-d", dbPath, "seed"}, io.Discard, &stderr))

	r, w, err := os.Pipe()
	require.NoError(t, err)
	realStdout := os.Stdout
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = realStdout })

	stderr.Reset()
	runErr := run(ctx, []string{"-d", dbPath, "customers", "-email", seedEmail}, os.Stdout, &stderr)
	os.Stdout = realStdout
	require.NoError(t, w.Close())
	require.NoError(t, runErr)

	out, err := io.ReadAll(r)
	require.NoError(t, err)

	var customers []map[string]any
	require.NoError(t, json.Unmarshal(out, &customers), "stdout was: %s", out)
	assert.Len(t, customers, 1)
	assert.NotContains(t, string(out), "Connected to")

	assert.Contains(t, stderr.String(), "Connected to sqlite database")
	assert.Contains(t, stderr.String(), "Closing database connection pool")
}
