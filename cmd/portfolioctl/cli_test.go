package main

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxfolio/portfolio-api/internal/config"
)

// newTestRootCmd builds the command tree against a mocked database. The
// config is pre-populated so nothing is read from disk.
func newTestRootCmd(t *testing.T) (*cobra.Command, sqlmock.Sqlmock, *bytes.Buffer) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	a := &app{
		cfg:    &config.Config{Auth: config.AuthConfig{TokenLifetimeSeconds: 3600}},
		openDB: func(*config.Config) (*sql.DB, error) { return db, nil },
	}
	root := newRootCmd(a)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	return root, mock, out
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd(newApp())

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"migrate", "create-admin", "set-password", "import-visitors"}, names)

	migrate, _, err := root.Find([]string{"migrate", "status"})
	require.NoError(t, err)
	assert.Equal(t, "status", migrate.Name())
}

func TestImportVisitors(t *testing.T) {
	root, mock, out := newTestRootCmd(t)
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM visitors").
		WithArgs("ada@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO visitors").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("FROM visitors").
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "registered_at"}).
			AddRow(2, "bob@example.com", "Bob", t0))
	mock.ExpectClose()

	root.SetIn(strings.NewReader("Ada@Example.com\n\nnot-an-email\nbob@example.com\tBob\n"))
	root.SetArgs([]string{"import-visitors", "-"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "added: 1\nexisting: 1\ninvalid: 1\n", out.String())
}

func TestImportVisitors_RequiresFile(t *testing.T) {
	root, _, _ := newTestRootCmd(t)
	root.SetArgs([]string{"import-visitors"})
	assert.Error(t, root.Execute())
}

func TestCreateAdmin_RequiresPassword(t *testing.T) {
	root, _, _ := newTestRootCmd(t)
	root.SetArgs([]string{"create-admin", "--username", "fox"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--password")
}

func TestCreateAdmin(t *testing.T) {
	root, mock, out := newTestRootCmd(t)

	mock.ExpectQuery("INSERT INTO principals").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectClose()

	root.SetArgs([]string{"create-admin", "--username", "fox", "--email", "fox@example.com", "--password", "s3cret-pass"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `Created staff account "fox" (id 7)`)
}
