package main

import (
	"bytes"
	"testing"

	"github.com/dfryer1193/mdblog/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	root := t.TempDir()
	testutil.WritePost(t, root, "a.md", testutil.PostFixture{Slug: "a", Title: "A", Date: "2024-01-01"})
	testutil.WritePost(t, root, "b.md", testutil.PostFixture{Slug: "b", Title: "B", Date: "2024-01-02", Draft: true})
	testutil.WritePage(t, root, "about", "About", "Hi.")

	out, err := runCmd(t, "check", "--content", root, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "posts:   1")
	assert.Contains(t, out, "pages:   1")

	out, err = runCmd(t, "check", "--content", root, "--drafts", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "posts:   2")
}

func TestCheckCommand_ReportsSkippedFiles(t *testing.T) {
	root := t.TempDir()
	testutil.WritePost(t, root, "a.md", testutil.PostFixture{Slug: "a", Title: "A", Date: "2024-01-01"})
	testutil.WriteFile(t, root+"/posts/broken.md", "no frontmatter here")

	out, err := runCmd(t, "check", "--content", root, "--log-level", "error")
	require.ErrorIs(t, err, errSkippedFiles)
	assert.Contains(t, out, "skipped: 1")
	assert.Contains(t, out, "broken.md")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	_, err := runCmd(t, "check", "--port", "70000")
	assert.Error(t, err)
}
