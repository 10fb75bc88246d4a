package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtreecli/subtree/cmd/subtree/cli/testutil"
)

func TestPullFetchesAndMergesIntoPrefix(t *testing.T) {
	host := setupHostRepo(t)
	remote := setupRemoteRepo(t, "vendor.txt", "vendored\n")

	_, err := runCLI(t, host, "add", "--prefix", "vendor", remote, "master")
	require.NoError(t, err)

	testutil.WriteFile(t, remote, "vendor.txt", "vendored again\n")
	testutil.GitAdd(t, remote, "vendor.txt")
	testutil.GitCommit(t, remote, "update vendor.txt")

	_, err = runCLI(t, host, "pull", "--prefix", "vendor", remote, "master")
	require.NoError(t, err)

	got := testutil.ReadFile(t, host, "vendor/vendor.txt")
	assert.Equal(t, "vendored again\n", got)
}

func TestPullRequiresExistingPrefix(t *testing.T) {
	host := setupHostRepo(t)
	remote := setupRemoteRepo(t, "vendor.txt", "vendored\n")

	_, err := runCLI(t, host, "pull", "--prefix", "vendor", remote, "master")
	require.Error(t, err)
	var repoErr *RepositoryStateError
	assert.True(t, errors.As(err, &repoErr), "expected *RepositoryStateError, got %T: %v", err, err)
}

func TestPullDefaultsRefToMain(t *testing.T) {
	host := setupHostRepo(t)
	remote := setupRemoteRepo(t, "vendor.txt", "vendored\n")

	_, err := runCLI(t, host, "add", "--prefix", "vendor", remote)
	require.NoError(t, err)
	assert.True(t, testutil.FileExists(host, "vendor/vendor.txt"))
}

func TestPullWithSquashPromptsAndSkipsWithoutYes(t *testing.T) {
	host := setupHostRepo(t)
	remote := setupRemoteRepo(t, "vendor.txt", "vendored\n")
	_, err := runCLI(t, host, "add", "--prefix", "vendor", remote, "master")
	require.NoError(t, err)

	testutil.WriteFile(t, remote, "vendor.txt", "vendored again\n")
	testutil.GitAdd(t, remote, "vendor.txt")
	testutil.GitCommit(t, remote, "update vendor.txt")

	t.Chdir(host)
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"pull", "--prefix", "vendor", "--squash", remote, "master"})
	err = cmd.Execute()
	require.Error(t, err, "expected --squash without --yes to be refused when stdout is not a terminal")
	var userErr *UserError
	assert.True(t, errors.As(err, &userErr), "expected *UserError, got %T: %v", err, err)
}
