package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRepositoryName(t *testing.T) {
	assert.True(t, IsRepositoryName("alpha"))
	assert.True(t, IsRepositoryName("  team project  "))
	assert.False(t, IsRepositoryName(""))
	assert.False(t, IsRepositoryName("   "))
	assert.False(t, IsRepositoryName(".."))
	assert.False(t, IsRepositoryName("a/b"))
	assert.False(t, IsRepositoryName(strings.Repeat("x", 101)))
}

func TestIsSourceCodeFile(t *testing.T) {
	for _, name := range []string{"main.py", "App.JAVA", "src.zip", "x.hpp"} {
		assert.True(t, IsSourceCodeFile(name), name)
	}
	for _, name := range []string{"main.exe", "README", "notes.pdf"} {
		assert.False(t, IsSourceCodeFile(name), name)
	}
}

func TestParseGitHubURL(t *testing.T) {
	cases := []struct {
		in          string
		owner, repo string
		ok          bool
	}{
		{"https://github.com/octocat/hello-world", "octocat", "hello-world", true},
		{"https://github.com/octocat/hello-world.git", "octocat", "hello-world", true},
		{"https://www.github.com/octocat/hello-world/", "octocat", "hello-world", true},
		{"git@github.com:octocat/hello-world.git", "octocat", "hello-world", true},
		{"https://gitlab.com/octocat/hello-world", "", "", false},
		{"https://github.com/octocat", "", "", false},
		{"github.com/octocat/hello-world", "", "", false},
		{"ftp://github.com/a/b", "", "", false},
	}

	for _, c := range cases {
		owner, repo, ok := ParseGitHubURL(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.owner, owner, c.in)
		assert.Equal(t, c.repo, repo, c.in)
	}
}
