package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/killallgit/deckchat/pkg/deck"
	"github.com/killallgit/deckchat/pkg/session"
	"github.com/killallgit/deckchat/pkg/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DECKCHAT_LOG_FILE", filepath.Join(t.TempDir(), "system.log"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag so values do not leak between executions
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestRootCommandFlags(t *testing.T) {
	for _, name := range []string{"config", "log-level", "api-url"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}

	sessionFlag := rootCmd.Flags().Lookup("session")
	require.NotNil(t, sessionFlag)
	assert.Equal(t, "s", sessionFlag.Shorthand)
	assert.NotNil(t, rootCmd.Flags().Lookup("profile"))

	pinFlag := chatCmd.Flags().Lookup("pin")
	require.NotNil(t, pinFlag)
	assert.Equal(t, "intSlice", pinFlag.Value.Type())
}

func TestCommandTree(t *testing.T) {
	paths := [][]string{
		{"chat"},
		{"session", "create"},
		{"session", "show"},
		{"session", "rename"},
		{"session", "delete"},
		{"profiles"},
		{"upload"},
		{"config", "init"},
		{"config", "show"},
	}

	for _, path := range paths {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			found, rest, err := rootCmd.Find(path)
			require.NoError(t, err)
			assert.Empty(t, rest)
			assert.Equal(t, path[len(path)-1], found.Name())
		})
	}
}

func TestSlideNumbersToIndices(t *testing.T) {
	indices, err := slideNumbersToIndices([]int{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, indices)

	_, err = slideNumbersToIndices([]int{0})
	assert.ErrorContains(t, err, "numbered from 1")
}

func TestProfilesCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/profiles", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"profiles": []map[string]any{
				{"id": "corp", "name": "Corporate", "is_default": true},
			},
		})
	}))
	defer srv.Close()

	out, err := execute(t, "--api-url", srv.URL, "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "Corporate")
	assert.Contains(t, out, "corp")
}

func TestSessionShowCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/s-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"s-1","title":"Solar","messages":[{"role":"user","content":"Create 3 slides"}]}`)
	}))
	defer srv.Close()

	out, err := execute(t, "--api-url", srv.URL, "session", "show", "s-1")
	require.NoError(t, err)
	assert.Contains(t, out, "s-1")
	assert.Contains(t, out, "Solar")
	assert.Contains(t, out, "Create 3 slides")
}

func TestChatCommandRunsTurn(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.AddSession(&session.Session{ID: "s-1"})
	backend.QueueTurn(
		testutil.AssistantRecord("Three slides coming up"),
		testutil.CompleteRecord(testutil.Deck("a", "b", "c"), nil),
	)

	out, err := execute(t, "--api-url", backend.URL, "chat", "-s", "s-1", "-p", "Create 3 slides", "--metrics")
	require.NoError(t, err)

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "s-1", reqs[0].SessionID)
	assert.Equal(t, "Create 3 slides", reqs[0].Message)
	assert.Nil(t, reqs[0].SlideContext)

	assert.Contains(t, out, "Three slides coming up")
	assert.Contains(t, out, "[Session: s-1, Slides: 3]")
	assert.Contains(t, out, `deckchat_turns_total{outcome="completed"} 1`)
}

func TestChatCommandPinsSlides(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.AddSession(&session.Session{ID: "s-2", SlideDeck: testutil.Deck("a", "b", "c")})
	backend.QueueTurn(testutil.CompleteRecord(testutil.Deck("a", "bc"),
		&deck.ReplacementInfo{OriginalCount: 2, ReplacementCount: 1}))

	out, err := execute(t, "--api-url", backend.URL, "chat", "-s", "s-2", "--pin", "2,3", "-p", "merge these")
	require.NoError(t, err)

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].SlideContext)
	assert.Equal(t, []int{1, 2}, reqs[0].SlideContext.Indices)
	assert.Contains(t, out, "condensed 2 slides into 1 (-1)")
}

func TestChatCommandCreatesSession(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	_, err := execute(t, "--api-url", backend.URL, "chat", "-p", "hello")
	require.NoError(t, err)

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	require.NotEmpty(t, reqs[0].SessionID)

	stored, ok := backend.Session(reqs[0].SessionID)
	require.True(t, ok)
	assert.Len(t, stored.Messages, 2)
}

func TestChatCommandReportsFailure(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.AddSession(&session.Session{ID: "s-3"})
	backend.QueueTurn(testutil.ErrorRecord("model overloaded"))

	out, err := execute(t, "--api-url", backend.URL, "chat", "-s", "s-3", "-p", "hi")
	require.Error(t, err)
	assert.Contains(t, out, "model overloaded")
}

func TestSessionLifecycleCommands(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	out, err := execute(t, "--api-url", backend.URL, "session", "create", "--title", "Quarterly")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Created session "))
	id := strings.TrimSpace(strings.TrimPrefix(out, "Created session "))

	out, err = execute(t, "--api-url", backend.URL, "session", "rename", id, "Annual")
	require.NoError(t, err)
	assert.Contains(t, out, `"Annual"`)

	out, err = execute(t, "--api-url", backend.URL, "session", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted session "+id)

	_, err = execute(t, "--api-url", backend.URL, "session", "show", id)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestUploadCommand(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0644))

	out, err := execute(t, "--api-url", backend.URL, "upload", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded logo.png as ")
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	out, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "mode: auto")
}
