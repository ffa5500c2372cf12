package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// tmdbServer serves canned catalog responses and counts requests.
type tmdbServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newTMDBServer(t *testing.T) *tmdbServer {
	t.Helper()
	s := &tmdbServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if r.URL.Query().Get("api_key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key"}`))
			return
		}
		switch {
		case r.URL.Path == "/3/movie/popular", r.URL.Path == "/3/movie/now_playing", r.URL.Path == "/3/discover/movie":
			_, _ = fmt.Fprintf(w, `{"page":1,"total_pages":3,"total_results":2,"results":[
				{"id":603,"title":"The Matrix","release_date":"1999-03-31","vote_average":8.2,"backdrop_path":"/matrix-bd.jpg"},
				{"id":496243,"title":"Parasite","release_date":"2019-05-30","vote_average":8.5}]}`)
		case r.URL.Path == "/3/movie/603":
			_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix","release_date":"1999-03-31","vote_average":8.2,"runtime":136,"genres":[{"id":878,"name":"Science Fiction"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
		}
	}))
	t.Cleanup(s.Close)
	return s
}

// writeTestConfig writes a bolt-backed config pointing at the given servers.
func writeTestConfig(t *testing.T, tmdbURL, kakaoURL string) string {
	t.Helper()
	dir := t.TempDir()
	kakao := "enabled = false"
	if kakaoURL != "" {
		kakao = fmt.Sprintf("enabled = true\nbase_url = %q", kakaoURL)
	}
	content := fmt.Sprintf(`
[server]
log_level = "error"

[storage]
driver = "bolt"
path = %q

[tmdb]
api_key = "test-key"
base_url = %q

[kakao]
%s
`, filepath.Join(dir, "moviedeck.bolt"), tmdbURL, kakao)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeSQLiteConfig writes a sqlite-backed config with the event log enabled.
func writeSQLiteConfig(t *testing.T, tmdbURL string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
[server]
log_level = "error"

[storage]
driver = "sqlite"
path = %q

[tmdb]
api_key = "test-key"
base_url = %q

[events]
persist = true
`, filepath.Join(dir, "moviedeck.db"), tmdbURL)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	configPath, logLevel, jsonOutput = "", "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

