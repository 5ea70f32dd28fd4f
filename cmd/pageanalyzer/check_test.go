package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<title>T</title><h1>H</h1><meta name="description" content="D">`))
	}))
	defer srv.Close()

	out, err := runCmd(t, "check", srv.URL)
	require.NoError(t, err)
	require.Contains(t, out, "status:      200")
	require.Contains(t, out, "title:       T")
	require.Contains(t, out, "h1:          H")
	require.Contains(t, out, "description: D")
}

func TestCheckCmd_Errors(t *testing.T) {
	_, err := runCmd(t, "check", "not a url")
	require.EqualError(t, err, "Invalid URL")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err = runCmd(t, "check", srv.URL)
	require.ErrorContains(t, err, "unexpected status 502")
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "pageanalyzer version dev")
}
