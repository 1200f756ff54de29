package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		in       string
		expected Environment
	}{
		{in: "production", expected: Production},
		{in: "PRODUCTION", expected: Development},
		{in: " production ", expected: Development},
		{in: "prod", expected: Development},
		{in: "development", expected: Development},
		{in: "test", expected: Development},
		{in: "", expected: Development},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.expected, ParseEnvironment(tt.in))
		})
	}
}

func TestLoad_missingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultTitle, s.Title)
	require.Equal(t, DefaultPort, s.Port)
	require.Equal(t, Development, s.Env)
}

func TestLoad_overlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	err := os.WriteFile(path, []byte(`
title: Console
port: 9000
dev_url: http://10.0.0.1:8080
style_variables:
  primary: "#409eff"
`), 0600)
	require.NoError(t, err)

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Console", s.Title)
	require.Equal(t, 9000, s.Port)
	require.Equal(t, "http://10.0.0.1:8080", s.DevURL)
	require.Equal(t, DefaultMockURL, s.MockURL)
	require.Equal(t, "#409eff", s.StyleVariables["primary"])
	require.Contains(t, s.StyleVariables, "hack")
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: [unterminated"), 0600))

	_, err := Load(path)
	require.Error(t, err)
}
