package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

func TestGetters(t *testing.T) {
	cfg := map[string]string{
		"PORT":     "8080",
		"BAD_INT":  "eighty",
		"SECURE":   "true",
		"TIMEOUT":  "7",
		"INTERVAL": "1500ms",
		"ORIGINS":  " https://a.example ,, https://b.example ",
		"EMPTY":    "",
	}

	require.Equal(t, 8080, GetInt(cfg, "PORT", 1))
	require.Equal(t, 1, GetInt(cfg, "BAD_INT", 1))
	require.True(t, GetBool(cfg, "SECURE", false))
	require.True(t, GetBool(cfg, "MISSING", true))
	require.Equal(t, 7*time.Second, GetDuration(cfg, "TIMEOUT", time.Second))
	require.Equal(t, 1500*time.Millisecond, GetDuration(cfg, "INTERVAL", time.Second))
	require.Equal(t, []string{"https://a.example", "https://b.example"}, GetList(cfg, "ORIGINS", nil))
	require.Equal(t, "fallback", GetString(cfg, "EMPTY", "fallback"))
	require.Equal(t, "8080", GetFirstString(cfg, "", "MISSING", "PORT"))
	require.Equal(t, "x", GetString(nil, "PORT", "x"))
}

func TestMergeLaterWins(t *testing.T) {
	merged := Merge(
		map[string]string{"A": "file", "B": "file"},
		map[string]string{"B": "ssm", "C": "ssm"},
		map[string]string{"C": "env"},
	)
	require.Equal(t, map[string]string{"A": "file", "B": "ssm", "C": "env"}, merged)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "PORT: 9090\nCOOKIE_SECURE: true\nACCEPTED_ORIGINS:\n  - https://a.example\n  - https://b.example\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 9090, GetInt(cfg, "PORT", 0))
	require.True(t, GetBool(cfg, "COOKIE_SECURE", false))
	require.Equal(t, []string{"https://a.example", "https://b.example"}, GetList(cfg, "ACCEPTED_ORIGINS", nil))
}

func TestLoadFileRejectsNestedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 1\n"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
}

type fakeSSM struct {
	pages [][]types.Parameter
	calls int
}

func (f *fakeSSM) GetParametersByPath(_ context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	page := f.pages[f.calls]
	f.calls++
	out := &ssm.GetParametersByPathOutput{Parameters: page}
	if f.calls < len(f.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func TestLoadSSMParametersPaginates(t *testing.T) {
	client := &fakeSSM{pages: [][]types.Parameter{
		{{Name: aws.String("/portfolio/prod/JWT_SECRET"), Value: aws.String("s3cr3t")}},
		{{Name: aws.String("/portfolio/prod/ADMIN_PASSWORD"), Value: aws.String("pw")}},
	}}

	params, err := LoadSSMParameters(context.Background(), client, "/portfolio/prod")
	require.NoError(t, err)
	require.Equal(t, 2, client.calls)
	require.Equal(t, map[string]string{"JWT_SECRET": "s3cr3t", "ADMIN_PASSWORD": "pw"}, params)
}
