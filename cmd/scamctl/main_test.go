package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apimiddleware "scamshield/internal/api/middleware"
	"scamshield/internal/domain/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLevelCommand(t *testing.T) {
	tests := []struct {
		points string
		want   []string
	}{
		{"0", []string{"level: Beginner", "next:  Active in 20 points"}},
		{"60", []string{"level: Contributor", "next:  Trusted in 40 points"}},
		{"1000", []string{"level: Legend", "top level reached"}},
	}
	for _, tt := range tests {
		t.Run(tt.points, func(t *testing.T) {
			out, err := run(t, "level", tt.points)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}

	_, err := run(t, "level", "-5")
	assert.Error(t, err)
}

func TestScoreCommandLocal(t *testing.T) {
	out, err := run(t, "score",
		"--message", "URGENT: federal government contract requires your account number today",
		"--phone", "08031234567")
	require.NoError(t, err)

	var result models.ScanResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, models.RiskLevelHigh, result.RiskLevel)
	assert.Equal(t, "+2348031234567", result.PhoneAnalysis.Normalized)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("SCAMSHIELD_JWT_SECRET", "")
	_, err := run(t, "token", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")

	t.Setenv("SCAMSHIELD_JWT_SECRET", "cli-secret")
	out, err := run(t, "token", "alice", "--role", "expert")
	require.NoError(t, err)

	actor, err := apimiddleware.ParseToken(strings.TrimSpace(out), []byte("cli-secret"), "scamshield")
	require.NoError(t, err)
	assert.Equal(t, "alice", actor.UserID)
	assert.Equal(t, models.RoleExpert, actor.Role)
}
