package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCallbackStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want VerificationStatus
		ok   bool
	}{
		{"SUCCESS", VerificationSuccess, true},
		{"FAILED", VerificationFailed, true},
		{"REVIEW_NEEDED", VerificationReviewNeeded, true},
		{"PENDING", VerificationPending, true},
		{"success", VerificationSuccess, true},
		{"Review_Needed", VerificationReviewNeeded, true},
		{"DRAFT", "", false},
		{"", "", false},
		{"DONE", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseCallbackStatus(tt.raw)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	require.True(t, VerificationSuccess.IsTerminal())
	require.True(t, VerificationFailed.IsTerminal())
	require.True(t, VerificationReviewNeeded.IsTerminal())
	require.False(t, VerificationDraft.IsTerminal())
	require.False(t, VerificationPending.IsTerminal())
}
