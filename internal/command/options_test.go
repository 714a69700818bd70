package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashenrealm/internal/game"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		balance int64
		want    int64
		wantErr bool
	}{
		{"250", 1000, 250, false},
		{" 42 ", 1000, 42, false},
		{"all", 1000, 1000, false},
		{"ALL", 300, 300, false},
		{"half", 1000, 500, false},
		{"half", 1, 0, true},
		{"all", 0, 0, true},
		{"0", 1000, 0, true},
		{"-5", 1000, 0, true},
		{"plenty", 1000, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw, tt.balance)
			if tt.wantErr {
				ue, ok := game.AsUserError(err)
				require.True(t, ok, "bad amounts are user errors")
				assert.Equal(t, game.FailBadArgument, ue.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
