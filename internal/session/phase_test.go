package session

import (
	"testing"

	"gptxt/internal/keypress"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Phase
		want     bool
	}{
		{PhaseSynthesizing, PhaseReviewing, true},
		{PhaseReviewing, PhaseRunning, true},
		{PhaseRunning, PhaseRecovering, true},
		{PhaseRunning, PhaseTerminated, true},
		{PhaseRecovering, PhaseRegenerating, true},
		{PhaseEditing, PhaseRecovering, true},

		// Recovery is only entered from a failed run or edit.
		{PhaseReviewing, PhaseRecovering, false},
		// No way back to running without reviewing first.
		{PhaseRecovering, PhaseRunning, false},
		{PhaseRunning, PhaseReviewing, false},
		{PhaseTerminated, PhaseReviewing, false},
		{PhaseSynthesizing, PhaseRunning, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestMenus(t *testing.T) {
	for _, m := range []menu{reviewMenu, recoveryMenu} {
		assert.Len(t, m.next, len(m.accept))
		for _, cmd := range m.accept {
			next, ok := m.next[cmd]
			assert.True(t, ok, cmd.String())
			assert.True(t, next == PhaseTerminated || CanTransition(PhaseReviewing, next) || CanTransition(PhaseRecovering, next))
		}
	}
	assert.NotContains(t, recoveryMenu.accept, keypress.Run)
}

func TestProvenanceLabel(t *testing.T) {
	assert.Equal(t, "Generated program:", Generated.Label())
	assert.Equal(t, "Edited program:", Edited.Label())
}
