package gateway

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derek2403/token2049/core"
)

func TestWindow(t *testing.T) {
	var history []core.ChatTurn
	history = append(history, core.ChatTurn{Role: core.RoleSystem, Content: "ignored"})
	for i := 0; i < 15; i++ {
		history = append(history, core.UserTurn(fmt.Sprintf("m%d", i)))
	}

	w := Window(history, 10)
	require.Len(t, w, 10)
	assert.Equal(t, "m5", w[0].Content)
	assert.Equal(t, "m14", w[9].Content)

	assert.Len(t, Window(history, 0), 15)
	assert.Len(t, Window(history[:3], 10), 2)
}
