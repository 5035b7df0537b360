package wiki

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefLogger_KeyValues(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := defLogger{out: buf}

	logger.Error("resource create failed", "resource", "factor", "error", errors.New("disk full"))
	logger.Info("persistence opened\n", "dialect", "sqlite")
	logger.Warn("odd pairs", "dangling")
	logger.Debug("plain")

	assert.Equal(t, ""+
		"[ERR] WIKI resource create failed resource=factor error=disk full\n"+
		"[INF] WIKI persistence opened dialect=sqlite\n"+
		"[WRN] WIKI odd pairs !BADKEY=dangling\n"+
		"[DBG] WIKI plain\n",
		buf.String())
	assert.NotContains(t, buf.String(), "%!")
}

func TestResolveLogger(t *testing.T) {
	assert.IsType(t, defLogger{}, resolveLogger(nil))

	nop := NopLogger()
	assert.Equal(t, nop, resolveLogger(nop))
}
