package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrite_FormatsFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { defaultLogger = nil })

	Info(CatStore, "saved", "rows", 3, "kind")
	require.Regexp(t, `^\d{4}-\d\d-\d\dT\d\d:\d\d:\d\d \[INFO\] \[store\] saved rows=3 kind=<missing>\n$`, buf.String())
}

func TestWrite_RespectsMinLevelAndEnabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, LevelWarn)
	t.Cleanup(func() { defaultLogger = nil })

	Info(CatUI, "hidden")
	require.Empty(t, buf.String())

	SetMinLevel(LevelInfo)
	Info(CatUI, "shown")
	require.Contains(t, buf.String(), "shown")

	buf.Reset()
	SetEnabled(false)
	Error(CatUI, "off")
	require.Empty(t, buf.String())
}

func TestNewListener_ReceivesEntries(t *testing.T) {
	require.Nil(t, NewListener(context.Background()), "no listener before init")

	var buf bytes.Buffer
	InitWriter(&buf, LevelDebug)
	t.Cleanup(func() { defaultLogger = nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := NewListener(ctx)
	require.NotNil(t, l)

	Warn(CatWatcher, "slow")
	msg := l.Listen()()
	ev, ok := msg.(LogEvent)
	require.True(t, ok)
	require.Contains(t, ev.Payload, "[WARN] [watcher] slow")
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("warn")
	require.True(t, ok)
	require.Equal(t, LevelWarn, l)

	_, ok = ParseLevel("verbose")
	require.False(t, ok)
}
