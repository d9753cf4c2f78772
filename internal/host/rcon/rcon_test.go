package rcon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"announcer/internal/host"
	logx "announcer/pkg/logx"
)

type fakeConn struct {
	replies map[string]string
	sent    []string
	failOn  string
	closed  bool
}

func (f *fakeConn) Execute(cmd string) (string, error) {
	f.sent = append(f.sent, cmd)
	if f.failOn != "" && cmd == f.failOn {
		return "", errors.New("broken pipe")
	}
	return f.replies[cmd], nil
}

func (f *fakeConn) Close() error { f.closed = true; return nil }

func newHost(t *testing.T, c *fakeConn, perms *host.Permissions) (*Host, *int) {
	t.Helper()
	dials := 0
	h := New(Config{Addr: "mc:25575", Timeout: time.Second}, perms, logx.Nop())
	h.dial = func(addr, password string, timeout time.Duration) (conn, error) {
		dials++
		return c, nil
	}
	return h, &dials
}

func TestParseList(t *testing.T) {
	cases := map[string][]string{
		"There are 2 of a max of 20 players online: alice, bob":                         {"alice", "bob"},
		"There are 2/20 players online:\nalice, bob":                                    {"alice", "bob"},
		"There are 0 of a max of 20 players online: ":                                   nil,
		"§6There are §c1§6 out of maximum §c20§6 players online.\n§6default§r: §fsteve": {"steve"},
		"garbage": nil,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseList(in), in)
	}
}

func TestOnlineUsesPermissions(t *testing.T) {
	c := &fakeConn{replies: map[string]string{"list": "There are 2 of a max of 20 players online: Alice, bob"}}
	perms := host.NewPermissions(nil, map[string][]string{"alice": {"announcer.receiver"}})
	h, _ := newHost(t, c, perms)

	online, err := h.Online(context.Background())
	require.NoError(t, err)
	require.Len(t, online, 2)
	assert.True(t, online[0].HasCapability(host.CapReceiver))
	assert.False(t, online[1].HasCapability(host.CapReceiver))

	require.NoError(t, online[0].SendMessage(context.Background(), "§ahi"))
	assert.Equal(t, `tellraw Alice {"text":"§ahi"}`, c.sent[len(c.sent)-1])
}

func TestBroadcastAndDispatch(t *testing.T) {
	c := &fakeConn{}
	h, dials := newHost(t, c, nil)

	require.NoError(t, h.Broadcast(context.Background(), `say "x"`))
	require.NoError(t, h.Dispatch(context.Background(), "time set day"))
	assert.Equal(t, []string{`tellraw @a {"text":"say \"x\""}`, "time set day"}, c.sent)
	assert.Equal(t, 1, *dials)
}

func TestReconnectAfterError(t *testing.T) {
	c := &fakeConn{failOn: "boom"}
	h, dials := newHost(t, c, nil)

	assert.Error(t, h.Dispatch(context.Background(), "boom"))
	assert.True(t, c.closed)
	require.NoError(t, h.Dispatch(context.Background(), "ok"))
	assert.Equal(t, 2, *dials)
}

func TestDialFailureIsNotConnected(t *testing.T) {
	h := New(Config{Addr: "nowhere:1"}, nil, logx.Nop())
	h.dial = func(string, string, time.Duration) (conn, error) { return nil, errors.New("refused") }
	err := h.Broadcast(context.Background(), "x")
	assert.ErrorIs(t, err, host.ErrNotConnected)
}
