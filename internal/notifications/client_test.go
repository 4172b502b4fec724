package notifications

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runResult records whether the write pump had stopped when Run returned.
type runResult struct {
	client        *Client
	writerStopped bool
}

// serveClients runs every upgraded connection through Client.Run and
// reports each client as it connects and again when Run returns.
func serveClients(t *testing.T, r *Registry) (addr string, attached <-chan *Client, finished <-chan runResult) {
	t.Helper()
	attachedCh := make(chan *Client, 4)
	finishedCh := make(chan runResult, 4)

	app := fiber.New()
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		c := NewClient(r.Name(), conn, 7, func(c *Client) { r.Unregister(c) })
		if err := r.Register(c); err != nil {
			t.Error(err)
			return
		}
		attachedCh <- c

		c.Run()

		res := runResult{client: c}
		select {
		case <-c.Done():
			res.writerStopped = true
		default:
		}
		finishedCh <- res
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return ln.Addr().String(), attachedCh, finishedCh
}

func dialClient(t *testing.T, addr string) *gws.Conn {
	t.Helper()
	var (
		conn *gws.Conn
		err  error
	)
	require.Eventually(t, func() bool {
		conn, _, err = gws.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func awaitRun(t *testing.T, finished <-chan runResult) runResult {
	t.Helper()
	select {
	case res := <-finished:
		return res
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after the connection closed")
		return runResult{}
	}
}

func TestClientRun_WaitsForWriterWhenPeerDisconnects(t *testing.T) {
	r := NewRegistry("test")
	addr, attached, finished := serveClients(t, r)

	conn := dialClient(t, addr)
	c := <-attached

	frame, err := EncodeFrame("notification", map[string]string{"title": "hi"})
	require.NoError(t, err)
	require.NoError(t, c.TrySend(frame))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, got, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, string(frame), string(got))

	require.NoError(t, conn.Close())

	res := awaitRun(t, finished)
	assert.Same(t, c, res.client)
	assert.True(t, res.writerStopped, "Run returned while WritePump could still touch the connection")
	assert.Equal(t, 0, r.UserCount(7))
	assert.ErrorIs(t, c.Context().Err(), context.Canceled)
}

func TestClientRun_ServerCloseSendsCloseFrame(t *testing.T) {
	r := NewRegistry("test")
	addr, attached, finished := serveClients(t, r)

	conn := dialClient(t, addr)
	c := <-attached

	c.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, gws.IsCloseError(err, gws.CloseNoStatusReceived, gws.CloseNormalClosure), "got %v", err)

	res := awaitRun(t, finished)
	assert.True(t, res.writerStopped)
	assert.Equal(t, 0, r.Len())
	assert.ErrorIs(t, c.TrySend([]byte("late")), errClientClosed)
}
