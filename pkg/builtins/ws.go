package builtins

import (
	"ebscript/pkg/object"
	"sync"

	"github.com/gorilla/websocket"
)

// wsConn is an open client connection behind a "ws#N" handle.
type wsConn struct {
	mu   sync.Mutex
	url  string
	conn *websocket.Conn
}

func (w *wsConn) write(msg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

func wsCategory() *category {
	c := newCategory("ws")

	c.def("connect", kString, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		url := str(a, 0)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return nil, object.Raise(object.NetworkError, "websocket dial %s: %s", url, err)
		}
		id := ctx.sockets.add(&wsConn{url: url, conn: conn})
		ctx.Logger.Debug("websocket connected", "handle", id, "url", url)
		return stringOf(id), nil
	}, req("url", kString))

	c.def("send", kBool, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		w, err := ctx.sockets.get(str(a, 0))
		if err != nil {
			return nil, err
		}
		if werr := w.write(str(a, 1)); werr != nil {
			return nil, object.Raise(object.NetworkError, "failed to send message: %s", werr)
		}
		return object.TRUE, nil
	}, req("handle", kString), req("message", kString))

	// read blocks for the next message and returns null once the peer has
	// disconnected.
	c.def("read", kString, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		w, err := ctx.sockets.get(str(a, 0))
		if err != nil {
			return nil, err
		}
		_, msg, rerr := w.conn.ReadMessage()
		if rerr != nil {
			return object.NULL, nil
		}
		return stringOf(string(msg)), nil
	}, req("handle", kString))

	c.def("close", kBool, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		w, ok := ctx.sockets.remove(str(a, 0))
		if !ok {
			return object.FALSE, nil
		}
		w.conn.Close()
		return object.TRUE, nil
	}, req("handle", kString))

	return c
}
