package builtins

import (
	"ebscript/pkg/object"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestThreadTimerBuiltins(t *testing.T) {
	d := newTestDispatcher(t)
	d.Context().Source = "main.ebs"

	if v := call(t, d, "thread.getcount"); v.Inspect() != "0" || v.Kind() != object.KindLong {
		t.Fatalf("initial count wrong. got=%s (%s)", v.Inspect(), v.Kind())
	}
	if v := call(t, d, "thread.timerlist"); v.Inspect() != "[]" {
		t.Fatalf("initial list wrong. got=%s", v.Inspect())
	}

	missing := []struct {
		name     string
		expected string
	}{
		{"thread.timerpause", "false"},
		{"thread.timerresume", "false"},
		{"thread.timerisrunning", "false"},
		{"thread.timerispaused", "false"},
		{"thread.timergetinfo", "null"},
		{"thread.timergetperiod", "-1"},
		{"thread.timergetfirecount", "-1"},
		{"thread.timerstop", "false"},
	}
	for idx, tt := range missing {
		v := call(t, d, tt.name, s("nonexistent"))
		if v.Inspect() != tt.expected {
			t.Errorf("tests[%d] - %s on unknown timer wrong. expected=%s, got=%s", idx, tt.name, tt.expected, v.Inspect())
		}
	}

	if v := call(t, d, "thread.timerstart", s("t1"), i(10000), s("onTick")); v.Inspect() != "t1" {
		t.Fatalf("timerstart should return the name. got=%s", v.Inspect())
	}
	if v := call(t, d, "thread.timergetperiod", s("t1")); v.Inspect() != "10000" {
		t.Fatalf("period wrong. got=%s", v.Inspect())
	}
	if v := call(t, d, "thread.timerpause", s("t1")); v != object.TRUE {
		t.Fatalf("pause should succeed")
	}
	if v := call(t, d, "thread.timerispaused", s("t1")); v != object.TRUE {
		t.Fatalf("timer should be paused")
	}
	info := call(t, d, "thread.timergetinfo", s("t1")).(*object.JSON)
	for path, expected := range map[string]any{"callback": "onTick", "source": "main.ebs", "paused": true, "period": int64(10000)} {
		if got, _ := info.Get(path); got != expected {
			t.Errorf("info %s wrong. expected=%v, got=%v", path, expected, got)
		}
	}
	if v := call(t, d, "thread.timerresume", s("t1")); v != object.TRUE {
		t.Fatalf("resume should succeed")
	}
	list := call(t, d, "thread.timerlist").(*object.JSON)
	if list.Size() != 1 {
		t.Fatalf("list size wrong. got=%d", list.Size())
	}
	if v := call(t, d, "thread.timerstopowner", s("main.ebs")); v.Inspect() != "1" {
		t.Fatalf("stopowner wrong. got=%s", v.Inspect())
	}
	if v := call(t, d, "thread.getcount"); v.Inspect() != "0" {
		t.Fatalf("count after stop wrong. got=%s", v.Inspect())
	}
}

func TestTimerStartValidation(t *testing.T) {
	d := newTestDispatcher(t)
	tests := []struct {
		args     []object.Object
		category string
	}{
		{[]object.Object{s("  "), i(10), s("cb")}, object.ValidationError},
		{[]object.Object{s("t"), i(0), s("cb")}, object.ValidationError},
		{[]object.Object{s("t"), i(-5), s("cb")}, object.ValidationError},
		{[]object.Object{s("t"), i(10), s(" ")}, object.ValidationError},
		{[]object.Object{s("t"), i(10), i(3)}, object.TypeErrorName},
	}
	for idx, tt := range tests {
		err := callFailure(t, d, "thread.timerstart", tt.args...)
		if err.Category != tt.category {
			t.Errorf("tests[%d] - category wrong. expected=%s, got=%s (%s)", idx, tt.category, err.Category, err.Message)
		}
	}
	if err := callFailure(t, d, "thread.timerpause", s("")); err.Category != object.ValidationError {
		t.Fatalf("blank name should be rejected. got=%s", err.Category)
	}
}

func TestThreadSleepUsesContext(t *testing.T) {
	d := newTestDispatcher(t)
	var slept time.Duration
	d.Context().Sleep = func(dur time.Duration) error {
		slept = dur
		return nil
	}
	call(t, d, "thread.sleep", i(250))
	if slept != 250*time.Millisecond {
		t.Fatalf("sleep duration wrong. got=%s", slept)
	}
	if err := callFailure(t, d, "thread.sleep", i(-1)); err.Category != object.ValidationError {
		t.Fatalf("negative sleep should be rejected. got=%s", err.Category)
	}
}

func TestFileHandles(t *testing.T) {
	d := newTestDispatcher(t)
	path := filepath.Join(t.TempDir(), "notes.txt")

	w := call(t, d, "file.open", s(path), s("w"))
	if !strings.HasPrefix(w.Inspect(), "file#") {
		t.Fatalf("handle format wrong. got=%s", w.Inspect())
	}
	call(t, d, "file.writeln", w, s("first"))
	call(t, d, "file.writeln", w, s("second"))
	if v := call(t, d, "file.close", w); v != object.TRUE {
		t.Fatalf("close should succeed")
	}
	if v := call(t, d, "file.close", w); v != object.FALSE {
		t.Fatalf("second close should return false")
	}

	r := call(t, d, "file.open", s(path))
	open := call(t, d, "file.listopenfiles").(*object.JSON)
	if got, _ := open.Get("[0].mode"); got != "r" {
		t.Fatalf("open file listing wrong. got=%s", open.Inspect())
	}
	var lines []string
	for call(t, d, "file.eof", r) == object.FALSE {
		lines = append(lines, call(t, d, "file.readln", r).Inspect())
	}
	if strings.Join(lines, "|") != "first|second" {
		t.Fatalf("lines wrong. got=%v", lines)
	}
	if v := call(t, d, "file.readln", r); v != object.NULL {
		t.Fatalf("readln at eof should be null. got=%s", v.Inspect())
	}
	if err := callFailure(t, d, "file.writeln", r, s("x")); err.Category != object.AccessError {
		t.Fatalf("writing a read handle should fail with %s. got=%s", object.AccessError, err.Category)
	}
	call(t, d, "file.close", r)

	if err := callFailure(t, d, "file.readln", r); err.Category != object.NotFoundError {
		t.Fatalf("closed handle should be %s. got=%s", object.NotFoundError, err.Category)
	}
	if err := callFailure(t, d, "file.readln", s("ws#1")); err.Category != object.ValidationError {
		t.Fatalf("foreign handle should be %s. got=%s", object.ValidationError, err.Category)
	}
}

func TestWholeFileBuiltins(t *testing.T) {
	d := newTestDispatcher(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")

	call(t, d, "file.writetextfile", s(path), s("hello"))
	call(t, d, "file.appendtotextfile", s(path), s(" world"))
	if v := call(t, d, "file.readtextfile", s(path)); v.Inspect() != "hello world" {
		t.Fatalf("content wrong. got=%q", v.Inspect())
	}
	if v := call(t, d, "file.size", s(path)); v.Inspect() != "11" {
		t.Fatalf("size wrong. got=%s", v.Inspect())
	}
	if v := call(t, d, "file.exists", s(path)); v != object.TRUE {
		t.Fatalf("file should exist")
	}

	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	listing := call(t, d, "file.listfiles", s(dir)).(*object.JSON)
	if listing.Size() != 2 {
		t.Fatalf("listing size wrong. got=%s", listing.Inspect())
	}
	if isDir, _ := listing.Get("[1].isDir"); isDir != true {
		t.Fatalf("entries should be sorted with sub second. got=%s", listing.Inspect())
	}

	if v := call(t, d, "file.delete", s(path)); v != object.TRUE {
		t.Fatalf("delete should succeed")
	}
	if v := call(t, d, "file.delete", s(path)); v != object.FALSE {
		t.Fatalf("deleting a missing file should return false")
	}
	if err := callFailure(t, d, "file.readtextfile", s(path)); err.Category != object.NotFoundError {
		t.Fatalf("expected %s, got=%s", object.NotFoundError, err.Category)
	}
}

func TestContextCloseReleasesHandles(t *testing.T) {
	d := newTestDispatcher(t)
	path := filepath.Join(t.TempDir(), "buffered.txt")
	h := call(t, d, "file.open", s(path), s("w"))
	call(t, d, "file.writeln", h, s("kept"))

	d.Context().Close()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "kept\n" {
		t.Fatalf("buffered data not flushed on close. got=%q", b)
	}
	if v := call(t, d, "file.listopenfiles"); v.Inspect() != "[]" {
		t.Fatalf("handles not released. got=%s", v.Inspect())
	}
}

func TestHTTPBuiltins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/text":
			io.WriteString(w, "token="+r.Header.Get("X-Token"))
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"ok": true, "n": 3}`)
		case "/echo":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			body["method"] = r.Method
			json.NewEncoder(w).Encode(body)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := newTestDispatcher(t)
	headers := call(t, d, "json.jsonfromstring", s(`{"X-Token": "abc"}`))

	if v := call(t, d, "http.gettext", s(srv.URL+"/text"), headers); v.Inspect() != "token=abc" {
		t.Fatalf("gettext wrong. got=%q", v.Inspect())
	}
	if v := call(t, d, "http.getjson", s(srv.URL+"/json")); v.Inspect() != `{"n":3,"ok":true}` {
		t.Fatalf("getjson wrong. got=%s", v.Inspect())
	}
	body := call(t, d, "json.jsonfromstring", s(`{"name": "x"}`))
	if v := call(t, d, "http.postjson", s(srv.URL+"/echo"), body); v.Inspect() != `{"method":"POST","name":"x"}` {
		t.Fatalf("postjson wrong. got=%s", v.Inspect())
	}
	if err := callFailure(t, d, "http.gettext", s(srv.URL+"/missing")); err.Category != object.NetworkError {
		t.Fatalf("expected %s, got=%s", object.NetworkError, err.Category)
	}
}

func TestWebSocketBuiltins(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			conn.WriteMessage(mt, []byte("echo:"+string(msg)))
		}
	}))
	defer srv.Close()

	d := newTestDispatcher(t)
	h := call(t, d, "ws.connect", s("ws"+strings.TrimPrefix(srv.URL, "http")))
	if !strings.HasPrefix(h.Inspect(), "ws#") {
		t.Fatalf("handle format wrong. got=%s", h.Inspect())
	}
	call(t, d, "ws.send", h, s("ping"))
	if v := call(t, d, "ws.read", h); v.Inspect() != "echo:ping" {
		t.Fatalf("read wrong. got=%s", v.Inspect())
	}
	if v := call(t, d, "ws.close", h); v != object.TRUE {
		t.Fatalf("close should succeed")
	}
	if err := callFailure(t, d, "ws.send", h, s("late")); err.Category != object.NotFoundError {
		t.Fatalf("send on closed handle should be %s. got=%s", object.NotFoundError, err.Category)
	}
	if err := callFailure(t, d, "ws.connect", s("ws://127.0.0.1:1/nothing")); err.Category != object.NetworkError {
		t.Fatalf("expected %s, got=%s", object.NetworkError, err.Category)
	}
}

func TestImageBuiltins(t *testing.T) {
	d := newTestDispatcher(t)
	img := call(t, d, "image.create", i(4), i(2))
	if img.Inspect() != "image(4x2)" {
		t.Fatalf("create wrong. got=%s", img.Inspect())
	}
	call(t, d, "image.fill", img, s("#ff0000"))
	if r, _, _, _ := img.(*object.Image).Value.At(1, 1).RGBA(); r>>8 != 0xff {
		t.Fatalf("fill did not paint red. got=%d", r>>8)
	}

	scaled := call(t, d, "image.scale", img, i(8), i(6))
	if w := call(t, d, "image.width", scaled); w.Inspect() != "8" {
		t.Fatalf("scaled width wrong. got=%s", w.Inspect())
	}
	if h := call(t, d, "image.height", scaled); h.Inspect() != "6" {
		t.Fatalf("scaled height wrong. got=%s", h.Inspect())
	}

	path := filepath.Join(t.TempDir(), "out.png")
	call(t, d, "image.savepng", scaled, s(path))
	loaded := call(t, d, "image.loadpng", s(path))
	if loaded.Inspect() != "image(8x6)" {
		t.Fatalf("loadpng wrong. got=%s", loaded.Inspect())
	}

	if err := callFailure(t, d, "image.create", i(0), i(5)); err.Category != object.ValidationError {
		t.Fatalf("expected %s, got=%s", object.ValidationError, err.Category)
	}
	if err := callFailure(t, d, "image.fill", img, s("red-ish")); err.Category != object.ValidationError {
		t.Fatalf("expected %s, got=%s", object.ValidationError, err.Category)
	}
}
