package builtins

import (
	"bufio"
	"ebscript/pkg/object"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// fileHandle is an open file behind a "file#N" handle.
type fileHandle struct {
	path string
	mode string
	f    *os.File
	r    *bufio.Reader
	w    *bufio.Writer
}

func openFile(path, mode string) (*fileHandle, error) {
	var flag int
	switch mode {
	case "r":
		flag = os.O_RDONLY
	case "w":
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "a":
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case "rw", "r+":
		flag = os.O_RDWR | os.O_CREATE
	default:
		return nil, errors.New("mode must be one of r, w, a or rw")
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}
	h := &fileHandle{path: path, mode: mode, f: f}
	if flag&(os.O_WRONLY) == 0 {
		h.r = bufio.NewReader(f)
	}
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		h.w = bufio.NewWriter(f)
	}
	return h, nil
}

func (h *fileHandle) close() error {
	var err error
	if h.w != nil {
		err = h.w.Flush()
	}
	return errors.Join(err, h.f.Close())
}

func ioError(op, path string, err error) *object.Error {
	if errors.Is(err, fs.ErrNotExist) {
		return object.Raise(object.NotFoundError, "%s %s: file not found", op, path)
	}
	if errors.Is(err, fs.ErrPermission) {
		return object.Raise(object.AccessError, "%s %s: permission denied", op, path)
	}
	return object.Raise(object.IOError, "%s %s: %s", op, path, err)
}

func fileCategory() *category {
	c := newCategory("file")

	handle := func(ctx *Context, a []object.Object) (*fileHandle, *object.Error) {
		return ctx.files.get(str(a, 0))
	}

	c.def("open", kString, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		path, mode := str(a, 0), strings.ToLower(optStr(a, 1, "r"))
		h, err := openFile(path, mode)
		if err != nil {
			return nil, ioError("open", path, err)
		}
		return stringOf(ctx.files.add(h)), nil
	}, req("path", kString), opt("mode", kString))

	c.def("close", kBool, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		h, ok := ctx.files.remove(str(a, 0))
		if !ok {
			return object.FALSE, nil
		}
		if err := h.close(); err != nil {
			return nil, ioError("close", h.path, err)
		}
		return object.TRUE, nil
	}, req("handle", kString))

	c.def("listopenfiles", kJSON, func(ctx *Context, _ []object.Object) (object.Object, *object.Error) {
		list := []any{}
		for _, id := range ctx.files.ids() {
			h, err := ctx.files.get(id)
			if err != nil {
				continue
			}
			list = append(list, map[string]any{"handle": id, "path": h.path, "mode": h.mode})
		}
		return &object.JSON{Value: list}, nil
	})

	// readln returns null at end of file.
	c.def("readln", kString, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		h, err := handle(ctx, a)
		if err != nil {
			return nil, err
		}
		if h.r == nil {
			return nil, object.Raise(object.AccessError, "file %s is not open for reading", h.path)
		}
		line, rerr := h.r.ReadString('\n')
		if rerr == io.EOF && line == "" {
			return object.NULL, nil
		}
		if rerr != nil && rerr != io.EOF {
			return nil, ioError("read", h.path, rerr)
		}
		return stringOf(strings.TrimRight(line, "\r\n")), nil
	}, req("handle", kString))

	c.def("writeln", kBool, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		h, err := handle(ctx, a)
		if err != nil {
			return nil, err
		}
		if h.w == nil {
			return nil, object.Raise(object.AccessError, "file %s is not open for writing", h.path)
		}
		if _, werr := h.w.WriteString(str(a, 1) + "\n"); werr != nil {
			return nil, ioError("write", h.path, werr)
		}
		return object.TRUE, nil
	}, req("handle", kString), opt("text", kString))

	c.def("eof", kBool, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		h, err := handle(ctx, a)
		if err != nil {
			return nil, err
		}
		if h.r == nil {
			return object.TRUE, nil
		}
		_, perr := h.r.Peek(1)
		return object.NativeBool(perr != nil), nil
	}, req("handle", kString))

	c.def("size", kLong, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		path := str(a, 0)
		if h, err := ctx.files.get(path); err == nil {
			if h.w != nil {
				h.w.Flush()
			}
			path = h.path
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, ioError("stat", path, err)
		}
		return long(info.Size()), nil
	}, req("pathOrHandle", kString))

	c.def("readtextfile", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		b, err := os.ReadFile(str(a, 0))
		if err != nil {
			return nil, ioError("read", str(a, 0), err)
		}
		return stringOf(string(b)), nil
	}, req("path", kString))

	c.def("writetextfile", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		if err := os.WriteFile(str(a, 0), []byte(str(a, 1)), 0o644); err != nil {
			return nil, ioError("write", str(a, 0), err)
		}
		return object.TRUE, nil
	}, req("path", kString), opt("content", kString))

	c.def("appendtotextfile", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		f, err := os.OpenFile(str(a, 0), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, ioError("append", str(a, 0), err)
		}
		_, err = f.WriteString(str(a, 1))
		if err = errors.Join(err, f.Close()); err != nil {
			return nil, ioError("append", str(a, 0), err)
		}
		return object.TRUE, nil
	}, req("path", kString), opt("content", kString))

	c.def("exists", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		_, err := os.Stat(str(a, 0))
		return object.NativeBool(err == nil), nil
	}, req("path", kString))

	c.def("delete", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		err := os.Remove(str(a, 0))
		if errors.Is(err, fs.ErrNotExist) {
			return object.FALSE, nil
		}
		if err != nil {
			return nil, ioError("delete", str(a, 0), err)
		}
		return object.TRUE, nil
	}, req("path", kString))

	c.def("listfiles", kJSON, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		dir := optStr(a, 0, ".")
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, ioError("list", dir, err)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		list := make([]any, 0, len(entries))
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				continue
			}
			list = append(list, map[string]any{
				"name":       e.Name(),
				"path":       filepath.Join(dir, e.Name()),
				"isDir":      e.IsDir(),
				"size":       info.Size(),
				"modifiedMs": info.ModTime().UnixMilli(),
			})
		}
		return &object.JSON{Value: list}, nil
	}, opt("path", kString))

	return c
}
