package builtins

import (
	"bytes"
	"context"
	"ebscript/pkg/object"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// fetch performs one request and returns the response body. Status codes of
// 400 and above fail with NETWORK_ERROR.
func fetch(ctx *Context, method, url string, body io.Reader, contentType string, a []object.Object, hdr int) ([]byte, *object.Error) {
	rctx := context.Background()
	if ms := optInt(a, hdr+1, 0); ms > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(rctx, time.Duration(ms)*time.Millisecond)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(rctx, method, url, body)
	if err != nil {
		return nil, object.Raise(object.ValidationError, "invalid request: %s", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !isNull(a[hdr]) {
		if headers, ok := jsonArg(a, hdr).Value.(map[string]any); ok {
			for k, v := range headers {
				req.Header.Set(k, fmt.Sprint(v))
			}
		}
	}

	resp, err := ctx.HTTP.Do(req)
	if err != nil {
		return nil, object.Raise(object.NetworkError, "%s %s: %s", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, object.Raise(object.NetworkError, "%s %s: %s", method, url, err)
	}
	if resp.StatusCode >= 400 {
		return nil, object.Raise(object.NetworkError, "%s %s: HTTP %d", method, url, resp.StatusCode)
	}
	return data, nil
}

func httpCategory() *category {
	c := newCategory("http")

	c.def("gettext", kString, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		data, err := fetch(ctx, http.MethodGet, str(a, 0), nil, "", a, 1)
		if err != nil {
			return nil, err
		}
		return stringOf(string(data)), nil
	}, req("url", kString), opt("headers", kJSON), opt("timeoutMs", kLong))

	c.def("getjson", kJSON, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		data, err := fetch(ctx, http.MethodGet, str(a, 0), nil, "", a, 1)
		if err != nil {
			return nil, err
		}
		return object.ParseJSON(string(data))
	}, req("url", kString), opt("headers", kJSON), opt("timeoutMs", kLong))

	c.def("posttext", kString, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		data, err := fetch(ctx, http.MethodPost, str(a, 0), bytes.NewBufferString(str(a, 1)), "text/plain; charset=utf-8", a, 2)
		if err != nil {
			return nil, err
		}
		return stringOf(string(data)), nil
	}, req("url", kString), opt("body", kString), opt("headers", kJSON), opt("timeoutMs", kLong))

	c.def("postjson", kJSON, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		payload, merr := json.Marshal(jsonArg(a, 1).Value)
		if merr != nil {
			return nil, object.Raise(object.ValidationError, "cannot encode body: %s", merr)
		}
		data, err := fetch(ctx, http.MethodPost, str(a, 0), bytes.NewReader(payload), "application/json", a, 2)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return object.NULL, nil
		}
		return object.ParseJSON(string(data))
	}, req("url", kString), opt("body", kJSON), opt("headers", kJSON), opt("timeoutMs", kLong))

	return c
}
