package builtins

import (
	"ebscript/pkg/object"
	"image"
	"image/draw"
	"image/png"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"
)

const maxImageSide = 1 << 14

func imageArg(a []object.Object, i int) (*object.Image, *object.Error) {
	if img, ok := a[i].(*object.Image); ok && img.Value != nil {
		return img, nil
	}
	return nil, object.NewError(object.TypeError, "expected an image, got %s", a[i].Kind().Name())
}

func imageSize(a []object.Object, i int) (int, int, *object.Error) {
	w, h := integer(a, i), integer(a, i+1)
	if w <= 0 || h <= 0 || w > maxImageSide || h > maxImageSide {
		return 0, 0, object.Raise(object.ValidationError, "image size %dx%d out of range", w, h)
	}
	return int(w), int(h), nil
}

func imageCategory() *category {
	c := newCategory("image")

	c.def("create", kImage, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		w, h, err := imageSize(a, 0)
		if err != nil {
			return nil, err
		}
		return &object.Image{Value: image.NewRGBA(image.Rect(0, 0, w, h))}, nil
	}, req("width", kInt), req("height", kInt))

	c.def("width", kInt, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		img, err := imageArg(a, 0)
		if err != nil {
			return nil, err
		}
		return object.NewInteger(int32(img.Value.Bounds().Dx())), nil
	}, req("image", kImage))

	c.def("height", kInt, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		img, err := imageArg(a, 0)
		if err != nil {
			return nil, err
		}
		return object.NewInteger(int32(img.Value.Bounds().Dy())), nil
	}, req("image", kImage))

	// fill paints the whole image with a hex color such as "#3366ff".
	c.def("fill", kImage, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		img, err := imageArg(a, 0)
		if err != nil {
			return nil, err
		}
		col, herr := colorful.Hex(str(a, 1))
		if herr != nil {
			return nil, object.Raise(object.ValidationError, "invalid color %q", str(a, 1))
		}
		draw.Draw(img.Value, img.Value.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
		return img, nil
	}, req("image", kImage), req("color", kString))

	c.def("scale", kImage, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		img, err := imageArg(a, 0)
		if err != nil {
			return nil, err
		}
		w, h, err := imageSize(a, 1)
		if err != nil {
			return nil, err
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img.Value, img.Value.Bounds(), xdraw.Over, nil)
		return &object.Image{Value: dst}, nil
	}, req("image", kImage), req("width", kInt), req("height", kInt))

	c.def("savepng", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		img, err := imageArg(a, 0)
		if err != nil {
			return nil, err
		}
		path := str(a, 1)
		f, ferr := os.Create(path)
		if ferr != nil {
			return nil, ioError("create", path, ferr)
		}
		defer f.Close()
		if perr := png.Encode(f, img.Value); perr != nil {
			return nil, ioError("encode", path, perr)
		}
		return object.TRUE, nil
	}, req("image", kImage), req("path", kString))

	c.def("loadpng", kImage, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		path := str(a, 0)
		f, err := os.Open(path)
		if err != nil {
			return nil, ioError("open", path, err)
		}
		defer f.Close()
		src, derr := png.Decode(f)
		if derr != nil {
			return nil, object.Raise(object.ParseErrorName, "decode %s: %s", path, derr)
		}
		dst := image.NewRGBA(src.Bounds())
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return &object.Image{Value: dst}, nil
	}, req("path", kString))

	return c
}
