// pkg/object/kind.go
package object

// Kind is the discriminator of a runtime value. It is fixed when the value is
// constructed and never changes afterwards.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindByte
	KindInt
	KindLong
	KindDouble
	KindString
	KindDate
	KindArray
	KindByteArray
	KindBitmap
	KindIntMap
	KindJSON
	KindQueue
	KindImage
	KindVectorImage
	KindCanvas
	KindFunction
	KindAny
	KindReturnValue
	KindBreak
	KindContinue
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindBool:
		return "BOOL"
	case KindByte:
		return "BYTE"
	case KindInt:
		return "INT"
	case KindLong:
		return "LONG"
	case KindDouble:
		return "DOUBLE"
	case KindString:
		return "STRING"
	case KindDate:
		return "DATE"
	case KindArray:
		return "ARRAY"
	case KindByteArray:
		return "BYTE_ARRAY"
	case KindBitmap:
		return "BITMAP"
	case KindIntMap:
		return "INTMAP"
	case KindJSON:
		return "JSON"
	case KindQueue:
		return "QUEUE"
	case KindImage:
		return "IMAGE"
	case KindVectorImage:
		return "VECTOR_IMAGE"
	case KindCanvas:
		return "CANVAS"
	case KindFunction:
		return "FUNCTION"
	case KindAny:
		return "ANY"
	case KindReturnValue:
		return "RETURN_VALUE"
	case KindBreak:
		return "BREAK"
	case KindContinue:
		return "CONTINUE"
	case KindError:
		return "ERROR"
	default:
		return "INVALID"
	}
}

// Name is the script-level type name, as reported by typeof.
func (k Kind) Name() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindByte:
		return "byte"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindArray:
		return "array"
	case KindByteArray:
		return "byte[]"
	case KindBitmap:
		return "bitmap"
	case KindIntMap:
		return "intmap"
	case KindJSON:
		return "json"
	case KindQueue:
		return "queue"
	case KindImage:
		return "image"
	case KindVectorImage:
		return "vectorimage"
	case KindCanvas:
		return "canvas"
	case KindFunction:
		return "function"
	case KindAny:
		return "any"
	default:
		return "invalid"
	}
}

var kindsByName = map[string]Kind{
	"null":        KindNull,
	"none":        KindNull,
	"bool":        KindBool,
	"byte":        KindByte,
	"int":         KindInt,
	"long":        KindLong,
	"double":      KindDouble,
	"string":      KindString,
	"date":        KindDate,
	"array":       KindArray,
	"bitmap":      KindBitmap,
	"intmap":      KindIntMap,
	"json":        KindJSON,
	"queue":       KindQueue,
	"image":       KindImage,
	"vectorimage": KindVectorImage,
	"canvas":      KindCanvas,
	"function":    KindFunction,
	"any":         KindAny,
}

// KindOf resolves a canonical type name to its kind.
func KindOf(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}

// IsNumeric reports whether k takes part in numeric promotion.
func (k Kind) IsNumeric() bool {
	return k == KindByte || k == KindInt || k == KindLong || k == KindDouble
}

// IsArray reports whether k is one of the array kinds.
func (k Kind) IsArray() bool {
	return k == KindArray || k == KindByteArray || k == KindBitmap || k == KindIntMap
}

// numericRank orders the numeric kinds from narrowest to widest.
func numericRank(k Kind) int {
	switch k {
	case KindByte:
		return 1
	case KindInt:
		return 2
	case KindLong:
		return 3
	case KindDouble:
		return 4
	default:
		return 0
	}
}

// Widest returns the wider of two numeric kinds.
func Widest(a, b Kind) Kind {
	if numericRank(a) >= numericRank(b) {
		return a
	}
	return b
}

// DeclaredKind maps a declared type name onto the kind of the value a
// declaration holds. Byte, bitmap and intmap arrays use packed storage; as
// scalars, bitmap and intmap hold a byte and an int respectively.
func DeclaredKind(name string, array bool) Kind {
	if array {
		switch name {
		case "byte":
			return KindByteArray
		case "bitmap":
			return KindBitmap
		case "intmap":
			return KindIntMap
		}
		return KindArray
	}
	switch name {
	case "bitmap":
		return KindByte
	case "intmap":
		return KindInt
	case "map", "record":
		return KindJSON
	}
	if k, ok := KindOf(name); ok {
		return k
	}
	return KindAny
}

// ElemKind maps a declared array element type onto the element kind passed
// to NewArray.
func ElemKind(name string) Kind {
	switch name {
	case "bitmap":
		return KindBitmap
	case "intmap":
		return KindIntMap
	case "", "array":
		return KindAny
	case "map", "record":
		return KindJSON
	}
	if k, ok := KindOf(name); ok {
		return k
	}
	return KindAny
}
