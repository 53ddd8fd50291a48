package console

// Kind identifies one ABI type tag supported by the console schema set.
type Kind uint8

const (
	KindAddress Kind = iota
	KindUint
	KindInt
	KindBool
	KindFixedBytes
	KindBytes
	KindString
	KindArray
)

// TypeTag describes one argument slot of a console call. Static tags occupy
// a fixed 32-byte head word; dynamic tags store an offset into the tail.
type TypeTag struct {
	Kind Kind
	Bits int      // bit width for integer kinds, byte width*8 for fixed bytes
	Elem *TypeTag // element type, set only for KindArray
}

func AddressType() TypeTag {
	return TypeTag{Kind: KindAddress}
}

func UintType(bits int) TypeTag {
	return TypeTag{Kind: KindUint, Bits: bits}
}

func IntType(bits int) TypeTag {
	return TypeTag{Kind: KindInt, Bits: bits}
}

func BoolType() TypeTag {
	return TypeTag{Kind: KindBool}
}

func FixedBytesType(width int) TypeTag {
	return TypeTag{Kind: KindFixedBytes, Bits: width * 8}
}

func BytesType() TypeTag {
	return TypeTag{Kind: KindBytes}
}

func StringType() TypeTag {
	return TypeTag{Kind: KindString}
}

func ArrayType(elem TypeTag) TypeTag {
	return TypeTag{Kind: KindArray, Elem: &elem}
}

// Dynamic reports whether the tag is offset-indirected into the tail region
// rather than stored inline in its head word.
func (t TypeTag) Dynamic() bool {
	switch t.Kind {
	case KindBytes, KindString, KindArray:
		return true
	default:
		return false
	}
}

// ArgumentSchema is the ordered argument layout for one selector, created
// once at registry build time and read-only thereafter. Signature is the
// human-readable signature the selector was derived from.
type ArgumentSchema struct {
	Signature string
	Args      []TypeTag
}

// MinSize returns the minimum payload length the schema can decode: one
// 32-byte head word per argument.
func (s ArgumentSchema) MinSize() int {
	return len(s.Args) * wordSize
}
