package console

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const wordSize = 32

// Decode failure kinds. Both are recoverable per call: the pipeline reports
// them as warnings and keeps processing the rest of the trace.
var (
	// ErrTruncated marks a payload whose head words, offset target or
	// length-indicated data extend past the end of the buffer.
	ErrTruncated = errors.New("payload truncated")
	// ErrBadOffset marks a dynamic offset that does not land inside the
	// tail region of the buffer.
	ErrBadOffset = errors.New("dynamic offset out of range")
)

// Decode decodes an ABI-encoded argument payload against a schema. The
// buffer is the call input with the 4-byte selector already stripped.
// Decoding is all-or-nothing: on failure no values are returned. The input
// buffer is never mutated.
func Decode(buf []byte, schema ArgumentSchema) ([]Value, error) {
	head := schema.MinSize()
	if len(buf) < head {
		return nil, fmt.Errorf("%w: need %d head bytes, have %d", ErrTruncated, head, len(buf))
	}

	values := make([]Value, 0, len(schema.Args))
	for i, tag := range schema.Args {
		word := buf[i*wordSize : (i+1)*wordSize]
		if !tag.Dynamic() {
			values = append(values, decodeStatic(word, tag))
			continue
		}

		offset, err := wordToOffset(word)
		if err != nil {
			return nil, err
		}
		if offset < head || offset > len(buf) {
			return nil, fmt.Errorf("%w: offset %d outside tail [%d,%d]", ErrBadOffset, offset, head, len(buf))
		}
		value, err := decodeDynamic(buf, offset, tag)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// decodeStatic reads a non-indirected value straight from its head word.
func decodeStatic(word []byte, tag TypeTag) Value {
	switch tag.Kind {
	case KindAddress:
		// low-order 20 bytes of the word
		return Value{Kind: ValueAddress, Addr: common.BytesToAddress(word[wordSize-common.AddressLength:])}
	case KindUint:
		return Value{Kind: ValueUint, Big: new(big.Int).SetBytes(word)}
	case KindInt:
		return Value{Kind: ValueInt, Big: twosComplement(word, tag.Bits)}
	case KindBool:
		return Value{Kind: ValueBool, Bool: !isZeroWord(word)}
	case KindFixedBytes:
		width := tag.Bits / 8
		fixed := make([]byte, width)
		copy(fixed, word[:width]) // left-aligned in the word
		return Value{Kind: ValueFixedBytes, Fixed: fixed}
	default:
		// schemas are built from the constructors above; a dynamic kind
		// cannot reach here
		panic(fmt.Sprintf("static decode of dynamic kind %d", tag.Kind))
	}
}

// decodeDynamic reads a length-prefixed value from the tail region.
func decodeDynamic(buf []byte, offset int, tag TypeTag) (Value, error) {
	length, err := lengthAt(buf, offset)
	if err != nil {
		return Value{}, err
	}
	dataStart := offset + wordSize

	switch tag.Kind {
	case KindString, KindBytes:
		// compare by subtraction: dataStart+length may overflow int
		if length > len(buf)-dataStart {
			return Value{}, fmt.Errorf("%w: %d payload bytes at offset %d exceed buffer of %d", ErrTruncated, length, dataStart, len(buf))
		}
		payload := make([]byte, length)
		copy(payload, buf[dataStart:dataStart+length])
		if tag.Kind == KindString {
			return Value{Kind: ValueString, Str: string(payload)}, nil
		}
		return Value{Kind: ValueBytes, Bytes: payload}, nil

	case KindArray:
		// divide instead of multiplying: length*wordSize may overflow int
		if length > (len(buf)-dataStart)/wordSize {
			return Value{}, fmt.Errorf("%w: %d array head words at offset %d exceed buffer of %d", ErrTruncated, length, dataStart, len(buf))
		}
		elems := make([]Value, 0, length)
		for i := 0; i < length; i++ {
			word := buf[dataStart+i*wordSize : dataStart+(i+1)*wordSize]
			if !tag.Elem.Dynamic() {
				elems = append(elems, decodeStatic(word, *tag.Elem))
				continue
			}
			// nested dynamic offsets are relative to the element region
			rel, err := wordToOffset(word)
			if err != nil {
				return Value{}, err
			}
			if rel < length*wordSize || rel > len(buf)-dataStart {
				return Value{}, fmt.Errorf("%w: element offset %d outside array tail", ErrBadOffset, rel)
			}
			elem, err := decodeDynamic(buf, dataStart+rel, *tag.Elem)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, elem)
		}
		return Value{Kind: ValueArray, Elems: elems}, nil

	default:
		panic(fmt.Sprintf("dynamic decode of static kind %d", tag.Kind))
	}
}

// wordToOffset interprets a head word as a byte offset. Offsets beyond the
// practical address space cannot land in any tail.
func wordToOffset(word []byte) (int, error) {
	for _, b := range word[:wordSize-8] {
		if b != 0 {
			return 0, fmt.Errorf("%w: offset word overflows", ErrBadOffset)
		}
	}
	v := new(big.Int).SetBytes(word)
	if !v.IsInt64() || v.Int64() < 0 {
		return 0, fmt.Errorf("%w: offset word overflows", ErrBadOffset)
	}
	return int(v.Int64()), nil
}

// lengthAt reads the 32-byte length word preceding a dynamic payload. The
// length is rejected outright when it exceeds the buffer: no payload it
// could describe can fit, and capping it here keeps all later arithmetic
// within int range.
func lengthAt(buf []byte, offset int) (int, error) {
	if offset+wordSize > len(buf) {
		return 0, fmt.Errorf("%w: length word at %d exceeds buffer of %d", ErrTruncated, offset, len(buf))
	}
	v := new(big.Int).SetBytes(buf[offset : offset+wordSize])
	if !v.IsInt64() || v.Int64() < 0 || v.Int64() > int64(len(buf)) {
		return 0, fmt.Errorf("%w: length word at %d exceeds buffer of %d", ErrTruncated, offset, len(buf))
	}
	return int(v.Int64()), nil
}

// twosComplement interprets a big-endian word as a signed integer of the
// given bit width.
func twosComplement(word []byte, bits int) *big.Int {
	v := new(big.Int).SetBytes(word)
	if v.Bit(bits-1) == 1 {
		bound := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		v.Sub(v, bound)
	}
	return v
}

func isZeroWord(word []byte) bool {
	for _, b := range word {
		if b != 0 {
			return false
		}
	}
	return true
}
