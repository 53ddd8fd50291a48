package console

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ValueKind discriminates the closed set of decoded value variants. The set
// is fixed by the ABI type system, so formatting can match exhaustively.
type ValueKind uint8

const (
	ValueAddress ValueKind = iota
	ValueUint
	ValueInt
	ValueBool
	ValueFixedBytes
	ValueBytes
	ValueString
	ValueArray
)

// Value is one decoded argument. Exactly the fields implied by Kind are
// set; a Value is immutable once produced by the decoder.
type Value struct {
	Kind  ValueKind
	Addr  common.Address
	Big   *big.Int // ValueUint, ValueInt
	Bool  bool
	Fixed []byte // ValueFixedBytes, left-aligned payload of its declared width
	Bytes []byte
	Str   string
	Elems []Value // ValueArray
}
