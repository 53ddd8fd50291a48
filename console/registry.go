package console

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Address is the reserved logging address console.sol targets. Calls to it
// are no-ops on chain; their input data is only visible while tracing. The
// constant is part of the deployed logging convention and is therefore
// fixed at build time.
var Address = common.HexToAddress("0x000000000000000000636F6e736F6c652e6c6f67")

// Selector is the 4-byte identifier taken from the first four bytes of a
// call's input data.
type Selector [4]byte

func (s Selector) String() string {
	return fmt.Sprintf("0x%x", s[:])
}

// SelectorOf extracts the selector from raw call input. The caller must
// have checked that the input carries at least four bytes.
func SelectorOf(input []byte) Selector {
	var sel Selector
	copy(sel[:], input[:4])
	return sel
}

// registry maps call selectors to argument schemas. Populated once in init
// and never mutated afterwards, so concurrent lookups need no locking.
var registry = make(map[Selector]ArgumentSchema)

// Lookup returns the argument schema registered for the selector. Unknown
// selectors are a legitimate state, not an error: the traced contract may
// call the logging address with signatures outside the supported set.
func Lookup(sel Selector) (ArgumentSchema, bool) {
	schema, ok := registry[sel]
	return schema, ok
}

// Size returns the number of registered selectors.
func Size() int {
	return len(registry)
}

// register derives the selector from the canonical signature string and
// stores the schema under it. Deriving instead of hardcoding keeps every
// entry reproducible and auditable from its signature.
func register(signature string, args ...TypeTag) {
	var sel Selector
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	registry[sel] = ArgumentSchema{Signature: signature, Args: args}
}

// registerWithLegacyAlias registers the canonical signature and, when the
// signature spells out uint256/int256, additionally the abbreviated
// uint/int spelling under its own selector. Early console.sol releases
// ABI-encoded some calls with the abbreviated spelling, so both selectors
// occur in the wild and decode identically.
func registerWithLegacyAlias(signature string, args ...TypeTag) {
	register(signature, args...)

	legacy := strings.ReplaceAll(signature, "uint256", "uint")
	legacy = strings.ReplaceAll(legacy, "int256", "int")
	if legacy != signature {
		register(legacy, args...)
	}
}

// logArgTypes is the argument type universe of the variadic log() overloads.
var logArgTypes = []struct {
	name string
	tag  TypeTag
}{
	{"uint256", UintType(256)},
	{"string", StringType()},
	{"bool", BoolType()},
	{"address", AddressType()},
}

func init() {
	register("log()")

	// Named single-argument variants.
	registerWithLegacyAlias("logInt(int256)", IntType(256))
	registerWithLegacyAlias("logUint(uint256)", UintType(256))
	register("logString(string)", StringType())
	register("logBool(bool)", BoolType())
	register("logAddress(address)", AddressType())
	register("logBytes(bytes)", BytesType())
	for width := 1; width <= 32; width++ {
		register(fmt.Sprintf("logBytes%d(bytes%d)", width, width), FixedBytesType(width))
	}

	// log() overloads: every combination of the four base types up to
	// four arguments, exactly the surface console.sol declares.
	var combos func(prefix []int, depth int)
	combos = func(prefix []int, depth int) {
		if len(prefix) > 0 {
			names := make([]string, len(prefix))
			args := make([]TypeTag, len(prefix))
			for i, idx := range prefix {
				names[i] = logArgTypes[idx].name
				args[i] = logArgTypes[idx].tag
			}
			registerWithLegacyAlias(fmt.Sprintf("log(%s)", strings.Join(names, ",")), args...)
		}
		if depth == 0 {
			return
		}
		for idx := range logArgTypes {
			combos(append(prefix, idx), depth-1)
		}
	}
	combos(nil, 4)
}
