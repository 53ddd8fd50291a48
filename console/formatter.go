package console

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Format renders decoded values as one display line: values in schema
// order, joined by a single space. Formatting never fails; every value
// reaching here was produced by the decoder.
func Format(values []Value) string {
	return strings.Join(FormatEach(values), " ")
}

// FormatEach renders each value individually, in schema order.
func FormatEach(values []Value) []string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return parts
}

func formatValue(v Value) string {
	switch v.Kind {
	case ValueAddress:
		// lowercase, not EIP-55 checksummed
		return hexutil.Encode(v.Addr.Bytes())
	case ValueUint, ValueInt:
		return v.Big.String()
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueFixedBytes:
		return hexutil.Encode(v.Fixed)
	case ValueBytes:
		return hexutil.Encode(v.Bytes)
	case ValueString:
		return v.Str
	case ValueArray:
		elems := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = formatValue(e)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	default:
		return ""
	}
}
