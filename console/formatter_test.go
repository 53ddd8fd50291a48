package console

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestFormatAddressLowercase(t *testing.T) {
	v := Value{Kind: ValueAddress, Addr: common.HexToAddress("0x1aD91ee08f21bE3dE0BA2ba6918E714dA6B45836")}
	assert.Equal(t, "0x1ad91ee08f21be3de0ba2ba6918e714da6b45836", formatValue(v))
}

func TestFormatNumbersDecimal(t *testing.T) {
	decimal := "79520372386923644452263703657155088832667823295608004009718642224436144452329"
	big1, _ := new(big.Int).SetString(decimal, 10)
	assert.Equal(t, decimal, formatValue(Value{Kind: ValueUint, Big: big1}))
	assert.Equal(t, "-7", formatValue(Value{Kind: ValueInt, Big: big.NewInt(-7)}))
	assert.Equal(t, "0", formatValue(Value{Kind: ValueUint, Big: big.NewInt(0)}))
}

func TestFormatBool(t *testing.T) {
	assert.Equal(t, "true", formatValue(Value{Kind: ValueBool, Bool: true}))
	assert.Equal(t, "false", formatValue(Value{Kind: ValueBool, Bool: false}))
}

func TestFormatBytesHex(t *testing.T) {
	assert.Equal(t, "0xcafe", formatValue(Value{Kind: ValueBytes, Bytes: []byte{0xca, 0xfe}}))
	assert.Equal(t, "0x00ff", formatValue(Value{Kind: ValueFixedBytes, Fixed: []byte{0x00, 0xff}}))
	assert.Equal(t, "0x", formatValue(Value{Kind: ValueBytes, Bytes: nil}))
}

func TestFormatStringVerbatim(t *testing.T) {
	assert.Equal(t, "hello world", formatValue(Value{Kind: ValueString, Str: "hello world"}))
	assert.Equal(t, "", formatValue(Value{Kind: ValueString, Str: ""}))
}

func TestFormatArray(t *testing.T) {
	v := Value{Kind: ValueArray, Elems: []Value{
		{Kind: ValueUint, Big: big.NewInt(1)},
		{Kind: ValueUint, Big: big.NewInt(2)},
	}}
	assert.Equal(t, "[1, 2]", formatValue(v))

	assert.Equal(t, "[]", formatValue(Value{Kind: ValueArray}))
}

func TestFormatJoinsWithSingleSpace(t *testing.T) {
	line := Format([]Value{
		{Kind: ValueString, Str: "minted"},
		{Kind: ValueUint, Big: big.NewInt(3)},
		{Kind: ValueBool, Bool: true},
	})
	assert.Equal(t, "minted 3 true", line)
}

func TestFormatNoValues(t *testing.T) {
	assert.Equal(t, "", Format(nil))
}
