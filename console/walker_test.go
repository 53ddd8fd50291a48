package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declog/declog/types"
)

const (
	consoleTo = "0x000000000000000000636f6e736f6c652e6c6f67"
	otherTo   = "0x00000000000000000000000000000000000000aa"
)

func contractFrame(calls ...types.CallFrame) types.CallFrame {
	return types.CallFrame{Type: "CALL", To: otherTo, Calls: calls}
}

func consoleFrame(input []byte) types.CallFrame {
	return types.CallFrame{Type: "STATICCALL", To: consoleTo, Input: input}
}

func drain(w *Walker) []*ConsoleCall {
	var calls []*ConsoleCall
	for {
		call, ok := w.Next()
		if !ok {
			return calls
		}
		calls = append(calls, call)
	}
}

func TestWalkerPreOrderPositions(t *testing.T) {
	// positions count every frame, console or not:
	//   0 root
	//   1   contract
	//   2   console
	//   3   contract
	//   4     contract
	//   5     console
	//   6   contract
	//   7     console
	//   8   contract
	//   9   console
	root := contractFrame(
		contractFrame(),
		consoleFrame([]byte{0x01}),
		contractFrame(
			contractFrame(),
			consoleFrame([]byte{0x02}),
		),
		contractFrame(
			consoleFrame([]byte{0x03}),
		),
		contractFrame(),
		consoleFrame([]byte{0x04}),
	)

	calls := drain(NewWalker(&root))
	require.Len(t, calls, 4)
	assert.Equal(t, 2, calls[0].Position)
	assert.Equal(t, 5, calls[1].Position)
	assert.Equal(t, 7, calls[2].Position)
	assert.Equal(t, 9, calls[3].Position)
	assert.Equal(t, []byte{0x01}, calls[0].Input)
	assert.Equal(t, []byte{0x04}, calls[3].Input)
}

func TestWalkerRevertInheritance(t *testing.T) {
	reverted := contractFrame(
		consoleFrame([]byte{0x02}),
		contractFrame(
			consoleFrame([]byte{0x03}),
		),
	)
	reverted.Error = "execution reverted"

	root := contractFrame(
		consoleFrame([]byte{0x01}),
		reverted,
		consoleFrame([]byte{0x04}),
	)

	calls := drain(NewWalker(&root))
	require.Len(t, calls, 4)
	assert.False(t, calls[0].Reverted)
	assert.True(t, calls[1].Reverted, "direct child of a failed frame")
	assert.True(t, calls[2].Reverted, "grandchild of a failed frame")
	assert.False(t, calls[3].Reverted, "sibling after the failed subtree")
}

func TestWalkerSelfRevertedConsoleCall(t *testing.T) {
	frame := consoleFrame([]byte{0x01})
	frame.Error = "out of gas"
	root := contractFrame(frame)

	calls := drain(NewWalker(&root))
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Reverted)
}

func TestWalkerChecksummedTargetMatches(t *testing.T) {
	// comparison is by parsed address, not by string casing
	frame := types.CallFrame{
		Type:  "STATICCALL",
		To:    "0x000000000000000000636F6e736F6c652e6c6f67",
		Input: []byte{0x01},
	}
	root := contractFrame(frame)

	calls := drain(NewWalker(&root))
	assert.Len(t, calls, 1)
}

func TestWalkerIgnoresCreations(t *testing.T) {
	root := contractFrame(
		types.CallFrame{Type: "CREATE", To: "", Input: []byte{0x60, 0x80}},
		consoleFrame([]byte{0x01}),
	)

	calls := drain(NewWalker(&root))
	require.Len(t, calls, 1)
	assert.Equal(t, 2, calls[0].Position)
}

func TestWalkerNoConsoleCalls(t *testing.T) {
	root := contractFrame(contractFrame(), contractFrame())
	assert.Empty(t, drain(NewWalker(&root)))
}

func TestWalkerNilRoot(t *testing.T) {
	assert.Empty(t, drain(NewWalker(nil)))
}

func TestWalkerDeepNesting(t *testing.T) {
	// a pathologically deep chain must not blow the stack
	leaf := consoleFrame([]byte{0x01})
	frame := leaf
	const depth = 50_000
	for i := 0; i < depth; i++ {
		frame = contractFrame(frame)
	}

	calls := drain(NewWalker(&frame))
	require.Len(t, calls, 1)
	assert.Equal(t, depth, calls[0].Position)
}
