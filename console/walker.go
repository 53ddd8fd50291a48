package console

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/declog/declog/types"
)

// ConsoleCall is one call targeting the reserved logging address, found
// during traversal of a trace.
type ConsoleCall struct {
	// Position is the pre-order index of the frame among all frames of
	// the trace, matching the order the EVM entered them.
	Position int
	// Input is the raw call input, selector included.
	Input []byte
	// Reverted is inherited from the nearest failed ancestor frame (or
	// the frame itself). The walker surfaces reverted calls; whether to
	// report them is the pipeline's policy, not the walker's.
	Reverted bool
}

type walkItem struct {
	frame    *types.CallFrame
	reverted bool
}

// Walker yields the console calls of a trace in execution order. Traversal
// is pre-order depth-first over an explicit stack, so arbitrarily deep call
// trees cannot exhaust the goroutine stack. A Walker is single-use; create
// a new one to restart.
type Walker struct {
	stack []walkItem
	pos   int
}

func NewWalker(root *types.CallFrame) *Walker {
	w := &Walker{}
	if root != nil {
		w.stack = append(w.stack, walkItem{frame: root})
	}
	return w
}

// Next returns the next call to the logging address, or false when the
// trace is exhausted.
func (w *Walker) Next() (*ConsoleCall, bool) {
	for len(w.stack) > 0 {
		item := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]

		position := w.pos
		w.pos++

		reverted := item.reverted || item.frame.Reverted()

		// push children right-to-left so they pop left-to-right
		for i := len(item.frame.Calls) - 1; i >= 0; i-- {
			w.stack = append(w.stack, walkItem{frame: &item.frame.Calls[i], reverted: reverted})
		}

		if item.frame.To == "" || common.HexToAddress(item.frame.To) != Address {
			continue
		}

		return &ConsoleCall{
			Position: position,
			Input:    item.frame.Input,
			Reverted: reverted,
		}, true
	}
	return nil, false
}
