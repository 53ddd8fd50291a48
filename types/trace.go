package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CallFrame is one frame of a callTracer execution trace: the target
// address, the raw input bytes, the revert status of the frame, and the
// child frames in the order the EVM invoked them. This is the minimal
// logical shape the extraction core requires; the wire format is whatever
// the JSON-RPC collaborator returns for the callTracer.
type CallFrame struct {
	Type         string        `json:"type"`
	From         string        `json:"from"`
	To           string        `json:"to"`
	Value        string        `json:"value,omitempty"`
	Gas          string        `json:"gas"`
	GasUsed      string        `json:"gasUsed"`
	Input        hexutil.Bytes `json:"input"`
	Output       hexutil.Bytes `json:"output,omitempty"`
	Error        string        `json:"error,omitempty"`
	RevertReason string        `json:"revertReason,omitempty"`
	Calls        []CallFrame   `json:"calls,omitempty"`
}

// Reverted reports whether this frame itself failed. Descendants of a
// reverted frame inherit the flag during traversal.
func (f *CallFrame) Reverted() bool {
	return f.Error != ""
}

// Validate checks the minimal structural shape required by the trace
// walker. A frame with no target address is only legal for creations.
func (f *CallFrame) Validate() error {
	if f.To != "" && !common.IsHexAddress(f.To) {
		return NewMalformedTraceError("frame target is not a valid address: "+f.To, nil)
	}
	for i := range f.Calls {
		if err := f.Calls[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TransactionTrace is one entry of a debug_traceBlockByNumber result.
type TransactionTrace struct {
	TxHash string    `json:"txHash"`
	Result CallFrame `json:"result"`
}

// DebugCallTraceBlockResponse represents the response from the
// debug_traceBlockByNumber RPC call with the callTracer.
type DebugCallTraceBlockResponse struct {
	Result []TransactionTrace `json:"result"`
}

// DebugCallTraceTxResponse represents the response from the
// debug_traceTransaction RPC call with the callTracer.
type DebugCallTraceTxResponse struct {
	Result CallFrame `json:"result"`
}
