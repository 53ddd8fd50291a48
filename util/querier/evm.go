package querier

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/declog/declog/sentry_integration"
	"github.com/declog/declog/types"
)

// tracerConfig selects the callTracer so the node returns the full nested
// call tree, including the zero-gas calls to the logging address.
var tracerConfig = map[string]any{"tracer": "callTracer"}

func (q *Querier) fetchTraceBlock(height int64, timeout time.Duration) requestFunc[types.DebugCallTraceBlockResponse] {
	return func(ctx context.Context, endpointURL string) (*types.DebugCallTraceBlockResponse, error) {
		span, ctx := sentry_integration.StartSentrySpan(ctx, "TraceBlock", "Tracing console calls for height "+strconv.FormatInt(height, 10))
		defer span.Finish()

		payload := types.JSONRPCRequest{
			JSONRPC: "2.0",
			Method:  "debug_traceBlockByNumber",
			Params:  []any{hexutil.EncodeUint64(uint64(height)), tracerConfig},
			ID:      1,
		}
		body, err := q.post(ctx, endpointURL, payload, timeout)
		if err != nil {
			return nil, err
		}

		errResp, err := extractResponse[types.JSONRPCErrorResponse](body)
		if err == nil && errResp.Error != nil {
			return nil, &types.StandardError{
				Type:    types.ErrTypeNetwork,
				Message: "RPC error (code: " + strconv.Itoa(errResp.Error.Code) + "): " + errResp.Error.Message,
			}
		}

		response, err := extractResponse[types.DebugCallTraceBlockResponse](body)
		if err != nil {
			return nil, err
		}
		return &response, nil
	}
}

// TraceBlock fetches the call traces of every transaction in the block.
func (q *Querier) TraceBlock(ctx context.Context, height int64) ([]types.TransactionTrace, error) {
	res, err := executeWithEndpointRotation(ctx, q.JsonRpcUrls, q.fetchTraceBlock(height, queryTimeout))
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

func (q *Querier) fetchTraceTransaction(txHash string, timeout time.Duration) requestFunc[types.DebugCallTraceTxResponse] {
	return func(ctx context.Context, endpointURL string) (*types.DebugCallTraceTxResponse, error) {
		span, ctx := sentry_integration.StartSentrySpan(ctx, "TraceTransaction", "Tracing console calls for tx "+txHash)
		defer span.Finish()

		payload := types.JSONRPCRequest{
			JSONRPC: "2.0",
			Method:  "debug_traceTransaction",
			Params:  []any{txHash, tracerConfig},
			ID:      1,
		}
		body, err := q.post(ctx, endpointURL, payload, timeout)
		if err != nil {
			return nil, err
		}

		errResp, err := extractResponse[types.JSONRPCErrorResponse](body)
		if err == nil && errResp.Error != nil {
			return nil, &types.StandardError{
				Type:    types.ErrTypeNetwork,
				Message: "RPC error (code: " + strconv.Itoa(errResp.Error.Code) + "): " + errResp.Error.Message,
			}
		}

		response, err := extractResponse[types.DebugCallTraceTxResponse](body)
		if err != nil {
			return nil, types.NewMalformedTraceError("trace response does not match the callTracer shape", err)
		}
		return &response, nil
	}
}

// TraceTransaction fetches the call trace of one transaction. An exhausted or
// erroring node is reported as a trace-unavailable failure so callers can
// distinguish it from a malformed trace body.
func (q *Querier) TraceTransaction(ctx context.Context, txHash string) (*types.CallFrame, error) {
	res, err := executeWithEndpointRotation(ctx, q.JsonRpcUrls, q.fetchTraceTransaction(txHash, queryTimeout))
	if err != nil {
		if types.IsErrorType(err, types.ErrTypeMalformedTrace) {
			return nil, err
		}
		return nil, types.NewTraceUnavailableError(txHash, err)
	}
	return &res.Result, nil
}

func (q *Querier) fetchLatestHeight(timeout time.Duration) requestFunc[int64] {
	return func(ctx context.Context, endpointURL string) (*int64, error) {
		payload := types.JSONRPCRequest{
			JSONRPC: "2.0",
			Method:  "eth_blockNumber",
			Params:  []any{},
			ID:      1,
		}
		body, err := q.post(ctx, endpointURL, payload, timeout)
		if err != nil {
			return nil, err
		}

		resp, err := extractResponse[types.JSONRPCResponse](body)
		if err != nil {
			return nil, err
		}
		if resp.Error != nil {
			return nil, &types.StandardError{
				Type:    types.ErrTypeNetwork,
				Message: "RPC error (code: " + strconv.Itoa(resp.Error.Code) + "): " + resp.Error.Message,
			}
		}

		var quantity string
		if err := json.Unmarshal(resp.Result, &quantity); err != nil {
			return nil, err
		}
		height, err := strconv.ParseInt(strings.TrimPrefix(quantity, "0x"), 16, 64)
		if err != nil {
			return nil, err
		}
		return &height, nil
	}
}

// GetLatestHeight returns the current chain head height.
func (q *Querier) GetLatestHeight(ctx context.Context) (int64, error) {
	res, err := executeWithEndpointRotation(ctx, q.JsonRpcUrls, q.fetchLatestHeight(queryTimeout))
	if err != nil {
		return 0, err
	}
	return *res, nil
}
