package consolelog

import (
	"github.com/declog/declog/api/handler/common"
	"github.com/declog/declog/console"
	"github.com/declog/declog/types"
)

type ConsoleLogResponse struct {
	Height    int64    `json:"height"`
	TxHash    string   `json:"tx_hash"`
	Position  int64    `json:"position"`
	Sequence  int64    `json:"sequence"`
	Signature string   `json:"signature"`
	Values    []string `json:"values"`
	Message   string   `json:"message"`
	Reverted  bool     `json:"reverted"`
}

type WarningResponse struct {
	Position int64  `json:"position"`
	Reason   string `json:"reason"`
}

type ConsoleLogsResponse struct {
	Logs       []ConsoleLogResponse      `json:"logs"`
	Pagination common.PaginationResponse `json:"pagination"`
}

type TxConsoleLogsResponse struct {
	TxHash   string               `json:"tx_hash"`
	Logs     []ConsoleLogResponse `json:"logs"`
	Warnings []WarningResponse    `json:"warnings"`
}

type ExtractedLogResponse struct {
	Position  int64    `json:"position"`
	Signature string   `json:"signature"`
	Values    []string `json:"values"`
	Message   string   `json:"message"`
	Reverted  bool     `json:"reverted"`
}

type ExtractResponse struct {
	TxHash   string                 `json:"tx_hash"`
	Contract string                 `json:"contract,omitempty"`
	Logs     []ExtractedLogResponse `json:"logs"`
	Warnings []WarningResponse      `json:"warnings"`
}

func ToConsoleLogsResponse(logs []types.CollectedConsoleLog) []ConsoleLogResponse {
	res := make([]ConsoleLogResponse, len(logs))
	for i, log := range logs {
		res[i] = ConsoleLogResponse{
			Height:    log.Height,
			TxHash:    log.Hash,
			Position:  log.Position,
			Sequence:  log.Sequence,
			Signature: log.Signature,
			Values:    log.Values,
			Message:   log.Message,
			Reverted:  log.Reverted,
		}
	}
	return res
}

func ToWarningsResponse(warnings []types.CollectedExtractionWarning) []WarningResponse {
	res := make([]WarningResponse, len(warnings))
	for i, warning := range warnings {
		res[i] = WarningResponse{
			Position: warning.Position,
			Reason:   warning.Reason,
		}
	}
	return res
}

func toExtractResponse(txHash, contract string, outcomes []console.Outcome) ExtractResponse {
	res := ExtractResponse{
		TxHash:   txHash,
		Contract: contract,
		Logs:     []ExtractedLogResponse{},
		Warnings: []WarningResponse{},
	}

	for _, outcome := range outcomes {
		if outcome.Entry != nil {
			entry := outcome.Entry
			res.Logs = append(res.Logs, ExtractedLogResponse{
				Position:  int64(entry.Position),
				Signature: entry.Signature,
				Values:    console.FormatEach(entry.Values),
				Message:   entry.Message,
				Reverted:  entry.Reverted,
			})
			continue
		}

		warning := outcome.Warning
		res.Warnings = append(res.Warnings, WarningResponse{
			Position: int64(warning.Position),
			Reason:   warning.Reason(),
		})
	}

	return res
}
