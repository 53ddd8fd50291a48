package querier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContractName(t *testing.T) {
	body := []byte(`{
		"status": "1",
		"message": "OK",
		"result": [{"ContractName": "UniswapV2Router02", "SourceCode": "..."}]
	}`)

	name, err := parseContractName(body)
	require.NoError(t, err)
	assert.Equal(t, "UniswapV2Router02", name)
}

func TestParseContractNameUnverified(t *testing.T) {
	// Etherscan returns status "1" with an empty name for unverified sources
	body := []byte(`{"status": "1", "message": "OK", "result": [{"ContractName": ""}]}`)

	name, err := parseContractName(body)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestParseContractNameNotOK(t *testing.T) {
	// unknown addresses report status "0" with a string result
	body := []byte(`{"status": "0", "message": "NOTOK", "result": "Invalid Address format"}`)

	name, err := parseContractName(body)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestParseContractNameGarbage(t *testing.T) {
	_, err := parseContractName([]byte("<html>rate limited</html>"))
	assert.Error(t, err)
}
