package abis

import "github.com/ethereum/go-ethereum/accounts/abi"

// GetOracleInterfaceABI covers the protocol's price oracle wrapper. Values
// returned by getUsdValue carry the oracle's fixed-point scale.
func GetOracleInterfaceABI() (*abi.ABI, error) {
	return ParseABI(`[
		{
			"inputs": [
				{"name": "asset", "type": "address"},
				{"name": "amount", "type": "uint256"},
				{"name": "decimals", "type": "uint8"}
			],
			"name": "getUsdValue",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		}
	]`)
}
