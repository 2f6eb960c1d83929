package abis

import "github.com/ethereum/go-ethereum/accounts/abi"

// GetFactoryABI covers the LeprechaunFactory functions the client reads:
// the protocol fee, the effective (minimum) collateral ratio per pair, and
// the collateral asset registry.
func GetFactoryABI() (*abi.ABI, error) {
	return ParseABI(`[
		{
			"inputs": [],
			"name": "protocolFee",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [
				{"name": "syntheticAsset", "type": "address"},
				{"name": "collateralAsset", "type": "address"}
			],
			"name": "getEffectiveCollateralRatio",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [{"name": "", "type": "address"}],
			"name": "collateralAssets",
			"outputs": [
				{"name": "tokenAddress", "type": "address"},
				{"name": "minCollateralRatio", "type": "uint256"},
				{"name": "auctionDiscount", "type": "uint256"},
				{"name": "isActive", "type": "bool"}
			],
			"stateMutability": "view",
			"type": "function"
		}
	]`)
}
