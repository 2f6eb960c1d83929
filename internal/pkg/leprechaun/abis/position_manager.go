package abis

import "github.com/ethereum/go-ethereum/accounts/abi"

func GetPositionManagerABI() (*abi.ABI, error) {
	return ParseABI(`[
		{
			"inputs": [
				{"name": "syntheticAsset", "type": "address"},
				{"name": "collateralAsset", "type": "address"},
				{"name": "mintedAmount", "type": "uint256"}
			],
			"name": "getRequiredCollateral",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [
				{"name": "syntheticAsset", "type": "address"},
				{"name": "collateralAsset", "type": "address"},
				{"name": "collateralAmount", "type": "uint256"},
				{"name": "targetRatio", "type": "uint256"}
			],
			"name": "createPosition",
			"outputs": [{"name": "positionId", "type": "uint256"}],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [
				{"name": "positionId", "type": "uint256"},
				{"name": "amount", "type": "uint256"}
			],
			"name": "depositCollateral",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [
				{"name": "positionId", "type": "uint256"},
				{"name": "amount", "type": "uint256"}
			],
			"name": "withdrawCollateral",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [{"name": "positionId", "type": "uint256"}],
			"name": "closePosition",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		}
	]`)
}
