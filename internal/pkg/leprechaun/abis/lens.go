package abis

import "github.com/ethereum/go-ethereum/accounts/abi"

// positionDetailsTuple is the LeprechaunLens.PositionDetails struct shared by
// getPosition and getUserPositions.
const positionDetailsTuple = `[
	{"name": "positionId", "type": "uint256"},
	{"name": "owner", "type": "address"},
	{"name": "syntheticAsset", "type": "address"},
	{"name": "syntheticSymbol", "type": "string"},
	{"name": "collateralAsset", "type": "address"},
	{"name": "collateralSymbol", "type": "string"},
	{"name": "collateralAmount", "type": "uint256"},
	{"name": "mintedAmount", "type": "uint256"},
	{"name": "lastUpdateTimestamp", "type": "uint256"},
	{"name": "isActive", "type": "bool"},
	{"name": "currentRatio", "type": "uint256"},
	{"name": "requiredRatio", "type": "uint256"},
	{"name": "isUnderCollateralized", "type": "bool"},
	{"name": "collateralUsdValue", "type": "uint256"},
	{"name": "debtUsdValue", "type": "uint256"}
]`

func GetLensABI() (*abi.ABI, error) {
	return ParseABI(`[
		{
			"inputs": [
				{"name": "syntheticAsset", "type": "address"},
				{"name": "collateralAsset", "type": "address"},
				{"name": "collateralAmount", "type": "uint256"},
				{"name": "targetRatio", "type": "uint256"}
			],
			"name": "calculateMintAmountForTargetRatio",
			"outputs": [
				{"name": "mintAmount", "type": "uint256"},
				{"name": "maxMintable", "type": "uint256"},
				{"name": "effectiveRatio", "type": "uint256"},
				{"name": "minRequiredRatio", "type": "uint256"}
			],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [
				{"name": "syntheticAsset", "type": "address"},
				{"name": "collateralAsset", "type": "address"},
				{"name": "collateralAmount", "type": "uint256"}
			],
			"name": "getMintableAmount",
			"outputs": [
				{"name": "mintableAmount", "type": "uint256"},
				{"name": "usdCollateralValue", "type": "uint256"},
				{"name": "effectiveRatio", "type": "uint256"}
			],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [{"name": "positionId", "type": "uint256"}],
			"name": "getPosition",
			"outputs": [
				{"name": "details", "type": "tuple", "components": ` + positionDetailsTuple + `}
			],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [{"name": "user", "type": "address"}],
			"name": "getUserPositions",
			"outputs": [
				{"name": "positions", "type": "tuple[]", "components": ` + positionDetailsTuple + `}
			],
			"stateMutability": "view",
			"type": "function"
		}
	]`)
}
