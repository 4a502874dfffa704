package aavev3

// PoolABI covers the Aave V3 Pool entrypoints the strategy reads and
// encodes against: the account-wide health read plus the user-facing
// mutations. getUserAccountData reports values in the market's base
// currency with 8 decimals and the health factor in wad (1e18).
const PoolABI = `[
	{
		"inputs": [{"internalType": "address", "name": "user", "type": "address"}],
		"name": "getUserAccountData",
		"outputs": [
			{"internalType": "uint256", "name": "totalCollateralBase", "type": "uint256"},
			{"internalType": "uint256", "name": "totalDebtBase", "type": "uint256"},
			{"internalType": "uint256", "name": "availableBorrowsBase", "type": "uint256"},
			{"internalType": "uint256", "name": "currentLiquidationThreshold", "type": "uint256"},
			{"internalType": "uint256", "name": "ltv", "type": "uint256"},
			{"internalType": "uint256", "name": "healthFactor", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "asset", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "address", "name": "onBehalfOf", "type": "address"},
			{"internalType": "uint16", "name": "referralCode", "type": "uint16"}
		],
		"name": "supply",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "asset", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "address", "name": "to", "type": "address"}
		],
		"name": "withdraw",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "asset", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "uint256", "name": "interestRateMode", "type": "uint256"},
			{"internalType": "uint16", "name": "referralCode", "type": "uint16"},
			{"internalType": "address", "name": "onBehalfOf", "type": "address"}
		],
		"name": "borrow",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "asset", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "uint256", "name": "interestRateMode", "type": "uint256"},
			{"internalType": "address", "name": "onBehalfOf", "type": "address"}
		],
		"name": "repay",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "asset", "type": "address"},
			{"internalType": "bool", "name": "useAsCollateral", "type": "bool"}
		],
		"name": "setUserUseReserveAsCollateral",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "collateralAsset", "type": "address"},
			{"internalType": "address", "name": "debtAsset", "type": "address"},
			{"internalType": "address", "name": "user", "type": "address"},
			{"internalType": "uint256", "name": "debtToCover", "type": "uint256"},
			{"internalType": "bool", "name": "receiveAToken", "type": "bool"}
		],
		"name": "liquidationCall",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// DataProviderABI covers the AaveProtocolDataProvider reserve lenses.
// Rates come back in ray (1e27), ratios in basis points.
const DataProviderABI = `[
	{
		"inputs": [{"internalType": "address", "name": "asset", "type": "address"}],
		"name": "getReserveData",
		"outputs": [
			{"internalType": "uint256", "name": "unbacked", "type": "uint256"},
			{"internalType": "uint256", "name": "accruedToTreasuryScaled", "type": "uint256"},
			{"internalType": "uint256", "name": "totalAToken", "type": "uint256"},
			{"internalType": "uint256", "name": "totalStableDebt", "type": "uint256"},
			{"internalType": "uint256", "name": "totalVariableDebt", "type": "uint256"},
			{"internalType": "uint256", "name": "liquidityRate", "type": "uint256"},
			{"internalType": "uint256", "name": "variableBorrowRate", "type": "uint256"},
			{"internalType": "uint256", "name": "stableBorrowRate", "type": "uint256"},
			{"internalType": "uint256", "name": "averageStableBorrowRate", "type": "uint256"},
			{"internalType": "uint256", "name": "liquidityIndex", "type": "uint256"},
			{"internalType": "uint256", "name": "variableBorrowIndex", "type": "uint256"},
			{"internalType": "uint40", "name": "lastUpdateTimestamp", "type": "uint40"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "asset", "type": "address"}],
		"name": "getReserveConfigurationData",
		"outputs": [
			{"internalType": "uint256", "name": "decimals", "type": "uint256"},
			{"internalType": "uint256", "name": "ltv", "type": "uint256"},
			{"internalType": "uint256", "name": "liquidationThreshold", "type": "uint256"},
			{"internalType": "uint256", "name": "liquidationBonus", "type": "uint256"},
			{"internalType": "uint256", "name": "reserveFactor", "type": "uint256"},
			{"internalType": "bool", "name": "usageAsCollateralEnabled", "type": "bool"},
			{"internalType": "bool", "name": "borrowingEnabled", "type": "bool"},
			{"internalType": "bool", "name": "stableBorrowRateEnabled", "type": "bool"},
			{"internalType": "bool", "name": "isActive", "type": "bool"},
			{"internalType": "bool", "name": "isFrozen", "type": "bool"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "asset", "type": "address"},
			{"internalType": "address", "name": "user", "type": "address"}
		],
		"name": "getUserReserveData",
		"outputs": [
			{"internalType": "uint256", "name": "currentATokenBalance", "type": "uint256"},
			{"internalType": "uint256", "name": "currentStableDebt", "type": "uint256"},
			{"internalType": "uint256", "name": "currentVariableDebt", "type": "uint256"},
			{"internalType": "uint256", "name": "principalStableDebt", "type": "uint256"},
			{"internalType": "uint256", "name": "scaledVariableDebt", "type": "uint256"},
			{"internalType": "uint256", "name": "stableBorrowRate", "type": "uint256"},
			{"internalType": "uint256", "name": "liquidityRate", "type": "uint256"},
			{"internalType": "uint40", "name": "stableRateLastUpdated", "type": "uint40"},
			{"internalType": "bool", "name": "usageAsCollateralEnabled", "type": "bool"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getAllReservesTokens",
		"outputs": [
			{
				"components": [
					{"internalType": "string", "name": "symbol", "type": "string"},
					{"internalType": "address", "name": "tokenAddress", "type": "address"}
				],
				"internalType": "struct IPoolDataProvider.TokenData[]",
				"name": "",
				"type": "tuple[]"
			}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`
