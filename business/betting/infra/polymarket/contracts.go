package polymarket

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Order side and signature type constants of the CTF Exchange.
const (
	orderSideBuy  = uint8(0)
	orderSideSell = uint8(1)

	signatureTypeEOA = uint8(0)
)

// CTFExchangeABI covers order filling on the Polymarket CTF Exchange.
// The order signature travels inside the struct, so an unsigned build
// leaves it empty for the caller's signer to fill in.
const CTFExchangeABI = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "uint256", "name": "salt", "type": "uint256"},
					{"internalType": "address", "name": "maker", "type": "address"},
					{"internalType": "address", "name": "signer", "type": "address"},
					{"internalType": "address", "name": "taker", "type": "address"},
					{"internalType": "uint256", "name": "tokenId", "type": "uint256"},
					{"internalType": "uint256", "name": "makerAmount", "type": "uint256"},
					{"internalType": "uint256", "name": "takerAmount", "type": "uint256"},
					{"internalType": "uint256", "name": "expiration", "type": "uint256"},
					{"internalType": "uint256", "name": "nonce", "type": "uint256"},
					{"internalType": "uint256", "name": "feeRateBps", "type": "uint256"},
					{"internalType": "uint8", "name": "side", "type": "uint8"},
					{"internalType": "uint8", "name": "signatureType", "type": "uint8"},
					{"internalType": "bytes", "name": "signature", "type": "bytes"}
				],
				"internalType": "struct Order",
				"name": "order",
				"type": "tuple"
			},
			{"internalType": "uint256", "name": "fillAmount", "type": "uint256"}
		],
		"name": "fillOrder",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// ConditionalTokensABI covers winnings redemption on the Gnosis
// Conditional Tokens Framework contract.
const ConditionalTokensABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "collateralToken", "type": "address"},
			{"internalType": "bytes32", "name": "parentCollectionId", "type": "bytes32"},
			{"internalType": "bytes32", "name": "conditionId", "type": "bytes32"},
			{"internalType": "uint256[]", "name": "indexSets", "type": "uint256[]"}
		],
		"name": "redeemPositions",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// exchangeOrder mirrors the Order tuple of fillOrder. Field names must
// match the ABI component names for go-ethereum to pack them.
type exchangeOrder struct {
	Salt          *big.Int
	Maker         common.Address
	Signer        common.Address
	Taker         common.Address
	TokenId       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          uint8
	SignatureType uint8
	Signature     []byte
}
