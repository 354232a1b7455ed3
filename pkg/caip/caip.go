// Package caip normalizes chain and asset identifiers between the numeric,
// hex and CAIP-2/CAIP-19 forms used by wallets and the bridge API.
package caip

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"
)

const (
	NamespaceEIP155 = "eip155"
	NamespaceSolana = "solana"

	// SolanaMainnet is the CAIP-2 id of Solana mainnet
	SolanaMainnet = "solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"
	SolanaDevnet  = "solana:EtWTRABZaYq6iMfeYKouRu166VU2xqa1"
	SolanaTestnet = "solana:4uhcVJyU9pJkvQyS88uRDiswHXSCkY3z"

	// SolanaMainnetNumeric is the numeric id the bridge API uses for Solana mainnet
	SolanaMainnetNumeric = "1151111081099710"
)

// ZeroAddress denotes the native currency of an EVM chain
var ZeroAddress = common.Address{}.Hex()

// FormatChainIDToCaip converts hex ("0x1"), decimal ("1") and bridge-numeric
// Solana ids into CAIP-2. CAIP-2 input is returned unchanged. Unparseable
// input is returned as-is so that comparisons still behave.
func FormatChainIDToCaip(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, ":") {
		return id
	}
	if id == SolanaMainnetNumeric {
		return SolanaMainnet
	}
	if n, ok := parseEVMChainID(id); ok {
		return NamespaceEIP155 + ":" + n.String()
	}
	return id
}

// FormatChainIDToHex converts an EVM chain id in any accepted form to 0x-hex
func FormatChainIDToHex(id string) (string, error) {
	caip := FormatChainIDToCaip(id)
	namespace, reference, ok := strings.Cut(caip, ":")
	if !ok || namespace != NamespaceEIP155 {
		return "", fmt.Errorf("not an EVM chain id: %q", id)
	}
	n, err := strconv.ParseUint(reference, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid EVM chain id %q: %w", id, err)
	}
	return hexutil.EncodeUint64(n), nil
}

func parseEVMChainID(id string) (*big.Int, bool) {
	n := new(big.Int)
	if strings.HasPrefix(id, "0x") || strings.HasPrefix(id, "0X") {
		if _, ok := n.SetString(id[2:], 16); !ok {
			return nil, false
		}
		return n, true
	}
	if _, ok := n.SetString(id, 10); !ok || n.Sign() < 0 {
		return nil, false
	}
	return n, true
}

// Namespace returns the CAIP-2 namespace of id, or "" when unknown
func Namespace(id string) string {
	namespace, _, ok := strings.Cut(FormatChainIDToCaip(id), ":")
	if !ok {
		return ""
	}
	return namespace
}

// IsSolanaChainID reports whether id belongs to the Solana family
func IsSolanaChainID(id string) bool {
	return Namespace(id) == NamespaceSolana
}

// IsEVMChainID reports whether id belongs to an EVM chain
func IsEVMChainID(id string) bool {
	return Namespace(id) == NamespaceEIP155
}

// SameChain compares two chain ids after CAIP normalization. Empty ids never match.
func SameChain(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return FormatChainIDToCaip(a) == FormatChainIDToCaip(b)
}

// IsSwap reports whether a request from src to dest stays on one chain
func IsSwap(src, dest string) bool {
	return SameChain(src, dest)
}

// IsToOrFromSolana reports whether either side of a request is a Solana chain
func IsToOrFromSolana(src, dest string) bool {
	return IsSolanaChainID(src) || IsSolanaChainID(dest)
}

// IsNativeAddress reports whether address denotes a chain's native currency:
// empty, the zero EVM address, or a CAIP-19 slip44 asset.
func IsNativeAddress(address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return true
	}
	if strings.Contains(address, "/slip44:") {
		return true
	}
	return strings.EqualFold(address, ZeroAddress)
}

// IsValidEVMAddress reports whether s is a 20-byte hex address
func IsValidEVMAddress(s string) bool {
	return common.IsHexAddress(s)
}

// IsValidSolanaAddress reports whether s is a base58 ed25519 public key
func IsValidSolanaAddress(s string) bool {
	if s == "" {
		return false
	}
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}

// AssetID is a parsed CAIP-19 asset identifier
type AssetID struct {
	ChainID        string
	AssetNamespace string
	AssetReference string
}

func (a AssetID) String() string {
	return a.ChainID + "/" + a.AssetNamespace + ":" + a.AssetReference
}

// ParseAssetID parses "<namespace>:<reference>/<asset_namespace>:<asset_reference>"
func ParseAssetID(s string) (AssetID, error) {
	chainPart, assetPart, ok := strings.Cut(s, "/")
	if !ok {
		return AssetID{}, fmt.Errorf("invalid CAIP-19 asset id %q", s)
	}
	if ns, ref, ok := strings.Cut(chainPart, ":"); !ok || ns == "" || ref == "" {
		return AssetID{}, fmt.Errorf("invalid CAIP-2 chain in asset id %q", s)
	}
	assetNS, assetRef, ok := strings.Cut(assetPart, ":")
	if !ok || assetNS == "" || assetRef == "" {
		return AssetID{}, fmt.Errorf("invalid asset part in asset id %q", s)
	}
	return AssetID{ChainID: chainPart, AssetNamespace: assetNS, AssetReference: assetRef}, nil
}

// AddressFromAssetID returns the token address embedded in a CAIP-19 id.
// Native assets yield the empty string.
func AddressFromAssetID(s string) (string, error) {
	id, err := ParseAssetID(s)
	if err != nil {
		return "", err
	}
	if id.AssetNamespace == "slip44" {
		return "", nil
	}
	return id.AssetReference, nil
}
