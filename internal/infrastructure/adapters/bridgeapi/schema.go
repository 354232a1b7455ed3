package bridgeapi

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/rail-service/bridge_service/internal/domain/entities"
	"github.com/rail-service/bridge_service/pkg/caip"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const assetSchemaURL = "https://schemas.bridge-service.local/asset.json"

const assetSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["assetId", "chainId", "symbol", "decimals"],
  "properties": {
    "address":  {"type": "string"},
    "assetId":  {"type": "string", "minLength": 1},
    "chainId":  {"type": ["string", "integer"]},
    "symbol":   {"type": "string", "minLength": 1},
    "name":     {"type": "string"},
    "decimals": {"type": "integer", "minimum": 0, "maximum": 36},
    "iconUrl":  {"type": ["string", "null"]}
  }
}`

var assetValidator = mustCompile(assetSchemaURL, assetSchema)

func mustCompile(url, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return c.MustCompile(url)
}

// ValidateAssets keeps the entries that match the asset schema and normalizes
// them. Invalid entries are dropped individually.
func ValidateAssets(entries []jsoniter.RawMessage, logger *zap.Logger) []entities.Asset {
	assets := make([]entities.Asset, 0, len(entries))
	dropped := 0
	for _, raw := range entries {
		asset, ok := validateAsset(raw)
		if !ok {
			dropped++
			continue
		}
		assets = append(assets, asset)
	}
	if dropped > 0 && logger != nil {
		logger.Debug("Dropped invalid assets from bridge API response",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(assets)))
	}
	return assets
}

func validateAsset(raw jsoniter.RawMessage) (entities.Asset, bool) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return entities.Asset{}, false
	}
	if err := assetValidator.Validate(doc); err != nil {
		return entities.Asset{}, false
	}

	var asset entities.Asset
	if err := json.Unmarshal(raw, &asset); err != nil {
		return entities.Asset{}, false
	}
	return normalizeAsset(asset), true
}

func normalizeAsset(a entities.Asset) entities.Asset {
	a.ChainID = entities.ChainID(caip.FormatChainIDToCaip(a.ChainID.String()))
	if a.Address == "" {
		if addr, err := caip.AddressFromAssetID(a.AssetID); err == nil {
			a.Address = addr
		}
	}
	if a.Address == "" && caip.IsEVMChainID(a.ChainID.String()) {
		a.Address = caip.ZeroAddress
	}
	if a.IconURL == "" {
		a.IconURL = a.LogoURI
	}
	return a
}
