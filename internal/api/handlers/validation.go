package handlers

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/rail-service/bridge_service/pkg/caip"
)

var registerOnce sync.Once

// RegisterValidators adds the bridge specific tags to gin's validator
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("chainid", validateChainID)
		_ = v.RegisterValidation("token_address", validateTokenAddress)
	})
}

// validateChainID accepts decimal, hex and CAIP-2 chain ids. Empty values are
// left to the required tag.
func validateChainID(fl validator.FieldLevel) bool {
	id := strings.TrimSpace(fl.Field().String())
	if id == "" {
		return true
	}
	return strings.Contains(caip.FormatChainIDToCaip(id), ":")
}

// validateTokenAddress accepts EVM addresses, Solana public keys and CAIP-19 asset ids
func validateTokenAddress(fl validator.FieldLevel) bool {
	addr := strings.TrimSpace(fl.Field().String())
	if addr == "" {
		return true
	}
	if caip.IsValidEVMAddress(addr) || caip.IsValidSolanaAddress(addr) {
		return true
	}
	_, err := caip.ParseAssetID(addr)
	return err == nil
}
