package utils

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/asaskevich/govalidator"
	"github.com/shopspring/decimal"
)

var rpcURLSchemes = []string{"http", "https", "ws", "wss"}

// ValidateAmount checks that the amount is a strictly positive decimal number.
func ValidateAmount(amount string) error {
	if amount == "" {
		return fmt.Errorf("amount cannot be empty")
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("the provided amount is not a valid number")
	}

	if !value.IsPositive() {
		return fmt.Errorf("the provided amount must be greater than zero")
	}

	return nil
}

// ValidateRPCURL checks that the url is a valid JSON-RPC endpoint url, served over http(s) or ws(s).
func ValidateRPCURL(rpcURL string) error {
	if rpcURL == "" {
		return fmt.Errorf("rpc url cannot be empty")
	}

	if !govalidator.IsURL(rpcURL) {
		return fmt.Errorf("invalid rpc url %q", rpcURL)
	}

	u, err := url.ParseRequestURI(rpcURL)
	if err != nil {
		return fmt.Errorf("parsing rpc url: %w", err)
	}

	if !slices.Contains(rpcURLSchemes, u.Scheme) {
		return fmt.Errorf("invalid rpc url scheme %q, expected one of %v", u.Scheme, rpcURLSchemes)
	}

	return nil
}
