// Package payment builds x402 payment-requirements objects (C2), decodes
// client-supplied payment payloads, and shapes settlement receipts.
package payment

import (
	"github.com/jhaveripatric/x402-agent-gateway/internal/catalog"
	"github.com/jhaveripatric/x402-agent-gateway/internal/money"
)

// Requirements is the canonical x402 payment-requirements object for a
// priced skill, listing one Accept entry per enabled network.
type Requirements struct {
	Version     string     `json:"version"`
	Accepts     []Accept   `json:"accepts"`
	Resource    string     `json:"resource"`
	Description string     `json:"description,omitempty"`
	Facilitator string     `json:"facilitator,omitempty"`
	Extensions  Extensions `json:"extensions"`
}

// Accept is one network's entry in a Requirements.Accepts list.
type Accept struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	Price             string `json:"price,omitempty"`
	Asset             string `json:"asset"`
	PayTo             string `json:"payTo"`
	MaxAmountRequired string `json:"maxAmountRequired"`
	MaxTimeoutSeconds int    `json:"maxTimeoutSeconds"`
	Gasless           bool   `json:"gasless,omitempty"`
}

// Extensions is the fixed descriptor of protocol extensions this gateway
// supports, echoed on every Requirements object.
type Extensions struct {
	SessionAuth       ExtensionDescriptor `json:"sessionAuth"`
	IdempotentPayment ExtensionDescriptor `json:"idempotentPayment"`
}

// ExtensionDescriptor names and versions a single declared extension.
type ExtensionDescriptor struct {
	URI     string `json:"uri"`
	Version string `json:"version"`
}

const (
	schemeExact             = "exact"
	maxTimeoutSeconds       = 600
	extensionSessionAuthURI = "https://x402.gateway/extensions/session-auth/v1"
	extensionIdempotentURI  = "https://x402.gateway/extensions/idempotent-payment/v1"
)

var fixedExtensions = Extensions{
	SessionAuth:       ExtensionDescriptor{URI: extensionSessionAuthURI, Version: "1.0"},
	IdempotentPayment: ExtensionDescriptor{URI: extensionIdempotentURI, Version: "1.0"},
}

// Build produces the payment-requirements object for a priced skill.
// Build returns (nil, false) for a free skill; callers take the
// free-execution path in that case (§4.2).
func Build(s catalog.Skill) (*Requirements, bool) {
	if !s.RequiresPayment() {
		return nil, false
	}

	accepts := make([]Accept, 0, len(catalog.Networks))
	for _, n := range catalog.Networks {
		accept := Accept{
			Scheme:            schemeExact,
			Network:           n.CAIP2ID,
			Price:             money.Dollars(s.PriceSmallestUnit, n.Decimals),
			Asset:             n.AssetAddress,
			PayTo:             n.PayeeAddress,
			MaxAmountRequired: money.SmallestUnits(s.PriceSmallestUnit),
			MaxTimeoutSeconds: maxTimeoutSeconds,
		}
		if n.Gasless {
			accept.Gasless = true
		}
		accepts = append(accepts, accept)
	}

	return &Requirements{
		Version:     "2.0",
		Accepts:     accepts,
		Resource:    "/" + s.ID,
		Description: s.Description,
		Facilitator: "in-process",
		Extensions:  fixedExtensions,
	}, true
}
