package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shopsync/backend/internal/domain/storefront"
)

// BuildSale transforms a storefront order into a sales-document payload
// booked against the given counterparty. Zero-value lines are dropped;
// currency conversion and VAT classification follow the static rate table
// and the (domestic, taxable) decision table.
func BuildSale(order *storefront.Order, contactID int64) (*Sale, error) {
	domestic := order.Currency == BaseCurrency
	lines := make([]SaleLine, 0, len(order.LineItems)+len(order.ShippingLines))

	for _, item := range order.LineItems {
		unitMinor, err := ParseAmountMinor(item.Price)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", item.Title, err)
		}
		totalMinor := unitMinor * int64(item.Quantity)
		if totalMinor == 0 {
			continue
		}
		desc := fmt.Sprintf("%d x %s", item.Quantity, item.Title)
		lines = append(lines, buildLine(desc, totalMinor, order.Currency, domestic, item.Taxable))
	}

	// Shipping lines have no per-line taxable flag; taxability is inferred
	// order-wide from the tax total.
	shippingTaxed := orderHasTax(order.TotalTax)
	for _, shipping := range order.ShippingLines {
		amountMinor, err := ParseAmountMinor(shipping.Price)
		if err != nil {
			return nil, fmt.Errorf("shipping %q: %w", shipping.Title, err)
		}
		if amountMinor <= 0 {
			continue
		}
		desc := "Shipping: " + shipping.Title
		lines = append(lines, buildLine(desc, amountMinor, order.Currency, domestic, shippingTaxed))
	}

	totalPaidMinor, err := ParseAmountMinor(order.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("order total: %w", err)
	}

	return &Sale{
		Kind:                SaleKindExternalInvoice,
		Date:                order.CreatedDate(),
		CustomerID:          contactID,
		TotalPaid:           ConvertToBaseMinor(totalPaidMinor, order.Currency),
		TotalPaidInCurrency: totalPaidMinor,
		Currency:            order.Currency,
		Lines:               lines,
		Identifier:          order.Name,
	}, nil
}

func buildLine(description string, nativeMinor int64, currency string, domestic, taxable bool) SaleLine {
	baseMinor := ConvertToBaseMinor(nativeMinor, currency)
	treatment := ClassifyLine(domestic, taxable)

	line := SaleLine{
		Description:        description,
		NetPrice:           baseMinor,
		NetPriceInCurrency: nativeMinor,
		VatType:            treatment.VatType,
		Account:            treatment.Account,
	}
	if treatment.IncludeVat {
		vat := VatAmount(baseMinor)
		line.Vat = &vat
		line.VatInCurrency = &vat
	}
	return line
}

func orderHasTax(totalTax string) bool {
	d, err := decimal.NewFromString(totalTax)
	if err != nil {
		return false
	}
	return d.IsPositive()
}
