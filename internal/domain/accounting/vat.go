package accounting

import "github.com/shopspring/decimal"

// VatClass is the VAT classification of a sale line.
type VatClass string

const (
	// VatHigh is the 25% domestic rate.
	VatHigh VatClass = "HIGH"
	// VatNone is the domestic exempt rate.
	VatNone VatClass = "NONE"
	// VatOutside marks sales outside the VAT area (export/foreign).
	VatOutside VatClass = "OUTSIDE"
)

// Ledger accounts for sales income.
const (
	// AccountSalesTaxable - Salgsinntekt, avgiftspliktig
	AccountSalesTaxable = "3000"
	// AccountSalesExempt - Salgsinntekt, avgiftsfri (innenfor avgiftsområdet)
	AccountSalesExempt = "3100"
	// AccountSalesExport - Salgsinntekt, utenfor avgiftsområdet (eksport)
	AccountSalesExport = "3200"
)

// vatRate is the domestic high VAT rate.
var vatRate = decimal.New(25, -2)

// LineTreatment is the VAT classification outcome for one sale line.
type LineTreatment struct {
	VatType    VatClass
	Account    string
	IncludeVat bool
}

// ClassifyLine maps (domestic, taxable) onto the ledger account and VAT
// class for a line. The four cases are exhaustive: a foreign line is always
// outside the VAT scope regardless of its taxable flag, and only domestic
// taxable lines carry an explicit VAT amount.
func ClassifyLine(domestic, taxable bool) LineTreatment {
	switch {
	case domestic && taxable:
		return LineTreatment{VatType: VatHigh, Account: AccountSalesTaxable, IncludeVat: true}
	case domestic && !taxable:
		return LineTreatment{VatType: VatNone, Account: AccountSalesExempt, IncludeVat: false}
	default:
		return LineTreatment{VatType: VatOutside, Account: AccountSalesExport, IncludeVat: false}
	}
}

// VatAmount computes the VAT in minor units on a net base-currency amount.
func VatAmount(netBaseMinor int64) int64 {
	return decimal.NewFromInt(netBaseMinor).Mul(vatRate).Round(0).IntPart()
}
