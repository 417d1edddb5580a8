package coa

import (
	"strings"

	"github.com/fieldbooks-dev/fieldbooks/internal/model"
)

// DefaultChart returns the starting chart of accounts for a farm operation.
func DefaultChart() []CreateParams {
	return []CreateParams{
		{Code: "1010", Name: "Farm Checking", Type: model.AccountTypeAsset, Subtype: "bank"},
		{Code: "1020", Name: "Farm Savings", Type: model.AccountTypeAsset, Subtype: "bank"},
		{Code: "1310", Name: "Livestock Inventory", Type: model.AccountTypeAsset, Subtype: "inventory"},
		{Code: "1320", Name: "Harvested Crop Inventory", Type: model.AccountTypeAsset, Subtype: "inventory"},
		{Code: "1510", Name: "Machinery & Equipment", Type: model.AccountTypeAsset, Subtype: "fixed_asset"},
		{Code: "2010", Name: "Farm Credit Card", Type: model.AccountTypeLiability, Subtype: "credit_card"},
		{Code: "2510", Name: "Equipment Loan", Type: model.AccountTypeLiability, Subtype: "long_term"},
		{Code: "3010", Name: "Owner's Equity", Type: model.AccountTypeEquity, Subtype: "owner_equity"},
		{Code: "4010", Name: "Crop Sales", Type: model.AccountTypeRevenue, Subtype: "sales"},
		{Code: "4020", Name: "Livestock Sales", Type: model.AccountTypeRevenue, Subtype: "sales"},
		{Code: "4030", Name: "Farmers Market Sales", Type: model.AccountTypeRevenue, Subtype: "sales"},
		{Code: "4040", Name: "Custom Work Income", Type: model.AccountTypeRevenue, Subtype: "services"},
		{Code: "5010", Name: "Seed & Plants", Type: model.AccountTypeExpense, Subtype: "cost_of_production"},
		{Code: "5020", Name: "Feed", Type: model.AccountTypeExpense, Subtype: "cost_of_production"},
		{Code: "5030", Name: "Fertilizer & Chemicals", Type: model.AccountTypeExpense, Subtype: "cost_of_production"},
		{Code: "5040", Name: "Veterinary & Breeding", Type: model.AccountTypeExpense, Subtype: "cost_of_production"},
		{Code: "6010", Name: "Fuel & Oil", Type: model.AccountTypeExpense, Subtype: "operating_expense"},
		{Code: "6020", Name: "Repairs & Maintenance", Type: model.AccountTypeExpense, Subtype: "operating_expense"},
		{Code: "6030", Name: "Utilities", Type: model.AccountTypeExpense, Subtype: "operating_expense"},
		{Code: "6040", Name: "Insurance", Type: model.AccountTypeExpense, Subtype: "operating_expense"},
	}
}

// typeHintMap is the fixed mapping from external importer type hints to
// ledger classifications. Hints arrive from the chart bootstrap interface in
// whatever vocabulary the external system uses.
var typeHintMap = map[string]struct {
	Type    model.AccountType
	Subtype string
}{
	"bank":                {model.AccountTypeAsset, "bank"},
	"cash":                {model.AccountTypeAsset, "bank"},
	"accounts receivable": {model.AccountTypeAsset, "receivable"},
	"inventory":           {model.AccountTypeAsset, "inventory"},
	"fixed asset":         {model.AccountTypeAsset, "fixed_asset"},
	"other asset":         {model.AccountTypeAsset, "other"},
	"credit card":         {model.AccountTypeLiability, "credit_card"},
	"accounts payable":    {model.AccountTypeLiability, "payable"},
	"loan":                {model.AccountTypeLiability, "long_term"},
	"other liability":     {model.AccountTypeLiability, "other"},
	"equity":              {model.AccountTypeEquity, "owner_equity"},
	"income":              {model.AccountTypeRevenue, "sales"},
	"other income":        {model.AccountTypeRevenue, "other"},
	"expense":             {model.AccountTypeExpense, "operating_expense"},
	"cost of goods sold":  {model.AccountTypeExpense, "cost_of_production"},
	"other expense":       {model.AccountTypeExpense, "other"},
}

// MapTypeHint resolves an importer type hint to a {type, subtype} pair.
// Unmapped hints land in the default expense bucket with mapped=false so the
// import can warn instead of failing the whole batch.
func MapTypeHint(hint string) (accountType model.AccountType, subtype string, mapped bool) {
	if m, ok := typeHintMap[strings.ToLower(strings.TrimSpace(hint))]; ok {
		return m.Type, m.Subtype, true
	}
	return model.AccountTypeExpense, "operating_expense", false
}
