package models

const (
	TableSales   = "sales"
	TablePricing = "pricing"
	TableRepo    = "repo"
)

// sales feed
const (
	ColSaleDay             = "Sale Day"
	ColSaleFacility        = "Sale Facility"
	ColArmaID              = "Mph Arma ID"
	ColCustomerType        = "Customer Type"
	ColDrugID              = "Vdl Drug ID"
	ColDrugDisplayName     = "Vdl Drug Display Name"
	ColSaleItemPrice       = "Sale Item Selling Price Local"
	ColProductSource       = "Product Source"
	ColIsManual            = "Is Manual"
	ColPosUnitPrice        = "Unit Selling Price Local"
	ColPosQuantity         = "Quantity In Units"
	ColPosUnitCost         = "Unit Vm I Cost Price Local"
	ColPosCostOfSale       = "Sale Item Vm I Cost Price Local"
	ColPosMargin           = "Sale Item Vm I Margin Local"
	ProductSourceFormulary = "formulary"
)

// price list
const (
	ColPricingDrugName  = "mPharma Drug Name"
	ColPricingDrugID    = "Drug ID.1"
	ColPricingPackSize  = "Pack Size"
	ColPricingUnitCost  = "Approved Selling Price (Mar 2023) Unit"
	ColPricingMuttiUnit = "QRx Mutti Unit Price"
	ColPricingTheaUnit  = "QRx Thea Unit Price"
	PricingIDPrefix     = "NG-"
)

// repo (remap) feed
const (
	ColRepoProductName = "Product Name"
	ColRepoOld         = "Old"
	ColRepoNew         = "New"
)

// ledger output
const (
	ColLedgerProductID    = "Product ID"
	ColLedgerNewUnitPrice = "New Unit Selling Price"
	ColLedgerQuantity     = "Quantity in Units"
	ColLedgerUnitCost     = "Unit VMI Cost Price"
	ColLedgerCostOfSale   = "VMI Cost of Sales"
	ColLedgerMargin       = "Margin"
	ColLedgerTypeOfSale   = "Type of Sale"
	ColLedgerTax          = "Tax"
	ColLedgerIsMuttiSale  = "Is Mutti Sale"
	ColRejectReason       = "Reject Reason"
)

var SalesRequiredColumns = []string{
	ColSaleDay, ColSaleFacility, ColArmaID, ColCustomerType, ColDrugID, ColDrugDisplayName,
	ColSaleItemPrice, ColProductSource, ColIsManual, ColPosUnitPrice, ColPosQuantity,
	ColPosUnitCost, ColPosCostOfSale, ColPosMargin,
}

var PricingRequiredColumns = []string{
	ColPricingDrugName, ColPricingDrugID, ColPricingPackSize, ColPricingUnitCost,
	ColPricingMuttiUnit, ColPricingTheaUnit,
}

var RepoRequiredColumns = []string{ColRepoProductName, ColRepoOld, ColRepoNew}

// LedgerColumns is the output column order.
var LedgerColumns = []string{
	ColSaleDay, ColSaleFacility, ColArmaID, ColLedgerProductID, ColDrugDisplayName,
	ColLedgerNewUnitPrice, ColLedgerQuantity, ColSaleItemPrice, ColLedgerUnitCost,
	ColLedgerCostOfSale, ColLedgerMargin, ColLedgerTypeOfSale, ColLedgerTax, ColLedgerIsMuttiSale,
}

// LedgerNumericColumns are written as numbers by the typed writers (xlsx, sqlite).
var LedgerNumericColumns = map[string]bool{
	ColLedgerNewUnitPrice: true,
	ColLedgerQuantity:     true,
	ColSaleItemPrice:      true,
	ColLedgerUnitCost:     true,
	ColLedgerCostOfSale:   true,
	ColLedgerMargin:       true,
}

// RejectColumns is the layout of the rejected-rows side output.
var RejectColumns = append(append([]string{}, LedgerColumns...), ColRejectReason)
