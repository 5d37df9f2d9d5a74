package model

// ProductStockRow is one line of the stock report: where every unit of a
// product currently sits.
type ProductStockRow struct {
	ProductID    string `json:"product_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Size         string `json:"size"`
	FactoryStock int    `json:"factory_stock"`
	StoreStock   int    `json:"store_stock"`
	InTransit    int    `json:"in_transit"`
	Damaged      int    `json:"damaged"`
}

// StockReportResponse aggregates factory, store and in-transit quantities
// across all products.
type StockReportResponse struct {
	Products          []ProductStockRow `json:"products"`
	TotalFactoryStock int               `json:"total_factory_stock"`
	TotalStoreStock   int               `json:"total_store_stock"`
	TotalInTransit    int               `json:"total_in_transit"`
}

// ConservationRow checks, for one product, that every produced unit is
// accounted for: factory + stores + in-transit + damaged + net sold
// (sold minus customer returns) must equal total produced.
type ConservationRow struct {
	ProductID     string `json:"product_id"`
	SKU           string `json:"sku"`
	TotalProduced int    `json:"total_produced"`
	FactoryStock  int    `json:"factory_stock"`
	StoreStock    int    `json:"store_stock"`
	InTransit     int    `json:"in_transit"`
	Damaged       int    `json:"damaged"`
	NetSold       int    `json:"net_sold"`
	Balanced      bool   `json:"balanced"`
}

// ConservationReportResponse is the full conservation audit.
type ConservationReportResponse struct {
	Products    []ConservationRow `json:"products"`
	AllBalanced bool              `json:"all_balanced"`
}
