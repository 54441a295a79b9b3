package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Channel identifies one of the two independent stock pools of a product.
type Channel string

const (
	ChannelVente       Channel = "vente"
	ChannelUtilisation Channel = "utilisation"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelVente || c == ChannelUtilisation
}

// StockLevel is the quantity of one channel with its alert and critical thresholds.
type StockLevel struct {
	Quantity int `json:"quantity"`
	Alert    int `json:"alert"`
	Critical int `json:"critical"`
}

// Product mirrors the backend product record. The backend owns it; the terminal only reads it.
type Product struct {
	ID                       int64            `json:"id"`
	Name                     string           `json:"name"`
	Brand                    string           `json:"brand,omitempty"`
	StockVente               int              `json:"stock_vente"`
	StockUtilisation         int              `json:"stock_utilisation"`
	SeuilAlerteVente         int              `json:"seuil_alerte_vente"`
	SeuilCritiqueVente       int              `json:"seuil_critique_vente"`
	SeuilAlerteUtilisation   int              `json:"seuil_alerte_utilisation"`
	SeuilCritiqueUtilisation int              `json:"seuil_critique_utilisation"`
	PurchasePrice            decimal.Decimal  `json:"purchase_price"`
	SalePrice                decimal.Decimal  `json:"sale_price"`
	PromoPrice               *decimal.Decimal `json:"promo_price,omitempty"`
	PromoStart               *time.Time       `json:"promo_start,omitempty"`
	PromoEnd                 *time.Time       `json:"promo_end,omitempty"`
}

// Level returns the stock level of the requested channel.
func (p Product) Level(channel Channel) StockLevel {
	if channel == ChannelUtilisation {
		return StockLevel{
			Quantity: p.StockUtilisation,
			Alert:    p.SeuilAlerteUtilisation,
			Critical: p.SeuilCritiqueUtilisation,
		}
	}
	return StockLevel{
		Quantity: p.StockVente,
		Alert:    p.SeuilAlerteVente,
		Critical: p.SeuilCritiqueVente,
	}
}

// EffectivePrice returns the promotional price when one is set and now falls inside
// its validity window (bounds inclusive, open ends allowed), else the sale price.
func (p Product) EffectivePrice(now time.Time) decimal.Decimal {
	if p.PromoPrice == nil {
		return p.SalePrice
	}
	if p.PromoStart != nil && now.Before(*p.PromoStart) {
		return p.SalePrice
	}
	if p.PromoEnd != nil && now.After(*p.PromoEnd) {
		return p.SalePrice
	}
	return *p.PromoPrice
}

// ProductPage is one page of the backend product listing.
type ProductPage struct {
	Items      []Product `json:"data"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	Total      int       `json:"total"`
}
