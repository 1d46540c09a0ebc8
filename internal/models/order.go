package models

import "time"

// BoxPackage is a subscription box tier sold on the order page.
type BoxPackage struct {
	Name     string  `json:"name"`
	Price    int64   `json:"price"`
	PriceUSD float64 `json:"price_usd"`
}

// BoxPackages is the fixed tier catalog.
var BoxPackages = map[string]BoxPackage{
	"StudyLite": {Name: "StudyLite", Price: 10000, PriceUSD: 8},
	"StudyPro":  {Name: "StudyPro", Price: 15000, PriceUSD: 11},
}

// BoxOrder is a persisted subscription box order.
type BoxOrder struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Address   string    `json:"address" db:"address"`
	Packages  string    `json:"packages" db:"packages"`
	Total     int64     `json:"total" db:"total"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
