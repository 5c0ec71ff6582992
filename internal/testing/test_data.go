package testing

// TestCatalogJSON is a small menu covering coffee, drink and food categories.
const TestCatalogJSON = `{
  "RECOMMENDED": [
    {"name": "Kopi Susu Monolog", "price": 28000, "bestSeller": true, "rating": 4.8}
  ],
  "MONOLOG_SIGNATURE": [
    {"name": "Kopi Susu Monolog", "price": 28000, "description": "Espresso, fresh milk, palm sugar", "bestSeller": true, "rating": 4.8}
  ],
  "ESPRESSO_BASED": [
    {"name": "Americano", "price": 24000},
    {"name": "Cappuccino", "price": 30000}
  ],
  "YAKULT_SERIES": [
    {"name": "Mango Yakult", "price": 27000}
  ],
  "MAIN_COURSE": [
    {"name": "Nasi Goreng Monolog", "price": 45000}
  ],
  "ADD_ON": [
    {"name": "Extra Egg", "price": 6000}
  ]
}`

// Customer is a buyer with every required field filled in.
var Customer = map[string]string{
	"name":    "Sari Wulandari",
	"phone":   "081298765432",
	"address": "Jl. Senopati No. 10, Kebayoran Baru",
	"notes":   "Titip di satpam",
}

// NearbyPosition is about 1.4 km from the shop.
var NearbyPosition = map[string]float64{"lat": -6.2380, "lng": 106.8040}
