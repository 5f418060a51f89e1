package seed

// Product is one entry of the default menu.
type Product struct {
	Name          string
	Price         string
	Category      string
	Active        bool
	QuickSaleRank int32
}

// DefaultCategories is inserted when the categories table is empty.
var DefaultCategories = []string{
	"Soğuk İçecekler", "Frappe", "Tatlılar", "Sıcak Kahveler",
	"Soğuk Kahveler", "Diğer", "Sıcak İçecekler",
	"Milk Shake Çeşitleri", "Diğer Kahveler",
}

// DefaultProducts is inserted when the products table is empty.
var DefaultProducts = []Product{
	{"Espresso", "110.00", "Sıcak Kahveler", true, 1},
	{"Doppio", "120.00", "Sıcak Kahveler", true, 2},
	{"Espresso Mocchiato", "90.00", "Sıcak Kahveler", true, 3},
	{"Americano", "90.00", "Sıcak Kahveler", true, 4},
	{"Cappucino", "110.00", "Sıcak Kahveler", true, 5},
	{"Latte", "90.00", "Sıcak Kahveler", true, 6},
	{"Flat White", "90.00", "Sıcak Kahveler", true, 7},
	{"Cortado", "90.00", "Sıcak Kahveler", true, 8},
	{"Mocha", "110.00", "Sıcak Kahveler", true, 9},
	{"Caramel Mocchiato", "110.00", "Sıcak Kahveler", true, 10},
	{"White Mocha", "110.00", "Sıcak Kahveler", true, 11},
	{"Tuffee Nut Latte", "90.00", "Sıcak Kahveler", true, 12},
	{"Filtre Kahve", "90.00", "Sıcak Kahveler", true, 13},
	{"Filtre Kahve Sütlü", "90.00", "Sıcak Kahveler", true, 14},
	{"Sıcak Çikolata", "100.00", "Sıcak İçecekler", true, 15},
	{"Ice Latte", "90.00", "Soğuk Kahveler", true, 16},
	{"Ice Latte Costom", "90.00", "Soğuk Kahveler", true, 17},
	{"Ice Mocha", "90.00", "Soğuk Kahveler", true, 18},
	{"Ice Americano", "90.00", "Soğuk Kahveler", true, 19},
	{"Ice White Mocca", "90.00", "Soğuk Kahveler", true, 20},
	{"Ice Filtre Kahve", "90.00", "Soğuk Kahveler", true, 21},
	{"Ice Karamel Mocha", "110.00", "Soğuk Kahveler", true, 22},
	{"Ice Tuffee Nut Latte", "100.00", "Soğuk Kahveler", true, 23},
	{"Cool Lime", "120.00", "Milk Shake Çeşitleri", true, 24},
	{"Limonata", "120.00", "Milk Shake Çeşitleri", true, 25},
	{"Karadut Suyu", "120.00", "Milk Shake Çeşitleri", true, 26},
	{"Çilekli Milk Shake", "120.00", "Milk Shake Çeşitleri", true, 27},
	{"Kırmızı Orman Milk Shake", "120.00", "Milk Shake Çeşitleri", true, 28},
	{"Böğürtlen Milk Shake", "120.00", "Milk Shake Çeşitleri", true, 29},
	{"Kara Orman Milk Shake", "120.00", "Milk Shake Çeşitleri", true, 30},
	{"Oreolu Frappe", "130.00", "Frappe", true, 31},
	{"Çikolatalı Frappe", "130.00", "Frappe", true, 32},
	{"Vanilyalı Frappe", "130.00", "Frappe", true, 33},
	{"Karamelli Frappe", "130.00", "Frappe", true, 34},
	{"Çilekli Smoothie", "130.00", "Frappe", true, 35},
	{"Muzlu Smoothie", "130.00", "Frappe", true, 36},
	{"Coca Kola", "60.00", "Soğuk İçecekler", true, 37},
	{"Fanta", "60.00", "Soğuk İçecekler", true, 38},
	{"Sprite", "60.00", "Soğuk İçecekler", true, 39},
	{"İce Tea Çeşitleri", "60.00", "Soğuk İçecekler", true, 40},
	{"Soda Sade", "40.00", "Soğuk İçecekler", true, 41},
	{"Meyveli Soda", "30.00", "Soğuk İçecekler", true, 42},
	{"Su", "30.00", "Soğuk İçecekler", true, 43},
	{"Churchill", "60.00", "Soğuk İçecekler", true, 44},
	{"Türk Kahvesi", "80.00", "Diğer Kahveler", true, 45},
	{"Menengiç Kahvesi", "80.00", "Diğer Kahveler", true, 46},
	{"Dibek Kahvesi", "80.00", "Diğer Kahveler", true, 47},
	{"Detox Kahve", "80.00", "Diğer Kahveler", true, 48},
	{"Çay", "30.00", "Sıcak İçecekler", true, 49},
	{"Ihlamur", "40.00", "Sıcak İçecekler", true, 50},
	{"Yeşilçay", "40.00", "Sıcak İçecekler", true, 51},
	{"Hibiskus", "40.00", "Sıcak İçecekler", true, 52},
	{"Adaçayı", "40.00", "Sıcak İçecekler", true, 53},
	{"San Sebastian", "80.00", "Tatlılar", true, 54},
	{"Yaban Mersinli Cheesecake", "60.00", "Tatlılar", true, 55},
	{"Farmbuazlı Cheesecake", "60.00", "Tatlılar", true, 56},
	{"Strawberry Roll Cake", "60.00", "Tatlılar", true, 57},
	{"Marlenka", "60.00", "Tatlılar", true, 58},
	{"Mangolia Çilek – Lotus – Oreo", "60.00", "Tatlılar", true, 59},
	{"Alman Pastası", "60.00", "Tatlılar", true, 60},
	{"Tramisu", "60.00", "Tatlılar", true, 61},
	{"Berliner", "60.00", "Tatlılar", true, 62},
	{"Kruvasan", "60.00", "Tatlılar", true, 63},
	{"Eski Ürün (Pasif)", "1.00", "Diğer", false, 0},
}
