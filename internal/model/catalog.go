package model

// Deal types
const (
	DealTypeObsolescence = "Obsolescence"
	DealTypeVolumeUplift = "Volume Uplift"
	DealTypeRetention    = "Retention"
	DealTypeAvailability = "Availability"
	DealTypeEDLP         = "EDLP"
	DealTypePricing      = "Pricing"
	DealTypeOther        = "Other"
)

// Catalog lists the option sets offered by the request form.
type Catalog struct {
	DealTypes     []string `json:"deal_types"`
	ClassesTrade  []string `json:"classes_of_trade"`
	Materials     []string `json:"materials"`
	SearchOutlets []string `json:"search_outlets"`
	SalesAreas    []string `json:"sales_areas"`
	Brands        []string `json:"brands"`
	BrandFamilies []string `json:"brand_families"`
}

var DefaultCatalog = Catalog{
	DealTypes: []string{
		DealTypeObsolescence,
		DealTypeVolumeUplift,
		DealTypeRetention,
		DealTypeAvailability,
		DealTypeEDLP,
		DealTypePricing,
		DealTypeOther,
	},
	ClassesTrade: []string{
		"CLASSIC TAVERN",
		"WS MAIN MARKET LARGE",
		"CS TAKE AWAY",
		"SS SPECIALITY LIQUOR",
		"SS LOCAL NEIGHBOURHD",
	},
	Materials: []string{
		"ZA_000000000000092052",
		"ZA_000000000000093940",
		"ZA_000000000000094762",
		"ZA_000000000000094505",
		"ZA_000000000000094523",
		"ZA_000000000000094045",
		"ZA_000000000000094182",
		"ZA_000000000000094334",
		"ZA_000000000000094435",
		"ZA_000000000000094070",
		"ZA_000000000000085021",
	},
	SearchOutlets: []string{
		"ZA_0000303394",
		"ZA_0000307961",
		"ZA_0000308329",
		"ZA_0000308540",
		"ZA_0000308564",
		"ZA_0000308719",
		"ZA_0000309391",
		"ZA_0000309432",
	},
	SalesAreas: []string{
		"POLOKWANE SOUTH",
		"POLOKWANE EAST",
		"ISANDO NORTH",
		"POLOKWANE WEST",
		"TZANEEN",
		"TSHWANE URBAN IN HOME",
		"MSUNDUZI EAST",
		"MAFIKENG HYBRID WEST",
		"DWARSLOOP",
		"POLOKWANE CENTRAL",
		"KIMBERLEY HYBRID",
	},
	Brands: []string{
		"CORONA 355 NRB",
		"BLACK CROWN GIN AND TONIC 440 CAN",
		"STELLA ARTOIS 620 NRB",
		"BRUTAL FRUIT STRAWBERRY ROUGE 500 CAN",
		"BRUTAL FRUIT LITCHI SECHE 500 CAN",
		"BRUTAL FRUIT RUBY APPLE 500 CAN",
		"CARLING BLACK LABEL 750 RB",
		"CASTLE DOUBLE MALT 660 RB",
		"BRUTAL FRUIT RUBY APPLE 620 NRB",
		"CASTLE LITE 500 CAN",
	},
	BrandFamilies: []string{
		"CORONA",
		"BLACK CROWN",
		"STELLA ARTOIS",
		"BRUTAL FRUIT",
		"CARLING BLACK LABEL",
		"CASTLE DOUBLE MALT",
		"FLYING FISH",
	},
}

// IsDealType reports whether v is a catalogued deal type.
func (c Catalog) IsDealType(v string) bool { return contains(c.DealTypes, v) }

// IsClassOfTrade reports whether v is a catalogued class of trade.
func (c Catalog) IsClassOfTrade(v string) bool { return contains(c.ClassesTrade, v) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
