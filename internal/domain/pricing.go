package domain

// PriceBreakdown captures every line of a resolved configuration price. All
// component values carry paise precision; FinalPrice is rounded once to whole
// rupees at the end of resolution.
type PriceBreakdown struct {
	MetalType          MetalType
	Purity             string
	Size               string
	DiamondQuality     string
	TotalMetalValue    float64
	MetalBreakdown     []MetalValueLine
	DiamondValue       float64
	GemstoneValue      float64
	MakingChargeAmount float64
	WastageAmount      float64
	StoneSetting       float64
	DesignCharges      float64
	Discount           float64
	Subtotal           float64
	JewelryTax         float64
	LabourTax          float64
	FinalPrice         int64
	Static             bool
}

// MetalValueLine records one metal component's contribution for auditability.
type MetalValueLine struct {
	Type      MetalType
	Purity    string
	Fixed     bool
	NetWeight float64
	Rate      float64
	Value     float64
}

// PriceRange is the displayed "from ₹X" band plus the default-configuration price.
type PriceRange struct {
	MinPrice     int64
	MaxPrice     int64
	DefaultPrice int64
}

// clarityBuckets reduces exact clarity grades to coarse pricing buckets.
var clarityBuckets = map[string]string{
	"FL": "IF", "IF": "IF",
	"VVS1": "VVS", "VVS2": "VVS",
	"VS1": "VS", "VS2": "VS",
	"SI1": "SI", "SI2": "SI",
	"I1": "SI", "I2": "SI", "I3": "SI",
}

// colorBuckets reduces exact color grades to coarse pricing buckets.
var colorBuckets = map[string]string{
	"D": "DEF", "E": "DEF", "F": "DEF",
	"G": "GH", "H": "GH",
	"I": "IJ", "J": "IJ", "K": "IJ", "L": "IJ", "M": "IJ",
}

// DefaultDiamondQuality is used when neither the request nor the variant names one.
const DefaultDiamondQuality = "SI_IJ"

// DiamondQualityBucket reduces a clarity and color grade pair to a rate-table
// key such as "SI_GH". Inputs already in bucket form pass through unchanged.
func DiamondQualityBucket(clarity, color string) string {
	c, ok := clarityBuckets[clarity]
	if !ok {
		c = clarity
	}
	col, ok := colorBuckets[color]
	if !ok {
		col = color
	}
	if c == "" || col == "" {
		return DefaultDiamondQuality
	}
	return c + "_" + col
}
