package enrichment

// Content categories derived from detected objects.
const (
	CategoryPromotional    = "promotional"
	CategoryProductDisplay = "product_display"
	CategoryLifestyle      = "lifestyle"
	CategoryOther          = "other"
)

var productClasses = map[string]struct{}{
	"bottle":    {},
	"cup":       {},
	"container": {},
}

// Classify derives the content category from the set of detected class
// names. The rule is deterministic and independent of detection order:
// person + product is promotional, product alone is a product display,
// person alone is lifestyle, anything else is other.
func Classify(classes []string) string {
	hasPerson := false
	hasProduct := false
	for _, class := range classes {
		if class == "person" {
			hasPerson = true
		}
		if _, ok := productClasses[class]; ok {
			hasProduct = true
		}
	}

	switch {
	case hasPerson && hasProduct:
		return CategoryPromotional
	case hasProduct:
		return CategoryProductDisplay
	case hasPerson:
		return CategoryLifestyle
	default:
		return CategoryOther
	}
}
