package sr

// Field positions in FD_GROUP.txt.
const (
	GroupCode = iota
	GroupDescription

	// GroupFieldCount is the number of fields in a food group record.
	GroupFieldCount
)

// Field positions in FOOD_DES.txt.
const (
	FoodNDBNo = iota
	FoodGroupCode
	FoodLongDescription
	FoodShortDescription
	FoodCommonName
	FoodManufacturerName
	FoodSurvey
	FoodRefuseDescription
	FoodRefuse
	FoodScientificName
	FoodNitrogenFactor
	FoodProteinFactor
	FoodFatFactor
	FoodCarbohydrateFactor

	// FoodFieldCount is the number of fields in a food description record.
	FoodFieldCount
)

// FoodGroup is a record of FD_GROUP.txt.
type FoodGroup struct {
	Line        int
	Code        string
	Description string
}

// FoodDescription is a record of FOOD_DES.txt. Nutrient conversion factors are
// not carried.
type FoodDescription struct {
	Line             int
	NDBNo            string
	GroupCode        string
	LongDescription  string
	ShortDescription string
	CommonName       string
	ManufacturerName string
}

// GroupOptions returns reader options for a food group file.
func GroupOptions(charset Charset) Options {
	return Options{MinFields: GroupFieldCount, Charset: charset}
}

// FoodOptions returns reader options for a food description file.
func FoodOptions(charset Charset) Options {
	return Options{MinFields: FoodFieldCount, Charset: charset}
}

// ParseFoodGroup maps a record read with GroupOptions to a FoodGroup.
func ParseFoodGroup(rec Record) FoodGroup {
	return FoodGroup{
		Line:        rec.Line,
		Code:        rec.Fields[GroupCode],
		Description: rec.Fields[GroupDescription],
	}
}

// ParseFoodDescription maps a record read with FoodOptions to a FoodDescription.
func ParseFoodDescription(rec Record) FoodDescription {
	return FoodDescription{
		Line:             rec.Line,
		NDBNo:            rec.Fields[FoodNDBNo],
		GroupCode:        rec.Fields[FoodGroupCode],
		LongDescription:  rec.Fields[FoodLongDescription],
		ShortDescription: rec.Fields[FoodShortDescription],
		CommonName:       rec.Fields[FoodCommonName],
		ManufacturerName: rec.Fields[FoodManufacturerName],
	}
}
