package form

// Category maps one issue category code to the two discovery fields that
// carry it in the form document.
type Category struct {
	Code      string
	FlagField string
	ListField string
}

// Categories is the fixed discovery vocabulary in document order. The
// taxonomy seed uses the same order for display_order.
var Categories = []Category{
	{Code: "vermin", FlagField: "VerminIssues", ListField: "Vermin"},
	{Code: "insects", FlagField: "InsectIssues", ListField: "Insects"},
	{Code: "hvac", FlagField: "HVACIssues", ListField: "HVAC"},
	{Code: "electrical", FlagField: "ElectricalIssues", ListField: "Electrical"},
	{Code: "fire_hazard", FlagField: "FireHazardIssues", ListField: "Fire Hazard"},
	{Code: "government", FlagField: "GovernmentEntitiesContacted", ListField: "Specific Government Entity Contacted"},
	{Code: "appliances", FlagField: "ApplianceIssues", ListField: "Appliances"},
	{Code: "plumbing", FlagField: "PlumbingIssues", ListField: "Plumbing"},
	{Code: "cabinets", FlagField: "CabinetIssues", ListField: "Cabinets"},
	{Code: "flooring", FlagField: "FlooringIssues", ListField: "Flooring"},
	{Code: "windows", FlagField: "WindowIssues", ListField: "Windows"},
	{Code: "doors", FlagField: "DoorIssues", ListField: "Doors"},
	{Code: "structure", FlagField: "StructureIssues", ListField: "Structure"},
	{Code: "common_areas", FlagField: "CommonAreaIssues", ListField: "Common areas"},
	{Code: "trash", FlagField: "TrashProblems", ListField: "Trash Problems"},
	{Code: "nuisance", FlagField: "NuisanceIssues", ListField: "Nuisance"},
	{Code: "health_hazard", FlagField: "HealthHazardIssues", ListField: "Health hazard"},
	{Code: "safety", FlagField: "SafetyIssues", ListField: "Safety"},
	{Code: "notices", FlagField: "NoticesIssues", ListField: "Notices"},
}

var categoryByCode = func() map[string]Category {
	m := make(map[string]Category, len(Categories))
	for _, c := range Categories {
		m[c.Code] = c
	}
	return m
}()

// LookupCategory returns the field mapping for a category code.
func LookupCategory(code string) (Category, bool) {
	c, ok := categoryByCode[code]
	return c, ok
}
