package model

import "strings"

// Artisan registration field names.
const (
	FieldFirstName         = "first_name"
	FieldLastName          = "last_name"
	FieldDateOfBirth       = "date_of_birth"
	FieldGender            = "gender"
	FieldBusinessName      = "business_name"
	FieldBusinessType      = "business_type"
	FieldYearsOfExperience = "years_of_experience"
	FieldSpecialties       = "specialties"
	FieldDescription       = "description"
	FieldAddress           = "address"
	FieldState             = "state"
	FieldZipCode           = "zip_code"
	FieldCountry           = "country"
	FieldWebsite           = "website"
	FieldInstagram         = "instagram"
	FieldFacebook          = "facebook"
	FieldTwitter           = "twitter"
	FieldLanguages         = "languages"
	FieldAvailability      = "availability"
	FieldPricingRange      = "pricing_range"
	FieldAgreeToTerms      = "agree_to_terms"
	FieldAgreeToMarketing  = "agree_to_marketing"
)

var (
	BusinessTypes = []string{
		"Carpenter", "Electrician", "Plumber", "Painter", "Welder", "Mason",
		"Roofer", "Flooring Specialist", "HVAC Technician", "Landscaper",
		"Interior Designer", "Jewelry Maker", "Potter", "Blacksmith",
		"Woodworker", "Other",
	}
	Specialties = []string{
		"Residential", "Commercial", "Industrial", "Restoration", "Custom Work",
		"Emergency Services", "Green Building", "Historic Preservation",
		"Modern Design", "Traditional Craft",
	}
	Languages = []string{
		"English", "Spanish", "French", "German", "Italian", "Portuguese",
		"Chinese", "Japanese", "Arabic", "Other",
	}
	Availabilities = []string{
		"full-time", "part-time", "weekends-only", "evenings-only", "on-demand",
	}
	Genders = []string{"male", "female", "other", "prefer-not-to-say"}
)

// ArtisanSchema is the artisan registration form. The derived name field
// is filled in by CompleteArtisan.
var ArtisanSchema = Schema{
	Name: "artisans",
	Fields: []FieldDef{
		{Name: FieldFirstName, Type: FieldTypeString, Required: true},
		{Name: FieldLastName, Type: FieldTypeString, Required: true},
		{Name: FieldName, Type: FieldTypeString},
		{Name: FieldEmail, Type: FieldTypeEmail, Required: true},
		{Name: FieldPhone, Type: FieldTypeString, Required: true},
		{Name: FieldDateOfBirth, Type: FieldTypeDate},
		{Name: FieldGender, Type: FieldTypeEnum, Values: Genders},
		{Name: FieldBusinessName, Type: FieldTypeString, Required: true},
		{Name: FieldBusinessType, Type: FieldTypeEnum, Required: true, Values: BusinessTypes},
		{Name: FieldYearsOfExperience, Type: FieldTypeInteger},
		{Name: FieldSpecialties, Type: FieldTypeEnums, Values: Specialties},
		{Name: FieldDescription, Type: FieldTypeString},
		{Name: FieldAddress, Type: FieldTypeString, Required: true},
		{Name: FieldCity, Type: FieldTypeString, Required: true},
		{Name: FieldState, Type: FieldTypeString, Required: true},
		{Name: FieldZipCode, Type: FieldTypeString, Required: true},
		{Name: FieldCountry, Type: FieldTypeString},
		{Name: FieldWebsite, Type: FieldTypeString},
		{Name: FieldInstagram, Type: FieldTypeString},
		{Name: FieldFacebook, Type: FieldTypeString},
		{Name: FieldTwitter, Type: FieldTypeString},
		{Name: FieldLanguages, Type: FieldTypeEnums, Values: Languages},
		{Name: FieldAvailability, Type: FieldTypeEnum, Values: Availabilities},
		{Name: FieldPricingRange, Type: FieldTypeString},
		{Name: FieldAgreeToTerms, Type: FieldTypeBoolean, Required: true},
		{Name: FieldAgreeToMarketing, Type: FieldTypeBoolean},
	},
}

// CompleteArtisan derives the display name from the first and last name so
// registrations list and filter like any other record.
func CompleteArtisan(d Draft) {
	if strings.TrimSpace(d[FieldName]) != "" {
		return
	}
	name := strings.TrimSpace(strings.TrimSpace(d[FieldFirstName]) + " " + strings.TrimSpace(d[FieldLastName]))
	if name != "" {
		d[FieldName] = name
	}
}
