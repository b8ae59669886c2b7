package intake

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formcheck/pkg/rules"
)

// Step names accepted by StepKeys.
const (
	StepBusiness  = "business"
	StepLocations = "locations"
	StepContacts  = "contacts"
)

// ErrUnknownStep reports a step name StepKeys does not know.
var ErrUnknownStep = errors.New("intake: unknown step")

const (
	individualOnly = `businessInformation.businessType == "U" && businessInformation.clientType == "I"`
	notIndividual  = `businessInformation.clientType != "I"`
	registered     = `businessInformation.businessType == "R"`

	canadian      = `location.addresses.*.country == "CA"`
	american      = `location.addresses.*.country == "US"`
	international = `location.addresses.*.country != "CA" && location.addresses.*.country != "US"`
)

// Keys of the business information step.
var (
	KeyClientType           = "businessInformation.clientType"
	KeyBusinessType         = "businessInformation.businessType"
	KeyBusinessName         = "businessInformation.businessName(" + notIndividual + ")"
	KeyFirstName            = "businessInformation.firstName(" + individualOnly + ")"
	KeyLastName             = "businessInformation.lastName(" + individualOnly + ")"
	KeyBirthdate            = "businessInformation.birthdate(" + individualOnly + ")"
	KeyRegistrationNumber   = "businessInformation.registrationNumber(" + registered + ")"
	KeyClientIdentification = "businessInformation.clientIdentification"
	KeyEmail                = "businessInformation.email"
	KeyPhoneNumber          = "businessInformation.phoneNumber"
)

// Keys of the locations step.
var (
	KeyLocationName          = "location.addresses.*.locationName"
	KeyStreetAddress         = "location.addresses.*.streetAddress"
	KeyCity                  = "location.addresses.*.city"
	KeyCountry               = "location.addresses.*.country"
	KeyProvince              = "location.addresses.*.province(" + canadian + " || " + american + ")"
	KeyCanadianPostalCode    = "location.addresses.*.postalCode(" + canadian + ")"
	KeyUSZipCode             = "location.addresses.*.postalCode(" + american + ")"
	KeyInternationalPostcode = "location.addresses.*.postalCode(" + international + ")"
)

// Keys of the contacts step.
var (
	KeyContactFirstName     = "location.contacts.*.firstName"
	KeyContactLastName      = "location.contacts.*.lastName"
	KeyContactEmail         = "location.contacts.*.email"
	KeyContactPhoneNumber   = "location.contacts.*.phoneNumber"
	KeyContactType          = "location.contacts.*.contactType"
	KeyContactLocationNames = "location.contacts.*.locationNames.*.text"
)

// BirthdateLayout is the date format used by the birthdate field.
const BirthdateLayout = "2006-01-02"

// MinimumAge is the youngest an individual client can be, in years.
const MinimumAge = 19

// RuleSet registers the client intake rules.
func RuleSet() rules.RuleSet {
	return func(r *rules.Registry) {
		businessRules(r)
		locationRules(r)
		contactRules(r)
	}
}

func businessRules(r *rules.Registry) {
	r.Register(KeyClientType, rules.Required("You must select a client type"))
	r.Register(KeyBusinessType,
		rules.Required("You must select a business type"),
		rules.OneOf([]string{"R", "U"}, "Business type must be registered or unregistered"),
	)
	r.Register(KeyBusinessName,
		rules.Required("You must enter a business name"),
		rules.MaxLength(60, ""),
	)
	r.Register(KeyFirstName,
		rules.Required("You must enter a first name"),
		rules.MaxLength(30, ""),
		rules.NoSpecialCharacters(""),
	)
	r.Register(KeyLastName,
		rules.Required("You must enter a last name"),
		rules.MaxLength(30, ""),
		rules.NoSpecialCharacters(""),
	)
	r.Register(KeyBirthdate,
		rules.Required("You must enter a date of birth"),
		rules.Date(BirthdateLayout, ""),
		rules.MinYearsAgo(MinimumAge, nil, fmt.Sprintf("The client must be at least %d years old", MinimumAge)),
	)
	r.Register(KeyRegistrationNumber,
		rules.Required("You must enter a registration number"),
		rules.Pattern(`^[A-Za-z]{1,3}[0-9]{5,7}$`, "Registration numbers are 1 to 3 letters followed by 5 to 7 digits"),
	)
	r.Register(KeyClientIdentification, rules.Alphanumeric(""), rules.MaxLength(20, ""))
	r.Register(KeyEmail, rules.Email(""), rules.MaxLength(100, ""))
	r.Register(KeyPhoneNumber, rules.Phone(""))
}

func locationRules(r *rules.Registry) {
	r.Register(KeyLocationName,
		rules.Required("You must enter a name for this location"),
		rules.MaxLength(40, ""),
	)
	r.Register(KeyStreetAddress,
		rules.Required("You must enter a street address"),
		rules.MaxLength(40, ""),
	)
	r.Register(KeyCity,
		rules.Required("You must enter a city"),
		rules.MaxLength(30, ""),
	)
	r.Register(KeyCountry, rules.Required("You must select a country"))
	r.Register(KeyProvince, rules.Required("You must select a province or state"))
	r.Register(KeyCanadianPostalCode,
		rules.Required("You must enter a postal code"),
		rules.CanadianPostalCode(""),
	)
	r.Register(KeyUSZipCode,
		rules.Required("You must enter a ZIP code"),
		rules.USZipCode(""),
	)
	r.Register(KeyInternationalPostcode, rules.MaxLength(10, ""))
}

func contactRules(r *rules.Registry) {
	r.Register(KeyContactFirstName,
		rules.Required("You must enter a first name"),
		rules.MaxLength(25, ""),
	)
	r.Register(KeyContactLastName,
		rules.Required("You must enter a last name"),
		rules.MaxLength(25, ""),
	)
	r.Register(KeyContactEmail,
		rules.Required("You must enter an email address"),
		rules.Email(""),
	)
	r.Register(KeyContactPhoneNumber,
		rules.Required("You must enter a phone number"),
		rules.Phone(""),
	)
	r.Register(KeyContactType, rules.Required("You must select a contact type"))
	// An empty locationNames list still yields one blank leaf, so this also
	// rejects contacts with no location.
	r.Register(KeyContactLocationNames, rules.Required("You must select at least one location"))
}

// StepKeys returns the keys validated by a wizard step, in display order.
func StepKeys(step string) ([]string, error) {
	switch step {
	case StepBusiness:
		return []string{
			KeyClientType, KeyBusinessType, KeyBusinessName,
			KeyFirstName, KeyLastName, KeyBirthdate,
			KeyRegistrationNumber, KeyClientIdentification, KeyEmail, KeyPhoneNumber,
		}, nil
	case StepLocations:
		return []string{
			KeyLocationName, KeyStreetAddress, KeyCity, KeyCountry, KeyProvince,
			KeyCanadianPostalCode, KeyUSZipCode, KeyInternationalPostcode,
		}, nil
	case StepContacts:
		return []string{
			KeyContactFirstName, KeyContactLastName, KeyContactEmail,
			KeyContactPhoneNumber, KeyContactType, KeyContactLocationNames,
		}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownStep, step)
	}
}

// Steps lists the wizard steps in order.
func Steps() []string {
	return []string{StepBusiness, StepLocations, StepContacts}
}

// AllKeys returns the keys of every step, in step order.
func AllKeys() []string {
	var out []string
	for _, step := range Steps() {
		keys, _ := StepKeys(step)
		out = append(out, keys...)
	}
	return out
}
