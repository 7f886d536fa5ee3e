// Package validators implements the Validator (spec.md C4): composable,
// pure, stateless rules over an Entry producing (ok, errors), plus the
// quality score formula resolved from the original implementation.
package validators

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
)

// Rule validates one aspect of an Entry, returning (ok, error message).
type Rule func(e *lexdomain.Entry) (bool, string)

func RequiredField(name string, get func(e *lexdomain.Entry) string) Rule {
	return func(e *lexdomain.Entry) (bool, string) {
		if strings.TrimSpace(get(e)) == "" {
			return false, fmt.Sprintf("%s is required", name)
		}
		return true, ""
	}
}

func MinLength(name string, get func(e *lexdomain.Entry) string, min int) Rule {
	return func(e *lexdomain.Entry) (bool, string) {
		if len(get(e)) < min {
			return false, fmt.Sprintf("%s must be at least %d characters", name, min)
		}
		return true, ""
	}
}

func MaxLength(name string, get func(e *lexdomain.Entry) string, max int) Rule {
	return func(e *lexdomain.Entry) (bool, string) {
		if len(get(e)) > max {
			return false, fmt.Sprintf("%s must be at most %d characters", name, max)
		}
		return true, ""
	}
}

var (
	ipaDigits        = regexp.MustCompile(`[0-9]`)
	ipaLengthMarkers = regexp.MustCompile(`[ːˑ̯̥̆̊]`)
)

// IPAValidator checks for emptiness, suspicious bare digits, and balanced
// brackets in an IPA transcription.
func IPAValidator() Rule {
	return func(e *lexdomain.Entry) (bool, string) {
		ipa := e.IPA
		if strings.TrimSpace(ipa) == "" {
			return false, "IPA transcription is empty"
		}
		if ipaDigits.MatchString(ipa) && !ipaLengthMarkers.MatchString(ipa) {
			return false, "IPA contains suspicious numeric characters"
		}
		if strings.Count(ipa, "[") != strings.Count(ipa, "]") {
			return false, "IPA has unbalanced brackets"
		}
		return true, ""
	}
}

// validLanguageCodes are ISO-639 codes for Indo-European languages,
// grounded on LanguageCodeValidator.valid_codes in the original source.
var validLanguageCodes = map[string]bool{
	"en": true, "de": true, "nl": true, "sv": true, "no": true, "da": true, "is": true, "fo": true,
	"fr": true, "es": true, "it": true, "pt": true, "ro": true, "ca": true, "la": true,
	"ru": true, "pl": true, "cs": true, "sk": true, "uk": true, "bg": true, "lt": true, "lv": true,
	"grc": true, "el": true,
	"sa": true, "hi": true, "ur": true, "fa": true, "ku": true, "ps": true,
	"ga": true, "cy": true, "br": true, "sga": true,
	"sq": true,
	"hy": true,
	"pie": true, "ine": true,
}

func LanguageCodeValidator() Rule {
	return func(e *lexdomain.Entry) (bool, string) {
		code := strings.ToLower(e.LanguageCode)
		if !validLanguageCodes[code] {
			return false, fmt.Sprintf("unknown or non-Indo-European language code: %s", code)
		}
		return true, ""
	}
}

// EntryValidator composes rules into a single pass/fail + error-list check.
type EntryValidator struct {
	rules []Rule
}

func NewEntryValidator(rules ...Rule) *EntryValidator {
	return &EntryValidator{rules: rules}
}

func (v *EntryValidator) Validate(e *lexdomain.Entry) (bool, []string) {
	var errs []string
	for _, rule := range v.rules {
		if ok, msg := rule(e); !ok {
			errs = append(errs, msg)
		}
	}
	return len(errs) == 0, errs
}

func (v *EntryValidator) BatchValidate(entries []*lexdomain.Entry) map[string][]string {
	results := make(map[string][]string)
	for _, e := range entries {
		if ok, errs := v.Validate(e); !ok {
			results[e.ID] = errs
		}
	}
	return results
}

func headword(e *lexdomain.Entry) string   { return e.Headword }
func ipaField(e *lexdomain.Entry) string   { return e.IPA }
func language(e *lexdomain.Entry) string   { return e.LanguageCode }
func definition(e *lexdomain.Entry) string { return e.Definition }
func etymology(e *lexdomain.Entry) string  { return e.Etymology }
func posTag(e *lexdomain.Entry) string     { return e.POSTag }

// StandardEntryValidator matches ValidatorFactory.standard_entry_validator.
func StandardEntryValidator() *EntryValidator {
	return NewEntryValidator(
		RequiredField("headword", headword),
		RequiredField("ipa", ipaField),
		RequiredField("language", language),
		RequiredField("definition", definition),
		MinLength("headword", headword, 1),
		MinLength("definition", definition, 3),
		MaxLength("headword", headword, 255),
		MaxLength("ipa", ipaField, 255),
		IPAValidator(),
		LanguageCodeValidator(),
	)
}

// StrictEntryValidator matches ValidatorFactory.strict_entry_validator.
func StrictEntryValidator() *EntryValidator {
	return NewEntryValidator(
		RequiredField("headword", headword),
		RequiredField("ipa", ipaField),
		RequiredField("language", language),
		RequiredField("definition", definition),
		RequiredField("etymology", etymology),
		RequiredField("pos_tag", posTag),
		MinLength("headword", headword, 1),
		MinLength("definition", definition, 10),
		MinLength("etymology", etymology, 5),
		MaxLength("headword", headword, 255),
		MaxLength("ipa", ipaField, 255),
		IPAValidator(),
		LanguageCodeValidator(),
	)
}

// PermissiveEntryValidator matches ValidatorFactory.permissive_entry_validator.
func PermissiveEntryValidator() *EntryValidator {
	return NewEntryValidator(
		RequiredField("headword", headword),
		RequiredField("language", language),
		MinLength("headword", headword, 1),
	)
}

// ComputeQualityScore resolves the Entry.quality formula from
// original_source/backend/storage/validators.py::compute_quality_score:
// 1.0 if valid, else 1.0 - min(0.15 * len(errors), 0.9).
func ComputeQualityScore(e *lexdomain.Entry, v *EntryValidator) float64 {
	ok, errs := v.Validate(e)
	if ok {
		return 1.0
	}
	penalty := 0.15 * float64(len(errs))
	if penalty > 0.9 {
		penalty = 0.9
	}
	score := 1.0 - penalty
	if score < 0.1 {
		// 1.0 - 0.9 rounds to just below 0.1 in float64.
		score = 0.1
	}
	return score
}
