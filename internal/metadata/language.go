package metadata

import "strings"

// LangUnknown is the ISO-639 code used for language names the site
// displays that we cannot map.
const LangUnknown = "und"

// Display-language names as antikvarium.hu prints them, mapped to
// ISO-639-1 codes.
var languageCodes = map[string]string{
	"magyar":          "hu",
	"angol":           "en",
	"amerikai":        "en",
	"amerikai angol":  "en",
	"német":      "de",
	"francia":         "fr",
	"olasz":           "it",
	"spanyol":         "es",
	"orosz":           "ru",
	"török": "tr",
	"görög": "gr",
	"kínai":      "cn",
}

// LanguageCode translates one of the site's display-language names to an
// ISO-639-1 code. Unrecognized names translate to LangUnknown rather
// than failing.
func LanguageCode(display string) string {
	display = strings.ToLower(strings.TrimSpace(display))
	if code, ok := languageCodes[display]; ok {
		return code
	}
	return LangUnknown
}
