package lang

import "golang.org/x/text/language"

// regionByBase maps a base language to the DuckDuckGo region code used for
// the kl parameter.
var regionByBase = map[string]string{
	"en": "us-en",
	"es": "es-es",
	"fr": "fr-fr",
	"de": "de-de",
	"it": "it-it",
	"pt": "pt-pt",
	"zh": "cn-zh",
	"ja": "jp-ja",
	"ko": "kr-ko",
}

// Region converts a BCP-47 language hint (e.g. "en", "fi", "pt-BR") into a
// search region code. Unknown or empty hints map to the worldwide region.
func Region(hint string) string {
	if hint == "" {
		return "wt-wt"
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return "wt-wt"
	}
	base, _ := tag.Base()
	if region, ok := regionByBase[base.String()]; ok {
		return region
	}
	return "wt-wt"
}
