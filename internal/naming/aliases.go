package naming

import (
	"fmt"
	"strings"
)

// curated holds hand-picked alternate spellings for names whose colloquial
// form cannot be derived from the canonical one.
var curated = map[string][]string{
	"nidoran-f": {"nidoran♀", "nidoran female", "nidoranf", "nidoran f"},
	"nidoran-m": {"nidoran♂", "nidoran male", "nidoranm", "nidoran m"},
	"mr-mime":   {"mr. mime", "mr mime", "mrmime"},
	"farfetchd": {"farfetch'd", "farfetch d"},
	"ho-oh":     {"hooh", "ho oh"},
	"porygon-z": {"porygonz", "porygon z"},
	"mime-jr":   {"mime jr.", "mime jr", "mimejr"},
	"type-null": {"type: null", "type null", "typenull"},
	"jangmo-o":  {"jangmoo", "jangmo o"},
	"hakamo-o":  {"hakamoo", "hakamo o"},
	"kommo-o":   {"kommoo", "kommo o"},
}

func init() {
	if err := validateCurated(curated); err != nil {
		panic(err)
	}
}

func validateCurated(table map[string][]string) error {
	for name, alts := range table {
		if name == "" || name != strings.ToLower(name) {
			return fmt.Errorf("alias table: bad canonical name %q", name)
		}
		if len(alts) == 0 {
			return fmt.Errorf("alias table: %q has no alternates", name)
		}
		for _, alt := range alts {
			if strings.TrimSpace(alt) == "" {
				return fmt.Errorf("alias table: %q has an empty alternate", name)
			}
		}
	}
	return nil
}

// Variations lists every accepted spelling for canonical, the name itself first.
func Variations(canonical string) []string {
	out := []string{canonical}

	if parts := strings.Split(canonical, "-"); len(parts) >= 2 {
		out = append(out,
			strings.Join(parts, ""),
			strings.Join(parts, " "),
			parts[0],
		)
	}

	if alts, ok := curated[canonical]; ok {
		out = append(out, alts...)
	}
	return out
}
