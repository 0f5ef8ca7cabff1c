package validate

import "regexp"

// Rules is the tunable configuration of the validator. DefaultRules returns the
// production tables; tests and operators may substitute their own.
type Rules struct {
	MinTitleLength int
	MaxTitleLength int
	MinScore       int
	MaxScore       int

	AllowedDomains  []string
	Exclusions      []*regexp.Regexp
	CategoryWeights map[string]int
	KeywordWeights  map[string]int
}

func DefaultRules() Rules {
	return Rules{
		MinTitleLength: 15,
		MaxTitleLength: 200,
		MinScore:       3,
		MaxScore:       20,
		AllowedDomains: []string{
			"nhvr.gov.au",
			"ntc.gov.au",
			"infrastructure.gov.au",
			"austroads.com.au",
			"transport.nsw.gov.au",
			"safework.nsw.gov.au",
			"vicroads.vic.gov.au",
			"worksafe.vic.gov.au",
			"tmr.qld.gov.au",
			"mainroads.wa.gov.au",
			"truck.net.au",
			"natroad.com.au",
			"bigrigs.com.au",
			"fullyloaded.com.au",
			"ownerdriver.com.au",
			"atn.com.au",
			"primemovermag.com.au",
			"truckandbus.net.au",
			"diesel-news.com.au",
			"logisticsmagazine.com.au",
		},
		Exclusions: []*regexp.Regexp{
			regexp.MustCompile(`\badvertis(e|ement|ements|ing)\b`),
			regexp.MustCompile(`\bsponsored\b`),
			regexp.MustCompile(`\bclassifieds?\b`),
			regexp.MustCompile(`\bjob (vacancy|vacancies|opening)\b|\bvacanc(y|ies)\b`),
			regexp.MustCompile(`\bfor sale\b`),
		},
		CategoryWeights: map[string]int{
			"regulatory":  15,
			"enforcement": 12,
			"safety":      10,
			"technical":   8,
			"industry":    6,
		},
		KeywordWeights: map[string]int{
			"chain of responsibility":    15,
			"hvnl":                       15,
			"heavy vehicle national law": 15,
			"nhvr":                       12,
			"enforcement":                10,
			"fatigue":                    10,
			"compliance":                 10,
			"prosecution":                10,
			"work diary":                 8,
			"penalty":                    8,
			"court":                      8,
			"safety":                     8,
			"accreditation":              7,
			"audit":                      7,
			"regulation":                 7,
			"roadworthy":                 6,
			"inspection":                 6,
			"defect notice":              6,
			"heavy vehicle":              6,
			"speed limiter":              6,
			"overweight":                 6,
			"trucking":                   4,
			"truck":                      4,
			"freight":                    4,
			"transport":                  3,
			"logistics":                  3,
		},
	}
}
