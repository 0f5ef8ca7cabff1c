package rank

const (
	CategorySafetyAlert       = "Safety Alert"
	CategoryEnforcementAction = "Enforcement Action"
	CategoryRegulatoryUpdate  = "Regulatory Update"
	CategoryTechnicalUpdate   = "Technical Update"
	CategoryDriverWellness    = "Driver Wellness"
	CategoryIndustryNews      = "Industry News"
)

// CategoryRule is one keyword list scored by Categorize.
type CategoryRule struct {
	Name     string
	Keywords []string
}

// Tables is the static configuration behind categorization, ranking and
// segment tagging.
type Tables struct {
	Categories      []CategoryRule
	Fallback        string
	Priorities      map[string]int
	DefaultPriority int
	PriorityWeight  float64
	RelevanceWeight float64
	ProKeywords     []string
	DriverKeywords  []string
	SegmentMargin   int
}

// DefaultTables returns a fresh copy of the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Categories: []CategoryRule{
			{Name: CategorySafetyAlert, Keywords: []string{
				"safety alert", "recall", "crash", "collision", "rollover", "fatal",
				"hazard", "warning", "incident", "emergency", "injur",
			}},
			{Name: CategoryEnforcementAction, Keywords: []string{
				"enforcement", "prosecution", "prosecuted", "fined", "penalty", "court",
				"convicted", "blitz", "infringement", "charged", "defect notice", "intercept",
			}},
			{Name: CategoryRegulatoryUpdate, Keywords: []string{
				"regulation", "regulatory", "hvnl", "heavy vehicle national law", "amendment",
				"reform", "consultation", "legislation", "exemption", "gazette", "review",
			}},
			{Name: CategoryTechnicalUpdate, Keywords: []string{
				"technology", "telematics", "electronic work diary", "software", "speed limiter",
				"emissions", "electric", "hydrogen", "engine", "vehicle standards", "braking system",
			}},
			{Name: CategoryDriverWellness, Keywords: []string{
				"wellbeing", "wellness", "health", "sleep", "stress", "fitness",
				"diet", "rest area", "loneliness", "fatigue management",
			}},
		},
		Fallback: CategoryIndustryNews,
		Priorities: map[string]int{
			CategorySafetyAlert:       100,
			CategoryDriverWellness:    95,
			CategoryEnforcementAction: 90,
			CategoryRegulatoryUpdate:  80,
			CategoryTechnicalUpdate:   70,
			CategoryIndustryNews:      60,
		},
		DefaultPriority: 50,
		PriorityWeight:  0.7,
		RelevanceWeight: 0.3,
		ProKeywords: []string{
			"compliance", "enforcement", "legal", "audit", "penalty", "court", "regulation",
			"nhvr", "accreditation", "prosecution", "fine", "chain of responsibility", "cor", "hvnl",
		},
		DriverKeywords: []string{
			"safety", "driver", "fatigue", "maintenance", "inspection", "tips", "practical",
			"vehicle check", "roadworthy", "brake", "tyre",
		},
		SegmentMargin: 1,
	}
}
