package subscription

// FeatureKey names a boolean capability in the restriction table.
type FeatureKey string

const (
	FeatureCustomName     FeatureKey = "custom_name"
	FeatureLogoUpload     FeatureKey = "logo_upload"
	FeatureColorTheme     FeatureKey = "color_theme"
	FeatureLeadCapture    FeatureKey = "lead_capture"
	FeatureRemoveBranding FeatureKey = "remove_branding"
)

// LimitKey names a numeric quota in the restriction table.
type LimitKey string

const (
	LimitKnowledgeUploads     LimitKey = "knowledge_uploads"
	LimitKnowledgeWords       LimitKey = "knowledge_words"
	LimitMonthlyConversations LimitKey = "monthly_conversations"
)

// Restrictions describes what a tier may do. MonthlyConversationCap is nil
// for unlimited.
type Restrictions struct {
	CustomName     bool
	LogoUpload     bool
	ColorTheme     bool
	LeadCapture    bool
	RemoveBranding bool

	MaxKnowledgeUploads    int
	MaxKnowledgeWords      int
	MonthlyConversationCap *int
}

func convCap(n int) *int { return &n }

// restrictionTable is the static, total tier mapping. Every tier has an
// entry; GetRestrictions falls back to the free row for unknown input.
var restrictionTable = map[Tier]Restrictions{
	TierFree: {
		MaxKnowledgeUploads:    1,
		MaxKnowledgeWords:      1_000,
		MonthlyConversationCap: convCap(50),
	},
	TierBasic: {
		CustomName:             true,
		LeadCapture:            true,
		MaxKnowledgeUploads:    3,
		MaxKnowledgeWords:      10_000,
		MonthlyConversationCap: convCap(1_000),
	},
	TierPro: {
		CustomName:             true,
		LogoUpload:             true,
		ColorTheme:             true,
		LeadCapture:            true,
		MaxKnowledgeUploads:    10,
		MaxKnowledgeWords:      50_000,
		MonthlyConversationCap: convCap(5_000),
	},
	TierUltra: {
		CustomName:          true,
		LogoUpload:          true,
		ColorTheme:          true,
		LeadCapture:         true,
		RemoveBranding:      true,
		MaxKnowledgeUploads: 50,
		MaxKnowledgeWords:   200_000,
		// Unlimited conversations.
	},
}

// GetRestrictions returns the restriction row for tier. Unknown tiers get
// the free row so enforcement fails safe.
func GetRestrictions(tier Tier) Restrictions {
	if r, ok := restrictionTable[tier]; ok {
		return r
	}
	return restrictionTable[TierFree]
}

// CanAccessFeature reports whether tier has the named capability. Limit
// keys answer "is the quota nonzero".
func CanAccessFeature(tier Tier, key FeatureKey) bool {
	r := GetRestrictions(tier)
	switch key {
	case FeatureCustomName:
		return r.CustomName
	case FeatureLogoUpload:
		return r.LogoUpload
	case FeatureColorTheme:
		return r.ColorTheme
	case FeatureLeadCapture:
		return r.LeadCapture
	case FeatureRemoveBranding:
		return r.RemoveBranding
	}
	return false
}

// HasReachedLimit reports whether current usage meets or exceeds the
// tier's quota for key. A nil cap is unlimited and is never reached.
func HasReachedLimit(tier Tier, key LimitKey, current int) bool {
	r := GetRestrictions(tier)
	switch key {
	case LimitKnowledgeUploads:
		return current >= r.MaxKnowledgeUploads
	case LimitKnowledgeWords:
		return current >= r.MaxKnowledgeWords
	case LimitMonthlyConversations:
		if r.MonthlyConversationCap == nil {
			return false
		}
		return current >= *r.MonthlyConversationCap
	}
	return false
}
