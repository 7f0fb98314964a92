// Package categorization assigns income categories to records. A local
// keyword engine handles the common cases instantly; an optional Gemini
// collaborator picks up whatever the engine cannot place.
package categorization

// The closed set of income categories. Suggestions outside this set are
// discarded.
const (
	CategorySubscription = "Subscription"
	CategoryFreelance    = "Freelance"
	CategoryConsulting   = "Consulting"
	CategoryProductSales = "Product Sales"
	CategoryAffiliate    = "Affiliate"
	CategorySponsorship  = "Sponsorship"
	CategoryDonations    = "Donations"
	CategoryRefund       = "Refund"
	CategoryOther        = "Other"
)

// Categories lists every valid category, Other last.
var Categories = []string{
	CategorySubscription,
	CategoryFreelance,
	CategoryConsulting,
	CategoryProductSales,
	CategoryAffiliate,
	CategorySponsorship,
	CategoryDonations,
	CategoryRefund,
	CategoryOther,
}

// IsValidCategory reports whether name is in the closed category set.
func IsValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// keywordRules seeds the matching engine. Patterns are matched
// case-insensitively against record descriptions and source names.
var keywordRules = []Rule{
	{Pattern: "patreon", Category: CategorySubscription},
	{Pattern: "membership", Category: CategorySubscription},
	{Pattern: "subscription", Category: CategorySubscription},
	{Pattern: "pledge", Category: CategorySubscription},
	{Pattern: "tier", Category: CategorySubscription},
	{Pattern: "substack", Category: CategorySubscription},
	{Pattern: "recurring", Category: CategorySubscription},

	{Pattern: "upwork", Category: CategoryFreelance},
	{Pattern: "fiverr", Category: CategoryFreelance},
	{Pattern: "freelance", Category: CategoryFreelance},
	{Pattern: "gig", Category: CategoryFreelance},
	{Pattern: "contract work", Category: CategoryFreelance},

	{Pattern: "consulting", Category: CategoryConsulting},
	{Pattern: "consultation", Category: CategoryConsulting},
	{Pattern: "advisory", Category: CategoryConsulting},
	{Pattern: "retainer", Category: CategoryConsulting},

	{Pattern: "gumroad", Category: CategoryProductSales},
	{Pattern: "ebook", Category: CategoryProductSales},
	{Pattern: "course", Category: CategoryProductSales},
	{Pattern: "template", Category: CategoryProductSales},
	{Pattern: "license", Category: CategoryProductSales},
	{Pattern: "order", Category: CategoryProductSales},
	{Pattern: "sale", Category: CategoryProductSales},

	{Pattern: "affiliate", Category: CategoryAffiliate},
	{Pattern: "commission", Category: CategoryAffiliate},
	{Pattern: "referral", Category: CategoryAffiliate},

	{Pattern: "sponsor", Category: CategorySponsorship},
	{Pattern: "sponsorship", Category: CategorySponsorship},
	{Pattern: "brand deal", Category: CategorySponsorship},
	{Pattern: "advertisement", Category: CategorySponsorship},

	{Pattern: "donation", Category: CategoryDonations},
	{Pattern: "ko-fi", Category: CategoryDonations},
	{Pattern: "kofi", Category: CategoryDonations},
	{Pattern: "buy me a coffee", Category: CategoryDonations},
	{Pattern: "tip", Category: CategoryDonations},

	{Pattern: "refund", Category: CategoryRefund},
	{Pattern: "chargeback", Category: CategoryRefund},
	{Pattern: "reversal", Category: CategoryRefund},
}
