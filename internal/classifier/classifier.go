package classifier

import (
	"regexp"
	"strings"

	"github.com/xaenox/vikas-bot/internal/models"
)

// Rule maps a lowercased query to an intent when Match reports true
type Rule struct {
	Name   string
	Intent models.Intent
	Match  func(query string) bool
}

// IntentClassifier walks an ordered rule list; the first match wins.
// Categories overlap ("return and compare"), so the order is the contract.
type IntentClassifier struct {
	rules []Rule
}

func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{rules: DefaultRules()}
}

// Classify returns the intent of the first matching rule, or IntentGeneral
func (c *IntentClassifier) Classify(query string) models.Intent {
	q := strings.ToLower(query)
	for _, r := range c.rules {
		if r.Match(q) {
			return r.Intent
		}
	}
	return models.IntentGeneral
}

// Rules returns a copy of the rule list in evaluation order
func (c *IntentClassifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

var (
	greetingRe = regexp.MustCompile(`^\s*(hi|hello|hey|good\s*(morning|afternoon|evening)|greetings)\b`)
	arWordRe   = regexp.MustCompile(`\bar\b`)
	vsWordRe   = regexp.MustCompile(`\bvs\b`)
)

func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "greeting",
			Intent: models.IntentGreeting,
			Match:  greetingRe.MatchString,
		},
		{
			Name:   "order_tracking",
			Intent: models.IntentOrderStatus,
			Match:  containsAny("track", "order status", "where is my order", "my orders"),
		},
		{
			Name:   "returns",
			Intent: models.IntentReturns,
			Match:  containsAny("return", "refund", "exchange"),
		},
		{
			Name:   "checkout",
			Intent: models.IntentCheckout,
			Match:  containsAny("checkout", "buy now", "place order"),
		},
		{
			Name:   "ar_vr",
			Intent: models.IntentARVR,
			Match: anyOf(
				containsAny("try on", "virtual", "3d", "view in room"),
				arWordRe.MatchString,
			),
		},
		{
			Name:   "compare",
			Intent: models.IntentCompare,
			Match: anyOf(
				containsAny("compare", "versus", "difference"),
				vsWordRe.MatchString,
			),
		},
		{
			Name:   "recommend",
			Intent: models.IntentRecommend,
			Match:  containsAny("recommend", "suggest", "similar", "like this"),
		},
		{
			Name:   "availability",
			Intent: models.IntentAvailability,
			Match: containsAny("available", "store", "near me", "offline",
				"bandra", "mumbai", "delhi", "bangalore"),
		},
		{
			Name:   "analytics",
			Intent: models.IntentAnalytics,
			Match:  containsAny("analytics", "metrics", "insights", "dashboard"),
		},
		{
			Name:   "search",
			Intent: models.IntentSearch,
			Match:  containsAny("search", "find", "looking for", "show me", "what", "which"),
		},
	}
}

func containsAny(keywords ...string) func(string) bool {
	return func(q string) bool {
		for _, k := range keywords {
			if strings.Contains(q, k) {
				return true
			}
		}
		return false
	}
}

func anyOf(preds ...func(string) bool) func(string) bool {
	return func(q string) bool {
		for _, p := range preds {
			if p(q) {
				return true
			}
		}
		return false
	}
}
