package poker

// HoleCardCategory buckets starting hands by preflop strength. The buckets
// drive bot decisions, not payouts, so coarse is fine.
type HoleCardCategory string

const (
	CategoryPremium HoleCardCategory = "Premium"
	CategoryStrong  HoleCardCategory = "Strong"
	CategoryMedium  HoleCardCategory = "Medium"
	CategoryWeak    HoleCardCategory = "Weak"
	CategoryTrash   HoleCardCategory = "Trash"
)

// CategorizeHoleCards buckets a starting hand: Premium (JJ+, AK), Strong
// (TT, AQ, AJ), Medium (77-99, suited broadway), Weak (22-66, suited
// connectors), Trash (the rest).
func CategorizeHoleCards(first, second Card) HoleCardCategory {
	low, high := first.Rank(), second.Rank()
	if low > high {
		low, high = high, low
	}
	suited := first.Suit() == second.Suit()
	paired := low == high

	switch {
	case paired && low >= Jack:
		return CategoryPremium
	case high == Ace && low == King:
		return CategoryPremium
	case paired && low == Ten:
		return CategoryStrong
	case high == Ace && low >= Jack:
		return CategoryStrong
	case paired && low >= Seven:
		return CategoryMedium
	case suited && low >= Ten:
		return CategoryMedium
	case paired:
		return CategoryWeak
	case suited && high-low <= 2:
		return CategoryWeak
	default:
		return CategoryTrash
	}
}
