package poker

import (
	"fmt"
	"math/bits"
)

// HandRank is the strength of a five-card poker hand. Lower values are
// stronger; equal values are exact ties and split the pot. The full space is
// the 7462 distinct five-card hand classes, ordered by category and then by
// standard kicker comparison inside the category.
type HandRank uint16

// HandType enumerates hand categories from weakest to strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// Class sizes for each category.
const (
	straightFlushCount = 10
	fourOfAKindCount   = 13 * 12
	fullHouseCount     = 13 * 12
	flushCount         = 1277
	straightCount      = 10
	threeOfAKindCount  = 13 * 66
	twoPairCount       = 78 * 11
	onePairCount       = 13 * 220
	highCardCount      = 1277
)

// Rank bases: straight flushes occupy [0,10), quads [10,166), and so on down
// to high cards ending at 7462.
const (
	baseStraightFlush = 0
	baseFourOfAKind   = baseStraightFlush + straightFlushCount
	baseFullHouse     = baseFourOfAKind + fourOfAKindCount
	baseFlush         = baseFullHouse + fullHouseCount
	baseStraight      = baseFlush + flushCount
	baseThreeOfAKind  = baseStraight + straightCount
	baseTwoPair       = baseThreeOfAKind + threeOfAKindCount
	baseOnePair       = baseTwoPair + twoPairCount
	baseHighCard      = baseOnePair + onePairCount

	rankClassCount = baseHighCard + highCardCount
)

// Type returns the hand's category.
func (hr HandRank) Type() HandType {
	switch {
	case hr < baseFourOfAKind:
		return StraightFlush
	case hr < baseFullHouse:
		return FourOfAKind
	case hr < baseFlush:
		return FullHouse
	case hr < baseStraight:
		return Flush
	case hr < baseThreeOfAKind:
		return Straight
	case hr < baseTwoPair:
		return ThreeOfAKind
	case hr < baseOnePair:
		return TwoPair
	case hr < baseHighCard:
		return Pair
	default:
		return HighCard
	}
}

// String returns the category name, e.g. "Two Pair".
func (hr HandRank) String() string {
	return hr.Type().String()
}

// String returns the category name.
func (ht HandType) String() string {
	switch ht {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// CompareHands returns 1 when a beats b, -1 when b beats a, and 0 on a tie.
func CompareHands(a, b HandRank) int {
	switch {
	case a < b:
		return 1
	case a > b:
		return -1
	default:
		return 0
	}
}

// Evaluate returns the rank of the best five-card hand available in cards.
// Five to seven distinct cards are accepted.
func Evaluate(cards ...Card) (HandRank, error) {
	hand := NewHand(cards...)
	n := hand.CountCards()
	if n != len(cards) {
		return 0, fmt.Errorf("poker: duplicate card in %v", cards)
	}
	if n < 5 || n > 7 {
		return 0, fmt.Errorf("poker: evaluate needs 5 to 7 cards, got %d", n)
	}
	return rankHand(hand), nil
}

// Evaluate7 ranks a seven-card hand. This is the per-showdown hot path; the
// caller guarantees the hand holds exactly seven cards.
func Evaluate7(hand Hand) HandRank {
	return rankHand(hand)
}

// rankHand computes the best five-card rank from the hand's suit masks. It
// works for any hand of five or more cards.
func rankHand(hand Hand) HandRank {
	var suitMasks [4]uint16
	var rankMask uint16
	for suit := uint8(0); suit < 4; suit++ {
		mask := hand.GetSuitMask(suit)
		suitMasks[suit] = mask
		rankMask |= mask
	}

	// Flushes first: at most one suit can hold five of seven cards.
	for _, suitMask := range suitMasks {
		if bits.OnesCount16(suitMask) < 5 {
			continue
		}
		if high := bestStraightHigh(suitMask); high > 0 {
			return HandRank(baseStraightFlush + straightDetail(high))
		}
		top5 := topKickers(suitMask, nil, 5)
		return HandRank(baseFlush + flushDetail(top5))
	}

	s0, s1, s2, s3 := suitMasks[0], suitMasks[1], suitMasks[2], suitMasks[3]
	quadsMask := s0 & s1 & s2 & s3
	tripCandidates := (s0 & s1 & s2) | (s0 & s1 & s3) | (s0 & s2 & s3) | (s1 & s2 & s3)
	tripsMask := tripCandidates &^ quadsMask
	pairsMask := ((s0 & s1) | (s0 & s2) | (s0 & s3) | (s1 & s2) | (s1 & s3) | (s2 & s3)) &^ tripCandidates

	if quad := highestRank(quadsMask); quad >= 0 {
		quadRank := uint8(quad)
		kicker := topKickers(rankMask, []uint8{quadRank}, 1)[0]
		detail := uint16(quadRank)*12 + uint16(ordinalWithout(kicker, []uint8{quadRank}))
		return HandRank(baseFourOfAKind + (fourOfAKindCount - 1 - detail))
	}

	if trip := highestRank(tripsMask); trip >= 0 {
		tripRank := uint8(trip)
		// A second set of trips fills in as the pair of a full house.
		pairCandidates := pairsMask | (tripsMask &^ (1 << uint(trip)))
		if pair := highestRank(pairCandidates); pair >= 0 {
			detail := uint16(tripRank)*12 + uint16(ordinalWithout(uint8(pair), []uint8{tripRank}))
			return HandRank(baseFullHouse + (fullHouseCount - 1 - detail))
		}
	}

	if high := bestStraightHigh(rankMask); high > 0 {
		return HandRank(baseStraight + straightDetail(high))
	}

	if trip := highestRank(tripsMask); trip >= 0 {
		tripRank := uint8(trip)
		kickers := topKickers(rankMask, []uint8{tripRank}, 2)
		detail := uint16(tripRank)*66 + colex12of2[ordinalMask(kickers, []uint8{tripRank})]
		return HandRank(baseThreeOfAKind + (threeOfAKindCount - 1 - detail))
	}

	if p1 := highestRank(pairsMask); p1 >= 0 {
		highPair := uint8(p1)
		if p2 := highestRank(pairsMask &^ (1 << uint(p1))); p2 >= 0 {
			lowPair := uint8(p2)
			pairIdx := colex13of2[(uint16(1)<<highPair)|(uint16(1)<<lowPair)]
			kicker := topKickers(rankMask, []uint8{highPair, lowPair}, 1)[0]
			detail := pairIdx*11 + uint16(ordinalWithout(kicker, []uint8{highPair, lowPair}))
			return HandRank(baseTwoPair + (twoPairCount - 1 - detail))
		}
		kickers := topKickers(rankMask, []uint8{highPair}, 3)
		detail := uint16(highPair)*220 + colex12of3[ordinalMask(kickers, []uint8{highPair})]
		return HandRank(baseOnePair + (onePairCount - 1 - detail))
	}

	top5 := topKickers(rankMask, nil, 5)
	return HandRank(baseHighCard + flushDetail(top5))
}

// flushDetail converts five distinct ranks (no straight present) into the
// 0-based detail offset shared by the flush and high-card categories, where
// detail 0 is the strongest non-straight combination (A K Q J 9).
func flushDetail(ranks []uint8) uint16 {
	idx := colex13of5[rankSetMask(ranks)]
	return uint16(flushCount-1) - skipStraights(idx)
}

// straightDetail maps a straight's high rank to its detail offset: ace high
// is 0 (strongest), the wheel is 9 (weakest).
func straightDetail(high uint8) uint16 {
	if high == Five {
		return straightCount - 1
	}
	return uint16(Ace - high)
}

// bestStraightHigh returns the high rank of the best straight in the rank
// mask, or 0 when there is none. The wheel (A-2-3-4-5) reports Five, which
// orders it below the six-high straight.
func bestStraightHigh(mask uint16) uint8 {
	const wheel = 0x100F // ace plus 2-3-4-5
	mask &= 0x1FFF

	// Five consecutive set bits survive four shifted ANDs.
	run := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if run != 0 {
		return uint8(bits.Len16(run)-1) + 4
	}
	if mask&wheel == wheel {
		return Five
	}
	return 0
}

// highestRank returns the highest set rank in the mask, or -1 when empty.
func highestRank(mask uint16) int {
	if mask == 0 {
		return -1
	}
	return bits.Len16(mask) - 1
}

// topKickers returns the n highest ranks in mask, descending, excluding the
// used ranks.
func topKickers(mask uint16, used []uint8, n int) []uint8 {
	available := mask
	for _, r := range used {
		available &^= 1 << uint(r)
	}
	kickers := make([]uint8, 0, n)
	for len(kickers) < n && available != 0 {
		top := uint8(bits.Len16(available) - 1)
		kickers = append(kickers, top)
		available &^= 1 << uint(top)
	}
	return kickers
}

// ordinalWithout compresses a rank into the 0-based ordinal among the ranks
// remaining after removing the excluded ones.
func ordinalWithout(rank uint8, excluded []uint8) uint8 {
	ord := rank
	for _, ex := range excluded {
		if ex < rank {
			ord--
		}
	}
	return ord
}

// ordinalMask builds a bitmask of the ranks' ordinals after excluding ranks.
func ordinalMask(ranks []uint8, excluded []uint8) uint16 {
	var mask uint16
	for _, r := range ranks {
		mask |= 1 << uint(ordinalWithout(r, excluded))
	}
	return mask
}

func rankSetMask(ranks []uint8) uint16 {
	var mask uint16
	for _, r := range ranks {
		mask |= 1 << uint(r)
	}
	return mask
}

// The colex tables index rank subsets in colexicographic order: sets compare
// by their highest differing rank, which is exactly how poker orders kickers.
// A larger colex index is always the stronger kicker set.

func buildColex(totalRanks, pick int) []uint16 {
	table := make([]uint16, 1<<uint(totalRanks))
	combo := make([]int, pick)
	var idx uint16
	var walk func(level, limit int)
	walk = func(level, limit int) {
		if level < 0 {
			var mask uint16
			for _, r := range combo {
				mask |= 1 << uint(r)
			}
			table[mask] = idx
			idx++
			return
		}
		// The highest remaining rank drives colex order, so it advances last.
		for r := level; r < limit; r++ {
			combo[level] = r
			walk(level-1, r)
		}
	}
	walk(pick-1, totalRanks)
	return table
}

var (
	colex13of5 = buildColex(13, 5)
	colex13of2 = buildColex(13, 2)
	colex12of2 = buildColex(12, 2)
	colex12of3 = buildColex(12, 3)
)

// straightColexIndices holds the colex indices of the ten straight rank sets,
// ascending, so flush and high-card details can skip over them.
var straightColexIndices = func() [10]uint16 {
	var arr [10]uint16
	arr[0] = colex13of5[0x100F] // wheel
	for i := 1; i < 10; i++ {
		high := 4 + i - 1
		var mask uint16
		for r := high - 4; r <= high; r++ {
			mask |= 1 << uint(r)
		}
		arr[i] = colex13of5[mask]
	}
	// Insertion sort; ten elements.
	for i := 1; i < len(arr); i++ {
		v := arr[i]
		j := i - 1
		for j >= 0 && arr[j] > v {
			arr[j+1] = arr[j]
			j--
		}
		arr[j+1] = v
	}
	return arr
}()

// skipStraights compacts a colex index over all C(13,5) rank sets into the
// 1277-entry space that excludes the ten straights. The caller guarantees
// idx itself is not a straight.
func skipStraights(idx uint16) uint16 {
	var below uint16
	for _, s := range straightColexIndices {
		if idx > s {
			below++
		} else {
			break
		}
	}
	return idx - below
}
