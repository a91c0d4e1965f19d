// Package distribute plans how many questions each standard and
// difficulty tier receives in a quiz.
package distribute

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/inceptlabs/quizforge/internal/config"
)

// Tiers in fixed order.
const (
	TierEasy   = "easy"
	TierMedium = "medium"
	TierHard   = "hard"
)

// TierNames lists the tiers in canonical order.
var TierNames = []string{TierEasy, TierMedium, TierHard}

// TierCounts holds per-tier question counts for one standard.
type TierCounts struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// Count returns the count for the named tier.
func (c TierCounts) Count(tier string) int {
	switch tier {
	case TierEasy:
		return c.Easy
	case TierMedium:
		return c.Medium
	case TierHard:
		return c.Hard
	}
	return 0
}

func (c *TierCounts) add(tier string, n int) {
	switch tier {
	case TierEasy:
		c.Easy += n
	case TierMedium:
		c.Medium += n
	case TierHard:
		c.Hard += n
	}
}

// Total returns the sum across tiers.
func (c TierCounts) Total() int { return c.Easy + c.Medium + c.Hard }

// Plan is the output of Distribute: per-standard tier counts plus the
// standard order used during allocation.
type Plan struct {
	Counts    map[string]TierCounts
	Standards []string // allocation order
}

// Total returns the total number of planned questions.
func (p Plan) Total() int {
	n := 0
	for _, c := range p.Counts {
		n += c.Total()
	}
	return n
}

// Distributor plans question distributions using an injected random
// source.
type Distributor struct {
	rng *rand.Rand
	log *zap.Logger
}

// New creates a Distributor.
func New(rng *rand.Rand, log *zap.Logger) *Distributor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Distributor{rng: rng, log: log}
}

// Distribute splits numQuestions across the lesson's standards and the
// three difficulty tiers. The difficulty preset sets how many easy,
// medium, and hard questions the quiz gets; lesson standards receive
// hard questions first and earlier-curriculum standards absorb overflow.
// The returned plan always totals exactly numQuestions.
func (d *Distributor) Distribute(numQuestions, difficulty int, lessonStandards, allStandards []string) Plan {
	d.log.Info("distributing questions",
		zap.Int("num_questions", numQuestions),
		zap.Int("difficulty", difficulty),
		zap.Strings("lesson_standards", lessonStandards))

	numEasy, numMedium, numHard := d.tierCounts(numQuestions, difficulty)
	d.log.Info("difficulty split",
		zap.Int("easy", numEasy), zap.Int("medium", numMedium), zap.Int("hard", numHard))

	perStandard, order := d.assignStandards(numQuestions, lessonStandards, allStandards)

	plan := d.assignTiers(perStandard, order, lessonStandards, numEasy, numMedium, numHard)

	if got := plan.Total(); got != numQuestions {
		d.log.Error("distribution mismatch",
			zap.Int("distributed", got), zap.Int("expected", numQuestions))
	}
	return plan
}

// tierCounts picks how many questions each tier gets, drawing inside the
// preset ranges while keeping the total fixed.
func (d *Distributor) tierCounts(numQuestions, difficulty int) (easy, medium, hard int) {
	ranges, ok := config.DifficultyLevels[difficulty]
	if !ok {
		ranges = config.DifficultyLevels[1]
	}

	easyMin, easyMax := ranges.Easy.Min, ranges.Easy.Max
	mediumMin, mediumMax := ranges.Medium.Min, ranges.Medium.Max
	hardMin := ranges.Hard.Min

	// Scale minimums down when the request is smaller than the preset
	// floor, preserving proportions.
	if minTotal := easyMin + mediumMin + hardMin; minTotal > numQuestions {
		scale := float64(numQuestions) / float64(minTotal)
		easyMin = max(1, int(float64(easyMin)*scale))
		mediumMin = max(1, int(float64(mediumMin)*scale))
		hardMin = max(1, int(float64(hardMin)*scale))
		d.log.Warn("scaled down tier minimums", zap.Int("num_questions", numQuestions))
	}

	easy = d.drawInRange(easyMin, min(easyMax, numQuestions-mediumMin-hardMin), numQuestions)
	remaining := numQuestions - easy
	medium = d.drawInRange(mediumMin, min(mediumMax, remaining-hardMin), remaining)
	hard = numQuestions - easy - medium
	return easy, medium, hard
}

// drawInRange draws uniformly in [lo, hi]. A collapsed or inverted range
// yields lo capped at limit.
func (d *Distributor) drawInRange(lo, hi, limit int) int {
	if hi < lo {
		return min(lo, limit)
	}
	if hi == lo {
		return lo
	}
	return lo + d.rng.IntN(hi-lo+1)
}

// assignStandards decides how many questions each standard receives.
// Lesson standards get a minimum quota first; the remainder goes to a
// weighted draw favoring lesson standards, then earlier curriculum
// standards, with a per-standard cap to keep variety.
func (d *Distributor) assignStandards(numQuestions int, lessonStandards, allStandards []string) (map[string]int, []string) {
	perStandard := make(map[string]int)
	var order []string
	record := func(std string) {
		if _, seen := perStandard[std]; !seen {
			perStandard[std] = 0
			order = append(order, std)
		}
	}

	left := numQuestions

	var minPerLessonStandard int
	switch n := len(lessonStandards); {
	case n == 0:
		d.log.Warn("no lesson standards provided")
	case n == 1:
		minPerLessonStandard = min(3, numQuestions)
	default:
		minPerLessonStandard = min(2, numQuestions/n)
	}

	for _, std := range lessonStandards {
		if left <= 0 {
			break
		}
		n := min(minPerLessonStandard, left)
		record(std)
		perStandard[std] += n
		left -= n
	}

	// Priority order: lesson standards, then earlier standards.
	var prioritized []string
	prioritized = append(prioritized, lessonStandards...)
	for _, std := range allStandards {
		if !contains(lessonStandards, std) {
			prioritized = append(prioritized, std)
		}
	}

	maxPerStandard := max(3, numQuestions/4)
	for left > 0 && len(prioritized) > 0 {
		var std string
		if len(prioritized) == 1 {
			std = prioritized[0]
		} else {
			std = d.weightedChoice(prioritized)
		}
		record(std)
		perStandard[std]++
		left--
		if perStandard[std] >= maxPerStandard {
			prioritized = remove(prioritized, std)
		}
	}

	// Every candidate hit the cap; spread what's left evenly.
	if left > 0 {
		d.log.Warn("spreading remaining questions", zap.Int("remaining", left))
		for left > 0 && len(order) > 0 {
			perStandard[order[d.rng.IntN(len(order))]]++
			left--
		}
	}

	return perStandard, order
}

// weightedChoice draws one standard, weighting earlier entries higher.
func (d *Distributor) weightedChoice(standards []string) string {
	total := 0
	for i := range standards {
		total += max(1, len(standards)-i)
	}
	draw := d.rng.IntN(total)
	for i, std := range standards {
		draw -= max(1, len(standards)-i)
		if draw < 0 {
			return std
		}
	}
	return standards[len(standards)-1]
}

// assignTiers splits each standard's question count across tiers.
// Lesson standards take hard questions first; other standards take easy
// first. Leftovers land on whichever standards have the fewest of that
// tier.
func (d *Distributor) assignTiers(perStandard map[string]int, order, lessonStandards []string, easyLeft, mediumLeft, hardLeft int) Plan {
	counts := make(map[string]TierCounts, len(perStandard))

	take := func(std string, tier string, want int, pool *int) int {
		n := min(want, *pool)
		c := counts[std]
		c.add(tier, n)
		counts[std] = c
		*pool -= n
		return want - n
	}

	for _, std := range lessonStandards {
		count, ok := perStandard[std]
		if !ok {
			continue
		}
		counts[std] = TierCounts{}
		count = take(std, TierHard, count, &hardLeft)
		count = take(std, TierMedium, count, &mediumLeft)
		take(std, TierEasy, count, &easyLeft)
	}

	for _, std := range order {
		if contains(lessonStandards, std) {
			continue
		}
		count := perStandard[std]
		counts[std] = TierCounts{}
		count = take(std, TierEasy, count, &easyLeft)
		count = take(std, TierMedium, count, &mediumLeft)
		take(std, TierHard, count, &hardLeft)
	}

	// Caps can leave tier counts stranded; hand them to the standards
	// with the fewest questions at that tier.
	leftover := map[string]*int{TierEasy: &easyLeft, TierMedium: &mediumLeft, TierHard: &hardLeft}
	if easyLeft+mediumLeft+hardLeft > 0 {
		d.log.Warn("redistributing leftover questions",
			zap.Int("easy", easyLeft), zap.Int("medium", mediumLeft), zap.Int("hard", hardLeft))
	}
	for _, tier := range TierNames {
		pool := leftover[tier]
		for *pool > 0 && len(order) > 0 {
			minCount := -1
			var eligible []string
			for _, std := range order {
				n := counts[std].Count(tier)
				switch {
				case minCount < 0 || n < minCount:
					minCount = n
					eligible = []string{std}
				case n == minCount:
					eligible = append(eligible, std)
				}
			}
			std := eligible[d.rng.IntN(len(eligible))]
			c := counts[std]
			c.add(tier, 1)
			counts[std] = c
			*pool--
		}
	}

	return Plan{Counts: counts, Standards: order}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func remove(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
