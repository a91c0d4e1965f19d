package distribute

import (
	"math/rand/v2"
	"testing"

	"github.com/inceptlabs/quizforge/internal/config"
)

func newTestDistributor(seed uint64) *Distributor {
	return New(rand.New(rand.NewPCG(seed, seed+1)), nil)
}

func TestDistributeTotalAlwaysExact(t *testing.T) {
	lesson := []string{"CLE-1", "CLE-2"}
	all := []string{"RHS-1", "RHS-2", "CLE-1", "CLE-2"}

	for seed := uint64(0); seed < 20; seed++ {
		d := newTestDistributor(seed)
		for _, num := range []int{1, 2, 4, 6, 9, 12} {
			for difficulty := 1; difficulty <= 3; difficulty++ {
				plan := d.Distribute(num, difficulty, lesson, all)
				if got := plan.Total(); got != num {
					t.Errorf("seed=%d num=%d difficulty=%d: total = %d",
						seed, num, difficulty, got)
				}
			}
		}
	}
}

func TestDistributeTierCountsWithinPreset(t *testing.T) {
	lesson := []string{"CLE-1", "CLE-2"}
	all := []string{"RHS-1", "RHS-2", "CLE-1", "CLE-2"}

	// 10 questions comfortably fits every preset's minimums, so tier
	// totals must respect the preset ranges (hard absorbs the remainder,
	// so only its minimum binds).
	for seed := uint64(0); seed < 20; seed++ {
		d := newTestDistributor(seed)
		for difficulty := 1; difficulty <= 3; difficulty++ {
			plan := d.Distribute(10, difficulty, lesson, all)

			var easy, medium, hard int
			for _, c := range plan.Counts {
				easy += c.Easy
				medium += c.Medium
				hard += c.Hard
			}

			ranges := config.DifficultyLevels[difficulty]
			if easy < ranges.Easy.Min || easy > ranges.Easy.Max {
				t.Errorf("difficulty %d: easy = %d, range [%d,%d]",
					difficulty, easy, ranges.Easy.Min, ranges.Easy.Max)
			}
			if medium < ranges.Medium.Min || medium > ranges.Medium.Max {
				t.Errorf("difficulty %d: medium = %d, range [%d,%d]",
					difficulty, medium, ranges.Medium.Min, ranges.Medium.Max)
			}
			if hard < ranges.Hard.Min {
				t.Errorf("difficulty %d: hard = %d, min %d",
					difficulty, hard, ranges.Hard.Min)
			}
		}
	}
}

func TestDistributeCollapsedRangeDeterministic(t *testing.T) {
	lesson := []string{"CLE-1", "CLE-2"}
	all := []string{"RHS-1", "RHS-2", "CLE-1", "CLE-2"}

	// Difficulty 2 with 6 questions collapses every draw: easy's cap is
	// min(3, 6-2-2) = 2 = its minimum, which pins medium's cap to its
	// minimum too, and hard takes the remainder. The split must be
	// exactly 2/2/2 regardless of seed.
	for seed := uint64(0); seed < 50; seed++ {
		d := newTestDistributor(seed)
		plan := d.Distribute(6, 2, lesson, all)

		var easy, medium, hard int
		for _, c := range plan.Counts {
			easy += c.Easy
			medium += c.Medium
			hard += c.Hard
		}
		if easy != 2 || medium != 2 || hard != 2 {
			t.Errorf("seed %d: split = %d/%d/%d, want 2/2/2", seed, easy, medium, hard)
		}
	}
}

func TestDistributeLessonStandardMinimums(t *testing.T) {
	all := []string{"RHS-1", "RHS-2", "CLE-1", "CLE-2"}

	// Single lesson standard: at least 3 questions.
	for seed := uint64(0); seed < 10; seed++ {
		d := newTestDistributor(seed)
		plan := d.Distribute(6, 2, []string{"CLE-1"}, all)
		if got := plan.Counts["CLE-1"].Total(); got < 3 {
			t.Errorf("single lesson standard got %d questions, want >= 3", got)
		}
	}

	// Multiple lesson standards: at least 2 each when the budget allows.
	for seed := uint64(0); seed < 10; seed++ {
		d := newTestDistributor(seed)
		plan := d.Distribute(8, 2, []string{"CLE-1", "CLE-2"}, all)
		for _, std := range []string{"CLE-1", "CLE-2"} {
			if got := plan.Counts[std].Total(); got < 2 {
				t.Errorf("lesson standard %s got %d questions, want >= 2", std, got)
			}
		}
	}
}

func TestDistributeOnlyKnownStandards(t *testing.T) {
	lesson := []string{"CLE-1"}
	all := []string{"RHS-1", "RHS-2", "CLE-1"}
	allowed := map[string]bool{"RHS-1": true, "RHS-2": true, "CLE-1": true}

	for seed := uint64(0); seed < 10; seed++ {
		d := newTestDistributor(seed)
		plan := d.Distribute(12, 1, lesson, all)
		for std := range plan.Counts {
			if !allowed[std] {
				t.Errorf("unknown standard in plan: %q", std)
			}
		}
	}
}

func TestDistributeSmallQuizScalesDown(t *testing.T) {
	// Preset minimums exceed 2 questions; the plan must still total 2.
	for seed := uint64(0); seed < 10; seed++ {
		d := newTestDistributor(seed)
		plan := d.Distribute(2, 3, []string{"CLE-1"}, []string{"CLE-1"})
		if got := plan.Total(); got != 2 {
			t.Errorf("total = %d, want 2", got)
		}
	}
}

func TestDistributeNoLessonStandards(t *testing.T) {
	d := newTestDistributor(7)
	plan := d.Distribute(6, 1, nil, []string{"RHS-1", "RHS-2"})
	if got := plan.Total(); got != 6 {
		t.Errorf("total = %d, want 6", got)
	}
}

func TestDistributeHardGoesToLessonStandards(t *testing.T) {
	all := []string{"RHS-1", "RHS-2", "CLE-1"}

	// Hard questions are allocated to lesson standards before anything
	// else, so whenever CLE-1 has capacity the hard count lands there.
	for seed := uint64(0); seed < 10; seed++ {
		d := newTestDistributor(seed)
		plan := d.Distribute(8, 3, []string{"CLE-1"}, all)

		var totalHard, lessonHard int
		for std, c := range plan.Counts {
			totalHard += c.Hard
			if std == "CLE-1" {
				lessonHard = c.Hard
			}
		}
		if lessonCount := plan.Counts["CLE-1"].Total(); lessonCount >= totalHard && lessonHard != totalHard {
			t.Errorf("seed %d: lesson standard has %d of %d hard questions", seed, lessonHard, totalHard)
		}
	}
}

func TestTierCountsAccessors(t *testing.T) {
	c := TierCounts{Easy: 1, Medium: 2, Hard: 3}
	if c.Total() != 6 {
		t.Errorf("total = %d", c.Total())
	}
	for i, tier := range TierNames {
		if got := c.Count(tier); got != i+1 {
			t.Errorf("count(%s) = %d, want %d", tier, got, i+1)
		}
	}
	if c.Count("expert") != 0 {
		t.Error("unknown tier should count 0")
	}
}
