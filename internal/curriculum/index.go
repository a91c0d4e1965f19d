package curriculum

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"go.uber.org/zap"
)

// TierDifficulty maps a difficulty tier name to the string form used to
// key example questions. Unrecognized tiers are absent.
var TierDifficulty = map[string]string{
	"easy":   "1",
	"medium": "2",
	"hard":   "3",
}

// LoadOptions names the data files an Index is built from.
// ExplanationsPath is optional; the rest are required.
type LoadOptions struct {
	LessonsPath      string
	PassagesPath     string
	ExamplesPath     string
	ExplanationsPath string

	// Rand drives passage selection. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// Index holds the loaded curriculum data with lookup maps built at load
// time. It is read-only after Load and safe for concurrent readers,
// except SelectPassage which draws from the Rand source.
type Index struct {
	lessons             []Lesson
	passages            []Passage
	examples            []Example
	explanationExamples []ExplanationExample

	standardsByLesson  map[string]StandardList
	lessonsByStandard  map[string][]string
	passagesByStandard map[string][]Passage
	examplesByKey      map[exampleKey][]Example

	rng *rand.Rand
	log *zap.Logger
}

type exampleKey struct {
	standard   string
	difficulty string
}

// Load reads the curriculum data files and builds the lookup maps.
// A missing or unparsable required file is a fatal error; a missing or
// unparsable explanations file only logs a warning.
func Load(opts LoadOptions, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}

	idx := &Index{
		standardsByLesson:  make(map[string]StandardList),
		lessonsByStandard:  make(map[string][]string),
		passagesByStandard: make(map[string][]Passage),
		examplesByKey:      make(map[exampleKey][]Example),
		rng:                opts.Rand,
		log:                log,
	}
	if idx.rng == nil {
		now := uint64(time.Now().UnixNano())
		idx.rng = rand.New(rand.NewPCG(now, now>>32))
	}

	for _, p := range []string{opts.LessonsPath, opts.PassagesPath, opts.ExamplesPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("required data file not found: %s", p)
		}
	}

	if err := loadJSON(opts.LessonsPath, &idx.lessons); err != nil {
		return nil, err
	}
	log.Info("loaded lessons", zap.Int("count", len(idx.lessons)))

	if err := loadJSON(opts.PassagesPath, &idx.passages); err != nil {
		return nil, err
	}
	log.Info("loaded passages", zap.Int("count", len(idx.passages)))

	if err := loadJSON(opts.ExamplesPath, &idx.examples); err != nil {
		return nil, err
	}
	log.Info("loaded examples", zap.Int("count", len(idx.examples)))

	if opts.ExplanationsPath != "" {
		if err := loadJSON(opts.ExplanationsPath, &idx.explanationExamples); err != nil {
			log.Warn("explanation examples unavailable", zap.Error(err))
			idx.explanationExamples = nil
		}
	}

	idx.buildMaps()
	idx.reportGaps()

	return idx, nil
}

func loadJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}

func (idx *Index) buildMaps() {
	for _, lesson := range idx.lessons {
		if lesson.Name == "" {
			idx.log.Warn("skipping lesson without name")
			continue
		}
		if len(lesson.Standards) == 0 {
			idx.log.Warn("lesson has no standards", zap.String("lesson", lesson.Name))
		}
		idx.standardsByLesson[lesson.Name] = lesson.Standards
		for _, std := range lesson.Standards {
			if !contains(idx.lessonsByStandard[std], lesson.Name) {
				idx.lessonsByStandard[std] = append(idx.lessonsByStandard[std], lesson.Name)
			}
		}
	}

	for _, passage := range idx.passages {
		if passage.ID == "" {
			idx.log.Warn("skipping passage without id", zap.String("title", passage.Title))
			continue
		}
		if len(passage.Standards) == 0 {
			idx.log.Warn("passage has no standards",
				zap.String("id", passage.ID), zap.String("title", passage.Title))
		}
		for _, std := range passage.Standards {
			idx.passagesByStandard[std] = append(idx.passagesByStandard[std], passage)
		}
	}

	for _, ex := range idx.examples {
		if ex.Standard == "" || ex.Difficulty == "" {
			continue
		}
		key := exampleKey{standard: ex.Standard, difficulty: ex.Difficulty}
		idx.examplesByKey[key] = append(idx.examplesByKey[key], ex)
	}
}

// reportGaps logs standards that lack passages or examples. Gaps are
// degraded-mode conditions, not load failures.
func (idx *Index) reportGaps() {
	for std := range idx.lessonsByStandard {
		if len(idx.passagesByStandard[std]) == 0 {
			idx.log.Warn("standard has no passages", zap.String("standard", std))
		}
		for _, diff := range []string{"1", "2", "3"} {
			if len(idx.examplesByKey[exampleKey{std, diff}]) == 0 {
				idx.log.Warn("standard has no examples",
					zap.String("standard", std), zap.String("difficulty", diff))
			}
		}
	}
}

// Lessons returns all lessons in curriculum order.
func (idx *Index) Lessons() []Lesson { return idx.lessons }

// Passages returns all loaded passages.
func (idx *Index) Passages() []Passage { return idx.passages }

// ExplanationExamples returns the loaded explanation examples, if any.
func (idx *Index) ExplanationExamples() []ExplanationExample {
	return idx.explanationExamples
}

// StandardsForLesson returns the standards of the named lesson, or nil
// if the lesson is unknown.
func (idx *Index) StandardsForLesson(lessonName string) []string {
	if lessonName == "" {
		return nil
	}
	stds := idx.standardsByLesson[lessonName]
	if len(stds) == 0 {
		idx.log.Warn("no standards for lesson", zap.String("lesson", lessonName))
	}
	return stds
}

// AllStandards returns every standard in curriculum order, deduplicated.
func (idx *Index) AllStandards() []string {
	var all []string
	seen := make(map[string]bool)
	for _, lesson := range idx.lessons {
		for _, std := range lesson.Standards {
			if !seen[std] {
				seen[std] = true
				all = append(all, std)
			}
		}
	}
	return all
}

// PreviousStandards returns all standards up to and including the given
// one, in curriculum order. Returns nil if the standard is unknown.
func (idx *Index) PreviousStandards(standardID string) []string {
	if standardID == "" {
		return nil
	}
	var prior []string
	for _, std := range idx.AllStandards() {
		if std == standardID {
			return append(prior, standardID)
		}
		prior = append(prior, std)
	}
	idx.log.Warn("standard not found in curriculum", zap.String("standard", standardID))
	return nil
}

// ExamplesFor returns the example questions for a standard and string
// difficulty ("1", "2", "3").
func (idx *Index) ExamplesFor(standardID, difficulty string) []Example {
	return idx.examplesByKey[exampleKey{standard: standardID, difficulty: difficulty}]
}

// LessonsForStandard returns the lessons that cover the standard.
func (idx *Index) LessonsForStandard(standardID string) []string {
	return idx.lessonsByStandard[standardID]
}

// HasWritingExamples reports whether the standard has at least one
// writing-type example at any difficulty.
func (idx *Index) HasWritingExamples(standardID string) bool {
	if standardID == "" {
		return false
	}
	for _, diff := range []string{"1", "2", "3"} {
		for _, ex := range idx.examplesByKey[exampleKey{standardID, diff}] {
			if ex.Type == "writing" {
				return true
			}
		}
	}
	return false
}

// SelectPassage picks a random passage covering all the given standards.
// Draft passages require writing examples for every standard; when a
// drawn Draft passage can't be used, a non-Draft one is drawn instead.
// Falls back to single-standard selection when no passage covers every
// standard. Returns nil when nothing suitable exists.
func (idx *Index) SelectPassage(standards []string) *Passage {
	if len(standards) == 0 {
		return nil
	}
	if len(standards) == 1 {
		return idx.selectSingle(standards[0])
	}

	first := standards[0]
	firstPassages := idx.passagesByStandard[first]
	if len(firstPassages) == 0 {
		idx.log.Warn("no passages for standard", zap.String("standard", first))
		return nil
	}

	byID := make(map[string]Passage, len(firstPassages))
	common := make(map[string]bool, len(firstPassages))
	for _, p := range firstPassages {
		byID[p.ID] = p
		common[p.ID] = true
	}

	for _, std := range standards[1:] {
		passages := idx.passagesByStandard[std]
		if len(passages) == 0 {
			idx.log.Warn("no passages for standard", zap.String("standard", std))
			common = nil
			break
		}
		ids := make(map[string]bool, len(passages))
		for _, p := range passages {
			ids[p.ID] = true
		}
		for id := range common {
			if !ids[id] {
				delete(common, id)
			}
		}
	}

	if len(common) > 0 {
		candidates := make([]Passage, 0, len(common))
		for _, p := range firstPassages {
			if common[p.ID] {
				candidates = append(candidates, p)
			}
		}
		if p := idx.pickUsable(candidates, standards...); p != nil {
			return p
		}
	}

	// No common passage works; fall back to the first standard alone.
	return idx.selectSingle(first)
}

func (idx *Index) selectSingle(standardID string) *Passage {
	passages := idx.passagesByStandard[standardID]
	if len(passages) == 0 {
		return nil
	}
	p := idx.pickUsable(passages, standardID)
	if p == nil {
		idx.log.Warn("no usable passages for standard", zap.String("standard", standardID))
	}
	return p
}

// pickUsable draws a random passage, swapping a Draft draw for a
// non-Draft one when any of the standards lacks writing examples.
func (idx *Index) pickUsable(passages []Passage, standards ...string) *Passage {
	if len(passages) == 0 {
		return nil
	}
	selected := passages[idx.rng.IntN(len(passages))]
	if selected.Type != "Draft" {
		return &selected
	}
	usable := true
	for _, std := range standards {
		if !idx.HasWritingExamples(std) {
			usable = false
			break
		}
	}
	if usable {
		return &selected
	}

	var nonDraft []Passage
	for _, p := range passages {
		if p.Type != "Draft" {
			nonDraft = append(nonDraft, p)
		}
	}
	if len(nonDraft) == 0 {
		return nil
	}
	p := nonDraft[idx.rng.IntN(len(nonDraft))]
	return &p
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
