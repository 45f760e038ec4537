package petstate

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pocketpet/api/internal/models"
)

// Stat bounds and defaults
const (
	MinStat     = 0
	MaxStat     = 100
	DefaultStat = 50
	StartLevel  = 1
	XPPerLevel  = 100
)

// Action is a named pet state transition
type Action string

// Action constants
const (
	ActionFeed  Action = "feed"
	ActionPlay  Action = "play"
	ActionClean Action = "clean"
	ActionDecay Action = "decay"
)

// Effect is the additive delta an action applies to a pet
type Effect struct {
	Hunger      int
	Happiness   int
	Cleanliness int
	XP          int
}

// Rules maps each action to its effect
type Rules map[Action]Effect

// DefaultRules is the canonical, server-authoritative rule set.
var DefaultRules = Rules{
	ActionFeed:  {Hunger: 15, Happiness: 5, XP: 5},
	ActionPlay:  {Hunger: -5, Happiness: 20, XP: 5},
	ActionClean: {Happiness: 10, Cleanliness: 30, XP: 5},
	ActionDecay: {Hunger: -5, Happiness: -3, Cleanliness: -2},
}

// LegacyPreviewRules are the xp gains the browser client used to preview
// locally (play 10, clean 3). Nothing applies them to stored pets.
var LegacyPreviewRules = Rules{
	ActionFeed:  {Hunger: 15, Happiness: 5, XP: 5},
	ActionPlay:  {Hunger: -5, Happiness: 20, XP: 10},
	ActionClean: {Happiness: 10, Cleanliness: 30, XP: 3},
	ActionDecay: {Hunger: -5, Happiness: -3, Cleanliness: -2},
}

// Outcome is the result of applying an action
type Outcome struct {
	Pet       models.Pet
	LeveledUp bool
	Distress  bool
}

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ParseAction resolves an interactive action name. Decay is not interactive.
func ParseAction(name string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(name))); a {
	case ActionFeed, ActionPlay, ActionClean:
		return a, nil
	default:
		return "", &ValidationError{Field: "action", Message: fmt.Sprintf("invalid action %q", name)}
	}
}

// Clamp bounds a stat to [MinStat, MaxStat]
func Clamp(x int) int {
	return max(MinStat, min(MaxStat, x))
}

// Apply returns the pet after action a under rules. A nil rules uses DefaultRules.
// The input pet is not modified.
func Apply(p models.Pet, a Action, rules Rules) (Outcome, error) {
	if rules == nil {
		rules = DefaultRules
	}
	eff, ok := rules[a]
	if !ok {
		return Outcome{Pet: p}, &ValidationError{Field: "action", Message: fmt.Sprintf("invalid action %q", a)}
	}

	p.Hunger = Clamp(p.Hunger + eff.Hunger)
	p.Happiness = Clamp(p.Happiness + eff.Happiness)
	p.Cleanliness = Clamp(p.Cleanliness + eff.Cleanliness)

	out := Outcome{}
	if eff.XP > 0 {
		out.LeveledUp = addXP(&p, eff.XP)
	}
	if a == ActionDecay {
		out.Distress = IsDistressed(p)
	}
	out.Pet = p
	return out, nil
}

// Decay applies one passive decay tick under DefaultRules.
func Decay(p models.Pet) Outcome {
	out, _ := Apply(p, ActionDecay, DefaultRules)
	return out
}

// IsDistressed reports whether the pet is starving or miserable
func IsDistressed(p models.Pet) bool {
	return p.Hunger <= MinStat || p.Happiness <= MinStat
}

// addXP credits xp and levels up at most once. Surplus xp past the threshold
// is dropped, not carried over.
func addXP(p *models.Pet, amount int) bool {
	p.XP += amount
	if p.XP >= p.XPThreshold() {
		p.Level++
		p.XP = 0
		return true
	}
	return false
}

// NewPet validates an adoption request and returns a pet with default stats.
func NewPet(name string, petType models.PetType, now time.Time) (models.Pet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Pet{}, &ValidationError{Field: "name", Message: "pet name is required"}
	}
	if utf8.RuneCountInString(name) > models.MaxNameLength {
		return models.Pet{}, &ValidationError{Field: "name", Message: "pet name must not exceed 50 characters"}
	}
	petType = models.PetType(strings.ToLower(strings.TrimSpace(string(petType))))
	if !models.IsValidPetType(petType) {
		return models.Pet{}, &ValidationError{Field: "type", Message: "invalid pet type. Must be dog, cat, or dragon"}
	}

	return models.Pet{
		Name:        name,
		Type:        petType,
		Hunger:      DefaultStat,
		Happiness:   DefaultStat,
		Cleanliness: DefaultStat,
		Level:       StartLevel,
		XP:          0,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
