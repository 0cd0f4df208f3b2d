package components

import (
	"errors"
	"math"
	"math/rand"

	"github.com/pthm-cable/natsel/dna"
)

// Rules are the lifecycle constants shared by every creature.
type Rules struct {
	FoodLife      float32   // life gained per food eaten
	ReproduceCost float32   // life a parent pays for one child
	MoveInterval  float32   // seconds between movement decisions
	IdleGrace     int       // decisions allowed before an idle creature dies
	DistanceCostK float32   // movement cost divisor; 0 disables movement cost
	Unit          float64   // coordinate quantisation unit for the genome VM
	MaxMutations  int       // mutation budget per duplication
	Costs         dna.Costs // per-turn time cost parameters
}

// DeathReason says why a creature is removed at a turn boundary.
type DeathReason uint8

const (
	Alive DeathReason = iota
	DeathStarved
	DeathIdle
	DeathNonviable
	DeathOutOfBounds
)

func (r DeathReason) String() string {
	switch r {
	case Alive:
		return "alive"
	case DeathStarved:
		return "starved"
	case DeathIdle:
		return "idle"
	case DeathNonviable:
		return "nonviable"
	case DeathOutOfBounds:
		return "out_of_bounds"
	}
	return "unknown"
}

// Creature is an evolving agent driven by its genome.
type Creature struct {
	ID   uint32
	Body Body
	Vel  Velocity

	life       float32
	age        int
	generation int
	children   int
	decisions  int
	activated  bool
	nonviable  bool
	moveTimer  Timer
	cost       float32
	genome     *dna.Genome
}

// NewCreature returns a generation-zero creature with no life.
func NewCreature(id uint32, genome *dna.Genome, body Body, r Rules) Creature {
	return Creature{
		ID:        id,
		Body:      body,
		genome:    genome,
		moveTimer: NewTimer(r.MoveInterval),
		cost:      float32(genome.TimeCost(r.Costs)),
	}
}

func (c *Creature) Life() float32       { return c.life }
func (c *Creature) Age() int            { return c.age }
func (c *Creature) Generation() int     { return c.generation }
func (c *Creature) Children() int       { return c.children }
func (c *Creature) Decisions() int      { return c.decisions }
func (c *Creature) Activated() bool     { return c.activated }
func (c *Creature) Nonviable() bool     { return c.nonviable }
func (c *Creature) Genome() *dna.Genome { return c.genome }

// TimeCost is the life lost per turn.
func (c *Creature) TimeCost() float32 {
	return c.cost
}

// TryEatFood consumes f if it is still available and credits the creature.
func (c *Creature) TryEatFood(f *Food, r Rules) bool {
	if !f.TryConsume() {
		return false
	}
	c.life += r.FoodLife
	return true
}

// TimePass ages the creature by one turn and charges its time cost.
func (c *Creature) TimePass() {
	c.life -= c.cost
	c.age++
}

// WillDie reports whether the creature cannot pay its next turn.
func (c *Creature) WillDie() bool {
	return c.life < c.cost
}

// CanDuplicate reports whether the creature can afford a child and still
// pay its next turn.
func (c *Creature) CanDuplicate(r Rules) bool {
	return c.life > r.ReproduceCost+c.cost
}

// TryDuplicate spawns a child when affordable. The parent pays
// ReproduceCost; the child starts with no life, one generation deeper, a
// mutated copy of the genome and the parent's velocity reversed.
func (c *Creature) TryDuplicate(id uint32, rng *rand.Rand, r Rules) (Creature, bool) {
	if !c.CanDuplicate(r) {
		return Creature{}, false
	}
	c.life -= r.ReproduceCost
	c.children++

	genome := c.genome.Duplicate(rng, r.MaxMutations)
	child := NewCreature(id, genome, c.Body, r)
	child.generation = c.generation + 1
	child.Vel = Velocity{X: -c.Vel.X, Y: -c.Vel.Y}
	return child, true
}

// Death returns why the creature should be removed this turn, or Alive.
func (c *Creature) Death(arena Size, r Rules) DeathReason {
	switch {
	case c.nonviable:
		return DeathNonviable
	case !c.Body.CenterWithin(arena):
		return DeathOutOfBounds
	case c.decisions >= r.IdleGrace && !c.activated:
		return DeathIdle
	case c.WillDie():
		return DeathStarved
	}
	return Alive
}

// TickMoveTimer advances the decision timer and reports whether a movement
// decision is due.
func (c *Creature) TickMoveTimer(dt float32) bool {
	return c.moveTimer.Tick(dt)
}

// Decide runs the genome against the current position. It does not modify
// the creature, so decisions can be computed concurrently and applied later.
func Decide(genome *dna.Genome, m *dna.Machine, pos Position, r Rules) (Velocity, error) {
	dx, dy, err := genome.MoveBehavior(m, float64(pos.X), float64(pos.Y), r.Unit)
	if err != nil {
		return Velocity{}, err
	}
	speed := genome.Speed()
	return Velocity{X: float32(dx * speed), Y: float32(dy * speed)}, nil
}

// ApplyDecision records the outcome of Decide. A genome that fails to
// terminate marks the creature nonviable and leaves its velocity unchanged.
func (c *Creature) ApplyDecision(v Velocity, err error) {
	c.decisions++
	if err != nil {
		if errors.Is(err, dna.ErrNonTerminating) {
			c.nonviable = true
		}
		return
	}
	c.Vel = v
	if !v.IsZero() {
		c.activated = true
	}
}

// HasMoved charges the creature for travelling distance this frame.
func (c *Creature) HasMoved(distance float32, r Rules) {
	if distance <= 0 || r.DistanceCostK <= 0 {
		return
	}
	c.life -= float32(math.Pow(float64(distance), 1.2)) / r.DistanceCostK
}
