package level

// Level is one rung of the XP ladder.
type Level struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	Threshold int    `json:"threshold"` // minimum XP to hold this level
}

// table holds ascending XP thresholds. Level 1 starts at zero.
var table = []Level{
	{Number: 1, Name: "Rookie", Threshold: 0},
	{Number: 2, Name: "Splasher", Threshold: 100},
	{Number: 3, Name: "Lane Runner", Threshold: 250},
	{Number: 4, Name: "Kicker", Threshold: 500},
	{Number: 5, Name: "Streamliner", Threshold: 1000},
	{Number: 6, Name: "Flip Turner", Threshold: 1750},
	{Number: 7, Name: "Sprinter", Threshold: 2750},
	{Number: 8, Name: "Distance Ace", Threshold: 4000},
	{Number: 9, Name: "Captain", Threshold: 5500},
	{Number: 10, Name: "Champion", Threshold: 7500},
	{Number: 11, Name: "Legend", Threshold: 10000},
}

// All returns a copy of the level table.
func All() []Level {
	out := make([]Level, len(table))
	copy(out, table)
	return out
}

// ForXP returns the highest level whose threshold xp has reached.
// PRE: none (negative xp is treated as zero)
// POST: Returns a level from the table, never the zero value
func ForXP(xp int) Level {
	current := table[0]
	for _, l := range table[1:] {
		if xp < l.Threshold {
			break
		}
		current = l
	}
	return current
}

// Next returns the level after the one xp currently holds.
// POST: ok is false at the top of the table
func Next(xp int) (Level, bool) {
	cur := ForXP(xp)
	if cur.Number >= len(table) {
		return Level{}, false
	}
	return table[cur.Number], true
}

// ProgressPercent returns how far xp is between its level and the next, 0..100.
// At the top level it is always 100.
func ProgressPercent(xp int) int {
	cur := ForXP(xp)
	next, ok := Next(xp)
	if !ok {
		return 100
	}
	span := next.Threshold - cur.Threshold
	into := xp - cur.Threshold
	if into < 0 {
		into = 0
	}
	return into * 100 / span
}

// Crossed reports whether moving from before to after raised the level.
func Crossed(before, after int) bool {
	return ForXP(after).Number > ForXP(before).Number
}
