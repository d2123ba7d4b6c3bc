package scoring

func linear(c float64) Rule { return Rule{Coefficient: c, Combine: Linear} }

// APISports scores the category-prefixed statistic names delivered by api-sports.
var APISports = NewRuleset("apisports", map[string]Rule{
	// passing
	"yards":               linear(0.1),
	"passing touch downs": linear(6),
	"interceptions":       linear(-2),
	"two pt":              linear(2),
	"comp att":            {Coefficient: 10, Combine: Rate},
	"sacks":               {Coefficient: 2, LossCoefficient: 0.1, Combine: SackLoss},

	// defensive
	"tackles":                       linear(1),
	"unassisted tackles":            linear(0.5),
	"tfl":                           linear(1),
	"passes defended":               linear(1),
	"qb hts":                        linear(0.5),
	"interceptions for touch downs": linear(6),
	"blocked kickk":                 linear(2),
	"ff":                            linear(2),

	// returns
	"kick return td": linear(6),
	"exp return td":  linear(6),

	// rushing and receiving
	"total rushes":          linear(0.1),
	"rushing touch downs":   linear(6),
	"targets":               linear(0.1),
	"total receptions":      linear(1),
	"receiving touch downs": linear(6),

	// fumbles
	"total": linear(-2),
	"lost":  linear(-2),

	// kicking
	"field goals":                  {Coefficient: 3, Combine: Made},
	"field goals from 1 19 yards":  linear(3),
	"field goals from 20 29 yards": linear(3),
	"field goals from 30 39 yards": linear(3),
	"field goals from 40 49 yards": linear(4),
	"field goals from 50 yards":    linear(5),
	"extra point":                  {Coefficient: 1, Combine: Made},

	// punting
	"touchbacks": linear(0.5),
	"in20":       linear(0.5),
})

// SportDevs scores the flat underscore statistic names delivered by sportdevs.
var SportDevs = NewRuleset("sportdevs", map[string]Rule{
	"passing_yards":                 linear(0.04),
	"passing_touchdowns":            linear(6),
	"passing_interceptions":         linear(-2),
	"passing_two_point_conversions": linear(2),
	"passing_comp_att":              {Coefficient: 10, Combine: Rate},
	"passing_sacked":                {Coefficient: 2, LossCoefficient: 0.1, Combine: SackLoss},

	"rushing_yards":                 linear(0.1),
	"rushing_touchdowns":            linear(6),
	"rushing_two_point_conversions": linear(2),

	"receiving_receptions": linear(0.5),
	"receiving_yards":      linear(0.1),
	"receiving_touchdowns": linear(6),
	"fumbles_lost":         linear(-2),

	"defensive_sacks":          linear(2),
	"defensive_interceptions":  linear(3),
	"defensive_forced_fumbles": linear(2),
	"defensive_touchdowns":     linear(6),
	"defensive_safeties":       linear(2),

	"kicking_field_goals":         {Coefficient: 3, Combine: Made},
	"kicking_field_goals_40_49":   linear(4),
	"kicking_field_goals_50_plus": linear(5),
	"kicking_extra_points":        {Coefficient: 1, Combine: Made},

	"punt_returns_touchdowns": linear(6),
})
