package recipe

import "github.com/hammamikhairi/ottobrew/internal/domain"

var sec = domain.Seconds

func fourSix() *domain.Recipe {
	pour := func(label string) domain.Stage {
		return domain.Stage{Duration: sec(10), Water: "60g", Style: domain.StyleCircle, Label: label}
	}
	rest := func(d int) domain.Stage {
		return domain.Stage{Duration: sec(d), Style: domain.StyleWait, Label: "Wait"}
	}
	return &domain.Recipe{
		ID:          "v60-4-6",
		Name:        "V60 4:6",
		Description: "Five equal pours. The first two set sweetness and acidity, the last three set strength.",
		Method:      domain.MethodPourOver,
		Tags:        []string{"v60", "pour-over", "light roast"},
		Params: domain.Params{
			Coffee:    "20g",
			Water:     "300g",
			Ratio:     "1:15",
			GrindSize: "coarse",
			Temp:      "93°C",
			Stages: []domain.Stage{
				pour("First pour"), rest(35),
				pour("Second pour"), rest(35),
				pour("Third pour"), rest(35),
				pour("Fourth pour"), rest(35),
				pour("Fifth pour"),
				{Duration: sec(45), Style: domain.StyleWait, Label: "Drawdown", Detail: "Remove the dripper at 3:55."},
			},
		},
	}
}

// kalitaWave is written in the legacy cumulative schema.
func kalitaWave() *domain.Recipe {
	return &domain.Recipe{
		ID:          "kalita-wave",
		Name:        "Kalita Wave",
		Description: "Flat-bed pulse pouring. Gentle and forgiving.",
		Tags:        []string{"kalita", "pour-over", "medium roast"},
		Params: domain.Params{
			Coffee:    "15g",
			Water:     "250g",
			Ratio:     "1:16.7",
			GrindSize: "medium",
			Temp:      "94°C",
			Stages: []domain.Stage{
				{Time: sec(40), PourTime: sec(10), Water: "50g", Label: "Bloom", Style: domain.StyleCenter},
				{Time: sec(75), PourTime: sec(15), Water: "150g", Label: "Second pulse", Style: domain.StyleCircle},
				{Time: sec(110), PourTime: sec(15), Water: "250g", Label: "Third pulse", Style: domain.StyleCircle},
				{Time: sec(180), Water: "250g", Label: "Drawdown", Style: domain.StyleWait},
			},
		},
	}
}

func icedV60() *domain.Recipe {
	return &domain.Recipe{
		ID:          "iced-v60",
		Name:        "Iced V60",
		Description: "Brew hot onto ice. Half the water goes in the server as ice.",
		Method:      domain.MethodPourOver,
		Tags:        []string{"v60", "iced", "summer"},
		Params: domain.Params{
			Coffee:    "20g",
			Water:     "160g hot + 100g ice",
			Ratio:     "1:13",
			GrindSize: "medium-fine",
			Temp:      "96°C",
			Stages: []domain.Stage{
				{Water: "100g", Label: "Ice in server", Style: domain.StyleBypass},
				{Duration: sec(10), Water: "40g", Label: "Bloom", Style: domain.StyleCenter},
				{Duration: sec(35), Label: "Bloom rest", Style: domain.StyleWait},
				{Duration: sec(20), Water: "60g", Label: "Second pour", Style: domain.StyleCircle},
				{Duration: sec(10), Label: "Wait", Style: domain.StyleWait},
				{Duration: sec(20), Water: "60g", Label: "Final pour", Style: domain.StyleCircle},
				{Duration: sec(45), Label: "Drawdown", Style: domain.StyleWait, Detail: "Swirl the server to melt the ice."},
			},
		},
	}
}

func doubleShot() *domain.Recipe {
	return &domain.Recipe{
		ID:          "espresso-double",
		Name:        "Double Espresso",
		Description: "18g in, 36g out, about 28 seconds.",
		Method:      domain.MethodEspresso,
		Tags:        []string{"espresso", "milk"},
		Params: domain.Params{
			Coffee:    "18g",
			Water:     "36g",
			Ratio:     "1:2",
			GrindSize: "fine",
			Temp:      "93°C",
			Stages: []domain.Stage{
				{Duration: sec(28), Water: "36g", Label: "Extraction", Style: domain.StyleExtraction},
				{Water: "120g", Label: "Steamed milk", Style: domain.StyleBeverage, Detail: "Optional, for a flat white."},
			},
		},
	}
}
