package catalog

const (
	GroupOverall     = "overall"
	GroupPopulations = "populations"
	GroupDisruptions = "disruptions"
	GroupCovid       = "covid"
)

var populations = []struct{ prefix, label string }{
	{"overall", "All Respondents"},
	{"nhw", "Non-Hispanic White"},
	{"hisp", "Hispanic"},
	{"black", "Black"},
	{"asian", "Asian"},
	{"child", "Households with Children"},
	{"female", "Female"},
	{"lowinc", "Low Income"},
}

var periods = []struct{ suffix, label string }{
	{"before", "Before COVID-19"},
	{"after", "Since COVID-19"},
	{"diff", "Change"},
}

var disruptions = []struct{ metric, label string }{
	{"disrupt_job_loss", "Job Loss"},
	{"disrupt_reduced_hours", "Reduced Work Hours"},
	{"disrupt_school_meals", "Lost School Meals"},
	{"disrupt_store_shortage", "Store Shortages"},
	{"disrupt_transportation", "Transportation"},
}

// Default returns the built-in catalog for the food-insecurity survey and
// the state-level COVID-19 counts.
func Default() *Catalog {
	c := &Catalog{
		Groups: []Group{
			{ID: GroupOverall, Title: "Food Insecurity"},
			{ID: GroupPopulations, Title: "Food Insecurity by Population"},
			{ID: GroupDisruptions, Title: "COVID-19 Disruptions"},
			{ID: GroupCovid, Title: "COVID-19 Cases and Deaths"},
		},
		Fields: []Field{
			{Column: "sampling_method", Label: "Sampling Method"},
			{Column: "survey_mode", Label: "Survey Mode"},
			{Column: "sample_size_note", Label: "Sample Size"},
		},
	}
	for _, p := range populations {
		group := GroupPopulations
		if p.prefix == "overall" {
			group = GroupOverall
		}
		for _, s := range periods {
			c.Metrics = append(c.Metrics, Entry{
				Metric:      p.prefix + "_" + s.suffix,
				Group:       group,
				Category:    p.label,
				SubCategory: s.label,
				Kind:        KindPercent,
			})
		}
	}
	for _, d := range disruptions {
		c.Metrics = append(c.Metrics, Entry{
			Metric: d.metric, Group: GroupDisruptions, Category: d.label,
			SubCategory: "Since COVID-19", Kind: KindPercent,
		})
	}
	c.Metrics = append(c.Metrics,
		Entry{Metric: "cases", Group: GroupCovid, Category: "Cases", SubCategory: "Cumulative", Kind: KindCount},
		Entry{Metric: "deaths", Group: GroupCovid, Category: "Deaths", SubCategory: "Cumulative", Kind: KindCount},
	)
	if err := c.init(); err != nil {
		panic(err)
	}
	return c
}
