package report

// fallback is the dataset served whenever the live call cannot be used. The
// figures come from the RAND "Trends in Income From 1975 to 2018" study and
// the Economic Policy Institute productivity-pay and CEO pay series, indexed
// the way the charts expect.
var fallback = Data{
	Summary: "Over the last 45 years, $50 trillion in wealth has been transferred from the " +
		"bottom 90% of American workers to the top 1% through stagnant wages and rising costs.",
	RandReportContext: "A 2020 RAND Corporation study estimates that if income distribution had " +
		"remained as equitable as it was from 1945 to 1974, the bottom 90% of Americans would have " +
		"earned an additional $2.5 trillion in 2018 alone. Cumulatively, this amounts to nearly " +
		"$50 trillion extracted from the working class.",
	ProductivityVsWages: []ChartPoint{
		Point(1975, MetricProductivity, 98, MetricHourlyCompensation, 99),
		Point(1979, MetricProductivity, 100, MetricHourlyCompensation, 100),
		Point(1985, MetricProductivity, 112, MetricHourlyCompensation, 98),
		Point(1990, MetricProductivity, 121, MetricHourlyCompensation, 96),
		Point(1995, MetricProductivity, 132, MetricHourlyCompensation, 99),
		Point(2000, MetricProductivity, 151, MetricHourlyCompensation, 108),
		Point(2005, MetricProductivity, 172, MetricHourlyCompensation, 109),
		Point(2010, MetricProductivity, 188, MetricHourlyCompensation, 111),
		Point(2015, MetricProductivity, 196, MetricHourlyCompensation, 113),
		Point(2020, MetricProductivity, 215, MetricHourlyCompensation, 117),
		Point(2022, MetricProductivity, 218, MetricHourlyCompensation, 115),
	},
	CEOVsWorker: []ChartPoint{
		Point(1978, MetricCEOPayGrowth, 0, MetricWorkerPayGrowth, 0),
		Point(1985, MetricCEOPayGrowth, 150, MetricWorkerPayGrowth, 4),
		Point(1990, MetricCEOPayGrowth, 300, MetricWorkerPayGrowth, 6),
		Point(1995, MetricCEOPayGrowth, 550, MetricWorkerPayGrowth, 7),
		Point(2000, MetricCEOPayGrowth, 1200, MetricWorkerPayGrowth, 12),
		Point(2005, MetricCEOPayGrowth, 850, MetricWorkerPayGrowth, 13),
		Point(2010, MetricCEOPayGrowth, 950, MetricWorkerPayGrowth, 14),
		Point(2015, MetricCEOPayGrowth, 1100, MetricWorkerPayGrowth, 15),
		Point(2021, MetricCEOPayGrowth, 1460, MetricWorkerPayGrowth, 18),
	},
	CostOfLiving: []ChartPoint{
		Point(1980, MetricWages, 100, MetricHousing, 100, MetricHealthcare, 100, MetricTuition, 100),
		Point(1990, MetricWages, 105, MetricHousing, 142, MetricHealthcare, 186, MetricTuition, 212),
		Point(2000, MetricWages, 110, MetricHousing, 195, MetricHealthcare, 265, MetricTuition, 360),
		Point(2010, MetricWages, 112, MetricHousing, 245, MetricHealthcare, 410, MetricTuition, 580),
		Point(2020, MetricWages, 116, MetricHousing, 325, MetricHealthcare, 560, MetricTuition, 720),
		Point(2023, MetricWages, 118, MetricHousing, 390, MetricHealthcare, 610, MetricTuition, 765),
	},
	Sources: []Citation{
		{Title: "RAND Corporation: Trends in Income From 1975 to 2018", URI: "https://www.rand.org/pubs/working_papers/WRA516-1.html"},
		{Title: "Economic Policy Institute: The Productivity-Pay Gap", URI: "https://www.epi.org/productivity-pay-gap/"},
		{Title: "EPI: CEO Pay vs. Typical Worker Pay", URI: "https://www.epi.org/publication/ceo-pay-in-2021/"},
	},
}

// Fallback returns a copy of the embedded dataset.
func Fallback() Data {
	return fallback.Clone()
}
