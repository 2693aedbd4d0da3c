package records

import (
	"strconv"
	"strings"
)

type StatCard struct {
	Title  string `json:"title"`
	Value  string `json:"value"`
	Change string `json:"change"`
}

func (s StatCard) Positive() bool { return strings.HasPrefix(s.Change, "+") }

type DistributionPoint struct {
	Month   string `json:"month"`
	Class10 int    `json:"class10"`
	Class11 int    `json:"class11"`
}

// Stats returns the summary cards. Only the total is derived from the list;
// the rest are fixed sample figures.
func (c *Controller) Stats() []StatCard {
	return []StatCard{
		{Title: "Total Students", Value: strconv.Itoa(c.Count()), Change: "+2.5%"},
		{Title: "Average Attendance", Value: "85%", Change: "-0.1%"},
		{Title: "Classes", Value: "12", Change: "+2.8%"},
		{Title: "Top Performers", Value: "24", Change: "+3.6%"},
	}
}

// ClassDistribution is fixed sample data for the distribution chart.
func ClassDistribution() []DistributionPoint {
	return []DistributionPoint{
		{Month: "Jan", Class10: 30, Class11: 45},
		{Month: "Feb", Class10: 35, Class11: 60},
		{Month: "Mar", Class10: 25, Class11: 45},
		{Month: "Apr", Class10: 35, Class11: 55},
		{Month: "May", Class10: 45, Class11: 40},
		{Month: "Jun", Class10: 45, Class11: 35},
	}
}
