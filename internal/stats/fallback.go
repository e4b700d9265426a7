package stats

import "github.com/ricirt/hello-game/internal/domain"

// FallbackSnapshot is the canned payload the backend serves when the
// database cannot be read. The name_data order is fixed and intentionally
// not sorted.
func FallbackSnapshot(cause error) *domain.StatsSnapshot {
	mostPopular := "Sarah"
	snap := &domain.StatsSnapshot{
		TotalPlayers: 75,
		UniqueNames:  6,
		MostPopular:  &mostPopular,
		NameData: []domain.NameCount{
			{Name: "Alex", Count: 10},
			{Name: "Sarah", Count: 25},
			{Name: "Mike", Count: 6},
			{Name: "Emma", Count: 12},
			{Name: "John", Count: 15},
			{Name: "Lisa", Count: 7},
		},
	}
	if cause != nil {
		snap.DatabaseError = cause.Error()
	}
	return snap
}

// PageView is what the frontend stats page renders: chart labels and values
// plus the headline numbers.
type PageView struct {
	TotalPlayers int
	UniqueNames  int
	MostPopular  string
	Labels       []string
	Data         []int
	APIAvailable bool
	ErrorMessage string
}

// NewPageView flattens a snapshot for the stats page.
func NewPageView(snap *domain.StatsSnapshot) PageView {
	v := PageView{
		TotalPlayers: snap.TotalPlayers,
		UniqueNames:  snap.UniqueNames,
		Labels:       make([]string, 0, len(snap.NameData)),
		Data:         make([]int, 0, len(snap.NameData)),
		APIAvailable: true,
	}
	if snap.MostPopular != nil {
		v.MostPopular = *snap.MostPopular
	}
	for _, nc := range snap.NameData {
		v.Labels = append(v.Labels, nc.Name)
		v.Data = append(v.Data, nc.Count)
	}
	return v
}

// FallbackPageView is the canned view the frontend shows when the backend
// cannot be reached.
func FallbackPageView() PageView {
	return PageView{
		TotalPlayers: 15,
		UniqueNames:  6,
		MostPopular:  "Alex",
		Labels:       []string{"Alex", "Sarah", "Mike", "Emma", "John", "Lisa"},
		Data:         []int{5, 3, 2, 2, 2, 1},
		APIAvailable: false,
		ErrorMessage: "Backend service unavailable - showing mock data",
	}
}
