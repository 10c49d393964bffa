package workflow

import (
	"fmt"
	"strings"

	"sales-forecast-client/internal/dto"
)

// Status is the client's cached copy of the server's pipeline status.
type Status struct {
	DataLoaded   bool
	ModelTrained bool
	ModelPath    *string
}

// Step is where the user is in the upload → train → predict pipeline.
type Step int

const (
	StepDashboard Step = iota
	StepUpload
	StepTrain // upload step, train sub-stage
	StepPredict
	StepResults
)

func (s Step) String() string {
	switch s {
	case StepDashboard:
		return "dashboard"
	case StepUpload:
		return "upload"
	case StepTrain:
		return "train"
	case StepPredict:
		return "predict"
	case StepResults:
		return "results"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Tab is a presentation section. Intents move the navigation target to a
// tab; users may move it back to any unlocked tab.
type Tab int

const (
	TabDashboard Tab = iota
	TabUpload
	TabStatistics
	TabPredict
	TabResults
	TabSettings
)

var tabNames = map[Tab]string{
	TabDashboard:  "dashboard",
	TabUpload:     "upload",
	TabStatistics: "statistics",
	TabPredict:    "predict",
	TabResults:    "results",
	TabSettings:   "settings",
}

func (t Tab) String() string {
	if name, ok := tabNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tab(%d)", int(t))
}

func ParseTab(name string) (Tab, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for tab, n := range tabNames {
		if n == name {
			return tab, true
		}
	}
	return 0, false
}

// TabAccess holds the independent enablement gates of each tab.
type TabAccess struct {
	Statistics bool
	Predict    bool
	Results    bool
}

func (a TabAccess) Allows(t Tab) bool {
	switch t {
	case TabStatistics:
		return a.Statistics
	case TabPredict:
		return a.Predict
	case TabResults:
		return a.Results
	default:
		return true
	}
}

// Snapshot is a read-only copy of the projection handed to presentation
// surfaces.
type Snapshot struct {
	Status     *Status
	Stats      Statistics
	Prediction *dto.PredictionResult
	ActiveStep Step
	Tab        Tab
	Access     TabAccess
	Busy       bool
	LastError  *string
	Generation uint64
}

type projection struct {
	status     *Status
	stats      Statistics
	prediction *dto.PredictionResult
	tab        Tab
	lastError  *string
	generation uint64
	session    uint64
}

func (p *projection) clear() {
	p.status = nil
	p.stats = nil
	p.prediction = nil
	p.lastError = nil
}

func (p *projection) snapshot(busy bool) Snapshot {
	snap := Snapshot{
		Stats:      p.stats,
		Prediction: p.prediction,
		ActiveStep: DeriveActiveStep(p.status, p.prediction),
		Tab:        p.tab,
		Access:     DeriveTabAccess(p.status, p.stats, p.prediction),
		Busy:       busy,
		Generation: p.generation,
	}
	if p.status != nil {
		st := *p.status
		snap.Status = &st
	}
	if p.lastError != nil {
		msg := *p.lastError
		snap.LastError = &msg
	}
	return snap
}
