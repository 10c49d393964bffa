package dto

type WorkflowStatusResponse struct {
	DataLoaded   bool    `json:"data_loaded"`
	ModelTrained bool    `json:"model_trained"`
	ModelPath    *string `json:"model_path"`
}

// StatisticsResponse flattens both statistics variants. Source tells them
// apart; aggregates absent from a fallback are null, not zero.
type StatisticsResponse struct {
	Source        string                 `json:"source"`
	Origin        string                 `json:"origin,omitempty"`
	TotalRecords  *int                   `json:"total_records"`
	DateRange     DateRange              `json:"date_range"`
	Columns       []string               `json:"columns,omitempty"`
	Summary       map[string]interface{} `json:"summary,omitempty"`
	MonthlySales  map[string]float64     `json:"monthly_sales"`
	WeekdaySales  map[string]float64     `json:"weekday_sales"`
	WeatherImpact map[string]float64     `json:"weather_impact"`
	HolidayImpact *HolidayImpact         `json:"holiday_impact"`
}

type TabAccessResponse struct {
	Dashboard  bool `json:"dashboard"`
	Upload     bool `json:"upload"`
	Statistics bool `json:"statistics"`
	Predict    bool `json:"predict"`
	Results    bool `json:"results"`
	Settings   bool `json:"settings"`
}

type WorkflowSnapshotResponse struct {
	Status     *WorkflowStatusResponse `json:"status"`
	Stats      *StatisticsResponse     `json:"stats"`
	Prediction *PredictionResult       `json:"prediction"`
	ActiveStep string                  `json:"active_step"`
	Tab        string                  `json:"tab"`
	Access     TabAccessResponse       `json:"access"`
	Busy       bool                    `json:"busy"`
	LastError  *string                 `json:"last_error"`
	Generation uint64                  `json:"generation"`
}

type NavigateRequest struct {
	Tab string `json:"tab" validate:"required"`
}

type DashboardResponse struct {
	Stats   *DashboardStats         `json:"stats"`
	History []PredictionHistoryItem `json:"history"`
}

type HealthResponse struct {
	Bridge  string `json:"bridge"`
	Backend string `json:"backend"`
}
