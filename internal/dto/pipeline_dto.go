package dto

type ModelStatusResponse struct {
	ModelTrained bool    `json:"model_trained"`
	DataLoaded   bool    `json:"data_loaded"`
	ModelPath    *string `json:"model_path"`
}

type DateRange struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

type UploadResult struct {
	Message      string                 `json:"message"`
	RecordsCount int                    `json:"records_count"`
	DateRange    DateRange              `json:"date_range"`
	Stats        map[string]interface{} `json:"stats"`
}

type ModelMetrics struct {
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
	MAPE float64 `json:"mape"`
}

type TrainMetrics struct {
	SalesMetrics               ModelMetrics       `json:"sales_metrics"`
	CustomersMetrics           ModelMetrics       `json:"customers_metrics"`
	SalesFeatureImportance     map[string]float64 `json:"sales_feature_importance"`
	CustomersFeatureImportance map[string]float64 `json:"customers_feature_importance"`
	TrainingSamples            int                `json:"training_samples"`
	TestSamples                int                `json:"test_samples"`
}

type TrainResult struct {
	Message    string       `json:"message"`
	Metrics    TrainMetrics `json:"metrics"`
	ModelSaved string       `json:"model_saved"`
}

type PredictRequest struct {
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	PostalCode string `json:"postal_code" validate:"required,len=7,number"`
}

type DayForecast struct {
	Date          string            `json:"date"`
	Weather       string            `json:"weather"`
	MaxTemp       *float64          `json:"max_temp"`
	MinTemp       *float64          `json:"min_temp"`
	Precipitation map[string]string `json:"precipitation"`
}

type WeatherForecast struct {
	Source      string      `json:"source"`
	Location    string      `json:"location"`
	Today       DayForecast `json:"today"`
	Tomorrow    DayForecast `json:"tomorrow"`
	Weather     string      `json:"weather"`
	Temperature float64     `json:"temperature"`
}

type ConfidenceInterval struct {
	SalesLower     float64 `json:"sales_lower"`
	SalesUpper     float64 `json:"sales_upper"`
	CustomersLower float64 `json:"customers_lower"`
	CustomersUpper float64 `json:"customers_upper"`
}

type PredictionResult struct {
	Date               string             `json:"date"`
	PredictedSales     float64            `json:"predicted_sales"`
	PredictedCustomers int                `json:"predicted_customers"`
	WeatherForecast    WeatherForecast    `json:"weather_forecast"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
}

type HolidayImpact struct {
	HolidayAvg float64 `json:"holiday_avg"`
	RegularAvg float64 `json:"regular_avg"`
}

// DataStatsResponse is the wire shape of GET /api/data-stats.
type DataStatsResponse struct {
	TotalRecords  *int                   `json:"total_records,omitempty"`
	DateRange     DateRange              `json:"date_range"`
	Columns       []string               `json:"columns,omitempty"`
	Summary       map[string]interface{} `json:"summary,omitempty"`
	MonthlySales  map[string]float64     `json:"monthly_sales,omitempty"`
	WeekdaySales  map[string]float64     `json:"weekday_sales,omitempty"`
	WeatherImpact map[string]float64     `json:"weather_impact,omitempty"`
	HolidayImpact *HolidayImpact         `json:"holiday_impact,omitempty"`
}

type PredictionHistoryItem struct {
	Id                 int      `json:"id"`
	PredictionDate     string   `json:"prediction_date"`
	PredictedSales     float64  `json:"predicted_sales"`
	PredictedCustomers int      `json:"predicted_customers"`
	WeatherCondition   *string  `json:"weather_condition"`
	Temperature        *float64 `json:"temperature"`
	CreatedAt          string   `json:"created_at"`
}

type SalesTrendPoint struct {
	Month    string  `json:"month"`
	AvgSales float64 `json:"avg_sales"`
}

type DashboardModelStatus struct {
	Trained    bool `json:"trained"`
	DataLoaded bool `json:"data_loaded"`
}

type DashboardStats struct {
	TotalDataPoints  int                    `json:"total_data_points"`
	DateRange        DateRange              `json:"date_range"`
	LatestPrediction *PredictionHistoryItem `json:"latest_prediction"`
	ModelStatus      DashboardModelStatus   `json:"model_status"`
	SalesTrend       []SalesTrendPoint      `json:"sales_trend"`
	WeatherImpact    map[string]float64     `json:"weather_impact"`
}
