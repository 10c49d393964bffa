package workflow

import "sales-forecast-client/internal/dto"

type StatisticsSource string

const (
	SourceAuthoritative StatisticsSource = "authoritative"
	SourceFallback      StatisticsSource = "fallback"
)

// FallbackOrigin records which reconciliation path synthesized a fallback.
type FallbackOrigin string

const (
	OriginStatusRefresh  FallbackOrigin = "status-refresh"
	OriginUploadResponse FallbackOrigin = "upload-response"
)

// Statistics is either *AuthoritativeStatistics or *FallbackStatistics.
// Consumers switch on the concrete type; absent aggregates in a fallback
// mean "unknown", never "zero".
type Statistics interface {
	Source() StatisticsSource
	TotalRecords() (int, bool)
	DateRange() dto.DateRange
	isStatistics()
}

type AuthoritativeStatistics struct {
	Records       *int
	Range         dto.DateRange
	Columns       []string
	Summary       map[string]interface{}
	MonthlySales  map[string]float64
	WeekdaySales  map[string]float64
	WeatherImpact map[string]float64
	HolidayImpact *dto.HolidayImpact
}

func (s *AuthoritativeStatistics) Source() StatisticsSource { return SourceAuthoritative }
func (s *AuthoritativeStatistics) DateRange() dto.DateRange { return s.Range }
func (s *AuthoritativeStatistics) isStatistics()            {}

func (s *AuthoritativeStatistics) TotalRecords() (int, bool) {
	if s.Records == nil {
		return 0, false
	}
	return *s.Records, true
}

type FallbackStatistics struct {
	Origin  FallbackOrigin
	Records *int
	Range   dto.DateRange
	Summary map[string]interface{}
}

func (s *FallbackStatistics) Source() StatisticsSource { return SourceFallback }
func (s *FallbackStatistics) DateRange() dto.DateRange { return s.Range }
func (s *FallbackStatistics) isStatistics()            {}

func (s *FallbackStatistics) TotalRecords() (int, bool) {
	if s.Records == nil {
		return 0, false
	}
	return *s.Records, true
}

func AuthoritativeFromResponse(res *dto.DataStatsResponse) *AuthoritativeStatistics {
	return &AuthoritativeStatistics{
		Records:       res.TotalRecords,
		Range:         res.DateRange,
		Columns:       res.Columns,
		Summary:       res.Summary,
		MonthlySales:  res.MonthlySales,
		WeekdaySales:  res.WeekdaySales,
		WeatherImpact: res.WeatherImpact,
		HolidayImpact: res.HolidayImpact,
	}
}

// EmptyFallback is used when data is known to exist but its statistics
// could not be fetched during a status refresh.
func EmptyFallback() *FallbackStatistics {
	return &FallbackStatistics{Origin: OriginStatusRefresh}
}

// FallbackFromUpload keeps what the upload response itself reported.
func FallbackFromUpload(res *dto.UploadResult) *FallbackStatistics {
	records := res.RecordsCount
	return &FallbackStatistics{
		Origin:  OriginUploadResponse,
		Records: &records,
		Range:   res.DateRange,
		Summary: res.Stats,
	}
}
