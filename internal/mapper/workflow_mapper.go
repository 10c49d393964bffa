package mapper

import (
	"sales-forecast-client/internal/dto"
	"sales-forecast-client/internal/workflow"
)

type WorkflowMapper struct{}

func NewWorkflowMapper() *WorkflowMapper {
	return &WorkflowMapper{}
}

func (m *WorkflowMapper) ToSnapshotResponse(s workflow.Snapshot) *dto.WorkflowSnapshotResponse {
	res := &dto.WorkflowSnapshotResponse{
		Stats:      m.ToStatisticsResponse(s.Stats),
		Prediction: s.Prediction,
		ActiveStep: s.ActiveStep.String(),
		Tab:        s.Tab.String(),
		Access: dto.TabAccessResponse{
			Dashboard:  true,
			Upload:     true,
			Statistics: s.Access.Statistics,
			Predict:    s.Access.Predict,
			Results:    s.Access.Results,
			Settings:   true,
		},
		Busy:       s.Busy,
		LastError:  s.LastError,
		Generation: s.Generation,
	}
	if s.Status != nil {
		res.Status = &dto.WorkflowStatusResponse{
			DataLoaded:   s.Status.DataLoaded,
			ModelTrained: s.Status.ModelTrained,
			ModelPath:    s.Status.ModelPath,
		}
	}
	return res
}

func (m *WorkflowMapper) ToStatisticsResponse(stats workflow.Statistics) *dto.StatisticsResponse {
	switch st := stats.(type) {
	case *workflow.AuthoritativeStatistics:
		return &dto.StatisticsResponse{
			Source:        string(st.Source()),
			TotalRecords:  st.Records,
			DateRange:     st.Range,
			Columns:       st.Columns,
			Summary:       st.Summary,
			MonthlySales:  st.MonthlySales,
			WeekdaySales:  st.WeekdaySales,
			WeatherImpact: st.WeatherImpact,
			HolidayImpact: st.HolidayImpact,
		}
	case *workflow.FallbackStatistics:
		return &dto.StatisticsResponse{
			Source:       string(st.Source()),
			Origin:       string(st.Origin),
			TotalRecords: st.Records,
			DateRange:    st.Range,
			Summary:      st.Summary,
		}
	default:
		return nil
	}
}

func (m *WorkflowMapper) ToDashboardResponse(d *workflow.Dashboard) *dto.DashboardResponse {
	if d == nil {
		return nil
	}
	history := d.History
	if history == nil {
		history = []dto.PredictionHistoryItem{}
	}
	return &dto.DashboardResponse{Stats: d.Stats, History: history}
}
