package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"sales-forecast-client/internal/dto"
	"sales-forecast-client/internal/gateway"
)

// Doer is the slice of the gateway the services need.
type Doer interface {
	Do(ctx context.Context, req gateway.Request, out interface{}) error
}

// IPipelineService is a one-to-one translation of the backend pipeline
// endpoints. It holds no state and never suppresses errors.
type IPipelineService interface {
	Health(ctx context.Context) (*dto.MessageResponse, error)
	UploadData(ctx context.Context, fileName string, content []byte) (*dto.UploadResult, error)
	TrainModel(ctx context.Context) (*dto.TrainResult, error)
	Predict(ctx context.Context, req *dto.PredictRequest) (*dto.PredictionResult, error)
	ModelStatus(ctx context.Context) (*dto.ModelStatusResponse, error)
	DataStats(ctx context.Context) (*dto.DataStatsResponse, error)
	DashboardStats(ctx context.Context) (*dto.DashboardStats, error)
	PredictionHistory(ctx context.Context, skip, limit int) ([]dto.PredictionHistoryItem, error)
	DeleteUserData(ctx context.Context) (*dto.MessageResponse, error)
}

type pipelineService struct {
	gw Doer
}

func NewPipelineService(gw Doer) IPipelineService {
	return &pipelineService{gw: gw}
}

func (s *pipelineService) Health(ctx context.Context) (*dto.MessageResponse, error) {
	var res dto.MessageResponse
	if err := s.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/api/health"}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *pipelineService) UploadData(ctx context.Context, fileName string, content []byte) (*dto.UploadResult, error) {
	var res dto.UploadResult
	err := s.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/api/upload-data",
		File:   &gateway.FilePart{Field: "file", FileName: fileName, Content: content},
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *pipelineService) TrainModel(ctx context.Context) (*dto.TrainResult, error) {
	var res dto.TrainResult
	if err := s.gw.Do(ctx, gateway.Request{Method: http.MethodPost, Path: "/api/train-model"}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *pipelineService) Predict(ctx context.Context, req *dto.PredictRequest) (*dto.PredictionResult, error) {
	var res dto.PredictionResult
	if err := s.gw.Do(ctx, gateway.Request{Method: http.MethodPost, Path: "/api/predict", Body: req}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *pipelineService) ModelStatus(ctx context.Context) (*dto.ModelStatusResponse, error) {
	var res dto.ModelStatusResponse
	if err := s.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/api/model-status"}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *pipelineService) DataStats(ctx context.Context) (*dto.DataStatsResponse, error) {
	var res dto.DataStatsResponse
	if err := s.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/api/data-stats"}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *pipelineService) DashboardStats(ctx context.Context) (*dto.DashboardStats, error) {
	var res dto.DashboardStats
	if err := s.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/api/user/dashboard"}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *pipelineService) PredictionHistory(ctx context.Context, skip, limit int) ([]dto.PredictionHistoryItem, error) {
	query := url.Values{}
	query.Set("skip", strconv.Itoa(skip))
	query.Set("limit", strconv.Itoa(limit))

	res := []dto.PredictionHistoryItem{}
	err := s.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/api/user/predictions", Query: query}, &res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *pipelineService) DeleteUserData(ctx context.Context) (*dto.MessageResponse, error) {
	var res dto.MessageResponse
	if err := s.gw.Do(ctx, gateway.Request{Method: http.MethodDelete, Path: "/api/user/data"}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
