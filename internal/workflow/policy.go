package workflow

import "sales-forecast-client/internal/dto"

// StatusFallback is assumed when the status endpoint fails. It biases
// toward "something was uploaded" because the status endpoint lags behind
// uploads; it never falls back to "nothing is loaded".
func StatusFallback() Status {
	return Status{DataLoaded: true, ModelTrained: false, ModelPath: nil}
}

// UploadedStatus is what a successful upload determines.
func UploadedStatus() Status {
	return Status{DataLoaded: true, ModelTrained: false, ModelPath: nil}
}

// EmptyStatus is the state after a successful delete.
func EmptyStatus() Status {
	return Status{DataLoaded: false, ModelTrained: false, ModelPath: nil}
}

// StatusFromResponse converts the wire status. A trained model always
// implies loaded data in what the client presents.
func StatusFromResponse(res *dto.ModelStatusResponse) Status {
	return Status{
		DataLoaded:   res.DataLoaded || res.ModelTrained,
		ModelTrained: res.ModelTrained,
		ModelPath:    res.ModelPath,
	}
}

func DeriveActiveStep(status *Status, prediction *dto.PredictionResult) Step {
	switch {
	case prediction != nil:
		return StepResults
	case status == nil:
		return StepDashboard
	case !status.DataLoaded:
		return StepUpload
	case !status.ModelTrained:
		return StepTrain
	default:
		return StepPredict
	}
}

func DeriveTabAccess(status *Status, stats Statistics, prediction *dto.PredictionResult) TabAccess {
	return TabAccess{
		Statistics: (status != nil && status.DataLoaded) || stats != nil,
		Predict:    status != nil && status.ModelTrained,
		Results:    prediction != nil,
	}
}
