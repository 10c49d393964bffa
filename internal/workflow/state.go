package workflow

import (
	"context"
	"sync"
	"time"

	"sales-forecast-client/internal/apperror"
	"sales-forecast-client/internal/dto"
	"sales-forecast-client/internal/pkg/logger"
	"sales-forecast-client/internal/service"
	"sales-forecast-client/pkg/events"

	"golang.org/x/sync/errgroup"
)

const module = "workflow"

// EventPublisher receives a notification after every projection change.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Options struct {
	// ReassertDelay is how long after a delete the empty state is applied
	// a second time.
	ReassertDelay         time.Duration
	PredictionHorizonDays int
	HistoryLimit          int
	Clock                 func() time.Time
}

// Dashboard is the combined view of dashboard stats and recent predictions.
type Dashboard struct {
	Stats   *dto.DashboardStats
	History []dto.PredictionHistoryItem
}

// State is the reconciliation engine. It exclusively owns the projection
// of server state; everything else reads snapshots and issues intents.
//
// Every write intent bumps the projection generation. Reads (status and
// statistics) remember the generation they were issued at and are dropped
// when a write happened in between. Results of primary intents are dropped
// only when the session was reset while they were in flight.
type State struct {
	api       service.IPipelineService
	logger    logger.ILogger
	publisher EventPublisher
	opts      Options

	mu       sync.Mutex
	p        projection
	inflight int

	background sync.WaitGroup
}

func New(api service.IPipelineService, log logger.ILogger, publisher EventPublisher, opts Options) *State {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}
	return &State{
		api:       api,
		logger:    log,
		publisher: publisher,
		opts:      opts,
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.snapshot(s.inflight > 0)
}

// Start creates the projection for a freshly authenticated session.
func (s *State) Start(ctx context.Context) {
	s.Reset()
	s.RefreshStatus(ctx)
}

// Reset drops everything known about the server, as on logout.
func (s *State) Reset() {
	s.mu.Lock()
	s.p.clear()
	s.p.tab = TabDashboard
	s.p.session++
	s.p.generation++
	snap := s.p.snapshot(s.inflight > 0)
	s.mu.Unlock()

	s.publish(events.TypeReset, snap, nil)
}

// RefreshStatus reconciles status and statistics with the server. It never
// fails: a failed status call applies StatusFallback.
func (s *State) RefreshStatus(ctx context.Context) {
	_, done := s.begin(false)
	defer done()

	s.refresh(ctx, true)
	s.publish(events.TypeStatusRefreshed, s.Snapshot(), nil)
}

func (s *State) refresh(ctx context.Context, fallbackOnFailure bool) {
	s.refreshAt(ctx, s.generation(), fallbackOnFailure)
}

// refreshAt applies results only while the generation is still gen.
func (s *State) refreshAt(ctx context.Context, gen uint64, fallbackOnFailure bool) {
	res, err := s.api.ModelStatus(ctx)
	if err != nil {
		s.logger.Warn(module, "Model status unavailable", map[string]interface{}{
			"error":    err.Error(),
			"fallback": fallbackOnFailure,
		})
		if !fallbackOnFailure {
			return
		}
		status := StatusFallback()
		s.applyIfCurrent(gen, func(p *projection) { p.status = &status })
		return
	}

	status := StatusFromResponse(res)
	if !status.DataLoaded {
		s.applyIfCurrent(gen, func(p *projection) {
			p.status = &status
			p.stats = nil
		})
		return
	}
	if !s.applyIfCurrent(gen, func(p *projection) { p.status = &status }) {
		return
	}

	stats, err := s.api.DataStats(ctx)
	if err != nil {
		s.logger.Warn(module, "Data statistics unavailable, using empty fallback", map[string]interface{}{
			"error": err.Error(),
		})
		s.applyIfCurrent(gen, func(p *projection) { p.stats = EmptyFallback() })
		return
	}
	s.applyIfCurrent(gen, func(p *projection) { p.stats = AuthoritativeFromResponse(stats) })
}

// Upload sends a CSV file. The upload response decides the status; a
// statistics failure afterwards is not an upload failure.
func (s *State) Upload(ctx context.Context, fileName string, content []byte) (*dto.UploadResult, error) {
	if err := ValidateUploadFile(fileName); err != nil {
		return nil, s.reject(err)
	}
	payload, err := EncodeForUpload(content)
	if err != nil {
		return nil, s.reject(err)
	}

	session, done := s.begin(true)
	defer done()

	res, err := s.api.UploadData(ctx, fileName, payload)
	if err != nil {
		return nil, s.fail("upload", err)
	}

	snap, ok := s.write(session, func(p *projection) {
		status := UploadedStatus()
		p.status = &status
	})
	if !ok {
		return res, nil
	}
	gen := snap.Generation

	stats, err := s.api.DataStats(ctx)
	if err != nil {
		s.logger.Warn(module, "Data statistics unavailable after upload, using upload response", map[string]interface{}{
			"error":         err.Error(),
			"records_count": res.RecordsCount,
		})
		s.applyIfCurrent(gen, func(p *projection) { p.stats = FallbackFromUpload(res) })
	} else {
		s.applyIfCurrent(gen, func(p *projection) { p.stats = AuthoritativeFromResponse(stats) })
	}
	s.applyIfCurrent(gen, func(p *projection) { p.tab = TabStatistics })

	s.publish(events.TypeUploaded, s.Snapshot(), map[string]interface{}{
		"records_count": res.RecordsCount,
	})
	return res, nil
}

// Train trains the model, then reconciles twice: a full status refresh and
// a direct statistics re-fetch whose failure is only logged.
func (s *State) Train(ctx context.Context) (*dto.TrainResult, error) {
	session, done := s.begin(true)
	defer done()

	res, err := s.api.TrainModel(ctx)
	if err != nil {
		return nil, s.fail("train", err)
	}

	snap, ok := s.write(session, nil)
	if !ok {
		return res, nil
	}
	gen := snap.Generation
	s.refresh(ctx, true)

	stats, err := s.api.DataStats(ctx)
	if err != nil {
		s.logger.Warn(module, "Direct statistics re-fetch after training failed", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		s.applyIfCurrent(gen, func(p *projection) { p.stats = AuthoritativeFromResponse(stats) })
	}
	s.applyIfCurrent(gen, func(p *projection) { p.tab = TabStatistics })

	s.publish(events.TypeTrained, s.Snapshot(), map[string]interface{}{
		"training_samples": res.Metrics.TrainingSamples,
		"sales_r2":         res.Metrics.SalesMetrics.R2,
	})
	return res, nil
}

// Predict requests a prediction for date (YYYY-MM-DD) at postalCode. A
// failure keeps the previously stored result.
func (s *State) Predict(ctx context.Context, date, postalCode string) (*dto.PredictionResult, error) {
	req := &dto.PredictRequest{Date: date, PostalCode: postalCode}
	if err := ValidatePrediction(req, s.opts.Clock(), s.opts.PredictionHorizonDays); err != nil {
		return nil, s.reject(err)
	}

	session, done := s.begin(true)
	defer done()

	res, err := s.api.Predict(ctx, req)
	if err != nil {
		return nil, s.fail("predict", err)
	}

	snap, ok := s.write(session, func(p *projection) {
		p.prediction = res
		p.tab = TabResults
	})
	if !ok {
		return res, nil
	}
	s.publish(events.TypePredicted, snap, map[string]interface{}{
		"date":            res.Date,
		"predicted_sales": res.PredictedSales,
	})
	return res, nil
}

// DeleteData deletes the user's server-side data. On success the empty
// state is applied at once, reconciled in the background, and re-applied
// once after ReassertDelay unless a newer write happened.
func (s *State) DeleteData(ctx context.Context) error {
	session, done := s.begin(true)
	defer done()

	if _, err := s.api.DeleteUserData(ctx); err != nil {
		return s.fail("delete", err)
	}

	snap, ok := s.write(session, func(p *projection) {
		status := EmptyStatus()
		p.status = &status
		p.stats = nil
		p.prediction = nil
		p.tab = TabUpload
	})
	if !ok {
		return nil
	}
	s.publish(events.TypeDataDeleted, snap, nil)

	bgCtx := context.WithoutCancel(ctx)

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		// A failure here keeps the empty state.
		s.refreshAt(bgCtx, snap.Generation, false)
	}()

	s.background.Add(1)
	time.AfterFunc(s.opts.ReassertDelay, func() {
		defer s.background.Done()
		s.reassertEmpty(bgCtx, snap.Generation)
	})
	return nil
}

func (s *State) reassertEmpty(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if s.p.generation != gen {
		s.mu.Unlock()
		s.logger.Debug(module, "Skipping empty-state re-assertion, newer write applied", map[string]interface{}{
			"generation": gen,
		})
		return
	}
	status := EmptyStatus()
	s.p.status = &status
	s.p.stats = nil
	s.p.prediction = nil
	s.p.generation++
	snap := s.p.snapshot(s.inflight > 0)
	s.mu.Unlock()

	s.publishCtx(ctx, events.TypeStateReasserted, snap, nil)
}

// Navigate moves the navigation target to an unlocked tab.
func (s *State) Navigate(tab Tab) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := tabNames[tab]; !ok {
		return apperror.Validation("unknown tab")
	}
	access := DeriveTabAccess(s.p.status, s.p.stats, s.p.prediction)
	if !access.Allows(tab) {
		return apperror.Validation("the %s tab is not available yet", tab)
	}
	s.p.tab = tab
	return nil
}

// LoadDashboard fetches dashboard statistics and recent prediction history
// in parallel. It does not touch the projection.
func (s *State) LoadDashboard(ctx context.Context) (*Dashboard, error) {
	var dashboard Dashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.api.DashboardStats(gctx)
		if err != nil {
			return err
		}
		dashboard.Stats = stats
		return nil
	})
	g.Go(func() error {
		history, err := s.api.PredictionHistory(gctx, 0, s.opts.HistoryLimit)
		if err != nil {
			return err
		}
		dashboard.History = history
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn(module, "Dashboard load failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return &dashboard, nil
}

// WaitIdle blocks until background reconciliation from earlier intents has
// finished.
func (s *State) WaitIdle() {
	s.background.Wait()
}

// begin marks an intent in flight and returns the session it belongs to.
// Primary intents also clear the last error. The returned func must be
// deferred.
func (s *State) begin(primary bool) (uint64, func()) {
	s.mu.Lock()
	s.inflight++
	if primary {
		s.p.lastError = nil
	}
	session := s.p.session
	s.mu.Unlock()

	return session, func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}
}

func (s *State) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.generation
}

// write applies fn as a new generation, unless the session was reset since
// the intent began.
func (s *State) write(session uint64, fn func(p *projection)) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.p.session != session {
		s.logger.Info(module, "Dropping result of an intent from a previous session", map[string]interface{}{
			"session": session,
			"current": s.p.session,
		})
		return Snapshot{}, false
	}
	if fn != nil {
		fn(&s.p)
	}
	s.p.generation++
	return s.p.snapshot(s.inflight > 0), true
}

// applyIfCurrent applies fn only if no write happened since gen.
func (s *State) applyIfCurrent(gen uint64, fn func(p *projection)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.p.generation != gen {
		s.logger.Debug(module, "Discarding stale response", map[string]interface{}{
			"issued_at": gen,
			"current":   s.p.generation,
		})
		return false
	}
	fn(&s.p)
	return true
}

// reject records a local validation failure; nothing was sent.
func (s *State) reject(err error) error {
	msg := apperror.Message(err)
	s.mu.Lock()
	s.p.lastError = &msg
	s.mu.Unlock()
	return err
}

func (s *State) fail(intent string, err error) error {
	msg := apperror.Message(err)
	s.mu.Lock()
	s.p.lastError = &msg
	s.mu.Unlock()

	s.logger.Error(module, "Intent failed", map[string]interface{}{
		"intent": intent,
		"kind":   string(apperror.KindOf(err)),
		"error":  msg,
	})
	s.publish(events.TypeIntentFailed, s.Snapshot(), map[string]interface{}{
		"intent": intent,
		"kind":   string(apperror.KindOf(err)),
	})
	return err
}

func (s *State) publish(eventType string, snap Snapshot, extra map[string]interface{}) {
	s.publishCtx(context.Background(), eventType, snap, extra)
}

func (s *State) publishCtx(ctx context.Context, eventType string, snap Snapshot, extra map[string]interface{}) {
	if s.publisher == nil {
		return
	}

	data := map[string]interface{}{
		"active_step": snap.ActiveStep.String(),
		"tab":         snap.Tab.String(),
		"generation":  snap.Generation,
	}
	if snap.Status != nil {
		data["data_loaded"] = snap.Status.DataLoaded
		data["model_trained"] = snap.Status.ModelTrained
	}
	for k, v := range extra {
		data[k] = v
	}

	event := events.BaseEvent{Type: eventType, Data: data, OccurredAt: s.opts.Clock()}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn(module, "Failed to publish workflow event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
