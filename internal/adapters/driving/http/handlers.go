package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/saron-retail/saron-core/internal/core/domain"
	"github.com/saron-retail/saron-core/internal/core/services"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// SyncStoreRequest is the body of POST /sync/store and POST /sync/all
type SyncStoreRequest struct {
	StoreID   string `json:"store_id,omitempty" example:"saron1"`
	StartDate string `json:"start_date" example:"2024-01-01"`
	EndDate   string `json:"end_date" example:"2024-01-31"`
}

// SyncResponse wraps the per-store results of a sync trigger.
// Success is true when every configured store succeeded; stores without
// credentials still appear in Results with not_configured set.
// @Description Outcome of a synchronous sync run
type SyncResponse struct {
	Success bool                 `json:"success"`
	Results []*domain.SyncResult `json:"results"`
}

// TaskAcceptedResponse is returned when a sync is queued instead of run inline
type TaskAcceptedResponse struct {
	TaskID string          `json:"task_id"`
	Type   domain.TaskType `json:"type"`
}

// SalesResponse is a page of locally stored sales
type SalesResponse struct {
	Sales []*domain.Sale `json:"sales"`
	Count int            `json:"count"`
}

// ERPResponse is the outcome of a live multi-store read
type ERPResponse struct {
	Data   map[domain.StoreID][]domain.ExternalRecord `json:"data"`
	Errors map[domain.StoreID]string                  `json:"errors"`
	Total  int                                        `json:"total"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings PostgreSQL, Redis and the task queue when configured
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	ready := true
	check := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(r.Context()); err != nil {
			checks[name] = err.Error()
			ready = false
			return
		}
		checks[name] = "ok"
	}

	check("database", s.db)
	check("redis", s.redisClient)
	if s.taskQueue != nil {
		check("queue", s.taskQueue)
	}

	status := http.StatusOK
	checks["status"] = "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		checks["status"] = "not ready"
	}
	writeJSON(w, status, checks)
}

// handleVersion godoc
// @Summary      Get API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Sync endpoints

// handleSyncToday godoc
// @Summary      Sync today's sales for every store
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Param        async  query     bool  false  "Queue the sync instead of waiting for it"
// @Success      200    {object}  SyncResponse
// @Success      202    {object}  TaskAcceptedResponse
// @Router       /sync/today [post]
func (s *Server) handleSyncToday(w http.ResponseWriter, r *http.Request) {
	if isAsync(r) {
		s.enqueue(w, r, domain.NewTask(domain.TaskTypeSyncToday, nil))
		return
	}
	writeSyncResults(w, s.syncService.SyncToday(r.Context()))
}

// handleSyncMonth godoc
// @Summary      Sync the current calendar month for every store
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Param        async  query     bool  false  "Queue the sync instead of waiting for it"
// @Success      200    {object}  SyncResponse
// @Success      202    {object}  TaskAcceptedResponse
// @Router       /sync/month [post]
func (s *Server) handleSyncMonth(w http.ResponseWriter, r *http.Request) {
	if isAsync(r) {
		s.enqueue(w, r, domain.NewTask(domain.TaskTypeSyncCurrentMonth, nil))
		return
	}
	writeSyncResults(w, s.syncService.SyncCurrentMonth(r.Context()))
}

// handleSyncFull godoc
// @Summary      Re-import every store's full sales history
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Param        async  query     bool  false  "Queue the sync instead of waiting for it"
// @Success      200    {object}  SyncResponse
// @Success      202    {object}  TaskAcceptedResponse
// @Router       /sync/full [post]
func (s *Server) handleSyncFull(w http.ResponseWriter, r *http.Request) {
	if isAsync(r) {
		s.enqueue(w, r, domain.NewTask(domain.TaskTypeSyncFullHistory, nil))
		return
	}
	writeSyncResults(w, s.syncService.SyncFullHistory(r.Context()))
}

// handleSyncAll godoc
// @Summary      Sync every store over an explicit window
// @Tags         Sync
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SyncStoreRequest  true  "Window"
// @Success      200      {object}  SyncResponse
// @Success      202      {object}  TaskAcceptedResponse
// @Failure      400      {object}  ErrorResponse
// @Router       /sync/all [post]
func (s *Server) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	var req SyncStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	window, err := domain.ParseDateWindow(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if isAsync(r) {
		s.enqueue(w, r, domain.NewSyncAllTask(window))
		return
	}
	writeSyncResults(w, s.syncService.SyncAllStores(r.Context(), window))
}

// handleSyncStore godoc
// @Summary      Sync one store over an explicit window
// @Description  Replaces the store's local sales in the window with the ERP's view.
// @Description  Returns 409 when the same store and window are already syncing.
// @Tags         Sync
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SyncStoreRequest  true  "Store and window"
// @Success      200      {object}  domain.SyncResult
// @Success      202      {object}  TaskAcceptedResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  domain.SyncResult
// @Failure      502      {object}  domain.SyncResult
// @Router       /sync/store [post]
func (s *Server) handleSyncStore(w http.ResponseWriter, r *http.Request) {
	var req SyncStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	store, err := domain.ParseStoreID(req.StoreID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown store_id")
		return
	}
	window, err := domain.ParseDateWindow(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if isAsync(r) {
		s.enqueue(w, r, domain.NewSyncStoreTask(store, window))
		return
	}

	result := s.syncService.SyncStore(r.Context(), store, window)
	switch {
	case result.Success:
		writeJSON(w, http.StatusOK, result)
	case result.Error == domain.ErrSyncInProgress.Error():
		writeJSON(w, http.StatusConflict, result)
	default:
		writeJSON(w, http.StatusBadGateway, result)
	}
}

// handleSyncStatus godoc
// @Summary      Progress of a store window
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Param        store_id    query     string  true  "Store"
// @Param        start_date  query     string  true  "YYYY-MM-DD"
// @Param        end_date    query     string  true  "YYYY-MM-DD"
// @Success      200  {object}  domain.SyncProgress
// @Failure      404  {object}  ErrorResponse
// @Router       /sync/status [get]
func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	store, err := domain.ParseStoreID(q.Get("store_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown store_id")
		return
	}
	window, err := domain.ParseDateWindow(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	progress, ok := s.syncService.GetSyncStatus(store, window)
	if !ok {
		writeError(w, http.StatusNotFound, "no sync recorded for this window")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// handleGetTask godoc
// @Summary      Status of a queued sync
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  ErrorResponse
// @Router       /tasks/{id} [get]
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	if s.taskQueue == nil {
		writeError(w, http.StatusServiceUnavailable, "task queue not configured")
		return
	}

	task, err := s.taskQueue.GetTask(r.Context(), r.PathValue("id"))
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Schedule endpoints

// handleListSchedules godoc
// @Summary      List recurring syncs
// @Tags         Schedules
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.ScheduledTask
// @Router       /schedules [get]
func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}

	tasks, err := s.scheduler.ListScheduledTasks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list schedules")
		return
	}
	if tasks == nil {
		tasks = []*domain.ScheduledTask{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// handleTriggerSchedule godoc
// @Summary      Enqueue a schedule's sync now
// @Tags         Schedules
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Schedule ID"
// @Success      202  {object}  TaskAcceptedResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /schedules/{id}/trigger [post]
func (s *Server) handleTriggerSchedule(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}

	task, err := s.scheduler.TriggerNow(r.Context(), r.PathValue("id"))
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "schedule not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to trigger schedule")
		return
	}
	writeJSON(w, http.StatusAccepted, TaskAcceptedResponse{TaskID: task.ID, Type: task.Type})
}

// Sales endpoints

// handleListSales godoc
// @Summary      List locally synced sales
// @Description  Sellers can only read their own store.
// @Tags         Sales
// @Produce      json
// @Security     BearerAuth
// @Param        store_id    query     string  true   "Store"
// @Param        start_date  query     string  false  "YYYY-MM-DD"
// @Param        end_date    query     string  false  "YYYY-MM-DD"
// @Param        limit       query     int     false  "Page size (default 50, max 500)"
// @Param        offset      query     int     false  "Offset"
// @Success      200  {object}  SalesResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /sales [get]
func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	store, err := domain.ParseStoreID(q.Get("store_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown store_id")
		return
	}
	if authCtx := GetAuthContext(r.Context()); authCtx.Role == domain.RoleSeller && authCtx.Store != store {
		writeError(w, http.StatusForbidden, "sellers can only read their own store")
		return
	}

	window, err := optionalWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := intParam(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	sales, err := s.saleService.List(r.Context(), domain.SaleFilter{
		Store:  store,
		Window: window,
		Limit:  limit,
		Offset: offset,
	})
	if errors.Is(err, domain.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sales")
		return
	}
	if sales == nil {
		sales = []*domain.Sale{}
	}
	writeJSON(w, http.StatusOK, SalesResponse{Sales: sales, Count: len(sales)})
}

// ERP endpoints

// handleERPStores godoc
// @Summary      Stores with usable ERP credentials
// @Tags         ERP
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   string
// @Router       /erp/stores [get]
func (s *Server) handleERPStores(w http.ResponseWriter, r *http.Request) {
	stores := s.erpReader.AvailableStores()
	if stores == nil {
		stores = []domain.StoreID{}
	}
	writeJSON(w, http.StatusOK, stores)
}

// handleERPResource godoc
// @Summary      Live multi-store ERP read
// @Description  A store that fails appears under errors; the other stores still return data.
// @Tags         ERP
// @Produce      json
// @Security     BearerAuth
// @Param        resource    path      string  true   "clients, products, sales or payables"
// @Param        start_date  query     string  false  "YYYY-MM-DD"
// @Param        end_date    query     string  false  "YYYY-MM-DD"
// @Param        page        query     int     false  "Single page; omit for every page"
// @Success      200  {object}  ERPResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /erp/{resource} [get]
func (s *Server) handleERPResource(w http.ResponseWriter, r *http.Request) {
	var read func(context.Context, domain.ERPQuery) *domain.FanOutResult
	switch r.PathValue("resource") {
	case "clients":
		read = s.erpReader.GetClients
	case "products":
		read = s.erpReader.GetProducts
	case "sales":
		read = s.erpReader.GetSales
	case "payables":
		read = s.erpReader.GetPayables
	default:
		writeError(w, http.StatusNotFound, "unknown ERP resource")
		return
	}

	window, err := optionalWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := intParam(r, "page")
	if err != nil || page < 0 {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}

	result := read(r.Context(), domain.ERPQuery{Window: window, Page: page})
	writeJSON(w, http.StatusOK, ERPResponse{
		Data:   result.Data,
		Errors: result.ErrorMessages(),
		Total:  result.Total(),
	})
}

// Helpers

func (s *Server) enqueue(w http.ResponseWriter, r *http.Request, task *domain.Task) {
	if s.taskQueue == nil {
		writeError(w, http.StatusServiceUnavailable, "task queue not configured")
		return
	}
	if err := s.taskQueue.Enqueue(r.Context(), task); err != nil {
		s.logger.Error("failed to enqueue sync", "type", task.Type, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue sync")
		return
	}
	writeJSON(w, http.StatusAccepted, TaskAcceptedResponse{TaskID: task.ID, Type: task.Type})
}

func writeSyncResults(w http.ResponseWriter, results []*domain.SyncResult) {
	resp := SyncResponse{Success: services.FirstError(results) == nil, Results: results}
	if resp.Results == nil {
		resp.Results = []*domain.SyncResult{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func isAsync(r *http.Request) bool {
	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	return async
}

// optionalWindow reads start_date/end_date; both or neither must be present.
func optionalWindow(r *http.Request) (*domain.DateWindow, error) {
	q := r.URL.Query()
	start, end := q.Get("start_date"), q.Get("end_date")
	if start == "" && end == "" {
		return nil, nil
	}
	window, err := domain.ParseDateWindow(start, end)
	if err != nil {
		return nil, err
	}
	return &window, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
