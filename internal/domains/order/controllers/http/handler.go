package http

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/casherops/skladrelay/internal/domains/order"
	"github.com/casherops/skladrelay/internal/infra/broadcast"
	"github.com/casherops/skladrelay/internal/infra/config"
	"github.com/casherops/skladrelay/internal/infra/logger"
	"github.com/casherops/skladrelay/internal/infra/moysklad"
	"go.uber.org/zap"
)

//go:embed templates/dashboard.html
var templatesFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templatesFS, "templates/dashboard.html"))

const webhookWorkers = 4

// OrderHandler обрабатывает запросы дашборда и вебхуков
type OrderHandler struct {
	Config  *config.Config
	Service order.Service
	Hub     *broadcast.Hub
	Jobs    chan string
}

// Activate регистрирует обработчики запросов и запускает фоновые воркеры
func Activate(ctx context.Context, r *chi.Mux, cfg *config.Config, s order.Service, hub *broadcast.Hub) {
	jobs := make(chan string, 64)
	h := OrderHandler{
		Config:  cfg,
		Service: s,
		Hub:     hub,
		Jobs:    jobs,
	}
	r.Get("/", h.HandleDashboard)
	r.Get("/health", h.HandleHealth)
	r.Post("/refresh", h.HandleRefresh)
	r.Get("/events", h.HandleEvents)
	r.Post("/webhook/moysklad", h.HandleWebhook)

	go func() {
		if _, err := s.Refresh(ctx, "startup"); err != nil {
			logger.Log.Warn("Activate: startup refresh failed",
				zap.Error(err))
		}
	}()
	go workerRefreshCache(ctx, &h)
	for w := 1; w <= webhookWorkers; w++ {
		go workerProcessEvents(ctx, &h, jobs)
	}
}

type dashboardData struct {
	HasCache       bool
	Stale          bool
	UpdatedText    string
	StatusText     string
	NewOrders      int
	CdekOrders     int
	InitialPayload template.JS
}

// HandleDashboard передаёт страницу дашборда с вложенным начальным снимком
func (h *OrderHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()

	data := dashboardData{
		UpdatedText:    "не обновлялось",
		StatusText:     "Данные загружаются",
		InitialPayload: template.JS("null"),
	}

	snap, err := h.Service.Current(ctx)
	if err != nil {
		logger.Log.Warn("HandleDashboard: read cache failed",
			zap.Error(err))
	}
	if snap != nil {
		data.HasCache = true
		data.Stale = snap.Stale(now)
		data.StatusText = "Данные обновлены"
		data.NewOrders = snap.Stats.NewOrders
		data.CdekOrders = snap.Stats.CdekOrders
		if updated, ok := order.ParseMoment(snap.UpdatedAt); ok {
			data.UpdatedText = updated.Format("2006-01-02 15:04:05")
		}

		// json.Marshal экранирует < и >, вложение в скрипт безопасно
		payload, err := order.EventPayload(snap, now)
		if err != nil {
			logger.Log.Warn("HandleDashboard: initial payload build failed",
				zap.Error(err))
		} else {
			data.InitialPayload = template.JS(payload)
		}
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		logger.Log.Info("HandleDashboard: template execute failed",
			zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// HandleHealth отвечает на проверку живости процесса
func (h *OrderHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// HandleRefresh запускает внеплановое обновление кэша
func (h *OrderHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, err := h.Service.Refresh(ctx, "manual")
	if err != nil {
		logger.Log.Warn("HandleRefresh: manual refresh failed",
			zap.Error(err))
	}
	if snap == nil {
		snap, err = h.Service.Current(ctx)
		if err != nil {
			logger.Log.Warn("HandleRefresh: read cache failed",
				zap.Error(err))
		}
	}

	resp := struct {
		Status    string `json:"status"`
		UpdatedAt string `json:"updated_at,omitempty"`
	}{
		Status: "ok",
	}
	if snap != nil {
		resp.UpdatedAt = snap.UpdatedAt
	}

	respJSON, err := json.Marshal(resp)
	if err != nil {
		logger.Log.Info("HandleRefresh: response marshal failed",
			zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(respJSON)
}

// HandleEvents передаёт поток событий обновления кэша
func (h *OrderHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Log.Info("HandleEvents: response writer does not support streaming")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	sub := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Первое событие — текущий снимок, чтобы клиент не ждал изменений
	snap, err := h.Service.Current(ctx)
	if err != nil {
		logger.Log.Warn("HandleEvents: read cache failed",
			zap.Error(err))
	}
	if snap != nil {
		payload, err := order.EventPayload(snap, time.Now().UTC())
		if err != nil {
			logger.Log.Warn("HandleEvents: initial payload build failed",
				zap.Error(err))
		} else {
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-sub.C:
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

type webhookRequest struct {
	Events []struct {
		Meta moysklad.Meta `json:"meta"`
	} `json:"events"`
}

// HandleWebhook принимает пакет событий и ставит подходящие в очередь обработки.
// Ответ всегда успешный: события обрабатываются в фоне
func (h *OrderHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	var buf bytes.Buffer

	ack := func() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}

	if _, err := buf.ReadFrom(r.Body); err != nil {
		logger.Log.Info("HandleWebhook: read request body failed",
			zap.Error(err))
		ack()
		return
	}
	if err := json.Unmarshal(buf.Bytes(), &req); err != nil {
		logger.Log.Info("HandleWebhook: request unmarshal failed",
			zap.Error(err))
		ack()
		return
	}
	if len(req.Events) == 0 {
		logger.Log.Info("HandleWebhook: webhook received without events")
		ack()
		return
	}

	for _, event := range req.Events {
		if event.Meta.Type != "customerorder" || event.Meta.Href == "" {
			continue
		}
		h.Jobs <- event.Meta.Href
	}

	ack()
}
