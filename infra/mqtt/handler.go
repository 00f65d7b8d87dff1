package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kilianp07/oncall/core/assign"
	"github.com/kilianp07/oncall/core/model"
	"github.com/kilianp07/oncall/core/monitoring"
	coremqtt "github.com/kilianp07/oncall/core/mqtt"
	"github.com/kilianp07/oncall/core/scheduler"
	"github.com/kilianp07/oncall/infra/logger"
)

// Runner executes one scheduling request.
type Runner interface {
	Run(ctx context.Context, req scheduler.Request, source string) (*scheduler.Run, error)
}

// Response is published on <result topic>/<request id> for every request.
type Response struct {
	RequestID   string             `json:"request_id"`
	RunID       string             `json:"run_id,omitempty"`
	Status      string             `json:"status"`
	Error       string             `json:"error,omitempty"`
	ErrorKind   string             `json:"error_kind,omitempty"`
	Year        int                `json:"year,omitempty"`
	Assignments []model.Assignment `json:"assignments,omitempty"`
	Unmet       []model.UnmetDay   `json:"unmet,omitempty"`
	TotalFlow   int64              `json:"total_flow"`
	Required    int64              `json:"required"`
	Infeasible  bool               `json:"infeasible"`
	Load        map[string]int     `json:"load,omitempty"`
	Stats       *assign.LoadStats  `json:"stats,omitempty"`
}

// Response statuses.
const (
	StatusOK         = "ok"
	StatusInfeasible = "infeasible"
	StatusError      = "error"
)

// RequestHandler turns request messages into scheduling runs and publishes
// their results.
type RequestHandler struct {
	runner Runner
	pub    coremqtt.Publisher
	prefix string
	log    logger.Logger

	ctx context.Context
	wg  sync.WaitGroup
}

// NewRequestHandler returns a handler publishing results under resultTopic.
func NewRequestHandler(r Runner, pub coremqtt.Publisher, resultTopic string, log logger.Logger) *RequestHandler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &RequestHandler{
		runner: r,
		pub:    pub,
		prefix: strings.TrimSuffix(resultTopic, "/"),
		log:    log,
		ctx:    context.Background(),
	}
}

// Listen subscribes to topic. Runs started by incoming messages inherit ctx.
func (h *RequestHandler) Listen(ctx context.Context, sub coremqtt.Client, topic string) error {
	h.ctx = ctx
	if err := sub.Subscribe(topic, h.Handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	h.log.Infof("listening for scheduling requests on %s", topic)
	return nil
}

// Handle processes one message asynchronously.
func (h *RequestHandler) Handle(topic string, payload []byte) {
	id := requestID(topic)
	body := append([]byte(nil), payload...)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer monitoring.Absorb()
		h.process(h.ctx, id, body)
	}()
}

// Wait blocks until in-flight requests have been answered.
func (h *RequestHandler) Wait() { h.wg.Wait() }

func (h *RequestHandler) process(ctx context.Context, id string, payload []byte) {
	resp := Response{RequestID: id}
	req, err := scheduler.DecodeRequest(bytes.NewReader(payload), "json")
	if err == nil {
		var run *scheduler.Run
		run, err = h.runner.Run(ctx, req, "mqtt:"+id)
		if err == nil {
			fill(&resp, run)
		}
	}
	if err != nil {
		resp.Status = StatusError
		resp.Error = err.Error()
		resp.ErrorKind = scheduler.FailureKind(err)
		h.log.Warnf("request %s failed: %v", id, err)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		h.log.Errorf("encode response %s: %v", id, err)
		return
	}
	topic := h.prefix + "/" + id
	if err := h.pub.Publish(context.WithoutCancel(ctx), topic, data); err != nil {
		h.log.Errorf("publish response %s: %v", id, err)
	}
}

func fill(resp *Response, run *scheduler.Run) {
	res := run.Result
	resp.RunID = run.ID
	resp.Year = run.Year
	resp.Status = StatusOK
	if res.Infeasible {
		resp.Status = StatusInfeasible
	}
	resp.Assignments = res.Assignments
	resp.Unmet = res.Unmet
	resp.TotalFlow = res.TotalFlow
	resp.Required = res.Required
	resp.Infeasible = res.Infeasible
	resp.Load = res.Load
	stats := res.Stats
	resp.Stats = &stats
}

// requestID is the last level of topic.
func requestID(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 && i < len(topic)-1 {
		return topic[i+1:]
	}
	return topic
}
