package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/oncall/core/metrics"
	"github.com/kilianp07/oncall/infra/logger"
)

// InfluxConfig configures an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes scheduling runs to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordRun writes one schedule_run point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_run").
		AddTag("run_id", ev.RunID).
		AddTag("year", strconv.Itoa(ev.Year)).
		AddTag("infeasible", boolTag(ev.Infeasible))
	if ev.Source != "" {
		p = p.AddTag("source", ev.Source)
	}
	p = p.AddField("residents", ev.Residents).
		AddField("call_days", ev.CallDays).
		AddField("required", ev.Required).
		AddField("total_flow", ev.TotalFlow).
		AddField("unmet_days", ev.UnmetDays).
		AddField("phases", ev.Phases).
		AddField("coverage", round3(ev.Coverage())).
		AddField("load_std_dev", round3(ev.LoadStdDev)).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordLoad writes one resident_load point per resident.
func (s *InfluxSink) RecordLoad(ev coremetrics.LoadEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Load))
	for id, n := range ev.Load {
		points = append(points, write.NewPointWithMeasurement("resident_load").
			AddTag("run_id", ev.RunID).
			AddTag("resident_id", id).
			AddField("calls", n).
			SetTime(ev.Time))
	}
	if len(points) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordFailure writes a schedule_failure point.
func (s *InfluxSink) RecordFailure(ev coremetrics.FailureEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_failure").
		AddTag("run_id", ev.RunID).
		AddTag("kind", ev.Kind).
		AddField("error", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func boolTag(b bool) string { return strconv.FormatBool(b) }
