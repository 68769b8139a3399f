package mqtt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/tradeflow/core/model"
	coremon "github.com/kilianp07/tradeflow/core/monitoring"
	"github.com/kilianp07/tradeflow/infra/logger"
)

// Publisher sends per-year allocation summaries to an MQTT broker. It
// satisfies the metrics sink interface and is registered as type "mqtt".
type Publisher struct {
	cli     pahoClient
	cfg     Config
	backoff time.Duration
	logger  logger.Logger
}

// yearSummary is the JSON payload published for each year.
type yearSummary struct {
	RunID            string  `json:"run_id"`
	Year             int     `json:"year"`
	Status           string  `json:"status"`
	Strategy         string  `json:"strategy,omitempty"`
	Records          int     `json:"records"`
	TotalSupply      int64   `json:"total_supply"`
	TotalDemand      int64   `json:"total_demand"`
	TotalEmitted     int64   `json:"total_emitted"`
	Imbalance        int64   `json:"imbalance"`
	MaxRelDeviation  float64 `json:"max_rel_deviation"`
	ExportMismatches int     `json:"export_mismatches"`
	Error            string  `json:"error,omitempty"`
	Timestamp        int64   `json:"timestamp"`
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &Publisher{
		cli:     c,
		cfg:     cfg,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:  log,
	}, nil
}

// Topic returns the summary topic for a year.
func (p *Publisher) Topic(year int) string {
	return p.cfg.TopicPrefix + "/" + strconv.Itoa(year)
}

// RecordYear publishes the summary of one year.
func (p *Publisher) RecordYear(r model.YearReport) error {
	payload, err := json.Marshal(yearSummary{
		RunID:            r.RunID,
		Year:             r.Year,
		Status:           string(r.Status),
		Strategy:         r.Strategy,
		Records:          r.Records,
		TotalSupply:      r.TotalSupply,
		TotalDemand:      r.TotalDemand,
		TotalEmitted:     r.TotalEmitted,
		Imbalance:        r.Imbalance(),
		MaxRelDeviation:  r.MaxRelDeviation,
		ExportMismatches: r.ExportMismatches,
		Error:            r.Error,
		Timestamp:        r.Time.UnixMilli(),
	})
	if err != nil {
		return err
	}
	return p.publish(p.Topic(r.Year), payload)
}

// RecordRun publishes the run summary on the run topic.
func (p *Publisher) RecordRun(s model.RunSummary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.publish(p.cfg.RunTopic, payload)
}

func (p *Publisher) publish(topic string, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		token := p.cli.Publish(topic, p.cfg.QoS, p.cfg.Retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.cfg.MaxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	coremon.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": topic})
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}
