package kafka

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Config selects the brokers to talk to.
type Config struct {
	Brokers []string
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("brokers are required")
	}
	for _, b := range c.Brokers {
		if strings.TrimSpace(b) == "" {
			return errors.New("broker address is empty")
		}
	}
	return nil
}

// Client provisions topics and feeds CSV input into them.
type Client struct {
	client *kgo.Client
}

func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &Client{client: client}, nil
}

func (k *Client) Close() {
	k.client.Close()
}

// EnsureTopics creates each topic, treating an existing topic as success.
func (k *Client) EnsureTopics(ctx context.Context, topics []string, partitions int, replication int) error {
	if len(topics) == 0 {
		return nil
	}
	adm := kadm.NewClient(k.client)
	resp, err := adm.CreateTopics(ctx, int32(partitions), int16(replication), nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	return topicErrors(topics, resp)
}

// topicErrors joins the per-topic failures in resp, ignoring topics that
// already exist.
func topicErrors(topics []string, resp kadm.CreateTopicResponses) error {
	var errs []error
	for _, topic := range topics {
		r, ok := resp[topic]
		if !ok || r.Err == nil || errors.Is(r.Err, kerr.TopicAlreadyExists) {
			continue
		}
		errs = append(errs, fmt.Errorf("create topic %s: %w", topic, r.Err))
	}
	return errors.Join(errs...)
}

// ProduceCSV sends each non-empty line of r as one record to topic and
// returns how many were acknowledged.
func (k *Client) ProduceCSV(ctx context.Context, topic string, r io.Reader) (int, error) {
	records, err := csvRecords(topic, r)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	results := k.client.ProduceSync(ctx, records...)
	produced := 0
	for _, res := range results {
		if res.Err == nil {
			produced++
		}
	}
	if err := results.FirstErr(); err != nil {
		return produced, fmt.Errorf("produce to %s: %w", topic, err)
	}
	return produced, nil
}

func csvRecords(topic string, r io.Reader) ([]*kgo.Record, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("topic is required")
	}
	var records []*kgo.Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		// The csv input format expects one newline-terminated row per record.
		records = append(records, &kgo.Record{Topic: topic, Value: []byte(line + "\n")})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}
