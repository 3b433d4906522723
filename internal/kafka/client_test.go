package kafka

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"

	"github.com/five82/dbspctl/dbsp"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	require.Error(t, (&Config{}).Validate())
	require.Error(t, (&Config{Brokers: []string{"localhost:9092", " "}}).Validate())
	require.NoError(t, (&Config{Brokers: []string{"localhost:9092"}}).Validate())

	_, err := NewClient(&Config{})
	require.ErrorContains(t, err, "failed to validate config")
}

func TestCSVRecords(t *testing.T) {
	t.Parallel()

	input := "1,alice,100\r\n\n2,bob,250\n   \n3,carol,75"
	records, err := csvRecords("bids", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		require.Equal(t, "bids", r.Topic)
	}
	require.Equal(t, "1,alice,100\n", string(records[0].Value))
	require.Equal(t, "3,carol,75\n", string(records[2].Value))

	_, err = csvRecords(" ", strings.NewReader(input))
	require.Error(t, err)
}

func TestTopics(t *testing.T) {
	t.Parallel()

	inputs := map[string]dbsp.EndpointConfig{
		"bids":    {Transport: dbsp.KafkaInput([]string{"localhost:9092"}, "bids", "auctions")},
		"persons": {Transport: dbsp.Descriptor{Name: "kafka", Config: map[string]any{"topics": []any{"persons", 7}}}},
		"file":    {Transport: dbsp.FileInput("/tmp/in.csv")},
	}
	outputs := map[string]dbsp.EndpointConfig{
		"q1":  {Transport: dbsp.KafkaOutput([]string{"localhost:9092"}, "q1")},
		"dup": {Transport: dbsp.Descriptor{Name: "kafka", Config: map[string]any{"topic": "bids"}}},
	}

	require.Equal(t, []string{"auctions", "bids", "persons", "q1"}, Topics(inputs, outputs))
	require.Empty(t, Topics(nil))
}

func TestTopicErrors_IgnoresExistingTopics(t *testing.T) {
	t.Parallel()

	resp := kadm.CreateTopicResponses{
		"bids":     {Topic: "bids", Err: kerr.TopicAlreadyExists},
		"persons":  {Topic: "persons"},
		"auctions": {Topic: "auctions", Err: kerr.InvalidReplicationFactor},
	}

	require.NoError(t, topicErrors([]string{"bids", "persons"}, resp))

	err := topicErrors([]string{"bids", "persons", "auctions"}, resp)
	require.ErrorIs(t, err, kerr.InvalidReplicationFactor)
	require.ErrorContains(t, err, "create topic auctions")
	require.NotContains(t, err.Error(), "bids")
}
