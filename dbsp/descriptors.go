package dbsp

import "strings"

// KafkaInput describes a Kafka consumer reading the given topics.
func KafkaInput(brokers []string, topics ...string) Descriptor {
	return Descriptor{
		Name: "kafka",
		Config: map[string]any{
			"bootstrap.servers": strings.Join(brokers, ","),
			"auto.offset.reset": "earliest",
			"topics":            append([]string(nil), topics...),
		},
	}
}

// KafkaOutput describes a Kafka producer writing to topic.
func KafkaOutput(brokers []string, topic string) Descriptor {
	return Descriptor{
		Name: "kafka",
		Config: map[string]any{
			"bootstrap.servers": strings.Join(brokers, ","),
			"topic":             topic,
		},
	}
}

// FileInput reads records from a file on the server host.
func FileInput(path string) Descriptor {
	return Descriptor{Name: "file", Config: map[string]any{"path": path}}
}

// FileOutput writes records to a file on the server host.
func FileOutput(path string) Descriptor {
	return Descriptor{Name: "file", Config: map[string]any{"path": path}}
}

// CSVFormat is the comma-separated record format.
func CSVFormat() Descriptor {
	return Descriptor{Name: "csv"}
}
