// Package kafka prepares the Kafka side of a pipeline: it creates the topics
// a pipeline's kafka endpoints reference and loads CSV rows into input
// topics. It uses franz-go (kgo for producing, kadm for topic admin).
package kafka
