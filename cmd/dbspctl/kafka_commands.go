package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/dbspctl/internal/config"
	"github.com/five82/dbspctl/internal/kafka"
)

func newKafkaCommand(ctx *commandContext) *cobra.Command {
	var brokers []string
	kafkaCmd := &cobra.Command{
		Use:   "kafka",
		Short: "Prepare Kafka topics for pipelines",
	}
	kafkaCmd.PersistentFlags().StringSliceVar(&brokers, "brokers", nil, "Kafka brokers (defaults to kafka_brokers)")

	resolveBrokers := func() ([]string, error) {
		if len(brokers) > 0 {
			return brokers, nil
		}
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return nil, err
		}
		return cfg.KafkaBrokers, nil
	}

	kafkaCmd.AddCommand(newKafkaEnsureTopicsCommand(resolveBrokers))
	kafkaCmd.AddCommand(newKafkaProduceCommand(ctx, resolveBrokers))
	return kafkaCmd
}

func newKafkaEnsureTopicsCommand(brokers func() ([]string, error)) *cobra.Command {
	var pipelinePath string
	var partitions int
	var replication int
	cmd := &cobra.Command{
		Use:   "ensure-topics [TOPIC...]",
		Short: "Create topics, including those a pipeline file references",
		RunE: func(cmd *cobra.Command, args []string) error {
			topics := append([]string(nil), args...)
			if strings.TrimSpace(pipelinePath) != "" {
				file, err := config.LoadPipelineFile(pipelinePath)
				if err != nil {
					return err
				}
				topics = append(topics, kafka.Topics(file.Inputs, file.Outputs)...)
			}
			if len(topics) == 0 {
				return errors.New("no topics given; pass topic names or --pipeline")
			}
			list, err := brokers()
			if err != nil {
				return err
			}
			return provisionTopics(cmd, list, topics, partitions, replication)
		},
	}
	cmd.Flags().StringVarP(&pipelinePath, "pipeline", "p", "", "Pipeline endpoints file (TOML)")
	cmd.Flags().IntVar(&partitions, "partitions", 1, "Partitions per new topic")
	cmd.Flags().IntVar(&replication, "replication", 1, "Replication factor per new topic")
	return cmd
}

func provisionTopics(cmd *cobra.Command, brokers, topics []string, partitions, replication int) error {
	if len(topics) == 0 {
		return nil
	}
	client, err := kafka.NewClient(&kafka.Config{Brokers: brokers})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.EnsureTopics(cmd.Context(), topics, partitions, replication); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Topics ready: %s\n", strings.Join(topics, ", "))
	return nil
}

func newKafkaProduceCommand(ctx *commandContext, brokers func() ([]string, error)) *cobra.Command {
	var inputPath string
	cmd := &cobra.Command{
		Use:   "produce TOPIC",
		Short: "Send CSV rows to a topic, one record per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if path := strings.TrimSpace(inputPath); path != "" && path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			list, err := brokers()
			if err != nil {
				return err
			}
			client, err := kafka.NewClient(&kafka.Config{Brokers: list})
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := client.ProduceCSV(cmd.Context(), args[0], in)
			if logger, lerr := ctx.loggerFor(false); lerr == nil {
				logger.Info("produced csv records", "topic", args[0], "records", n)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Produced %d records to %s\n", n, args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputPath, "file", "f", "", "CSV input file (defaults to stdin)")
	return cmd
}
