package transport

import (
	"context"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/kafka-graphs/pregel-go/pregel"
)

// Kafka is a Kafka-backed MessageTransport (spec §6 "message transport
// contract"), the production collaborator this module was designed
// against (bit-exact naming with the kafka-graphs family this spec
// originates from). Each job gets one topic, partitioned identically to
// pregel.Owner's hash(vid) mod P so a worker's Kafka partition assignment
// lines up with its vertex ownership.
type Kafka struct {
	brokers []string
	writers map[string]*kafka.Writer
	readers map[string]*kafka.Reader
	groupID string
}

// NewKafka creates a Kafka transport dialing brokers. groupID is stored on
// the transport, but readers are assigned their partition explicitly and
// join no consumer group.
func NewKafka(brokers []string, groupID string) *Kafka {
	return &Kafka{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
		readers: make(map[string]*kafka.Reader),
		groupID: groupID,
	}
}

func topicName(jobID string) string {
	return "pregel-" + jobID
}

func (k *Kafka) writerFor(jobID string) *kafka.Writer {
	topic := topicName(jobID)
	if w, ok := k.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(k.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // keyed by partition via explicit Partition below
		RequiredAcks: kafka.RequireAll,
	}
	k.writers[topic] = w
	return w
}

func (k *Kafka) readerFor(jobID string, partition int) *kafka.Reader {
	mapKey := fmt.Sprintf("%s/%d", jobID, partition)
	if r, ok := k.readers[mapKey]; ok {
		return r
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   k.brokers,
		Topic:     topicName(jobID),
		Partition: partition,
		GroupID:   "", // explicit partition assignment, not group-managed
		MinBytes:  1,
		MaxBytes:  10e6,
		MaxWait:   200 * time.Millisecond,
	})
	k.readers[mapKey] = r
	return r
}

func (k *Kafka) Publish(ctx context.Context, msg pregel.WireMessage) error {
	w := k.writerFor(msg.JobID)
	return w.WriteMessages(ctx, kafka.Message{
		Partition: msg.Partition,
		Key:       []byte(fmt.Sprintf("%d", msg.Superstep)),
		Value:     msg.Payload,
	})
}

// Consume performs a bounded, non-blocking drain of whatever is
// immediately available on the partition's reader, returning as soon as
// FetchMessage would otherwise block. Kafka has no "give me everything
// currently buffered" primitive, so this loops with a short deadline
// rather than reading a single message at a time.
func (k *Kafka) Consume(ctx context.Context, jobID string, partition int) ([]pregel.WireMessage, error) {
	r := k.readerFor(jobID, partition)
	var out []pregel.WireMessage
	for {
		fetchCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		m, err := r.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			break // deadline exceeded or context canceled: nothing more buffered right now
		}
		out = append(out, pregel.WireMessage{
			JobID:     jobID,
			Partition: partition,
			Payload:   m.Value,
		})
		if err := r.CommitMessages(ctx, m); err != nil {
			return out, fmt.Errorf("pregel/transport: commit kafka offset: %w", err)
		}
	}
	return out, nil
}

// Close releases every writer and reader this transport has opened.
func (k *Kafka) Close() error {
	for _, w := range k.writers {
		_ = w.Close()
	}
	for _, r := range k.readers {
		_ = r.Close()
	}
	return nil
}

var _ pregel.MessageTransport = (*Kafka)(nil)
