package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigiajus/vigiajus/internal/domain/novelty"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleNovelty() *novelty.Novelty {
	return &novelty.Novelty{
		ID:           common.NewID(),
		ProcessID:    common.NewID(),
		CNJNumber:    "0000001-45.2024.8.26.0001",
		TribunalName: "Tribunal de Justiça de São Paulo",
		Title:        "Sentença de mérito proferida",
		Priority:     common.PriorityUrgent,
		Tags:         []string{"sentença"},
		Date:         time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		CreatedAt:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublishNoveltyCreated(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, topic: DefaultNoveltyTopic, logger: logging.NewNopLogger()}
	n := sampleNovelty()

	require.NoError(t, p.PublishNoveltyCreated(context.Background(), n))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, []byte(n.CNJNumber), msg.Key)

	var event NoveltyCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, n.ID, event.NoveltyID)
	assert.Equal(t, n.ProcessID, event.ProcessID)
	assert.Equal(t, common.PriorityUrgent, event.Priority)
	assert.NotEmpty(t, event.EventID)
}

func TestPublishCarriesHeaders(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, logger: logging.NewNopLogger()}

	require.NoError(t, p.PublishNoveltyCreated(context.Background(), sampleNovelty()))

	headers := map[string]string{}
	for _, h := range w.messages[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "novelty.created", headers["event_type"])
	assert.Equal(t, "urgent", headers["priority"])
}

func TestPublishWriteFailure(t *testing.T) {
	w := &fakeWriter{err: fmt.Errorf("broker unreachable")}
	p := &Publisher{writer: w, logger: logging.NewNopLogger()}

	err := p.PublishNoveltyCreated(context.Background(), sampleNovelty())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeEventPublish))
}

func TestPublisherClose(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, logger: logging.NewNopLogger()}

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
