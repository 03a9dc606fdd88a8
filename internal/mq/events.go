package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lecturehub/apiserver/types"
)

const attrEventType = "type"

// LecturePublisher publishes lecture events as JSON to one topic.
type LecturePublisher struct {
	mq    *MQ
	topic string
}

func NewLecturePublisher(m *MQ, topic string) *LecturePublisher {
	return &LecturePublisher{mq: m, topic: topic}
}

func (p *LecturePublisher) PublishLectureEvent(ctx context.Context, event types.LectureEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode lecture event: %w", err)
	}
	_, err = p.mq.Publish(ctx, p.topic, data, map[string]string{attrEventType: event.Type})
	return err
}

// ConsumeLectureEvents decodes lecture events from the topic and passes
// them to handle until ctx is done. Undecodable messages are dropped.
func (p *LecturePublisher) ConsumeLectureEvents(ctx context.Context, handle func(context.Context, types.LectureEvent) error) error {
	return p.mq.Subscribe(ctx, p.topic, func(ctx context.Context, msg Message) error {
		var event types.LectureEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		return handle(ctx, event)
	})
}
