// Package events publishes batch lifecycle events to Amazon EventBridge.
package events

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/rs/zerolog/log"

	"github.com/fpang/pitch-scorer/internal/apperr"
)

// DetailTypeBatchCompleted is emitted once per finished batch run.
const DetailTypeBatchCompleted = "BatchCompleted"

type putEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgePublisher puts JSON events on a bus.
type EventBridgePublisher struct {
	client  putEventsAPI
	busName string
	source  string
}

// NewEventBridgePublisher creates a publisher for busName. client is
// usually an *eventbridge.Client.
func NewEventBridgePublisher(client putEventsAPI, busName, source string) *EventBridgePublisher {
	return &EventBridgePublisher{client: client, busName: busName, source: source}
}

// Publish marshals detail and puts a single event of detailType.
func (p *EventBridgePublisher) Publish(ctx context.Context, detailType string, detail interface{}) error {
	body, err := json.Marshal(detail)
	if err != nil {
		return apperr.Wrapf(err, "marshal %s", detailType)
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []eventbridgetypes.PutEventsRequestEntry{{
			EventBusName: aws.String(p.busName),
			Source:       aws.String(p.source),
			DetailType:   aws.String(detailType),
			Detail:       aws.String(string(body)),
		}},
	})
	if err != nil {
		log.Error().Err(err).Str("detailType", detailType).Str("bus", p.busName).Msg("EventBridge PutEvents failed")
		return apperr.Wrap(err, "PutEvents")
	}

	if out.FailedEntryCount > 0 {
		for i, entry := range out.Entries {
			if entry.ErrorCode != nil || entry.ErrorMessage != nil {
				log.Error().
					Int("index", i).
					Str("errorCode", aws.ToString(entry.ErrorCode)).
					Str("errorMessage", aws.ToString(entry.ErrorMessage)).
					Str("detailType", detailType).
					Msg("EventBridge PutEvents entry failed")
				return apperr.Newf("PutEvents entry %d failed: %s - %s", i, aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
			}
		}
	}

	log.Debug().Str("detailType", detailType).Str("bus", p.busName).Msg("Event published")
	return nil
}
