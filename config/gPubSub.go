package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// ActivityEvent is the payload published for every recorded user activity.
type ActivityEvent struct {
	ID            int             `json:"id"`
	UserId        int             `json:"user_id"`
	Username      string          `json:"username"`
	ActivityType  string          `json:"activity_type"`
	Description   string          `json:"description"`
	Details       json.RawMessage `json:"details,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationId string          `json:"correlation_id"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return os.Getenv("GCP_PROJECT")
}

// GetPubSubClient returns the shared Pub/Sub client, creating it on first use.
// It uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is provided.
func GetPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient != nil {
		return pubsubClient, nil
	}

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	var (
		c   *pubsub.Client
		err error
	)
	if credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON"); credJSON != "" {
		c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		c, err = pubsub.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("pubsub client ready (project_id=%s)", projectID)
	pubsubClient = c
	return c, nil
}

// PublishActivity sends an activity event to the configured topic.
// It is a no-op when no topic is configured.
func PublishActivity(ctx context.Context, event ActivityEvent) (string, error) {
	topicName := GetSettings().PubSubTopic
	if topicName == "" {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := GetPubSubClient(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	result := client.Topic(topicName).Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"activity_type": event.ActivityType,
		},
	})
	return result.Get(ctx)
}

func ClosePubSub() {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient != nil {
		_ = pubsubClient.Close()
		pubsubClient = nil
	}
}
